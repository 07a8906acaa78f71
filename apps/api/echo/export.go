package echoapi

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/infobank/intranet/core/course"
	"github.com/infobank/intranet/core/support"
	"github.com/infobank/intranet/core/user"
	exportsvc "github.com/infobank/intranet/services/export"
)

type exportApi struct {
	courseSvc  *course.Service
	userSvc    user.ServiceInterface
	supportSvc *support.Service
}

func registerExportAPI(
	g *echo.Group,
	jwt, revocation echo.MiddlewareFunc,
	courseSvc *course.Service,
	userSvc user.ServiceInterface,
	supportSvc *support.Service,
) {
	api := exportApi{courseSvc: courseSvc, userSvc: userSvc, supportSvc: supportSvc}

	eg := g.Group("/exports", jwt, revocation, adminMiddleware())
	eg.GET("/enrollments", api.enrollments)
	eg.GET("/users", api.users)
	eg.GET("/courses", api.courses)
	eg.GET("/messages", api.messages)
}

func (api *exportApi) enrollments(ctx echo.Context) error {
	enrs, err := api.courseSvc.AllEnrollments(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}

	table := exportsvc.Table{
		Title:   "Reporte de Inscripciones",
		Headers: []string{"Usuario", "Curso", "Estado", "Progreso", "Inscrito", "Completado", "Calificación"},
	}
	for _, enr := range enrs {
		completed := ""
		if enr.CompletedAt != nil {
			completed = enr.CompletedAt.Format("2006-01-02")
		}
		grade := ""
		if enr.Calificacion != nil {
			grade = strconv.Itoa(*enr.Calificacion)
		}
		table.Rows = append(table.Rows, []string{
			enr.UserEmail,
			enr.CourseName,
			enr.Status,
			fmt.Sprintf("%d%%", enr.Progress),
			enr.EnrolledAt.Format("2006-01-02"),
			completed,
			grade,
		})
	}
	return api.write(ctx, "inscripciones", table)
}

func (api *exportApi) users(ctx echo.Context) error {
	users, err := api.userSvc.Query(ctx.Request().Context(), nil, nil)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}

	table := exportsvc.Table{
		Title:   "Reporte de Usuarios",
		Headers: []string{"Nombre", "Apellido", "Email", "Área", "Rol", "Estado", "Último acceso"},
	}
	for _, usr := range users {
		lastAccess := ""
		if !usr.LastAccess.IsZero() {
			lastAccess = usr.LastAccess.Format("2006-01-02 15:04")
		}
		table.Rows = append(table.Rows, []string{
			usr.Nombre,
			usr.Apellido,
			usr.Email,
			usr.Area,
			usr.Rol,
			usr.Estado,
			lastAccess,
		})
	}
	return api.write(ctx, "usuarios", table)
}

func (api *exportApi) courses(ctx echo.Context) error {
	courses, err := api.courseSvc.QueryAll(ctx.Request().Context(), nil)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}

	table := exportsvc.Table{
		Title:   "Reporte de Cursos",
		Headers: []string{"Nombre", "Duración", "Fecha límite", "Cupos", "Inscritos", "Estado", "Creado"},
	}
	for _, crs := range courses {
		table.Rows = append(table.Rows, []string{
			crs.Nombre,
			crs.Duracion,
			crs.FechaLimite,
			strconv.Itoa(crs.Cupos),
			strconv.Itoa(crs.Inscritos),
			crs.Estado,
			crs.CreatedAt.Format("2006-01-02"),
		})
	}
	return api.write(ctx, "cursos", table)
}

func (api *exportApi) messages(ctx echo.Context) error {
	msgs, err := api.supportSvc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying messages")
	}

	table := exportsvc.Table{
		Title:   "Reporte de Mensajes de Soporte",
		Headers: []string{"Remitente", "Asunto", "Estado", "Recibido", "Respondido"},
	}
	for _, msg := range msgs {
		answered := ""
		if msg.RespondidoEn != nil {
			answered = msg.RespondidoEn.Format("2006-01-02 15:04")
		}
		table.Rows = append(table.Rows, []string{
			msg.Remitente,
			msg.Asunto,
			msg.Estado,
			msg.CreadoEn.Format("2006-01-02 15:04"),
			answered,
		})
	}
	return api.write(ctx, "mensajes", table)
}

func (api *exportApi) write(ctx echo.Context, name string, table exportsvc.Table) error {
	stamp := time.Now().Format("20060102")
	var buf bytes.Buffer

	switch format := ctx.QueryParam("format"); format {
	case "", "xlsx":
		if err := exportsvc.WriteXLSX(&buf, table); err != nil {
			return errors.Wrap(err, "rendering xlsx")
		}
		ctx.Response().Header().Set(echo.HeaderContentDisposition,
			fmt.Sprintf(`attachment; filename="%s-%s.xlsx"`, name, stamp))
		return ctx.Blob(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
	case "pdf":
		if err := exportsvc.WritePDF(&buf, table); err != nil {
			return errors.Wrap(err, "rendering pdf")
		}
		ctx.Response().Header().Set(echo.HeaderContentDisposition,
			fmt.Sprintf(`attachment; filename="%s-%s.pdf"`, name, stamp))
		return ctx.Blob(http.StatusOK, "application/pdf", buf.Bytes())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, echo.Map{"error": "unsupported format: " + format})
	}
}

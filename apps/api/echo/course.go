package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/infobank/intranet/core/course"
	"github.com/infobank/intranet/core/user"
)

type courseApi struct {
	svc      *course.Service
	userSvc  user.ServiceInterface
	validate *validator.Validate
}

func registerCourseAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	revocation echo.MiddlewareFunc,
	svc *course.Service,
	userSvc user.ServiceInterface,
	validate *validator.Validate,
) {
	api := courseApi{svc: svc, userSvc: userSvc, validate: validate}

	cg := g.Group("/courses", jwt, revocation)
	cg.GET("", api.query, adminMiddleware())
	cg.POST("", api.create, adminMiddleware())
	cg.GET("/catalog", api.catalog)

	dg := cg.Group("/:id")
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, adminMiddleware())
	dg.DELETE("", api.destroy, adminMiddleware())
	dg.POST("/archive", api.archive, adminMiddleware())
	dg.POST("/unarchive", api.unarchive, adminMiddleware())
	dg.GET("/links", api.links)

	dg.POST("/enroll", api.enroll)
	dg.DELETE("/enroll", api.cancel)
	dg.GET("/enrollment", api.myEnrollment)
	dg.GET("/enrollments", api.courseEnrollments, adminMiddleware())
	dg.POST("/progress/document", api.documentViewed)
	dg.POST("/progress/video", api.videoViewed)

	dg.GET("/questions", api.questions)
	dg.POST("/questions", api.addQuestion, adminMiddleware())
	dg.DELETE("/questions", api.deleteQuestions, adminMiddleware())
	dg.POST("/evaluation", api.evaluation)

	eg := g.Group("/enrollments", jwt, revocation)
	eg.GET("", api.myEnrollments)
	eg.GET("/all", api.allEnrollments, adminMiddleware())
}

// Handlers

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	crs, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, crs)
}

func (api *courseApi) query(ctx echo.Context) error {
	ordering := new(Ordering)
	ordering.Bind(ctx)

	courses, err := api.svc.QueryAll(ctx.Request().Context(), ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) catalog(ctx echo.Context) error {
	entries, err := api.svc.Catalog(ctx.Request().Context(), ctx.QueryParam("search"))
	if err != nil {
		return errors.Wrap(err, "querying catalog")
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	crs, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding course by ID")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) update(ctx echo.Context) error {
	var data course.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	crs, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) archive(ctx echo.Context) error {
	crs, err := api.svc.SetArchived(ctx.Request().Context(), ctx.Param("id"), true)
	if err != nil {
		return errors.Wrap(err, "archiving course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) unarchive(ctx echo.Context) error {
	crs, err := api.svc.SetArchived(ctx.Request().Context(), ctx.Param("id"), false)
	if err != nil {
		return errors.Wrap(err, "unarchiving course")
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// links resolves the course's material links for the detail page: share links
// become view/download pairs and the video URL is normalized for embedding.
func (api *courseApi) links(ctx echo.Context) error {
	crs, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding course by ID")
	}

	resp := CourseLinksResponse{}
	if crs.ArchivoEnlace != "" {
		links := course.ResolveShareLinks(crs.ArchivoEnlace)
		resp.Archivo = &links
		resp.DescargaDirecta = course.ResolveDirectDownload(crs.ArchivoEnlace)
	}
	if crs.VideoURL != "" {
		if normalized, ok := course.NormalizeVideoURL(crs.VideoURL); ok {
			resp.Video = normalized
		}
	}
	return ctx.JSON(http.StatusOK, resp)
}

// Tracker

func (api *courseApi) enroll(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	enr, err := api.svc.Enroll(ctx.Request().Context(), ctxUsr.ID, ctxUsr.Email, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "enrolling")
	}
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *courseApi) cancel(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err := api.svc.Cancel(ctx.Request().Context(), ctxUsr.ID, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "cancelling enrollment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) myEnrollment(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	enr, err := api.svc.EnrollmentFor(ctx.Request().Context(), ctxUsr.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding enrollment")
	}
	return ctx.JSON(http.StatusOK, enr)
}

func (api *courseApi) myEnrollments(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	enrollments, err := api.svc.EnrollmentsByUser(ctx.Request().Context(), ctxUsr.ID)
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	if enrollments == nil {
		enrollments = []course.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, enrollments)
}

func (api *courseApi) courseEnrollments(ctx echo.Context) error {
	enrollments, err := api.svc.EnrollmentsByCourse(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	if enrollments == nil {
		enrollments = []course.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, enrollments)
}

func (api *courseApi) allEnrollments(ctx echo.Context) error {
	enrollments, err := api.svc.AllEnrollments(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	if enrollments == nil {
		enrollments = []course.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, enrollments)
}

func (api *courseApi) documentViewed(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	enr, err := api.svc.RecordDocumentView(ctx.Request().Context(), ctxUsr.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "recording document view")
	}
	return ctx.JSON(http.StatusOK, enr)
}

func (api *courseApi) videoViewed(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	enr, err := api.svc.RecordVideoView(ctx.Request().Context(), ctxUsr.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "recording video view")
	}
	return ctx.JSON(http.StatusOK, enr)
}

// Evaluations

func (api *courseApi) questions(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	questions, err := api.svc.Questions(ctx.Request().Context(), ctx.Param("id"), claims.IsAdmin)
	if err != nil {
		return errors.Wrap(err, "querying questions")
	}
	if questions == nil {
		questions = []course.Question{}
	}
	return ctx.JSON(http.StatusOK, questions)
}

func (api *courseApi) addQuestion(ctx echo.Context) error {
	var data course.NewQuestion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuestion")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	q, err := api.svc.AddQuestion(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "adding question")
	}
	return ctx.JSON(http.StatusCreated, q)
}

func (api *courseApi) deleteQuestions(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	if err := api.svc.DeleteQuestions(ctx.Request().Context(), query.IDs...); err != nil {
		return errors.Wrap(err, "deleting questions")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// evaluation accepts either per-question answers (graded against the course
// bank) or a pre-computed score from an external evaluation form.
func (api *courseApi) evaluation(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data EvaluationRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EvaluationRequest")
	}

	enrID := course.EnrollmentID(ctxUsr.ID, ctx.Param("id"))
	if len(data.Answers) > 0 {
		enr, score, err := api.svc.GradeEvaluation(ctx.Request().Context(), enrID, data.Answers)
		if err != nil {
			return errors.Wrap(err, "grading evaluation")
		}
		return ctx.JSON(http.StatusOK, EvaluationResponse{Enrollment: enr, Calificacion: score})
	}
	if data.Calificacion == nil {
		return errors.Wrap(echo.NewHTTPError(http.StatusBadRequest, "answers or calificacion required"), "validating evaluation")
	}

	enr, err := api.svc.SubmitEvaluation(ctx.Request().Context(), enrID, *data.Calificacion)
	if err != nil {
		return errors.Wrap(err, "submitting evaluation")
	}
	return ctx.JSON(http.StatusOK, EvaluationResponse{Enrollment: enr, Calificacion: *data.Calificacion})
}

type (
	CourseLinksResponse struct {
		Archivo         *course.ShareLinks `json:"archivo,omitempty"`
		DescargaDirecta string             `json:"descargaDirecta,omitempty"`
		Video           string             `json:"video,omitempty"`
	}

	EvaluationRequest struct {
		Answers      map[string]int `json:"answers"`
		Calificacion *int           `json:"calificacion"`
	}

	EvaluationResponse struct {
		course.Enrollment
		Calificacion int `json:"calificacion"`
	}
)

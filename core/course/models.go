package course

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/infobank/intranet/core"
)

// Course states
const (
	EstadoActivo    = "activo"
	EstadoArchivado = "archivado"
)

// Enrollment states
const (
	StatusEnProgreso = "en_progreso"
	StatusCompletado = "completado"
)

// Progress checkpoints; progress only ever holds one of these and never goes back.
const (
	ProgressNone     = 0
	ProgressDocument = 50
	ProgressVideo    = 100
)

// UrgentDays is the deadline window (inclusive) that flags a course urgente.
const UrgentDays = 3

// deadlineLayout is the stored fechaLimite format.
const deadlineLayout = "2006-01-02"

type Course struct {
	ID               string    `json:"id"`
	Nombre           string    `json:"nombre"`
	Descripcion      string    `json:"descripcion"`
	Duracion         string    `json:"duracion"`    // free text ("8 horas")
	FechaLimite      string    `json:"fechaLimite"` // YYYY-MM-DD; empty = no deadline
	Cupos            int       `json:"cupos"`
	Inscritos        int       `json:"inscritos"` // denormalized seat count
	Imagen           string    `json:"imagen"`
	ArchivoEnlace    string    `json:"archivoEnlace"`
	VideoURL         string    `json:"videoUrl"`
	EnlaceEvaluacion string    `json:"enlaceEvaluacion"`
	Estado           string    `json:"estado"` // activo | archivado
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Deadline parses FechaLimite at local midnight. ok is false when unset or malformed.
func (c Course) Deadline() (deadline time.Time, ok bool) {
	if c.FechaLimite == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(deadlineLayout, c.FechaLimite, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Expired reports whether the deadline (normalized to local midnight) is
// strictly before today. An unset deadline never expires.
func (c Course) Expired(today time.Time) bool {
	deadline, ok := c.Deadline()
	if !ok {
		return false
	}
	return deadline.Before(midnight(today))
}

// Urgente reports whether the deadline falls within the next UrgentDays days
// (inclusive of today).
func (c Course) Urgente(today time.Time) bool {
	deadline, ok := c.Deadline()
	if !ok {
		return false
	}
	days := int(deadline.Sub(midnight(today)).Hours() / 24)
	return days >= 0 && days <= UrgentDays
}

// Full reports whether every seat is taken; enrolling is disabled then.
func (c Course) Full() bool {
	return c.Cupos > 0 && c.Inscritos >= c.Cupos
}

func (c Course) Archived() bool { return c.Estado == EstadoArchivado }

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// CatalogEntry decorates a Course for the learner-facing list.
type CatalogEntry struct {
	Course
	Urgente       bool `json:"urgente"`
	CuposAgotados bool `json:"cuposAgotados"`
}

// Enrollment links one account to one course; its id is the deterministic
// composite key {userID}_{courseID}.
type Enrollment struct {
	ID                   string     `json:"id"`
	UserID               string     `json:"userId"`
	CourseID             string     `json:"courseId"`
	CourseName           string     `json:"courseName"`
	UserEmail            string     `json:"userEmail"`
	Status               string     `json:"status"`   // en_progreso | completado
	Progress             int        `json:"progress"` // 0 | 50 | 100
	EnrolledAt           time.Time  `json:"enrolledAt"`
	CompletedAt          *time.Time `json:"completedAt"`
	CertificateURL       string     `json:"certificadoUrl,omitempty"`
	EvaluacionCompletada bool       `json:"evaluacionCompletada"`
	Calificacion         *int       `json:"calificacion,omitempty"`
}

func EnrollmentID(userID, courseID string) string {
	return userID + "_" + courseID
}

func (e Enrollment) Completed() bool { return e.Status == StatusCompletado }

// Question belongs to a course's evaluation bank.
type Question struct {
	ID                string   `json:"id"`
	CourseID          string   `json:"cursoId"`
	Pregunta          string   `json:"pregunta"`
	Opciones          []string `json:"opciones"`
	RespuestaCorrecta int      `json:"respuestaCorrecta"` // index into Opciones
}

// Sanitized strips the correct answer for learner delivery.
func (q Question) Sanitized() Question {
	q.RespuestaCorrecta = -1
	return q
}

// NewCourse contains information needed to create a Course.
// Every field the admin form marks required is required here too.
type NewCourse struct {
	Nombre           string `json:"nombre" validate:"required"`
	Descripcion      string `json:"descripcion" validate:"required"`
	Duracion         string `json:"duracion" validate:"required"`
	FechaLimite      string `json:"fechaLimite" validate:"required,datetime=2006-01-02"`
	Cupos            int    `json:"cupos" validate:"required,gte=1"`
	Imagen           string `json:"imagen" validate:"omitempty,url"`
	ArchivoEnlace    string `json:"archivoEnlace" validate:"omitempty,url"`
	VideoURL         string `json:"videoUrl" validate:"omitempty,url"`
	EnlaceEvaluacion string `json:"enlaceEvaluacion" validate:"omitempty,url"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Nombre = core.CleanString(nc.Nombre)
	nc.Descripcion = core.CleanString(nc.Descripcion)
	nc.Duracion = core.CleanString(nc.Duracion)
	nc.FechaLimite = core.CleanString(nc.FechaLimite)
	if err := validate.Struct(nc); err != nil {
		return err
	}
	return validateArchivoEnlace(nc.ArchivoEnlace)
}

// validateArchivoEnlace restricts course material to the known sharing
// services; the link rewriter only understands those hosts.
func validateArchivoEnlace(enlace string) error {
	if enlace != "" && !IsAllowedShareDomain(enlace) {
		return core.NewValidationError(nil, core.FieldError{
			Field: "archivoEnlace", Error: "unsupported sharing service",
		})
	}
	return nil
}

// UpdateCourse defines what may be modified on an existing Course.
type UpdateCourse struct {
	Nombre           string  `json:"nombre"`
	Descripcion      string  `json:"descripcion"`
	Duracion         string  `json:"duracion"`
	FechaLimite      string  `json:"fechaLimite" validate:"omitempty,datetime=2006-01-02"`
	Cupos            *int    `json:"cupos" validate:"omitempty,gte=1"`
	Imagen           *string `json:"imagen"`
	ArchivoEnlace    *string `json:"archivoEnlace"`
	VideoURL         *string `json:"videoUrl"`
	EnlaceEvaluacion *string `json:"enlaceEvaluacion"`
	Estado           string  `json:"estado" validate:"omitempty,oneof=activo archivado"`
}

func (uc *UpdateCourse) Validate(validate *validator.Validate) error {
	uc.Nombre = core.CleanString(uc.Nombre)
	uc.Descripcion = core.CleanString(uc.Descripcion)
	uc.FechaLimite = core.CleanString(uc.FechaLimite)
	if err := validate.Struct(uc); err != nil {
		return err
	}
	if uc.ArchivoEnlace != nil {
		return validateArchivoEnlace(*uc.ArchivoEnlace)
	}
	return nil
}

// NewQuestion contains information needed to add a Question to a course bank.
type NewQuestion struct {
	Pregunta          string   `json:"pregunta" validate:"required"`
	Opciones          []string `json:"opciones" validate:"required,min=2,dive,required"`
	RespuestaCorrecta int      `json:"respuestaCorrecta" validate:"gte=0"`
}

func (nq *NewQuestion) Validate(validate *validator.Validate) error {
	nq.Pregunta = core.CleanString(nq.Pregunta)
	if err := validate.Struct(nq); err != nil {
		return err
	}
	if nq.RespuestaCorrecta >= len(nq.Opciones) {
		return core.NewValidationError(nil, core.FieldError{
			Field: "respuestaCorrecta", Error: "index out of range",
		})
	}
	return nil
}

package course

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/infobank/intranet/core"
)

var (
	// errors
	ErrNotFound           = errors.New("course not found")
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrQuestionNotFound   = errors.New("question not found")
	ErrAlreadyEnrolled    = errors.New("already enrolled in this course")
	ErrCourseFull         = errors.New("cupos agotados")

	NowFunc = time.Now // mockable
)

// Live feed topics.
const (
	Collection            = "cursos"
	EnrollmentsCollection = "enrolments"
)

type (
	// Repository owns courses, enrollments and the evaluation question bank.
	// Seat accounting is the repository's job: CreateEnrollment takes a seat
	// and DeleteEnrollment releases it within one transaction, so the
	// inscritos counter can never overshoot cupos.
	Repository interface {
		CreateCourse(ctx context.Context, c Course) (Course, error)
		QueryCourses(ctx context.Context, ordering []core.DBOrdering) ([]Course, error)
		GetCourseByID(ctx context.Context, id string) (Course, error)
		UpdateCourse(ctx context.Context, c Course) (Course, error)
		DeleteCoursesByID(ctx context.Context, ids []string) (int, error)

		GetEnrollment(ctx context.Context, id string) (Enrollment, error)
		QueryEnrollmentsByUser(ctx context.Context, userID string) ([]Enrollment, error)
		QueryEnrollmentsByCourse(ctx context.Context, courseID string) ([]Enrollment, error)
		QueryAllEnrollments(ctx context.Context) ([]Enrollment, error)
		CreateEnrollment(ctx context.Context, e Enrollment) (Enrollment, error)
		UpdateEnrollment(ctx context.Context, e Enrollment) (Enrollment, error)
		DeleteEnrollment(ctx context.Context, id string) error

		CreateQuestion(ctx context.Context, q Question) (Question, error)
		QueryQuestionsByCourse(ctx context.Context, courseID string) ([]Question, error)
		DeleteQuestionsByID(ctx context.Context, ids []string) (int, error)
	}

	// Notifier records admin-facing notifications for tracker events.
	Notifier interface {
		Notify(ctx context.Context, titulo, descripcion, tipo, cursoID, usuarioID string) error
	}

	Service struct {
		repo     Repository
		bus      *core.Bus
		notifier Notifier
	}
)

func NewService(repo Repository, bus *core.Bus, notifier Notifier) *Service {
	return &Service{repo: repo, bus: bus, notifier: notifier}
}

// Courses

func (svc *Service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	now := time.Now().UTC()
	crs := Course{
		Nombre:           nc.Nombre,
		Descripcion:      nc.Descripcion,
		Duracion:         nc.Duracion,
		FechaLimite:      nc.FechaLimite,
		Cupos:            nc.Cupos,
		Imagen:           nc.Imagen,
		ArchivoEnlace:    nc.ArchivoEnlace,
		VideoURL:         nc.VideoURL,
		EnlaceEvaluacion: nc.EnlaceEvaluacion,
		Estado:           EstadoActivo,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	crs, err := svc.repo.CreateCourse(ctx, crs)
	if err != nil {
		return Course{}, err
	}
	svc.bus.Publish(core.Event{Topic: Collection, Action: core.ActionCreated, Doc: crs})
	return crs, nil
}

// QueryAll returns every course, archived included; this is the admin view.
func (svc *Service) QueryAll(ctx context.Context, ordering []core.DBOrdering) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, ordering)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourseByID(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id string, uc UpdateCourse) (Course, error) {
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}

	if uc.Nombre != "" {
		crs.Nombre = uc.Nombre
	}
	if uc.Descripcion != "" {
		crs.Descripcion = uc.Descripcion
	}
	if uc.Duracion != "" {
		crs.Duracion = uc.Duracion
	}
	if uc.FechaLimite != "" {
		crs.FechaLimite = uc.FechaLimite
	}
	if uc.Cupos != nil {
		crs.Cupos = *uc.Cupos
	}
	if uc.Imagen != nil {
		crs.Imagen = *uc.Imagen
	}
	if uc.ArchivoEnlace != nil {
		crs.ArchivoEnlace = *uc.ArchivoEnlace
	}
	if uc.VideoURL != nil {
		crs.VideoURL = *uc.VideoURL
	}
	if uc.EnlaceEvaluacion != nil {
		crs.EnlaceEvaluacion = *uc.EnlaceEvaluacion
	}
	if uc.Estado != "" {
		crs.Estado = uc.Estado
	}
	crs.UpdatedAt = time.Now().UTC()

	crs, err = svc.repo.UpdateCourse(ctx, crs)
	if err != nil {
		return Course{}, err
	}
	svc.bus.Publish(core.Event{Topic: Collection, Action: core.ActionUpdated, Doc: crs})
	return crs, nil
}

// SetArchived flips the archived flag; archived courses leave the learner
// catalog but stay visible to admins.
func (svc *Service) SetArchived(ctx context.Context, id string, archived bool) (Course, error) {
	estado := EstadoActivo
	if archived {
		estado = EstadoArchivado
	}
	return svc.Update(ctx, id, UpdateCourse{Estado: estado})
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	if _, err := svc.repo.DeleteCoursesByID(ctx, ids); err != nil {
		return err
	}
	for _, id := range ids {
		svc.bus.Publish(core.Event{Topic: Collection, Action: core.ActionDeleted, Doc: Course{ID: id}})
	}
	return nil
}

// Catalog derives the learner-facing list: archived and expired courses are
// excluded, search is a case-insensitive substring match on the name, and
// each entry carries its urgente / cupos-agotados decorations.
func (svc *Service) Catalog(ctx context.Context, search string) ([]CatalogEntry, error) {
	courses, err := svc.repo.QueryCourses(ctx, nil)
	if err != nil {
		return nil, err
	}

	today := NowFunc()
	search = strings.ToLower(core.CleanString(search))

	entries := make([]CatalogEntry, 0, len(courses))
	for _, crs := range courses {
		if crs.Archived() || crs.Expired(today) {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(crs.Nombre), search) {
			continue
		}
		entries = append(entries, CatalogEntry{
			Course:        crs,
			Urgente:       crs.Urgente(today),
			CuposAgotados: crs.Full(),
		})
	}
	return entries, nil
}

// Tracker

// Enroll creates the enrollment for (userID, courseID) and takes a seat.
// The seat guard runs inside the repository transaction; ErrCourseFull is
// returned without any write when no seat is free.
func (svc *Service) Enroll(ctx context.Context, userID, userEmail, courseID string) (Enrollment, error) {
	crs, err := svc.repo.GetCourseByID(ctx, courseID)
	if err != nil {
		return Enrollment{}, err
	}

	id := EnrollmentID(userID, courseID)
	if _, err := svc.repo.GetEnrollment(ctx, id); err == nil {
		return Enrollment{}, ErrAlreadyEnrolled
	} else if errors.Cause(err) != ErrEnrollmentNotFound {
		return Enrollment{}, err
	}

	enr := Enrollment{
		ID:         id,
		UserID:     userID,
		CourseID:   courseID,
		CourseName: crs.Nombre,
		UserEmail:  userEmail,
		Status:     StatusEnProgreso,
		Progress:   ProgressNone,
		EnrolledAt: time.Now().UTC(),
	}
	enr, err = svc.repo.CreateEnrollment(ctx, enr)
	if err != nil {
		return Enrollment{}, err
	}

	if svc.notifier != nil {
		descripcion := userEmail + " se inscribió en \"" + crs.Nombre + "\""
		if err := svc.notifier.Notify(ctx, "Nueva inscripción", descripcion, "curso", courseID, userID); err != nil {
			return Enrollment{}, errors.Wrap(err, "recording enrollment notification")
		}
	}

	svc.bus.Publish(core.Event{Topic: EnrollmentsCollection, Action: core.ActionCreated, Doc: enr})
	svc.publishCourseUpdate(ctx, courseID)
	return enr, nil
}

// Cancel removes the enrollment and releases its seat. There is no guard
// against cancelling a completed enrollment.
func (svc *Service) Cancel(ctx context.Context, userID, courseID string) error {
	id := EnrollmentID(userID, courseID)
	if err := svc.repo.DeleteEnrollment(ctx, id); err != nil {
		return err
	}
	svc.bus.Publish(core.Event{Topic: EnrollmentsCollection, Action: core.ActionDeleted, Doc: Enrollment{ID: id}})
	svc.publishCourseUpdate(ctx, courseID)
	return nil
}

// RecordDocumentView advances progress to the document checkpoint.
// Idempotent at and above the threshold.
func (svc *Service) RecordDocumentView(ctx context.Context, userID, courseID string) (Enrollment, error) {
	enr, err := svc.repo.GetEnrollment(ctx, EnrollmentID(userID, courseID))
	if err != nil {
		return Enrollment{}, err
	}
	if enr.Progress >= ProgressDocument {
		return enr, nil
	}

	enr.Progress = ProgressDocument
	enr, err = svc.repo.UpdateEnrollment(ctx, enr)
	if err != nil {
		return Enrollment{}, err
	}
	svc.bus.Publish(core.Event{Topic: EnrollmentsCollection, Action: core.ActionUpdated, Doc: enr})
	return enr, nil
}

// RecordVideoView advances progress to the ceiling and completes the
// enrollment; this is the sole transition into completado and there is no
// regression out of it. Idempotent at the ceiling.
func (svc *Service) RecordVideoView(ctx context.Context, userID, courseID string) (Enrollment, error) {
	enr, err := svc.repo.GetEnrollment(ctx, EnrollmentID(userID, courseID))
	if err != nil {
		return Enrollment{}, err
	}
	if enr.Progress >= ProgressVideo {
		return enr, nil
	}

	now := time.Now().UTC()
	enr.Progress = ProgressVideo
	enr.Status = StatusCompletado
	enr.CompletedAt = &now
	enr, err = svc.repo.UpdateEnrollment(ctx, enr)
	if err != nil {
		return Enrollment{}, err
	}
	svc.bus.Publish(core.Event{Topic: EnrollmentsCollection, Action: core.ActionUpdated, Doc: enr})
	return enr, nil
}

// EnrollmentFor returns the enrollment for the pair; ErrEnrollmentNotFound
// means "not enrolled", a valid empty state for callers.
func (svc *Service) EnrollmentFor(ctx context.Context, userID, courseID string) (Enrollment, error) {
	return svc.repo.GetEnrollment(ctx, EnrollmentID(userID, courseID))
}

func (svc *Service) EnrollmentsByUser(ctx context.Context, userID string) ([]Enrollment, error) {
	return svc.repo.QueryEnrollmentsByUser(ctx, userID)
}

func (svc *Service) EnrollmentsByCourse(ctx context.Context, courseID string) ([]Enrollment, error) {
	return svc.repo.QueryEnrollmentsByCourse(ctx, courseID)
}

func (svc *Service) AllEnrollments(ctx context.Context) ([]Enrollment, error) {
	return svc.repo.QueryAllEnrollments(ctx)
}

// SubmitEvaluation writes the evaluation result onto the enrollment.
// Note: the data layer deliberately does not require progress to have reached
// 100% first; the client disables the button below that threshold.
func (svc *Service) SubmitEvaluation(ctx context.Context, enrollmentID string, calificacion int) (Enrollment, error) {
	enr, err := svc.repo.GetEnrollment(ctx, enrollmentID)
	if err != nil {
		return Enrollment{}, err
	}

	enr.EvaluacionCompletada = true
	enr.Calificacion = &calificacion
	enr, err = svc.repo.UpdateEnrollment(ctx, enr)
	if err != nil {
		return Enrollment{}, err
	}
	svc.bus.Publish(core.Event{Topic: EnrollmentsCollection, Action: core.ActionUpdated, Doc: enr})
	return enr, nil
}

// GradeEvaluation scores the submitted answers against the course's question
// bank (round(correct/total*100)) and records the result.
func (svc *Service) GradeEvaluation(ctx context.Context, enrollmentID string, answers map[string]int) (Enrollment, int, error) {
	enr, err := svc.repo.GetEnrollment(ctx, enrollmentID)
	if err != nil {
		return Enrollment{}, 0, err
	}
	questions, err := svc.repo.QueryQuestionsByCourse(ctx, enr.CourseID)
	if err != nil {
		return Enrollment{}, 0, err
	}
	if len(questions) == 0 {
		return Enrollment{}, 0, core.NewValidationError(errors.New("no hay preguntas para este curso"))
	}

	var correct int
	for _, q := range questions {
		if idx, ok := answers[q.ID]; ok && idx == q.RespuestaCorrecta {
			correct++
		}
	}
	score := int(math.Round(float64(correct) / float64(len(questions)) * 100))

	enr, err = svc.SubmitEvaluation(ctx, enrollmentID, score)
	if err != nil {
		return Enrollment{}, 0, err
	}
	return enr, score, nil
}

// Evaluation bank

func (svc *Service) AddQuestion(ctx context.Context, courseID string, nq NewQuestion) (Question, error) {
	if _, err := svc.repo.GetCourseByID(ctx, courseID); err != nil {
		return Question{}, err
	}
	return svc.repo.CreateQuestion(ctx, Question{
		CourseID:          courseID,
		Pregunta:          nq.Pregunta,
		Opciones:          nq.Opciones,
		RespuestaCorrecta: nq.RespuestaCorrecta,
	})
}

// Questions returns a course's bank; learner copies have the correct answer
// stripped.
func (svc *Service) Questions(ctx context.Context, courseID string, includeAnswers bool) ([]Question, error) {
	questions, err := svc.repo.QueryQuestionsByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if includeAnswers {
		return questions, nil
	}
	sanitized := make([]Question, 0, len(questions))
	for _, q := range questions {
		sanitized = append(sanitized, q.Sanitized())
	}
	return sanitized, nil
}

func (svc *Service) DeleteQuestions(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteQuestionsByID(ctx, ids)
	return err
}

func (svc *Service) publishCourseUpdate(ctx context.Context, courseID string) {
	if crs, err := svc.repo.GetCourseByID(ctx, courseID); err == nil {
		svc.bus.Publish(core.Event{Topic: Collection, Action: core.ActionUpdated, Doc: crs})
	}
}

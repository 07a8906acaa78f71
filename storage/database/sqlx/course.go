package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/infobank/intranet/core"
	"github.com/infobank/intranet/core/course"
)

type courseRow struct {
	ID               string    `db:"id"`
	Nombre           string    `db:"nombre"`
	Descripcion      string    `db:"descripcion"`
	Duracion         string    `db:"duracion"`
	FechaLimite      string    `db:"fecha_limite"`
	Cupos            int       `db:"cupos"`
	Inscritos        int       `db:"inscritos"`
	Imagen           string    `db:"imagen"`
	ArchivoEnlace    string    `db:"archivo_enlace"`
	VideoURL         string    `db:"video_url"`
	EnlaceEvaluacion string    `db:"enlace_evaluacion"`
	Estado           string    `db:"estado"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

func (row courseRow) toCore() course.Course {
	return course.Course(row)
}

type enrollmentRow struct {
	ID                   string    `db:"id"`
	UserID               string    `db:"user_id"`
	CourseID             string    `db:"course_id"`
	CourseName           string    `db:"course_name"`
	UserEmail            string    `db:"user_email"`
	Status               string    `db:"status"`
	Progress             int       `db:"progress"`
	EnrolledAt           time.Time `db:"enrolled_at"`
	CompletedAt          null.Time `db:"completed_at"`
	CertificateURL       string    `db:"certificate_url"`
	EvaluacionCompletada bool      `db:"evaluacion_completada"`
	Calificacion         null.Int  `db:"calificacion"`
}

func (row enrollmentRow) toCore() course.Enrollment {
	e := course.Enrollment{
		ID:                   row.ID,
		UserID:               row.UserID,
		CourseID:             row.CourseID,
		CourseName:           row.CourseName,
		UserEmail:            row.UserEmail,
		Status:               row.Status,
		Progress:             row.Progress,
		EnrolledAt:           row.EnrolledAt,
		CertificateURL:       row.CertificateURL,
		EvaluacionCompletada: row.EvaluacionCompletada,
	}
	if row.CompletedAt.Valid {
		t := row.CompletedAt.Time
		e.CompletedAt = &t
	}
	if row.Calificacion.Valid {
		c := row.Calificacion.Int
		e.Calificacion = &c
	}
	return e
}

func newEnrollmentRow(e course.Enrollment) enrollmentRow {
	row := enrollmentRow{
		ID:                   e.ID,
		UserID:               e.UserID,
		CourseID:             e.CourseID,
		CourseName:           e.CourseName,
		UserEmail:            e.UserEmail,
		Status:               e.Status,
		Progress:             e.Progress,
		EnrolledAt:           e.EnrolledAt,
		CertificateURL:       e.CertificateURL,
		EvaluacionCompletada: e.EvaluacionCompletada,
	}
	if e.CompletedAt != nil {
		row.CompletedAt = null.TimeFrom(*e.CompletedAt)
	}
	if e.Calificacion != nil {
		row.Calificacion = null.IntFrom(*e.Calificacion)
	}
	return row
}

type questionRow struct {
	ID                string         `db:"id"`
	CourseID          string         `db:"course_id"`
	Pregunta          string         `db:"pregunta"`
	Opciones          pq.StringArray `db:"opciones"`
	RespuestaCorrecta int            `db:"respuesta_correcta"`
}

func (row questionRow) toCore() course.Question {
	return course.Question{
		ID:                row.ID,
		CourseID:          row.CourseID,
		Pregunta:          row.Pregunta,
		Opciones:          row.Opciones,
		RespuestaCorrecta: row.RespuestaCorrecta,
	}
}

var courseOrderings = map[string]string{
	"nombre":       "nombre",
	"fecha_limite": "fecha_limite",
	"cupos":        "cupos",
	"inscritos":    "inscritos",
	"created_at":   "created_at",
}

type courseRepository struct {
	db *sqlx.DB
}

func NewCourseRepository(db *sqlx.DB) course.Repository {
	return &courseRepository{db: db}
}

// Courses

func (repo *courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	const query = `
		INSERT INTO cursos (id, nombre, descripcion, duracion, fecha_limite, cupos, inscritos, imagen, archivo_enlace, video_url, enlace_evaluacion, estado, created_at, updated_at)
		VALUES (:id, :nombre, :descripcion, :duracion, :fecha_limite, :cupos, :inscritos, :imagen, :archivo_enlace, :video_url, :enlace_evaluacion, :estado, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, query, courseRow(c)); err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return c, nil
}

func (repo *courseRepository) QueryCourses(ctx context.Context, ordering []core.DBOrdering) ([]course.Course, error) {
	query := `SELECT * FROM cursos ` + orderBy(ordering, courseOrderings, `ORDER BY created_at DESC`)
	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, row.toCore())
	}
	return courses, nil
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	var row courseRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM cursos WHERE id = $1`, id); err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound)
	}
	return row.toCore(), nil
}

// UpdateCourse saves every field except inscritos; the seat counter only moves
// with enrollments.
func (repo *courseRepository) UpdateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	const query = `
		UPDATE cursos
		SET nombre = :nombre, descripcion = :descripcion, duracion = :duracion, fecha_limite = :fecha_limite,
		    cupos = :cupos, imagen = :imagen, archivo_enlace = :archivo_enlace, video_url = :video_url,
		    enlace_evaluacion = :enlace_evaluacion, estado = :estado, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, query, courseRow(c))
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return repo.GetCourseByID(ctx, c.ID)
}

func (repo *courseRepository) DeleteCoursesByID(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`DELETE FROM cursos WHERE id IN (?)`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "building delete query")
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting courses")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Enrollments

func (repo *courseRepository) GetEnrollment(ctx context.Context, id string) (course.Enrollment, error) {
	var row enrollmentRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM inscripciones WHERE id = $1`, id); err != nil {
		return course.Enrollment{}, trapNoRowsErr(err, course.ErrEnrollmentNotFound)
	}
	return row.toCore(), nil
}

func (repo *courseRepository) QueryEnrollmentsByUser(ctx context.Context, userID string) ([]course.Enrollment, error) {
	return repo.queryEnrollments(ctx, `SELECT * FROM inscripciones WHERE user_id = $1 ORDER BY enrolled_at DESC`, userID)
}

func (repo *courseRepository) QueryEnrollmentsByCourse(ctx context.Context, courseID string) ([]course.Enrollment, error) {
	return repo.queryEnrollments(ctx, `SELECT * FROM inscripciones WHERE course_id = $1 ORDER BY enrolled_at DESC`, courseID)
}

func (repo *courseRepository) QueryAllEnrollments(ctx context.Context) ([]course.Enrollment, error) {
	return repo.queryEnrollments(ctx, `SELECT * FROM inscripciones ORDER BY enrolled_at DESC`)
}

func (repo *courseRepository) queryEnrollments(ctx context.Context, query string, args ...interface{}) ([]course.Enrollment, error) {
	var rows []enrollmentRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	enrollments := make([]course.Enrollment, 0, len(rows))
	for _, row := range rows {
		enrollments = append(enrollments, row.toCore())
	}
	return enrollments, nil
}

// CreateEnrollment takes a seat and inserts the enrollment in one transaction.
// The conditional UPDATE is the capacity guard: a full course matches no row,
// the transaction rolls back and ErrCourseFull comes back without any write.
func (repo *courseRepository) CreateEnrollment(ctx context.Context, e course.Enrollment) (course.Enrollment, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return course.Enrollment{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE cursos SET inscritos = inscritos + 1 WHERE id = $1 AND (cupos <= 0 OR inscritos < cupos)`,
		e.CourseID,
	)
	if err != nil {
		return course.Enrollment{}, errors.Wrap(err, "taking seat")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		var exists bool
		if err := tx.GetContext(ctx, &exists, `SELECT true FROM cursos WHERE id = $1`, e.CourseID); err != nil {
			return course.Enrollment{}, trapNoRowsErr(err, course.ErrNotFound)
		}
		return course.Enrollment{}, course.ErrCourseFull
	}

	const query = `
		INSERT INTO inscripciones (id, user_id, course_id, course_name, user_email, status, progress, enrolled_at, completed_at, certificate_url, evaluacion_completada, calificacion)
		VALUES (:id, :user_id, :course_id, :course_name, :user_email, :status, :progress, :enrolled_at, :completed_at, :certificate_url, :evaluacion_completada, :calificacion)`
	if _, err := tx.NamedExecContext(ctx, query, newEnrollmentRow(e)); err != nil {
		return course.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}

	if err := tx.Commit(); err != nil {
		return course.Enrollment{}, errors.Wrap(err, "committing enrollment")
	}
	return e, nil
}

func (repo *courseRepository) UpdateEnrollment(ctx context.Context, e course.Enrollment) (course.Enrollment, error) {
	const query = `
		UPDATE inscripciones
		SET status = :status, progress = :progress, completed_at = :completed_at,
		    certificate_url = :certificate_url, evaluacion_completada = :evaluacion_completada,
		    calificacion = :calificacion
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, query, newEnrollmentRow(e))
	if err != nil {
		return course.Enrollment{}, errors.Wrap(err, "updating enrollment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.Enrollment{}, course.ErrEnrollmentNotFound
	}
	return e, nil
}

// DeleteEnrollment releases the seat with the delete; the counter is floored
// at zero.
func (repo *courseRepository) DeleteEnrollment(ctx context.Context, id string) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var courseID string
	if err := tx.GetContext(ctx, &courseID, `SELECT course_id FROM inscripciones WHERE id = $1`, id); err != nil {
		return trapNoRowsErr(err, course.ErrEnrollmentNotFound)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM inscripciones WHERE id = $1`, id); err != nil {
		return errors.Wrap(err, "deleting enrollment")
	}
	if _, err := tx.ExecContext(ctx, `UPDATE cursos SET inscritos = GREATEST(inscritos - 1, 0) WHERE id = $1`, courseID); err != nil {
		return errors.Wrap(err, "releasing seat")
	}
	return errors.Wrap(tx.Commit(), "committing cancellation")
}

// Questions

func (repo *courseRepository) CreateQuestion(ctx context.Context, q course.Question) (course.Question, error) {
	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	const query = `
		INSERT INTO preguntas (id, course_id, pregunta, opciones, respuesta_correcta)
		VALUES (:id, :course_id, :pregunta, :opciones, :respuesta_correcta)`
	row := questionRow{
		ID:                q.ID,
		CourseID:          q.CourseID,
		Pregunta:          q.Pregunta,
		Opciones:          pq.StringArray(q.Opciones),
		RespuestaCorrecta: q.RespuestaCorrecta,
	}
	if _, err := repo.db.NamedExecContext(ctx, query, row); err != nil {
		return course.Question{}, errors.Wrap(err, "inserting question")
	}
	return q, nil
}

func (repo *courseRepository) QueryQuestionsByCourse(ctx context.Context, courseID string) ([]course.Question, error) {
	var rows []questionRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM preguntas WHERE course_id = $1 ORDER BY id`, courseID); err != nil {
		return nil, errors.Wrap(err, "querying questions")
	}
	questions := make([]course.Question, 0, len(rows))
	for _, row := range rows {
		questions = append(questions, row.toCore())
	}
	return questions, nil
}

func (repo *courseRepository) DeleteQuestionsByID(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`DELETE FROM preguntas WHERE id IN (?)`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "building delete query")
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting questions")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

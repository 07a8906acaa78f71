package course_test

import (
	"context"
	"testing"
	"time"

	"github.com/infobank/intranet/core"
	"github.com/infobank/intranet/core/course"
	inmemdb "github.com/infobank/intranet/storage/database/inmem"
)

type notifierRecorder struct {
	titles []string
}

func (n *notifierRecorder) Notify(ctx context.Context, titulo, descripcion, tipo, cursoID, usuarioID string) error {
	n.titles = append(n.titles, titulo)
	return nil
}

func newTestService() (*course.Service, *notifierRecorder) {
	notifier := &notifierRecorder{}
	svc := course.NewService(inmemdb.NewCourseRepository(inmemdb.NewDB()), core.NewBus(), notifier)
	return svc, notifier
}

func createCourse(t *testing.T, svc *course.Service, nombre, fechaLimite string, cupos int) course.Course {
	t.Helper()
	crs, err := svc.Create(context.Background(), course.NewCourse{
		Nombre:      nombre,
		Descripcion: "desc",
		Duracion:    "8 horas",
		FechaLimite: fechaLimite,
		Cupos:       cupos,
	})
	if err != nil {
		t.Fatalf("Create(%s): %v", nombre, err)
	}
	return crs
}

func deadline(days int) string {
	return time.Now().AddDate(0, 0, days).Format("2006-01-02")
}

func Test_courseService_Catalog(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	open := createCourse(t, svc, "Seguridad de la Información", deadline(10), 5)
	urgent := createCourse(t, svc, "Prevención de Lavado", deadline(2), 5)
	expired := createCourse(t, svc, "Curso Vencido", deadline(-1), 5)
	archived := createCourse(t, svc, "Curso Archivado", deadline(10), 5)
	full := createCourse(t, svc, "Curso Lleno", deadline(10), 1)

	if _, err := svc.SetArchived(ctx, archived.ID, true); err != nil {
		t.Fatalf("SetArchived(): %v", err)
	}
	if _, err := svc.Enroll(ctx, "u1", "u1@test.cd", full.ID); err != nil {
		t.Fatalf("Enroll(): %v", err)
	}

	entries, err := svc.Catalog(ctx, "")
	if err != nil {
		t.Fatalf("Catalog(): %v", err)
	}

	got := make(map[string]course.CatalogEntry, len(entries))
	for _, e := range entries {
		got[e.ID] = e
	}

	if _, ok := got[expired.ID]; ok {
		t.Error("expired course should not be in the catalog")
	}
	if _, ok := got[archived.ID]; ok {
		t.Error("archived course should not be in the catalog")
	}
	if e, ok := got[open.ID]; !ok {
		t.Error("open course missing from the catalog")
	} else if e.Urgente || e.CuposAgotados {
		t.Errorf("open course decorations = (%v, %v); want (false, false)", e.Urgente, e.CuposAgotados)
	}
	if e, ok := got[urgent.ID]; !ok {
		t.Error("urgent course missing from the catalog")
	} else if !e.Urgente {
		t.Error("course with a near deadline should be urgente")
	}
	if e, ok := got[full.ID]; !ok {
		t.Error("full course missing from the catalog")
	} else if !e.CuposAgotados {
		t.Error("full course should be cuposAgotados")
	}

	// search narrows by name, case-insensitively
	entries, err = svc.Catalog(ctx, "lavado")
	if err != nil {
		t.Fatalf("Catalog(search): %v", err)
	}
	if len(entries) != 1 || entries[0].ID != urgent.ID {
		t.Errorf("Catalog(search) = %v entries; want just %q", len(entries), urgent.Nombre)
	}
}

func Test_courseService_Enroll(t *testing.T) {
	svc, notifier := newTestService()
	ctx := context.Background()

	crs := createCourse(t, svc, "Curso", deadline(10), 2)

	enr, err := svc.Enroll(ctx, "u1", "u1@test.cd", crs.ID)
	if err != nil {
		t.Fatalf("Enroll(): %v", err)
	}
	if enr.ID != course.EnrollmentID("u1", crs.ID) {
		t.Errorf("enrollment ID = %v; want %v", enr.ID, course.EnrollmentID("u1", crs.ID))
	}
	if enr.Status != course.StatusEnProgreso || enr.Progress != course.ProgressNone {
		t.Errorf("new enrollment = (%v, %v); want (%v, %v)", enr.Status, enr.Progress, course.StatusEnProgreso, course.ProgressNone)
	}
	if len(notifier.titles) != 1 {
		t.Errorf("notifications recorded = %v; want 1", len(notifier.titles))
	}

	if got, _ := svc.GetByID(ctx, crs.ID); got.Inscritos != 1 {
		t.Errorf("inscritos = %v; want 1", got.Inscritos)
	}

	if _, err = svc.Enroll(ctx, "u1", "u1@test.cd", crs.ID); err != course.ErrAlreadyEnrolled {
		t.Errorf("re-enroll err = %v; want ErrAlreadyEnrolled", err)
	}

	// fill the last seat, then the guard kicks in without writing
	if _, err = svc.Enroll(ctx, "u2", "u2@test.cd", crs.ID); err != nil {
		t.Fatalf("Enroll(u2): %v", err)
	}
	if _, err = svc.Enroll(ctx, "u3", "u3@test.cd", crs.ID); err != course.ErrCourseFull {
		t.Errorf("Enroll(full) err = %v; want ErrCourseFull", err)
	}
	if got, _ := svc.GetByID(ctx, crs.ID); got.Inscritos != 2 {
		t.Errorf("inscritos after full = %v; want 2", got.Inscritos)
	}
	if _, err = svc.EnrollmentFor(ctx, "u3", crs.ID); err != course.ErrEnrollmentNotFound {
		t.Errorf("EnrollmentFor(u3) err = %v; want ErrEnrollmentNotFound", err)
	}

	// cancelling releases exactly one seat
	if err = svc.Cancel(ctx, "u2", crs.ID); err != nil {
		t.Fatalf("Cancel(): %v", err)
	}
	if got, _ := svc.GetByID(ctx, crs.ID); got.Inscritos != 1 {
		t.Errorf("inscritos after cancel = %v; want 1", got.Inscritos)
	}
	if err = svc.Cancel(ctx, "u2", crs.ID); err != course.ErrEnrollmentNotFound {
		t.Errorf("Cancel(again) err = %v; want ErrEnrollmentNotFound", err)
	}
}

func Test_courseService_Progress(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	crs := createCourse(t, svc, "Curso", deadline(10), 5)
	if _, err := svc.Enroll(ctx, "u1", "u1@test.cd", crs.ID); err != nil {
		t.Fatalf("Enroll(): %v", err)
	}

	enr, err := svc.RecordDocumentView(ctx, "u1", crs.ID)
	if err != nil {
		t.Fatalf("RecordDocumentView(): %v", err)
	}
	if enr.Progress != course.ProgressDocument || enr.Completed() {
		t.Errorf("after document view = (%v, %v); want (%v, en_progreso)", enr.Progress, enr.Status, course.ProgressDocument)
	}

	// repeat views do not move the needle
	if enr, _ = svc.RecordDocumentView(ctx, "u1", crs.ID); enr.Progress != course.ProgressDocument {
		t.Errorf("repeat document view progress = %v; want %v", enr.Progress, course.ProgressDocument)
	}

	enr, err = svc.RecordVideoView(ctx, "u1", crs.ID)
	if err != nil {
		t.Fatalf("RecordVideoView(): %v", err)
	}
	if enr.Progress != course.ProgressVideo || !enr.Completed() || enr.CompletedAt == nil {
		t.Errorf("after video view = (%v, %v, %v); want (%v, completado, non-nil)", enr.Progress, enr.Status, enr.CompletedAt, course.ProgressVideo)
	}

	// completion is terminal
	if enr, _ = svc.RecordDocumentView(ctx, "u1", crs.ID); enr.Progress != course.ProgressVideo || !enr.Completed() {
		t.Errorf("document view after completion = (%v, %v); want unchanged", enr.Progress, enr.Status)
	}
	if enr, _ = svc.RecordVideoView(ctx, "u1", crs.ID); enr.Progress != course.ProgressVideo {
		t.Errorf("repeat video view progress = %v; want %v", enr.Progress, course.ProgressVideo)
	}
}

func Test_courseService_GradeEvaluation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	crs := createCourse(t, svc, "Curso", deadline(10), 5)
	if _, err := svc.Enroll(ctx, "u1", "u1@test.cd", crs.ID); err != nil {
		t.Fatalf("Enroll(): %v", err)
	}
	enrID := course.EnrollmentID("u1", crs.ID)

	// grading without a question bank is a validation error
	if _, _, err := svc.GradeEvaluation(ctx, enrID, nil); err == nil {
		t.Error("GradeEvaluation() with no questions should fail")
	}

	var questions []course.Question
	for i := 0; i < 3; i++ {
		q, err := svc.AddQuestion(ctx, crs.ID, course.NewQuestion{
			Pregunta:          "pregunta",
			Opciones:          []string{"a", "b", "c"},
			RespuestaCorrecta: 1,
		})
		if err != nil {
			t.Fatalf("AddQuestion(): %v", err)
		}
		questions = append(questions, q)
	}

	answers := map[string]int{
		questions[0].ID: 1, // correct
		questions[1].ID: 1, // correct
		questions[2].ID: 0, // wrong
	}
	enr, score, err := svc.GradeEvaluation(ctx, enrID, answers)
	if err != nil {
		t.Fatalf("GradeEvaluation(): %v", err)
	}
	if score != 67 { // round(2/3 * 100)
		t.Errorf("score = %v; want 67", score)
	}
	if !enr.EvaluacionCompletada || enr.Calificacion == nil || *enr.Calificacion != 67 {
		t.Errorf("enrollment after grading = (%v, %v); want (true, 67)", enr.EvaluacionCompletada, enr.Calificacion)
	}

	// learner copies hide the answer key
	sanitized, err := svc.Questions(ctx, crs.ID, false)
	if err != nil {
		t.Fatalf("Questions(): %v", err)
	}
	for _, q := range sanitized {
		if q.RespuestaCorrecta != -1 {
			t.Errorf("sanitized question exposes answer %v", q.RespuestaCorrecta)
		}
	}
}

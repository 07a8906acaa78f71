package inmemdb

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/infobank/intranet/core/course"
)

// Concurrent enrollment must never hand out more seats than the course has.
func Test_courseRepository_CreateEnrollment_seatGuard(t *testing.T) {
	repo := NewCourseRepository(NewDB())
	ctx := context.Background()

	crs, err := repo.CreateCourse(ctx, course.Course{
		Nombre: "Curso con 5 cupos",
		Cupos:  5,
		Estado: course.EstadoActivo,
	})
	if err != nil {
		t.Fatalf("CreateCourse(): %v", err)
	}

	const attempts = 50
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			userID := "u" + string(rune('A'+n%26)) + string(rune('a'+n/26))
			_, err := repo.CreateEnrollment(ctx, course.Enrollment{
				ID:         course.EnrollmentID(userID, crs.ID),
				UserID:     userID,
				CourseID:   crs.ID,
				Status:     course.StatusEnProgreso,
				EnrolledAt: time.Now(),
			})
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	var won, full int
	for err := range results {
		switch err {
		case nil:
			won++
		case course.ErrCourseFull:
			full++
		default:
			t.Fatalf("CreateEnrollment(): %v", err)
		}
	}
	if won != 5 || full != attempts-5 {
		t.Errorf("seats taken = %v, rejections = %v; want 5 and %v", won, full, attempts-5)
	}

	got, _ := repo.GetCourseByID(ctx, crs.ID)
	if got.Inscritos != 5 {
		t.Errorf("inscritos = %v; want 5", got.Inscritos)
	}

	// releasing a seat lets exactly one more in
	enrollments, _ := repo.QueryEnrollmentsByCourse(ctx, crs.ID)
	if err := repo.DeleteEnrollment(ctx, enrollments[0].ID); err != nil {
		t.Fatalf("DeleteEnrollment(): %v", err)
	}
	if _, err := repo.CreateEnrollment(ctx, course.Enrollment{
		ID: course.EnrollmentID("late", crs.ID), UserID: "late", CourseID: crs.ID, EnrolledAt: time.Now(),
	}); err != nil {
		t.Errorf("CreateEnrollment() after release err = %v; want nil", err)
	}
	if _, err := repo.CreateEnrollment(ctx, course.Enrollment{
		ID: course.EnrollmentID("later", crs.ID), UserID: "later", CourseID: crs.ID, EnrolledAt: time.Now(),
	}); err != course.ErrCourseFull {
		t.Errorf("CreateEnrollment() on full course err = %v; want ErrCourseFull", err)
	}
}

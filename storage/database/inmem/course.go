package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/infobank/intranet/core"
	"github.com/infobank/intranet/core/course"
)

type courseRepository struct {
	db *courseTable
}

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db.courses}
}

// Courses

func (repo *courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	repo.db.courses[c.ID] = &c
	return c, nil
}

func (repo *courseRepository) QueryCourses(ctx context.Context, ordering []core.DBOrdering) ([]course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	courses := make([]course.Course, 0, len(repo.db.courses))
	for _, c := range repo.db.courses {
		courses = append(courses, *c)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].CreatedAt.After(courses[j].CreatedAt) })
	return courses, nil
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if c, ok := repo.db.courses[id]; ok {
		return *c, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.courses[c.ID]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	c.Inscritos = orig.Inscritos // the seat counter is repository-owned
	repo.db.courses[c.ID] = &c
	return c, nil
}

func (repo *courseRepository) DeleteCoursesByID(ctx context.Context, ids []string) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var n int
	for _, id := range ids {
		if _, ok := repo.db.courses[id]; ok {
			delete(repo.db.courses, id)
			n++
		}
	}
	return n, nil
}

// Enrollments

func (repo *courseRepository) GetEnrollment(ctx context.Context, id string) (course.Enrollment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if e, ok := repo.db.enrollments[id]; ok {
		return *e, nil
	}
	return course.Enrollment{}, course.ErrEnrollmentNotFound
}

func (repo *courseRepository) QueryEnrollmentsByUser(ctx context.Context, userID string) ([]course.Enrollment, error) {
	return repo.queryEnrollments(func(e course.Enrollment) bool { return e.UserID == userID })
}

func (repo *courseRepository) QueryEnrollmentsByCourse(ctx context.Context, courseID string) ([]course.Enrollment, error) {
	return repo.queryEnrollments(func(e course.Enrollment) bool { return e.CourseID == courseID })
}

func (repo *courseRepository) QueryAllEnrollments(ctx context.Context) ([]course.Enrollment, error) {
	return repo.queryEnrollments(func(course.Enrollment) bool { return true })
}

func (repo *courseRepository) queryEnrollments(match func(course.Enrollment) bool) ([]course.Enrollment, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	enrollments := make([]course.Enrollment, 0)
	for _, e := range repo.db.enrollments {
		if match(*e) {
			enrollments = append(enrollments, *e)
		}
	}
	sort.Slice(enrollments, func(i, j int) bool { return enrollments[i].EnrolledAt.After(enrollments[j].EnrolledAt) })
	return enrollments, nil
}

// CreateEnrollment takes a seat and inserts the enrollment under one lock:
// when the course is full nothing is written and ErrCourseFull is returned.
func (repo *courseRepository) CreateEnrollment(ctx context.Context, e course.Enrollment) (course.Enrollment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	crs, ok := repo.db.courses[e.CourseID]
	if !ok {
		return course.Enrollment{}, course.ErrNotFound
	}
	if crs.Full() {
		return course.Enrollment{}, course.ErrCourseFull
	}

	crs.Inscritos++
	repo.db.enrollments[e.ID] = &e
	return e, nil
}

func (repo *courseRepository) UpdateEnrollment(ctx context.Context, e course.Enrollment) (course.Enrollment, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.enrollments[e.ID]; !ok {
		return course.Enrollment{}, course.ErrEnrollmentNotFound
	}
	repo.db.enrollments[e.ID] = &e
	return e, nil
}

// DeleteEnrollment releases the seat with the delete; the counter never goes
// below zero.
func (repo *courseRepository) DeleteEnrollment(ctx context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	e, ok := repo.db.enrollments[id]
	if !ok {
		return course.ErrEnrollmentNotFound
	}
	delete(repo.db.enrollments, id)

	if crs, ok := repo.db.courses[e.CourseID]; ok && crs.Inscritos > 0 {
		crs.Inscritos--
	}
	return nil
}

// Questions

func (repo *courseRepository) CreateQuestion(ctx context.Context, q course.Question) (course.Question, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if q.ID == "" {
		q.ID = uuid.New().String()
	}
	repo.db.questions[q.ID] = &q
	return q, nil
}

func (repo *courseRepository) QueryQuestionsByCourse(ctx context.Context, courseID string) ([]course.Question, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	questions := make([]course.Question, 0)
	for _, q := range repo.db.questions {
		if q.CourseID == courseID {
			questions = append(questions, *q)
		}
	}
	sort.Slice(questions, func(i, j int) bool { return questions[i].ID < questions[j].ID })
	return questions, nil
}

func (repo *courseRepository) DeleteQuestionsByID(ctx context.Context, ids []string) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var n int
	for _, id := range ids {
		if _, ok := repo.db.questions[id]; ok {
			delete(repo.db.questions, id)
			n++
		}
	}
	return n, nil
}

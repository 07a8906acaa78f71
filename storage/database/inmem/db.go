// Package inmemdb provides map-backed repositories used by tests and by the
// API in test mode. Semantics mirror the Postgres repositories, seat
// accounting included.
package inmemdb

import (
	"sync"

	"github.com/infobank/intranet/core/calendar"
	"github.com/infobank/intranet/core/course"
	"github.com/infobank/intranet/core/news"
	"github.com/infobank/intranet/core/notification"
	"github.com/infobank/intranet/core/support"
	"github.com/infobank/intranet/core/user"
	"github.com/infobank/intranet/core/wall"
)

type DB struct {
	users         *userTable
	courses       *courseTable
	news          *newsTable
	posts         *postTable
	messages      *messageTable
	events        *eventTable
	notifications *notificationTable
}

func NewDB() *DB {
	return &DB{
		users: &userTable{table: make(map[string]*user.User)},
		courses: &courseTable{
			courses:     make(map[string]*course.Course),
			enrollments: make(map[string]*course.Enrollment),
			questions:   make(map[string]*course.Question),
		},
		news:          &newsTable{table: make(map[string]*news.News)},
		posts:         &postTable{table: make(map[string]*wall.Post)},
		messages:      &messageTable{table: make(map[string]*support.Message)},
		events:        &eventTable{table: make(map[string]*calendar.Event)},
		notifications: &notificationTable{table: make(map[string]*notification.Notification)},
	}
}

type userTable struct {
	mutex sync.RWMutex
	table map[string]*user.User
}

// courseTable holds courses, enrollments and questions under one mutex so the
// seat guard is atomic.
type courseTable struct {
	mutex       sync.RWMutex
	courses     map[string]*course.Course
	enrollments map[string]*course.Enrollment
	questions   map[string]*course.Question
}

type newsTable struct {
	mutex sync.RWMutex
	table map[string]*news.News
}

type postTable struct {
	mutex sync.RWMutex
	table map[string]*wall.Post
}

type messageTable struct {
	mutex sync.RWMutex
	table map[string]*support.Message
}

type eventTable struct {
	mutex sync.RWMutex
	table map[string]*calendar.Event
}

type notificationTable struct {
	mutex sync.RWMutex
	table map[string]*notification.Notification
}

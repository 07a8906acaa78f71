package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/infobank/intranet/core/calendar"
)

type eventRepository struct {
	db *eventTable
}

func NewCalendarRepository(db *DB) calendar.Repository {
	return &eventRepository{db: db.events}
}

func (repo *eventRepository) CreateEvent(ctx context.Context, evt calendar.Event) (calendar.Event, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if evt.ID == "" {
		evt.ID = uuid.New().String()
	}
	repo.db.table[evt.ID] = &evt
	return evt, nil
}

func (repo *eventRepository) QueryEvents(ctx context.Context, from, to time.Time) ([]calendar.Event, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	events := make([]calendar.Event, 0, len(repo.db.table))
	for _, evt := range repo.db.table {
		if !from.IsZero() && evt.Start.Before(from) {
			continue
		}
		if !to.IsZero() && evt.Start.After(to) {
			continue
		}
		events = append(events, *evt)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Start.Before(events[j].Start) })
	return events, nil
}

func (repo *eventRepository) GetEventByID(ctx context.Context, id string) (calendar.Event, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if evt, ok := repo.db.table[id]; ok {
		return *evt, nil
	}
	return calendar.Event{}, calendar.ErrNotFound
}

func (repo *eventRepository) UpdateEvent(ctx context.Context, evt calendar.Event) (calendar.Event, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[evt.ID]; !ok {
		return calendar.Event{}, calendar.ErrNotFound
	}
	repo.db.table[evt.ID] = &evt
	return evt, nil
}

func (repo *eventRepository) DeleteEventsByID(ctx context.Context, ids []string) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var n int
	for _, id := range ids {
		if _, ok := repo.db.table[id]; ok {
			delete(repo.db.table, id)
			n++
		}
	}
	return n, nil
}

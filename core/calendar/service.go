package calendar

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/infobank/intranet/core"
)

var ErrNotFound = errors.New("calendar event not found")

const Collection = "eventos"

type (
	Repository interface {
		CreateEvent(ctx context.Context, evt Event) (Event, error)
		// QueryEvents returns events ordered by start ascending. The from/to
		// bounds narrow the window when non-zero.
		QueryEvents(ctx context.Context, from, to time.Time) ([]Event, error)
		GetEventByID(ctx context.Context, id string) (Event, error)
		UpdateEvent(ctx context.Context, evt Event) (Event, error)
		DeleteEventsByID(ctx context.Context, ids []string) (int, error)
	}

	Service struct {
		repo Repository
		bus  *core.Bus
	}
)

func NewService(repo Repository, bus *core.Bus) *Service {
	return &Service{repo: repo, bus: bus}
}

func (svc *Service) Create(ctx context.Context, ne NewEvent, createdBy string) (Event, error) {
	evt := Event{
		Title:       ne.Title,
		Description: ne.Description,
		Start:       ne.Start,
		End:         ne.End,
		AllDay:      ne.AllDay,
		CreatedBy:   createdBy,
		CreatedAt:   time.Now().UTC(),
	}
	evt, err := svc.repo.CreateEvent(ctx, evt)
	if err != nil {
		return Event{}, err
	}
	svc.bus.Publish(core.Event{Topic: Collection, Action: core.ActionCreated, Doc: evt})
	return evt, nil
}

func (svc *Service) Query(ctx context.Context, from, to time.Time) ([]Event, error) {
	return svc.repo.QueryEvents(ctx, from, to)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Event, error) {
	return svc.repo.GetEventByID(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id string, ne NewEvent) (Event, error) {
	evt, err := svc.repo.GetEventByID(ctx, id)
	if err != nil {
		return Event{}, err
	}

	evt.Title = ne.Title
	evt.Description = ne.Description
	evt.Start = ne.Start
	evt.End = ne.End
	evt.AllDay = ne.AllDay

	evt, err = svc.repo.UpdateEvent(ctx, evt)
	if err != nil {
		return Event{}, err
	}
	svc.bus.Publish(core.Event{Topic: Collection, Action: core.ActionUpdated, Doc: evt})
	return evt, nil
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	if _, err := svc.repo.DeleteEventsByID(ctx, ids); err != nil {
		return err
	}
	for _, id := range ids {
		svc.bus.Publish(core.Event{Topic: Collection, Action: core.ActionDeleted, Doc: Event{ID: id}})
	}
	return nil
}

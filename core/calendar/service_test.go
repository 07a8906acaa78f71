package calendar_test

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/infobank/intranet/core"
	"github.com/infobank/intranet/core/calendar"
	inmemdb "github.com/infobank/intranet/storage/database/inmem"
)

func newTestService() *calendar.Service {
	return calendar.NewService(inmemdb.NewCalendarRepository(inmemdb.NewDB()), core.NewBus())
}

func Test_NewEvent_Validate(t *testing.T) {
	validate := validator.New()
	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	before := start.Add(-time.Hour)
	after := start.Add(time.Hour)

	tests := []struct {
		name    string
		event   calendar.NewEvent
		wantErr bool
	}{
		{name: "ok", event: calendar.NewEvent{Title: "Reunión", Start: start, End: &after}},
		{name: "no end", event: calendar.NewEvent{Title: "Reunión", Start: start}},
		{name: "missing title", event: calendar.NewEvent{Start: start}, wantErr: true},
		{name: "missing start", event: calendar.NewEvent{Title: "Reunión"}, wantErr: true},
		{name: "end before start", event: calendar.NewEvent{Title: "Reunión", Start: start, End: &before}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.event.Validate(validate); (err != nil) != tt.wantErr {
				t.Errorf("Validate() err = %v; wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_calendarService_Query(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	day := func(d int) time.Time { return time.Date(2026, 9, d, 9, 0, 0, 0, time.UTC) }

	for i, d := range []int{10, 5, 20} {
		if _, err := svc.Create(ctx, calendar.NewEvent{Title: "Evento", Start: day(d)}, "admin@test.cd"); err != nil {
			t.Fatalf("Create(%d): %v", i, err)
		}
	}

	// unbounded query comes back start-ascending
	events, err := svc.Query(ctx, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Query(): %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("Query() = %v events; want 3", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i].Start.Before(events[i-1].Start) {
			t.Errorf("events out of order: %v before %v", events[i].Start, events[i-1].Start)
		}
	}

	// window narrows to starts within [from, to]
	events, err = svc.Query(ctx, day(6), day(15))
	if err != nil {
		t.Fatalf("Query(window): %v", err)
	}
	if len(events) != 1 || !events[0].Start.Equal(day(10)) {
		t.Errorf("Query(window) = %v events; want the day-10 event", len(events))
	}
}

func Test_calendarService_Update(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	start := time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)
	evt, err := svc.Create(ctx, calendar.NewEvent{Title: "Reunión", Start: start}, "admin@test.cd")
	if err != nil {
		t.Fatalf("Create(): %v", err)
	}
	if evt.CreatedBy != "admin@test.cd" {
		t.Errorf("createdBy = %v; want admin@test.cd", evt.CreatedBy)
	}

	evt, err = svc.Update(ctx, evt.ID, calendar.NewEvent{Title: "Reunión movida", Start: start.Add(time.Hour)})
	if err != nil {
		t.Fatalf("Update(): %v", err)
	}
	if evt.Title != "Reunión movida" || !evt.Start.Equal(start.Add(time.Hour)) {
		t.Errorf("updated event = (%v, %v)", evt.Title, evt.Start)
	}
	// the creator survives updates
	if evt.CreatedBy != "admin@test.cd" {
		t.Errorf("createdBy after update = %v; want admin@test.cd", evt.CreatedBy)
	}

	if err = svc.Delete(ctx, evt.ID); err != nil {
		t.Fatalf("Delete(): %v", err)
	}
	if _, err = svc.GetByID(ctx, evt.ID); err != calendar.ErrNotFound {
		t.Errorf("GetByID() after delete err = %v; want ErrNotFound", err)
	}
}

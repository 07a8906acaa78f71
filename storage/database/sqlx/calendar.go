package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/infobank/intranet/core/calendar"
)

type eventRow struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	StartsAt    time.Time `db:"starts_at"`
	EndsAt      null.Time `db:"ends_at"`
	AllDay      bool      `db:"all_day"`
	CreatedBy   string    `db:"created_by"`
	CreatedAt   time.Time `db:"created_at"`
}

func (row eventRow) toCore() calendar.Event {
	evt := calendar.Event{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		Start:       row.StartsAt,
		AllDay:      row.AllDay,
		CreatedBy:   row.CreatedBy,
		CreatedAt:   row.CreatedAt,
	}
	if row.EndsAt.Valid {
		t := row.EndsAt.Time
		evt.End = &t
	}
	return evt
}

func newEventRow(evt calendar.Event) eventRow {
	row := eventRow{
		ID:          evt.ID,
		Title:       evt.Title,
		Description: evt.Description,
		StartsAt:    evt.Start,
		AllDay:      evt.AllDay,
		CreatedBy:   evt.CreatedBy,
		CreatedAt:   evt.CreatedAt,
	}
	if evt.End != nil {
		row.EndsAt = null.TimeFrom(*evt.End)
	}
	return row
}

type eventRepository struct {
	db *sqlx.DB
}

func NewCalendarRepository(db *sqlx.DB) calendar.Repository {
	return &eventRepository{db: db}
}

func (repo *eventRepository) CreateEvent(ctx context.Context, evt calendar.Event) (calendar.Event, error) {
	if evt.ID == "" {
		evt.ID = uuid.New().String()
	}
	const query = `
		INSERT INTO eventos (id, title, description, starts_at, ends_at, all_day, created_by, created_at)
		VALUES (:id, :title, :description, :starts_at, :ends_at, :all_day, :created_by, :created_at)`
	if _, err := repo.db.NamedExecContext(ctx, query, newEventRow(evt)); err != nil {
		return calendar.Event{}, errors.Wrap(err, "inserting event")
	}
	return evt, nil
}

func (repo *eventRepository) QueryEvents(ctx context.Context, from, to time.Time) ([]calendar.Event, error) {
	query := `SELECT * FROM eventos`
	var (
		conds []string
		args  []interface{}
	)
	if !from.IsZero() {
		args = append(args, from)
		conds = append(conds, `starts_at >= $1`)
	}
	if !to.IsZero() {
		args = append(args, to)
		if len(args) == 2 {
			conds = append(conds, `starts_at <= $2`)
		} else {
			conds = append(conds, `starts_at <= $1`)
		}
	}
	if len(conds) > 0 {
		query += ` WHERE ` + joinConds(conds)
	}
	query += ` ORDER BY starts_at`

	var rows []eventRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying events")
	}
	events := make([]calendar.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.toCore())
	}
	return events, nil
}

func (repo *eventRepository) GetEventByID(ctx context.Context, id string) (calendar.Event, error) {
	var row eventRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM eventos WHERE id = $1`, id); err != nil {
		return calendar.Event{}, trapNoRowsErr(err, calendar.ErrNotFound)
	}
	return row.toCore(), nil
}

func (repo *eventRepository) UpdateEvent(ctx context.Context, evt calendar.Event) (calendar.Event, error) {
	const query = `
		UPDATE eventos
		SET title = :title, description = :description, starts_at = :starts_at,
		    ends_at = :ends_at, all_day = :all_day
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, query, newEventRow(evt))
	if err != nil {
		return calendar.Event{}, errors.Wrap(err, "updating event")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return calendar.Event{}, calendar.ErrNotFound
	}
	return evt, nil
}

func (repo *eventRepository) DeleteEventsByID(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`DELETE FROM eventos WHERE id IN (?)`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "building delete query")
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting events")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/infobank/intranet/core/notification"
)

type notificationRow struct {
	ID          string    `db:"id"`
	Titulo      string    `db:"titulo"`
	Descripcion string    `db:"descripcion"`
	Tipo        string    `db:"tipo"`
	Leida       bool      `db:"leida"`
	CursoID     string    `db:"curso_id"`
	UsuarioID   string    `db:"usuario_id"`
	CreadoEn    time.Time `db:"creado_en"`
}

func (row notificationRow) toCore() notification.Notification {
	return notification.Notification(row)
}

type notificationRepository struct {
	db *sqlx.DB
}

func NewNotificationRepository(db *sqlx.DB) notification.Repository {
	return &notificationRepository{db: db}
}

func (repo *notificationRepository) CreateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	const query = `
		INSERT INTO notificaciones (id, titulo, descripcion, tipo, leida, curso_id, usuario_id, creado_en)
		VALUES (:id, :titulo, :descripcion, :tipo, :leida, :curso_id, :usuario_id, :creado_en)`
	if _, err := repo.db.NamedExecContext(ctx, query, notificationRow(n)); err != nil {
		return notification.Notification{}, errors.Wrap(err, "inserting notification")
	}
	return n, nil
}

func (repo *notificationRepository) QueryNotifications(ctx context.Context, unreadOnly bool) ([]notification.Notification, error) {
	query := `SELECT * FROM notificaciones`
	if unreadOnly {
		query += ` WHERE leida = false`
	}
	query += ` ORDER BY creado_en DESC`

	var rows []notificationRow
	if err := repo.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.Wrap(err, "querying notifications")
	}
	items := make([]notification.Notification, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toCore())
	}
	return items, nil
}

func (repo *notificationRepository) GetNotificationByID(ctx context.Context, id string) (notification.Notification, error) {
	var row notificationRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM notificaciones WHERE id = $1`, id); err != nil {
		return notification.Notification{}, trapNoRowsErr(err, notification.ErrNotFound)
	}
	return row.toCore(), nil
}

func (repo *notificationRepository) UpdateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	const query = `UPDATE notificaciones SET leida = :leida WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, query, notificationRow(n))
	if err != nil {
		return notification.Notification{}, errors.Wrap(err, "updating notification")
	}
	if count, err := res.RowsAffected(); err == nil && count == 0 {
		return notification.Notification{}, notification.ErrNotFound
	}
	return n, nil
}

func (repo *notificationRepository) DeleteNotificationsByID(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`DELETE FROM notificaciones WHERE id IN (?)`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "building delete query")
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting notifications")
	}
	count, _ := res.RowsAffected()
	return int(count), nil
}

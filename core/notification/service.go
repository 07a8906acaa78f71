package notification

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/infobank/intranet/core"
)

var ErrNotFound = errors.New("notification not found")

const Collection = "notificaciones"

// Notification is an admin-facing activity record, raised when a user enrolls
// in a course or other tracked actions happen.
type Notification struct {
	ID          string    `json:"id"`
	Titulo      string    `json:"titulo"`
	Descripcion string    `json:"descripcion"`
	Tipo        string    `json:"tipo"`
	Leida       bool      `json:"leida"`
	CursoID     string    `json:"cursoId,omitempty"`
	UsuarioID   string    `json:"usuarioId,omitempty"`
	CreadoEn    time.Time `json:"creadoEn"`
}

type (
	Repository interface {
		CreateNotification(ctx context.Context, n Notification) (Notification, error)
		// QueryNotifications returns notifications newest-first; unreadOnly
		// narrows to leida=false.
		QueryNotifications(ctx context.Context, unreadOnly bool) ([]Notification, error)
		GetNotificationByID(ctx context.Context, id string) (Notification, error)
		UpdateNotification(ctx context.Context, n Notification) (Notification, error)
		DeleteNotificationsByID(ctx context.Context, ids []string) (int, error)
	}

	Service struct {
		repo Repository
		bus  *core.Bus
	}
)

func NewService(repo Repository, bus *core.Bus) *Service {
	return &Service{repo: repo, bus: bus}
}

// Notify records a new unread notification. It satisfies the course service's
// Notifier dependency.
func (svc *Service) Notify(ctx context.Context, titulo, descripcion, tipo, cursoID, usuarioID string) error {
	n := Notification{
		Titulo:      titulo,
		Descripcion: descripcion,
		Tipo:        tipo,
		CursoID:     cursoID,
		UsuarioID:   usuarioID,
		CreadoEn:    time.Now().UTC(),
	}
	n, err := svc.repo.CreateNotification(ctx, n)
	if err != nil {
		return err
	}
	svc.bus.Publish(core.Event{Topic: Collection, Action: core.ActionCreated, Doc: n})
	return nil
}

func (svc *Service) Query(ctx context.Context, unreadOnly bool) ([]Notification, error) {
	return svc.repo.QueryNotifications(ctx, unreadOnly)
}

func (svc *Service) UnreadCount(ctx context.Context) (int, error) {
	unread, err := svc.repo.QueryNotifications(ctx, true)
	if err != nil {
		return 0, err
	}
	return len(unread), nil
}

func (svc *Service) MarkRead(ctx context.Context, id string) (Notification, error) {
	n, err := svc.repo.GetNotificationByID(ctx, id)
	if err != nil {
		return Notification{}, err
	}
	if n.Leida {
		return n, nil
	}

	n.Leida = true
	n, err = svc.repo.UpdateNotification(ctx, n)
	if err != nil {
		return Notification{}, err
	}
	svc.bus.Publish(core.Event{Topic: Collection, Action: core.ActionUpdated, Doc: n})
	return n, nil
}

// MarkAllRead flips every unread notification.
func (svc *Service) MarkAllRead(ctx context.Context) error {
	unread, err := svc.repo.QueryNotifications(ctx, true)
	if err != nil {
		return err
	}
	for _, n := range unread {
		n.Leida = true
		if _, err := svc.repo.UpdateNotification(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	if _, err := svc.repo.DeleteNotificationsByID(ctx, ids); err != nil {
		return err
	}
	for _, id := range ids {
		svc.bus.Publish(core.Event{Topic: Collection, Action: core.ActionDeleted, Doc: Notification{ID: id}})
	}
	return nil
}

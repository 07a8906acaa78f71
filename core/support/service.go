package support

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/infobank/intranet/core"
)

var ErrNotFound = errors.New("support message not found")

const Collection = "mensajes"

type (
	Repository interface {
		CreateMessage(ctx context.Context, m Message) (Message, error)
		// QueryMessages returns all messages newest-first; userID narrows to
		// one sender when non-empty.
		QueryMessages(ctx context.Context, userID string) ([]Message, error)
		GetMessageByID(ctx context.Context, id string) (Message, error)
		UpdateMessage(ctx context.Context, m Message) (Message, error)
		DeleteMessagesByID(ctx context.Context, ids []string) (int, error)

		CreateReply(ctx context.Context, r Reply) (Reply, error)
		QueryRepliesByMessage(ctx context.Context, messageID string) ([]Reply, error)
	}

	// Notifier records an admin-facing notification for an incoming message.
	Notifier interface {
		Notify(ctx context.Context, titulo, descripcion, tipo, cursoID, usuarioID string) error
	}

	Service struct {
		conf     *core.Config
		repo     Repository
		mailSvc  core.EmailService
		bus      *core.Bus
		notifier Notifier
	}
)

func NewService(conf *core.Config, repo Repository, mailSvc core.EmailService, bus *core.Bus, notifier Notifier) *Service {
	return &Service{conf: conf, repo: repo, mailSvc: mailSvc, bus: bus, notifier: notifier}
}

func (svc *Service) Submit(ctx context.Context, nm NewMessage, userID, remitente string) (Message, error) {
	msg := Message{
		UserID:    userID,
		Remitente: remitente,
		Asunto:    nm.Asunto,
		Contenido: nm.Contenido,
		Estado:    EstadoPendiente,
		CreadoEn:  time.Now().UTC(),
	}
	msg, err := svc.repo.CreateMessage(ctx, msg)
	if err != nil {
		return Message{}, err
	}

	if svc.notifier != nil {
		descripcion := remitente + ": " + msg.Asunto
		if err := svc.notifier.Notify(ctx, "Nuevo mensaje de soporte", descripcion, "soporte", "", userID); err != nil {
			return Message{}, errors.Wrap(err, "recording support notification")
		}
	}

	svc.bus.Publish(core.Event{Topic: Collection, Action: core.ActionCreated, Doc: msg})
	return msg, nil
}

func (svc *Service) QueryAll(ctx context.Context) ([]Message, error) {
	return svc.repo.QueryMessages(ctx, "")
}

func (svc *Service) QueryByUser(ctx context.Context, userID string) ([]Message, error) {
	return svc.repo.QueryMessages(ctx, userID)
}

// CountsByUser summarizes a user's inbox the way the support page shows it.
func (svc *Service) CountsByUser(ctx context.Context, userID string) (Counts, error) {
	msgs, err := svc.repo.QueryMessages(ctx, userID)
	if err != nil {
		return Counts{}, err
	}
	var counts Counts
	for _, m := range msgs {
		switch m.Estado {
		case EstadoPendiente:
			counts.Pendientes++
		case EstadoRespondido:
			counts.Respondidos++
		}
	}
	return counts, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Message, error) {
	return svc.repo.GetMessageByID(ctx, id)
}

// MarkRead flips a pending message to leído; replied messages stay respondido.
func (svc *Service) MarkRead(ctx context.Context, id string) (Message, error) {
	msg, err := svc.repo.GetMessageByID(ctx, id)
	if err != nil {
		return Message{}, err
	}
	if msg.Estado != EstadoPendiente {
		return msg, nil
	}

	msg.Estado = EstadoLeido
	msg, err = svc.repo.UpdateMessage(ctx, msg)
	if err != nil {
		return Message{}, err
	}
	svc.bus.Publish(core.Event{Topic: Collection, Action: core.ActionUpdated, Doc: msg})
	return msg, nil
}

// Reply records an admin answer, marks the message respondido and mails the
// sender.
func (svc *Service) Reply(ctx context.Context, id string, nr NewReply, autor string) (Message, error) {
	msg, err := svc.repo.GetMessageByID(ctx, id)
	if err != nil {
		return Message{}, err
	}

	now := time.Now().UTC()
	if _, err := svc.repo.CreateReply(ctx, Reply{
		MessageID: msg.ID,
		Texto:     nr.Texto,
		Autor:     autor,
		CreadoEn:  now,
	}); err != nil {
		return Message{}, err
	}

	msg.Estado = EstadoRespondido
	msg.Respuesta = nr.Texto
	msg.RespondidoEn = &now
	msg, err = svc.repo.UpdateMessage(ctx, msg)
	if err != nil {
		return Message{}, err
	}

	if msg.Remitente != "" {
		svc.mailSvc.SendMessages(&core.EmailMessage{
			To:      []mail.Address{{Address: msg.Remitente}},
			Subject: "Re: " + msg.Asunto,
			BodyStr: nr.Texto,
		})
	}

	svc.bus.Publish(core.Event{Topic: Collection, Action: core.ActionUpdated, Doc: msg})
	return msg, nil
}

func (svc *Service) Replies(ctx context.Context, messageID string) ([]Reply, error) {
	return svc.repo.QueryRepliesByMessage(ctx, messageID)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	if _, err := svc.repo.DeleteMessagesByID(ctx, ids); err != nil {
		return err
	}
	for _, id := range ids {
		svc.bus.Publish(core.Event{Topic: Collection, Action: core.ActionDeleted, Doc: Message{ID: id}})
	}
	return nil
}

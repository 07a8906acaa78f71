package support_test

import (
	"context"
	"testing"

	"github.com/infobank/intranet/core"
	"github.com/infobank/intranet/core/support"
	emailsvc "github.com/infobank/intranet/services/email"
	inmemdb "github.com/infobank/intranet/storage/database/inmem"
)

type notifierRecorder struct {
	titles []string
}

func (r *notifierRecorder) Notify(_ context.Context, titulo, _, _, _, _ string) error {
	r.titles = append(r.titles, titulo)
	return nil
}

func newTestService() (*support.Service, *notifierRecorder) {
	conf := core.NewConfig()
	notifier := new(notifierRecorder)
	svc := support.NewService(conf, inmemdb.NewSupportRepository(inmemdb.NewDB()), emailsvc.NewConsoleServiceMock(conf), core.NewBus(), notifier)
	return svc, notifier
}

func Test_supportService_Submit(t *testing.T) {
	svc, notifier := newTestService()
	ctx := context.Background()

	msg, err := svc.Submit(ctx, support.NewMessage{Asunto: "Ayuda", Contenido: "No puedo entrar"}, "u1", "u1@test.cd")
	if err != nil {
		t.Fatalf("Submit(): %v", err)
	}
	if msg.Estado != support.EstadoPendiente {
		t.Errorf("estado = %v; want %v", msg.Estado, support.EstadoPendiente)
	}
	if msg.UserID != "u1" || msg.Remitente != "u1@test.cd" {
		t.Errorf("sender = (%v, %v); want (u1, u1@test.cd)", msg.UserID, msg.Remitente)
	}
	// the admin dashboard gets a notification per submission
	if len(notifier.titles) != 1 || notifier.titles[0] != "Nuevo mensaje de soporte" {
		t.Errorf("notifications = %v; want one support notice", notifier.titles)
	}

	if _, err = svc.Submit(ctx, support.NewMessage{Asunto: "Otro", Contenido: "x"}, "u2", "u2@test.cd"); err != nil {
		t.Fatalf("Submit(u2): %v", err)
	}

	mine, err := svc.QueryByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("QueryByUser(): %v", err)
	}
	if len(mine) != 1 || mine[0].ID != msg.ID {
		t.Errorf("QueryByUser() = %v messages; want just %v", len(mine), msg.ID)
	}

	all, err := svc.QueryAll(ctx)
	if err != nil {
		t.Fatalf("QueryAll(): %v", err)
	}
	if len(all) != 2 {
		t.Errorf("QueryAll() = %v messages; want 2", len(all))
	}

	counts, err := svc.CountsByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("CountsByUser(): %v", err)
	}
	if counts.Pendientes != 1 || counts.Respondidos != 0 {
		t.Errorf("counts = %+v; want 1 pendiente", counts)
	}
}

func Test_supportService_MarkReadAndReply(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	msg, err := svc.Submit(ctx, support.NewMessage{Asunto: "Ayuda", Contenido: "x"}, "u1", "u1@test.cd")
	if err != nil {
		t.Fatalf("Submit(): %v", err)
	}

	msg, err = svc.MarkRead(ctx, msg.ID)
	if err != nil {
		t.Fatalf("MarkRead(): %v", err)
	}
	if msg.Estado != support.EstadoLeido {
		t.Errorf("estado = %v; want %v", msg.Estado, support.EstadoLeido)
	}

	sentBefore := len(emailsvc.SentMessages)

	msg, err = svc.Reply(ctx, msg.ID, support.NewReply{Texto: "Pruebe de nuevo"}, "Admin")
	if err != nil {
		t.Fatalf("Reply(): %v", err)
	}
	if msg.Estado != support.EstadoRespondido || msg.Respuesta != "Pruebe de nuevo" || msg.RespondidoEn == nil {
		t.Errorf("replied message = (%v, %q, %v)", msg.Estado, msg.Respuesta, msg.RespondidoEn)
	}

	// the sender gets the answer by mail
	if len(emailsvc.SentMessages) != sentBefore+1 {
		t.Fatalf("sent messages = %v; want %v", len(emailsvc.SentMessages), sentBefore+1)
	}
	sent := emailsvc.SentMessages[len(emailsvc.SentMessages)-1]
	if sent.Subject != "Re: Ayuda" || sent.To[0].Address != "u1@test.cd" {
		t.Errorf("mail = (%q, %v)", sent.Subject, sent.To)
	}

	replies, err := svc.Replies(ctx, msg.ID)
	if err != nil {
		t.Fatalf("Replies(): %v", err)
	}
	if len(replies) != 1 || replies[0].Texto != "Pruebe de nuevo" || replies[0].Autor != "Admin" {
		t.Errorf("replies = %+v", replies)
	}

	// marking a replied message read is a no-op
	if msg, _ = svc.MarkRead(ctx, msg.ID); msg.Estado != support.EstadoRespondido {
		t.Errorf("estado after re-read = %v; want %v", msg.Estado, support.EstadoRespondido)
	}

	counts, _ := svc.CountsByUser(ctx, "u1")
	if counts.Pendientes != 0 || counts.Respondidos != 1 {
		t.Errorf("counts = %+v; want 1 respondido", counts)
	}
}

package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/infobank/intranet/core/support"
)

type messageRow struct {
	ID           string    `db:"id"`
	UserID       string    `db:"user_id"`
	Remitente    string    `db:"remitente"`
	Asunto       string    `db:"asunto"`
	Contenido    string    `db:"contenido"`
	Estado       string    `db:"estado"`
	Respuesta    string    `db:"respuesta"`
	CreadoEn     time.Time `db:"creado_en"`
	RespondidoEn null.Time `db:"respondido_en"`
}

func (row messageRow) toCore() support.Message {
	m := support.Message{
		ID:        row.ID,
		UserID:    row.UserID,
		Remitente: row.Remitente,
		Asunto:    row.Asunto,
		Contenido: row.Contenido,
		Estado:    row.Estado,
		Respuesta: row.Respuesta,
		CreadoEn:  row.CreadoEn,
	}
	if row.RespondidoEn.Valid {
		t := row.RespondidoEn.Time
		m.RespondidoEn = &t
	}
	return m
}

func newMessageRow(m support.Message) messageRow {
	row := messageRow{
		ID:        m.ID,
		UserID:    m.UserID,
		Remitente: m.Remitente,
		Asunto:    m.Asunto,
		Contenido: m.Contenido,
		Estado:    m.Estado,
		Respuesta: m.Respuesta,
		CreadoEn:  m.CreadoEn,
	}
	if m.RespondidoEn != nil {
		row.RespondidoEn = null.TimeFrom(*m.RespondidoEn)
	}
	return row
}

type replyRow struct {
	ID        string    `db:"id"`
	MessageID string    `db:"mensaje_id"`
	Texto     string    `db:"texto"`
	Autor     string    `db:"autor"`
	CreadoEn  time.Time `db:"creado_en"`
}

type messageRepository struct {
	db *sqlx.DB
}

func NewSupportRepository(db *sqlx.DB) support.Repository {
	return &messageRepository{db: db}
}

func (repo *messageRepository) CreateMessage(ctx context.Context, m support.Message) (support.Message, error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	const query = `
		INSERT INTO mensajes (id, user_id, remitente, asunto, contenido, estado, respuesta, creado_en, respondido_en)
		VALUES (:id, :user_id, :remitente, :asunto, :contenido, :estado, :respuesta, :creado_en, :respondido_en)`
	if _, err := repo.db.NamedExecContext(ctx, query, newMessageRow(m)); err != nil {
		return support.Message{}, errors.Wrap(err, "inserting message")
	}
	return m, nil
}

func (repo *messageRepository) QueryMessages(ctx context.Context, userID string) ([]support.Message, error) {
	query := `SELECT * FROM mensajes`
	var args []interface{}
	if userID != "" {
		query += ` WHERE user_id = $1`
		args = append(args, userID)
	}
	query += ` ORDER BY creado_en DESC`

	var rows []messageRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying messages")
	}
	msgs := make([]support.Message, 0, len(rows))
	for _, row := range rows {
		msgs = append(msgs, row.toCore())
	}
	return msgs, nil
}

func (repo *messageRepository) GetMessageByID(ctx context.Context, id string) (support.Message, error) {
	var row messageRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM mensajes WHERE id = $1`, id); err != nil {
		return support.Message{}, trapNoRowsErr(err, support.ErrNotFound)
	}
	return row.toCore(), nil
}

func (repo *messageRepository) UpdateMessage(ctx context.Context, m support.Message) (support.Message, error) {
	const query = `
		UPDATE mensajes
		SET estado = :estado, respuesta = :respuesta, respondido_en = :respondido_en
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, query, newMessageRow(m))
	if err != nil {
		return support.Message{}, errors.Wrap(err, "updating message")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return support.Message{}, support.ErrNotFound
	}
	return m, nil
}

func (repo *messageRepository) DeleteMessagesByID(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`DELETE FROM mensajes WHERE id IN (?)`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "building delete query")
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting messages")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (repo *messageRepository) CreateReply(ctx context.Context, r support.Reply) (support.Reply, error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	const query = `
		INSERT INTO mensajes_respuestas (id, mensaje_id, texto, autor, creado_en)
		VALUES (:id, :mensaje_id, :texto, :autor, :creado_en)`
	if _, err := repo.db.NamedExecContext(ctx, query, replyRow(r)); err != nil {
		return support.Reply{}, errors.Wrap(err, "inserting reply")
	}
	return r, nil
}

func (repo *messageRepository) QueryRepliesByMessage(ctx context.Context, messageID string) ([]support.Reply, error) {
	var rows []replyRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM mensajes_respuestas WHERE mensaje_id = $1 ORDER BY creado_en`, messageID); err != nil {
		return nil, errors.Wrap(err, "querying replies")
	}
	replies := make([]support.Reply, 0, len(rows))
	for _, row := range rows {
		replies = append(replies, support.Reply(row))
	}
	return replies, nil
}

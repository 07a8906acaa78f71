package support

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/infobank/intranet/core"
)

// Ticket states. The accented leído is stored verbatim.
const (
	EstadoPendiente  = "pendiente"
	EstadoLeido      = "leído"
	EstadoRespondido = "respondido"
)

// Message is a support ticket: one-way submission with an optional flat list
// of admin replies, no threading.
type Message struct {
	ID           string     `json:"id"`
	UserID       string     `json:"userId"`
	Remitente    string     `json:"remitente"` // sender email
	Asunto       string     `json:"asunto"`
	Contenido    string     `json:"contenido"`
	Estado       string     `json:"estado"` // pendiente | leído | respondido
	Respuesta    string     `json:"respuesta"`
	CreadoEn     time.Time  `json:"creadoEn"`
	RespondidoEn *time.Time `json:"respondidoEn"`
}

// Reply is one admin answer attached to a message.
type Reply struct {
	ID        string    `json:"id"`
	MessageID string    `json:"mensajeId"`
	Texto     string    `json:"texto"`
	Autor     string    `json:"autor"`
	CreadoEn  time.Time `json:"creadoEn"`
}

type NewMessage struct {
	Asunto    string `json:"asunto" validate:"required"`
	Contenido string `json:"contenido" validate:"required"`
}

func (nm *NewMessage) Validate(validate *validator.Validate) error {
	nm.Asunto = core.CleanString(nm.Asunto)
	nm.Contenido = core.CleanString(nm.Contenido)
	return validate.Struct(nm)
}

type NewReply struct {
	Texto string `json:"texto" validate:"required"`
}

func (nr *NewReply) Validate(validate *validator.Validate) error {
	nr.Texto = core.CleanString(nr.Texto)
	return validate.Struct(nr)
}

// Counts summarizes a user's tickets per state.
type Counts struct {
	Pendientes  int `json:"pendientes"`
	Respondidos int `json:"respondidos"`
}

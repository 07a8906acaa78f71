package calendar

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/infobank/intranet/core"
)

// Event is a shared calendar entry visible to every signed-in user.
type Event struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Start       time.Time  `json:"start"`
	End         *time.Time `json:"end"`
	AllDay      bool       `json:"allDay"`
	CreatedBy   string     `json:"createdBy"` // creator email
	CreatedAt   time.Time  `json:"createdAt"`
}

type NewEvent struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	Start       time.Time  `json:"start" validate:"required"`
	End         *time.Time `json:"end"`
	AllDay      bool       `json:"allDay"`
}

func (ne *NewEvent) Validate(validate *validator.Validate) error {
	ne.Title = core.CleanString(ne.Title)
	ne.Description = core.CleanString(ne.Description)
	if err := validate.Struct(ne); err != nil {
		return err
	}
	if ne.End != nil && ne.End.Before(ne.Start) {
		return core.NewValidationError(errors.New("invalid event"), core.FieldError{Field: "end", Error: "end cannot be before start"})
	}
	return nil
}

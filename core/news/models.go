package news

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/infobank/intranet/core"
)

// Defaults applied when the admin form leaves the field blank.
const (
	DefaultCategoria = "General"
	DefaultAutor     = "Administrador"
)

type News struct {
	ID               string    `json:"id"`
	Titulo           string    `json:"titulo"`
	Contenido        string    `json:"contenido"`
	Categoria        string    `json:"categoria"`
	Autor            string    `json:"autor"`
	Imagen           string    `json:"imagen"`
	FechaPublicacion time.Time `json:"fechaPublicacion"`
	CreatedAt        time.Time `json:"createdAt"`
}

type NewNews struct {
	Titulo           string `json:"titulo" validate:"required"`
	Contenido        string `json:"contenido" validate:"required"`
	Categoria        string `json:"categoria"`
	Autor            string `json:"autor"`
	Imagen           string `json:"imagen" validate:"omitempty,url"`
	FechaPublicacion string `json:"fechaPublicacion" validate:"omitempty,datetime=2006-01-02"`
}

func (nn *NewNews) Validate(validate *validator.Validate) error {
	nn.Titulo = core.CleanString(nn.Titulo)
	nn.Contenido = core.CleanString(nn.Contenido)
	nn.Categoria = core.CleanString(nn.Categoria)
	nn.Autor = core.CleanString(nn.Autor)
	return validate.Struct(nn)
}

// PublicationDate resolves the publish date, defaulting to now.
func (nn NewNews) PublicationDate() time.Time {
	if nn.FechaPublicacion == "" {
		return time.Now().UTC()
	}
	t, err := time.ParseInLocation("2006-01-02", nn.FechaPublicacion, time.Local)
	if err != nil {
		return time.Now().UTC()
	}
	return t
}

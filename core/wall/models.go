package wall

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/infobank/intranet/core"
)

// DefaultCategoria is applied when the admin form leaves the category blank.
const DefaultCategoria = "Anuncios Generales"

// Post is an internal announcement on the wall, distinct from the news feed.
type Post struct {
	ID               string     `json:"id"`
	Titulo           string     `json:"titulo"`
	Contenido        string     `json:"contenido"`
	Categoria        string     `json:"categoria"`
	AutorNombre      string     `json:"autorNombre"`
	AutorRol         string     `json:"autorRol"`
	Icono            string     `json:"icono"`
	Fecha            time.Time  `json:"fecha"`
	FechaActualizada *time.Time `json:"fechaActualizada"`
}

type NewPost struct {
	Titulo    string `json:"titulo" validate:"required"`
	Contenido string `json:"contenido" validate:"required"`
	Categoria string `json:"categoria"`
	Icono     string `json:"icono" validate:"omitempty,url"`
}

func (np *NewPost) Validate(validate *validator.Validate) error {
	np.Titulo = core.CleanString(np.Titulo)
	np.Contenido = core.CleanString(np.Contenido)
	np.Categoria = core.CleanString(np.Categoria)
	return validate.Struct(np)
}

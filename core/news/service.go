package news

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/infobank/intranet/core"
)

var ErrNotFound = errors.New("news item not found")

const Collection = "noticias"

type (
	Repository interface {
		CreateNews(ctx context.Context, n News) (News, error)
		// QueryNews returns items ordered by fechaPublicacion desc; search is
		// a case-insensitive match on titulo, contenido or autor.
		QueryNews(ctx context.Context, search string) ([]News, error)
		GetNewsByID(ctx context.Context, id string) (News, error)
		UpdateNews(ctx context.Context, n News) (News, error)
		DeleteNewsByID(ctx context.Context, ids []string) (int, error)
	}

	Service struct {
		repo Repository
		bus  *core.Bus
	}
)

func NewService(repo Repository, bus *core.Bus) *Service {
	return &Service{repo: repo, bus: bus}
}

func (svc *Service) Create(ctx context.Context, nn NewNews) (News, error) {
	item := News{
		Titulo:           nn.Titulo,
		Contenido:        nn.Contenido,
		Categoria:        nn.Categoria,
		Autor:            nn.Autor,
		Imagen:           nn.Imagen,
		FechaPublicacion: nn.PublicationDate(),
		CreatedAt:        time.Now().UTC(),
	}
	if item.Categoria == "" {
		item.Categoria = DefaultCategoria
	}
	if item.Autor == "" {
		item.Autor = DefaultAutor
	}

	item, err := svc.repo.CreateNews(ctx, item)
	if err != nil {
		return News{}, err
	}
	svc.bus.Publish(core.Event{Topic: Collection, Action: core.ActionCreated, Doc: item})
	return item, nil
}

func (svc *Service) Query(ctx context.Context, search string) ([]News, error) {
	return svc.repo.QueryNews(ctx, core.CleanString(search))
}

func (svc *Service) GetByID(ctx context.Context, id string) (News, error) {
	return svc.repo.GetNewsByID(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id string, nn NewNews) (News, error) {
	item, err := svc.repo.GetNewsByID(ctx, id)
	if err != nil {
		return News{}, err
	}

	item.Titulo = nn.Titulo
	item.Contenido = nn.Contenido
	item.Imagen = nn.Imagen
	item.FechaPublicacion = nn.PublicationDate()
	if nn.Categoria != "" {
		item.Categoria = nn.Categoria
	} else {
		item.Categoria = DefaultCategoria
	}
	if nn.Autor != "" {
		item.Autor = nn.Autor
	} else {
		item.Autor = DefaultAutor
	}

	item, err = svc.repo.UpdateNews(ctx, item)
	if err != nil {
		return News{}, err
	}
	svc.bus.Publish(core.Event{Topic: Collection, Action: core.ActionUpdated, Doc: item})
	return item, nil
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	if _, err := svc.repo.DeleteNewsByID(ctx, ids); err != nil {
		return err
	}
	for _, id := range ids {
		svc.bus.Publish(core.Event{Topic: Collection, Action: core.ActionDeleted, Doc: News{ID: id}})
	}
	return nil
}

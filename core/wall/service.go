package wall

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/infobank/intranet/core"
)

var ErrNotFound = errors.New("wall post not found")

const Collection = "muro"

type (
	Repository interface {
		CreatePost(ctx context.Context, p Post) (Post, error)
		// QueryPosts returns posts newest-first.
		QueryPosts(ctx context.Context) ([]Post, error)
		GetPostByID(ctx context.Context, id string) (Post, error)
		UpdatePost(ctx context.Context, p Post) (Post, error)
		DeletePostsByID(ctx context.Context, ids []string) (int, error)
	}

	Service struct {
		repo Repository
		bus  *core.Bus
	}
)

func NewService(repo Repository, bus *core.Bus) *Service {
	return &Service{repo: repo, bus: bus}
}

func (svc *Service) Create(ctx context.Context, np NewPost, autorNombre, autorRol string) (Post, error) {
	post := Post{
		Titulo:      np.Titulo,
		Contenido:   np.Contenido,
		Categoria:   np.Categoria,
		AutorNombre: autorNombre,
		AutorRol:    autorRol,
		Icono:       np.Icono,
		Fecha:       time.Now().UTC(),
	}
	if post.Categoria == "" {
		post.Categoria = DefaultCategoria
	}

	post, err := svc.repo.CreatePost(ctx, post)
	if err != nil {
		return Post{}, err
	}
	svc.bus.Publish(core.Event{Topic: Collection, Action: core.ActionCreated, Doc: post})
	return post, nil
}

func (svc *Service) Query(ctx context.Context) ([]Post, error) {
	return svc.repo.QueryPosts(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Post, error) {
	return svc.repo.GetPostByID(ctx, id)
}

func (svc *Service) Update(ctx context.Context, id string, np NewPost) (Post, error) {
	post, err := svc.repo.GetPostByID(ctx, id)
	if err != nil {
		return Post{}, err
	}

	now := time.Now().UTC()
	post.Titulo = np.Titulo
	post.Contenido = np.Contenido
	post.Icono = np.Icono
	if np.Categoria != "" {
		post.Categoria = np.Categoria
	} else {
		post.Categoria = DefaultCategoria
	}
	post.FechaActualizada = &now

	post, err = svc.repo.UpdatePost(ctx, post)
	if err != nil {
		return Post{}, err
	}
	svc.bus.Publish(core.Event{Topic: Collection, Action: core.ActionUpdated, Doc: post})
	return post, nil
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	if _, err := svc.repo.DeletePostsByID(ctx, ids); err != nil {
		return err
	}
	for _, id := range ids {
		svc.bus.Publish(core.Event{Topic: Collection, Action: core.ActionDeleted, Doc: Post{ID: id}})
	}
	return nil
}

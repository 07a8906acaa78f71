package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/infobank/intranet/core/wall"
)

type postRow struct {
	ID               string    `db:"id"`
	Titulo           string    `db:"titulo"`
	Contenido        string    `db:"contenido"`
	Categoria        string    `db:"categoria"`
	AutorNombre      string    `db:"autor_nombre"`
	AutorRol         string    `db:"autor_rol"`
	Icono            string    `db:"icono"`
	Fecha            time.Time `db:"fecha"`
	FechaActualizada null.Time `db:"fecha_actualizada"`
}

func (row postRow) toCore() wall.Post {
	p := wall.Post{
		ID:          row.ID,
		Titulo:      row.Titulo,
		Contenido:   row.Contenido,
		Categoria:   row.Categoria,
		AutorNombre: row.AutorNombre,
		AutorRol:    row.AutorRol,
		Icono:       row.Icono,
		Fecha:       row.Fecha,
	}
	if row.FechaActualizada.Valid {
		t := row.FechaActualizada.Time
		p.FechaActualizada = &t
	}
	return p
}

func newPostRow(p wall.Post) postRow {
	row := postRow{
		ID:          p.ID,
		Titulo:      p.Titulo,
		Contenido:   p.Contenido,
		Categoria:   p.Categoria,
		AutorNombre: p.AutorNombre,
		AutorRol:    p.AutorRol,
		Icono:       p.Icono,
		Fecha:       p.Fecha,
	}
	if p.FechaActualizada != nil {
		row.FechaActualizada = null.TimeFrom(*p.FechaActualizada)
	}
	return row
}

type postRepository struct {
	db *sqlx.DB
}

func NewWallRepository(db *sqlx.DB) wall.Repository {
	return &postRepository{db: db}
}

func (repo *postRepository) CreatePost(ctx context.Context, p wall.Post) (wall.Post, error) {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	const query = `
		INSERT INTO muro (id, titulo, contenido, categoria, autor_nombre, autor_rol, icono, fecha, fecha_actualizada)
		VALUES (:id, :titulo, :contenido, :categoria, :autor_nombre, :autor_rol, :icono, :fecha, :fecha_actualizada)`
	if _, err := repo.db.NamedExecContext(ctx, query, newPostRow(p)); err != nil {
		return wall.Post{}, errors.Wrap(err, "inserting post")
	}
	return p, nil
}

func (repo *postRepository) QueryPosts(ctx context.Context) ([]wall.Post, error) {
	var rows []postRow
	if err := repo.db.SelectContext(ctx, &rows, `SELECT * FROM muro ORDER BY fecha DESC`); err != nil {
		return nil, errors.Wrap(err, "querying posts")
	}
	posts := make([]wall.Post, 0, len(rows))
	for _, row := range rows {
		posts = append(posts, row.toCore())
	}
	return posts, nil
}

func (repo *postRepository) GetPostByID(ctx context.Context, id string) (wall.Post, error) {
	var row postRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM muro WHERE id = $1`, id); err != nil {
		return wall.Post{}, trapNoRowsErr(err, wall.ErrNotFound)
	}
	return row.toCore(), nil
}

func (repo *postRepository) UpdatePost(ctx context.Context, p wall.Post) (wall.Post, error) {
	const query = `
		UPDATE muro
		SET titulo = :titulo, contenido = :contenido, categoria = :categoria, icono = :icono,
		    fecha_actualizada = :fecha_actualizada
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, query, newPostRow(p))
	if err != nil {
		return wall.Post{}, errors.Wrap(err, "updating post")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return wall.Post{}, wall.ErrNotFound
	}
	return p, nil
}

func (repo *postRepository) DeletePostsByID(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`DELETE FROM muro WHERE id IN (?)`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "building delete query")
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting posts")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

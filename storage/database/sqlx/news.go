package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/infobank/intranet/core/news"
)

type newsRow struct {
	ID               string    `db:"id"`
	Titulo           string    `db:"titulo"`
	Contenido        string    `db:"contenido"`
	Categoria        string    `db:"categoria"`
	Autor            string    `db:"autor"`
	Imagen           string    `db:"imagen"`
	FechaPublicacion time.Time `db:"fecha_publicacion"`
	CreatedAt        time.Time `db:"created_at"`
}

func (row newsRow) toCore() news.News {
	return news.News(row)
}

type newsRepository struct {
	db *sqlx.DB
}

func NewNewsRepository(db *sqlx.DB) news.Repository {
	return &newsRepository{db: db}
}

func (repo *newsRepository) CreateNews(ctx context.Context, n news.News) (news.News, error) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	const query = `
		INSERT INTO noticias (id, titulo, contenido, categoria, autor, imagen, fecha_publicacion, created_at)
		VALUES (:id, :titulo, :contenido, :categoria, :autor, :imagen, :fecha_publicacion, :created_at)`
	if _, err := repo.db.NamedExecContext(ctx, query, newsRow(n)); err != nil {
		return news.News{}, errors.Wrap(err, "inserting news")
	}
	return n, nil
}

func (repo *newsRepository) QueryNews(ctx context.Context, search string) ([]news.News, error) {
	query := `SELECT * FROM noticias`
	var args []interface{}
	if search != "" {
		query += ` WHERE titulo ILIKE '%' || $1 || '%' OR contenido ILIKE '%' || $1 || '%' OR autor ILIKE '%' || $1 || '%'`
		args = append(args, search)
	}
	query += ` ORDER BY fecha_publicacion DESC`

	var rows []newsRow
	if err := repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying news")
	}
	items := make([]news.News, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toCore())
	}
	return items, nil
}

func (repo *newsRepository) GetNewsByID(ctx context.Context, id string) (news.News, error) {
	var row newsRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM noticias WHERE id = $1`, id); err != nil {
		return news.News{}, trapNoRowsErr(err, news.ErrNotFound)
	}
	return row.toCore(), nil
}

func (repo *newsRepository) UpdateNews(ctx context.Context, n news.News) (news.News, error) {
	const query = `
		UPDATE noticias
		SET titulo = :titulo, contenido = :contenido, categoria = :categoria, autor = :autor,
		    imagen = :imagen, fecha_publicacion = :fecha_publicacion
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, query, newsRow(n))
	if err != nil {
		return news.News{}, errors.Wrap(err, "updating news")
	}
	if count, err := res.RowsAffected(); err == nil && count == 0 {
		return news.News{}, news.ErrNotFound
	}
	return n, nil
}

func (repo *newsRepository) DeleteNewsByID(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query, args, err := sqlx.In(`DELETE FROM noticias WHERE id IN (?)`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "building delete query")
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(query), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting news")
	}
	count, _ := res.RowsAffected()
	return int(count), nil
}

package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/infobank/intranet/core/news"
)

type newsRepository struct {
	db *newsTable
}

func NewNewsRepository(db *DB) news.Repository {
	return &newsRepository{db: db.news}
}

func (repo *newsRepository) CreateNews(ctx context.Context, n news.News) (news.News, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	repo.db.table[n.ID] = &n
	return n, nil
}

func (repo *newsRepository) QueryNews(ctx context.Context, search string) ([]news.News, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	search = strings.ToLower(search)
	items := make([]news.News, 0, len(repo.db.table))
	for _, n := range repo.db.table {
		if search != "" &&
			!strings.Contains(strings.ToLower(n.Titulo), search) &&
			!strings.Contains(strings.ToLower(n.Contenido), search) &&
			!strings.Contains(strings.ToLower(n.Autor), search) {
			continue
		}
		items = append(items, *n)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].FechaPublicacion.After(items[j].FechaPublicacion) })
	return items, nil
}

func (repo *newsRepository) GetNewsByID(ctx context.Context, id string) (news.News, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if n, ok := repo.db.table[id]; ok {
		return *n, nil
	}
	return news.News{}, news.ErrNotFound
}

func (repo *newsRepository) UpdateNews(ctx context.Context, n news.News) (news.News, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[n.ID]; !ok {
		return news.News{}, news.ErrNotFound
	}
	repo.db.table[n.ID] = &n
	return n, nil
}

func (repo *newsRepository) DeleteNewsByID(ctx context.Context, ids []string) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var n int
	for _, id := range ids {
		if _, ok := repo.db.table[id]; ok {
			delete(repo.db.table, id)
			n++
		}
	}
	return n, nil
}

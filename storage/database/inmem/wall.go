package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/infobank/intranet/core/wall"
)

type postRepository struct {
	db *postTable
}

func NewWallRepository(db *DB) wall.Repository {
	return &postRepository{db: db.posts}
}

func (repo *postRepository) CreatePost(ctx context.Context, p wall.Post) (wall.Post, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	repo.db.table[p.ID] = &p
	return p, nil
}

func (repo *postRepository) QueryPosts(ctx context.Context) ([]wall.Post, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	posts := make([]wall.Post, 0, len(repo.db.table))
	for _, p := range repo.db.table {
		posts = append(posts, *p)
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].Fecha.After(posts[j].Fecha) })
	return posts, nil
}

func (repo *postRepository) GetPostByID(ctx context.Context, id string) (wall.Post, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if p, ok := repo.db.table[id]; ok {
		return *p, nil
	}
	return wall.Post{}, wall.ErrNotFound
}

func (repo *postRepository) UpdatePost(ctx context.Context, p wall.Post) (wall.Post, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[p.ID]; !ok {
		return wall.Post{}, wall.ErrNotFound
	}
	repo.db.table[p.ID] = &p
	return p, nil
}

func (repo *postRepository) DeletePostsByID(ctx context.Context, ids []string) (int, error) {
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

package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/infobank/intranet/core/support"
)

type messageRepository struct {
	db      *messageTable
	replies map[string][]support.Reply
}

func NewSupportRepository(db *DB) support.Repository {
	return &messageRepository{db: db.messages, replies: make(map[string][]support.Reply)}
}

func (repo *messageRepository) CreateMessage(ctx context.Context, m support.Message) (support.Message, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	repo.db.table[m.ID] = &m
	return m, nil
}

func (repo *messageRepository) QueryMessages(ctx context.Context, userID string) ([]support.Message, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	msgs := make([]support.Message, 0, len(repo.db.table))
	for _, m := range repo.db.table {
		if userID != "" && m.UserID != userID {
			continue
		}
		msgs = append(msgs, *m)
	}
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].CreadoEn.After(msgs[j].CreadoEn) })
	return msgs, nil
}

func (repo *messageRepository) GetMessageByID(ctx context.Context, id string) (support.Message, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if m, ok := repo.db.table[id]; ok {
		return *m, nil
	}
	return support.Message{}, support.ErrNotFound
}

func (repo *messageRepository) UpdateMessage(ctx context.Context, m support.Message) (support.Message, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[m.ID]; !ok {
		return support.Message{}, support.ErrNotFound
	}
	repo.db.table[m.ID] = &m
	return m, nil
}

func (repo *messageRepository) DeleteMessagesByID(ctx context.Context, ids []string) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var n int
	for _, id := range ids {
		if _, ok := repo.db.table[id]; ok {
			delete(repo.db.table, id)
			delete(repo.replies, id)
			n++
		}
	}
	return n, nil
}

func (repo *messageRepository) CreateReply(ctx context.Context, r support.Reply) (support.Reply, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	repo.replies[r.MessageID] = append(repo.replies[r.MessageID], r)
	return r, nil
}

func (repo *messageRepository) QueryRepliesByMessage(ctx context.Context, messageID string) ([]support.Reply, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	replies := make([]support.Reply, len(repo.replies[messageID]))
	copy(replies, repo.replies[messageID])
	return replies, nil
}

package revokesvc

import (
	"context"
	"sync"
	"time"

	"github.com/infobank/intranet/core/user"
)

type inmemRevoker struct {
	mux     sync.RWMutex
	revoked map[string]time.Time // userID -> expiry
}

var _ user.SessionRevoker = (*inmemRevoker)(nil)

// NewInmemRevoker is the single-instance fallback when redis is not
// configured.
func NewInmemRevoker() user.SessionRevoker {
	return &inmemRevoker{revoked: make(map[string]time.Time)}
}

func (r *inmemRevoker) Revoke(ctx context.Context, userID string, ttl time.Duration) error {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.revoked[userID] = time.Now().Add(ttl)
	return nil
}

func (r *inmemRevoker) IsRevoked(ctx context.Context, userID string) (bool, error) {
	r.mux.RLock()
	expiry, ok := r.revoked[userID]
	r.mux.RUnlock()

	if !ok {
		return false, nil
	}
	if time.Now().After(expiry) {
		r.mux.Lock()
		delete(r.revoked, userID)
		r.mux.Unlock()
		return false, nil
	}
	return true, nil
}

func (r *inmemRevoker) Clear(ctx context.Context, userID string) error {
	r.mux.Lock()
	defer r.mux.Unlock()
	delete(r.revoked, userID)
	return nil
}

package browser

import (
	"context"
	"sync"

	"github.com/Peripli/feature-browser/pkg/pullable"
	"github.com/Peripli/feature-browser/pkg/sapi"
	"github.com/Peripli/service-manager/pkg/log"
	"github.com/gofrs/uuid"
	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"
)

// Registry keeps the open sessions. A session that is not accessed for SessionTTL expires and is
// closed by the next Sweep.
type Registry struct {
	ctx      context.Context
	client   sapi.Client
	settings *Settings
	opts     []pullable.Option

	mutex    sync.Mutex
	sessions *cache.Cache
}

// NewRegistry returns a registry creating sessions that live at most as long as ctx
func NewRegistry(ctx context.Context, client sapi.Client, settings *Settings, opts ...pullable.Option) *Registry {
	sessions := cache.New(settings.SessionTTL, 0)
	sessions.OnEvicted(func(id string, value interface{}) {
		log.C(ctx).Debugf("Session %s evicted", id)
		value.(*Session).Close()
	})
	return &Registry{
		ctx:      ctx,
		client:   client,
		settings: settings,
		opts:     opts,
		sessions: sessions,
	}
}

// Create opens a new session for the selection
func (r *Registry) Create(ctx context.Context, selection Selection) (*Session, error) {
	sessionID, err := uuid.NewV4()
	if err != nil {
		return nil, errors.Wrap(err, "could not generate session id")
	}
	id := sessionID.String()
	log.C(ctx).Infof("Creating session %s for selection %+v", id, selection)

	sessionCtx := log.ContextWithLogger(r.ctx, log.C(ctx))
	session, err := NewSession(sessionCtx, id, r.client, selection, r.settings, r.opts...)
	if err != nil {
		return nil, err
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.sessions.Set(id, session, cache.DefaultExpiration)
	return session, nil
}

// Get returns the session with the given id and extends its lifetime
func (r *Registry) Get(id string) (*Session, bool) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	value, found := r.sessions.Get(id)
	if !found {
		return nil, false
	}
	r.sessions.Set(id, value, cache.DefaultExpiration)
	return value.(*Session), true
}

// Delete closes and removes the session with the given id
func (r *Registry) Delete(id string) bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if _, found := r.sessions.Get(id); !found {
		return false
	}
	r.sessions.Delete(id)
	return true
}

// Len returns the number of sessions, including expired ones not swept yet
func (r *Registry) Len() int {
	return r.sessions.ItemCount()
}

// Sweep closes and removes the expired sessions
func (r *Registry) Sweep() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.sessions.DeleteExpired()
}

// Run implements cron.Job
func (r *Registry) Run() {
	log.C(r.ctx).Debug("Sweeping expired sessions")
	r.Sweep()
}

// Close closes all sessions
func (r *Registry) Close() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.sessions.DeleteExpired()
	for id := range r.sessions.Items() {
		r.sessions.Delete(id)
	}
}

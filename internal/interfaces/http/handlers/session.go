// internal/interfaces/http/handlers/session.go
package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/vardan-naturals/storefront/internal/domain/cart"
)

const (
	sessionCookie    = "session_id"
	sessionCookieTTL = 86400 // 24 hours
)

// CartSessions opens the cart of the session behind a request. Requests of
// the same session are served one at a time.
type CartSessions struct {
	storage    cart.Storage
	keyPrefix  string
	checkout   cart.CheckoutSettings
	secure     bool
	logger     logrus.FieldLogger
	mu         sync.Mutex
	locks      map[string]*sessionLock
	newSession func() string
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// NewCartSessions creates the session cart registry
func NewCartSessions(storage cart.Storage, keyPrefix string, checkout cart.CheckoutSettings, secureCookies bool, logger logrus.FieldLogger) *CartSessions {
	if keyPrefix == "" {
		keyPrefix = cart.DefaultStorageKey
	}
	return &CartSessions{
		storage:    storage,
		keyPrefix:  keyPrefix,
		checkout:   checkout,
		secure:     secureCookies,
		logger:     logger,
		locks:      make(map[string]*sessionLock),
		newSession: func() string { return uuid.New().String() },
	}
}

// Key returns the storage key of a session's cart
func (s *CartSessions) Key(sessionID string) string {
	return s.keyPrefix + ":" + sessionID
}

// SessionID gets the session ID from its cookie or starts a new session
func (s *CartSessions) SessionID(c *gin.Context) string {
	if id, ok := c.Get(sessionCookie); ok {
		return id.(string)
	}

	sessionID, err := c.Cookie(sessionCookie)
	if err != nil || uuid.Validate(sessionID) != nil {
		sessionID = s.newSession()
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(sessionCookie, sessionID, sessionCookieTTL, "/", "", s.secure, true)
	}

	c.Set(sessionCookie, sessionID)
	return sessionID
}

// Open loads the request's cart with the session lock held. The returned
// func releases the lock and must be called once the store is done with.
func (s *CartSessions) Open(c *gin.Context, opts ...cart.Option) (*cart.Store, func(), error) {
	sessionID := s.SessionID(c)
	unlock := s.lock(sessionID)

	base := []cart.Option{
		cart.WithCheckout(s.checkout, 0),
		cart.WithScheduler(func(_ time.Duration, fn func()) { fn() }),
		cart.WithLogger(s.logger.WithField("session_id", sessionID)),
	}
	store := cart.NewStore(s.storage, s.Key(sessionID), append(base, opts...)...)

	if _, err := store.Load(c.Request.Context()); err != nil {
		unlock()
		return nil, func() {}, err
	}
	return store, unlock, nil
}

func (s *CartSessions) lock(sessionID string) func() {
	s.mu.Lock()
	l, ok := s.locks[sessionID]
	if !ok {
		l = &sessionLock{}
		s.locks[sessionID] = l
	}
	l.refs++
	s.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, sessionID)
		}
		s.mu.Unlock()
	}
}

// internal/interfaces/http/handlers/pages.go
package handlers

import (
	"errors"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/vardan-naturals/storefront/internal/domain/cart"
	"github.com/vardan-naturals/storefront/internal/domain/pricesync"
	"github.com/vardan-naturals/storefront/internal/pkg/site"
	"golang.org/x/sync/singleflight"
)

// PageHandler serves the storefront pages with current prices written in and
// the visitor's cart reflected on them
type PageHandler struct {
	site      *site.Dir
	syncer    *pricesync.Syncer
	sessions  *CartSessions
	indexPage string
	logger    logrus.FieldLogger

	mu         sync.RWMutex
	cache      map[string]string
	generation uint64
	group      singleflight.Group
}

// NewPageHandler creates a new page handler
func NewPageHandler(dir *site.Dir, syncer *pricesync.Syncer, sessions *CartSessions, indexPage string, logger logrus.FieldLogger) *PageHandler {
	if indexPage == "" {
		indexPage = "index.html"
	}
	return &PageHandler{
		site:      dir,
		syncer:    syncer,
		sessions:  sessions,
		indexPage: indexPage,
		logger:    logger,
		cache:     make(map[string]string),
	}
}

// Invalidate drops every synced page so the next request re-runs the sync
func (h *PageHandler) Invalidate() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cache = make(map[string]string)
	h.generation++
}

// Serve handles every GET outside the API: pages are synced, anything else
// is served from the site directory as is
func (h *PageHandler) Serve(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
		return
	}

	name := strings.TrimPrefix(c.Request.URL.Path, "/")
	if strings.HasPrefix(name, "api/") {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found"})
		return
	}
	if name == "" || strings.HasSuffix(name, "/") {
		name += h.indexPage
	}

	if !site.IsPage(name) {
		h.serveAsset(c, name)
		return
	}

	html, err := h.synced(name)
	if err != nil {
		h.pageError(c, name, err)
		return
	}

	doc, err := site.Parse([]byte(html))
	if err != nil {
		h.pageError(c, name, err)
		return
	}

	// Load refreshes the count indicators; Render fills the cart page
	store, unlock, err := h.sessions.Open(c, cart.WithView(cart.NewDOMView(doc)))
	if err != nil {
		h.logger.WithError(err).WithField("page", name).Warn("Cart unavailable, serving page without it")
	} else {
		store.Render()
		unlock()
	}

	out, err := site.Render(doc)
	if err != nil {
		h.pageError(c, name, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(out))
}

// synced returns the price-synced HTML of a page, building it at most once
// per cache generation
func (h *PageHandler) synced(name string) (string, error) {
	h.mu.RLock()
	html, ok := h.cache[name]
	generation := h.generation
	h.mu.RUnlock()
	if ok {
		return html, nil
	}

	v, err, _ := h.group.Do(name, func() (interface{}, error) {
		doc, err := h.site.Open(name)
		if err != nil {
			return "", err
		}
		if err := h.syncer.Run(doc); err != nil && !errors.Is(err, pricesync.ErrNoPriceTable) {
			return "", err
		}
		out, err := site.Render(doc)
		if err != nil {
			return "", err
		}

		h.mu.Lock()
		if h.generation == generation {
			h.cache[name] = out
		}
		h.mu.Unlock()
		return out, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (h *PageHandler) serveAsset(c *gin.Context, name string) {
	file, err := h.site.Resolve(name)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	info, err := os.Stat(file)
	if err != nil || info.IsDir() {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	c.File(file)
}

func (h *PageHandler) pageError(c *gin.Context, name string, err error) {
	if errors.Is(err, site.ErrNotFound) || errors.Is(err, site.ErrInvalidPath) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Page not found"})
		return
	}
	h.logger.WithError(err).WithField("page", name).Error("Failed to serve page")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render page"})
}

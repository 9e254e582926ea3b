package imagehost

import (
	"context"
	"strings"
	"sync"

	"imagehound/internal/domain"
)

// compile-time check
var _ domain.ImageHost = (*MemoryHost)(nil)

// MemoryHost keeps uploads in memory. Used in tests and for local runs
// without an S3 bucket.
type MemoryHost struct {
	baseURL string

	mu    sync.RWMutex
	files map[string][]byte
}

// NewMemoryHost creates an in-memory image host.
func NewMemoryHost(baseURL string) *MemoryHost {
	return &MemoryHost{
		baseURL: strings.TrimRight(baseURL, "/"),
		files:   make(map[string][]byte),
	}
}

func (h *MemoryHost) FileExists(_ context.Context, name string) (bool, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.files[name]
	return ok, nil
}

func (h *MemoryHost) URL(name string) string {
	return h.baseURL + "/" + name
}

func (h *MemoryHost) Upload(_ context.Context, name string, data []byte, _ string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.files[name] = data
	return h.URL(name), nil
}

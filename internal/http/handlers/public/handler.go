package public

import "github.com/revendahub/revendahub/internal/provider"

// Handler storefront API handler entry point
type Handler struct {
	*provider.Container
}

// New creates the public handler
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

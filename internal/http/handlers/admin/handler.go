package admin

import "github.com/revendahub/revendahub/internal/provider"

// Handler admin API handler entry point
type Handler struct {
	*provider.Container
}

// New creates the admin handler
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}

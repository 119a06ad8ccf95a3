package models

import (
	"time"

	"gorm.io/gorm"
)

// WebhookEndpoint outbound automation endpoint (n8n) subscribed to a set of
// order lifecycle events.
type WebhookEndpoint struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	Name         string         `gorm:"not null" json:"name"`
	URL          string         `gorm:"type:text;not null" json:"url"`
	SecretHeader string         `json:"-"` // sent as X-Webhook-Secret when set
	Events       StringArray    `gorm:"type:json" json:"events"`
	IsActive     bool           `gorm:"not null;index" json:"is_active"`
	LastFiredAt  *time.Time     `json:"last_fired_at"`
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName overrides the table name.
func (WebhookEndpoint) TableName() string {
	return "webhook_endpoints"
}

// SubscribedTo reports whether the endpoint listens for the event. An empty
// event list means all events.
func (w *WebhookEndpoint) SubscribedTo(event string) bool {
	if w == nil {
		return false
	}
	if len(w.Events) == 0 {
		return true
	}
	return w.Events.Contains(event)
}

package domain

import (
	"context"
	"time"
)

// Event is the read model of an event owned by a community. Event CRUD lives
// outside this service; only lookups are needed here.
type Event struct {
	ID          string    `json:"id"`
	CommunityID string    `json:"community_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        string    `json:"date"`
	Time        string    `json:"time"`
	Location    string    `json:"location"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// EventRepository defines the interface for event storage
type EventRepository interface {
	GetByID(ctx context.Context, id string) (*Event, error)
}

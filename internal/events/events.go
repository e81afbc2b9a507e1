// Package events publishes domain events after state changes commit.
package events

import (
	"context"
	"time"
)

const (
	Exchange = "paywall_events"

	RoutingPaymentSettled      = "payment.settled"
	RoutingEntitlementUnlocked = "entitlement.unlocked"
)

type PaymentSettled struct {
	OrderID   string    `json:"order_id"`
	UserID    string    `json:"user_id"`
	Points    int64     `json:"points"`
	Balance   int64     `json:"balance"`
	EventType string    `json:"event_type"`
	SettledAt time.Time `json:"settled_at"`
}

type EntitlementUnlocked struct {
	UserID            string    `json:"user_id"`
	WorkID            string    `json:"work_id"`
	EpisodeID         string    `json:"episode_id"`
	UnlockedUntilPart int       `json:"unlocked_until_part"`
	PointsSpent       int64     `json:"points_spent"`
	PointsLeft        int64     `json:"points_left"`
	At                time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, routingKey string, body any) error
}

// Emitter hands an event off without blocking the caller.
type Emitter interface {
	Emit(routingKey string, body any)
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, any) error { return nil }

package board

import (
	"time"

	"github.com/Additional-Code/planboard/internal/entity"
)

// EventType labels the mutation an OrderEvent describes.
type EventType string

const (
	EventOrderCreated EventType = "order.created"
	EventOrderUpdated EventType = "order.updated"
	EventOrderDeleted EventType = "order.deleted"
)

// OrderEvent is emitted on the message bus after each successful order
// mutation.
type OrderEvent struct {
	Type  EventType    `json:"type"`
	Order entity.Order `json:"order"`
	At    time.Time    `json:"at"`
}

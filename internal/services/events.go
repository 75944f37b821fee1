package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"royalbid/internal/models"
)

// Catalog event routing keys.
const (
	EventProductCreated       = "product.created"
	EventProductUpdated       = "product.updated"
	EventProductDeleted       = "product.deleted"
	EventProductStatusChanged = "product.status_changed"
)

// EventPublisher publishes catalog events to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload interface{}) error
}

// ProductEvent is the body of every catalog event.
type ProductEvent struct {
	Type        string               `json:"type"`
	ProductID   string               `json:"productId"`
	SellerID    string               `json:"sellerId"`
	AuctionType models.AuctionType   `json:"auctionType"`
	Status      models.ProductStatus `json:"status"`
	IsFeatured  bool                 `json:"isFeatured"`
	ActorID     string               `json:"actorId"`
	OccurredAt  time.Time            `json:"occurredAt"`
}

func newProductEvent(kind string, p *models.Product, actor Actor, at time.Time) ProductEvent {
	return ProductEvent{
		Type:        kind,
		ProductID:   p.ID,
		SellerID:    p.SellerID,
		AuctionType: p.AuctionType,
		Status:      p.Status,
		IsFeatured:  p.IsFeatured,
		ActorID:     actor.UserID,
		OccurredAt:  at,
	}
}

// publish is best effort: the write already happened, so a broker failure is
// only logged.
func publish(ctx context.Context, pub EventPublisher, log logrus.FieldLogger, ev ProductEvent) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, ev.Type, ev); err != nil {
		log.WithError(err).WithFields(logrus.Fields{
			"event":      ev.Type,
			"product_id": ev.ProductID,
		}).Warn("failed to publish catalog event")
	}
}

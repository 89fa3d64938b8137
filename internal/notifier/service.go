package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	kafkax "github.com/annvahak/marketplace/internal/kafka"
	"github.com/annvahak/marketplace/internal/orders"
	"github.com/annvahak/marketplace/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

// Service consumes order events, keeps the Redis status cache fresh and emits
// buyer/producer notifications (currently structured log lines).
type Service struct {
	Redis       *redis.Client
	ServiceName string
}

// HandleEvent is wired as the consumer handler for both order topics.
func (s *Service) HandleEvent(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}

	// dedup on event id; at-least-once delivery means replays are normal
	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
		return nil
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	switch env.EventType {
	case orders.EventOrderPlaced:
		p, err := kafkax.UnwrapPayload[orders.OrderPlacedPayload](env.Payload)
		if err != nil {
			return err
		}
		return s.handleOrderPlaced(ctx, p)
	case orders.EventItemStatusChanged:
		p, err := kafkax.UnwrapPayload[orders.ItemStatusChangedPayload](env.Payload)
		if err != nil {
			return err
		}
		return s.handleItemStatusChanged(ctx, p)
	default:
		return nil // ignore unknown types
	}
}

func (s *Service) handleOrderPlaced(ctx context.Context, p orders.OrderPlacedPayload) error {
	s.cacheStatus(ctx, p.OrderID, p.OrderNumber, orders.StatusPending)
	for _, it := range p.Items {
		slog.Info("notify producer of new order item",
			"producer_id", it.ProducerID, "order_id", p.OrderID, "item_id", it.ItemID, "quantity", it.Quantity)
	}
	return nil
}

func (s *Service) handleItemStatusChanged(ctx context.Context, p orders.ItemStatusChangedPayload) error {
	s.cacheStatus(ctx, p.OrderID, "", p.OrderStatus)
	slog.Info("notify buyer of item status change",
		"buyer_id", p.BuyerID, "order_id", p.OrderID, "item_id", p.ItemID,
		"item_status", p.ItemStatus, "order_status", p.OrderStatus)
	return nil
}

func (s *Service) cacheStatus(ctx context.Context, orderID int64, orderNumber string, status orders.Status) {
	body := map[string]any{"status": status}
	if orderNumber != "" {
		body["order_number"] = orderNumber
	}
	b, _ := json.Marshal(body)
	key := fmt.Sprintf(redisx.KeyOrderStatus, orderID)
	if err := s.Redis.Set(ctx, key, b, redisx.TTLStatusCache).Err(); err != nil {
		slog.Warn("status cache refresh failed", "order_id", orderID, "err", err)
	}
}

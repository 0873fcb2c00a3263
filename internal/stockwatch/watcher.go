// Package stockwatch turns order traffic into reorder alerts: every placed
// order is checked against the ledger's reorder levels.
package stockwatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/kusina-ph/kusina-backend/internal/inventory"
	kafkax "github.com/kusina-ph/kusina-backend/internal/kafka"
	"github.com/kusina-ph/kusina-backend/internal/orders"
	"github.com/kusina-ph/kusina-backend/internal/redisx"
)

// Watcher listens for placed orders and raises low-stock alerts for any
// touched product that has fallen to its reorder level.
type Watcher struct {
	Ledger      *inventory.Ledger
	Redis       *redis.Client
	Producer    *kafkax.Producer // publishes inventory.low
	ServiceName string
}

// HandleOrderCreated is wired as the kafka consumer handler.
func (w *Watcher) HandleOrderCreated(ctx context.Context, m kafkago.Message) error {
	var env kafkax.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderCreated {
		return nil
	}

	// dedup by event id; redelivery must not re-alert
	dkey := fmt.Sprintf(redisx.KeyDedup, "stockwatch", env.EventID)
	seen, _ := redisx.Exists(ctx, w.Redis, dkey)
	if seen {
		return nil
	}
	_ = w.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(p.Items))
	for _, it := range p.Items {
		ids = append(ids, it.ProductID)
	}

	low, err := w.Ledger.LowStock(ctx, ids)
	if err != nil {
		return err
	}
	for _, rec := range low {
		log.Printf("[stockwatch] product=%s stock=%d reorder_level=%d", rec.ProductID, rec.QuantityInStock, rec.ReorderLevel)
		ev := kafkax.NewEnvelope(inventory.EventLowStock, w.ServiceName, env.TraceID, p.OrderID, inventory.LowStockPayload{
			ProductID:       rec.ProductID,
			QuantityInStock: rec.QuantityInStock,
			ReorderLevel:    rec.ReorderLevel,
		})
		w.Producer.Publish([]byte(rec.ProductID), kafkax.MustMarshal(ev),
			kafkago.Header{Key: "x-event-type", Value: []byte(inventory.EventLowStock)},
			kafkago.Header{Key: "x-event-version", Value: []byte("1")},
		)
	}
	return nil
}

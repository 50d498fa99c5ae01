package push

import (
	"context"
	"encoding/json"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/fleetops/sysmgmt/internal/datastore/repository"
	"github.com/fleetops/sysmgmt/internal/logger"
	"github.com/fleetops/sysmgmt/internal/observability/metrics"
)

// defaultConcurrency bounds parallel sends when the config leaves it unset.
const defaultConcurrency = 8

// Broadcaster fans a notification out to every registered subscription.
// Per-endpoint failures are isolated: they are counted and logged, and a
// permanent failure prunes its endpoint, but nothing ever aborts the
// remaining sends or reaches the caller as an error.
type Broadcaster struct {
	subs        repository.SubscriptionRepository
	transport   Transport
	concurrency int
	log         logger.Logger
}

// NewBroadcaster creates a Broadcaster. concurrency <= 0 selects the
// default limit.
func NewBroadcaster(subs repository.SubscriptionRepository, transport Transport, concurrency int, log logger.Logger) *Broadcaster {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Broadcaster{subs: subs, transport: transport, concurrency: concurrency, log: log}
}

// Broadcast sends the message to every subscription and returns exact
// counts. sent + failed always equals subscribers.
func (b *Broadcaster) Broadcast(ctx context.Context, title, body string) (subscribers, sent, failed int) {
	subscriptions, err := b.subs.List(ctx)
	if err != nil {
		b.log.Error("failed to read subscription registry", logger.Error(err))
		return 0, 0, 0
	}
	if len(subscriptions) == 0 {
		return 0, 0, 0
	}

	message, err := json.Marshal(Message{Title: title, Body: body})
	if err != nil {
		b.log.Error("failed to marshal push message", logger.Error(err))
		return len(subscriptions), 0, len(subscriptions)
	}

	var delivered, dropped atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i := range subscriptions {
		sub := subscriptions[i]
		g.Go(func() error {
			result, sendErr := b.transport.Send(gctx, sub.Subscription, message)
			metrics.Deliveries.WithLabelValues(result.String()).Inc()

			switch result {
			case ResultDelivered:
				delivered.Add(1)
			case ResultPermanentFailure:
				dropped.Add(1)
				b.prune(gctx, sub.ID, sendErr)
			default:
				dropped.Add(1)
				b.log.Warn("push delivery failed, endpoint retained",
					logger.Uint64("subscription_id", uint64(sub.ID)),
					logger.Error(sendErr))
			}
			// Failures stay per-endpoint; never fail the group.
			return nil
		})
	}
	_ = g.Wait()

	return len(subscriptions), int(delivered.Load()), int(dropped.Load())
}

// prune deletes a permanently dead endpoint. Deletion failure is logged
// and forgotten; the next fan-out pass will try again.
func (b *Broadcaster) prune(ctx context.Context, id uint, cause error) {
	b.log.Info("pruning dead push subscription",
		logger.Uint64("subscription_id", uint64(id)),
		logger.Error(cause))
	if err := b.subs.Delete(ctx, id); err != nil {
		b.log.Error("failed to prune push subscription",
			logger.Uint64("subscription_id", uint64(id)),
			logger.Error(err))
		return
	}
	metrics.SubscriptionsPruned.Inc()
}

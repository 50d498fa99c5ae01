package repository

import (
	"context"

	"github.com/fleetops/sysmgmt/internal/datastore/entities"
)

// SubscriptionRepository stores opaque push endpoint descriptors. The
// descriptor payload is never inspected here; it is handed verbatim to the
// delivery transport at send time.
type SubscriptionRepository interface {
	Create(ctx context.Context, subscription string) (uint, error)
	List(ctx context.Context) ([]entities.PushSubscription, error)
	Count(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id uint) error
}

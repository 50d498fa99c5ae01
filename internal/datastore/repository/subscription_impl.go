package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/fleetops/sysmgmt/internal/datastore/entities"
)

// subscriptionRepository implements SubscriptionRepository.
type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new SubscriptionRepository.
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

// Create stores an opaque endpoint descriptor and returns its id.
func (r *subscriptionRepository) Create(ctx context.Context, subscription string) (uint, error) {
	sub := entities.PushSubscription{Subscription: subscription}
	if err := r.db.WithContext(ctx).Create(&sub).Error; err != nil {
		return 0, fmt.Errorf("failed to create push subscription: %w", err)
	}
	return sub.ID, nil
}

// List returns all registered subscriptions.
func (r *subscriptionRepository) List(ctx context.Context) ([]entities.PushSubscription, error) {
	var subs []entities.PushSubscription
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&subs).Error; err != nil {
		return nil, fmt.Errorf("failed to list push subscriptions: %w", err)
	}
	return subs, nil
}

// Count returns the number of registered subscriptions.
func (r *subscriptionRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&entities.PushSubscription{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count push subscriptions: %w", err)
	}
	return count, nil
}

// Delete removes a subscription by id. Deleting an id that is already gone
// is not an error; pruning races with concurrent fan-out passes.
func (r *subscriptionRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&entities.PushSubscription{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete push subscription %d: %w", id, err)
	}
	return nil
}

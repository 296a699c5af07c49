// Package repository provides data access for subscriptions and payments
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// running statuses still grant access until end_date
var runningStatuses = []string{database.SubscriptionActive, database.SubscriptionCanceled, database.SubscriptionPastDue}

// SubscriptionRepository handles billing data access
type SubscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository creates a new subscription repository
func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Create stores a new subscription
func (r *SubscriptionRepository) Create(ctx context.Context, sub *database.Subscription) error {
	if err := r.db.WithContext(ctx).Create(sub).Error; err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	return nil
}

// Update writes column updates to a subscription
func (r *SubscriptionRepository) Update(ctx context.Context, id string, updates map[string]interface{}) error {
	if err := r.db.WithContext(ctx).Model(&database.Subscription{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	return nil
}

func (r *SubscriptionRepository) first(ctx context.Context, query string, args ...interface{}) (*database.Subscription, error) {
	var sub database.Subscription
	err := r.db.WithContext(ctx).Where(query, args...).Order("created_at DESC").First(&sub).Error
	if database.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}
	return &sub, nil
}

// Current returns the user's most recent subscription that is not an
// abandoned checkout, or nil
func (r *SubscriptionRepository) Current(ctx context.Context, userID string) (*database.Subscription, error) {
	return r.first(ctx, "user_id = ? AND status <> ?", userID, database.SubscriptionPending)
}

// Running returns the user's subscription with the latest end date that is
// still running at now, or nil
func (r *SubscriptionRepository) Running(ctx context.Context, userID string, now time.Time) (*database.Subscription, error) {
	var sub database.Subscription
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status IN ? AND end_date > ?", userID, runningStatuses, now).
		Order("end_date DESC").
		First(&sub).Error
	if database.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load running subscription: %w", err)
	}
	return &sub, nil
}

// ByStripeSession finds the subscription created for a checkout session
func (r *SubscriptionRepository) ByStripeSession(ctx context.Context, sessionID string) (*database.Subscription, error) {
	return r.first(ctx, "stripe_session_id = ?", sessionID)
}

// ByStripeSubscription finds a subscription by its Stripe subscription id
func (r *SubscriptionRepository) ByStripeSubscription(ctx context.Context, stripeID string) (*database.Subscription, error) {
	return r.first(ctx, "stripe_subscription_id = ?", stripeID)
}

// Payments lists a user's payments, newest first
func (r *SubscriptionRepository) Payments(ctx context.Context, userID string, limit int) ([]database.Payment, error) {
	payments := []database.Payment{}
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Limit(limit).Find(&payments).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

// CreatePayment records a payment
func (r *SubscriptionRepository) CreatePayment(ctx context.Context, payment *database.Payment) error {
	if err := r.db.WithContext(ctx).Create(payment).Error; err != nil {
		return fmt.Errorf("failed to record payment: %w", err)
	}
	return nil
}

// Activation is everything written when a subscription starts
type Activation struct {
	Subscription *database.Subscription
	Start        time.Time
	End          time.Time
	Payment      *database.Payment
	GrantsVIP    bool
}

// Activate marks a subscription active, records its payment and grants VIP,
// all in one transaction
func (r *SubscriptionRepository) Activate(ctx context.Context, a Activation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"status":                 database.SubscriptionActive,
			"start_date":             a.Start,
			"end_date":               a.End,
			"auto_renew":             a.Subscription.AutoRenew,
			"payment_method":         a.Subscription.PaymentMethod,
			"stripe_customer_id":     a.Subscription.StripeCustomerID,
			"stripe_subscription_id": a.Subscription.StripeSubscriptionID,
		}
		if err := tx.Model(&database.Subscription{}).Where("id = ?", a.Subscription.ID).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to activate subscription: %w", err)
		}

		if a.Payment != nil {
			a.Payment.SubscriptionID = a.Subscription.ID
			a.Payment.UserID = a.Subscription.UserID
			if err := tx.Create(a.Payment).Error; err != nil {
				return fmt.Errorf("failed to record payment: %w", err)
			}
		}

		if a.GrantsVIP {
			// Permanent VIP (no expiry) is granted by admins and never shortened
			err := tx.Model(&database.User{}).
				Where("id = ? AND NOT (is_vip = ? AND vip_expiry IS NULL)", a.Subscription.UserID, true).
				Updates(map[string]interface{}{"is_vip": true, "vip_expiry": a.End}).Error
			if err != nil {
				return fmt.Errorf("failed to grant VIP: %w", err)
			}
		}

		a.Subscription.Status = database.SubscriptionActive
		a.Subscription.StartDate = &a.Start
		a.Subscription.EndDate = &a.End
		return nil
	})
}

// HasRunningVIP reports whether the user still has a running VIP subscription
func (r *SubscriptionRepository) HasRunningVIP(ctx context.Context, userID string, vipPlans []string, now time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&database.Subscription{}).
		Where("user_id = ? AND plan IN ? AND status IN ? AND end_date > ?", userID, vipPlans, runningStatuses, now).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check VIP subscriptions: %w", err)
	}
	return count > 0, nil
}

// RevokeVIP clears subscription VIP of a user. VIP without an expiry was
// granted by an admin and is left alone.
func (r *SubscriptionRepository) RevokeVIP(ctx context.Context, userID string) error {
	err := r.db.WithContext(ctx).Model(&database.User{}).Where("id = ? AND vip_expiry IS NOT NULL", userID).
		Updates(map[string]interface{}{"is_vip": false, "vip_expiry": nil}).Error
	if err != nil {
		return fmt.Errorf("failed to revoke VIP: %w", err)
	}
	return nil
}

// ExpireDue marks running subscriptions that ended before now as expired and
// returns the affected user ids
func (r *SubscriptionRepository) ExpireDue(ctx context.Context, now time.Time) ([]string, error) {
	var due []database.Subscription
	err := r.db.WithContext(ctx).
		Where("status IN ? AND end_date <= ?", runningStatuses, now).
		Find(&due).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find due subscriptions: %w", err)
	}
	if len(due) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(due))
	seen := make(map[string]bool)
	var users []string
	for _, s := range due {
		ids = append(ids, s.ID)
		if !seen[s.UserID] {
			seen[s.UserID] = true
			users = append(users, s.UserID)
		}
	}

	err = r.db.WithContext(ctx).Model(&database.Subscription{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{"status": database.SubscriptionExpired, "auto_renew": false}).Error
	if err != nil {
		return nil, fmt.Errorf("failed to expire subscriptions: %w", err)
	}
	return users, nil
}

// ClearLapsedVIP clears the VIP flag of users whose VIP expiry has passed
func (r *SubscriptionRepository) ClearLapsedVIP(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Model(&database.User{}).
		Where("is_vip = ? AND vip_expiry IS NOT NULL AND vip_expiry <= ?", true, now).
		Updates(map[string]interface{}{"is_vip": false, "vip_expiry": nil})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to clear lapsed VIP: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// User loads the subscriber
func (r *SubscriptionRepository) User(ctx context.Context, id string) (*database.User, error) {
	var user database.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, types.NewNotFoundError("user", id)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// WebhookProcessed reports whether a provider event was already handled
func (r *SubscriptionRepository) WebhookProcessed(ctx context.Context, eventID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&database.WebhookEvent{}).Where("id = ?", eventID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check webhook event: %w", err)
	}
	return count > 0, nil
}

// MarkWebhookProcessed remembers a handled provider event
func (r *SubscriptionRepository) MarkWebhookProcessed(ctx context.Context, eventID, eventType string, at time.Time) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&database.WebhookEvent{ID: eventID, Type: eventType, ProcessedAt: at}).Error
	if err != nil {
		return fmt.Errorf("failed to record webhook event: %w", err)
	}
	return nil
}

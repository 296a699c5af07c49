package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/streamflow/internal/auth"
	"github.com/mantonx/streamflow/internal/config"
	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/modules/subscriptionmodule/core/repository"
	"github.com/mantonx/streamflow/internal/modules/subscriptionmodule/gateway"
	"github.com/mantonx/streamflow/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"gorm.io/gorm"
)

type fakeGateway struct {
	checkouts []gateway.CheckoutParams
	canceled  []string
	err       error
}

func (g *fakeGateway) CreateCheckoutSession(ctx context.Context, p gateway.CheckoutParams) (*gateway.CheckoutSession, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.checkouts = append(g.checkouts, p)
	return &gateway.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/pay/cs_test_1"}, nil
}

func (g *fakeGateway) CancelAtPeriodEnd(ctx context.Context, id string) error {
	g.canceled = append(g.canceled, id)
	return g.err
}

type fixture struct {
	svc    *SubscriptionService
	db     *gorm.DB
	user   database.User
	viewer *auth.Viewer
	clock  time.Time
}

func newFixture(t *testing.T, gw gateway.Gateway) *fixture {
	t.Helper()
	db := database.NewTestDB(t)
	billing := config.DefaultConfig().Billing

	svc := NewSubscriptionService(repository.NewSubscriptionRepository(db), gw, billing, hclog.NewNullLogger())

	user := database.User{Email: "sub@example.com", PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(&user).Error)

	f := &fixture{svc: svc, db: db, user: user, viewer: &auth.Viewer{UserID: user.ID, Email: user.Email}}
	f.clock = time.Now().UTC().Truncate(time.Second)
	svc.now = func() time.Time { return f.clock }
	return f
}

func (f *fixture) reloadUser(t *testing.T) database.User {
	t.Helper()
	var user database.User
	require.NoError(t, f.db.First(&user, "id = ?", f.user.ID).Error)
	return user
}

func TestPlans(t *testing.T) {
	f := newFixture(t, nil)
	plans := f.svc.Plans()
	require.Len(t, plans, 3)
	assert.Equal(t, int64(1799), plans[1].Monthly.Gross)
}

func TestSimulatedCheckoutActivatesImmediately(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	result, err := f.svc.Checkout(ctx, f.viewer, CheckoutRequest{Plan: "premium", BillingPeriod: "monthly"})
	require.NoError(t, err)
	assert.True(t, result.Simulated)
	assert.Empty(t, result.CheckoutURL)
	assert.Equal(t, database.SubscriptionActive, result.Subscription.Status)
	assert.True(t, result.Subscription.EndDate.Equal(f.clock.AddDate(0, 1, 0)))

	user := f.reloadUser(t)
	assert.True(t, user.IsVIP)
	require.NotNil(t, user.VIPExpiry)
	assert.True(t, user.VIPExpiry.Equal(f.clock.AddDate(0, 1, 0)))

	status, err := f.svc.Status(ctx, f.user.ID)
	require.NoError(t, err)
	assert.True(t, status.IsVIP)
	require.Len(t, status.Payments, 1)
	assert.Equal(t, int64(1799), status.Payments[0].AmountCents)
	assert.Equal(t, int64(300), status.Payments[0].TaxCents)
	assert.Equal(t, ProviderManual, status.Payments[0].Provider)
}

func TestRenewalExtendsFromEndDate(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	first, err := f.svc.Checkout(ctx, f.viewer, CheckoutRequest{Plan: "vip", BillingPeriod: "monthly"})
	require.NoError(t, err)

	f.clock = f.clock.Add(24 * time.Hour)
	second, err := f.svc.Checkout(ctx, f.viewer, CheckoutRequest{Plan: "vip", BillingPeriod: "yearly"})
	require.NoError(t, err)

	assert.True(t, second.Subscription.StartDate.Equal(*first.Subscription.EndDate))
	assert.True(t, second.Subscription.EndDate.Equal(first.Subscription.EndDate.AddDate(1, 0, 0)))
}

func TestStandardPlanDoesNotGrantVIP(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.Checkout(context.Background(), f.viewer, CheckoutRequest{Plan: "standard", BillingPeriod: "monthly"})
	require.NoError(t, err)
	assert.False(t, f.reloadUser(t).IsVIP)
}

func TestCheckoutValidation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.Checkout(ctx, f.viewer, CheckoutRequest{Plan: "gold", BillingPeriod: "monthly"})
	assert.True(t, types.IsCode(err, types.ErrorCodeValidation))
	_, err = f.svc.Checkout(ctx, f.viewer, CheckoutRequest{Plan: "vip", BillingPeriod: "weekly"})
	assert.True(t, types.IsCode(err, types.ErrorCodeValidation))
}

func TestStripeCheckoutCreatesPendingSubscription(t *testing.T) {
	gw := &fakeGateway{}
	f := newFixture(t, gw)
	ctx := context.Background()

	result, err := f.svc.Checkout(ctx, f.viewer, CheckoutRequest{Plan: "premium", BillingPeriod: "yearly"})
	require.NoError(t, err)
	assert.False(t, result.Simulated)
	assert.Equal(t, "cs_test_1", result.SessionID)
	assert.Contains(t, result.CheckoutURL, "checkout.stripe.com")
	assert.Equal(t, database.SubscriptionPending, result.Subscription.Status)

	require.Len(t, gw.checkouts, 1)
	assert.Equal(t, int64(17999), gw.checkouts[0].AmountCents)
	assert.Equal(t, f.user.ID, gw.checkouts[0].UserID)
	assert.Equal(t, "eur", gw.checkouts[0].Currency)

	assert.False(t, f.reloadUser(t).IsVIP)

	// A pending checkout is not the current subscription
	current, err := f.svc.CurrentSubscription(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Nil(t, current)

	gw.err = errors.New("card network down")
	_, err = f.svc.Checkout(ctx, f.viewer, CheckoutRequest{Plan: "premium", BillingPeriod: "yearly"})
	assert.True(t, types.IsCode(err, types.ErrorCodePayment))
}

func webhookEvent(t *testing.T, id string, eventType stripe.EventType, object interface{}) stripe.Event {
	t.Helper()
	raw, err := json.Marshal(object)
	require.NoError(t, err)
	return stripe.Event{ID: id, Type: eventType, Data: &stripe.EventData{Raw: raw}}
}

func TestCheckoutCompletedWebhookActivates(t *testing.T) {
	gw := &fakeGateway{}
	f := newFixture(t, gw)
	ctx := context.Background()

	_, err := f.svc.Checkout(ctx, f.viewer, CheckoutRequest{Plan: "premium", BillingPeriod: "monthly"})
	require.NoError(t, err)

	event := webhookEvent(t, "evt_1", "checkout.session.completed", map[string]interface{}{
		"id":           "cs_test_1",
		"object":       "checkout.session",
		"customer":     "cus_1",
		"subscription": "sub_1",
		"amount_total": 1799,
		"currency":     "eur",
		"total_details": map[string]interface{}{"amount_tax": 300},
	})
	require.NoError(t, f.svc.HandleWebhook(ctx, event))

	current, err := f.svc.CurrentSubscription(ctx, f.user.ID)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, database.SubscriptionActive, current.Status)
	assert.Equal(t, "sub_1", current.StripeSubscriptionID)
	assert.True(t, f.reloadUser(t).IsVIP)

	// Replays are ignored
	require.NoError(t, f.svc.HandleWebhook(ctx, event))
	var payments int64
	f.db.Model(&database.Payment{}).Where("user_id = ?", f.user.ID).Count(&payments)
	assert.Equal(t, int64(1), payments)
}

func TestCheckoutCompletedWithoutLocalSession(t *testing.T) {
	f := newFixture(t, &fakeGateway{})
	ctx := context.Background()

	event := webhookEvent(t, "evt_2", "checkout.session.completed", map[string]interface{}{
		"id":                  "cs_external",
		"client_reference_id": f.user.ID,
		"metadata":            map[string]string{"plan": "vip", "billing_period": "yearly"},
	})
	require.NoError(t, f.svc.HandleWebhook(ctx, event))

	current, err := f.svc.CurrentSubscription(ctx, f.user.ID)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, "vip", current.Plan)
	assert.True(t, current.EndDate.Equal(f.clock.AddDate(1, 0, 0)))

	bad := webhookEvent(t, "evt_3", "checkout.session.completed", map[string]interface{}{"id": "cs_unknown"})
	assert.Error(t, f.svc.HandleWebhook(ctx, bad))
}

func TestPaymentFailedAndSubscriptionDeleted(t *testing.T) {
	f := newFixture(t, &fakeGateway{})
	ctx := context.Background()

	_, err := f.svc.Checkout(ctx, f.viewer, CheckoutRequest{Plan: "premium", BillingPeriod: "monthly"})
	require.NoError(t, err)
	require.NoError(t, f.svc.HandleWebhook(ctx, webhookEvent(t, "evt_1", "checkout.session.completed",
		map[string]interface{}{"id": "cs_test_1", "subscription": "sub_1"})))

	require.NoError(t, f.svc.HandleWebhook(ctx, webhookEvent(t, "evt_2", "invoice.payment_failed",
		map[string]interface{}{"id": "in_1", "subscription": "sub_1", "amount_due": 1799, "currency": "eur"})))

	current, err := f.svc.CurrentSubscription(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, database.SubscriptionPastDue, current.Status)
	assert.True(t, f.reloadUser(t).IsVIP, "VIP survives a failed payment until the subscription ends")

	require.NoError(t, f.svc.HandleWebhook(ctx, webhookEvent(t, "evt_3", "customer.subscription.deleted",
		map[string]interface{}{"id": "sub_1", "object": "subscription"})))

	current, err = f.svc.CurrentSubscription(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, database.SubscriptionExpired, current.Status)
	assert.False(t, f.reloadUser(t).IsVIP)

	// Unknown event types are acknowledged
	assert.NoError(t, f.svc.HandleWebhook(ctx, webhookEvent(t, "evt_4", "customer.created", map[string]interface{}{"id": "cus_1"})))
}

func TestCancelKeepsAccessUntilEnd(t *testing.T) {
	gw := &fakeGateway{}
	f := newFixture(t, gw)
	ctx := context.Background()

	_, err := f.svc.Cancel(ctx, f.user.ID)
	assert.True(t, types.IsCode(err, types.ErrorCodeNotFound))

	_, err = f.svc.Checkout(ctx, f.viewer, CheckoutRequest{Plan: "premium", BillingPeriod: "monthly"})
	require.NoError(t, err)
	require.NoError(t, f.svc.HandleWebhook(ctx, webhookEvent(t, "evt_1", "checkout.session.completed",
		map[string]interface{}{"id": "cs_test_1", "subscription": "sub_1"})))

	sub, err := f.svc.Cancel(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, database.SubscriptionCanceled, sub.Status)
	assert.False(t, sub.AutoRenew)
	assert.Equal(t, []string{"sub_1"}, gw.canceled)
	assert.True(t, f.reloadUser(t).IsVIP)

	_, err = f.svc.Cancel(ctx, f.user.ID)
	assert.True(t, types.IsCode(err, types.ErrorCodeNotFound), "already canceled")
}

func TestExpireDue(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.svc.Checkout(ctx, f.viewer, CheckoutRequest{Plan: "premium", BillingPeriod: "monthly"})
	require.NoError(t, err)

	n, err := f.svc.ExpireDue(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.True(t, f.reloadUser(t).IsVIP)

	f.clock = f.clock.AddDate(0, 1, 1)
	n, err = f.svc.ExpireDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, f.reloadUser(t).IsVIP)

	current, err := f.svc.CurrentSubscription(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, database.SubscriptionExpired, current.Status)
}

func TestSweeperStops(t *testing.T) {
	f := newFixture(t, nil)
	sweeper := NewExpirySweeper(f.svc, time.Hour, hclog.NewNullLogger())
	sweeper.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, sweeper.Stop(ctx))
}

func TestPermanentVIPSurvivesSubscriptionEnd(t *testing.T) {
	f := newFixture(t, &fakeGateway{})
	ctx := context.Background()
	require.NoError(t, f.db.Model(&database.User{}).Where("id = ?", f.user.ID).
		Updates(map[string]interface{}{"is_vip": true, "vip_expiry": nil}).Error)

	_, err := f.svc.Checkout(ctx, f.viewer, CheckoutRequest{Plan: "premium", BillingPeriod: "monthly"})
	require.NoError(t, err)
	require.NoError(t, f.svc.HandleWebhook(ctx, webhookEvent(t, "evt_1", "checkout.session.completed",
		map[string]interface{}{"id": "cs_test_1", "subscription": "sub_1"})))

	user := f.reloadUser(t)
	assert.True(t, user.IsVIP)
	assert.Nil(t, user.VIPExpiry, "activation must not put an expiry on permanent VIP")

	require.NoError(t, f.svc.HandleWebhook(ctx, webhookEvent(t, "evt_2", "customer.subscription.deleted",
		map[string]interface{}{"id": "sub_1", "object": "subscription"})))

	user = f.reloadUser(t)
	assert.True(t, user.IsVIP)
	assert.Nil(t, user.VIPExpiry)

	f.clock = f.clock.AddDate(0, 2, 0)
	_, err = f.svc.ExpireDue(ctx)
	require.NoError(t, err)
	assert.True(t, f.reloadUser(t).IsVIP)
}

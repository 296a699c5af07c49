// Package service implements VIP subscriptions: checkout, activation,
// provider webhooks, cancellation and expiry
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/streamflow/internal/auth"
	"github.com/mantonx/streamflow/internal/config"
	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/events"
	"github.com/mantonx/streamflow/internal/metrics"
	"github.com/mantonx/streamflow/internal/modules/subscriptionmodule/core"
	"github.com/mantonx/streamflow/internal/modules/subscriptionmodule/core/repository"
	"github.com/mantonx/streamflow/internal/modules/subscriptionmodule/gateway"
	"github.com/mantonx/streamflow/internal/types"
	"github.com/stripe/stripe-go/v76"
)

// Payment providers
const (
	ProviderStripe = "stripe"
	ProviderManual = "manual"
)

const paymentHistoryLimit = 24

// CheckoutRequest is the body of POST /api/subscriptions/checkout
type CheckoutRequest struct {
	Plan          string `json:"plan" binding:"required"`
	BillingPeriod string `json:"billing_period" binding:"required"`
}

// CheckoutResult tells the client where to pay. Simulated checkouts are
// already active and have no URL.
type CheckoutResult struct {
	CheckoutURL  string                 `json:"checkout_url,omitempty"`
	SessionID    string                 `json:"session_id,omitempty"`
	Simulated    bool                   `json:"simulated"`
	Subscription *database.Subscription `json:"subscription"`
	Price        core.Price             `json:"price"`
}

// Status is the response of GET /api/subscriptions/me
type Status struct {
	Subscription *database.Subscription `json:"subscription"`
	Payments     []database.Payment     `json:"payments"`
	IsVIP        bool                   `json:"is_vip"`
	VIPExpiry    *time.Time             `json:"vip_expiry"`
}

// SubscriptionService manages subscriptions. gateway is nil when Stripe is
// not configured, in which case payments are simulated.
type SubscriptionService struct {
	repo    *repository.SubscriptionRepository
	gateway gateway.Gateway
	billing config.BillingConfig
	log     hclog.Logger
	now     func() time.Time
}

// NewSubscriptionService creates a subscription service
func NewSubscriptionService(repo *repository.SubscriptionRepository, gw gateway.Gateway, billing config.BillingConfig, log hclog.Logger) *SubscriptionService {
	return &SubscriptionService{repo: repo, gateway: gw, billing: billing, log: log, now: time.Now}
}

// Plans returns every plan with taxed prices
func (s *SubscriptionService) Plans() []core.PlanPricing {
	return core.Pricing(s.billing.TaxRate)
}

// TaxRate is the VAT rate applied to plan prices
func (s *SubscriptionService) TaxRate() float64 { return s.billing.TaxRate }

// Currency is the ISO currency every price is expressed in
func (s *SubscriptionService) Currency() string { return s.billing.Currency }

// CurrentSubscription implements services.SubscriptionService
func (s *SubscriptionService) CurrentSubscription(ctx context.Context, userID string) (*database.Subscription, error) {
	return s.repo.Current(ctx, userID)
}

// Status returns the user's subscription, payments and effective VIP state
func (s *SubscriptionService) Status(ctx context.Context, userID string) (*Status, error) {
	user, err := s.repo.User(ctx, userID)
	if err != nil {
		return nil, err
	}
	sub, err := s.repo.Current(ctx, userID)
	if err != nil {
		return nil, err
	}
	payments, err := s.repo.Payments(ctx, userID, paymentHistoryLimit)
	if err != nil {
		return nil, err
	}

	status := &Status{Subscription: sub, Payments: payments, IsVIP: user.HasActiveVIP(s.now())}
	if status.IsVIP {
		status.VIPExpiry = user.VIPExpiry
	}
	return status, nil
}

// Checkout starts a subscription. With Stripe the client is sent to a hosted
// checkout; without it the payment is simulated and the plan starts at once.
func (s *SubscriptionService) Checkout(ctx context.Context, viewer *auth.Viewer, req CheckoutRequest) (*CheckoutResult, error) {
	plan, ok := core.FindPlan(req.Plan)
	if !ok {
		return nil, types.NewValidationError("unknown plan: " + req.Plan)
	}
	if !core.ValidPeriod(req.BillingPeriod) {
		return nil, types.NewValidationError("billing period must be monthly or yearly")
	}
	price := core.PriceFor(plan, req.BillingPeriod, s.billing.TaxRate)

	sub := &database.Subscription{
		UserID:        viewer.UserID,
		Plan:          plan.ID,
		BillingPeriod: req.BillingPeriod,
		Status:        database.SubscriptionPending,
		AutoRenew:     true,
	}

	if s.gateway == nil {
		sub.PaymentMethod = ProviderManual
		if err := s.repo.Create(ctx, sub); err != nil {
			return nil, err
		}
		payment := &database.Payment{
			AmountCents: price.Gross,
			TaxCents:    price.Tax,
			Currency:    s.billing.Currency,
			Status:      "succeeded",
			Provider:    ProviderManual,
		}
		if err := s.activate(ctx, sub, payment); err != nil {
			return nil, err
		}
		metrics.BillingEvents.WithLabelValues("checkout_simulated").Inc()
		s.log.Info("simulated checkout", "user_id", viewer.UserID, "plan", plan.ID, "period", req.BillingPeriod)
		return &CheckoutResult{Simulated: true, Subscription: sub, Price: price}, nil
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, gateway.CheckoutParams{
		UserID:      viewer.UserID,
		Email:       viewer.Email,
		PlanID:      plan.ID,
		PlanName:    plan.Name,
		Period:      req.BillingPeriod,
		AmountCents: price.Gross,
		Currency:    s.billing.Currency,
		SuccessURL:  s.billing.SuccessURL,
		CancelURL:   s.billing.CancelURL,
	})
	if err != nil {
		metrics.BillingEvents.WithLabelValues("checkout_failed").Inc()
		return nil, types.NewPaymentError("failed to start checkout", err)
	}

	sub.PaymentMethod = ProviderStripe
	sub.StripeSessionID = session.ID
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, err
	}

	metrics.BillingEvents.WithLabelValues("checkout_started").Inc()
	return &CheckoutResult{CheckoutURL: session.URL, SessionID: session.ID, Subscription: sub, Price: price}, nil
}

// activate starts the period of sub, extending any running subscription
func (s *SubscriptionService) activate(ctx context.Context, sub *database.Subscription, payment *database.Payment) error {
	plan, ok := core.FindPlan(sub.Plan)
	if !ok {
		return fmt.Errorf("subscription %s has unknown plan %q", sub.ID, sub.Plan)
	}

	now := s.now()
	running, err := s.repo.Running(ctx, sub.UserID, now)
	if err != nil {
		return err
	}
	start := core.PeriodStart(now, running)
	end := core.PeriodEnd(start, sub.BillingPeriod)

	if payment != nil {
		payment.CreatedAt = now
	}
	if err := s.repo.Activate(ctx, repository.Activation{
		Subscription: sub,
		Start:        start,
		End:          end,
		Payment:      payment,
		GrantsVIP:    plan.GrantsVIP,
	}); err != nil {
		return err
	}

	metrics.BillingEvents.WithLabelValues("activated").Inc()
	events.Publish(ctx, events.NewEventWithData(events.EventSubscriptionActivated, "user:"+sub.UserID,
		"Subscription activated", plan.Name, map[string]interface{}{
			"subscription_id": sub.ID,
			"plan":            sub.Plan,
			"billing_period":  sub.BillingPeriod,
			"end_date":        end,
		}))
	s.log.Info("subscription activated", "user_id", sub.UserID, "plan", sub.Plan, "end", end)
	return nil
}

// Cancel turns off renewal. Access continues until the end date.
func (s *SubscriptionService) Cancel(ctx context.Context, userID string) (*database.Subscription, error) {
	sub, err := s.repo.Running(ctx, userID, s.now())
	if err != nil {
		return nil, err
	}
	if sub == nil || sub.Status != database.SubscriptionActive {
		return nil, types.NewNotFoundError("active subscription", userID)
	}

	if sub.StripeSubscriptionID != "" && s.gateway != nil {
		if err := s.gateway.CancelAtPeriodEnd(ctx, sub.StripeSubscriptionID); err != nil {
			return nil, types.NewPaymentError("failed to cancel with the payment provider", err)
		}
	}

	if err := s.repo.Update(ctx, sub.ID, map[string]interface{}{
		"status":     database.SubscriptionCanceled,
		"auto_renew": false,
	}); err != nil {
		return nil, err
	}
	sub.Status = database.SubscriptionCanceled
	sub.AutoRenew = false

	metrics.BillingEvents.WithLabelValues("canceled").Inc()
	events.Publish(ctx, events.NewEventWithData(events.EventSubscriptionCanceled, "user:"+userID,
		"Subscription canceled", sub.Plan, map[string]interface{}{"subscription_id": sub.ID, "end_date": sub.EndDate}))
	return sub, nil
}

// ExpireDue expires ended subscriptions and drops VIP from users with no
// running VIP subscription left
func (s *SubscriptionService) ExpireDue(ctx context.Context) (int, error) {
	now := s.now()
	users, err := s.repo.ExpireDue(ctx, now)
	if err != nil {
		return 0, err
	}

	vipPlans := core.VIPPlanIDs()
	for _, userID := range users {
		if err := s.dropVIPIfLapsed(ctx, userID, vipPlans, now); err != nil {
			s.log.Error("failed to update VIP after expiry", "user_id", userID, "error", err)
			continue
		}
		events.Publish(ctx, events.NewUserEvent(events.EventSubscriptionExpired, userID, "Subscription expired", ""))
	}

	if n, err := s.repo.ClearLapsedVIP(ctx, now); err != nil {
		s.log.Error("failed to clear lapsed VIP", "error", err)
	} else if n > 0 {
		s.log.Info("cleared lapsed VIP", "users", n)
	}

	if len(users) > 0 {
		metrics.BillingEvents.WithLabelValues("expired").Add(float64(len(users)))
	}
	return len(users), nil
}

func (s *SubscriptionService) dropVIPIfLapsed(ctx context.Context, userID string, vipPlans []string, now time.Time) error {
	still, err := s.repo.HasRunningVIP(ctx, userID, vipPlans, now)
	if err != nil || still {
		return err
	}
	return s.repo.RevokeVIP(ctx, userID)
}

// HandleWebhook processes one verified provider event. Events are handled
// once; repeats are acknowledged without effect.
func (s *SubscriptionService) HandleWebhook(ctx context.Context, event stripe.Event) error {
	done, err := s.repo.WebhookProcessed(ctx, event.ID)
	if err != nil {
		return err
	}
	if done {
		s.log.Debug("webhook already processed", "event_id", event.ID)
		return nil
	}

	switch event.Type {
	case "checkout.session.completed":
		err = s.onCheckoutCompleted(ctx, event)
	case "invoice.payment_failed":
		err = s.onPaymentFailed(ctx, event)
	case "customer.subscription.deleted":
		err = s.onSubscriptionDeleted(ctx, event)
	default:
		s.log.Debug("ignoring webhook", "type", event.Type)
	}
	if err != nil {
		metrics.BillingEvents.WithLabelValues("webhook_failed").Inc()
		return err
	}

	metrics.BillingEvents.WithLabelValues("webhook").Inc()
	return s.repo.MarkWebhookProcessed(ctx, event.ID, string(event.Type), s.now())
}

func (s *SubscriptionService) onCheckoutCompleted(ctx context.Context, event stripe.Event) error {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return fmt.Errorf("decode checkout session: %w", err)
	}

	sub, err := s.repo.ByStripeSession(ctx, sess.ID)
	if err != nil {
		return err
	}
	if sub == nil {
		// Sessions created outside this service carry the user and plan in metadata
		userID := sess.ClientReferenceID
		if userID == "" {
			userID = sess.Metadata["user_id"]
		}
		if _, ok := core.FindPlan(sess.Metadata["plan"]); !ok || userID == "" {
			return types.NewValidationError("checkout session has no known user or plan")
		}
		period := sess.Metadata["billing_period"]
		if !core.ValidPeriod(period) {
			period = core.PeriodMonthly
		}
		sub = &database.Subscription{
			UserID:          userID,
			Plan:            sess.Metadata["plan"],
			BillingPeriod:   period,
			Status:          database.SubscriptionPending,
			AutoRenew:       true,
			PaymentMethod:   ProviderStripe,
			StripeSessionID: sess.ID,
		}
		if err := s.repo.Create(ctx, sub); err != nil {
			return err
		}
	}
	if sub.Status != database.SubscriptionPending {
		return nil
	}

	if sess.Customer != nil {
		sub.StripeCustomerID = sess.Customer.ID
	}
	if sess.Subscription != nil {
		sub.StripeSubscriptionID = sess.Subscription.ID
	}

	payment := &database.Payment{
		AmountCents: sess.AmountTotal,
		Currency:    string(sess.Currency),
		Status:      "succeeded",
		Provider:    ProviderStripe,
		ProviderRef: sess.ID,
	}
	if sess.TotalDetails != nil {
		payment.TaxCents = sess.TotalDetails.AmountTax
	}
	if payment.AmountCents == 0 {
		if plan, ok := core.FindPlan(sub.Plan); ok {
			price := core.PriceFor(plan, sub.BillingPeriod, s.billing.TaxRate)
			payment.AmountCents, payment.TaxCents = price.Gross, price.Tax
		}
	}
	return s.activate(ctx, sub, payment)
}

func (s *SubscriptionService) onPaymentFailed(ctx context.Context, event stripe.Event) error {
	var invoice stripe.Invoice
	if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
		return fmt.Errorf("decode invoice: %w", err)
	}
	if invoice.Subscription == nil {
		return nil
	}

	sub, err := s.repo.ByStripeSubscription(ctx, invoice.Subscription.ID)
	if err != nil || sub == nil {
		return err
	}
	if err := s.repo.Update(ctx, sub.ID, map[string]interface{}{"status": database.SubscriptionPastDue}); err != nil {
		return err
	}
	if err := s.repo.CreatePayment(ctx, &database.Payment{
		SubscriptionID: sub.ID,
		UserID:         sub.UserID,
		AmountCents:    invoice.AmountDue,
		Currency:       string(invoice.Currency),
		Status:         "failed",
		Provider:       ProviderStripe,
		ProviderRef:    invoice.ID,
		CreatedAt:      s.now(),
	}); err != nil {
		return err
	}

	events.Publish(ctx, events.NewUserEvent(events.EventPaymentFailed, sub.UserID, "Payment failed", sub.Plan))
	s.log.Warn("subscription payment failed", "user_id", sub.UserID, "subscription_id", sub.ID)
	return nil
}

func (s *SubscriptionService) onSubscriptionDeleted(ctx context.Context, event stripe.Event) error {
	var remote stripe.Subscription
	if err := json.Unmarshal(event.Data.Raw, &remote); err != nil {
		return fmt.Errorf("decode subscription: %w", err)
	}

	sub, err := s.repo.ByStripeSubscription(ctx, remote.ID)
	if err != nil || sub == nil {
		return err
	}

	now := s.now()
	if err := s.repo.Update(ctx, sub.ID, map[string]interface{}{
		"status":     database.SubscriptionExpired,
		"end_date":   now,
		"auto_renew": false,
	}); err != nil {
		return err
	}
	if err := s.dropVIPIfLapsed(ctx, sub.UserID, core.VIPPlanIDs(), now); err != nil {
		return err
	}

	events.Publish(ctx, events.NewUserEvent(events.EventSubscriptionExpired, sub.UserID, "Subscription ended", sub.Plan))
	return nil
}

// Package gateway talks to the payment provider
package gateway

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// CheckoutParams describes a hosted checkout for one plan
type CheckoutParams struct {
	UserID      string
	Email       string
	PlanID      string
	PlanName    string
	Period      string
	AmountCents int64
	Currency    string
	SuccessURL  string
	CancelURL   string
}

// CheckoutSession is the provider's answer to a checkout request
type CheckoutSession struct {
	ID  string
	URL string
}

// Gateway is the subset of the payment provider the service needs
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error)
	CancelAtPeriodEnd(ctx context.Context, subscriptionID string) error
}

// StripeGateway implements Gateway with the Stripe API
type StripeGateway struct {
	sc *client.API
}

// NewStripeGateway creates a Stripe client for secretKey
func NewStripeGateway(secretKey string) *StripeGateway {
	sc := &client.API{}
	sc.Init(secretKey, nil)
	return &StripeGateway{sc: sc}
}

// CreateCheckoutSession opens a subscription-mode Checkout Session priced
// inline from the plan
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (*CheckoutSession, error) {
	interval := stripe.PriceRecurringIntervalMonth
	if p.Period == "yearly" {
		interval = stripe.PriceRecurringIntervalYear
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		ClientReferenceID: stripe.String(p.UserID),
		SuccessURL:        stripe.String(p.SuccessURL + "?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:         stripe.String(p.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Quantity: stripe.Int64(1),
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:   stripe.String(p.Currency),
					UnitAmount: stripe.Int64(p.AmountCents),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String("StreamFlow " + p.PlanName),
					},
					Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
						Interval: stripe.String(string(interval)),
					},
				},
			},
		},
		Metadata: map[string]string{
			"user_id":        p.UserID,
			"plan":           p.PlanID,
			"billing_period": p.Period,
		},
	}
	if p.Email != "" {
		params.CustomerEmail = stripe.String(p.Email)
	}
	params.Context = ctx

	sess, err := g.sc.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout: %w", err)
	}
	return &CheckoutSession{ID: sess.ID, URL: sess.URL}, nil
}

// CancelAtPeriodEnd stops renewal of a Stripe subscription
func (g *StripeGateway) CancelAtPeriodEnd(ctx context.Context, subscriptionID string) error {
	params := &stripe.SubscriptionParams{CancelAtPeriodEnd: stripe.Bool(true)}
	params.Context = ctx
	if _, err := g.sc.Subscriptions.Update(subscriptionID, params); err != nil {
		return fmt.Errorf("stripe cancel: %w", err)
	}
	return nil
}

// VerifyWebhook checks the Stripe-Signature header and decodes the event.
// The account's API version may differ from the library's.
func VerifyWebhook(payload []byte, signature, secret string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
}

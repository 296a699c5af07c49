package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-hclog"
	"github.com/mantonx/streamflow/internal/auth"
	"github.com/mantonx/streamflow/internal/config"
	"github.com/mantonx/streamflow/internal/database"
	"github.com/mantonx/streamflow/internal/modules/subscriptionmodule/core/repository"
	"github.com/mantonx/streamflow/internal/modules/subscriptionmodule/service"
	"github.com/mantonx/streamflow/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"gorm.io/gorm"
)

const testWebhookSecret = "whsec_test_secret"

type dbUsers struct{ db *gorm.DB }

func (u dbUsers) FindUserByID(ctx context.Context, id string) (*database.User, error) {
	var user database.User
	if err := u.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, types.NewNotFoundError("user", id)
	}
	return &user, nil
}

type env struct {
	router *gin.Engine
	db     *gorm.DB
	user   database.User
	token  string
}

func setup(t *testing.T, secret string) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := database.NewTestDB(t)
	tm, err := auth.NewTokenManager("subscriptions-test", "streamflow", time.Hour, time.Hour)
	require.NoError(t, err)

	svc := service.NewSubscriptionService(repository.NewSubscriptionRepository(db), nil, config.DefaultConfig().Billing, hclog.NewNullLogger())

	router := gin.New()
	RegisterRoutes(router, NewHandler(svc, secret), auth.NewMiddleware(tm, dbUsers{db}))

	user := database.User{Email: "payer@example.com", PasswordHash: "x", IsActive: true}
	require.NoError(t, db.Create(&user).Error)
	token, _, err := tm.GenerateAccessToken(&user)
	require.NoError(t, err)

	return &env{router: router, db: db, user: user, token: token}
}

func (e *env) call(method, path string, body interface{}, authed bool) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *env) postWebhook(t *testing.T, payload []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/subscriptions/webhook", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func checkoutCompletedPayload(t *testing.T, eventID, userID string) []byte {
	t.Helper()
	payload, err := json.Marshal(map[string]interface{}{
		"id":          eventID,
		"object":      "event",
		"type":        "checkout.session.completed",
		"api_version": stripe.APIVersion,
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"id":                  "cs_external_1",
				"object":              "checkout.session",
				"client_reference_id": userID,
				"amount_total":        1799,
				"currency":            "eur",
				"metadata": map[string]string{
					"user_id":        userID,
					"plan":           "premium",
					"billing_period": "monthly",
				},
			},
		},
	})
	require.NoError(t, err)
	return payload
}

func sign(payload []byte, secret string) string {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	})
	return signed.Header
}

func TestGetPlans(t *testing.T) {
	e := setup(t, "")

	w := e.call(http.MethodGet, "/api/subscriptions/plans", nil, false)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Plans    []map[string]interface{} `json:"plans"`
		TaxRate  float64                  `json:"tax_rate"`
		Currency string                   `json:"currency"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Plans, 3)
	assert.Equal(t, 0.2, body.TaxRate)
	assert.Equal(t, "eur", body.Currency)
}

func TestCheckoutStatusAndCancel(t *testing.T) {
	e := setup(t, "")

	assert.Equal(t, http.StatusUnauthorized, e.call(http.MethodGet, "/api/subscriptions/me", nil, false).Code)

	w := e.call(http.MethodPost, "/api/subscriptions/checkout", gin.H{"plan": "gold", "billing_period": "monthly"}, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = e.call(http.MethodPost, "/api/subscriptions/checkout", gin.H{"plan": "vip", "billing_period": "yearly"}, true)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var result service.CheckoutResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.True(t, result.Simulated)
	assert.Equal(t, database.SubscriptionActive, result.Subscription.Status)

	w = e.call(http.MethodGet, "/api/subscriptions/me", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	var status service.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.True(t, status.IsVIP)
	assert.Len(t, status.Payments, 1)

	w = e.call(http.MethodPost, "/api/subscriptions/cancel", nil, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"canceled"`)

	assert.Equal(t, http.StatusNotFound, e.call(http.MethodPost, "/api/subscriptions/cancel", nil, true).Code)
}

func TestWebhookDisabledWithoutSecret(t *testing.T) {
	e := setup(t, "")
	w := e.postWebhook(t, []byte(`{}`), "t=1,v1=abc")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "BILLING_DISABLED")
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	e := setup(t, testWebhookSecret)
	payload := checkoutCompletedPayload(t, "evt_bad", e.user.ID)

	assert.Equal(t, http.StatusBadRequest, e.postWebhook(t, payload, "").Code)
	assert.Equal(t, http.StatusBadRequest, e.postWebhook(t, payload, sign(payload, "whsec_other")).Code)

	var count int64
	require.NoError(t, e.db.Model(&database.Subscription{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestWebhookActivatesOnce(t *testing.T) {
	e := setup(t, testWebhookSecret)
	payload := checkoutCompletedPayload(t, "evt_ok", e.user.ID)

	w := e.postWebhook(t, payload, sign(payload, testWebhookSecret))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"received":true}`, w.Body.String())

	// Stripe retries deliver the same event again
	w = e.postWebhook(t, payload, sign(payload, testWebhookSecret))
	require.Equal(t, http.StatusOK, w.Code)

	var subs []database.Subscription
	require.NoError(t, e.db.Find(&subs).Error)
	require.Len(t, subs, 1)
	assert.Equal(t, database.SubscriptionActive, subs[0].Status)
	assert.Equal(t, "premium", subs[0].Plan)

	var payments int64
	require.NoError(t, e.db.Model(&database.Payment{}).Count(&payments).Error)
	assert.Equal(t, int64(1), payments)

	var user database.User
	require.NoError(t, e.db.First(&user, "id = ?", e.user.ID).Error)
	assert.True(t, user.IsVIP)
}

func TestWebhookHandlerErrorAsksForRetry(t *testing.T) {
	e := setup(t, testWebhookSecret)
	// No user and no plan: the event cannot be applied
	payload := checkoutCompletedPayload(t, "evt_broken", "")
	payload = bytes.Replace(payload, []byte(`"premium"`), []byte(`"unknown"`), 1)

	w := e.postWebhook(t, payload, sign(payload, testWebhookSecret))
	assert.GreaterOrEqual(t, w.Code, http.StatusBadRequest)

	var processed int64
	require.NoError(t, e.db.Model(&database.WebhookEvent{}).Count(&processed).Error)
	assert.Zero(t, processed)
}

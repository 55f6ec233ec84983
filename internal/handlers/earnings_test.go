// internal/handlers/earnings_test.go
package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/myfitlabs/myfit-backend/internal/config"
	"github.com/myfitlabs/myfit-backend/internal/services"
)

func TestRequestPayoutRejectsAmountsBelowMinimum(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		Payment: config.PaymentConfig{
			PlatformFeePercent: 20,
			MinimumPayoutCents: 5000,
			DefaultCurrency:    "BRL",
		},
	}
	handler := NewEarningsHandler(services.NewEarningsService(nil, cfg), nil, cfg)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/v1/creator/payouts",
		bytes.NewBufferString(`{"amount_cents": 1000, "payout_method": "pix"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set("user_id", uuid.NewString())

	handler.RequestPayout(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "below the minimum")
}

package payment

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/course-seller/internal/apperr"
	"github.com/magabrotheeeer/course-seller/internal/http/middlewarectx"
	"github.com/magabrotheeeer/course-seller/internal/models"
	"github.com/magabrotheeeer/course-seller/internal/services/subscription"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Initiate(ctx context.Context, userID string) (string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.Error(1)
}

func (m *MockService) Verify(ctx context.Context, userID, paymentID, subscriptionID, signature string) error {
	return m.Called(ctx, userID, paymentID, subscriptionID, signature).Error(0)
}

func (m *MockService) Cancel(ctx context.Context, userID string) (subscription.CancelResult, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(subscription.CancelResult), args.Error(1)
}

func (m *MockService) Key() string {
	return m.Called().String(0)
}

func newHandler() (*Handler, *MockService) {
	svc := new(MockService)
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc, "http://front"), svc
}

func withUser(r *http.Request) *http.Request {
	return r.WithContext(middlewarectx.WithUser(r.Context(), &models.User{ID: "u1"}))
}

func TestSubscribe(t *testing.T) {
	h, svc := newHandler()
	svc.On("Initiate", mock.Anything, "u1").Return("sub_1", nil).Once()
	svc.On("Initiate", mock.Anything, "u1").Return("", apperr.Validation("Admin can't buy subscription")).Once()

	w := httptest.NewRecorder()
	h.Subscribe(w, withUser(httptest.NewRequest(http.MethodGet, "/subscribe", nil)))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"subscriptionId":"sub_1"`)

	w = httptest.NewRecorder()
	h.Subscribe(w, withUser(httptest.NewRequest(http.MethodGet, "/subscribe", nil)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestKey(t *testing.T) {
	h, svc := newHandler()
	svc.On("Key").Return("rzp_test")

	w := httptest.NewRecorder()
	h.Key(w, httptest.NewRequest(http.MethodGet, "/razorpaykey", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"key":"rzp_test"`)
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name         string
		contentType  string
		accept       string
		body         string
		mockErr      error
		callsSvc     bool
		wantStatus   int
		wantLocation string
		wantBody     string
	}{
		{
			name:         "valid json",
			contentType:  "application/json",
			body:         `{"razorpay_payment_id":"pay_1","razorpay_subscription_id":"sub_1","razorpay_signature":"sig"}`,
			callsSvc:     true,
			wantStatus:   http.StatusFound,
			wantLocation: "http://front/paymentsuccess?reference=pay_1",
		},
		{
			name:         "valid form",
			contentType:  "application/x-www-form-urlencoded",
			body:         "razorpay_payment_id=pay_1&razorpay_subscription_id=sub_1&razorpay_signature=sig",
			callsSvc:     true,
			wantStatus:   http.StatusFound,
			wantLocation: "http://front/paymentsuccess?reference=pay_1",
		},
		{
			name:         "form with charset",
			contentType:  "application/x-www-form-urlencoded; charset=UTF-8",
			body:         "razorpay_payment_id=pay_1&razorpay_subscription_id=sub_1&razorpay_signature=sig",
			callsSvc:     true,
			wantStatus:   http.StatusFound,
			wantLocation: "http://front/paymentsuccess?reference=pay_1",
		},
		{
			name:        "json client",
			contentType: "application/json",
			accept:      "application/json",
			body:        `{"razorpay_payment_id":"pay_1","razorpay_subscription_id":"sub_1","razorpay_signature":"sig"}`,
			callsSvc:    true,
			wantStatus:  http.StatusOK,
			wantBody:    `"reference":"pay_1"`,
		},
		{
			name:        "replay after cancel",
			contentType: "application/json",
			body:        `{"razorpay_payment_id":"pay_1","razorpay_subscription_id":"sub_1","razorpay_signature":"sig"}`,
			mockErr:     apperr.Conflict("Subscription is not awaiting payment"),
			callsSvc:    true,
			wantStatus:  http.StatusConflict,
		},
		{
			name:        "forged signature",
			contentType: "application/json",
			body:        `{"razorpay_payment_id":"pay_1","razorpay_subscription_id":"sub_1","razorpay_signature":"sig"}`,
			mockErr:     apperr.Unauthenticated("Payment verification failed"),
			callsSvc:    true,
			wantStatus:  http.StatusUnauthorized,
		},
		{
			name:        "missing signature",
			contentType: "application/json",
			body:        `{"razorpay_payment_id":"pay_1"}`,
			wantStatus:  http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, svc := newHandler()
			if tt.callsSvc {
				svc.On("Verify", mock.Anything, "u1", "pay_1", "sub_1", "sig").Return(tt.mockErr)
			}
			r := httptest.NewRequest(http.MethodPost, "/paymentverification", strings.NewReader(tt.body))
			r.Header.Set("Content-Type", tt.contentType)
			if tt.accept != "" {
				r.Header.Set("Accept", tt.accept)
			}

			w := httptest.NewRecorder()
			h.Verify(w, withUser(r))

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantLocation != "" {
				assert.Equal(t, tt.wantLocation, w.Header().Get("Location"))
			}
			if tt.wantBody != "" {
				assert.Contains(t, w.Body.String(), tt.wantBody)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestCancel(t *testing.T) {
	h, svc := newHandler()
	svc.On("Cancel", mock.Anything, "u1").
		Return(subscription.CancelResult{Refunded: true, Message: "Subscription cancelled, you will receive full refund within 7 days."}, nil).Once()
	svc.On("Cancel", mock.Anything, "u1").
		Return(subscription.CancelResult{}, apperr.NotFound("No subscription found")).Once()

	w := httptest.NewRecorder()
	h.Cancel(w, withUser(httptest.NewRequest(http.MethodDelete, "/subscribe/cancel", nil)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"refunded":true`)

	w = httptest.NewRecorder()
	h.Cancel(w, withUser(httptest.NewRequest(http.MethodDelete, "/subscribe/cancel", nil)))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

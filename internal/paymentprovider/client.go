// Package paymentprovider клиент REST API платёжного шлюза Razorpay.
package paymentprovider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// APIError ответ шлюза с кодом ошибки.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("gateway error %d %s: %s", e.StatusCode, e.Code, e.Description)
	}
	return fmt.Sprintf("gateway error %d", e.StatusCode)
}

type Client struct {
	keyID      string
	keySecret  string
	apiURL     string
	httpClient *http.Client
}

// NewClient создаёт клиент Razorpay. Запросы авторизуются basic-аутентификацией по паре ключей.
func NewClient(keyID, keySecret, apiURL string) *Client {
	return &Client{
		keyID:      keyID,
		keySecret:  keySecret,
		apiURL:     strings.TrimRight(apiURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// KeyID публичный ключ для checkout на стороне клиента.
func (c *Client) KeyID() string {
	return c.keyID
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errResp errorResponse
		if json.NewDecoder(resp.Body).Decode(&errResp) == nil {
			apiErr.Code = errResp.Error.Code
			apiErr.Description = errResp.Error.Description
		}
		return apiErr
	}

	if result == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(result)
}

// CreateSubscription создаёт подписку по тарифному плану.
func (c *Client) CreateSubscription(ctx context.Context, planID string, totalCount int) (*SubscriptionResponse, error) {
	const op = "paymentprovider.CreateSubscription"

	req, err := c.newRequest(ctx, http.MethodPost, "/subscriptions", CreateSubscriptionRequest{
		PlanID:         planID,
		CustomerNotify: 1,
		TotalCount:     totalCount,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var sub SubscriptionResponse
	if err := c.do(req, &sub); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &sub, nil
}

// CancelSubscription отменяет подписку немедленно.
func (c *Client) CancelSubscription(ctx context.Context, subscriptionID string) error {
	const op = "paymentprovider.CancelSubscription"

	req, err := c.newRequest(ctx, http.MethodPost, "/subscriptions/"+url.PathEscape(subscriptionID)+"/cancel", nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RefundPayment возвращает полную сумму платежа.
func (c *Client) RefundPayment(ctx context.Context, paymentID string) (*RefundResponse, error) {
	const op = "paymentprovider.RefundPayment"

	req, err := c.newRequest(ctx, http.MethodPost, "/payments/"+url.PathEscape(paymentID)+"/refund", nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var refund RefundResponse
	if err := c.do(req, &refund); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &refund, nil
}

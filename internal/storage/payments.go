package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/course-seller/internal/models"
)

// SavePayment сохраняет квитанцию. Повторное сохранение того же платежа
// ничего не меняет и возвращает false.
func (s *Storage) SavePayment(ctx context.Context, p *models.Payment) (bool, error) {
	const op = "storage.SavePayment"
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	res, err := s.DB.ExecContext(ctx, `
		INSERT INTO payments (id, user_id, razorpay_payment_id, razorpay_subscription_id, razorpay_signature, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (razorpay_payment_id) DO NOTHING`,
		p.ID, p.UserID, p.RazorpayPaymentID, p.RazorpaySubscriptionID, p.RazorpaySignature, p.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n > 0, nil
}

// GetPaymentBySubscription возвращает первую квитанцию подписки.
func (s *Storage) GetPaymentBySubscription(ctx context.Context, subscriptionID string) (*models.Payment, error) {
	const op = "storage.GetPaymentBySubscription"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var p models.Payment
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, user_id, razorpay_payment_id, razorpay_subscription_id, razorpay_signature, created_at
		FROM payments WHERE razorpay_subscription_id = $1
		ORDER BY created_at
		LIMIT 1`, subscriptionID).
		Scan(&p.ID, &p.UserID, &p.RazorpayPaymentID, &p.RazorpaySubscriptionID, &p.RazorpaySignature, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrPaymentNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &p, nil
}

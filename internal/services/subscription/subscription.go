// Package subscription управляет жизненным циклом подписки пользователя:
// создание в платёжном шлюзе, подтверждение оплаты, отмена и возврат.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/course-seller/internal/apperr"
	"github.com/magabrotheeeer/course-seller/internal/lib/signature"
	"github.com/magabrotheeeer/course-seller/internal/lib/sl"
	"github.com/magabrotheeeer/course-seller/internal/metrics"
	"github.com/magabrotheeeer/course-seller/internal/models"
	"github.com/magabrotheeeer/course-seller/internal/paymentprovider"
	"github.com/magabrotheeeer/course-seller/internal/storage"
)

var errSubscriptionNotPending = apperr.Conflict("Subscription is not awaiting payment")

// Repository операции хранилища, нужные жизненному циклу подписки.
type Repository interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	SetSubscription(ctx context.Context, id string, sub models.Subscription) error
	ActivateSubscription(ctx context.Context, id, subscriptionID string) (bool, error)
	SavePayment(ctx context.Context, p *models.Payment) (bool, error)
	GetPaymentBySubscription(ctx context.Context, subscriptionID string) (*models.Payment, error)
}

// Gateway клиент платёжного шлюза.
type Gateway interface {
	CreateSubscription(ctx context.Context, planID string, totalCount int) (*paymentprovider.SubscriptionResponse, error)
	CancelSubscription(ctx context.Context, subscriptionID string) error
	RefundPayment(ctx context.Context, paymentID string) (*paymentprovider.RefundResponse, error)
	KeyID() string
}

// RefundPolicy определяет, положен ли возврат при отмене.
type RefundPolicy struct {
	Enabled bool
	Window  time.Duration
}

// Eligible сообщает, попадает ли отмена в окно возврата с момента оплаты.
func (p RefundPolicy) Eligible(paidAt, now time.Time) bool {
	return p.Enabled && now.Sub(paidAt) < p.Window
}

// Plan параметры тарифа в платёжном шлюзе.
type Plan struct {
	ID         string
	TotalCount int
}

// CancelResult итог отмены подписки.
type CancelResult struct {
	Refunded bool
	Message  string
}

// Service жизненный цикл подписки.
type Service struct {
	repo    Repository
	gateway Gateway
	secret  string
	plan    Plan
	policy  RefundPolicy
	log     *slog.Logger
	now     func() time.Time
}

// New создает новый экземпляр Service. secret используется для проверки подписи платежа.
func New(log *slog.Logger, repo Repository, gateway Gateway, secret string, plan Plan, policy RefundPolicy) *Service {
	return &Service{
		repo:    repo,
		gateway: gateway,
		secret:  secret,
		plan:    plan,
		policy:  policy,
		log:     log,
		now:     time.Now,
	}
}

// Key публичный ключ шлюза для checkout.
func (s *Service) Key() string {
	return s.gateway.KeyID()
}

func (s *Service) loadUser(ctx context.Context, op, userID string) (*models.User, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if errors.Is(err, storage.ErrUserNotFound) {
		return nil, apperr.NotFound("User not Found")
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// Initiate создаёт подписку в шлюзе и сохраняет её в статусе pending.
// Администраторам подписка не оформляется, повторная оформляется после отмены.
func (s *Service) Initiate(ctx context.Context, userID string) (string, error) {
	const op = "subscription.Initiate"

	user, err := s.loadUser(ctx, op, userID)
	if err != nil {
		return "", err
	}
	if user.IsAdmin() {
		return "", apperr.Forbidden("Admin can't buy subscription")
	}
	if user.Subscription.IsActive() {
		return "", apperr.Conflict("Subscription already active")
	}

	created, err := s.gateway.CreateSubscription(ctx, s.plan.ID, s.plan.TotalCount)
	if err != nil {
		metrics.GatewayFailures.WithLabelValues("create").Inc()
		return "", apperr.Upstream("payment gateway error", err)
	}

	sub := models.Subscription{ID: created.ID, Status: models.SubscriptionPending}
	if err := s.repo.SetSubscription(ctx, userID, sub); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	metrics.SubscriptionTransitions.WithLabelValues(models.SubscriptionPending).Inc()
	s.log.Info("subscription initiated", slog.String("user_id", userID), slog.String("subscription_id", created.ID))
	return created.ID, nil
}

// Verify проверяет подпись платежа и активирует подписку из pending. Подпись
// проверяется до любых изменений, поэтому поддельный запрос не меняет состояние.
// Повторный вызов для активной подписки успешен, для отменённой отклоняется:
// из cancelled выводит только новый Initiate.
func (s *Service) Verify(ctx context.Context, userID, paymentID, subscriptionID, sig string) error {
	const op = "subscription.Verify"

	if paymentID == "" || sig == "" {
		return apperr.Validation("Payment details are missing")
	}

	user, err := s.loadUser(ctx, op, userID)
	if err != nil {
		return err
	}
	stored := user.Subscription.ID
	if stored == "" {
		return apperr.NotFound("No subscription found")
	}
	if subscriptionID != "" && subscriptionID != stored {
		return apperr.Unauthenticated("Payment verification failed")
	}
	if !signature.Verify(s.secret, signature.PaymentPayload(paymentID, stored), sig) {
		s.log.Warn("payment signature mismatch", slog.String("user_id", userID), slog.String("payment_id", paymentID))
		return apperr.Unauthenticated("Payment verification failed")
	}

	if user.Subscription.IsActive() {
		return nil
	}
	if user.Subscription.Status != models.SubscriptionPending {
		return errSubscriptionNotPending
	}

	if _, err := s.repo.SavePayment(ctx, &models.Payment{
		UserID:                 userID,
		RazorpayPaymentID:      paymentID,
		RazorpaySubscriptionID: stored,
		RazorpaySignature:      sig,
	}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	activated, err := s.repo.ActivateSubscription(ctx, userID, stored)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if activated {
		metrics.SubscriptionTransitions.WithLabelValues(models.SubscriptionActive).Inc()
		s.log.Info("subscription activated", slog.String("user_id", userID), slog.String("subscription_id", stored))
		return nil
	}

	// статус сменился между чтением и активацией
	current, err := s.loadUser(ctx, op, userID)
	if err != nil {
		return err
	}
	if current.Subscription.ID == stored && current.Subscription.IsActive() {
		return nil
	}
	return errSubscriptionNotPending
}

// Cancel отменяет подписку в шлюзе и локально. Ошибки шлюза и возврата
// логируются, статус всё равно становится cancelled.
func (s *Service) Cancel(ctx context.Context, userID string) (CancelResult, error) {
	const op = "subscription.Cancel"

	user, err := s.loadUser(ctx, op, userID)
	if err != nil {
		return CancelResult{}, err
	}
	sub := user.Subscription
	if sub.ID == "" {
		return CancelResult{}, apperr.NotFound("No subscription found")
	}
	if sub.Status == models.SubscriptionCancelled {
		return CancelResult{Message: "Subscription already cancelled"}, nil
	}

	log := s.log.With(slog.String("user_id", userID), slog.String("subscription_id", sub.ID))

	if err := s.gateway.CancelSubscription(ctx, sub.ID); err != nil {
		metrics.GatewayFailures.WithLabelValues("cancel").Inc()
		log.Error("failed to cancel subscription in gateway", sl.Err(err))
	}

	refunded := s.refund(ctx, log, sub.ID)

	sub.Status = models.SubscriptionCancelled
	if err := s.repo.SetSubscription(ctx, userID, sub); err != nil {
		return CancelResult{}, fmt.Errorf("%s: %w", op, err)
	}
	metrics.SubscriptionTransitions.WithLabelValues(models.SubscriptionCancelled).Inc()

	if refunded {
		return CancelResult{
			Refunded: true,
			Message:  "Subscription cancelled, you will receive full refund within 7 days.",
		}, nil
	}
	return CancelResult{Message: "Subscription cancelled, no refund initiated."}, nil
}

func (s *Service) refund(ctx context.Context, log *slog.Logger, subscriptionID string) bool {
	payment, err := s.repo.GetPaymentBySubscription(ctx, subscriptionID)
	if errors.Is(err, storage.ErrPaymentNotFound) {
		return false
	}
	if err != nil {
		log.Error("failed to load payment for refund", sl.Err(err))
		return false
	}
	if !s.policy.Eligible(payment.CreatedAt, s.now()) {
		return false
	}

	if _, err := s.gateway.RefundPayment(ctx, payment.RazorpayPaymentID); err != nil {
		metrics.GatewayFailures.WithLabelValues("refund").Inc()
		log.Error("refund failed", slog.String("payment_id", payment.RazorpayPaymentID), sl.Err(err))
		return false
	}
	log.Info("refund issued", slog.String("payment_id", payment.RazorpayPaymentID))
	return true
}

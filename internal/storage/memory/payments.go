package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/course-seller/internal/models"
	"github.com/magabrotheeeer/course-seller/internal/storage"
)

func (s *Store) SavePayment(ctx context.Context, p *models.Payment) (bool, error) {
	const op = "memory.SavePayment"
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.payments[p.RazorpayPaymentID]; ok {
		return false, nil
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	cp := *p
	s.payments[p.RazorpayPaymentID] = &cp
	return true, nil
}

func (s *Store) GetPaymentBySubscription(ctx context.Context, subscriptionID string) (*models.Payment, error) {
	const op = "memory.GetPaymentBySubscription"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *models.Payment
	for _, p := range s.payments {
		if p.RazorpaySubscriptionID != subscriptionID {
			continue
		}
		if found == nil || p.CreatedAt.Before(found.CreatedAt) {
			found = p
		}
	}
	if found == nil {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrPaymentNotFound)
	}
	cp := *found
	return &cp, nil
}

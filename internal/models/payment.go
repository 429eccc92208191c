package models

import "time"

// Payment квитанция подтверждённой оплаты подписки.
type Payment struct {
	ID                     string    `json:"_id"`
	UserID                 string    `json:"user"`
	RazorpayPaymentID      string    `json:"razorpay_payment_id"`
	RazorpaySubscriptionID string    `json:"razorpay_subscription_id"`
	RazorpaySignature      string    `json:"razorpay_signature"`
	CreatedAt              time.Time `json:"createdAt"`
}

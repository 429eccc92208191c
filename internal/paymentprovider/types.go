package paymentprovider

// CreateSubscriptionRequest запрос на создание подписки по тарифному плану.
type CreateSubscriptionRequest struct {
	PlanID         string `json:"plan_id"`
	CustomerNotify int    `json:"customer_notify"`
	TotalCount     int    `json:"total_count"`
}

// SubscriptionResponse подписка в платёжном шлюзе.
type SubscriptionResponse struct {
	ID     string `json:"id"`
	Entity string `json:"entity"`
	PlanID string `json:"plan_id"`
	Status string `json:"status"`
}

// RefundResponse возврат средств по платежу.
type RefundResponse struct {
	ID        string `json:"id"`
	PaymentID string `json:"payment_id"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
}

type errorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// Package payment реализует HTTP-обработчики оформления, подтверждения и
// отмены подписки.
package payment

import (
	"context"
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/course-seller/internal/apperr"
	"github.com/magabrotheeeer/course-seller/internal/http/middlewarectx"
	"github.com/magabrotheeeer/course-seller/internal/http/response"
	"github.com/magabrotheeeer/course-seller/internal/lib/sl"
	"github.com/magabrotheeeer/course-seller/internal/models"
	"github.com/magabrotheeeer/course-seller/internal/services/subscription"
)

// Service описывает жизненный цикл подписки.
type Service interface {
	Initiate(ctx context.Context, userID string) (string, error)
	Verify(ctx context.Context, userID, paymentID, subscriptionID, signature string) error
	Cancel(ctx context.Context, userID string) (subscription.CancelResult, error)
	Key() string
}

// Handler обрабатывает запросы оплаты.
type Handler struct {
	log         *slog.Logger
	service     Service
	frontendURL string
	validate    *validator.Validate
}

// New создает новый Handler. frontendURL используется для редиректа после оплаты.
func New(log *slog.Logger, service Service, frontendURL string) *Handler {
	return &Handler{
		log:         log,
		service:     service,
		frontendURL: frontendURL,
		validate:    validator.New(),
	}
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

func currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	u, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, apperr.Unauthenticated("Please Login to access this resource"))
	}
	return u, ok
}

// Subscribe godoc
// @Summary Оформить подписку
// @Description Создаёт подписку в платёжном шлюзе и возвращает её идентификатор.
// @Tags Payment
// @Produce json
// @Success 201 {object} map[string]any
// @Failure 400 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse
// @Router /subscribe [get]
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.Subscribe"
	log := h.logger(r, op)

	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	subID, err := h.service.Initiate(r.Context(), user.ID)
	if err != nil {
		log.Error("failed to initiate subscription", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}

	log.Info("subscription initiated", slog.String("user_id", user.ID), slog.String("subscription_id", subID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.OKWithData("", map[string]any{"subscriptionId": subID}))
}

// Key возвращает публичный ключ шлюза для клиентского checkout.
func (h *Handler) Key(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.OKWithData("", map[string]any{"key": h.service.Key()}))
}

// VerifyRequest данные, которые шлюз передаёт клиенту после оплаты.
type VerifyRequest struct {
	PaymentID      string `json:"razorpay_payment_id" validate:"required"`
	SubscriptionID string `json:"razorpay_subscription_id"`
	Signature      string `json:"razorpay_signature" validate:"required"`
}

// Verify godoc
// @Summary Подтвердить оплату
// @Description Проверяет подпись платежа, активирует подписку и перенаправляет на страницу успеха.
// @Tags Payment
// @Accept json
// @Param request body VerifyRequest true "Данные платежа"
// @Success 200 {object} map[string]any "при Accept: application/json"
// @Success 302
// @Failure 401 {object} response.ErrorResponse
// @Router /paymentverification [post]
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.Verify"
	log := h.logger(r, op)

	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	req, err := decodeVerify(r)
	if err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.WriteError(w, r, apperr.Validation("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.WriteValidation(w, r, err)
		return
	}

	if err := h.service.Verify(r.Context(), user.ID, req.PaymentID, req.SubscriptionID, req.Signature); err != nil {
		log.Warn("payment verification failed", slog.String("user_id", user.ID), sl.Err(err))
		response.WriteError(w, r, err)
		return
	}

	log.Info("payment verified", slog.String("user_id", user.ID), slog.String("payment_id", req.PaymentID))
	if acceptsJSON(r) {
		render.JSON(w, r, response.OKWithData("Payment verified", map[string]any{"reference": req.PaymentID}))
		return
	}
	http.Redirect(w, r, h.frontendURL+"/paymentsuccess?reference="+url.QueryEscape(req.PaymentID), http.StatusFound)
}

// acceptsJSON сообщает, что клиент явно ждёт JSON, а не редирект браузера.
func acceptsJSON(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && mediaType == "application/json" {
			return true
		}
	}
	return false
}

// decodeVerify принимает JSON и форму: checkout шлюза отправляет форму.
func decodeVerify(r *http.Request) (VerifyRequest, error) {
	var req VerifyRequest
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" {
		if err := r.ParseForm(); err != nil {
			return req, err
		}
		req.PaymentID = r.PostFormValue("razorpay_payment_id")
		req.SubscriptionID = r.PostFormValue("razorpay_subscription_id")
		req.Signature = r.PostFormValue("razorpay_signature")
		return req, nil
	}
	err := json.NewDecoder(r.Body).Decode(&req)
	return req, err
}

// Cancel отменяет подписку. Повторная отмена успешна.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.Cancel"
	log := h.logger(r, op)

	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	res, err := h.service.Cancel(r.Context(), user.ID)
	if err != nil {
		log.Error("failed to cancel subscription", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}

	log.Info("subscription cancelled", slog.String("user_id", user.ID), slog.Bool("refunded", res.Refunded))
	render.JSON(w, r, response.OKWithData(res.Message, map[string]any{"refunded": res.Refunded}))
}

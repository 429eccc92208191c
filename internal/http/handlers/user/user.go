// Package user реализует HTTP-обработчики регистрации, входа и профиля.
//
// Регистрация и смена аватара принимают multipart-форму с полем file,
// остальные обработчики принимают JSON.
package user

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/course-seller/internal/apperr"
	"github.com/magabrotheeeer/course-seller/internal/http/form"
	"github.com/magabrotheeeer/course-seller/internal/http/middlewarectx"
	"github.com/magabrotheeeer/course-seller/internal/http/response"
	"github.com/magabrotheeeer/course-seller/internal/lib/sl"
	"github.com/magabrotheeeer/course-seller/internal/media"
	"github.com/magabrotheeeer/course-seller/internal/models"
)

// Service описывает бизнес-логику пользователей, нужную обработчикам.
type Service interface {
	Register(ctx context.Context, name, email, password string, avatar *media.File) (*models.User, string, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	Me(ctx context.Context, id string) (*models.User, error)
	ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error
	UpdateProfile(ctx context.Context, id, name, email string) error
	UpdateAvatar(ctx context.Context, id string, avatar *media.File) error
	DeleteUser(ctx context.Context, id string) error
	ForgetPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
}

// Handler обрабатывает запросы к учётной записи пользователя.
type Handler struct {
	log      *slog.Logger
	service  Service
	cookies  middlewarectx.SessionCookies
	validate *validator.Validate
}

// New создает новый Handler.
func New(log *slog.Logger, service Service, cookies middlewarectx.SessionCookies) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		cookies:  cookies,
		validate: validator.New(),
	}
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// decode читает JSON-тело и проверяет его валидатором. При ошибке ответ уже записан.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, log *slog.Logger, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.WriteError(w, r, apperr.Validation("invalid request body"))
		return false
	}
	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		response.WriteValidation(w, r, err)
		return false
	}
	return true
}

func currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	u, ok := middlewarectx.UserFromContext(r.Context())
	if !ok {
		response.WriteError(w, r, apperr.Unauthenticated("Please Login to access this resource"))
	}
	return u, ok
}

// sendToken выставляет cookie сессии и возвращает пользователя.
func (h *Handler) sendToken(w http.ResponseWriter, r *http.Request, status int, msg string, u *models.User, token string) {
	h.cookies.Set(w, token)
	render.Status(r, status)
	render.JSON(w, r, response.OKWithData(msg, map[string]any{"user": u}))
}

// RegisterRequest поля формы регистрации.
type RegisterRequest struct {
	Name     string `validate:"required,max=50"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
}

// Register godoc
// @Summary Регистрация пользователя
// @Tags User
// @Accept multipart/form-data
// @Produce json
// @Param name formData string true "Имя"
// @Param email formData string true "Email"
// @Param password formData string true "Пароль"
// @Param file formData file true "Аватар"
// @Success 201 {object} map[string]any
// @Failure 400 {object} response.ErrorResponse
// @Failure 409 {object} response.ErrorResponse
// @Router /register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.Register"
	log := h.logger(r, op)

	if err := form.Parse(r); err != nil {
		response.WriteError(w, r, err)
		return
	}
	req := RegisterRequest{
		Name:     r.FormValue("name"),
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	}
	if err := h.validate.Struct(req); err != nil {
		log.Info("validation failed", sl.Err(err))
		response.WriteValidation(w, r, err)
		return
	}
	avatar, closeFile, err := form.File(r)
	if err != nil {
		log.Error("failed to read avatar", sl.Err(err))
		response.WriteError(w, r, apperr.Validation("invalid file"))
		return
	}
	defer closeFile()

	u, token, err := h.service.Register(r.Context(), req.Name, req.Email, req.Password, avatar)
	if err != nil {
		log.Error("registration failed", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}

	log.Info("user registered", slog.String("user_id", u.ID))
	h.sendToken(w, r, http.StatusCreated, "Registered Successfully", u, token)
}

// LoginRequest учётные данные для входа.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login godoc
// @Summary Вход пользователя
// @Tags User
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Учётные данные"
// @Success 200 {object} map[string]any
// @Failure 401 {object} response.ErrorResponse
// @Router /login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.Login"
	log := h.logger(r, op)

	var req LoginRequest
	if !h.decode(w, r, log, &req) {
		return
	}

	u, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		log.Info("login failed", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}

	log.Info("login success", slog.String("user_id", u.ID))
	h.sendToken(w, r, http.StatusOK, "Welcome Back, "+u.Name, u, token)
}

// Logout сбрасывает cookie сессии.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.cookies.Clear(w)
	render.JSON(w, r, response.OK("Logged Out Successfully"))
}

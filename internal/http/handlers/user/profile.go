package user

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/course-seller/internal/apperr"
	"github.com/magabrotheeeer/course-seller/internal/http/form"
	"github.com/magabrotheeeer/course-seller/internal/http/response"
	"github.com/magabrotheeeer/course-seller/internal/lib/sl"
)

// Me возвращает профиль текущего пользователя.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.Me"
	log := h.logger(r, op)

	cur, ok := currentUser(w, r)
	if !ok {
		return
	}
	u, err := h.service.Me(r.Context(), cur.ID)
	if err != nil {
		log.Error("failed to load profile", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData("", map[string]any{"user": u}))
}

// DeleteMe удаляет учётную запись текущего пользователя и сбрасывает cookie.
func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.DeleteMe"
	log := h.logger(r, op)

	cur, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteUser(r.Context(), cur.ID); err != nil {
		log.Error("failed to delete profile", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}

	log.Info("user deleted own profile", slog.String("user_id", cur.ID))
	h.cookies.Clear(w)
	render.JSON(w, r, response.OK("User Deleted Successfully"))
}

// ChangePasswordRequest тело смены пароля.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

// ChangePassword меняет пароль после проверки старого.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.ChangePassword"
	log := h.logger(r, op)

	cur, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if !h.decode(w, r, log, &req) {
		return
	}
	if err := h.service.ChangePassword(r.Context(), cur.ID, req.OldPassword, req.NewPassword); err != nil {
		log.Info("failed to change password", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}
	render.JSON(w, r, response.OK("Password Changed Successfully"))
}

// UpdateProfileRequest новые имя и email. Пустые поля не меняются.
type UpdateProfileRequest struct {
	Name  string `json:"name" validate:"omitempty,max=50"`
	Email string `json:"email" validate:"omitempty,email"`
}

// UpdateProfile меняет имя и email.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.UpdateProfile"
	log := h.logger(r, op)

	cur, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if !h.decode(w, r, log, &req) {
		return
	}
	if err := h.service.UpdateProfile(r.Context(), cur.ID, req.Name, req.Email); err != nil {
		log.Info("failed to update profile", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}
	render.JSON(w, r, response.OK("Profile Updated"))
}

// UpdateProfilePicture загружает новый аватар.
func (h *Handler) UpdateProfilePicture(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.UpdateProfilePicture"
	log := h.logger(r, op)

	cur, ok := currentUser(w, r)
	if !ok {
		return
	}
	if err := form.Parse(r); err != nil {
		response.WriteError(w, r, err)
		return
	}
	avatar, closeFile, err := form.File(r)
	if err != nil {
		log.Error("failed to read avatar", sl.Err(err))
		response.WriteError(w, r, apperr.Validation("invalid file"))
		return
	}
	defer closeFile()

	if err := h.service.UpdateAvatar(r.Context(), cur.ID, avatar); err != nil {
		log.Error("failed to update avatar", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}
	render.JSON(w, r, response.OK("Profile Picture Updated"))
}

// ForgetPasswordRequest email для отправки ссылки сброса.
type ForgetPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ForgetPassword отправляет ссылку для сброса пароля.
func (h *Handler) ForgetPassword(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.ForgetPassword"
	log := h.logger(r, op)

	var req ForgetPasswordRequest
	if !h.decode(w, r, log, &req) {
		return
	}
	if err := h.service.ForgetPassword(r.Context(), req.Email); err != nil {
		log.Info("failed to issue reset token", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}
	render.JSON(w, r, response.OK("Reset Token has been sent to "+req.Email))
}

// ResetPasswordRequest новый пароль.
type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=6"`
}

// ResetPassword задаёт пароль по токену из ссылки.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.user.ResetPassword"
	log := h.logger(r, op)

	var req ResetPasswordRequest
	if !h.decode(w, r, log, &req) {
		return
	}
	if err := h.service.ResetPassword(r.Context(), chi.URLParam(r, "token"), req.Password); err != nil {
		log.Info("failed to reset password", sl.Err(err))
		response.WriteError(w, r, err)
		return
	}
	render.JSON(w, r, response.OK("Password Changed Successfully"))
}

package user

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/course-seller/internal/apperr"
	"github.com/magabrotheeeer/course-seller/internal/http/middlewarectx"
	"github.com/magabrotheeeer/course-seller/internal/media"
	"github.com/magabrotheeeer/course-seller/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Register(ctx context.Context, name, email, password string, avatar *media.File) (*models.User, string, error) {
	args := m.Called(ctx, name, email, password, avatar)
	u, _ := args.Get(0).(*models.User)
	return u, args.String(1), args.Error(2)
}

func (m *MockService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	args := m.Called(ctx, email, password)
	u, _ := args.Get(0).(*models.User)
	return u, args.String(1), args.Error(2)
}

func (m *MockService) Me(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *MockService) ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error {
	return m.Called(ctx, id, oldPassword, newPassword).Error(0)
}

func (m *MockService) UpdateProfile(ctx context.Context, id, name, email string) error {
	return m.Called(ctx, id, name, email).Error(0)
}

func (m *MockService) UpdateAvatar(ctx context.Context, id string, avatar *media.File) error {
	return m.Called(ctx, id, avatar).Error(0)
}

func (m *MockService) DeleteUser(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockService) ForgetPassword(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockService) ResetPassword(ctx context.Context, token, password string) error {
	return m.Called(ctx, token, password).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newHandler() (*Handler, *MockService) {
	svc := new(MockService)
	return New(newNoopLogger(), svc, middlewarectx.SessionCookies{Secure: true, TTL: time.Hour}), svc
}

func registerRequest(t *testing.T, password string, withFile bool) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "Ann"))
	require.NoError(t, mw.WriteField("email", "ann@example.com"))
	require.NoError(t, mw.WriteField("password", password))
	if withFile {
		fw, err := mw.CreateFormFile("file", "avatar.png")
		require.NoError(t, err)
		_, _ = fw.Write([]byte("png"))
	}
	require.NoError(t, mw.Close())
	r := httptest.NewRequest(http.MethodPost, "/register", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())
	return r
}

func withUser(r *http.Request, u *models.User) *http.Request {
	return r.WithContext(middlewarectx.WithUser(r.Context(), u))
}

func TestRegister(t *testing.T) {
	h, svc := newHandler()
	svc.On("Register", mock.Anything, "Ann", "ann@example.com", "secret123",
		mock.MatchedBy(func(f *media.File) bool { return f != nil && f.Name == "avatar.png" })).
		Return(&models.User{ID: "u1", Name: "Ann", PasswordHash: "hash"}, "tok", nil)

	w := httptest.NewRecorder()
	h.Register(w, registerRequest(t, "secret123", true))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)
	assert.NotContains(t, w.Body.String(), "hash")
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "tok", cookies[0].Value)
	svc.AssertExpectations(t)
}

func TestRegister_Errors(t *testing.T) {
	tests := []struct {
		name       string
		password   string
		withFile   bool
		mockErr    error
		wantStatus int
	}{
		{"short password", "123", true, nil, http.StatusBadRequest},
		{"missing avatar", "secret123", false, apperr.Validation("All fields are mandatory"), http.StatusBadRequest},
		{"duplicate email", "secret123", true, apperr.Conflict("User Already Exist"), http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, svc := newHandler()
			if tt.mockErr != nil {
				svc.On("Register", mock.Anything, "Ann", "ann@example.com", tt.password, mock.Anything).
					Return(nil, "", tt.mockErr)
			}
			w := httptest.NewRecorder()
			h.Register(w, registerRequest(t, tt.password, tt.withFile))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), `"success":false`)
			assert.Empty(t, w.Result().Cookies())
			svc.AssertExpectations(t)
		})
	}
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setupMock  func(m *MockService)
		wantStatus int
		wantBody   string
		wantCookie bool
	}{
		{
			name: "success",
			body: `{"email":"ann@example.com","password":"secret123"}`,
			setupMock: func(m *MockService) {
				m.On("Login", mock.Anything, "ann@example.com", "secret123").
					Return(&models.User{ID: "u1", Name: "Ann"}, "tok", nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   "Welcome Back, Ann",
			wantCookie: true,
		},
		{
			name: "wrong password",
			body: `{"email":"ann@example.com","password":"bad"}`,
			setupMock: func(m *MockService) {
				m.On("Login", mock.Anything, "ann@example.com", "bad").
					Return(nil, "", apperr.Unauthenticated("Incorrect Email or Password"))
			},
			wantStatus: http.StatusUnauthorized,
			wantBody:   "Incorrect Email or Password",
		},
		{
			name:       "invalid json",
			body:       `not json`,
			setupMock:  func(m *MockService) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   "invalid request body",
		},
		{
			name:       "missing password",
			body:       `{"email":"ann@example.com"}`,
			setupMock:  func(m *MockService) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   "field Password is a required field",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, svc := newHandler()
			tt.setupMock(svc)

			w := httptest.NewRecorder()
			h.Login(w, httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(tt.body)))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			assert.Equal(t, tt.wantCookie, len(w.Result().Cookies()) == 1)
			svc.AssertExpectations(t)
		})
	}
}

func TestLogout(t *testing.T) {
	h, _ := newHandler()
	w := httptest.NewRecorder()
	h.Logout(w, httptest.NewRequest(http.MethodGet, "/logout", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
}

func TestMe(t *testing.T) {
	h, svc := newHandler()
	cur := &models.User{ID: "u1"}
	svc.On("Me", mock.Anything, "u1").Return(&models.User{ID: "u1", Name: "Ann", PasswordHash: "hash"}, nil)

	w := httptest.NewRecorder()
	h.Me(w, withUser(httptest.NewRequest(http.MethodGet, "/me", nil), cur))

	assert.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Success bool        `json:"success"`
		User    models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "Ann", body.User.Name)
	assert.NotContains(t, w.Body.String(), "hash")
}

func TestMe_Unauthenticated(t *testing.T) {
	h, _ := newHandler()
	w := httptest.NewRecorder()
	h.Me(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDeleteMe(t *testing.T) {
	h, svc := newHandler()
	svc.On("DeleteUser", mock.Anything, "u1").Return(nil)

	w := httptest.NewRecorder()
	h.DeleteMe(w, withUser(httptest.NewRequest(http.MethodDelete, "/me", nil), &models.User{ID: "u1"}))

	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, w.Result().Cookies(), 1)
	assert.Empty(t, w.Result().Cookies()[0].Value)
}

func TestChangePassword(t *testing.T) {
	h, svc := newHandler()
	svc.On("ChangePassword", mock.Anything, "u1", "wrong", "new-secret").
		Return(apperr.Validation("Incorrect Old password"))

	w := httptest.NewRecorder()
	body := `{"oldPassword":"wrong","newPassword":"new-secret"}`
	h.ChangePassword(w, withUser(httptest.NewRequest(http.MethodPut, "/changepassword", strings.NewReader(body)), &models.User{ID: "u1"}))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Incorrect Old password")
}

func TestUpdateProfile_Conflict(t *testing.T) {
	h, svc := newHandler()
	svc.On("UpdateProfile", mock.Anything, "u1", "", "b@example.com").
		Return(apperr.Conflict("Email already in use"))

	w := httptest.NewRecorder()
	h.UpdateProfile(w, withUser(httptest.NewRequest(http.MethodPut, "/updateprofile", strings.NewReader(`{"email":"b@example.com"}`)), &models.User{ID: "u1"}))

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestForgetPassword(t *testing.T) {
	h, svc := newHandler()
	svc.On("ForgetPassword", mock.Anything, "ann@example.com").Return(nil)
	svc.On("ForgetPassword", mock.Anything, "nobody@example.com").Return(apperr.NotFound("User not found"))

	w := httptest.NewRecorder()
	h.ForgetPassword(w, httptest.NewRequest(http.MethodPost, "/forgetpassword", strings.NewReader(`{"email":"ann@example.com"}`)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ann@example.com")

	w = httptest.NewRecorder()
	h.ForgetPassword(w, httptest.NewRequest(http.MethodPost, "/forgetpassword", strings.NewReader(`{"email":"nobody@example.com"}`)))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResetPassword(t *testing.T) {
	h, svc := newHandler()
	svc.On("ResetPassword", mock.Anything, "abc", "new-secret").Return(nil)
	svc.On("ResetPassword", mock.Anything, "expired", "new-secret").Return(apperr.Unauthenticated("Invalid Token or expired"))

	tests := []struct {
		token      string
		wantStatus int
	}{
		{"abc", http.StatusOK},
		{"expired", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPut, "/resetpassword/"+tt.token, strings.NewReader(`{"password":"new-secret"}`))
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("token", tt.token)
			r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))

			w := httptest.NewRecorder()
			h.ResetPassword(w, r)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

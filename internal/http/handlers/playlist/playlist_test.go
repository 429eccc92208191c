package playlist

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/course-seller/internal/apperr"
	"github.com/magabrotheeeer/course-seller/internal/http/middlewarectx"
	"github.com/magabrotheeeer/course-seller/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Add(ctx context.Context, userID, courseID string) error {
	return m.Called(ctx, userID, courseID).Error(0)
}

func (m *MockService) Remove(ctx context.Context, userID, courseID string) error {
	return m.Called(ctx, userID, courseID).Error(0)
}

func withUser(r *http.Request) *http.Request {
	return r.WithContext(middlewarectx.WithUser(r.Context(), &models.User{ID: "u1"}))
}

func TestAdd(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		mockErr    error
		callsSvc   bool
		wantStatus int
		wantBody   string
	}{
		{"added", `{"id":"c1"}`, nil, true, http.StatusOK, "Added to Playlist"},
		{"duplicate", `{"id":"c1"}`, apperr.Conflict("Item Already Exist"), true, http.StatusConflict, "Item Already Exist"},
		{"unknown course", `{"id":"c1"}`, apperr.NotFound("Invalid Course Id"), true, http.StatusNotFound, "Invalid Course Id"},
		{"missing id", `{}`, nil, false, http.StatusBadRequest, "field ID is a required field"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			if tt.callsSvc {
				svc.On("Add", mock.Anything, "u1", "c1").Return(tt.mockErr)
			}
			h := New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)

			w := httptest.NewRecorder()
			h.Add(w, withUser(httptest.NewRequest(http.MethodPost, "/addtoplaylist", strings.NewReader(tt.body))))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
			svc.AssertExpectations(t)
		})
	}
}

func TestRemove(t *testing.T) {
	svc := new(MockService)
	svc.On("Remove", mock.Anything, "u1", "c1").Return(nil)
	svc.On("Remove", mock.Anything, "u1", "gone").Return(apperr.NotFound("Invalid Course Id"))
	h := New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)

	w := httptest.NewRecorder()
	h.Remove(w, withUser(httptest.NewRequest(http.MethodDelete, "/removefromplaylist?id=c1", nil)))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	h.Remove(w, withUser(httptest.NewRequest(http.MethodDelete, "/removefromplaylist?id=gone", nil)))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	h.Remove(w, httptest.NewRequest(http.MethodDelete, "/removefromplaylist?id=c1", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

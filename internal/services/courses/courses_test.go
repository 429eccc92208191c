package courses

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/course-seller/internal/apperr"
	"github.com/magabrotheeeer/course-seller/internal/cache"
	"github.com/magabrotheeeer/course-seller/internal/config"
	"github.com/magabrotheeeer/course-seller/internal/media"
	"github.com/magabrotheeeer/course-seller/internal/models"
	"github.com/magabrotheeeer/course-seller/internal/storage/memory"
)

type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(ctx context.Context, folder string, body io.Reader, filename, contentType string) (models.Asset, error) {
	args := m.Called(ctx, folder, body, filename, contentType)
	return args.Get(0).(models.Asset), args.Error(1)
}

func (m *MockUploader) Delete(ctx context.Context, publicID string) error {
	return m.Called(ctx, publicID).Error(0)
}

type fixture struct {
	svc      *Service
	store    *memory.Store
	uploader *MockUploader
	redis    *miniredis.Miniredis
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	c, err := cache.InitServer(context.Background(), config.RedisConnection{Address: mr.Addr()})
	require.NoError(t, err)

	f := &fixture{store: memory.New(nil), uploader: new(MockUploader), redis: mr}
	f.svc = New(slog.New(slog.NewTextHandler(io.Discard, nil)), f.store, f.uploader, c)
	return f
}

func file(name string) *media.File {
	return &media.File{Name: name, ContentType: "application/octet-stream", Body: strings.NewReader("bytes")}
}

var validInput = CreateInput{
	Title:       "Go Basics",
	Description: "Learn Go from the ground up with practice",
	Category:    "Web Development",
	CreatedBy:   "Admin",
}

func (f *fixture) create(t *testing.T) *models.Course {
	t.Helper()
	f.uploader.On("Upload", mock.Anything, media.FolderPosters, mock.Anything, "poster.png", mock.Anything).
		Return(models.Asset{PublicID: "posters/1", URL: "http://cdn/posters/1"}, nil).Once()
	c, err := f.svc.Create(context.Background(), validInput, file("poster.png"))
	require.NoError(t, err)
	return c
}

func (f *fixture) addLecture(t *testing.T, courseID, video string) *models.Lecture {
	t.Helper()
	f.uploader.On("Upload", mock.Anything, media.FolderVideos, mock.Anything, video, mock.Anything).
		Return(models.Asset{PublicID: "videos/" + video, URL: "http://cdn/videos/" + video}, nil).Once()
	l, err := f.svc.AddLecture(context.Background(), courseID, "Intro", "What we are going to learn", file(video))
	require.NoError(t, err)
	return l
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		mod  func(in *CreateInput)
	}{
		{"short title", func(in *CreateInput) { in.Title = "Go" }},
		{"long title", func(in *CreateInput) { in.Title = strings.Repeat("a", 81) }},
		{"short description", func(in *CreateInput) { in.Description = "too short" }},
		{"missing category", func(in *CreateInput) { in.Category = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput
			tt.mod(&in)
			_, err := f.svc.Create(context.Background(), in, file("poster.png"))
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}

	_, err := f.svc.Create(context.Background(), validInput, nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)
	f.uploader.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateAndList(t *testing.T) {
	f := newFixture(t)
	c := f.create(t)
	assert.Equal(t, "http://cdn/posters/1", c.Poster.URL)

	list, err := f.svc.List(context.Background(), models.CourseFilter{Keyword: "basics"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, c.ID, list[0].ID)

	list, err = f.svc.List(context.Background(), models.CourseFilter{Category: "science"})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreate_UploadFails(t *testing.T) {
	f := newFixture(t)
	f.uploader.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(models.Asset{}, errors.New("s3 down"))

	_, err := f.svc.Create(context.Background(), validInput, file("poster.png"))
	assert.ErrorIs(t, err, apperr.ErrUpstream)
}

func TestLectures_CountsViewsAndCaches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.create(t)
	f.addLecture(t, c.ID, "intro.mp4")

	lectures, err := f.svc.Lectures(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, lectures, 1)
	assert.True(t, f.redis.Exists(cache.CourseKey(c.ID)))

	_, err = f.svc.Lectures(ctx, c.ID)
	require.NoError(t, err)

	stored, err := f.store.GetCourse(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.Views)
	assert.Equal(t, 1, stored.NumOfVideos)

	f.addLecture(t, c.ID, "second.mp4")
	assert.False(t, f.redis.Exists(cache.CourseKey(c.ID)))

	lectures, err = f.svc.Lectures(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, lectures, 2)
}

func TestLectures_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Lectures(context.Background(), "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAddLecture_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.AddLecture(ctx, "missing", "t", "d", file("v.mp4"))
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = f.svc.AddLecture(ctx, "missing", "", "d", file("v.mp4"))
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestDeleteLecture(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.create(t)
	l := f.addLecture(t, c.ID, "intro.mp4")

	assert.ErrorIs(t, f.svc.DeleteLecture(ctx, c.ID, "missing"), apperr.ErrNotFound)

	f.uploader.On("Delete", mock.Anything, "videos/intro.mp4").Return(nil).Once()
	require.NoError(t, f.svc.DeleteLecture(ctx, c.ID, l.ID))

	stored, err := f.store.GetCourse(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.NumOfVideos)
	f.uploader.AssertExpectations(t)
}

// failingDelete хранилище, в котором удаление курса всегда падает.
type failingDelete struct {
	*memory.Store
}

func (failingDelete) DeleteCourse(context.Context, string) error {
	return errors.New("connection reset")
}

func TestDeleteCourse_RepositoryErrorKeepsAssets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.create(t)
	f.addLecture(t, c.ID, "intro.mp4")

	svc := New(slog.New(slog.NewTextHandler(io.Discard, nil)), failingDelete{f.store}, f.uploader, cache.Noop{})
	err := svc.DeleteCourse(ctx, c.ID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, apperr.ErrNotFound)

	f.uploader.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	stored, err := f.store.GetCourse(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "posters/1", stored.Poster.PublicID)
}

func TestDeleteCourse_AssetFailuresDoNotBlock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.create(t)
	f.addLecture(t, c.ID, "intro.mp4")

	f.uploader.On("Delete", mock.Anything, "posters/1").Return(errors.New("gone")).Once()
	f.uploader.On("Delete", mock.Anything, "videos/intro.mp4").Return(errors.New("gone")).Once()

	require.NoError(t, f.svc.DeleteCourse(ctx, c.ID))
	_, err := f.store.GetCourse(ctx, c.ID)
	assert.Error(t, err)
	assert.ErrorIs(t, f.svc.DeleteCourse(ctx, c.ID), apperr.ErrNotFound)
}

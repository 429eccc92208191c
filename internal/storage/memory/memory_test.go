package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/course-seller/internal/events"
	"github.com/magabrotheeeer/course-seller/internal/models"
	"github.com/magabrotheeeer/course-seller/internal/storage"
)

type recorder struct {
	got []events.Event
}

func (r *recorder) Publish(_ context.Context, e events.Event) error {
	r.got = append(r.got, e)
	return nil
}

func newUser(t *testing.T, s *Store, email string) *models.User {
	t.Helper()
	u := &models.User{Name: "Tester", Email: email, PasswordHash: "hash"}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func TestStore_CreateUser(t *testing.T) {
	rec := &recorder{}
	s := New(rec)
	ctx := context.Background()

	u := newUser(t, s, "a@example.com")
	assert.NotEmpty(t, u.ID)
	assert.Equal(t, models.RoleUser, u.Role)

	err := s.CreateUser(ctx, &models.User{Name: "Other", Email: "A@example.com", PasswordHash: "x"})
	assert.ErrorIs(t, err, storage.ErrEmailTaken)

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, got.PasswordHash)
	assert.NotNil(t, got.Playlist)

	byEmail, err := s.GetUserByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "hash", byEmail.PasswordHash)

	require.Len(t, rec.got, 1)
	assert.Equal(t, events.UserCreated, rec.got[0].Kind)
}

func TestStore_GetUserNotFound(t *testing.T) {
	s := New(nil)
	_, err := s.GetUser(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestStore_ToggleRole(t *testing.T) {
	s := New(nil)
	u := newUser(t, s, "a@example.com")

	role, err := s.ToggleRole(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, role)

	role, err = s.ToggleRole(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, role)
}

func TestStore_ActivateSubscription(t *testing.T) {
	s := New(nil)
	ctx := context.Background()
	u := newUser(t, s, "a@example.com")

	require.NoError(t, s.SetSubscription(ctx, u.ID, models.Subscription{ID: "sub_1", Status: models.SubscriptionPending}))

	ok, err := s.ActivateSubscription(ctx, u.ID, "sub_other")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.ActivateSubscription(ctx, u.ID, "sub_1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.ActivateSubscription(ctx, u.ID, "sub_1")
	require.NoError(t, err)
	assert.False(t, ok)

	n, err := s.CountActiveSubscriptions(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, s.SetSubscription(ctx, u.ID, models.Subscription{ID: "sub_1", Status: models.SubscriptionCancelled}))
	ok, err = s.ActivateSubscription(ctx, u.ID, "sub_1")
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubscriptionCancelled, got.Subscription.Status)
}

func TestStore_Playlist(t *testing.T) {
	s := New(nil)
	ctx := context.Background()
	u := newUser(t, s, "a@example.com")

	item := models.PlaylistItem{CourseID: "c1", Poster: "p.png"}
	require.NoError(t, s.AddToPlaylist(ctx, u.ID, item))
	assert.ErrorIs(t, s.AddToPlaylist(ctx, u.ID, item), storage.ErrPlaylistItemExists)

	require.NoError(t, s.RemoveFromPlaylist(ctx, u.ID, "missing"))
	got, err := s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Len(t, got.Playlist, 1)

	require.NoError(t, s.RemoveFromPlaylist(ctx, u.ID, "c1"))
	got, err = s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Playlist)
}

func TestStore_ResetToken(t *testing.T) {
	s := New(nil)
	ctx := context.Background()
	u := newUser(t, s, "a@example.com")
	now := time.Now()

	require.NoError(t, s.SetResetToken(ctx, u.ID, "digest", now.Add(15*time.Minute)))

	found, err := s.GetUserByResetToken(ctx, "digest", now)
	require.NoError(t, err)
	assert.Equal(t, u.ID, found.ID)

	_, err = s.GetUserByResetToken(ctx, "digest", now.Add(16*time.Minute))
	assert.ErrorIs(t, err, storage.ErrUserNotFound)

	require.NoError(t, s.UpdatePassword(ctx, u.ID, "new"))
	_, err = s.GetUserByResetToken(ctx, "digest", now)
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}

func TestStore_Courses(t *testing.T) {
	s := New(nil)
	ctx := context.Background()

	c := &models.Course{Title: "Go Basics", Description: "long enough description", Category: "Web Development", CreatedBy: "me"}
	require.NoError(t, s.CreateCourse(ctx, c))
	require.NoError(t, s.CreateCourse(ctx, &models.Course{Title: "Python", Category: "Data Science"}))

	l := &models.Lecture{Title: "Intro"}
	require.NoError(t, s.AddLecture(ctx, c.ID, l))
	assert.NotEmpty(t, l.ID)

	got, err := s.GetCourse(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.NumOfVideos)
	require.Len(t, got.Lectures, 1)

	list, err := s.ListCourses(ctx, models.CourseFilter{Keyword: "go"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].Lectures)

	list, err = s.ListCourses(ctx, models.CourseFilter{Category: "data"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Python", list[0].Title)

	require.NoError(t, s.IncrementViews(ctx, c.ID))
	views, err := s.SumCourseViews(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, views)

	assert.ErrorIs(t, s.DeleteLecture(ctx, c.ID, "missing"), storage.ErrLectureNotFound)
	require.NoError(t, s.DeleteLecture(ctx, c.ID, l.ID))
	got, err = s.GetCourse(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.NumOfVideos)

	require.NoError(t, s.DeleteCourse(ctx, c.ID))
	_, err = s.GetCourse(ctx, c.ID)
	assert.ErrorIs(t, err, storage.ErrCourseNotFound)
}

func TestStore_SavePaymentIdempotent(t *testing.T) {
	s := New(nil)
	ctx := context.Background()
	p := &models.Payment{UserID: "u", RazorpayPaymentID: "pay_1", RazorpaySubscriptionID: "sub_1", RazorpaySignature: "sig"}

	created, err := s.SavePayment(ctx, p)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = s.SavePayment(ctx, &models.Payment{RazorpayPaymentID: "pay_1", RazorpaySubscriptionID: "sub_1"})
	require.NoError(t, err)
	assert.False(t, created)

	got, err := s.GetPaymentBySubscription(ctx, "sub_1")
	require.NoError(t, err)
	assert.Equal(t, "sig", got.RazorpaySignature)

	_, err = s.GetPaymentBySubscription(ctx, "sub_2")
	assert.ErrorIs(t, err, storage.ErrPaymentNotFound)
}

func TestStore_Stats(t *testing.T) {
	s := New(nil)
	ctx := context.Background()

	_, err := s.LatestStats(ctx)
	assert.ErrorIs(t, err, storage.ErrStatsNotFound)

	for i := 1; i <= 3; i++ {
		require.NoError(t, s.CreateStats(ctx, &models.Stats{Users: i}))
	}
	latest, err := s.LatestStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, latest.Users)

	latest.Views = 42
	require.NoError(t, s.UpdateStats(ctx, latest))

	list, err := s.ListStats(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 2, list[0].Users)
	assert.Equal(t, 42, list[1].Views)
}

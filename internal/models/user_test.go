package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUser_JSONNeverExposesSecrets(t *testing.T) {
	expire := time.Now().Add(15 * time.Minute)
	u := User{
		ID:                  "u1",
		Name:                "Alice",
		Email:               "a@x.com",
		PasswordHash:        "$2a$10$secret",
		Role:                RoleUser,
		ResetPasswordToken:  "deadbeef",
		ResetPasswordExpire: &expire,
	}

	raw, err := json.Marshal(u)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.NotContains(t, got, "PasswordHash")
	assert.NotContains(t, got, "password")
	assert.NotContains(t, string(raw), "$2a$10$secret")
	assert.NotContains(t, string(raw), "deadbeef")
	assert.Equal(t, "a@x.com", got["email"])
}

func TestUser_HasInPlaylist(t *testing.T) {
	u := User{Playlist: []PlaylistItem{{CourseID: "c1"}, {CourseID: "c2"}}}
	assert.True(t, u.HasInPlaylist("c2"))
	assert.False(t, u.HasInPlaylist("c3"))
}

func TestSubscription_IsActive(t *testing.T) {
	assert.True(t, Subscription{Status: SubscriptionActive}.IsActive())
	assert.False(t, Subscription{Status: SubscriptionPending}.IsActive())
	assert.False(t, Subscription{}.IsActive())
}

package models

import "time"

// Stats снимок агрегированной статистики. Актуальным считается последний.
type Stats struct {
	ID            int64     `json:"id"`
	Users         int       `json:"users"`
	Subscriptions int       `json:"subscriptions"`
	Views         int       `json:"views"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Package events описывает события изменения хранилища и способы их доставки
// агрегатору статистики: in-process шина и публикация в RabbitMQ.
package events

import (
	"context"
	"time"
)

// Kind тип события.
type Kind string

const (
	UserCreated   Kind = "user.created"
	UserUpdated   Kind = "user.updated"
	UserDeleted   Kind = "user.deleted"
	CourseCreated Kind = "course.created"
	CourseUpdated Kind = "course.updated"
	CourseViewed  Kind = "course.viewed"
	CourseDeleted Kind = "course.deleted"
)

// Event сообщает, что сущность изменилась. Состояние не передаётся,
// потребитель перечитывает хранилище.
type Event struct {
	Kind       Kind      `json:"kind"`
	EntityID   string    `json:"entity_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// New создаёт событие с текущим временем.
func New(kind Kind, entityID string) Event {
	return Event{Kind: kind, EntityID: entityID, OccurredAt: time.Now().UTC()}
}

// Publisher публикует события после успешной мутации.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop отбрасывает события.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

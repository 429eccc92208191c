package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestBus_PublishAndDrain(t *testing.T) {
	bus := NewBus(4, newNoopLogger())

	require.NoError(t, bus.Publish(context.Background(), New(UserCreated, "u1")))
	require.NoError(t, bus.Publish(context.Background(), New(UserUpdated, "u1")))

	first := <-bus.Events()
	second := <-bus.Events()
	assert.Equal(t, UserCreated, first.Kind)
	assert.Equal(t, "u1", first.EntityID)
	assert.False(t, first.OccurredAt.IsZero())
	assert.Equal(t, UserUpdated, second.Kind)
}

func TestBus_DropsWhenFull(t *testing.T) {
	bus := NewBus(1, newNoopLogger())

	require.NoError(t, bus.Publish(context.Background(), New(UserCreated, "u1")))
	require.NoError(t, bus.Publish(context.Background(), New(UserDeleted, "u2")))

	assert.Len(t, bus.Events(), 1)
	e := <-bus.Events()
	assert.Equal(t, UserCreated, e.Kind)
}

func TestBus_Close(t *testing.T) {
	bus := NewBus(2, newNoopLogger())
	bus.Close()
	bus.Close()

	assert.NoError(t, bus.Publish(context.Background(), New(UserCreated, "u1")))
	_, ok := <-bus.Events()
	assert.False(t, ok)
}

type ChannelMock struct {
	mock.Mock
}

func (m *ChannelMock) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return m.Called(exchange, key, mandatory, immediate, msg).Error(0)
}

func TestAMQPPublisher(t *testing.T) {
	ch := new(ChannelMock)
	var body []byte
	ch.On("Publish", "course-seller", "store.changed", false, false, mock.Anything).
		Run(func(args mock.Arguments) { body = args.Get(4).(amqp.Publishing).Body }).
		Return(nil).Once()

	p := NewAMQPPublisher(ch, "course-seller", "store.changed")
	require.NoError(t, p.Publish(context.Background(), New(CourseViewed, "c1")))

	var got Event
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, CourseViewed, got.Kind)
	assert.Equal(t, "c1", got.EntityID)
	ch.AssertExpectations(t)
}

func TestAMQPPublisher_Error(t *testing.T) {
	ch := new(ChannelMock)
	ch.On("Publish", mock.Anything, mock.Anything, false, false, mock.Anything).Return(errors.New("closed")).Once()

	p := NewAMQPPublisher(ch, "ex", "key")
	assert.ErrorContains(t, p.Publish(context.Background(), New(UserCreated, "u1")), "closed")
}

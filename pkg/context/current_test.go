package context

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrent_RoundTripThroughContext(t *testing.T) {
	current := NewCurrent()
	current.Set(RequestIDKey, "req-1")
	current.Set(UserIDKey, "a@example.com")

	ctx := WithCurrent(context.Background(), current)

	got, ok := FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "req-1", got.RequestID())
	assert.Equal(t, "a@example.com", got.UserID())
}

func TestGetCurrent_WithoutBag(t *testing.T) {
	current := GetCurrent(context.Background())

	assert.NotNil(t, current)
	assert.Empty(t, current.RequestID())
	assert.Empty(t, current.UserID())
}

func TestCurrent_ConcurrentAccess(t *testing.T) {
	current := NewCurrent()

	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Go(func() {
			current.Set(PathKey, "/tasks")
			_ = current.RequestID()
		})
	}

	wg.Wait()

	path, ok := current.GetString(PathKey)
	assert.True(t, ok)
	assert.Equal(t, "/tasks", path)
}

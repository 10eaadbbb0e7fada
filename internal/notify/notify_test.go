package notify

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	t.Run("captures notifications in order", func(t *testing.T) {
		rec := NewRecorder()

		require.NoError(t, rec.Notify("first", "hello"))
		require.NoError(t, rec.Notify("second", "world"))

		sent := rec.Sent()
		require.Len(t, sent, 2)
		assert.Equal(t, Recorded{Title: "first", Body: "hello"}, sent[0])
		assert.Equal(t, Recorded{Title: "second", Body: "world"}, sent[1])
	})

	t.Run("safe under concurrent use", func(t *testing.T) {
		rec := NewRecorder()

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = rec.Notify("t", "b")
			}()
		}
		wg.Wait()

		assert.Len(t, rec.Sent(), 20)
	})

	t.Run("Sent returns a copy", func(t *testing.T) {
		rec := NewRecorder()
		require.NoError(t, rec.Notify("a", "b"))

		sent := rec.Sent()
		sent[0].Title = "mutated"

		assert.Equal(t, "a", rec.Sent()[0].Title)
	})
}

func TestNoop(t *testing.T) {
	assert.NoError(t, Noop{}.Notify("ignored", "ignored"))
}

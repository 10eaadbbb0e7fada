package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeErrorChans(t *testing.T) {
	t.Run("forwards errors from all inputs", func(t *testing.T) {
		a := make(chan error, 1)
		b := make(chan error, 1)
		a <- errors.New("first")
		b <- errors.New("second")
		close(a)
		close(b)

		merged := MergeErrorChans(a, b)

		var got []string
		for err := range merged {
			got = append(got, err.Error())
		}
		assert.ElementsMatch(t, []string{"first", "second"}, got)
	})

	t.Run("closes once all inputs close", func(t *testing.T) {
		a := make(chan error)
		b := make(chan error)
		merged := MergeErrorChans(a, b)

		close(a)
		close(b)

		select {
		case _, open := <-merged:
			assert.False(t, open)
		case <-time.After(time.Second):
			t.Fatal("merged channel did not close")
		}
	})

	t.Run("no inputs yields a closed channel", func(t *testing.T) {
		merged := MergeErrorChans()
		select {
		case _, open := <-merged:
			assert.False(t, open)
		case <-time.After(time.Second):
			t.Fatal("merged channel did not close")
		}
	})
}

func TestToPtr(t *testing.T) {
	s := ToPtr("hello")
	require.NotNil(t, s)
	assert.Equal(t, "hello", *s)

	n := ToPtr(42)
	require.NotNil(t, n)
	assert.Equal(t, 42, *n)
}

package rpc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFuture_GetAfterComplete(t *testing.T) {
	f := newFuture[string]()
	f.complete("hello", nil)

	v, err := f.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "hello", v)
}

func TestFuture_GetBlocksUntilComplete(t *testing.T) {
	f := newFuture[int]()
	go func() {
		time.Sleep(10 * time.Millisecond)
		f.complete(42, nil)
	}()

	v, err := f.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, 42, v)
}

func TestFuture_GetTimesOutAgainstContext(t *testing.T) {
	f := newFuture[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()

	_, err := f.Get(ctx)
	require.Error(t, err)
}

func TestFuture_ThenFiresImmediatelyIfAlreadyDone(t *testing.T) {
	f := newFuture[string]()
	f.complete("x", nil)

	called := make(chan struct{})
	f.Then(func(v string, err error) {
		require.Equal(t, "x", v)
		close(called)
	})
	select {
	case <-called:
	case <-time.After(time.Second):
		t.Fatal("Then callback never fired")
	}
}

func TestFuture_ThenFiresOnLateCompletion(t *testing.T) {
	f := newFuture[string]()
	called := make(chan string, 1)
	f.Then(func(v string, err error) { called <- v })

	f.complete("late", nil)

	select {
	case v := <-called:
		require.Equal(t, "late", v)
	case <-time.After(time.Second):
		t.Fatal("Then callback never fired")
	}
}

func TestFuture_CompleteIsIdempotent(t *testing.T) {
	f := newFuture[int]()
	f.complete(1, nil)
	f.complete(2, errors.New("ignored"))

	v, err := f.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, v)
}

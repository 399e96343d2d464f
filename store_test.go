package swr_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/bool64/ctxd"
	"github.com/bool64/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vearutop/swr"
)

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)

	for time.Now().Before(deadline) {
		if cond() {
			return
		}

		time.Sleep(time.Millisecond)
	}

	t.Fatal("condition not reached")
}

func TestStore_Read_empty(t *testing.T) {
	ctx := context.Background()
	st := stats.TrackerMock{}
	s := swr.NewStore(swr.StoreConfig{
		Name:   "test",
		Logger: ctxd.NoOpLogger{},
		Stats:  &st,
	})

	e := s.Read(ctx, "key")
	assert.Nil(t, e.Data)
	assert.Nil(t, e.Err)
	assert.True(t, e.UpdatedAt.IsZero())

	assert.Equal(t, 1, st.Int(swr.MetricMiss))
	assert.Equal(t, 0, st.Int(swr.MetricHit))
}

func TestStore_Write_staleIfError(t *testing.T) {
	ctx := context.Background()
	st := stats.TrackerMock{}
	s := swr.NewStore(swr.StoreConfig{Name: "test", Stats: &st})

	s.Write(ctx, "key", 123)

	e := s.Read(ctx, "key")
	assert.Equal(t, 123, e.Data)
	assert.NoError(t, e.Err)
	assert.False(t, e.UpdatedAt.IsZero())

	// Failed revalidation preserves last good data.
	failed := errors.New("upstream down")
	s.WriteErr(ctx, "key", failed)

	e = s.Read(ctx, "key")
	assert.Equal(t, 123, e.Data)
	assert.Equal(t, failed, e.Err)

	// Successful revalidation clears the error slot.
	s.Write(ctx, "key", 456)

	e = s.Read(ctx, "key")
	assert.Equal(t, 456, e.Data)
	assert.NoError(t, e.Err)

	assert.Equal(t, 3, st.Int(swr.MetricWrite))
	assert.Equal(t, 3, st.Int(swr.MetricHit))
}

func TestStore_WriteErr_noPriorData(t *testing.T) {
	ctx := context.Background()
	s := swr.NewStore()

	failed := errors.New("nope")
	s.WriteErr(ctx, "key", failed)

	e := s.Read(ctx, "key")
	assert.Nil(t, e.Data)
	assert.Equal(t, failed, e.Err)
}

func TestStore_notificationOrder(t *testing.T) {
	ctx := context.Background()
	eng := swr.NewEngine()
	s := eng.Store()

	var observed []interface{}

	sub := eng.Subscribe("key", func(ctx context.Context, key string) (interface{}, error) {
		return 0, nil
	})
	defer sub.Close()

	waitFor(t, func() bool { return sub.Data.Get() == 0 })

	l := swr.NewListener(func() {
		observed = append(observed, sub.Data.Get())
	})
	sub.Data.Watch(l)
	defer sub.Data.Unwatch(l)

	// Writes fan out synchronously, in write order.
	s.Write(ctx, "key", 1)
	s.Write(ctx, "key", 2)
	s.Write(ctx, "key", 3)

	assert.Equal(t, []interface{}{1, 2, 3}, observed)
}

func TestStore_concurrentWritesConverge(t *testing.T) {
	ctx := context.Background()
	eng := swr.NewEngine()
	s := eng.Store()

	sub := eng.Subscribe("key", func(ctx context.Context, key string) (interface{}, error) {
		return -1, nil
	})
	defer sub.Close()

	waitFor(t, func() bool { return sub.Data.Get() == -1 })

	for round := 0; round < 500; round++ {
		var wg sync.WaitGroup

		for i := 0; i < 2; i++ {
			wg.Add(1)

			v := round*2 + i

			go func() {
				defer wg.Done()

				s.Write(ctx, "key", v)
			}()
		}

		wg.Wait()

		// Once every writer returned, the subscriber holds the stored
		// entry, whichever writer won.
		require.Equal(t, s.Read(ctx, "key").Data, sub.Data.Get(), "round %d", round)
	}
}

func TestStore_concurrentWriteAndErrorConverge(t *testing.T) {
	ctx := context.Background()
	eng := swr.NewEngine()
	s := eng.Store()

	sub := eng.Subscribe("key", func(ctx context.Context, key string) (interface{}, error) {
		return -1, nil
	})
	defer sub.Close()

	waitFor(t, func() bool { return sub.Data.Get() == -1 })

	failed := errors.New("failed")

	for round := 0; round < 500; round++ {
		var wg sync.WaitGroup

		wg.Add(2)

		v := round

		go func() {
			defer wg.Done()

			s.Write(ctx, "key", v)
		}()

		go func() {
			defer wg.Done()

			s.WriteErr(ctx, "key", failed)
		}()

		wg.Wait()

		e := s.Read(ctx, "key")
		require.Equal(t, e.Data, sub.Data.Get(), "round %d", round)
		require.Equal(t, e.Err, sub.Err.Get(), "round %d", round)
	}
}

func TestStore_RemoveAll(t *testing.T) {
	ctx := context.Background()
	s := swr.NewStore()

	s.Write(ctx, "a", 1)
	s.Write(ctx, "b", 2)
	require.Equal(t, 2, s.Len())

	n, err := s.Walk(func(key string, e swr.Entry) error {
		assert.NotNil(t, e.Data)

		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, n)

	s.RemoveAll(ctx)
	assert.Equal(t, 0, s.Len())

	e := s.Read(ctx, "a")
	assert.Nil(t, e.Data)
}

func TestStore_Walk_stop(t *testing.T) {
	ctx := context.Background()
	s := swr.NewStore()

	s.Write(ctx, "a", 1)
	s.Write(ctx, "b", 2)
	s.Write(ctx, "c", 3)

	n, err := s.Walk(func(key string, e swr.Entry) error {
		return errors.New("stop")
	})
	assert.EqualError(t, err, "stop")
	assert.Equal(t, 0, n)
}

package swr_test

import (
	"context"
	"strconv"
	"testing"
	"time"

	pca "github.com/patrickmn/go-cache"
	"github.com/vearutop/swr"
)

// Baseline comparison of store backends against a popular cache library.

func Benchmark_storeRead(b *testing.B) {
	for name, mk := range map[string]func() swr.Backend{
		"mutex":   func() swr.Backend { return swr.NewMutexMap() },
		"sync":    func() swr.Backend { return swr.NewSyncMap() },
		"sharded": func() swr.Backend { return swr.NewShardedMap() },
	} {
		mk := mk

		b.Run(name, func(b *testing.B) {
			ctx := context.Background()
			s := swr.NewStore(swr.StoreConfig{Backend: mk()})

			for i := 0; i < 1000; i++ {
				s.Write(ctx, strconv.Itoa(i), i)
			}

			b.ReportAllocs()
			b.ResetTimer()

			b.RunParallel(func(pb *testing.PB) {
				i := 0

				for pb.Next() {
					s.Read(ctx, strconv.Itoa(i%1000))
					i++
				}
			})
		})
	}

	b.Run("patrickmn", func(b *testing.B) {
		c := pca.New(time.Minute, time.Minute)

		for i := 0; i < 1000; i++ {
			c.Set(strconv.Itoa(i), i, time.Minute)
		}

		b.ReportAllocs()
		b.ResetTimer()

		b.RunParallel(func(pb *testing.PB) {
			i := 0

			for pb.Next() {
				c.Get(strconv.Itoa(i % 1000))
				i++
			}
		})
	})
}

func Benchmark_beginFetchDeduped(b *testing.B) {
	ctx := context.Background()
	s := swr.NewStore()

	fn := func(ctx context.Context) (interface{}, error) {
		return 1, nil
	}

	f := s.BeginFetch(ctx, "key", fn, time.Hour)

	if _, err := f.Wait(ctx); err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		f = s.BeginFetch(ctx, "key", fn, time.Hour)

		if _, err := f.Wait(ctx); err != nil {
			b.Fatal(err)
		}
	}
}

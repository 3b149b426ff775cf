package rstream

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/sourcegraph/conc"
	"golang.org/x/sync/errgroup"
)

func BenchmarkStream(b *testing.B) {
	sizes := []int{100, 10000, 100000}
	for _, size := range sizes {
		items := make([]int, size)
		for i := 0; i < size; i++ {
			items[i] = i
		}

		b.Run(fmt.Sprintf("Buffered/Size=%d", size), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				r, _ := FromSlice(items).GetReader()
				_, _ = r.Count(context.Background())
			}
		})

		b.Run(fmt.Sprintf("Pull/Size=%d", size), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				n := 0
				s := FromFunc(func(context.Context) (int, error) {
					if n == size {
						return 0, io.EOF
					}
					n++
					return n, nil
				})
				r, _ := s.GetReader()
				_, _ = r.Count(context.Background())
				s.Wait()
			}
		})

		b.Run(fmt.Sprintf("HandOff/Size=%d", size), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				var ctrl Controller[int]
				s := New(Source[int]{
					Start: func(_ context.Context, c Controller[int]) error {
						ctrl = c
						return nil
					},
				})
				r, _ := s.GetReader()

				var wg conc.WaitGroup
				wg.Go(func() {
					for _, v := range items {
						_ = ctrl.Enqueue(v)
					}
					_ = ctrl.Close()
				})
				_, _ = r.Count(context.Background())
				wg.Wait()
			}
		})
	}
}

// BenchmarkChannelBaseline measures the same hand-off over a plain
// channel for comparison.
func BenchmarkChannelBaseline(b *testing.B) {
	sizes := []int{100, 10000, 100000}
	for _, size := range sizes {
		b.Run(fmt.Sprintf("Size=%d", size), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				ch := make(chan int)
				var g errgroup.Group
				g.Go(func() error {
					defer close(ch)
					for v := 0; v < size; v++ {
						ch <- v
					}
					return nil
				})
				count := 0
				for range ch {
					count++
				}
				_ = g.Wait()
			}
		})
	}
}

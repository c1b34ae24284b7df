// Package workerpool runs independent jobs on a bounded tunny pool.
package workerpool

import (
	"sync"

	"github.com/Jeffail/tunny"
)

// Map applies fn to every item and returns the results in item order.  With
// workers <= 1, or fewer than two items, fn runs on the calling goroutine.
func Map[T, R any](workers int, items []T, fn func(T) R) []R {
	out := make([]R, len(items))
	if workers <= 1 || len(items) < 2 {
		for i, it := range items {
			out[i] = fn(it)
		}
		return out
	}
	if workers > len(items) {
		workers = len(items)
	}

	pool := tunny.NewFunc(workers, func(payload interface{}) interface{} {
		i := payload.(int)
		out[i] = fn(items[i])
		return nil
	})
	defer pool.Close()

	var wg sync.WaitGroup
	wg.Add(len(items))
	for i := range items {
		go func(i int) {
			defer wg.Done()
			pool.Process(i)
		}(i)
	}
	wg.Wait()
	return out
}

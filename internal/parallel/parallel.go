// Package parallel provides chunked fan-out helpers for read-only work such as
// scoring a held-out set against frozen weights.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 64,
	}
}

// Sequential returns a Config that runs everything on the calling goroutine.
func Sequential() Config {
	return Config{}
}

// For executes f(i) for i in [0, n) with optional parallelism.
// Falls back to sequential execution if parallelism is disabled or n is too small.
// f must be safe to call concurrently for distinct i.
func For(n int, f func(i int), cfg Config) {
	if !cfg.Enabled || cfg.NumWorkers < 2 || n < cfg.MinChunkSize {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	var wg sync.WaitGroup
	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize, 1)

	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// Map calls f for every index in [0, n) and collects the results in order.
func Map[T any](n int, f func(i int) T, cfg Config) []T {
	out := make([]T, n)
	For(n, func(i int) {
		out[i] = f(i)
	}, cfg)
	return out
}

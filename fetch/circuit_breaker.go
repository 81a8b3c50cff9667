package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/cenk/backoff"
	circuit "github.com/rubyist/circuitbreaker"
)

// CircuitBreakerFetcher wraps a Fetcher with per-host circuit breakers.
// A missing artifact is an answer, not a failure, so ErrNotFound never counts
// towards tripping a breaker.
type CircuitBreakerFetcher struct {
	fetcher   FetcherInterface
	threshold int64
	breakers  map[string]*circuit.Breaker
	mu        sync.RWMutex
}

// NewCircuitBreakerFetcher creates a circuit breaker wrapper for a fetcher.
func NewCircuitBreakerFetcher(f FetcherInterface) *CircuitBreakerFetcher {
	return &CircuitBreakerFetcher{
		fetcher:   f,
		threshold: 5,
		breakers:  make(map[string]*circuit.Breaker),
	}
}

// getBreaker returns or creates a circuit breaker for the given host.
func (cbf *CircuitBreakerFetcher) getBreaker(host string) *circuit.Breaker {
	cbf.mu.RLock()
	breaker, exists := cbf.breakers[host]
	cbf.mu.RUnlock()

	if exists {
		return breaker
	}

	cbf.mu.Lock()
	defer cbf.mu.Unlock()

	if breaker, exists := cbf.breakers[host]; exists {
		return breaker
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 30 * time.Second
	expBackoff.MaxInterval = 5 * time.Minute
	expBackoff.Multiplier = 2.0
	expBackoff.Reset()

	breaker = circuit.NewBreakerWithOptions(&circuit.Options{
		BackOff:    expBackoff,
		ShouldTrip: circuit.ThresholdTripFunc(cbf.threshold),
	})

	cbf.breakers[host] = breaker
	return breaker
}

// call runs fn under the breaker for rawURL. A not-found result passes through
// the breaker as a success and is reported to the caller afterwards.
func (cbf *CircuitBreakerFetcher) call(rawURL string, fn func() error) error {
	host := extractHost(rawURL)
	breaker := cbf.getBreaker(host)

	if !breaker.Ready() {
		return fmt.Errorf("circuit breaker open for %s: %w", host, ErrUpstreamDown)
	}

	var notFound error
	err := breaker.Call(func() error {
		err := fn()
		if errors.Is(err, ErrNotFound) {
			notFound = err
			return nil
		}
		return err
	}, 0)
	if err != nil {
		return err
	}
	return notFound
}

// Fetch wraps the underlying fetcher's Fetch with circuit breaker logic.
func (cbf *CircuitBreakerFetcher) Fetch(ctx context.Context, fetchURL string) (*Artifact, error) {
	var artifact *Artifact
	err := cbf.call(fetchURL, func() error {
		var fetchErr error
		artifact, fetchErr = cbf.fetcher.Fetch(ctx, fetchURL)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}
	return artifact, nil
}

// Head wraps the underlying fetcher's Head with circuit breaker logic.
func (cbf *CircuitBreakerFetcher) Head(ctx context.Context, headURL string) (size int64, contentType string, err error) {
	err = cbf.call(headURL, func() error {
		var headErr error
		size, contentType, headErr = cbf.fetcher.Head(ctx, headURL)
		return headErr
	})
	return size, contentType, err
}

// Put wraps the underlying fetcher's Put with circuit breaker logic.
func (cbf *CircuitBreakerFetcher) Put(ctx context.Context, putURL string, data []byte, contentType string) error {
	return cbf.call(putURL, func() error {
		return cbf.fetcher.Put(ctx, putURL, data, contentType)
	})
}

// extractHost returns the breaker grouping key for a URL.
func extractHost(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		if len(rawURL) > 50 {
			return rawURL[:50]
		}
		return rawURL
	}
	return parsed.Host
}

// BreakerState returns the current state of each host's breaker.
func (cbf *CircuitBreakerFetcher) BreakerState() map[string]string {
	cbf.mu.RLock()
	defer cbf.mu.RUnlock()

	states := make(map[string]string)
	for host, breaker := range cbf.breakers {
		if breaker.Tripped() {
			states[host] = "open"
		} else {
			states[host] = "closed"
		}
	}
	return states
}

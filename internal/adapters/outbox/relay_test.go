package outbox

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestRelayHealthTransitions(t *testing.T) {
	r := NewRelay(nil, "", nil, zap.NewNop())

	if !r.IsHealthy() || !r.IsReady() {
		t.Fatalf("fresh relay must report healthy and ready")
	}

	r.markUnhealthy()
	if r.IsHealthy() {
		t.Errorf("relay must report unhealthy after a lost listener connection")
	}
	if r.IsReady() {
		t.Errorf("unhealthy relay must not report ready")
	}

	r.markProcessed()
	if !r.IsHealthy() || !r.IsReady() {
		t.Errorf("relay must recover after a successful pass")
	}
}

func TestRelayReadinessGoesStale(t *testing.T) {
	r := NewRelay(nil, "", nil, zap.NewNop())

	r.mu.Lock()
	r.lastProcessed = time.Now().Add(-2 * healthCheckStaleThreshold)
	r.mu.Unlock()

	if r.IsReady() {
		t.Errorf("relay idle past the stale threshold must not report ready")
	}
	if !r.IsHealthy() {
		t.Errorf("staleness is a readiness concern, liveness must be unaffected")
	}
}

// Health endpoints poll from their own goroutine while the relay loop writes;
// this test only has teeth under the race detector.
func TestRelayHealthConcurrentAccess(t *testing.T) {
	r := NewRelay(nil, "", nil, zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				r.markProcessed()
				r.markUnhealthy()
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				r.IsHealthy()
				r.IsReady()
			}
		}()
	}
	wg.Wait()

	r.markProcessed()
	if !r.IsHealthy() {
		t.Errorf("relay must settle healthy after the final successful pass")
	}
}

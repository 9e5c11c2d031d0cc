package resilience

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
)

func fastRetryConfig(attempts int) Config {
	return Config{
		RetryMaxAttempts:    attempts,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
	}
}

func retryOn(target error) ErrorClassifier {
	return func(err error) ErrorClassification {
		return ErrorClassification{Retryable: errors.Is(err, target), RecordFailure: true}
	}
}

func TestDoReturnsValueAfterTransientFailures(t *testing.T) {
	exec := NewExecutor(fastRetryConfig(3))

	errFlaky := errors.New("jikan 503")
	attempts := 0
	url, err := Do(context.Background(), exec, "cover.lookup", func(context.Context) (string, error) {
		attempts++
		if attempts < 3 {
			return "", errFlaky
		}
		return "https://cdn.example/naruto.jpg", nil
	}, retryOn(errFlaky))
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if url != "https://cdn.example/naruto.jpg" || attempts != 3 {
		t.Fatalf("unexpected result %q after %d attempts", url, attempts)
	}
}

func TestExecuteStopsAtMaxAttempts(t *testing.T) {
	exec := NewExecutor(fastRetryConfig(2))

	errFlaky := errors.New("timeout")
	attempts := 0
	err := exec.Execute(context.Background(), "events.publish", func(context.Context) error {
		attempts++
		return errFlaky
	}, retryOn(errFlaky))
	if !errors.Is(err, errFlaky) || attempts != 2 {
		t.Fatalf("expected %v after 2 attempts, got %v after %d", errFlaky, err, attempts)
	}
}

func TestExecuteDoesNotRetryPermanentFailure(t *testing.T) {
	exec := NewExecutor(fastRetryConfig(3))

	errNotFound := errors.New("404")
	attempts := 0
	err := exec.Execute(context.Background(), "cover.lookup", func(context.Context) error {
		attempts++
		return errNotFound
	}, func(error) ErrorClassification { return ErrorClassification{} })
	if !errors.Is(err, errNotFound) || attempts != 1 {
		t.Fatalf("expected one attempt returning %v, got %d attempts and %v", errNotFound, attempts, err)
	}
}

func TestExecuteStopsRetryingWhenContextEnds(t *testing.T) {
	cfg := fastRetryConfig(5)
	cfg.RetryInitialBackoff = time.Second
	cfg.RetryMaxBackoff = time.Second
	exec := NewExecutor(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	errFlaky := errors.New("flaky")
	attempts := 0
	started := time.Now()
	err := exec.Execute(ctx, "op", func(context.Context) error {
		attempts++
		return errFlaky
	}, retryOn(errFlaky))
	if !errors.Is(err, errFlaky) || attempts != 1 {
		t.Fatalf("expected single attempt with %v, got %d attempts and %v", errFlaky, attempts, err)
	}
	if time.Since(started) > 500*time.Millisecond {
		t.Fatalf("backoff ignored context deadline")
	}
}

func TestExecuteOpensCircuitAndReportsState(t *testing.T) {
	var (
		mu          sync.Mutex
		transitions []string
	)
	cfg := fastRetryConfig(1)
	cfg.BreakerEnabled = true
	cfg.BreakerMinRequests = 2
	cfg.BreakerFailureRatio = 0.5
	cfg.BreakerOpenTimeout = time.Minute
	cfg.BreakerHalfOpenMaxCalls = 1
	exec := NewExecutor(cfg, WithStateObserver(func(_ string, from, to string) {
		mu.Lock()
		defer mu.Unlock()
		transitions = append(transitions, from+"->"+to)
	}))

	errDown := errors.New("down")
	for i := 0; i < 2; i++ {
		if err := exec.Execute(context.Background(), "cover.lookup", func(context.Context) error {
			return errDown
		}, nil); !errors.Is(err, errDown) {
			t.Fatalf("iteration %d: expected %v, got %v", i, errDown, err)
		}
	}

	err := exec.Execute(context.Background(), "cover.lookup", func(context.Context) error {
		t.Fatalf("open circuit must not call the operation")
		return nil
	}, nil)
	if !errors.Is(err, gobreaker.ErrOpenState) || !IsCircuitOpen(err) {
		t.Fatalf("expected open state error, got %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(transitions) != 1 || transitions[0] != "closed->open" {
		t.Fatalf("unexpected transitions: %v", transitions)
	}
}

func TestBreakersAreScopedPerOperation(t *testing.T) {
	cfg := fastRetryConfig(1)
	cfg.BreakerEnabled = true
	cfg.BreakerMinRequests = 1
	cfg.BreakerFailureRatio = 0.1
	exec := NewExecutor(cfg)

	_ = exec.Execute(context.Background(), "cover.lookup", func(context.Context) error {
		return errors.New("down")
	}, nil)

	if err := exec.Execute(context.Background(), "events.publish", func(context.Context) error {
		return nil
	}, nil); err != nil {
		t.Fatalf("unrelated operation should not be tripped: %v", err)
	}
}

func TestNormalizeFillsDefaults(t *testing.T) {
	cfg := Config{RetryInitialBackoff: time.Second, RetryMaxBackoff: time.Millisecond}.normalize()
	def := DefaultConfig()

	if cfg.RetryMaxAttempts != def.RetryMaxAttempts {
		t.Fatalf("expected default attempts, got %d", cfg.RetryMaxAttempts)
	}
	if cfg.RetryMaxBackoff != time.Second {
		t.Fatalf("max backoff should be raised to the initial backoff, got %s", cfg.RetryMaxBackoff)
	}
	if got := cfg.nextBackoff(time.Second, cfg.RetryMaxBackoff); got != time.Second {
		t.Fatalf("expected backoff capped at %s, got %s", time.Second, got)
	}
	if _, ok := cfg.Operations[OpPublishInteraction]; !ok {
		t.Fatalf("expected default publish policy, got %v", cfg.Operations)
	}
}

func TestOperationPolicyTightensRetryBudget(t *testing.T) {
	cfg := fastRetryConfig(4)
	cfg.Operations = map[string]OperationPolicy{
		OpPublishInteraction: {MaxAttempts: 2},
	}
	exec := NewExecutor(cfg)

	errFlaky := errors.New("nats: timeout")
	count := func(op string) int {
		attempts := 0
		_ = exec.Execute(context.Background(), op, func(context.Context) error {
			attempts++
			return errFlaky
		}, retryOn(errFlaky))
		return attempts
	}
	if got := count(OpPublishInteraction); got != 2 {
		t.Fatalf("publish expected 2 attempts, got %d", got)
	}
	if got := count(OpCoverLookup); got != 4 {
		t.Fatalf("cover lookup expected the global 4 attempts, got %d", got)
	}
}

func TestBudgetCapsFirstWaitAtOperationCeiling(t *testing.T) {
	cfg := Config{
		RetryInitialBackoff: time.Second,
		Operations: map[string]OperationPolicy{
			OpPublishInteraction: {MaxBackoff: 100 * time.Millisecond},
		},
	}.normalize()

	attempts, first, ceiling := cfg.budget(OpPublishInteraction)
	if attempts != cfg.RetryMaxAttempts || first != 100*time.Millisecond || ceiling != 100*time.Millisecond {
		t.Fatalf("unexpected publish budget: attempts=%d first=%s ceiling=%s", attempts, first, ceiling)
	}
	if _, first, _ := cfg.budget(OpCoverLookup); first != time.Second {
		t.Fatalf("cover lookup should keep the global first wait, got %s", first)
	}
	if len(Config{Operations: map[string]OperationPolicy{}}.normalize().Operations) != 0 {
		t.Fatalf("an empty override map must stay empty")
	}
}

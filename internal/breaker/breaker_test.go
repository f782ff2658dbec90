package breaker

import (
	"testing"
	"time"

	"resumepilot/internal/config"
	"resumepilot/internal/types"
)

func TestIndependentBreakerConfigurations(t *testing.T) {
	// Each upstream operation gets its own circuit breaker configuration

	extractCfg := config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      3,
		Interval:         60 * time.Second,
		Timeout:          60 * time.Second,
		MinRequests:      3,
		FailureThreshold: 0.6,
	}

	enhanceCfg := config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      5,                // Different from extract
		Interval:         30 * time.Second, // Different from extract
		Timeout:          45 * time.Second, // Different from extract
		MinRequests:      2,                // Different from extract
		FailureThreshold: 0.7,              // Different from extract
	}

	extractCB := New[*types.ExtractionResult]("upstream-extract", extractCfg, nil)
	enhanceCB := New[*types.AnalysisRecord]("upstream-enhance", enhanceCfg, nil)

	t.Run("ExtractBreaker", func(t *testing.T) {
		stats := extractCB.Stats()

		name, ok := stats["name"].(string)
		if !ok {
			t.Fatal("Circuit breaker name not found")
		}
		if name != "upstream-extract" {
			t.Errorf("Expected circuit breaker name 'upstream-extract', got '%s'", name)
		}

		state, ok := stats["state"].(string)
		if !ok {
			t.Fatal("Circuit breaker state not found")
		}
		if state != "closed" {
			t.Errorf("Expected initial state 'closed', got '%s'", state)
		}

		enabled, ok := stats["enabled"].(bool)
		if !ok {
			t.Fatal("Circuit breaker enabled status not found")
		}
		if !enabled {
			t.Error("Circuit breaker should be enabled")
		}
	})

	t.Run("EnhanceBreaker", func(t *testing.T) {
		stats := enhanceCB.Stats()

		name, ok := stats["name"].(string)
		if !ok {
			t.Fatal("Circuit breaker name not found")
		}
		if name != "upstream-enhance" {
			t.Errorf("Expected circuit breaker name 'upstream-enhance', got '%s'", name)
		}
	})

	t.Run("IndependentHealthStates", func(t *testing.T) {
		if !extractCB.IsHealthy() {
			t.Error("Extract circuit breaker should be healthy initially")
		}
		if !enhanceCB.IsHealthy() {
			t.Error("Enhance circuit breaker should be healthy initially")
		}
	})
}

func TestBreakerDisabled(t *testing.T) {
	cb := New[*types.ExtractionResult]("disabled", config.CircuitBreakerConfig{Enabled: false}, nil)

	if cb != nil {
		t.Fatal("Circuit breaker should be nil when disabled")
	}

	// A nil breaker still executes the function directly
	calls := 0
	result, err := cb.Execute(func() (*types.ExtractionResult, error) {
		calls++
		return &types.ExtractionResult{Success: true}, nil
	})
	if err != nil {
		t.Fatalf("Execute on nil breaker returned error: %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected 1 call through nil breaker, got %d", calls)
	}
	if result == nil || !result.Success {
		t.Error("Expected the function result to pass through a nil breaker")
	}

	if !cb.IsHealthy() {
		t.Error("Nil breaker should report healthy")
	}

	stats := cb.Stats()
	if enabled, _ := stats["enabled"].(bool); enabled {
		t.Error("Nil breaker stats should report enabled=false")
	}
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	cfg := config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		MinRequests:      2,
		FailureThreshold: 0.5,
	}
	cb := New[*types.ExtractionResult]("failing", cfg, nil)

	fail := func() (*types.ExtractionResult, error) {
		return nil, errFailure
	}

	for range 3 {
		_, _ = cb.Execute(fail)
	}

	if cb.IsHealthy() {
		t.Error("Circuit breaker should be open after repeated failures")
	}
	stats := cb.Stats()
	if state, _ := stats["state"].(string); state != "open" {
		t.Errorf("Expected state 'open', got '%s'", state)
	}
}

var errFailure = &failureError{}

type failureError struct{}

func (*failureError) Error() string { return "simulated upstream failure" }

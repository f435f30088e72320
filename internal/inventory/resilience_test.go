package inventory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAPI struct {
	mu      sync.Mutex
	calls   int
	reserve func(call int, ctx context.Context) (*Reservation, error)
}

func (s *stubAPI) Reserve(ctx context.Context, productID int64, quantity int) (*Reservation, error) {
	s.mu.Lock()
	s.calls++
	call := s.calls
	s.mu.Unlock()
	return s.reserve(call, ctx)
}

func (s *stubAPI) Release(ctx context.Context, productID int64, quantity int) error {
	return nil
}

func (s *stubAPI) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newTestClient(api API, threshold uint32, openFor time.Duration) *Client {
	return NewClient(api, 100*time.Millisecond, BreakerConfig{
		Name:             "inventory-test",
		FailureThreshold: threshold,
		OpenDuration:     openFor,
	})
}

func TestAttemptReservationOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		outcome Outcome
	}{
		{"reserved", nil, OutcomeReserved},
		{"insufficient stock", ErrInsufficientStock, OutcomeInsufficientStock},
		{"not found", ErrProductNotFound, OutcomeNotFound},
		{"deadline exceeded", context.DeadlineExceeded, OutcomeTimeout},
		{"generic failure", errors.New("connection refused"), OutcomeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &stubAPI{reserve: func(int, context.Context) (*Reservation, error) {
				if tt.err != nil {
					return nil, tt.err
				}
				return &Reservation{ReservedQuantity: 2, AvailableQuantity: 8}, nil
			}}
			client := newTestClient(api, 5, time.Minute)

			result := client.AttemptReservation(context.Background(), 1, 2)

			assert.Equal(t, tt.outcome, result.Outcome)
			if tt.outcome == OutcomeReserved {
				assert.Equal(t, 8, result.Available)
			}
		})
	}
}

func TestDeadlineIsEnforced(t *testing.T) {
	// The dependency hangs until the call context expires; the client's own
	// fixed deadline must fire even though the caller set none.
	api := &stubAPI{reserve: func(_ int, ctx context.Context) (*Reservation, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	client := newTestClient(api, 5, time.Minute)

	start := time.Now()
	result := client.AttemptReservation(context.Background(), 1, 1)

	assert.Equal(t, OutcomeTimeout, result.Outcome)
	assert.Less(t, time.Since(start), time.Second)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	api := &stubAPI{reserve: func(int, context.Context) (*Reservation, error) {
		return nil, errors.New("downstream unavailable")
	}}
	client := newTestClient(api, 3, time.Minute)

	for i := 0; i < 3; i++ {
		result := client.AttemptReservation(context.Background(), 1, 1)
		assert.Equal(t, OutcomeError, result.Outcome)
	}
	require.Equal(t, gobreaker.StateOpen, client.BreakerState())

	// While open, attempts fail fast without reaching the dependency.
	for i := 0; i < 5; i++ {
		result := client.AttemptReservation(context.Background(), 1, 1)
		assert.Equal(t, OutcomeCircuitOpen, result.Outcome)
	}
	assert.Equal(t, 3, api.callCount())
}

func TestCallerFaultsDoNotTripBreaker(t *testing.T) {
	api := &stubAPI{reserve: func(int, context.Context) (*Reservation, error) {
		return nil, ErrInsufficientStock
	}}
	client := newTestClient(api, 2, time.Minute)

	for i := 0; i < 6; i++ {
		result := client.AttemptReservation(context.Background(), 1, 99)
		assert.Equal(t, OutcomeInsufficientStock, result.Outcome)
	}

	assert.Equal(t, gobreaker.StateClosed, client.BreakerState())
	assert.Equal(t, 6, api.callCount())
}

func TestCallerFaultDoesNotResetFailureCounter(t *testing.T) {
	// A caller fault interleaved between dependency faults must leave the
	// consecutive-failure count where it was: two faults, a stock
	// conflict, then a third fault still opens a threshold-3 breaker.
	responses := []error{
		errors.New("downstream unavailable"),
		errors.New("downstream unavailable"),
		ErrInsufficientStock,
		errors.New("downstream unavailable"),
	}
	api := &stubAPI{reserve: func(call int, _ context.Context) (*Reservation, error) {
		return nil, responses[call-1]
	}}
	client := newTestClient(api, 3, time.Minute)

	expected := []Outcome{OutcomeError, OutcomeError, OutcomeInsufficientStock, OutcomeError}
	for i, want := range expected {
		result := client.AttemptReservation(context.Background(), 1, 1)
		assert.Equal(t, want, result.Outcome, "call %d", i+1)
	}

	assert.Equal(t, gobreaker.StateOpen, client.BreakerState())

	result := client.AttemptReservation(context.Background(), 1, 1)
	assert.Equal(t, OutcomeCircuitOpen, result.Outcome)
	assert.Equal(t, 4, api.callCount())
}

func TestHalfOpenTrialCallerFaultClosesBreaker(t *testing.T) {
	// A trial call that draws a stock conflict proves the dependency
	// reachable; the breaker closes rather than staying half-open.
	api := &stubAPI{reserve: func(call int, _ context.Context) (*Reservation, error) {
		if call == 1 {
			return nil, errors.New("downstream unavailable")
		}
		return nil, ErrInsufficientStock
	}}
	client := newTestClient(api, 1, 50*time.Millisecond)

	result := client.AttemptReservation(context.Background(), 1, 1)
	require.Equal(t, OutcomeError, result.Outcome)
	require.Equal(t, gobreaker.StateOpen, client.BreakerState())

	time.Sleep(80 * time.Millisecond)

	result = client.AttemptReservation(context.Background(), 1, 1)
	assert.Equal(t, OutcomeInsufficientStock, result.Outcome)
	assert.Equal(t, gobreaker.StateClosed, client.BreakerState())

	// Subsequent calls reach the dependency again.
	result = client.AttemptReservation(context.Background(), 1, 1)
	assert.Equal(t, OutcomeInsufficientStock, result.Outcome)
	assert.Equal(t, 3, api.callCount())
}

func TestBreakerRecoveryTrialSucceeds(t *testing.T) {
	api := &stubAPI{reserve: func(call int, _ context.Context) (*Reservation, error) {
		if call == 1 {
			return nil, errors.New("downstream unavailable")
		}
		return &Reservation{ReservedQuantity: 1, AvailableQuantity: 4}, nil
	}}
	client := newTestClient(api, 1, 50*time.Millisecond)

	result := client.AttemptReservation(context.Background(), 1, 1)
	require.Equal(t, OutcomeError, result.Outcome)
	require.Equal(t, gobreaker.StateOpen, client.BreakerState())

	time.Sleep(80 * time.Millisecond)

	// After the open duration a single trial call is admitted; its success
	// closes the breaker again.
	result = client.AttemptReservation(context.Background(), 1, 1)
	assert.Equal(t, OutcomeReserved, result.Outcome)
	assert.Equal(t, gobreaker.StateClosed, client.BreakerState())
	assert.Equal(t, 2, api.callCount())
}

func TestBreakerRecoveryTrialFailsAndReopens(t *testing.T) {
	api := &stubAPI{reserve: func(int, context.Context) (*Reservation, error) {
		return nil, errors.New("downstream unavailable")
	}}
	client := newTestClient(api, 1, 50*time.Millisecond)

	result := client.AttemptReservation(context.Background(), 1, 1)
	require.Equal(t, OutcomeError, result.Outcome)
	require.Equal(t, gobreaker.StateOpen, client.BreakerState())

	time.Sleep(80 * time.Millisecond)

	// The failed trial reopens the breaker and restarts the open timer.
	result = client.AttemptReservation(context.Background(), 1, 1)
	assert.Equal(t, OutcomeError, result.Outcome)
	assert.Equal(t, gobreaker.StateOpen, client.BreakerState())

	result = client.AttemptReservation(context.Background(), 1, 1)
	assert.Equal(t, OutcomeCircuitOpen, result.Outcome)
	assert.Equal(t, 2, api.callCount())
}

func TestOutcomeStrings(t *testing.T) {
	assert.Equal(t, "reserved", OutcomeReserved.String())
	assert.Equal(t, "insufficient_stock", OutcomeInsufficientStock.String())
	assert.Equal(t, "not_found", OutcomeNotFound.String())
	assert.Equal(t, "circuit_open", OutcomeCircuitOpen.String())
	assert.Equal(t, "timeout", OutcomeTimeout.String())
	assert.Equal(t, "other_error", OutcomeError.String())
}

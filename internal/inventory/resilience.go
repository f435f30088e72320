package inventory

import (
	"context"
	"errors"
	"net"
	"time"

	"storefront-order-service/internal/util"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// Outcome tags the result of a single reservation attempt.
type Outcome int

const (
	OutcomeReserved Outcome = iota
	OutcomeInsufficientStock
	OutcomeNotFound
	OutcomeCircuitOpen
	OutcomeTimeout
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeReserved:
		return "reserved"
	case OutcomeInsufficientStock:
		return "insufficient_stock"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeCircuitOpen:
		return "circuit_open"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeError:
		return "other_error"
	default:
		return "unknown"
	}
}

// Result is the outcome of one reservation attempt. It lives for a single
// request and is never persisted.
type Result struct {
	Outcome   Outcome
	Available int
	Err       error
}

// BreakerConfig configures the circuit breaker guarding one downstream
// dependency.
type BreakerConfig struct {
	Name             string
	FailureThreshold uint32
	OpenDuration     time.Duration
}

// Client guards the remote reservation call with a circuit breaker and a
// fixed per-call deadline. Each Client owns one breaker instance; multiple
// independent breakers can coexist for different dependencies.
//
// The two-step breaker API is used so that caller faults (insufficient
// stock, unknown product) can be reported to the caller without being
// recorded as either success or failure: a success report would reset the
// consecutive-failure counter and mask an unhealthy dependency.
type Client struct {
	api     API
	breaker *gobreaker.TwoStepCircuitBreaker[*Reservation]
	timeout time.Duration
	logger  *zap.Logger
}

// NewClient creates a resilience-wrapped reservation client. timeout bounds
// every downstream call regardless of any deadline the caller set.
func NewClient(api API, timeout time.Duration, bc BreakerConfig) *Client {
	settings := gobreaker.Settings{
		Name: bc.Name,
		// Admit a single trial call while half-open; its success closes
		// the breaker, its failure reopens it.
		MaxRequests: 1,
		Timeout:     bc.OpenDuration,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= bc.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			util.BreakerState.WithLabelValues(name).Set(breakerStateValue(to))
			util.GetLogger().Warn("Circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &Client{
		api:     api,
		breaker: gobreaker.NewTwoStepCircuitBreaker[*Reservation](settings),
		timeout: timeout,
		logger:  util.GetLogger(),
	}
}

// AttemptReservation issues one breaker-guarded reservation attempt bounded
// by the client's fixed deadline. When the breaker is open no network call
// is made and the attempt fails fast with OutcomeCircuitOpen.
func (c *Client) AttemptReservation(ctx context.Context, productID int64, quantity int) Result {
	start := time.Now()

	result := c.attempt(ctx, productID, quantity)

	util.ReservationLatency.Observe(time.Since(start).Seconds())
	util.ReservationAttemptsTotal.WithLabelValues(result.Outcome.String()).Inc()

	if result.Outcome != OutcomeReserved {
		c.logger.Warn("Reservation attempt did not succeed",
			zap.Int64("product_id", productID),
			zap.Int("quantity", quantity),
			zap.String("outcome", result.Outcome.String()),
			zap.Error(result.Err))
	}

	return result
}

func (c *Client) attempt(ctx context.Context, productID int64, quantity int) Result {
	done, err := c.breaker.Allow()
	if err != nil {
		// Open breaker, or the single half-open trial is already taken.
		return Result{Outcome: OutcomeCircuitOpen, Err: err}
	}

	// Allow admits at most one call while half-open, so the state cannot
	// move under this request until done reports it.
	trial := c.breaker.State() == gobreaker.StateHalfOpen

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reservation, callErr := c.api.Reserve(callCtx, productID, quantity)
	outcome := outcomeFor(callErr)

	switch outcome {
	case OutcomeReserved:
		done(true)
	case OutcomeInsufficientStock, OutcomeNotFound:
		// Caller faults are not dependency malfunctions: in the closed
		// state they leave the failure counter untouched. A half-open
		// trial that draws one still proves the dependency reachable,
		// so it closes the breaker.
		if trial {
			done(true)
		}
	default:
		done(false)
	}

	result := Result{Outcome: outcome, Err: callErr}
	if reservation != nil {
		result.Available = reservation.AvailableQuantity
	}
	return result
}

// BreakerState reports the current breaker state.
func (c *Client) BreakerState() gobreaker.State {
	return c.breaker.State()
}

func outcomeFor(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeReserved
	case errors.Is(err, ErrInsufficientStock):
		return OutcomeInsufficientStock
	case errors.Is(err, ErrProductNotFound):
		return OutcomeNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return OutcomeTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return OutcomeTimeout
	}
	return OutcomeError
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	default:
		return 2
	}
}

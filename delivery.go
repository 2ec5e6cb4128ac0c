package courier

import (
	"context"
	"fmt"
	"strings"
)

// DeliveryMode determines how the outcome of an exchange is handed back to the
// caller.
type DeliveryMode int

const (
	// Async delivers the outcome from a separate goroutine, either via a
	// Callback or by resolving a Call after the sending function has returned.
	Async DeliveryMode = iota

	// Sync performs the exchange on the caller's goroutine and returns the
	// outcome directly.
	Sync
)

// ParseDeliveryMode parses the name of a delivery mode.
func ParseDeliveryMode(s string) (DeliveryMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "async":
		return Async, nil
	case "sync":
		return Sync, nil
	default:
		return 0, fmt.Errorf("unknown delivery mode (%s), expected sync or async", s)
	}
}

func (m DeliveryMode) String() string {
	switch m {
	case Async:
		return "async"
	case Sync:
		return "sync"
	default:
		return fmt.Sprintf("DeliveryMode(%d)", int(m))
	}
}

// Start begins an exchange performed by fn and returns a Call that is resolved
// with its outcome.
//
// In Sync mode fn is invoked before Start returns, so the returned Call is
// already resolved. In Async mode fn is invoked on its own goroutine.
func (m DeliveryMode) Start(
	ctx context.Context,
	fn func(context.Context) Outcome,
) *Call {
	c := &Call{
		done: make(chan struct{}),
	}

	if m == Sync {
		c.resolve(fn(ctx))
	} else {
		go func() {
			c.resolve(fn(ctx))
		}()
	}

	return c
}

// Callback is a function that receives the outcome of an exchange.
type Callback func(Outcome)

// Call is a pending or completed exchange.
type Call struct {
	done    chan struct{}
	outcome Outcome
}

// resolve sets the outcome of the call. It must be called exactly once.
func (c *Call) resolve(o Outcome) {
	c.outcome = o
	close(c.done)
}

// Done returns a channel that is closed when the outcome is available.
func (c *Call) Done() <-chan struct{} {
	return c.done
}

// Outcome blocks until the outcome of the exchange is available and returns
// it.
func (c *Call) Outcome() Outcome {
	<-c.done
	return c.outcome
}

// Wait blocks until the outcome of the exchange is available or ctx is
// canceled.
//
// A canceled ctx does not abort the exchange itself.
func (c *Call) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-c.done:
		return c.outcome, nil
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

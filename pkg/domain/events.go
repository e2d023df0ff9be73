package domain

import (
	"context"
	"time"
)

// Outcome classifies how a dispatch ended.
type Outcome string

const (
	OutcomeOK        Outcome = "ok"
	OutcomeInvalid   Outcome = "invalid"
	OutcomePrevented Outcome = "prevented"
	OutcomeRecovered Outcome = "recovered"
	OutcomeError     Outcome = "error"
	OutcomeNoop      Outcome = "noop"
)

// DispatchEvent describes one grid call.
type DispatchEvent struct {
	Timestamp time.Time     `json:"timestamp"`
	Grid      string        `json:"grid"`
	Method    string        `json:"method"`
	Depth     int           `json:"depth"`
	Outcome   Outcome       `json:"outcome,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	Err       error         `json:"-"`
}

// LifecycleHooks defines callbacks for dispatcher observability.
type LifecycleHooks struct {
	OnDispatch func(context.Context, *DispatchEvent)
	OnComplete func(context.Context, *DispatchEvent)
}

// Package tracker submits validated payment requests to a node and follows
// the asynchronous operations they create until they settle. The node owns
// the operation lifecycle; the tracker only polls, backs off, and reports.
package tracker

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Numi2/zcash-numi-sdk/internal/metrics"
	"github.com/Numi2/zcash-numi-sdk/internal/payment"
	"github.com/Numi2/zcash-numi-sdk/internal/rpc"
	"github.com/Numi2/zcash-numi-sdk/internal/util"
)

// State is the tracker-side view of an operation.
type State string

const (
	// StateSubmitted means the node accepted the request and returned an
	// operation id, but Wait has not observed a terminal state yet.
	StateSubmitted State = "submitted"
	// StatePolling means a Wait call is actively following the operation.
	StatePolling State = "polling"
	// StateSucceeded means the node mined the payment; the txid is cached.
	StateSucceeded State = "succeeded"
	// StateFailed means the node reported failed or cancelled.
	StateFailed State = "failed"
	// StateTimedOut means Wait gave up. The operation may still settle on
	// the node; a later Wait on the same handle polls again.
	StateTimedOut State = "timed_out"
)

// Config tunes the polling loop. Zero fields take the defaults below.
type Config struct {
	InitialInterval time.Duration `envconfig:"TRACKER_INITIAL_INTERVAL" default:"500ms"`
	Multiplier      float64       `envconfig:"TRACKER_MULTIPLIER" default:"2.0"`
	MaxInterval     time.Duration `envconfig:"TRACKER_MAX_INTERVAL" default:"15s"`
	MaxWait         time.Duration `envconfig:"TRACKER_MAX_WAIT" default:"5m"`
}

func (c Config) withDefaults() Config {
	if c.InitialInterval <= 0 {
		c.InitialInterval = 500 * time.Millisecond
	}
	if c.Multiplier < 1 {
		c.Multiplier = 2.0
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = 15 * time.Second
	}
	if c.MaxWait <= 0 {
		c.MaxWait = 5 * time.Minute
	}
	return c
}

// Handle identifies one submitted operation. Terminal outcomes are cached so
// repeated Wait calls return the same answer without touching the node again.
type Handle struct {
	OperationID string
	SubmittedAt time.Time

	mu    sync.Mutex
	state State
	txid  string
	err   error
}

// State returns the handle's current tracker-side state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

func (h *Handle) cached() (string, error, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	switch h.state {
	case StateSucceeded:
		return h.txid, nil, true
	case StateFailed:
		return "", h.err, true
	default:
		return "", nil, false
	}
}

func (h *Handle) settle(state State, txid string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = state
	h.txid = txid
	h.err = err
}

// Tracker drives requests through the node's asynchronous operation API.
type Tracker struct {
	gateway rpc.Gateway
	cfg     Config
	log     logrus.FieldLogger
	metrics *metrics.TrackerMetrics
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewTracker wires a tracker to a node gateway.
func NewTracker(gateway rpc.Gateway, cfg Config, log logrus.FieldLogger) *Tracker {
	return &Tracker{
		gateway: gateway,
		cfg:     cfg.withDefaults(),
		log:     log,
		sleep:   sleepContext,
	}
}

// WithMetrics attaches Prometheus instrumentation.
func (t *Tracker) WithMetrics(m *metrics.TrackerMetrics) *Tracker {
	t.metrics = m
	return t
}

// WithSleep replaces the delay function used between polls. Callers that do
// not need to control time keep the default, which honors ctx cancellation.
func (t *Tracker) WithSleep(sleep func(ctx context.Context, d time.Duration) error) *Tracker {
	t.sleep = sleep
	return t
}

// Submit hands the request to the node as a z_sendmany and returns a handle
// for the operation the node created. The request's own fee is always passed
// explicitly so the node cannot silently charge something else.
func (t *Tracker) Submit(ctx context.Context, req *payment.Request) (*Handle, error) {
	recipients := make([]rpc.Recipient, len(req.Payments))
	for i, p := range req.Payments {
		recipients[i] = rpc.Recipient{
			Address: p.Recipient.Encode(),
			Amount:  json.Number(util.FormatZEC(p.Amount)),
		}
		if len(p.Memo) > 0 {
			recipients[i].Memo = hex.EncodeToString(p.Memo)
		}
	}

	fee := req.Fee()
	operationID, err := t.gateway.SubmitPayment(ctx, req.From.Encode(), recipients, req.MinConf, &fee)
	if err != nil {
		return nil, &SubmissionError{Err: err}
	}

	t.log.WithFields(logrus.Fields{
		"operation_id": operationID,
		"payments":     len(req.Payments),
		"total":        util.FormatZEC(req.Total()),
		"fee":          util.FormatZEC(fee),
	}).Info("payment submitted")

	return &Handle{
		OperationID: operationID,
		SubmittedAt: time.Now(),
		state:       StateSubmitted,
	}, nil
}

// Status performs a single poll without waiting.
func (t *Tracker) Status(ctx context.Context, h *Handle) (*rpc.OperationStatus, error) {
	t.metrics.RecordPoll()
	return t.gateway.GetOperationStatus(ctx, h.OperationID)
}

// Wait polls the operation with capped exponential backoff until it settles,
// the configured maximum wait elapses, or ctx is cancelled. A handle that
// already settled answers from its cache without any RPC. Transient node
// unreachability is retried within the same deadline; authentication and
// node-level errors abort immediately.
//
// A timeout is a client-side giveup, not a node-side outcome: the operation
// may still settle later, so ErrTimedOut is deliberately not cached and a
// subsequent Wait on the same handle polls again with a fresh deadline. Only
// node-terminal outcomes (success, failed, cancelled) are cached.
func (t *Tracker) Wait(ctx context.Context, h *Handle) (string, error) {
	if txid, err, done := h.cached(); done {
		return txid, err
	}
	h.settle(StatePolling, "", nil)

	interval := t.cfg.InitialInterval
	var elapsed time.Duration
	log := t.log.WithField("operation_id", h.OperationID)

	for {
		status, err := t.Status(ctx, h)
		switch {
		case err == nil:
			if status.Status.Terminal() {
				return t.finish(ctx, h, status, log)
			}
			log.WithField("status", status.Status).Debug("operation pending")
		case errors.Is(err, rpc.ErrUnreachable):
			// Transient; keep polling until the deadline.
			log.WithError(err).Warn("poll failed, will retry")
		default:
			h.settle(StateSubmitted, "", nil)
			return "", err
		}

		if elapsed >= t.cfg.MaxWait {
			h.settle(StateTimedOut, "", nil)
			t.metrics.RecordTerminal(string(StateTimedOut))
			return "", fmt.Errorf("%w: %s after %s", ErrTimedOut, h.OperationID, elapsed)
		}

		d := interval
		if remaining := t.cfg.MaxWait - elapsed; d > remaining {
			d = remaining
		}
		if err := t.sleep(ctx, d); err != nil {
			h.settle(StateSubmitted, "", nil)
			return "", err
		}
		elapsed += d

		interval = time.Duration(float64(interval) * t.cfg.Multiplier)
		if interval > t.cfg.MaxInterval {
			interval = t.cfg.MaxInterval
		}
	}
}

// finish consumes the terminal operation from the node and caches the outcome.
func (t *Tracker) finish(ctx context.Context, h *Handle, status *rpc.OperationStatus, log logrus.FieldLogger) (string, error) {
	// z_getoperationresult releases the operation from node memory. Best
	// effort: the status we already hold carries the same payload.
	if final, err := t.gateway.GetOperationResult(ctx, h.OperationID); err == nil {
		status = final
	} else {
		log.WithError(err).Warn("failed to consume operation result")
	}

	t.metrics.RecordTerminal(string(status.Status))

	switch status.Status {
	case rpc.OpSuccess:
		var txid string
		if status.Result != nil {
			txid = status.Result.TxID
		}
		h.settle(StateSucceeded, txid, nil)
		log.WithField("txid", txid).Info("operation succeeded")
		return txid, nil
	default:
		opErr := &OperationError{OperationID: h.OperationID, State: status.Status}
		if status.Error != nil {
			opErr.Reason = status.Error.Message
		}
		h.settle(StateFailed, "", opErr)
		log.WithField("status", status.Status).WithField("reason", opErr.Reason).Warn("operation failed")
		return "", opErr
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

package tracker

import (
	"context"
	"encoding/hex"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Numi2/zcash-numi-sdk/internal/address"
	"github.com/Numi2/zcash-numi-sdk/internal/payment"
	"github.com/Numi2/zcash-numi-sdk/internal/rpc"
)

type pollResult struct {
	status *rpc.OperationStatus
	err    error
}

// scriptedGateway plays back a fixed sequence of poll results and records
// everything the tracker sends.
type scriptedGateway struct {
	submitID  string
	submitErr error
	script    []pollResult

	polls       int
	resultCalls int

	gotFrom       string
	gotRecipients []rpc.Recipient
	gotMinConf    uint32
	gotFee        *uint64
}

func (g *scriptedGateway) SubmitPayment(_ context.Context, from string, recipients []rpc.Recipient, minconf uint32, fee *uint64) (string, error) {
	g.gotFrom = from
	g.gotRecipients = recipients
	g.gotMinConf = minconf
	g.gotFee = fee
	return g.submitID, g.submitErr
}

func (g *scriptedGateway) GetOperationStatus(context.Context, string) (*rpc.OperationStatus, error) {
	i := g.polls
	g.polls++
	if i >= len(g.script) {
		i = len(g.script) - 1
	}
	return g.script[i].status, g.script[i].err
}

func (g *scriptedGateway) GetOperationResult(context.Context, string) (*rpc.OperationStatus, error) {
	g.resultCalls++
	last := g.script[len(g.script)-1]
	return last.status, last.err
}

func (g *scriptedGateway) ValidateAddress(context.Context, string) (*rpc.AddressCheck, error) {
	return &rpc.AddressCheck{IsValid: true}, nil
}

func executing(id string) pollResult {
	return pollResult{status: &rpc.OperationStatus{ID: id, Status: rpc.OpExecuting}}
}

func succeeded(id, txid string) pollResult {
	return pollResult{status: &rpc.OperationStatus{
		ID:     id,
		Status: rpc.OpSuccess,
		Result: &rpc.OperationResult{TxID: txid},
	}}
}

func opFailed(id, reason string) pollResult {
	return pollResult{status: &rpc.OperationStatus{
		ID:     id,
		Status: rpc.OpFailed,
		Error:  &rpc.NodeError{Code: -4, Message: reason},
	}}
}

func saplingAddr(fill byte) *address.Sapling {
	var payload [43]byte
	for i := range payload {
		payload[i] = fill
	}
	return &address.Sapling{Net: address.Mainnet, Payload: payload}
}

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// fastConfig keeps the backoff arithmetic intact but lets tests bound the
// number of polls precisely.
func fastConfig() Config {
	return Config{
		InitialInterval: time.Second,
		Multiplier:      2.0,
		MaxInterval:     4 * time.Second,
		MaxWait:         10 * time.Second,
	}
}

// fakeSleep records requested delays without actually sleeping.
type fakeSleep struct {
	delays []time.Duration
}

func (f *fakeSleep) sleep(_ context.Context, d time.Duration) error {
	f.delays = append(f.delays, d)
	return nil
}

func testRequest(t *testing.T) *payment.Request {
	t.Helper()
	req, err := payment.NewBuilder().Single(
		saplingAddr(1), saplingAddr(2), 100_000, []byte("hello"), 3, nil)
	require.NoError(t, err)
	return req
}

func TestSubmitMapsRequest(t *testing.T) {
	gw := &scriptedGateway{submitID: "opid-1"}
	tr := NewTracker(gw, fastConfig(), testLogger())

	req := testRequest(t)
	h, err := tr.Submit(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "opid-1", h.OperationID)
	assert.Equal(t, StateSubmitted, h.State())

	assert.Equal(t, saplingAddr(1).Encode(), gw.gotFrom)
	require.Len(t, gw.gotRecipients, 1)
	assert.Equal(t, saplingAddr(2).Encode(), gw.gotRecipients[0].Address)
	assert.Equal(t, "0.001", gw.gotRecipients[0].Amount.String())
	assert.Equal(t, hex.EncodeToString([]byte("hello")), gw.gotRecipients[0].Memo)
	assert.Equal(t, uint32(3), gw.gotMinConf)

	// shielded source + one shielded recipient: 3 actions, 15000 zatoshi
	require.NotNil(t, gw.gotFee)
	assert.Equal(t, uint64(15_000), *gw.gotFee)
}

func TestSubmitFailure(t *testing.T) {
	gw := &scriptedGateway{submitErr: &rpc.NodeError{Code: -6, Message: "Insufficient funds"}}
	tr := NewTracker(gw, fastConfig(), testLogger())

	_, err := tr.Submit(context.Background(), testRequest(t))

	var subErr *SubmissionError
	require.ErrorAs(t, err, &subErr)
	var nodeErr *rpc.NodeError
	assert.ErrorAs(t, err, &nodeErr)
}

func TestWaitPollsUntilSuccess(t *testing.T) {
	gw := &scriptedGateway{
		submitID: "opid-1",
		script: []pollResult{
			executing("opid-1"),
			executing("opid-1"),
			executing("opid-1"),
			succeeded("opid-1", "deadbeef"),
		},
	}
	sleeper := &fakeSleep{}
	tr := NewTracker(gw, fastConfig(), testLogger()).WithSleep(sleeper.sleep)

	h, err := tr.Submit(context.Background(), testRequest(t))
	require.NoError(t, err)

	txid, err := tr.Wait(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", txid)
	assert.Equal(t, StateSucceeded, h.State())

	// three pending polls plus the terminal one
	assert.Equal(t, 4, gw.polls)
	assert.Equal(t, 1, gw.resultCalls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, sleeper.delays)
}

func TestWaitCachesTerminalResult(t *testing.T) {
	gw := &scriptedGateway{
		submitID: "opid-1",
		script:   []pollResult{succeeded("opid-1", "deadbeef")},
	}
	tr := NewTracker(gw, fastConfig(), testLogger()).WithSleep((&fakeSleep{}).sleep)

	h, err := tr.Submit(context.Background(), testRequest(t))
	require.NoError(t, err)

	txid, err := tr.Wait(context.Background(), h)
	require.NoError(t, err)
	require.Equal(t, "deadbeef", txid)
	pollsAfterFirst := gw.polls

	// second Wait answers from the handle, no RPC
	txid, err = tr.Wait(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", txid)
	assert.Equal(t, pollsAfterFirst, gw.polls)
	assert.Equal(t, 1, gw.resultCalls)
}

func TestWaitFailedOperation(t *testing.T) {
	gw := &scriptedGateway{
		submitID: "opid-1",
		script:   []pollResult{opFailed("opid-1", "tx unpaid action limit exceeded")},
	}
	tr := NewTracker(gw, fastConfig(), testLogger()).WithSleep((&fakeSleep{}).sleep)

	h, err := tr.Submit(context.Background(), testRequest(t))
	require.NoError(t, err)

	_, err = tr.Wait(context.Background(), h)
	var opErr *OperationError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, rpc.OpFailed, opErr.State)
	assert.Equal(t, "tx unpaid action limit exceeded", opErr.Reason)
	assert.Equal(t, StateFailed, h.State())

	// failure is cached too
	polls := gw.polls
	_, err2 := tr.Wait(context.Background(), h)
	assert.Equal(t, err, err2)
	assert.Equal(t, polls, gw.polls)
}

func TestWaitTimesOut(t *testing.T) {
	gw := &scriptedGateway{
		submitID: "opid-1",
		script:   []pollResult{executing("opid-1")},
	}
	sleeper := &fakeSleep{}
	tr := NewTracker(gw, fastConfig(), testLogger()).WithSleep(sleeper.sleep)

	h, err := tr.Submit(context.Background(), testRequest(t))
	require.NoError(t, err)

	_, err = tr.Wait(context.Background(), h)
	require.ErrorIs(t, err, ErrTimedOut)
	assert.Equal(t, StateTimedOut, h.State())

	// backoff doubles, caps at MaxInterval, and the final sleep is clamped
	// to the 10s budget: 1+2+4+3
	assert.Equal(t, []time.Duration{
		time.Second, 2 * time.Second, 4 * time.Second, 3 * time.Second,
	}, sleeper.delays)
	assert.Equal(t, 5, gw.polls)
}

func TestWaitAfterTimeoutPollsAgain(t *testing.T) {
	gw := &scriptedGateway{
		submitID: "opid-1",
		script:   []pollResult{executing("opid-1")},
	}
	tr := NewTracker(gw, fastConfig(), testLogger()).WithSleep((&fakeSleep{}).sleep)

	h, err := tr.Submit(context.Background(), testRequest(t))
	require.NoError(t, err)

	_, err = tr.Wait(context.Background(), h)
	require.ErrorIs(t, err, ErrTimedOut)

	// Timeouts are not node-terminal; the operation settles later and a
	// second Wait picks it up.
	gw.script = []pollResult{succeeded("opid-1", "deadbeef")}
	gw.polls = 0

	txid, err := tr.Wait(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", txid)
	assert.Equal(t, StateSucceeded, h.State())
	assert.Equal(t, 1, gw.polls)
}

func TestWaitRetriesTransientErrors(t *testing.T) {
	gw := &scriptedGateway{
		submitID: "opid-1",
		script: []pollResult{
			{err: rpc.ErrUnreachable},
			{err: rpc.ErrUnreachable},
			succeeded("opid-1", "deadbeef"),
		},
	}
	tr := NewTracker(gw, fastConfig(), testLogger()).WithSleep((&fakeSleep{}).sleep)

	h, err := tr.Submit(context.Background(), testRequest(t))
	require.NoError(t, err)

	txid, err := tr.Wait(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", txid)
}

func TestWaitAbortsOnNodeError(t *testing.T) {
	gw := &scriptedGateway{
		submitID: "opid-1",
		script: []pollResult{
			{err: &rpc.NodeError{Code: -32601, Message: "Method not found"}},
		},
	}
	tr := NewTracker(gw, fastConfig(), testLogger()).WithSleep((&fakeSleep{}).sleep)

	h, err := tr.Submit(context.Background(), testRequest(t))
	require.NoError(t, err)

	_, err = tr.Wait(context.Background(), h)
	var nodeErr *rpc.NodeError
	require.ErrorAs(t, err, &nodeErr)
	assert.Equal(t, 1, gw.polls)

	// not terminal: a later Wait may poll again
	assert.Equal(t, StateSubmitted, h.State())
}

func TestWaitHonorsContextCancel(t *testing.T) {
	gw := &scriptedGateway{
		submitID: "opid-1",
		script:   []pollResult{executing("opid-1")},
	}
	tr := NewTracker(gw, fastConfig(), testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h, err := tr.Submit(ctx, testRequest(t))
	require.NoError(t, err)

	_, err = tr.Wait(ctx, h)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, 500*time.Millisecond, cfg.InitialInterval)
	assert.Equal(t, 2.0, cfg.Multiplier)
	assert.Equal(t, 15*time.Second, cfg.MaxInterval)
	assert.Equal(t, 5*time.Minute, cfg.MaxWait)
}

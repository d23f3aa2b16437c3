// zcash-cli drives the payment SDK against a zcashd-compatible node: local
// address validation, balance queries, payment submission, and operation
// waits. Node connection and network come from the environment (RPC_URL,
// RPC_USER, RPC_PASS, NETWORK).
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/Numi2/zcash-numi-sdk/internal/address"
	"github.com/Numi2/zcash-numi-sdk/internal/graceful"
	"github.com/Numi2/zcash-numi-sdk/internal/metrics"
	"github.com/Numi2/zcash-numi-sdk/internal/payment"
	"github.com/Numi2/zcash-numi-sdk/internal/rpc"
	"github.com/Numi2/zcash-numi-sdk/internal/tracker"
	"github.com/Numi2/zcash-numi-sdk/internal/util"
)

type app struct {
	cfg     config
	network address.Network
	log     *logrus.Logger
	client  *rpc.Client
	tracker *tracker.Tracker
}

func main() {
	cfg, err := newConfig()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	log := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("invalid log level %q: %v", cfg.LogLevel, err)
	}
	log.SetLevel(level)

	network, ok := address.ParseNetwork(cfg.Network)
	if !ok {
		log.Fatalf("unknown network %q", cfg.Network)
	}

	client := rpc.NewClientWithAuth(cfg.Rpc.URL, cfg.Rpc.User, cfg.Rpc.Pass)
	if cfg.Metrics.Enabled {
		metrics.Register(log)
		client = client.WithMetrics(metrics.NewRPCMetrics())
		go serveMetrics(cfg.Metrics.Addr, log)
	}

	a := &app{
		cfg:     cfg,
		network: network,
		log:     log,
		client:  client,
		tracker: tracker.NewTracker(client, cfg.Tracker, log),
	}
	if cfg.Metrics.Enabled {
		a.tracker = a.tracker.WithMetrics(metrics.NewTrackerMetrics())
	}

	ctx, stop := graceful.Context(context.Background())
	defer stop()

	if err := a.run(ctx, os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: zcash-cli <info|validate|balance|send|wait|operations|received> [args]")
	}

	switch cmd, rest := args[0], args[1:]; cmd {
	case "info":
		return a.info(ctx)
	case "validate":
		return a.validate(ctx, rest)
	case "balance":
		return a.balance(ctx, rest)
	case "send":
		return a.send(ctx, rest)
	case "wait":
		return a.waitFor(ctx, rest)
	case "operations":
		return a.operations(ctx)
	case "received":
		return a.received(ctx, rest)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) info(ctx context.Context) error {
	info, err := a.client.GetBlockchainInfo(ctx)
	if err != nil {
		return err
	}
	if _, ok := address.ParseNetwork(info.Chain); ok && mustNetwork(info.Chain) != a.network {
		a.log.Warnf("node is on %s but NETWORK is %s", info.Chain, a.network)
	}
	return printJSON(info)
}

// validate parses locally first; the node's opinion is reported alongside but
// never overrides a local rejection.
func (a *app) validate(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: zcash-cli validate <address>")
	}

	addr, err := address.Parse(args[0], a.network)
	if err != nil {
		return fmt.Errorf("invalid address: %w", err)
	}

	out := map[string]any{
		"kind":     addr.Kind().String(),
		"network":  addr.Network().String(),
		"shielded": address.Shielded(addr),
	}
	if check, err := a.client.ValidateAddress(ctx, args[0]); err == nil {
		out["node_isvalid"] = check.IsValid
		out["node_ismine"] = check.IsMine
	} else {
		a.log.WithError(err).Debug("node validation skipped")
	}
	return printJSON(out)
}

func (a *app) balance(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("balance", flag.ContinueOnError)
	minconf := fs.Uint("minconf", 1, "minimum confirmations")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if fs.NArg() == 0 {
		total, err := a.client.GetTotalBalance(ctx, uint32(*minconf))
		if err != nil {
			return err
		}
		return printJSON(total)
	}

	addr := fs.Arg(0)
	if _, err := address.Parse(addr, a.network); err != nil {
		return fmt.Errorf("invalid address: %w", err)
	}
	zatoshi, err := a.client.GetBalance(ctx, addr, uint32(*minconf))
	if err != nil {
		return err
	}
	fmt.Println(util.FormatZEC(zatoshi))
	return nil
}

func (a *app) send(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	memoText := fs.String("memo", "", "memo to attach (shielded recipients only)")
	minconf := fs.Uint("minconf", 1, "minimum confirmations on spent notes")
	feeZEC := fs.String("fee", "", "fee override in ZEC (default: ZIP-317 conventional fee)")
	wait := fs.Bool("wait", true, "wait for the operation to settle")
	policyName := fs.String("policy", "orchard", "receiver policy for unified addresses: orchard, sapling, shielded")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 3 {
		return fmt.Errorf("usage: zcash-cli send [flags] <from> <to> <amount-zec>")
	}

	from, err := address.Parse(fs.Arg(0), a.network)
	if err != nil {
		return fmt.Errorf("invalid source address: %w", err)
	}
	to, err := address.Parse(fs.Arg(1), a.network)
	if err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	amount, err := util.ParseZEC(fs.Arg(2))
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}

	var feeOverride *uint64
	if *feeZEC != "" {
		fee, err := util.ParseZEC(*feeZEC)
		if err != nil {
			return fmt.Errorf("invalid fee: %w", err)
		}
		feeOverride = &fee
	}

	policy, err := receiverPolicy(*policyName)
	if err != nil {
		return err
	}

	var memo []byte
	if *memoText != "" {
		memo = []byte(*memoText)
	}

	req, err := payment.NewBuilder().WithPolicy(policy).Single(from, to, amount, memo, uint32(*minconf), feeOverride)
	if err != nil {
		return fmt.Errorf("invalid payment: %w", err)
	}
	a.log.WithFields(logrus.Fields{
		"amount": util.FormatZEC(amount),
		"fee":    util.FormatZEC(req.Fee()),
	}).Info("submitting payment")

	handle, err := a.tracker.Submit(ctx, req)
	if err != nil {
		return err
	}
	if !*wait {
		fmt.Println(handle.OperationID)
		return nil
	}

	txid, err := a.tracker.Wait(ctx, handle)
	if err != nil {
		return err
	}
	fmt.Println(txid)
	return nil
}

func (a *app) waitFor(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: zcash-cli wait <operation-id>")
	}

	handle := &tracker.Handle{OperationID: args[0]}
	txid, err := a.tracker.Wait(ctx, handle)
	if err != nil {
		return err
	}
	fmt.Println(txid)
	return nil
}

func (a *app) operations(ctx context.Context) error {
	ids, err := a.client.ListOperationIDs(ctx)
	if err != nil {
		return err
	}
	return printJSON(ids)
}

func (a *app) received(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("received", flag.ContinueOnError)
	minconf := fs.Uint("minconf", 1, "minimum confirmations")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: zcash-cli received [flags] <address>")
	}

	raw, err := a.client.ListReceivedByAddress(ctx, fs.Arg(0), uint32(*minconf))
	if err != nil {
		return err
	}
	return printJSON(raw)
}

func receiverPolicy(name string) (address.ReceiverPolicy, error) {
	switch name {
	case "orchard":
		return address.PreferOrchard, nil
	case "sapling":
		return address.PreferSapling, nil
	case "shielded":
		return address.RequireShielded, nil
	default:
		return 0, fmt.Errorf("unknown receiver policy %q", name)
	}
}

func mustNetwork(name string) address.Network {
	n, _ := address.ParseNetwork(name)
	return n
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func serveMetrics(addr string, log *logrus.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.WithError(err).Error("metrics server stopped")
	}
}

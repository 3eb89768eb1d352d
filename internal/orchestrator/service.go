package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "arkboot"

// Settings is the explicit configuration of a bootstrap run.
type Settings struct {
	ServiceURL        string
	ServiceBudget     RetryBudget
	WalletBudget      RetryBudget
	Mnemonic          string
	Password          string
	ExplorerURL       string
	Network           string
	ConfirmationDelay time.Duration // fixed wait after each faucet funding
}

// Orchestrator drives the linear bootstrap sequence.
type Orchestrator struct {
	settings Settings
	deps     Deps
	poller   *Poller
	sleep    SleepFunc
	newRunID func() string

	phaseDuration metric.Float64Histogram
}

// New constructs an Orchestrator. The concrete client types in
// internal/clients satisfy the interfaces in Deps.
func New(settings Settings, deps Deps) *Orchestrator {
	hist, err := otel.Meter(instrumentationName).Float64Histogram(
		"arkboot.phase.duration",
		metric.WithDescription("Duration of each bootstrap phase"),
		metric.WithUnit("s"),
	)
	if err != nil {
		slog.Warn("phase duration histogram unavailable", "err", err)
		hist = noop.Float64Histogram{}
	}

	return &Orchestrator{
		settings:      settings,
		deps:          deps,
		poller:        NewPoller(),
		sleep:         sleepContext,
		newRunID:      uuid.NewString,
		phaseDuration: hist,
	}
}

type step struct {
	phase Phase
	run   func(ctx context.Context) (attempts int, err error)
}

// RunBootstrap executes every phase in order. The first failing phase aborts
// the run; nothing already done is rolled back and no phase is retried here.
// Retrying lives in the two readiness polls only.
func (o *Orchestrator) RunBootstrap(ctx context.Context) (*BootstrapResult, error) {
	result := &BootstrapResult{
		Status: StatusInProgress,
		RunID:  o.newRunID(),
		Phases: make([]PhaseResult, 0, len(Phases)),
	}

	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "arkboot.bootstrap",
		trace.WithAttributes(attribute.String("run.id", result.RunID)))
	defer span.End()

	slog.InfoContext(ctx, "bootstrap started", "run_id", result.RunID)

	steps := []step{
		{PhaseWaitService, o.waitService},
		{PhaseProvisionWallet, o.provisionWallet},
		{PhaseWaitWallet, o.waitWallet},
		{PhaseFetchInfo, func(ctx context.Context) (int, error) {
			info, err := o.deps.Service.Info(ctx)
			if err != nil {
				return 0, err
			}
			result.Pubkey = info.Pubkey
			slog.InfoContext(ctx, "ark server public key", "pubkey", info.Pubkey)
			return 0, nil
		}},
		{PhaseFundServiceAddr, func(ctx context.Context) (int, error) {
			addr, err := o.deps.Wallet.WalletAddress(ctx)
			if err != nil {
				return 0, err
			}
			result.ServiceAddress = addr
			return 0, o.fund(ctx, "service", addr)
		}},
		{PhaseServiceConfirm, o.confirmationDelay},
		{PhaseInitClient, func(ctx context.Context) (int, error) {
			return 0, o.deps.Client.InitClient(ctx, InitParams{
				ServerURL:   o.settings.ServiceURL,
				ExplorerURL: o.settings.ExplorerURL,
				Password:    o.settings.Password,
				Network:     o.settings.Network,
			})
		}},
		{PhaseFetchBoarding, func(ctx context.Context) (int, error) {
			addr, err := o.deps.Client.BoardingAddress(ctx)
			if err != nil {
				return 0, err
			}
			result.BoardingAddress = addr
			return 0, nil
		}},
		{PhaseFundBoardingAddr, func(ctx context.Context) (int, error) {
			return 0, o.fund(ctx, "boarding", result.BoardingAddress)
		}},
		{PhaseBoardingConfirm, o.confirmationDelay},
		{PhaseSettle, func(ctx context.Context) (int, error) {
			if err := o.deps.Settler.Settle(ctx); err != nil {
				return 0, err
			}
			slog.InfoContext(ctx, "settlement completed")
			return 0, nil
		}},
	}

	for _, s := range steps {
		phase, err := o.runPhase(ctx, s)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(s.phase)+" failed")
			return nil, err
		}
		result.Phases = append(result.Phases, phase)
	}

	result.Status = StatusOK
	span.SetStatus(codes.Ok, "")
	slog.InfoContext(ctx, "bootstrap completed", "run_id", result.RunID, "status", result.Status)

	return result, nil
}

// runPhase executes one step inside its own span and records its duration.
func (o *Orchestrator) runPhase(ctx context.Context, s step) (PhaseResult, error) {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "arkboot.phase."+string(s.phase))
	defer span.End()

	start := time.Now()
	attempts, err := s.run(ctx)
	elapsed := time.Since(start)

	status := StatusOK
	if err != nil {
		status = StatusError
	}
	o.phaseDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("phase", string(s.phase)),
		attribute.String("status", status),
	))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.ErrorContext(ctx, "bootstrap phase failed", "phase", s.phase, "err", err)
		return PhaseResult{}, fmt.Errorf("%s: %w", s.phase, err)
	}

	slog.InfoContext(ctx, "bootstrap phase ok", "phase", s.phase, "duration_ms", elapsed.Milliseconds())
	return PhaseResult{
		Name:       s.phase,
		Status:     StatusOK,
		Attempts:   attempts,
		DurationMs: elapsed.Milliseconds(),
	}, nil
}

// waitService polls the info endpoint until it answers. The response content
// does not matter at this point.
func (o *Orchestrator) waitService(ctx context.Context) (int, error) {
	return o.poller.PollUntilReady(ctx, "ark server", o.settings.ServiceBudget,
		func(ctx context.Context) (bool, error) {
			if err := o.deps.Service.Probe(ctx); err != nil {
				return false, err
			}
			return true, nil
		})
}

// provisionWallet creates and unlocks the wallet. A wallet that already
// exists is accepted by the command executor.
func (o *Orchestrator) provisionWallet(ctx context.Context) (int, error) {
	if err := o.deps.Wallet.CreateWallet(ctx, o.settings.Mnemonic, o.settings.Password); err != nil {
		return 0, fmt.Errorf("creating wallet: %w", err)
	}
	if err := o.deps.Wallet.UnlockWallet(ctx, o.settings.Password); err != nil {
		return 0, fmt.Errorf("unlocking wallet: %w", err)
	}
	return 0, nil
}

func (o *Orchestrator) waitWallet(ctx context.Context) (int, error) {
	return o.poller.PollUntilReady(ctx, "wallet", o.settings.WalletBudget,
		func(ctx context.Context) (bool, error) {
			status, err := o.deps.Wallet.WalletStatus(ctx)
			if err != nil {
				return false, err
			}
			if !status.Ready() {
				slog.DebugContext(ctx, "wallet not ready",
					"initialized", status.Initialized,
					"unlocked", status.Unlocked,
					"synced", status.Synced,
				)
			}
			return status.Ready(), nil
		})
}

func (o *Orchestrator) fund(ctx context.Context, label, addr string) error {
	if addr == "" {
		return errors.New("no address to fund")
	}
	slog.InfoContext(ctx, "funding address", "kind", label, "address", addr)
	if err := o.deps.Funder.Fund(ctx, addr); err != nil {
		return fmt.Errorf("funding %s address %s: %w", label, addr, err)
	}
	return nil
}

// confirmationDelay waits the full configured duration regardless of the
// actual confirmation state.
func (o *Orchestrator) confirmationDelay(ctx context.Context) (int, error) {
	slog.DebugContext(ctx, "waiting for funding confirmation", "delay", o.settings.ConfirmationDelay)
	return 0, o.sleep(ctx, o.settings.ConfirmationDelay)
}

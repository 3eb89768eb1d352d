package main

import (
	"context"
	"log/slog"
	"os"

	"arkboot/internal/clients"
	"arkboot/internal/config"
	"arkboot/internal/orchestrator"
	"arkboot/internal/telemetry"
)

// AppContext holds all constructed application dependencies. It is built
// once in PersistentPreRunE and referenced by bootstrap.go.
type AppContext struct {
	cfg          *config.Config
	otelProvider *telemetry.Provider
	orchestrator *orchestrator.Orchestrator
}

// buildAppContext constructs all application dependencies from cfg:
//  1. Initialises the OTEL provider (best-effort, non-fatal)
//  2. Creates one circuit breaker per client
//  3. Creates the arkd HTTP client, the nigiri CLI adapter and the settler
//  4. Creates the orchestrator
func buildAppContext(cfg *config.Config) (*AppContext, error) {
	app := &AppContext{cfg: cfg}

	// OTEL is best-effort: a missing collector must never block the bootstrap.
	if cfg.Telemetry.OTLPEndpoint == "" {
		slog.Debug("OTEL telemetry disabled (no endpoint configured)")
	} else {
		tp, err := telemetry.InitProvider(context.Background(), cfg.Telemetry)
		if err != nil {
			slog.Warn("OTEL provider init failed, telemetry disabled", "err", err)
		} else {
			app.otelProvider = tp
		}
	}

	// One circuit breaker per client, half-opening after the retry delay of
	// the poll that drives it.
	arkdCB := clients.NewCircuitBreaker("arkd", cfg.Service.Wait.RetryDelay)
	nigiriCB := clients.NewCircuitBreaker("nigiri", cfg.Wallet.Wait.RetryDelay)

	arkd := clients.NewArkdClient(cfg.Service, arkdCB)
	nigiri := clients.NewNigiriCLI(cfg.Nigiri, clients.NewExecutor(), nigiriCB)
	settler := clients.NewSettler(cfg.Nigiri, cfg.Wallet.Password, clients.NewSubprocessRunner(os.Stderr))

	app.orchestrator = orchestrator.New(settingsFromConfig(cfg), orchestrator.Deps{
		Service: arkd,
		Wallet:  nigiri,
		Funder:  nigiri,
		Client:  nigiri,
		Settler: settler,
	})

	return app, nil
}

func settingsFromConfig(cfg *config.Config) orchestrator.Settings {
	return orchestrator.Settings{
		ServiceURL: cfg.Service.URL,
		ServiceBudget: orchestrator.RetryBudget{
			MaxRetries: cfg.Service.Wait.MaxRetries,
			RetryDelay: cfg.Service.Wait.RetryDelay,
		},
		WalletBudget: orchestrator.RetryBudget{
			MaxRetries: cfg.Wallet.Wait.MaxRetries,
			RetryDelay: cfg.Wallet.Wait.RetryDelay,
		},
		Mnemonic:          cfg.Wallet.Mnemonic,
		Password:          cfg.Wallet.Password,
		ExplorerURL:       cfg.Client.ExplorerURL,
		Network:           cfg.Client.Network,
		ConfirmationDelay: cfg.Funding.ConfirmationDelay,
	}
}

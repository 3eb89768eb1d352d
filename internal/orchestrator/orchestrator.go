package orchestrator

import "context"

// ServiceProber is satisfied by *clients.ArkdClient.
type ServiceProber interface {
	// Probe succeeds when the info endpoint answers at the transport level.
	Probe(ctx context.Context) error
	Info(ctx context.Context) (*ServerInfo, error)
}

// WalletProvisioner is satisfied by *clients.NigiriCLI.
type WalletProvisioner interface {
	CreateWallet(ctx context.Context, mnemonic, password string) error
	UnlockWallet(ctx context.Context, password string) error
	WalletStatus(ctx context.Context) (WalletStatus, error)
	WalletAddress(ctx context.Context) (string, error)
}

// Funder is satisfied by *clients.NigiriCLI.
type Funder interface {
	Fund(ctx context.Context, address string) error
}

// ArkClient is satisfied by *clients.NigiriCLI.
type ArkClient interface {
	InitClient(ctx context.Context, params InitParams) error
	BoardingAddress(ctx context.Context) (string, error)
}

// Settler is satisfied by *clients.Settler.
type Settler interface {
	Settle(ctx context.Context) error
}

// Deps groups the external collaborators of a bootstrap run.
type Deps struct {
	Service ServiceProber
	Wallet  WalletProvisioner
	Funder  Funder
	Client  ArkClient
	Settler Settler
}

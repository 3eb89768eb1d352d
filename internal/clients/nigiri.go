package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/sony/gobreaker"

	"arkboot/internal/config"
	"arkboot/internal/orchestrator"
)

// commandExecutor is the subset of *Executor used by NigiriCLI. Defining an
// interface here allows test doubles to be injected without a nigiri install.
type commandExecutor interface {
	Execute(ctx context.Context, cmd Command) ([]byte, error)
}

// NigiriCLI drives the arkd wallet, the faucet and the ark client through
// the nigiri command line.
type NigiriCLI struct {
	binary string
	exec   commandExecutor
	cb     *gobreaker.CircuitBreaker
}

// NewNigiriCLI constructs a NigiriCLI. Nothing is executed at construction
// time.
func NewNigiriCLI(cfg config.NigiriConfig, exec commandExecutor, cb *gobreaker.CircuitBreaker) *NigiriCLI {
	return &NigiriCLI{
		binary: cfg.Binary,
		exec:   exec,
		cb:     cb,
	}
}

// CreateWallet creates the arkd wallet from mnemonic. An already initialized
// wallet is accepted.
func (n *NigiriCLI) CreateWallet(ctx context.Context, mnemonic, password string) error {
	_, err := n.run(ctx, "arkd", "wallet", "create", "--password", password, "--mnemonic", mnemonic)
	return err
}

func (n *NigiriCLI) UnlockWallet(ctx context.Context, password string) error {
	_, err := n.run(ctx, "arkd", "wallet", "unlock", "--password", password)
	return err
}

// WalletStatus runs the wallet status command and parses its output.
func (n *NigiriCLI) WalletStatus(ctx context.Context) (orchestrator.WalletStatus, error) {
	out, err := n.run(ctx, "arkd", "wallet", "status")
	if err != nil {
		return orchestrator.WalletStatus{}, err
	}
	return ParseWalletStatus(string(out)), nil
}

// WalletAddress returns the arkd wallet's receive address.
func (n *NigiriCLI) WalletAddress(ctx context.Context) (string, error) {
	out, err := n.run(ctx, "arkd", "wallet", "address")
	if err != nil {
		return "", err
	}
	addr := strings.TrimSpace(string(out))
	if addr == "" {
		return "", errors.New("wallet address command returned no address")
	}
	return addr, nil
}

// Fund sends faucet coins to address. The faucet output is not consumed.
func (n *NigiriCLI) Fund(ctx context.Context, address string) error {
	_, err := n.run(ctx, "faucet", address)
	return err
}

func (n *NigiriCLI) InitClient(ctx context.Context, p orchestrator.InitParams) error {
	_, err := n.run(ctx, "ark", "init",
		"--server-url", p.ServerURL,
		"--explorer", p.ExplorerURL,
		"--password", p.Password,
		"--network", p.Network,
	)
	return err
}

// receiveOutput is the JSON printed by "ark receive".
type receiveOutput struct {
	BoardingAddress string `json:"boarding_address"`
}

// BoardingAddress runs "ark receive" and extracts the boarding address.
func (n *NigiriCLI) BoardingAddress(ctx context.Context) (string, error) {
	out, err := n.run(ctx, "ark", "receive")
	if err != nil {
		return "", err
	}

	var recv receiveOutput
	if err := json.Unmarshal(out, &recv); err != nil {
		return "", fmt.Errorf("decoding receive output: %w", err)
	}
	if recv.BoardingAddress == "" {
		return "", errors.New("receive output has no boarding_address")
	}
	return recv.BoardingAddress, nil
}

// run executes a nigiri subcommand inside the circuit breaker.
func (n *NigiriCLI) run(ctx context.Context, args ...string) ([]byte, error) {
	out, err := n.cb.Execute(func() (any, error) {
		return n.exec.Execute(ctx, Command{Name: n.binary, Args: args})
	})
	if err != nil {
		return nil, breakerErr(err)
	}
	b, _ := out.([]byte)
	return b, nil
}

// ParseWalletStatus reads the three readiness flags from wallet status
// output. A flag missing from the output counts as false.
func ParseWalletStatus(out string) orchestrator.WalletStatus {
	return orchestrator.WalletStatus{
		Initialized: strings.Contains(out, "initialized: true"),
		Unlocked:    strings.Contains(out, "unlocked: true"),
		Synced:      strings.Contains(out, "synced: true"),
	}
}

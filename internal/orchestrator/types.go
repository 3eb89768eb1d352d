package orchestrator

import "time"

// Status values used across BootstrapResult and PhaseResult.
const (
	StatusOK         = "ok"
	StatusError      = "error"
	StatusInProgress = "in-progress"
)

// Phase names the states of the bootstrap sequence, in execution order.
type Phase string

const (
	PhaseWaitService      Phase = "wait_service"
	PhaseProvisionWallet  Phase = "provision_wallet"
	PhaseWaitWallet       Phase = "wait_wallet"
	PhaseFetchInfo        Phase = "fetch_info"
	PhaseFundServiceAddr  Phase = "fund_service_addr"
	PhaseServiceConfirm   Phase = "service_funding_delay"
	PhaseInitClient       Phase = "init_client"
	PhaseFetchBoarding    Phase = "fetch_boarding_addr"
	PhaseFundBoardingAddr Phase = "fund_boarding_addr"
	PhaseBoardingConfirm  Phase = "boarding_funding_delay"
	PhaseSettle           Phase = "settle"
)

// Phases lists every phase in the order RunBootstrap executes them.
var Phases = []Phase{
	PhaseWaitService,
	PhaseProvisionWallet,
	PhaseWaitWallet,
	PhaseFetchInfo,
	PhaseFundServiceAddr,
	PhaseServiceConfirm,
	PhaseInitClient,
	PhaseFetchBoarding,
	PhaseFundBoardingAddr,
	PhaseBoardingConfirm,
	PhaseSettle,
}

// BootstrapResult is the outcome of a successful bootstrap run. Failed runs
// return an error instead; partial progress is never reported.
type BootstrapResult struct {
	Status          string        `json:"status"` // "ok" once every phase has run
	RunID           string        `json:"runId"`
	Pubkey          string        `json:"pubkey"`
	ServiceAddress  string        `json:"serviceAddress"`
	BoardingAddress string        `json:"boardingAddress"`
	Phases          []PhaseResult `json:"phases"`
}

// PhaseResult records a completed phase.
type PhaseResult struct {
	Name       Phase  `json:"name"`
	Status     string `json:"status"`
	Attempts   int    `json:"attempts,omitempty"` // polling phases only
	DurationMs int64  `json:"durationMs"`
}

// WalletStatus is parsed from the textual output of the wallet status command.
type WalletStatus struct {
	Initialized bool `json:"initialized"`
	Unlocked    bool `json:"unlocked"`
	Synced      bool `json:"synced"`
}

// Ready reports whether the wallet can be used. All three flags must hold at
// the same time.
func (s WalletStatus) Ready() bool {
	return s.Initialized && s.Unlocked && s.Synced
}

// ServerInfo is the subset of the service info response that is consumed.
type ServerInfo struct {
	Pubkey string `json:"pubkey"`
}

// RetryBudget bounds a single readiness poll.
type RetryBudget struct {
	MaxRetries int
	RetryDelay time.Duration
}

// InitParams are passed to the ark client init command.
type InitParams struct {
	ServerURL   string
	ExplorerURL string
	Password    string
	Network     string
}

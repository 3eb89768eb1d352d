package clients

import (
	"context"

	"arkboot/internal/config"
)

// subprocessRunner is the subset of *SubprocessRunner used by Settler.
type subprocessRunner interface {
	Run(ctx context.Context, label string, cmd Command) error
}

// Settler finalizes boarded funds by running the ark settle command as a
// long-lived child process.
type Settler struct {
	binary   string
	password string
	runner   subprocessRunner
}

func NewSettler(cfg config.NigiriConfig, password string, runner subprocessRunner) *Settler {
	return &Settler{
		binary:   cfg.Binary,
		password: password,
		runner:   runner,
	}
}

// Settle blocks until the settle process exits. It has no timeout.
func (s *Settler) Settle(ctx context.Context) error {
	return s.runner.Run(ctx, "settle", Command{
		Name: s.binary,
		Args: []string{"ark", "settle", "--password", s.password},
	})
}

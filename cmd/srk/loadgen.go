package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/ranklist/internal/loadgen"
	"github.com/okian/ranklist/pkg/logger"
)

// Default load run configuration.
const (
	defaultContests  = 4
	defaultUsers     = 100
	defaultProblems  = 12
	defaultSolutions = 5000
	defaultBatchSize = 50
	defaultTimeout   = 30 * time.Second
	defaultWait      = 2 * time.Minute
)

func newLoadgenCmd(g *globals) *cobra.Command {
	cfg := loadgen.Config{}
	cmd := &cobra.Command{
		Use:   "loadgen",
		Short: "Drive a running service with generated contests and verify the results",
		Long: `Create contests on a running ranklistd, submit generated solutions in
batches, wait for them to be applied and check that every served ranklist
matches a full regeneration from the solutions it records.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.InitWithFormat(cmd.ErrOrStderr(), "text"); err != nil {
				return err
			}
			if g.verbose {
				_ = logger.SetLevelString("debug")
			}
			_, err := loadgen.NewRunner(cfg, loadgen.WithLogger(logger.Named("loadgen"))).Run(cmd.Context())
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "base URL of the service")
	f.IntVar(&cfg.Contests, "contests", defaultContests, "contests driven concurrently")
	f.IntVar(&cfg.Users, "users", defaultUsers, "teams per contest")
	f.IntVar(&cfg.Problems, "problems", defaultProblems, "problems per contest")
	f.IntVar(&cfg.Solutions, "solutions", defaultSolutions, "solutions per contest")
	f.IntVar(&cfg.BatchSize, "batch", defaultBatchSize, "solutions per request")
	f.DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "HTTP request timeout")
	f.DurationVar(&cfg.Wait, "wait", defaultWait, "how long to wait for batches to be applied")
	f.Uint64Var(&cfg.Seed, "seed", uint64(time.Now().UnixNano()), "generator seed")
	f.StringVarP(&cfg.OutputDir, "output", "o", "", "write final documents to this directory")
	return cmd
}

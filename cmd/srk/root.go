package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/okian/ranklist/internal/adapters/repository"
	service "github.com/okian/ranklist/internal/app"
	"github.com/okian/ranklist/internal/domain/model"
	"github.com/okian/ranklist/internal/domain/scoring"
	"github.com/okian/ranklist/internal/domain/solutions"
	"github.com/okian/ranklist/pkg/duration"
	"github.com/okian/ranklist/pkg/logger"
)

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	penalty float64
	verbose bool
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "srk",
		Short:         "Standard ranklist toolkit",
		Long:          "Regenerate ICPC ranklists from the solutions they record and print their standings.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().Float64Var(&g.penalty, "penalty", 20, "penalty minutes per rejected try when the document sets none")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "log details to stderr")

	root.AddCommand(newRegenCmd(g))
	root.AddCommand(newShowCmd(g))
	root.AddCommand(newLoadgenCmd(g))
	return root
}

func (g *globals) logger(w io.Writer) (logger.Logger, error) {
	if !g.verbose {
		return logger.Nop(), nil
	}
	if err := logger.InitWithFormat(w, "text"); err != nil {
		return nil, err
	}
	if err := logger.SetLevelString("debug"); err != nil {
		return nil, err
	}
	return logger.Named("srk"), nil
}

func (g *globals) regenerator(l logger.Logger) *scoring.Regenerator {
	return scoring.NewRegenerator(
		scoring.WithLogger(l),
		scoring.WithDefaultPenalty(duration.New(g.penalty, duration.Minute)),
	)
}

// load reads path and, when asked, rebuilds it from its own solutions, cut off
// at until when one is given.
func (g *globals) load(ctx context.Context, cmd *cobra.Command, path string, regen bool, until string) (*model.Ranklist, logger.Logger, error) {
	l, err := g.logger(cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, err
	}
	rl, err := repository.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}
	r := g.regenerator(l)
	switch {
	case until != "":
		at, err := duration.Parse(until)
		if err != nil {
			return nil, nil, fmt.Errorf("--until: %w", err)
		}
		rl, err = service.Until(ctx, r, rl, at)
		if err != nil {
			return nil, nil, err
		}
	case regen:
		rl, err = r.Regenerate(ctx, rl, solutions.Extract(rl.Rows))
		if err != nil {
			return nil, nil, err
		}
	}
	return rl, l, nil
}

func writeOut(cmd *cobra.Command, path string, b []byte) error {
	if path == "" || path == "-" {
		_, err := cmd.OutOrStdout().Write(b)
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

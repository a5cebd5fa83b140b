package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

func newRegenCmd(g *globals) *cobra.Command {
	var (
		until  string
		out    string
		indent bool
	)
	cmd := &cobra.Command{
		Use:   "regen <ranklist.json>",
		Short: "Rebuild a ranklist from the solutions it records",
		Long: `Recompute every row's statuses and score, problem statistics and row order
from the solutions stored in the document. With --until only solutions
submitted at or before the given time (e.g. 4h, 150min) are counted.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rl, _, err := g.load(cmd.Context(), cmd, args[0], true, until)
			if err != nil {
				return err
			}
			var b []byte
			if indent {
				b, err = json.MarshalIndent(rl, "", "  ")
			} else {
				b, err = json.Marshal(rl)
			}
			if err != nil {
				return err
			}
			return writeOut(cmd, out, append(b, '\n'))
		},
	}
	cmd.Flags().StringVar(&until, "until", "", "only count solutions submitted up to this time")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write the document here instead of stdout")
	cmd.Flags().BoolVar(&indent, "indent", false, "indent the JSON output")
	return cmd
}

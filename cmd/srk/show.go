package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/okian/ranklist/internal/domain/model"
	"github.com/okian/ranklist/internal/domain/standings"
	"github.com/okian/ranklist/pkg/duration"
)

func newShowCmd(g *globals) *cobra.Command {
	var (
		until string
		regen bool
	)
	cmd := &cobra.Command{
		Use:   "show <ranklist.json>",
		Short: "Print the standings of a ranklist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rl, l, err := g.load(cmd.Context(), cmd, args[0], regen, until)
			if err != nil {
				return err
			}
			static := standings.NewConverter(standings.WithLogger(l)).Convert(cmd.Context(), rl)
			printStandings(cmd.OutOrStdout(), static)
			return nil
		},
	}
	cmd.Flags().StringVar(&until, "until", "", "show the standings as of this time")
	cmd.Flags().BoolVar(&regen, "regen", false, "regenerate from recorded solutions first")
	return cmd
}

func printStandings(w io.Writer, rl *model.StaticRanklist) {
	table := tablewriter.NewTable(w, tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))

	header := []any{"USER", "SOLVED", "PENALTY"}
	for i, s := range rl.Series {
		header = append(header, seriesTitle(s.Title, i))
	}
	table.Header(header...)

	for _, row := range rl.Rows {
		cells := []any{userLabel(row.User), strconv.Itoa(row.Score.Value), penaltyMinutes(row.Score)}
		for _, rv := range row.RankValues {
			cells = append(cells, rankCell(rv))
		}
		table.Append(cells...)
	}
	table.Render()
}

func seriesTitle(raw json.RawMessage, i int) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil && s != "" {
		return s
	}
	return "#" + strconv.Itoa(i+1)
}

func userLabel(u model.User) string {
	if name, ok := u.Field("name"); ok {
		return name
	}
	return u.Key()
}

func penaltyMinutes(s model.Score) string {
	if s.Time == nil {
		return "-"
	}
	return strconv.FormatFloat(duration.Convert(*s.Time, duration.Minute, duration.Floor).Value, 'f', -1, 64)
}

func rankCell(rv model.RankValue) string {
	if rv.Rank == nil {
		return "*"
	}
	if rv.SegmentIndex != nil {
		return fmt.Sprintf("%d (%d)", *rv.Rank, *rv.SegmentIndex)
	}
	return strconv.Itoa(*rv.Rank)
}

package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/roach88/genstore/internal/host"
	"github.com/roach88/genstore/internal/store"
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Show every slot, the current generation and applied migrations",
		Long: `Show the persisted version sequence without running an operation.

The current record is marked with '*'.`,
		GroupID:       groupState,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := opts.formatter(cmd)
			s, err := opts.open()
			if err != nil {
				return f.FailCall(err)
			}
			defer s.Close()

			st, err := s.runtime.Stats(cmd.Context())
			if err != nil {
				return f.FailCall(err)
			}
			return f.Render(st, func(w io.Writer) {
				writeSlots(w, st.Slots)
				fmt.Fprintf(w, "migrations: %s\n", listOrNone(st.Migrations))
			})
		},
	}
}

// StatsResult is the output of the stats command.
type StatsResult struct {
	host.Stats

	// Saves counts committed writes of the state key. Only SQLite tracks it.
	Saves int `json:"saves,omitempty"`
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "stats",
		Short:         "Summarize the persisted state: size, records and map entries",
		GroupID:       groupState,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := opts.formatter(cmd)
			s, err := opts.open()
			if err != nil {
				return f.FailCall(err)
			}
			defer s.Close()

			st, err := s.runtime.Stats(cmd.Context())
			if err != nil {
				return f.FailCall(err)
			}
			res := StatsResult{Stats: st}
			if sq, ok := s.store.(*store.Store); ok {
				res.Saves, err = saves(cmd.Context(), sq, opts.cfg.Store.Key)
				if err != nil {
					return f.FailCall(err)
				}
			}
			return f.Render(res, func(w io.Writer) {
				writeStats(w, res)
			})
		},
	}
}

func saves(ctx context.Context, s *store.Store, key string) (int, error) {
	infos, err := s.Snapshots(ctx)
	if err != nil {
		return 0, err
	}
	for _, info := range infos {
		if info.Key == key {
			return info.Saves, nil
		}
	}
	return 0, nil
}

func writeStats(w io.Writer, res StatsResult) {
	fmt.Fprintf(w, "version:    %s\n", res.Version)
	fmt.Fprintf(w, "records:    %d\n", res.Records)
	if res.MapLen < 0 {
		fmt.Fprintln(w, "map:        (gen-1 removed)")
	} else {
		fmt.Fprintf(w, "map:        %s entries\n", humanize.Comma(int64(res.MapLen)))
	}
	fmt.Fprintf(w, "size:       %s\n", humanize.Bytes(uint64(res.Bytes)))
	if res.Saves > 0 {
		fmt.Fprintf(w, "saves:      %d\n", res.Saves)
	}
	fmt.Fprintf(w, "migrations: %s\n", listOrNone(res.Migrations))
	fmt.Fprintf(w, "digest:     %s\n", res.Digest)
}

func listOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}

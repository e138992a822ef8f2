package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/roach88/genstore/internal/host"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Op    string
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List journaled calls, oldest first",
		Long: `List the calls journaled by the sqlite and leveldb backends.

Every call is journaled, including refused ones, with the digest of the
state it left behind.

Examples:
  genstore history
  genstore history --op set_name --limit 5`,
		GroupID:       groupState,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := opts.formatter(cmd)
			if opts.Limit < 0 {
				return f.Fail(ErrCodeUsage, ExitCommandError, fmt.Errorf("--limit must not be negative"))
			}

			s, err := opts.open()
			if err != nil {
				return f.FailCall(err)
			}
			defer s.Close()

			if s.history == nil {
				return f.Fail(ErrCodeNoJournal, ExitCommandError,
					errors.New("the "+opts.cfg.Store.Backend+" backend keeps no call journal"))
			}
			calls, err := s.history.Calls(cmd.Context(), opts.Op, opts.Limit)
			if err != nil {
				return f.FailCall(err)
			}
			if calls == nil {
				calls = []host.CallRecord{}
			}
			return f.Render(calls, func(w io.Writer) {
				writeHistory(w, calls)
			})
		},
	}

	cmd.Flags().StringVar(&opts.Op, "op", "", "only list calls of this operation")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "most recent calls to list (0 for all)")

	return cmd
}

func writeHistory(w io.Writer, calls []host.CallRecord) {
	if len(calls) == 0 {
		fmt.Fprintln(w, "No calls journaled.")
		return
	}
	var table = tablewriter.NewWriter(w)
	table.Header("Seq", "Op", "Caller", "Outcome", "Digest")
	for _, c := range calls {
		table.Append([]string{
			strconv.FormatInt(c.Seq, 10), c.Op, c.Caller, c.Outcome, shortDigest(c.Digest),
		})
	}
	table.Render()
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	if d == "" {
		return "-"
	}
	return d
}

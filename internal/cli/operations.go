package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/roach88/genstore/internal/dispatch"
	"github.com/roach88/genstore/internal/engine"
	"github.com/roach88/genstore/internal/host"
	"github.com/roach88/genstore/internal/schema"
	"github.com/roach88/genstore/internal/versions"
)

// NewOperationCommands creates one command per contract operation.
func NewOperationCommands(opts *RootOptions) []*cobra.Command {
	ops := engine.Operations()
	cmds := make([]*cobra.Command, 0, len(ops))
	for _, op := range ops {
		cmds = append(cmds, newOperationCommand(opts, op))
	}
	return cmds
}

func newOperationCommand(opts *RootOptions, op engine.Operation) *cobra.Command {
	var args engine.Args

	long := op.Short + "."
	if op.Mutating {
		long += "\n\nOnly the owner may call this; the new state is saved on success."
	}

	cmd := &cobra.Command{
		Use:           op.Name,
		Short:         op.Short,
		Long:          long,
		GroupID:       groupContract,
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

			out, err := s.runtime.Call(cmd.Context(), schema.Principal(opts.Caller), op.Name, opts.callArgs(args))
			if err != nil {
				return f.FailCall(err)
			}
			return renderOutcome(f, out)
		},
	}

	flags := cmd.Flags()
	for _, p := range op.Params {
		switch p {
		case "name":
			flags.StringVar(&args.Name, "name", "", "full name (first and last separated by a space)")
		case "color":
			flags.StringVar(&args.Color, "color", "", "favorite color")
		case "musician":
			flags.StringVar(&args.Musician, "musician", "", "favorite musician")
		case "pronoun":
			flags.StringVar(&args.Pronoun, "pronoun", "", "pronoun")
		case "key":
			flags.StringVar(&args.Key, "key", "", "auxiliary map key (a principal)")
			_ = cmd.MarkFlagRequired("key")
		case "value":
			flags.StringVar(&args.Value, "value", "", "auxiliary map value")
		case "index":
			flags.IntVar(&args.Index, "index", 0, "slot index")
		}
	}
	return cmd
}

// renderOutcome prints a call result and its log lines.
func renderOutcome(f *OutputFormatter, out host.Outcome) error {
	f.VerboseLog("op=%s bytes=%d digest=%s seq=%d", out.Op, out.Bytes, out.Digest, out.Seq)
	return f.Render(out, func(w io.Writer) {
		writeResult(w, out.Result)
		for _, line := range out.Logs {
			fmt.Fprintln(w, line)
		}
	})
}

func writeResult(w io.Writer, result any) {
	switch r := result.(type) {
	case nil:
		fmt.Fprintln(w, "ok")
	case []schema.Pair:
		if len(r) == 0 {
			fmt.Fprintln(w, "(empty)")
		}
		for _, p := range r {
			fmt.Fprintf(w, "%s\t%s\n", p.Key, p.Value)
		}
	case dispatch.Profile:
		fmt.Fprintf(w, "name:              %s\n", r.Name)
		fmt.Fprintf(w, "favorite_color:    %s\n", r.FavoriteColor)
		fmt.Fprintf(w, "favorite_musician: %s\n", r.FavoriteMusician)
	case schema.Account:
		fmt.Fprintf(w, "first_name: %s\n", r.FirstName)
		fmt.Fprintf(w, "last_name:  %s\n", r.LastName)
		fmt.Fprintf(w, "pronoun:    %s\n", r.Pronoun)
	case []versions.SlotInfo:
		writeSlots(w, r)
	default:
		fmt.Fprintln(w, r)
	}
}

func writeSlots(w io.Writer, slots []versions.SlotInfo) {
	var table = tablewriter.NewWriter(w)
	table.Header("Current", "Index", "Generation", "ID")
	for _, s := range slots {
		var marker string
		if s.Current {
			marker = "*"
		}
		table.Append([]string{marker, strconv.Itoa(s.Index), s.Label, string(s.ID)})
	}
	table.Render()
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/genstore/internal/schema"
)

// NewConstructCommand creates the construct command.
func NewConstructCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "construct <name>",
		Short: "Create the contract with a single gen-1 record",
		Long: `Create the contract state with one gen-1 record holding name and an
empty auxiliary map. Fails if state already exists under the store key.

Example:
  genstore --db ./state.db construct "Ada Lovelace"`,
		GroupID:       groupState,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			s, err := opts.open()
			if err != nil {
				return f.FailCall(err)
			}
			defer s.Close()

			out, err := s.runtime.Construct(cmd.Context(), schema.Principal(opts.Caller), opts.text(args[0]))
			if err != nil {
				return f.FailCall(err)
			}
			return renderOutcome(f, out)
		},
	}
}

package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/genstore/internal/config"
	"github.com/roach88/genstore/internal/engine"
	"github.com/roach88/genstore/internal/host"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"

	// Config is an optional CUE file. Flags below override its values.
	Config  string
	Backend string
	DB      string
	Key     string
	Owner   string

	// Caller is the principal issuing the call. Defaults to the owner.
	Caller string

	// NFC normalizes string arguments before they reach the contract.
	// Stored strings are otherwise kept byte for byte.
	NFC bool

	cfg    config.Config
	logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// ValidBackends defines the allowed byte stores.
var ValidBackends = []string{config.BackendSQLite, config.BackendLevelDB, config.BackendMemory}

// Command groups.
const (
	groupContract = "contract"
	groupState    = "state"
)

// NewRootCommand creates the root command for the genstore CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "genstore",
		Short: "genstore - schema-versioned contract state",
		Long: `A persistent store whose record format evolves across deployments.

State is an append-only sequence of tagged schema generations. Migrations
add later generations and retire earlier ones without a flag day, while the
fields of every present generation stay reachable.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.resolve(cmd)
		},
	}

	// Global flags
	pf := cmd.PersistentFlags()
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	pf.StringVar(&opts.Config, "config", "", "path to a CUE config file")
	pf.StringVar(&opts.Backend, "backend", config.BackendSQLite, "byte store (sqlite|leveldb|memory)")
	pf.StringVar(&opts.DB, "db", "genstore.db", "path to the database file or directory")
	pf.StringVar(&opts.Key, "state-key", host.DefaultKey, "store key the state lives under")
	pf.StringVar(&opts.Owner, "owner", "genstore.near", "principal that owns the contract")
	pf.StringVar(&opts.Caller, "caller", "", "principal issuing the call (default: owner)")
	pf.BoolVar(&opts.NFC, "nfc", false, "normalize string arguments to Unicode NFC before the call")

	cmd.AddGroup(
		&cobra.Group{ID: groupContract, Title: "Contract Operations:"},
		&cobra.Group{ID: groupState, Title: "State Commands:"},
	)

	cmd.AddCommand(NewConstructCommand(opts))
	for _, cc := range NewOperationCommands(opts) {
		cmd.AddCommand(cc)
	}
	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewScenarioCommand(opts))

	return cmd
}

// resolve validates flags, merges them over the config file and sets up
// logging.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	f := o.formatter(cmd)
	if !slices.Contains(ValidFormats, o.Format) {
		// The formatter can't honor an invalid format, so report as text.
		f.Format = "text"
		return f.Fail(ErrCodeUsage, ExitCommandError,
			fmt.Errorf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}

	cfg := config.Default()
	if o.Config != "" {
		loaded, err := config.Load(o.Config)
		if err != nil {
			return f.Fail(ErrCodeConfig, ExitCommandError, err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Store.Backend = o.Backend
	}
	if flags.Changed("db") {
		cfg.Store.Path = o.DB
	}
	if flags.Changed("state-key") {
		cfg.Store.Key = o.Key
	}
	if flags.Changed("owner") {
		cfg.Owner = o.Owner
	}
	if cfg.Owner == "" || cfg.Store.Key == "" {
		return f.Fail(ErrCodeUsage, ExitCommandError, fmt.Errorf("owner and key must not be empty"))
	}
	if !slices.Contains(ValidBackends, cfg.Store.Backend) {
		return f.Fail(ErrCodeUsage, ExitCommandError,
			fmt.Errorf("invalid backend %q: must be one of %v", cfg.Store.Backend, ValidBackends))
	}
	if o.Caller == "" {
		o.Caller = cfg.Owner
	}

	o.cfg = cfg
	o.logger = newLogger(cmd.ErrOrStderr(), cfg, o.Verbose)
	return nil
}

// newLogger builds the slog handler from config. --verbose forces debug.
func newLogger(w io.Writer, cfg config.Config, verbose bool) *slog.Logger {
	level := cfg.Level()
	if verbose {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	if cfg.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// text applies the --nfc setting to one argument.
func (o *RootOptions) text(s string) string {
	if !o.NFC {
		return s
	}
	return norm.NFC.String(s)
}

// callArgs applies the --nfc setting to every string argument.
func (o *RootOptions) callArgs(a engine.Args) engine.Args {
	a.Name = o.text(a.Name)
	a.Color = o.text(a.Color)
	a.Musician = o.text(a.Musician)
	a.Pronoun = o.text(a.Pronoun)
	a.Key = o.text(a.Key)
	a.Value = o.text(a.Value)
	return a
}

package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/roach88/perfumery/internal/config"
	"github.com/roach88/perfumery/internal/model"
	"github.com/roach88/perfumery/internal/routes"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	EnvFile    string
	APIURL     string
	DBPath     string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

func (o *RootOptions) bind(fs *pflag.FlagSet) {
	fs.BoolVarP(&o.Verbose, "verbose", "v", false, "verbose output and debug logging")
	fs.StringVar(&o.Format, "format", "text", "output format (json|text)")
	fs.StringVar(&o.ConfigPath, "config", "", "YAML config file")
	fs.StringVar(&o.EnvFile, "env-file", ".env", "dotenv file, skipped when missing")
	fs.StringVar(&o.APIURL, "api-url", "", "API base URL (overrides PERFUMERY_API_URL)")
	fs.StringVar(&o.DBPath, "db", "", "local state database (overrides PERFUMERY_DB_PATH)")
}

// parseGlobal reads the global flags out of args before the command tree
// exists. Unknown flags belong to subcommands and are ignored here.
func parseGlobal(args []string) *RootOptions {
	opts := &RootOptions{}
	fs := pflag.NewFlagSet("perfumery", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	opts.bind(fs)
	fs.BoolP("help", "h", false, "")
	_ = fs.Parse(args) // cobra reports flag errors on the real parse
	return opts
}

// loadConfig resolves the configuration and applies flag overrides.
func loadConfig(opts *RootOptions) (config.Config, error) {
	cfg, err := config.Load(config.Sources{File: opts.ConfigPath, EnvFile: opts.EnvFile})
	if err != nil {
		return config.Config{}, err
	}
	if opts.APIURL != "" {
		cfg.APIURL = opts.APIURL
	}
	if opts.DBPath != "" {
		cfg.DBPath = opts.DBPath
	}
	if opts.Verbose {
		cfg.LogLevel = "debug"
	}
	if err := config.Validate(cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// Execute runs the CLI and returns the process exit code.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	return execute(ctx, args, stdout, stderr)
}

func execute(ctx context.Context, args []string, stdout, stderr io.Writer, appOpts ...AppOption) int {
	opts := parseGlobal(args)
	formatter := &OutputFormatter{Format: opts.Format, Writer: stdout, ErrWriter: stderr, Verbose: opts.Verbose}
	if !isValidFormat(opts.Format) {
		formatter.Format = "text"
		return formatter.Report(usageError("invalid format %q: must be one of %v", opts.Format, ValidFormats))
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return formatter.Report(&ExitError{Code: ExitCommandError, ErrCode: ErrCodeConfig, Message: "load configuration", Err: err})
	}

	app, err := Open(ctx, cfg, appOpts...)
	if err != nil {
		return formatter.Report(err)
	}
	app.Validate(ctx)

	root := NewRootCommand(app, opts)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	runErr := checkMounted(root, app, args)
	if runErr == nil {
		runErr = root.ExecuteContext(ctx)
	}

	if err := app.Close(ctx); err != nil && runErr == nil {
		runErr = &ExitError{Code: ExitCommandError, ErrCode: ErrCodeStore, Message: "save local state", Err: err}
	}
	return formatter.Report(runErr)
}

// valueFlags are the global flags that take a separate value argument.
var valueFlags = map[string]bool{
	"--format": true, "--config": true, "--env-file": true, "--api-url": true, "--db": true,
}

// checkMounted rejects a command that exists in some tree but not in the
// one mounted for this session.
func checkMounted(root *cobra.Command, app *App, args []string) error {
	if _, _, err := root.Find(args); err == nil {
		return nil
	}
	name := ""
	for i := 0; i < len(args); i++ {
		a := args[i]
		if valueFlags[a] {
			i++
			continue
		}
		if !strings.HasPrefix(a, "-") {
			name = a
			break
		}
	}
	for _, t := range routes.Trees() {
		if t.Has(name) {
			tree := app.Tree()
			return usageError("%q is not offered to the %s tree (role %s)", name, tree.Name, tree.Role)
		}
	}
	return nil
}

// builders maps a route path to its command constructor.
var builders = map[string]func(*App, *RootOptions) *cobra.Command{
	"auth":       newAuthCommand,
	"perfumes":   newPerfumesCommand,
	"categories": newCategoriesCommand,
	"cart":       newCartCommand,
	"checkout":   newCheckoutCommand,
	"orders":     newOrdersCommand,
	"refunds":    newRefundsCommand,
	"reviews":    newReviewsCommand,
	"wishlist":   newWishlistCommand,
	"account":    newAccountCommand,
	"products":   newProductsCommand,
	"discounts":  newDiscountsCommand,
}

// NewRootCommand creates the root command with the route tree of the
// app's current session mounted.
func NewRootCommand(app *App, opts *RootOptions) *cobra.Command {
	tree := app.Tree()

	cmd := &cobra.Command{
		Use:   "perfumery",
		Short: "Perfumery storefront client",
		Long: fmt.Sprintf(`Browse the perfume catalog, keep a basket in sync with your account and
place orders from the terminal.

Signed-in role decides which commands are offered; this session sees the
%s tree.`, tree.Name),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return usageError("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	opts.bind(cmd.PersistentFlags())
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError("%v", err)
	})

	for _, r := range tree.Routes {
		build, ok := builders[r.Path]
		if !ok {
			continue
		}
		sub := build(app, opts)
		sub.Short = r.Summary
		cmd.AddCommand(sub)
	}
	cmd.AddCommand(newMenuCommand(app, opts))

	return cmd
}

func newMenuCommand(app *App, opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Show the commands offered to this session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := newFormatter(opts, cmd)
			tree := app.Tree()
			return f.Emit(menuView{Role: tree.Role, Name: tree.Name, Routes: tree.Routes}, func() {
				fmt.Fprint(f.Writer, tree.Render())
			})
		},
	}
}

type menuView struct {
	Role   model.Role     `json:"role"`
	Name   string         `json:"name"`
	Routes []routes.Route `json:"routes"`
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// exactArgs is cobra.ExactArgs reporting a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return usageError("usage: %s", cmd.UseLine())
		}
		return nil
	}
}

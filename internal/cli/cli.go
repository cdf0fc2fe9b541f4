package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"i18nextract/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version is the tool version, set at build time with -ldflags.
var Version = "dev"

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "i18nextract",
		Short: "Extract translatable messages into a .pot template",
		Long: `Extracts all findable message strings from Python modules, page
templates, ZCML and YAML declarations below a search path and writes them
to <domain>.pot.

Python files contribute every marker call regardless of domain unless
--verify-domain is given. Templates and configuration only contribute
strings of the requested domain.`,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, cancel := setupContext(cmd.Context())
			defer cancel()
			return runExtract(ctx, cfg)
		},
	}

	f := rootCmd.Flags()
	f.StringP("path", "p", "", "directory searched for modules (i.e. 'src'), required")
	f.StringP("site-zcml", "s", "", "root ZCML file to parse (typically 'site.zcml')")
	f.StringP("domain", "d", "zope", "translation domain to extract")
	f.BoolP("exclude-default-domain", "e", false, "drop template strings whose domain could not be determined")
	f.StringP("output-dir", "o", "", "directory, relative to the search path, for the output template")
	f.StringArrayP("exclude", "x", nil, "file or directory glob to exclude, may be repeated")
	f.Bool("python-only", false, "only extract message ids from Python")
	f.String("header-template", "", "file with a custom template header")
	f.String("marker", "_", "name of the function marking translatable text")
	f.String("keyword", "mapping", "keyword argument after which no text is collected")
	f.Bool("verify-domain", false, "skip Python modules whose message factory is bound to another domain")
	f.String("charset", "UTF-8", "output charset")
	f.Bool("pass-non-ascii", false, "write non-ASCII characters unescaped")
	f.Bool("strict-defaults", false, "fail when a message is seen with two different default texts")
	f.Int("workers", 1, "number of Python files scanned concurrently")
	f.String("template-pattern", "*.pt", "file name glob of page templates")
	f.String("yaml-pattern", "*.i18n.yaml", "file name glob of YAML declarations")
	f.Bool("watch", false, "extract again whenever a source file changes")
	f.Bool("record", false, "record the run in PostgreSQL")
	f.Bool("graph", false, "export the message graph to Neo4j")

	rootCmd.PersistentFlags().String("config", "", "config file (default .i18nextract.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd())
	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "i18nextract %s\n", Version)
		},
	}
}

// unbound flags are not configuration keys.
var unbound = map[string]bool{
	"config":                 true,
	"help":                   true,
	"exclude-default-domain": true,
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := viper.New()
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if unbound[f.Name] || bindErr != nil {
			return
		}
		if err := v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f); err != nil {
			bindErr = fmt.Errorf("bind flag %s: %w", f.Name, err)
		}
	})
	if bindErr != nil {
		return nil, bindErr
	}

	// Loading logs at debug level; honour the flag or env level before it.
	if err := setLogLevel(earlyLogLevel(cmd)); err != nil {
		return nil, err
	}

	file, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(v, file)
	if err != nil {
		return nil, err
	}
	if exclude, _ := cmd.Flags().GetBool("exclude-default-domain"); exclude {
		cfg.IncludeDefaultDomain = false
	}

	if err := setLogLevel(cfg.LogLevel); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func earlyLogLevel(cmd *cobra.Command) string {
	f := cmd.Flags().Lookup("log-level")
	if !f.Changed {
		if env := os.Getenv(config.EnvPrefix + "_LOG_LEVEL"); env != "" {
			return env
		}
	}
	return f.Value.String()
}

func setLogLevel(s string) error {
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	zerolog.SetGlobalLevel(level)
	return nil
}

// setupContext creates a cancellable context with signal handling.
func setupContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
			log.Warn().Msg("Received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}

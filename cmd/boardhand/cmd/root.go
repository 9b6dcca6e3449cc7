package cmd

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmcleod/boardhand/internal/config"
)

// Version is overridden at build time with -ldflags "-X".
var Version = "dev"

// globalFlags holds the persistent flags shared by every subcommand. Empty
// values leave the environment configuration untouched.
type globalFlags struct {
	baseURL   string
	dataDir   string
	store     string
	redisAddr string
	verbose   bool
}

// NewRootCmd builds the command tree. Each call returns an independent tree
// so tests can run commands side by side.
func NewRootCmd() *cobra.Command {
	var flags globalFlags
	a := &app{}

	root := &cobra.Command{
		Use:   "boardhand",
		Short: "boardhand is a command line client for the boards API",
		Long: `A command line client for the boards API: log in, manage boards and
read quality metrics. The session survives between runs in the data directory.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			applyFlags(cmd, &cfg, flags)
			if err := cfg.Validate(); err != nil {
				return err
			}
			a.cfg = cfg
			a.out = cmd.OutOrStdout()
			a.logger = newLogger(cmd.ErrOrStderr(), flags.verbose)
			return nil
		},
	}
	root.Version = Version

	pf := root.PersistentFlags()
	pf.StringVar(&flags.baseURL, "base-url", "", "Backend base URL (env BOARDHAND_BASE_URL)")
	pf.StringVar(&flags.dataDir, "data-dir", "", "Directory for the persisted session (env BOARDHAND_DATA_DIR)")
	pf.StringVar(&flags.store, "store", "", "Session store: bolt, redis, memory or none (env BOARDHAND_STORE)")
	pf.StringVar(&flags.redisAddr, "redis-addr", "", "Redis address for --store=redis (env BOARDHAND_REDIS_ADDR)")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newLoginCmd(a),
		newLogoutCmd(a),
		newWhoamiCmd(a),
		newBoardsCmd(a),
		newMetricsCmd(a),
		newRegisterCmd(a),
		newMockServerCmd(a),
	)
	return root
}

func applyFlags(cmd *cobra.Command, cfg *config.Config, flags globalFlags) {
	pf := cmd.Flags()
	if pf.Changed("base-url") {
		cfg.BaseURL = flags.baseURL
	}
	if pf.Changed("data-dir") {
		cfg.DataDir = flags.dataDir
	}
	if pf.Changed("store") {
		cfg.StoreBackend = flags.store
	}
	if pf.Changed("redis-addr") {
		cfg.RedisAddr = flags.redisAddr
	}
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

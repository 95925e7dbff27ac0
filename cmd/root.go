// File: cmd/root.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/notefill/internal/config"
	"github.com/xkilldash9x/notefill/internal/observability"
)

// appHolder carries the app across command invocations. One-shot execution
// uses a fresh holder; the interactive shell keeps one for its lifetime.
type appHolder struct {
	cfgFile string
	app     *app
}

// ensure loads configuration and builds the app on first use.
func (h *appHolder) ensure() error {
	if h.app != nil {
		return nil
	}
	v, cfg, err := loadConfig(h.cfgFile)
	if err != nil {
		observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "notefill"})
		return err
	}

	observability.InitializeLogger(cfg.Logger())
	logger := observability.GetLogger()
	logger.Debug("Starting notefill", zap.String("version", Version), zap.String("config", v.ConfigFileUsed()))

	a, err := newApp(v, cfg, logger)
	if err != nil {
		return err
	}
	h.app = a
	return nil
}

func (h *appHolder) close() {
	if h.app != nil {
		h.app.Close()
		h.app = nil
	}
	observability.Sync()
}

// loadConfig reads config.{yaml,json} from the flag, the working directory or
// ~/.notefill, then applies NOTEFILL_ environment overrides.
func loadConfig(cfgFile string) (*viper.Viper, *config.Config, error) {
	v := viper.New()
	config.SetDefaults(v)

	if cfgFile != "" {
		path, err := homedir.Expand(cfgFile)
		if err != nil {
			return nil, nil, fmt.Errorf("expanding config path: %w", err)
		}
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		if dir, err := homedir.Expand("~/.notefill"); err == nil {
			v.AddConfigPath(dir)
		}
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("NOTEFILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg, err := config.NewConfigFromViper(v)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load or validate config: %w", err)
	}
	return v, cfg, nil
}

// NewRootCommand builds a fresh command tree.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&appHolder{})
}

func newRootCommand(h *appHolder) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "notefill",
		Short:         "Fills commemorative-note reservation forms in already-open browsers.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return h.ensure()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&h.cfgFile, "config", "c", h.cfgFile, "config file (default is ./config.yaml or ~/.notefill/config.yaml)")
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	rootCmd.AddCommand(
		newConnectCmd(h),
		newDisconnectCmd(h),
		newFillCmd(h),
		newRunCmd(h),
		newStatusCmd(h),
		newInspectCmd(h),
		newIdentityCmd(h),
		newLocationCmd(h),
		newBankCmd(h),
		newQuantityCmd(h),
		newLogsCmd(h),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs one command line and releases every connection afterwards.
func Execute(ctx context.Context) error {
	h := &appHolder{}
	defer h.close()

	rootCmd := newRootCommand(h)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		observability.GetLogger().Error("Command execution failed", zap.Error(err))
		return err
	}
	return nil
}

// Shell runs successive command lines against one long-lived app, so
// connections made by one line are still there for the next.
type Shell struct {
	holder *appHolder
}

// NewShell creates an interactive shell. cfgFile may be empty.
func NewShell(cfgFile string) *Shell {
	return &Shell{holder: &appHolder{cfgFile: cfgFile}}
}

// Exec runs one line. Errors are returned for the caller to print. A
// --config flag only matters before the first command has loaded the app.
func (s *Shell) Exec(ctx context.Context, args []string) error {
	rootCmd := newRootCommand(s.holder)
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// Close releases every connection.
func (s *Shell) Close() {
	s.holder.close()
}

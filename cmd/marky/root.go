package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"marky/internal/config"
	"marky/internal/dispatch"
	"marky/internal/errors"
	"marky/internal/gui"
	"marky/internal/log"
	"marky/internal/markdown"
	"marky/internal/tui"
	"marky/internal/watch"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	cfgFile string
	cfg     *config.Config

	// guiAvailable is replaced in tests
	guiAvailable = gui.IsGUIAvailable
)

type rootFlags struct {
	debug         bool
	terminal      bool
	nativeDialogs bool
	logFile       string
}

// useTerminal reports whether the terminal front end runs, either because
// it was asked for or because this build or session has no window system.
func (f rootFlags) useTerminal() bool {
	return f.terminal || !guiAvailable()
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	var flags rootFlags

	rootCmd := &cobra.Command{
		Use:     "marky [file]",
		Short:   "A small markdown editor",
		Long:    `marky edits text and markdown files in tabs, with a live preview of the rendered markdown.`,
		Version: version,
		Args:    cobra.MaximumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var configErr error
			if cfgFile != "" {
				cfg, configErr = config.LoadConfigFile(cfgFile)
			} else {
				cfg, configErr = config.LoadConfig()
			}
			if configErr != nil {
				reason := "cannot read configuration"
				if errors.IsInvalidConfig(configErr) {
					reason = "invalid configuration"
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s: %v\n", reason, configErr)
				fmt.Fprintln(cmd.ErrOrStderr(), "Using default settings.")
				cfg = config.New()
			}

			setupLogging(flags, flags.useTerminal())
			markdown.SetCodeStyle(cfg.Preview.CodeStyle)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				abs, err := filepath.Abs(args[0])
				if err != nil {
					return fmt.Errorf("invalid path %q: %w", args[0], err)
				}
				path = abs
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if flags.useTerminal() {
				return runTUI(ctx, path)
			}
			return gui.Run(ctx, cfg, gui.Options{Path: path, NativeDialogs: flags.nativeDialogs})
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/marky/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flags.logFile, "log-file", "", "append log output to this file")
	rootCmd.Flags().BoolVarP(&flags.terminal, "tui", "t", false, "run in the terminal instead of opening a window")
	rootCmd.Flags().BoolVar(&flags.nativeDialogs, "native-dialogs", false, "use the operating system file dialogs")

	rootCmd.AddCommand(NewConfigCmd())

	return rootCmd
}

// NewConfigCmd prints the effective configuration.
func NewConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return fmt.Errorf("encoding config: %w", err)
			}
			return enc.Close()
		},
	}
}

// setupLogging sends logs to stderr for the window and to a file for the
// terminal front end, where stderr would corrupt the screen. It returns the
// log file in use, if any.
func setupLogging(flags rootFlags, terminal bool) string {
	log.SetDebug(flags.debug || config.Debug())

	path := flags.logFile
	if terminal && path == "" {
		if dir, err := os.UserCacheDir(); err == nil {
			dir = filepath.Join(dir, "marky")
			if err := os.MkdirAll(dir, 0o755); err == nil {
				path = filepath.Join(dir, "marky.log")
			}
		}
	}

	var opts []log.Option
	if terminal {
		opts = append(opts, log.WithOutput(io.Discard))
	}
	if path != "" {
		opts = append(opts, log.WithFile(path))
	}
	log.Configure(opts...)
	return path
}

func runTUI(ctx context.Context, path string) error {
	opts := []tui.Option{tui.WithPath(path)}

	watcher, err := watch.NewStarted()
	if err != nil {
		log.LogError(err, "File watching disabled")
	} else {
		defer watcher.Stop()
		opts = append(opts, tui.WithWatcher(watcher))
	}

	m := tui.New(ctx, cfg, opts...)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if watcher != nil {
		go watch.Forward(watcher, func(msg dispatch.Message) { p.Send(msg) })
	}

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("running terminal UI: %w", err)
	}
	return nil
}

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rancher/autorebase-action/internal/app"
)

type options struct {
	configFile string
	dryRun     bool
	logLevel   string
	workDir    string
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := app.ExitSuccess
	cmd := newRootCommand(&code)
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(ctx); err != nil {
		return app.ExitConfiguration
	}
	return code
}

func newRootCommand(code *int) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "autorebase-action",
		Short:         "Merge or rebase a pull request based on its automerge/autorebase label",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				log.Printf("failed to load config: %v", err)
				*code = app.ExitConfiguration
				return nil
			}

			runner, err := app.NewRunner(cfg)
			if err != nil {
				log.Printf("failed to create runner: %v", err)
				*code = app.ExitConfiguration
				return nil
			}

			result, err := runner.Run(cmd.Context())
			if err != nil {
				log.Printf("autorebase action failed: %v", err)
			}
			*code = app.ExitCode(result, err, cfg.NeutralExitCode)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.configFile, "config", "", "path to a TOML configuration file (defaults to INPUT_CONFIG_FILE)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "run everything except pushes and merges")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")
	cmd.Flags().StringVar(&opts.workDir, "workdir", "", "directory under which the temporary clone is created")

	return cmd
}

// loadConfig reads the action configuration and applies flags the user set explicitly.
func loadConfig(cmd *cobra.Command, opts options) (app.Config, error) {
	cfg, err := app.LoadConfig(opts.configFile)
	if err != nil {
		return app.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("dry-run") {
		cfg.DryRun = opts.dryRun
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if flags.Changed("workdir") {
		cfg.WorkDir = opts.workDir
	}

	if err := cfg.Validate(); err != nil {
		return app.Config{}, err
	}
	return cfg, nil
}

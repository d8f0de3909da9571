// Command checkindesk serves the hotel guest check-in form and the
// submissions viewer, and manages the stored submissions from the shell.
package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/parisxmas/checkindesk/internal/config"
)

const (
	Version = "0.1.0"
	appName = "checkindesk"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath string
	logLevel   string
}

func rootCmd() *cobra.Command {
	g := &globalFlags{}

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Hotel guest check-in desk",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `CheckinDesk captures hotel guest check-in submissions, validates every
field and keeps them in a single collection that can be listed, searched,
deleted, exported and imported.

Configuration comes from .env, an optional YAML file and environment
variables (HTTP_ADDR, STORE_BACKEND, STORAGE_KEY, ...).`,
	}

	cmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		serveCmd(g),
		listCmd(g),
		exportCmd(g),
		importCmd(g),
		deleteCmd(g),
		clearCmd(g),
		validateCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
			},
		},
	)
	return cmd
}

// open loads configuration and wires the app for one command.
func (g *globalFlags) open(ctx context.Context) (*app, error) {
	if g.configPath != "" {
		if err := os.Setenv("CHECKINDESK_CONFIG", g.configPath); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return newApp(ctx, cfg, g.logLevel)
}

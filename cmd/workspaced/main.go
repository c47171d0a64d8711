// Package main provides the workspaced entry point: a sidecar service that
// exposes file, search, and command operations on sibling containers over
// HTTP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/shipable/workspaced/internal/config"
	"github.com/shipable/workspaced/internal/envfile"
	"github.com/shipable/workspaced/internal/exec"
	"github.com/shipable/workspaced/internal/export"
	"github.com/shipable/workspaced/internal/fileops"
	"github.com/shipable/workspaced/internal/health"
	"github.com/shipable/workspaced/internal/runtime"
	"github.com/shipable/workspaced/internal/search"
	"github.com/shipable/workspaced/internal/server"
	"github.com/shipable/workspaced/internal/vpath"
)

var (
	configPath string
	listenAddr string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "workspaced",
	Short: "Workspace sidecar for agent-driven container management",
	Long: `workspaced runs next to the application containers of a workspace and
exposes an HTTP API for inspecting and mutating them: command execution
with safety filtering, file operations, two-phase search, logs, health,
and project export.`,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the service version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(server.Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath, "Path to JSON config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address (overrides config)")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(serveCmd, versionCmd)
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(os.Stderr).
		Level(level).
		With().
		Timestamp().
		Str("service", "workspaced").
		Logger()
}

func serve() error {
	log := newLogger()

	cfg, err := config.NewLoader().Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if listenAddr != "" {
		cfg.Server.ListenAddr = listenAddr
	}

	rt, err := runtime.NewDockerRuntime(log.With().Str("component", "runtime").Logger())
	if err != nil {
		return fmt.Errorf("connect to container runtime: %w", err)
	}

	filter := exec.NewCommandFilter(cfg.Exec.DenyCommands, cfg.Exec.DenyFragments)
	executor := exec.New(rt, filter, cfg, log.With().Str("component", "exec").Logger())
	resolver := vpath.NewResolver(cfg.Containers.Names)
	files := fileops.NewService(executor, resolver, log.With().Str("component", "fileops").Logger())
	searcher := search.NewSearcher(executor, files, resolver, cfg, log.With().Str("component", "search").Logger())
	env := envfile.NewStore(cfg.Workspace.EnvFile)
	exporter := export.NewExporter(cfg, log.With().Str("component", "export").Logger())
	checker := health.NewChecker(rt, cfg, server.Version, log.With().Str("component", "health").Logger())

	srv := server.New(cfg, server.Deps{
		Executor:   executor,
		Files:      files,
		Searcher:   searcher,
		Env:        env,
		Exporter:   exporter,
		Checker:    checker,
		Containers: rt,
	}, log.With().Str("component", "server").Logger())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("version", server.Version).
		Str("addr", cfg.Server.ListenAddr).
		Strs("containers", cfg.Containers.Names).
		Msg("starting workspaced")

	start := time.Now()
	if err := srv.Run(ctx); err != nil {
		return err
	}
	log.Info().Dur("uptime", time.Since(start)).Msg("workspaced stopped")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

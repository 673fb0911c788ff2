package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"chatrelay/internal/config"
	"chatrelay/internal/metrics"
	"chatrelay/internal/server"
	"chatrelay/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Start the chat relay HTTP server with the specified configuration.`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	flags := serveCmd.Flags()

	// Server flags
	flags.StringP("host", "H", "0.0.0.0", "server host")
	flags.IntP("port", "p", 8080, "server port")
	flags.String("mode", "release", "server mode (debug/release/test)")

	// Generation flags
	flags.String("base-url", "", "generation service base url (env: GENERATION_BASE_URL)")
	flags.Duration("timeout", 0, "generation request timeout (default 30s)")
	flags.String("prompt-mode", "", "prompt mode (message/transcript)")

	// Log flags
	flags.String("log-level", "info", "log level (trace/debug/info/warn/error/fatal)")
	flags.String("log-format", "json", "log format (json/console)")

	// Bind flags to viper
	_ = viper.BindPFlag("server.host", flags.Lookup("host"))
	_ = viper.BindPFlag("server.port", flags.Lookup("port"))
	_ = viper.BindPFlag("server.mode", flags.Lookup("mode"))
	_ = viper.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("log.format", flags.Lookup("log-format"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	applyGenerationFlags(cmd, &cfg.Generation)

	// Validate config
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	metrics.SetBuildInfo(version.Version, version.Commit, version.Date)

	// Create server
	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// Graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
		cancel()
	}()

	// Start server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info().
		Str("addr", addr).
		Str("mode", cfg.Server.Mode).
		Str("version", version.Version).
		Msg("starting server")

	return srv.Run(ctx, addr)
}

// applyGenerationFlags 显式传入的生成服务参数优先于配置文件与环境变量
func applyGenerationFlags(cmd *cobra.Command, gen *config.GenerationConfig) {
	flags := cmd.Flags()
	if flags.Changed("base-url") {
		gen.BaseURL, _ = flags.GetString("base-url")
	}
	if flags.Changed("timeout") {
		gen.Timeout, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("prompt-mode") {
		gen.PromptMode, _ = flags.GetString("prompt-mode")
	}
}

package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/anatolykoptev/go-mcpserver"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_transcript/internal/config"
	"github.com/anatolykoptev/go_transcript/internal/engine"
	"github.com/anatolykoptev/go_transcript/internal/toolserver"
)

const serverName = "go_transcript"

func newServeCommand(cc *commandContext) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP tool server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := cc.cfg
			if cmd.Flags().Changed("port") {
				cfg.Serve.Port = port
			}
			// The server always reports startup and tool calls.
			if cfg.SlogLevel() > slog.LevelInfo && !cc.verbose {
				setupLogger(cmd.ErrOrStderr(), slog.LevelInfo, false)
			}

			svc, err := cc.deps.newService(cfg)
			if err != nil {
				return err
			}
			engine.InitCache(cfg.Cache.RedisURL, cfg.CacheTTL(), cfg.Cache.MaxEntries, 5*time.Minute)

			server := mcp.NewServer(&mcp.Implementation{
				Name:    serverName,
				Version: version,
			}, nil)
			n := toolserver.RegisterTools(server, svc, serveOptions(cfg))

			slog.Info("starting "+serverName,
				slog.String("port", cfg.Serve.Port),
				slog.Int("tools", n),
				slog.String("client", cfg.Network.Client),
			)
			if err := mcpserver.Run(server, mcpserver.Config{
				Name:         serverName,
				Version:      version,
				Port:         cfg.Serve.Port,
				WriteTimeout: 120 * time.Second,
				Metrics:      engine.FormatMetrics,
			}); err != nil {
				return fmt.Errorf("server failed: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "HTTP port (default from serve.port / MCP_PORT)")
	return cmd
}

// serveOptions applies the configured retries, falling back to the server default.
func serveOptions(cfg *config.Config) toolserver.Options {
	retry := engine.DefaultRetryConfig
	if cfg.Network.Retries > 0 {
		retry.MaxRetries = cfg.Network.Retries
	}
	return toolserver.Options{Retry: retry, Timeout: cfg.Timeout()}
}

func newConfigCommand(cc *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}
	configCmd.AddCommand(newConfigInitCommand(), newConfigShowCommand(cc))
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if target == "" {
				def, err := config.DefaultConfigPath()
				if err != nil {
					return fmt.Errorf("determine default config path: %w", err)
				}
				target = def
			}
			if err := config.WriteSample(target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", target)
			return nil
		},
	}
	cmd.Flags().StringVarP(&target, "path", "p", "", "Destination for the configuration file")
	return cmd
}

func newConfigShowCommand(cc *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Validate and print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := *cc.cfg
			if cfg.Network.WebshareAPIKey != "" {
				cfg.Network.WebshareAPIKey = "***"
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Configuration valid")
			rows := [][]string{
				{"defaults.language", cfg.Defaults.Language},
				{"defaults.format", cfg.Defaults.Format},
				{"defaults.timestamps", fmt.Sprint(cfg.Defaults.Timestamps)},
				{"defaults.output_dir", cfg.Defaults.OutputDir},
				{"network.timeout", cfg.Timeout().String()},
				{"network.requests_per_second", fmt.Sprint(cfg.Network.RequestsPerSecond)},
				{"network.retries", fmt.Sprint(cfg.Network.Retries)},
				{"network.stealth", fmt.Sprint(cfg.Network.Stealth)},
				{"network.webshare_api_key", cfg.Network.WebshareAPIKey},
				{"network.client", cfg.Network.Client},
				{"network.hl", cfg.Network.HL},
				{"cache.redis_url", cfg.Cache.RedisURL},
				{"cache.ttl", cfg.CacheTTL().String()},
				{"serve.port", cfg.Serve.Port},
				{"logging.level", cfg.Logging.Level},
			}
			fmt.Fprintln(out, renderTable([]string{"Key", "Value"}, rows))
			return nil
		},
	}
}

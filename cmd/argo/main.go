package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/argo-mcp/argo/internal/api"
	"github.com/argo-mcp/argo/internal/app"
	"github.com/argo-mcp/argo/internal/config"
	"github.com/argo-mcp/argo/internal/logger"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:   "argo",
		Short: "Argo — an MCP tool-server runtime",
		Long:  "Argo exposes a registry of tools over JSON-RPC/HTTP and runs long-running tool calls through an async task executor.",
	}

	root.AddCommand(
		serveCmd(),
		toolsCmd(),
		configCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --- argo serve ---

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP tool-server HTTP API",
		RunE:  runServe,
	}
	cmd.Flags().String("addr", "", "listen address (default from config)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	addrFlag, _ := cmd.Flags().GetString("addr")
	if addrFlag != "" {
		cfg.HTTPAddr = addrFlag
	}

	a, err := app.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialise app: %w", err)
	}
	defer a.Stop()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	a.Start(ctx)

	server := api.NewServer(a)
	httpServer := &http.Server{Addr: cfg.HTTPAddr, Handler: server}

	logger.System("argo serving on %s (%d tools, init took %dms)", cfg.HTTPAddr, a.Registry.Stats().ToolCount, a.InitializationTimeMs())

	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.ListenAndServe() }()

	select {
	case <-ctx.Done():
		logger.System("shutting down")
		return httpServer.Shutdown(context.Background())
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	}
}

// --- argo tools ---

func toolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Inspect the registered tool catalogue",
	}
	cmd.AddCommand(toolsListCmd())
	return cmd
}

func toolsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every registered tool",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			a, err := app.New(cfg)
			if err != nil {
				return err
			}
			defer a.Stop()

			tools := a.Registry.List()
			if len(tools) == 0 {
				fmt.Println("No tools registered.")
				return nil
			}
			for _, t := range tools {
				fmt.Printf("  %-20s %s\n", t.Name, t.Description)
			}
			return nil
		},
	}
}

// --- argo config ---

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the runtime configuration",
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Save(config.Default()); err != nil {
				return err
			}
			home, _ := os.UserHomeDir()
			fmt.Printf("Config created at %s\n", filepath.Join(home, ".config", "argo", "config.toml"))
			return nil
		},
	}

	setKey := &cobra.Command{
		Use:   "set-key <provider> <key>",
		Short: "Store an API key (providers: anthropic, openai, glm, kimi, minimax; describe_tool reads only the anthropic and openai keys)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			provider, key := args[0], args[1]

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			switch provider {
			case "anthropic":
				cfg.Keys.Anthropic = key
			case "openai":
				cfg.Keys.OpenAI = key
			case "glm":
				cfg.Keys.GLM = key
			case "kimi":
				cfg.Keys.Kimi = key
			case "minimax":
				cfg.Keys.MiniMax = key
			default:
				return fmt.Errorf("unknown provider %q (use: anthropic, openai, glm, kimi, minimax)", provider)
			}

			if err := config.Save(cfg); err != nil {
				return err
			}
			fmt.Printf("API key for %s saved.\n", provider)
			return nil
		},
	}

	cmd.AddCommand(initCmd, setKey)
	return cmd
}

// Package main provides the ollamabridge CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/richinex/ollamabridge/cli"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	runtimeName string
	modelID     string
	host        string
	workDir     string
	configFile  string
	verbose     bool
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ollamabridge",
		Short: "Use a local Ollama model behind an Anthropic-shaped message API",
		Long: `ollamabridge translates Anthropic Messages API requests into local chat
runtime calls and the replies back into Anthropic-shaped messages.

Runtimes:
- ollama: Ollama's native /api/chat endpoint (default)
- openai: any OpenAI-compatible /v1 endpoint (LM Studio, llama.cpp, Ollama /v1)`,
		SilenceUsage: true,
	}

	// Global flags
	cmd.PersistentFlags().StringVarP(&runtimeName, "runtime", "r", "", "Local runtime (ollama, openai)")
	cmd.PersistentFlags().StringVarP(&modelID, "model", "m", "", "Model id (unknown ids fall back to the default)")
	cmd.PersistentFlags().StringVar(&host, "host", "", "Ollama host (default http://127.0.0.1:11434)")
	cmd.PersistentFlags().StringVarP(&workDir, "workdir", "w", "", "Working directory advertised in tool schemas")
	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (YAML, JSON or TOML)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(chatCmd())
	cmd.AddCommand(describeCmd())
	cmd.AddCommand(toolsCmd())
	cmd.AddCommand(modelsCmd())
	cmd.AddCommand(serveCmd())
	cmd.AddCommand(historyCmd())

	return cmd
}

func options() cli.Options {
	return cli.Options{
		Runtime:    runtimeName,
		Model:      modelID,
		Host:       host,
		WorkDir:    workDir,
		ConfigFile: configFile,
		Verbose:    verbose,
	}
}

func chatCmd() *cobra.Command {
	var systemPrompt string
	var dbPath string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "chat [prompt]",
		Short: "Send one prompt, or start an interactive chat without arguments",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := options()
			opts.DBPath = dbPath
			opts.JSON = asJSON
			if len(args) == 1 {
				return cli.Ask(cmd.Context(), args[0], systemPrompt, opts, cmd.OutOrStdout())
			}
			return cli.Chat(cmd.Context(), systemPrompt, opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&systemPrompt, "system", "s", cli.DefaultSystemPrompt, "System prompt")
	cmd.Flags().StringVar(&dbPath, "db", "", "Record exchanges in this SQLite database")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the raw response message")

	return cmd
}

func describeCmd() *cobra.Command {
	var images []string

	cmd := &cobra.Command{
		Use:   "describe [prompt]",
		Short: "Print the readable, image-free form of a request",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := ""
			if len(args) == 1 {
				prompt = args[0]
			}
			return cli.Describe(prompt, images, options(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringArrayVarP(&images, "image", "i", nil, "Attach an image file (repeatable)")

	return cmd
}

func toolsCmd() *cobra.Command {
	var verboseTools bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the tool schemas sent to the model",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := cli.ConfiguredWorkDir(options())
			if err != nil {
				return err
			}
			return cli.ListTools(dir, verboseTools, asJSON, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVarP(&verboseTools, "params", "P", false, "Show tool parameters")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the schemas as JSON")

	return cmd
}

func modelsCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List known local models (* marks the selected one)",
		RunE: func(cmd *cobra.Command, args []string) error {
			configured, err := cli.ConfiguredModel(options())
			if err != nil {
				return err
			}
			return cli.ListModels(configured, asJSON, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the catalog as JSON")

	return cmd
}

func serveCmd() *cobra.Command {
	var addr string
	var dbPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve an Anthropic-compatible /v1/messages endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			gin.SetMode(gin.ReleaseMode)
			opts := options()
			opts.DBPath = dbPath
			return cli.Serve(context.Background(), addr, opts)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Listen address (default 127.0.0.1:8089)")
	cmd.Flags().StringVar(&dbPath, "db", "", "Record exchanges in this SQLite database")

	return cmd
}

func historyCmd() *cobra.Command {
	var limit int
	var dbPath string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent exchanges from the exchange log",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := options()
			opts.DBPath = dbPath
			opts.JSON = asJSON
			return cli.History(cmd.Context(), limit, opts, cmd.OutOrStdout())
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of exchanges to show")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database to read (default storage.db_path)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print exchanges as JSON")

	return cmd
}

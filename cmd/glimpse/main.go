package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/hpungsan/glimpse/internal/cache"
	"github.com/hpungsan/glimpse/internal/config"
	"github.com/hpungsan/glimpse/internal/db"
	"github.com/hpungsan/glimpse/internal/describe"
	"github.com/hpungsan/glimpse/internal/history"
	"github.com/hpungsan/glimpse/internal/mcp"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"add": true, "describe": true, "get": true, "list": true,
	"delete": true, "search": true, "similar": true, "combined": true,
	"cleanup": true, "stats": true, "web": true,
	"help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	// Known subcommand → CLI
	if cliCommands[arg] {
		return true
	}
	// --help or --version → CLI
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false // Default → MCP server
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
    ___ _ _
   / __| (_)_ __  _ __ ___ ___
  | (_ | | | '  \| '_ (_-</ -_)
   \___|_|_|_|_|_| .__/__/\___|
                 |_|

  Screenshot history and hybrid search

  Usage: glimpse <command> [options]
         glimpse --help

  MCP server mode requires piped input.`)
}

// newProvider builds the vision-model provider when an API key is available.
func newProvider(cfg *config.Config) describe.Provider {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil
	}
	c, err := cache.New[*describe.Result](cfg.CacheSize, time.Duration(cfg.CacheTTLSeconds)*time.Second)
	if err != nil {
		c = nil
	}
	return describe.NewOpenAI(apiKey, cfg.DescriptionModel, c)
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before DB init (no DB needed)
	if isHelpOrVersion() {
		app := newCLIApp(nil, nil, nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// .env is optional; environment variables win over it.
	_ = godotenv.Load()

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}

	baseDir := filepath.Join(homeDir, ".glimpse")

	database, err := db.Init(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	cfg, err := config.Load(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}
	db.ConfigurePool(database, cfg)

	hist, err := history.Open(database, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to open history: %v\n", err)
		os.Exit(1)
	}

	provider := newProvider(cfg)

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(hist, cfg, provider)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'glimpse --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default)
	if err := mcp.Run(hist, cfg, provider, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

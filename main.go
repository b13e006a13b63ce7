package main

import (
	"flag"
	"fmt"
	"os"

	"lotta/cmd"
	"lotta/internal/db"
	"lotta/internal/ledger"
	"lotta/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
)

// version is set at build time via -ldflags
var version = "dev"

func main() {
	args := os.Args[1:]

	if len(args) > 0 && (args[0] == "version" || args[0] == "-version" || args[0] == "--version") {
		fmt.Println("lotta", version)
		return
	}

	// Maintenance subcommands run headless and exit.
	if len(args) > 0 && cmd.IsSubcommand(args[0]) {
		if err := cmd.Run(args, os.Stdout, os.Stderr); err != nil {
			if err != flag.ErrHelp {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			os.Exit(1)
		}
		return
	}

	config, err := cmd.ParseFlags(args)
	if err != nil {
		if err == flag.ErrHelp {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := cmd.Onboard(config); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	logFile, err := cmd.OpenLogFile(config.LogPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()
	logger := cmd.NewLogger(logFile, "tui")

	// Open store
	store, err := db.Open(config.StoreKind, config.DataPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	svc := ledger.NewService(store, logger)
	logger.Info("starting", "version", version, "store", config.StoreKind, "path", config.DataPath, "staff", len(config.StaffPool))

	// Create and run Bubble Tea app
	p := tea.NewProgram(ui.New(svc, config.StaffPool, ui.PrefsPath(config.ConfigDir)), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running app: %v\n", err)
		os.Exit(1)
	}
}

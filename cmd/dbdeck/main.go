// cmd/dbdeck/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/dbdeck/dbdeck/internal/config"
	"github.com/dbdeck/dbdeck/internal/cred"
	"github.com/dbdeck/dbdeck/internal/explorer"
	"github.com/dbdeck/dbdeck/internal/history"
	"github.com/dbdeck/dbdeck/internal/tui"
)

func main() {
	debug := flag.Bool("debug", false, "Enable debug logging to debug.log")
	flag.Parse()

	logger := slog.New(slog.DiscardHandler)
	if *debug {
		f, err := tea.LogToFile("debug.log", "debug")
		if err != nil {
			fmt.Printf("fatal: could not open debug log: %v", err)
			os.Exit(1)
		}
		defer f.Close()
		log.SetOutput(f) // Redirect standard log to the same file
		logger = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	tui.InitStyles(cfg.Theme)

	historyPath, err := history.DefaultPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to resolve history path: %v\n", err)
		os.Exit(1)
	}
	historyStore, err := history.NewStore(historyPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize history: %v\n", err)
		os.Exit(1)
	}
	defer historyStore.Close()

	// Secrets live in the platform keyring. When it is unavailable the
	// resolver degrades to prompting each time.
	var secrets cred.Store
	if ks, err := cred.NewKeyringStore(); err != nil {
		logger.Warn("keyring unavailable, secrets will not persist", "error", err)
	} else {
		secrets = ks
	}

	prompter := tui.NewPrompter()
	resolver := cred.NewResolver(secrets, prompter, logger)

	exp := explorer.New(explorer.Options{
		Profiles:       cfg,
		Resolver:       resolver,
		History:        historyStore,
		DefaultProfile: cfg.DefaultProfile,
		PageSize:       cfg.PageSize,
		MaxRows:        cfg.MaxRows,
		Logger:         logger,
	})

	model := tui.NewModel(tui.Options{
		Explorer: exp,
		Config:   cfg,
		Prompter: prompter,
		Secrets:  secrets,
		History:  historyStore,
		Logger:   logger,
	})
	p := tea.NewProgram(model, tea.WithAltScreen())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return exp.Run(ctx)
	})
	g.Go(func() error {
		// Quitting the program stops the explorer loop as well.
		defer cancel()
		_, err := p.Run()
		return err
	})

	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}

	// Clear any leftover output by printing a clear screen sequence
	fmt.Print("\033[H\033[2J")
}

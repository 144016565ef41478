package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/mmcdole/tubeshelf/internal/auth"
	"github.com/mmcdole/tubeshelf/internal/broker"
	"github.com/mmcdole/tubeshelf/internal/cache"
	"github.com/mmcdole/tubeshelf/internal/config"
	"github.com/mmcdole/tubeshelf/internal/domain"
	"github.com/mmcdole/tubeshelf/internal/log"
	"github.com/mmcdole/tubeshelf/internal/service"
	"github.com/mmcdole/tubeshelf/internal/store"
	"github.com/mmcdole/tubeshelf/internal/tui"
	"github.com/mmcdole/tubeshelf/internal/tui/styles"
	"github.com/mmcdole/tubeshelf/internal/youtube"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	_ = godotenv.Load()

	var showVersion, debug bool
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.BoolVar(&debug, "debug", false, "log at debug level")
	flag.Usage = usage
	flag.Parse()

	if showVersion {
		fmt.Printf("tubeshelf %s\n", Version)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, flag.Args(), debug); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), `Usage: tubeshelf [-v] [-debug] [command]

Commands:
  shelf                     open the shelf (default)
  login                     sign in to YouTube
  logout                    sign out and stop silent re-login
  playlists [query]         list your playlists, fuzzy-matched by query
  select ID...              choose the playlists shown on the shelf
  set ID key=value...       change one playlist's filters and sort
  reset ID                  restore one playlist's default settings
  refresh [-force]          refresh and print a summary
  channels ID [query]       list channels in a cached playlist
  categories ID [query]     list categories in a cached playlist

Flags:
`)
	flag.PrintDefaults()
}

func run(ctx context.Context, args []string, debug bool) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if debug {
		cfg.Logging.Level = "DEBUG"
	}

	logger, err := log.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = log.NullLogger()
	}
	slog.SetDefault(logger)
	logger.Info("starting tubeshelf", "version", Version)

	cmd := "shelf"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	if !cfg.HasOAuthClient() && (cmd == "shelf" || cmd == "login") {
		if err := runSetupFlow(cfg); err != nil {
			return err
		}
	}

	a, err := newApp(ctx, cfg, logger)
	if errors.Is(err, domain.ErrStoreLocked) {
		return fmt.Errorf("%w; the shelf is probably open, use p and s there or quit it first", err)
	}
	if err != nil {
		return err
	}
	defer a.Close()

	switch cmd {
	case "shelf":
		return a.shelf(ctx)
	case "login":
		return a.login(ctx)
	case "logout":
		return a.logout(ctx)
	case "playlists":
		return a.playlists(ctx, strings.Join(args, " "))
	case "select":
		return a.selectPlaylists(ctx, args)
	case "set":
		return a.set(ctx, args)
	case "reset":
		return a.reset(ctx, args)
	case "refresh":
		return a.refresh(ctx, args)
	case "channels":
		return a.channels(args)
	case "categories":
		return a.categories(args)
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// app wires the long-lived components for one process
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	store     *store.ShelfStore
	auth      *auth.Authenticator
	broker    *broker.Broker
	api       *youtube.Client
	cache     *cache.Manager
	feed      *service.FeedService
	selection *service.SelectionService

	stopBroker context.CancelFunc
	brokerDone chan struct{}
}

func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	st, err := store.Open(cfg.Cache.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	authn := auth.New(cfg.YouTube, st, logger)
	b := broker.New(authn, logger)

	brokerCtx, stopBroker := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		b.Run(brokerCtx)
		close(done)
	}()

	api := youtube.NewClient(youtube.Options{
		Endpoint:          cfg.YouTube.Endpoint,
		Region:            cfg.YouTube.Region,
		RequestsPerSecond: cfg.YouTube.RequestsPerSecond,
		MaxItems:          cfg.YouTube.MaxItemsPerPlaylist,
	}, logger)

	cm := cache.NewManager(st, logger, cache.WithTTL(cfg.Cache.TTL))
	feed := service.NewFeedService(st, cm, api, b, logger)
	sel := service.NewSelectionService(st, api, b, b, cm, cfg.Selection.MaxPlaylists, logger)

	return &app{
		cfg:        cfg,
		logger:     logger,
		store:      st,
		auth:       authn,
		broker:     b,
		api:        api,
		cache:      cm,
		feed:       feed,
		selection:  sel,
		stopBroker: stopBroker,
		brokerDone: done,
	}, nil
}

func (a *app) Close() {
	a.stopBroker()
	<-a.brokerDone
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close store", "error", err)
	}
}

func (a *app) shelf(ctx context.Context) error {
	styles.SetTheme(a.cfg.UI.Theme)

	events, unsubscribe := a.broker.Subscribe()
	defer unsubscribe()

	model := tui.NewModel(a.feed, a.selection, events, a.cfg.Selection.MaxPlaylists, a.logger)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	a.logger.Info("starting TUI")
	if _, err := p.Run(); err != nil {
		a.logger.Error("TUI error", "error", err)
		return fmt.Errorf("TUI error: %w", err)
	}
	a.logger.Info("shutting down")
	return nil
}

// runSetupFlow asks for an OAuth client when none is configured
func runSetupFlow(cfg *config.Config) error {
	fmt.Println()
	fmt.Println("Welcome to tubeshelf!")
	fmt.Println()
	fmt.Println("Create an OAuth client (type \"Desktop app\") in the Google Cloud console")
	fmt.Println("with the YouTube Data API v3 enabled, then paste its credentials below.")
	fmt.Println()

	reader := bufio.NewReader(os.Stdin)
	prompt := func(label string) (string, error) {
		for {
			fmt.Print(label)
			input, err := reader.ReadString('\n')
			if err != nil {
				return "", fmt.Errorf("failed to read input: %w", err)
			}
			if v := strings.TrimSpace(input); v != "" {
				return v, nil
			}
			fmt.Println("Value cannot be empty. Please try again.")
		}
	}

	id, err := prompt("Client ID: ")
	if err != nil {
		return err
	}
	secret, err := prompt("Client secret: ")
	if err != nil {
		return err
	}
	cfg.YouTube.ClientID = id
	cfg.YouTube.ClientSecret = secret

	if err := config.SaveConfig(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Println()
	fmt.Println("✓ Configuration saved!")
	return nil
}

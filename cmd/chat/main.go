package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/spf13/cobra"

	"quicksquad-chat/internal/relayclient"
	"quicksquad-chat/internal/repository"
	"quicksquad-chat/internal/widget"
)

type options struct {
	relayURL   string
	configPath string
	store      string
	dir        string
	redisURL   string
	redisTTL   time.Duration
	table      string
	key        string
	verbose    bool
}

func main() {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:   "quicksquad-chat",
		Short: "Terminal QuickSquad chat widget",
		Long: `A terminal rendition of the QuickSquad chat widget. It keeps the last
24 messages of the thread in the selected store and sends each turn to the
relay endpoint.

Type a message and press Enter. Commands: /1../9 send a quick prompt,
/close and /open toggle the panel, /quit exits.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return run(ctx, opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	home, _ := os.UserHomeDir()
	flags := rootCmd.Flags()
	flags.StringVar(&opts.relayURL, "relay-url", "http://localhost:8082", "Base URL relative endpoints are resolved against")
	flags.StringVarP(&opts.configPath, "config", "c", "", "YAML widget config merged over the defaults")
	flags.StringVar(&opts.store, "store", "file", "History store: memory, file, redis or dynamodb")
	flags.StringVar(&opts.dir, "dir", filepath.Join(home, ".quicksquad"), "Directory for the file store")
	flags.StringVar(&opts.redisURL, "redis-url", "redis://localhost:6379/0", "Redis URL for the redis store")
	flags.DurationVar(&opts.redisTTL, "redis-ttl", 0, "Expiry for the redis store (0 keeps forever)")
	flags.StringVar(&opts.table, "table", "", "DynamoDB table for the dynamodb store")
	flags.StringVar(&opts.key, "key", widget.HistoryKey, "Storage key for this widget instance")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Log diagnostics to stderr")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, opts *options, in io.Reader, out io.Writer) error {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if opts.verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	var cfg widget.Config
	if opts.configPath != "" {
		loaded, err := widget.LoadConfig(opts.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	merged := widget.Merge(widget.Defaults(), cfg)

	store, closeStore, err := openStore(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("close store", "err", err)
		}
	}()

	client, err := relayclient.New(opts.relayURL, merged.Endpoint, relayclient.WithUserAgent("quicksquad-chat/cli"))
	if err != nil {
		return err
	}

	r := newTerminalRenderer(out, merged)
	session, err := widget.New(ctx, cfg, store, client,
		widget.WithRenderer(r),
		widget.WithLogger(logger),
		widget.WithStorageKey(opts.key),
	)
	if err != nil {
		return err
	}
	return repl(ctx, session, r, in, out)
}

// openStore builds the selected history store and a func releasing its
// connection.
func openStore(ctx context.Context, opts *options) (widget.Store, func() error, error) {
	noop := func() error { return nil }
	switch opts.store {
	case "memory":
		return repository.NewMemoryStore(), noop, nil
	case "file":
		store, err := repository.NewFileStore(opts.dir)
		if err != nil {
			return nil, nil, err
		}
		return store, noop, nil
	case "redis":
		client, err := repository.DialRedis(ctx, opts.redisURL)
		if err != nil {
			return nil, nil, err
		}
		store, err := repository.NewRedisStore(client, opts.redisTTL)
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return store, client.Close, nil
	case "dynamodb":
		awsCfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("load AWS config: %w", err)
		}
		store, err := repository.NewDynamoStore(awsdynamodb.NewFromConfig(awsCfg), opts.table)
		if err != nil {
			return nil, nil, err
		}
		return store, noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", opts.store)
	}
}

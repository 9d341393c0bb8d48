package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/eshaffer321/streamly-go/pkg/streamly"
)

// version is set at build time via ldflags.
var version = "dev"

// Global persistent flags, bound in newRootCmd().
var (
	flagSessionPath string
	flagJSON        bool
	flagVerbose     bool
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "streamly",
		Short:         "Streamly command line client",
		Long:          "Browse movies, books, collections and notifications on a Streamly backend.",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().StringVar(&flagSessionPath, "session", "", "session file (default: user config dir)")
	cmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output in JSON format")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log requests and responses")

	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newWhoamiCmd())
	cmd.AddCommand(newMoviesCmd())
	cmd.AddCommand(newBooksCmd())
	cmd.AddCommand(newCollectionsCmd())
	cmd.AddCommand(newNotificationsCmd())

	return cmd
}

func buildLogger() *slog.Logger {
	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newClient builds a client from the environment with the session kept in
// a file, then restores any saved login.
func newClient(ctx context.Context) (*streamly.Client, error) {
	path := flagSessionPath
	if path == "" {
		var err error
		if path, err = streamly.DefaultSessionFile(); err != nil {
			return nil, err
		}
	}

	client, err := streamly.NewClientFromEnv(&streamly.ClientOptions{
		PersistentStore: streamly.NewFileStore(path),
		Logger:          streamly.NewSlogLogger(buildLogger()),
		Development:     flagVerbose,
	})
	if err != nil {
		return nil, err
	}

	if _, err := client.Auth.Rehydrate(ctx); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// withClient runs fn with a client closed afterwards
func withClient(cmd *cobra.Command, fn func(ctx context.Context, client *streamly.Client) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	client, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer client.Close()
	return fn(ctx, client)
}

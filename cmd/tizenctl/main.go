package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/tvremote/go-tizenws/config"
	"github.com/tvremote/go-tizenws/logger"
	"github.com/tvremote/go-tizenws/tizen"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		if hint := errors.FlattenHints(err); hint != "" {
			fmt.Fprintf(os.Stderr, "hint: %s\n", hint)
		}
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tizenctl",
		Short:         "Remote control for Samsung Tizen TVs",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	flags := root.PersistentFlags()
	flags.StringP("config", "c", "", "path to a yaml config file")
	flags.String("env-file", "", "dotenv file with TIZENWS_* settings")
	flags.String("host", "", "address of the TV")
	flags.Int("port", tizen.DefaultPort, "websocket port of the TV")
	flags.String("name", tizen.DefaultName, "client name shown on the TV")
	flags.String("log-level", "", "log level (trace, debug, info, warn, error)")
	flags.String("store", "", "token store (memory, file, redis, sqlite)")
	flags.String("store-path", "", "token file or sqlite database path")
	flags.String("redis-url", "", "redis url of the token store")
	flags.Duration("timeout", 30*time.Second, "how long to wait for the TV")

	root.AddCommand(newWatchCmd())
	root.AddCommand(newKeyCmd())
	root.AddCommand(newLaunchCmd())
	root.AddCommand(newAppsCmd())
	root.AddCommand(newSourceCmd())
	root.AddCommand(newChannelCmd())
	return root
}

// session is a connected client for the duration of one command
type session struct {
	client *tizen.Client
	logger logger.Logger
	close  func()
}

type sessionOptions struct {
	handler tizen.Handler
	// waitControl also waits for the control channel
	waitControl bool
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	flags := cmd.Flags()
	if envFile, _ := flags.GetString("env-file"); envFile != "" {
		if err := config.ApplyEnvFile(envFile); err != nil {
			return config.Config{}, err
		}
	}
	path, _ := flags.GetString("config")
	return config.Load(path, flags)
}

func connect(cmd *cobra.Command, opts sessionOptions) (*session, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log := logger.NewConsoleLogger(cfg.Level())
	ctx := cmd.Context()

	st, err := config.OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	clientOpts := cfg.ClientOptions()
	clientOpts.Context = ctx
	clientOpts.Logger = log
	clientOpts.Store = st
	clientOpts.Handler = opts.handler
	client, err := tizen.New(clientOpts)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	s := &session{
		client: client,
		logger: log,
		close: func() {
			client.Close()
			if err := st.Close(); err != nil {
				log.Warn("closing token store: %s", err)
			}
		},
	}
	client.Open()

	timeout, _ := cmd.Flags().GetDuration("timeout")
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.WaitReady(waitCtx); err != nil {
		s.close()
		if errors.Is(err, tizen.ErrAuthorization) {
			return nil, errors.WithHint(err, "allow the client on the TV and try again")
		}
		return nil, errors.Wrapf(err, "connecting to %s", cfg.Host)
	}
	if opts.waitControl {
		if err := waitFor(waitCtx, client.Connected); err != nil {
			s.close()
			return nil, errors.Wrap(err, "waiting for the control channel")
		}
	}
	return s, nil
}

func waitFor(ctx context.Context, cond func() bool) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for !cond() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

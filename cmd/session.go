package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/courses/internal/client"
	"github.com/teemow/courses/internal/config"
	"github.com/teemow/courses/internal/instrumentation"
	"github.com/teemow/courses/internal/logging"
	"github.com/teemow/courses/internal/offline"
)

// clientFlags are shared by the commands that talk to a running server.
type clientFlags struct {
	serverURL string
	user      string
}

func (f *clientFlags) register(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&f.serverURL, "server", "", "Server URL (default: client.server_url from the config)")
	cmd.PersistentFlags().StringVar(&f.user, "user", "", "User to act as (default: client.principal from the config)")
}

// apply overrides the client section of cfg with the flags that were set.
func (f *clientFlags) apply(cfg *config.Config) {
	if f.serverURL != "" {
		cfg.Client.ServerURL = strings.TrimRight(f.serverURL, "/")
	}
	if f.user != "" {
		cfg.Client.Principal = strings.TrimSpace(f.user)
	}
}

// clientSession is an offline session together with the telemetry provider
// recording its queue metrics.
type clientSession struct {
	*offline.Session
	provider *instrumentation.Provider
}

// Close closes the queue and flushes the provider.
func (c *clientSession) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return errors.Join(c.Session.Close(), c.provider.Shutdown(ctx))
}

// openSession loads the config and opens a session over the remote server
// and the local queue. The caller closes the session.
func openSession(ctx context.Context, flags *clientFlags) (*clientSession, *config.Config, error) {
	cfg, path, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	flags.apply(cfg)

	instrConfig := instrumentation.DefaultConfig(instrumentation.ComponentSync)
	instrConfig.ServiceVersion = version
	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}

	session, err := newSession(cfg, cfg.ResolveQueuePath(path), provider)
	if err != nil {
		_ = provider.Shutdown(ctx)
		return nil, nil, err
	}
	return &clientSession{Session: session, provider: provider}, cfg, nil
}

// newSession builds a session from the client section of cfg, queueing in
// the SQLite file at queuePath. The same file holds the session cache.
func newSession(cfg *config.Config, queuePath string, provider *instrumentation.Provider) (*offline.Session, error) {
	logger := slog.Default()
	remote, err := client.New(cfg.Client.ServerURL, cfg.Client.Principal,
		client.WithTimeout(cfg.Client.Timeout),
		client.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	store, err := offline.OpenSQLite(queuePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open queue %s: %w", queuePath, err)
	}

	adapter := logging.NewSlogAdapter(logger)
	queueOpts := []offline.QueueOption{
		offline.WithConnectivity(offline.NewHTTPProbe(cfg.Client.ServerURL, cfg.Client.Timeout)),
		offline.WithLogger(adapter),
	}
	if provider != nil && provider.Enabled() {
		queueOpts = append(queueOpts, offline.WithMetrics(provider.Metrics()))
	}
	queue := offline.NewQueue(store, queueOpts...)
	return offline.NewSession(remote, queue, adapter, offline.WithCache(store)), nil
}

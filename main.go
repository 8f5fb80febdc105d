package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/erikmagkekse/netgroup-nfs/cluster"
	"github.com/erikmagkekse/netgroup-nfs/exportsync"
	"github.com/erikmagkekse/netgroup-nfs/model"
	"github.com/erikmagkekse/netgroup-nfs/netgroup"
	"github.com/erikmagkekse/netgroup-nfs/server"

	"github.com/caarlos0/env/v11"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	var verbosity int

	syncCmd := func(ctx context.Context, cmd *cli.Command) error {
		return runSync(ctx, cmd, verbosity)
	}

	app := &cli.Command{
		Name:                   model.AppName,
		Usage:                  "sync NFS export host restrictions with netgroup membership",
		Version:                version + " (" + commit + ")",
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   model.DefaultConfigFile,
				Usage:   "config file (.json, .toml, .yaml)",
				Sources: cli.EnvVars("NETGROUP_NFS_CONFIG"),
			},
			&cli.BoolFlag{
				Name:  "commit",
				Usage: "apply the computed host restrictions, otherwise only report them",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "increase verbosity (-v info, -vv debug)",
				Config:  cli.BoolConfig{Count: &verbosity},
			},
			&cli.StringFlag{
				Name:  "metrics-textfile",
				Usage: "write metrics in text format to this file after a sync run",
			},
		},
		Action: syncCmd,
		Commands: []*cli.Command{
			{
				Name:                   "sync",
				Usage:                  "run a single sync pass (default)",
				UseShortOptionHandling: true,
				Action:                 syncCmd,
			},
			{
				Name:                   "daemon",
				Usage:                  "sync periodically and serve health, metrics and status over HTTP",
				UseShortOptionHandling: true,
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runDaemon(ctx, cmd, verbosity)
				},
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := app.Run(ctx, os.Args)
	stop()
	if err != nil {
		log.Fatal().Err(err).Msg(model.AppName + " failed")
	}
}

func setupLogging(verbosity int) {
	level := zerolog.WarnLevel
	switch {
	case verbosity == 1:
		level = zerolog.InfoLevel
	case verbosity >= 2:
		level = zerolog.DebugLevel
	}
	if l := os.Getenv("LOG_LEVEL"); l != "" {
		if parsed, err := zerolog.ParseLevel(l); err == nil {
			level = parsed
		}
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()
}

// bootstrap loads the config, logs in to the cluster and wires the
// netgroup pipeline into a Syncer.
func bootstrap(ctx context.Context, cmd *cli.Command, verbosity int) (*model.Config, *exportsync.Syncer, error) {
	setupLogging(verbosity)

	cfg, err := model.Load(cmd.String("config"))
	if err != nil {
		return nil, nil, err
	}

	if cfg.Password == "" {
		if cfg.Password, err = promptPassword(cfg.Username, cfg.Hostname); err != nil {
			return nil, nil, err
		}
	}

	client := cluster.NewClient(cluster.BaseURL(cfg.Hostname, cfg.Port), cfg.RequestTimeout, cfg.InsecureSkipVerify)
	if err := client.Login(ctx, cfg.Username, cfg.Password); err != nil {
		return nil, nil, fmt.Errorf("failed to login to cluster at %s: %w", cfg.Hostname, err)
	}
	log.Info().Str("cluster", cfg.Hostname).Str("user", cfg.Username).Msg("logged in")

	source, err := newSource(cfg.NetgroupSource)
	if err != nil {
		return nil, nil, err
	}

	lookup := netgroup.NewDirectoryLookup(nil, cfg.Lookup.Family, cfg.LookupTimeout, component("lookup"))
	resolver := netgroup.NewResolver(source, component("netgroup"))
	enum := netgroup.NewEnumerator(resolver, lookup, cfg.Lookup.Concurrency, component("enumerator"))

	syncer := exportsync.New(client, enum, cmd.Bool("commit"), component("sync"))
	syncer.SetAllowEmpty(cfg.AllowEmptyRestrictions)
	return cfg, syncer, nil
}

func component(name string) zerolog.Logger {
	return log.Logger.With().Str("component", name).Logger()
}

func newSource(cfg model.SourceConfig) (netgroup.MapSource, error) {
	switch cfg.Type {
	case model.SourceNIS:
		return netgroup.NewNISSource(cfg.Ypcat, cfg.Map, cfg.Domain), nil
	case model.SourceFile:
		return netgroup.NewFileSource(cfg.Path), nil
	default:
		return nil, fmt.Errorf("unknown netgroup source %q", cfg.Type)
	}
}

func promptPassword(username, hostname string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("no password configured and stdin is not a terminal, set NETGROUP_NFS_PASSWORD")
	}
	fmt.Fprintf(os.Stderr, "Password for %s@%s: ", username, hostname)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(pw), nil
}

func runSync(ctx context.Context, cmd *cli.Command, verbosity int) error {
	cfg, syncer, err := bootstrap(ctx, cmd, verbosity)
	if err != nil {
		return err
	}

	res, err := syncer.Sync(ctx, cfg.ExportMap)
	if path := cmd.String("metrics-textfile"); path != "" {
		if werr := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); werr != nil {
			log.Error().Err(werr).Str("path", path).Msg("failed to write metrics textfile")
		}
	}
	if err != nil {
		return err
	}

	log.Info().
		Bool("commit", res.Commit).
		Int("updated", res.Count(exportsync.StatusUpdated)).
		Int("unapplied", res.Count(exportsync.StatusUnapplied)).
		Int("skipped", res.Count(exportsync.StatusSkipped)).
		Int("failed", res.Count(exportsync.StatusFailed)).
		Msg("sync complete")

	if res.Failed() {
		return fmt.Errorf("%d export update(s) failed", res.Count(exportsync.StatusFailed))
	}
	return nil
}

func runDaemon(ctx context.Context, cmd *cli.Command, verbosity int) error {
	dcfg, err := env.ParseAs[model.DaemonConfig]()
	if err != nil {
		return fmt.Errorf("failed to parse daemon config: %w", err)
	}
	if dcfg.SyncInterval <= 0 {
		return fmt.Errorf("NETGROUP_NFS_SYNC_INTERVAL must be positive, got %s", dcfg.SyncInterval)
	}

	cfg, syncer, err := bootstrap(ctx, cmd, verbosity)
	if err != nil {
		return err
	}
	log.Info().Str("version", version).Str("commit", commit).Dur("interval", dcfg.SyncInterval).Msg("starting " + model.AppName + " daemon")

	tracker := &exportsync.Tracker{}
	syncer.StartPeriodic(ctx, dcfg.SyncInterval, cfg.ExportMap, tracker)

	srv := server.New(server.Options{
		ListenAddr: dcfg.ListenAddr,
		APIToken:   dcfg.APIToken,
		Version:    version,
		Commit:     commit,
		Features: map[string]string{
			"commit":   strconv.FormatBool(syncer.Commit()),
			"source":   cfg.NetgroupSource.Type,
			"family":   cfg.Lookup.Family,
			"interval": dcfg.SyncInterval.String(),
		},
	}, syncer, tracker, cfg.ExportMap, component("server"))

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("status server failed: %w", err)
	}
	log.Info().Msg("shutting down")
	return nil
}

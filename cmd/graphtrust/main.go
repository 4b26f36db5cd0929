package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/graphtrust/graphtrust/internal/config"
	"github.com/graphtrust/graphtrust/internal/identity"
	"github.com/graphtrust/graphtrust/internal/monitor"
	"github.com/graphtrust/graphtrust/internal/oracle"
	"github.com/graphtrust/graphtrust/internal/security"
	"github.com/graphtrust/graphtrust/internal/trust"
)

const usage = `usage: graphtrust [-config file] <command> [args]

commands:
  distance <from> <to>      hop distance between two identities
  info <from> <to>          full distance answer (hops, path count, extras)
  score <from> <to>         trust score and level for the pair
  batch <from> <target...>  hop distances from one source to many targets
  follows <pubkey>          accounts the pubkey follows
  common <from> <to>        accounts both identities follow
  path <from> <to>          one concrete route between two identities
  stats                     oracle statistics (raw)
  health                    oracle health probe
  metrics                   oracle service metrics
  cert                      oracle TLS certificate status
  watch                     poll targets from the config and log scores
`

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	client, err := oracle.New(cfg.Oracle)
	if err != nil {
		slog.Error("failed to build oracle client", "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cmd, args := flag.Arg(0), flag.Args()[1:]
	if err := run(ctx, cmd, args, *configPath, cfg, client); err != nil {
		slog.Error("command failed", "command", cmd, "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd string, args []string, configPath string, cfg *config.Config, client *oracle.Client) error {
	switch cmd {
	case "distance":
		from, to, err := pairArgs(args)
		if err != nil {
			return err
		}
		hops, err := client.Distance(ctx, from, to)
		if err != nil {
			return err
		}
		return emit(map[string]any{"from": from, "to": to, "hops": hops})

	case "info":
		from, to, err := pairArgs(args)
		if err != nil {
			return err
		}
		info, err := client.DistanceInfo(ctx, from, to)
		if err != nil {
			return err
		}
		if info == nil {
			return emit(map[string]any{"from": from, "to": to, "hops": nil})
		}
		return emit(map[string]any{
			"from": from, "to": to,
			"hops": info.Hops, "paths": info.Paths, "extra": info.Extra,
		})

	case "score":
		from, to, err := pairArgs(args)
		if err != nil {
			return err
		}
		info, err := client.DistanceInfo(ctx, from, to)
		if err != nil {
			return err
		}
		var score float64
		if info != nil {
			score = trust.Score(info.Hops, info.Paths, cfg.Scoring)
		}
		return emit(map[string]any{
			"from": from, "to": to,
			"score": score, "level": trust.Level(&score),
		})

	case "batch":
		if len(args) < 2 {
			return fmt.Errorf("batch needs a source and at least one target")
		}
		from, err := identity.Parse(args[0])
		if err != nil {
			return err
		}
		targets := make([]identity.Identity, 0, len(args)-1)
		for _, a := range args[1:] {
			id, err := identity.Parse(a)
			if err != nil {
				return err
			}
			targets = append(targets, id)
		}
		res, err := client.DistanceBatch(ctx, from, targets)
		if err != nil {
			return err
		}
		return emit(res)

	case "follows":
		if len(args) != 1 {
			return fmt.Errorf("follows needs exactly one pubkey")
		}
		pk, err := identity.Parse(args[0])
		if err != nil {
			return err
		}
		follows, err := client.Follows(ctx, pk)
		if err != nil {
			return err
		}
		return emit(map[string]any{"pubkey": pk, "follows": follows})

	case "common":
		from, to, err := pairArgs(args)
		if err != nil {
			return err
		}
		common, err := client.CommonFollows(ctx, from, to)
		if err != nil {
			return err
		}
		return emit(map[string]any{"from": from, "to": to, "common": common})

	case "path":
		from, to, err := pairArgs(args)
		if err != nil {
			return err
		}
		route, err := client.Path(ctx, from, to)
		if err != nil {
			return err
		}
		return emit(map[string]any{"from": from, "to": to, "path": route})

	case "stats":
		stats, err := client.Stats(ctx)
		if err != nil {
			return err
		}
		return emit(stats)

	case "health":
		return emit(map[string]any{"healthy": client.Healthy(ctx)})

	case "metrics":
		m, err := client.Metrics(ctx)
		if err != nil {
			return err
		}
		return emit(m)

	case "cert":
		cs := security.Check(ctx, cfg.Oracle)
		if cs == nil {
			return fmt.Errorf("oracle base address is not https")
		}
		return emit(cs)

	case "watch":
		return watch(ctx, configPath, cfg, client)

	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// watch polls the configured targets every interval, logging oracle
// availability and per-target trust scores. Scoring-config edits are
// picked up without restart.
func watch(ctx context.Context, configPath string, cfg *config.Config, client *oracle.Client) error {
	if len(cfg.Watch.Targets) == 0 {
		return fmt.Errorf("watch.targets is empty — nothing to watch")
	}
	source := identity.Identity(cfg.Watch.Source)

	var mu sync.Mutex
	scoring := cfg.Scoring

	go func() {
		err := config.Watch(ctx, configPath, func(updated *config.Config) {
			mu.Lock()
			scoring = updated.Scoring
			mu.Unlock()
			slog.Info("scoring config hot-reloaded")
		})
		if err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	if cs := security.Check(ctx, cfg.Oracle); cs != nil && cs.Status != "valid" {
		slog.Warn("oracle certificate needs attention",
			"status", cs.Status, "days_left", cs.DaysLeft, "not_after", cs.NotAfter)
	}

	mon := monitor.New()
	slog.Info("watch started",
		"source", source, "targets", len(cfg.Watch.Targets), "interval", cfg.Watch.Interval)

	ticker := time.NewTicker(cfg.Watch.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("watch stopped")
			return nil
		case now := <-ticker.C:
			cycle(ctx, client, mon, source, cfg.Watch.Targets, &mu, &scoring, now)
		}
	}
}

// cycle runs one watch iteration: availability first, then scores.
func cycle(ctx context.Context, client *oracle.Client, mon *monitor.Monitor,
	source identity.Identity, targets []string, mu *sync.Mutex, scoring *trust.Config, now time.Time) {

	healthy := client.Healthy(ctx)
	var metrics *oracle.ServiceMetrics
	if healthy {
		m, err := client.Metrics(ctx)
		if err != nil {
			slog.Warn("metrics scrape failed", "err", err)
		} else {
			metrics = m
		}
	}

	rep := mon.Process(metrics, healthy, now)
	slog.Info("oracle availability",
		"state", rep.State,
		"uptime_pct", rep.UptimePct,
		"queries_per_min", rep.QueriesPerMin,
		"error_rate_pct", rep.ErrorRatePct,
	)
	if !healthy {
		return
	}

	mu.Lock()
	cfg := *scoring
	mu.Unlock()

	for _, raw := range targets {
		target := identity.Identity(raw)
		info, err := client.DistanceInfo(ctx, source, target)
		if err != nil {
			slog.Warn("distance query failed", "target", target, "err", err)
			continue
		}
		var hops, paths *int
		if info != nil {
			hops, paths = info.Hops, info.Paths
		}
		score := trust.Score(hops, paths, cfg)
		slog.Info("target scored",
			"target", target,
			"hops", hopsValue(hops),
			"score", score,
			"level", trust.Level(&score),
		)
	}
}

// hopsValue renders a nullable hop count for logging.
func hopsValue(hops *int) any {
	if hops == nil {
		return "none"
	}
	return *hops
}

// pairArgs parses the common <from> <to> argument pair.
func pairArgs(args []string) (identity.Identity, identity.Identity, error) {
	if len(args) != 2 {
		return "", "", fmt.Errorf("expected <from> <to> arguments")
	}
	from, err := identity.Parse(args[0])
	if err != nil {
		return "", "", err
	}
	to, err := identity.Parse(args[1])
	if err != nil {
		return "", "", err
	}
	return from, to, nil
}

// emit prints a command result as indented JSON on stdout.
func emit(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

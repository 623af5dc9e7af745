package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"matchgate/internal/audit"
	"matchgate/internal/checkin"
	checkinMetrics "matchgate/internal/checkin/metrics"
	"matchgate/internal/decision"
	"matchgate/internal/fraud"
	fraudMetrics "matchgate/internal/fraud/metrics"
	"matchgate/internal/jersey"
	"matchgate/internal/match"
	"matchgate/internal/notify"
	"matchgate/internal/platform/config"
	"matchgate/internal/platform/httpserver"
	"matchgate/internal/platform/logger"
	platformMetrics "matchgate/internal/platform/metrics"
	"matchgate/internal/platform/redis"
	"matchgate/internal/review"
	"matchgate/internal/roster"
	"matchgate/internal/scoring"
	httpapi "matchgate/internal/transport/http"
	"matchgate/internal/window"
	"matchgate/pkg/platform/circuit"
)

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal service packages. Every store degrades to its
// in-memory implementation when the backing system is not configured, so a
// bare `go run` gives a working single-node engine.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	var db *sql.DB
	if cfg.PostgresDSN != "" {
		var err error
		db, err = sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("failed to open postgres", "error", err)
			os.Exit(1)
		}
		if err := db.Ping(); err != nil {
			log.Error("postgres ping failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
	}

	var (
		matchStore  match.Store
		recordStore checkin.Store
		jerseyStore jersey.Store
		flagStore   fraud.Store
		notifyFlags notify.FlagStore
	)
	if db != nil {
		matchStore = match.NewPostgresStore(db)
		recordStore = checkin.NewPostgresStore(db)
		jerseyStore = jersey.NewPostgresStore(db)
		flagStore = fraud.NewPostgresStore(db)
	} else {
		matchStore = match.NewInMemoryStore()
		recordStore = checkin.NewInMemoryStore()
		jerseyStore = jersey.NewInMemoryStore()
		flagStore = fraud.NewInMemoryStore()
	}

	redisClient, err := redis.New(cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		notifyFlags = notify.NewRedisFlagStore(redisClient)
	} else {
		notifyFlags = notify.NewInMemoryFlagStore()
	}

	auditOpts := []audit.Option{audit.WithLogger(log)}
	var kafkaSink *audit.KafkaSink
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err = audit.NewKafkaSink(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		if err != nil {
			log.Error("failed to connect to kafka", "error", err)
			os.Exit(1)
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := kafkaSink.Close(closeCtx); err != nil {
				log.Warn("kafka sink close failed", "error", err)
			}
		}()
		auditOpts = append(auditOpts, audit.WithKafkaSink(kafkaSink))
	}
	auditor := audit.NewPublisher(audit.NewInMemoryStore(), auditOpts...)

	var gateway scoring.Gateway
	if cfg.OracleURL != "" {
		breaker := circuit.New("scoring-oracle")
		gateway = scoring.NewBreakerGateway(
			scoring.NewOracleClient(cfg.OracleURL, cfg.OracleTimeout), breaker, log)
	} else {
		log.Warn("no scoring oracle configured, using deterministic in-process scores")
		gateway = scoring.Static{}
	}

	thresholds := decision.Thresholds{
		Face:     decision.Band{ApproveFloor: cfg.FaceApproveFloor, RejectFloor: cfg.FaceRejectFloor},
		Liveness: decision.Band{ApproveFloor: cfg.LivenessApproveFloor, RejectFloor: cfg.LivenessRejectFloor},
	}
	gate := window.Gate{OpensBefore: cfg.WindowOpensBefore, ClosesAfter: cfg.WindowClosesAfter}

	// Roster data arrives from the host tournament system; the in-memory
	// provider is the integration point until that feed lands.
	rosters := roster.NewInMemoryProvider()
	eligibility := roster.NewInMemoryEligibility()

	matches, err := match.NewService(matchStore, match.WithLogger(log))
	if err != nil {
		fatal(log, "match service", err)
	}
	jerseys, err := jersey.NewService(jerseyStore, matches, rosters,
		jersey.WithLogger(log), jersey.WithAuditor(auditor))
	if err != nil {
		fatal(log, "jersey service", err)
	}
	checkins, err := checkin.NewService(recordStore, matches, rosters, eligibility, gateway, jerseys, thresholds,
		checkin.WithLogger(log),
		checkin.WithAuditor(auditor),
		checkin.WithMetrics(checkinMetrics.New()),
		checkin.WithGate(gate))
	if err != nil {
		fatal(log, "checkin service", err)
	}
	frauds, err := fraud.NewService(flagStore, recordStore, matches, jerseys, gateway, thresholds,
		fraud.NewAuthorizer(cfg.AdminSigningKey),
		fraud.WithLogger(log),
		fraud.WithAuditor(auditor),
		fraud.WithMetrics(fraudMetrics.New()))
	if err != nil {
		fatal(log, "fraud service", err)
	}
	reviews, err := review.NewService(recordStore, jerseys,
		review.WithLogger(log), review.WithAuditor(auditor))
	if err != nil {
		fatal(log, "review service", err)
	}

	notifier := notify.NotifierFunc(func(ctx context.Context, n notify.Notification) error {
		log.InfoContext(ctx, "admission window event",
			"match_id", n.MatchID, "event", string(n.Event))
		return nil
	})
	poller, err := notify.NewPoller(matches, notifyFlags, notifier,
		notify.WithLogger(log),
		notify.WithGate(gate),
		notify.WithInterval(cfg.NotifyPollInterval))
	if err != nil {
		fatal(log, "notify poller", err)
	}

	handler := httpapi.NewHandler(matches, checkins, jerseys, frauds, reviews, auditor, platformMetrics.New(), log,
		httpapi.WithGate(gate))
	srv := httpserver.New(cfg.Addr, httpapi.NewRouter(handler))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting matchgate", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		if err := poller.Run(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

func fatal(log *slog.Logger, what string, err error) {
	log.Error("failed to build "+what, "error", err)
	os.Exit(1)
}

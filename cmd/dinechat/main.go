package main

import (
	"context"
	"log"
	"net/http"

	"github.com/pitabwire/frame"
	"github.com/pitabwire/frame/config"
	"github.com/pitabwire/frame/workerpool"

	dcconfig "github.com/dinechat/dinechat/config"
	chathandler "github.com/dinechat/dinechat/internal/chat/handler"
	"github.com/dinechat/dinechat/internal/httputil"
	"github.com/dinechat/dinechat/pkg/dialog"
	"github.com/dinechat/dinechat/pkg/events"
	"github.com/dinechat/dinechat/pkg/reservation"
	reservationapi "github.com/dinechat/dinechat/pkg/reservation/api"
	"github.com/dinechat/dinechat/pkg/urlvalidation"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadWithOIDC[dcconfig.ChatConfig](ctx)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	eventRef := cfg.GetEventsQueueName()
	eventURL := cfg.GetEventsQueueURL()

	ctx, srv := frame.NewService(
		frame.WithConfig(&cfg),
		frame.WithName("dinechat"),
		frame.WithDatastore(),
		frame.WithRegisterPublisher(eventRef, eventURL),
		frame.WithWorkerPoolOptions(
			workerpool.WithPoolCount(cfg.WorkerPoolCount),
			workerpool.WithSinglePoolCapacity(cfg.WorkerPoolCapacity),
		),
	)
	defer srv.Stop(ctx)

	pool, err := srv.WorkManager().GetPool()
	if err != nil {
		log.Fatalf("getting worker pool: %v", err)
	}

	pub := events.NewPublisher(srv.QueueManager(), "system", eventRef)

	// --- Reference data ---
	loader := dialog.NewLoader(cfg.DataDir)
	if _, err := loader.LoadAll(); err != nil {
		log.Fatalf("loading reference data: %v", err)
	}
	if cfg.WatchFiles {
		// WatchAndReload blocks until the done channel closes, so it runs
		// off the startup path like the other background workers.
		watch := func() {
			if err := loader.WatchAndReload(ctx.Done()); err != nil {
				log.Printf("warning: watching data files: %v", err)
			}
		}
		if err := pool.Submit(ctx, watch); err != nil {
			go watch()
		}
	}

	// --- Reservation pipeline ---
	repo := reservation.NewRepository(
		srv.DatastoreManager().GetPool(ctx, "__default__pool_name__"),
	)
	var validateOpts []urlvalidation.Option
	if cfg.ForwardAllowPrivateIPs {
		validateOpts = append(validateOpts, urlvalidation.AllowPrivateIPs())
	}
	forwarder := reservation.NewForwarder(repo, pub, reservation.ForwarderConfig{
		Secret:            cfg.ForwardSecret,
		MaxRetries:        cfg.ForwardMaxRetries,
		TimeoutSec:        cfg.ForwardTimeoutSec,
		BackoffInitialSec: cfg.ForwardBackoffSec,
		BackoffMaxSec:     cfg.ForwardBackoffMax,
		CBFailThreshold:   cfg.CBFailThreshold,
		CBResetTimeoutSec: cfg.CBResetTimeoutSec,
	}, pool, validateOpts...)
	subscriber := &reservation.Subscriber{
		Repo:      repo,
		Forwarder: forwarder,
		Pool:      pool,
	}

	// --- Dialog engine ---
	sink := reservation.NewSink(repo)
	engine := dialog.NewEngine(loader, sink, pub, pool, dialog.EngineConfig{
		LongConversationThreshold: cfg.LongConversationThreshold,
	})

	// --- Sessions ---
	store := chathandler.NewMemoryStore(cfg.SessionTTL())
	store.StartReaper(ctx, pool)

	// --- HTTP ---
	mux := http.NewServeMux()
	chathandler.NewChatHandler(engine, store).RegisterRoutes(mux)
	reservationapi.NewHandler(repo, forwarder).RegisterRoutes(mux)

	srv.Init(ctx,
		frame.WithRegisterSubscriber(eventRef+".reservations", eventURL, subscriber),
		frame.WithHTTPHandler(httputil.H2CHandler(httputil.LoggingMiddleware(mux))),
	)

	if err := srv.Run(ctx, ""); err != nil {
		log.Fatalf("service exited: %v", err)
	}
}

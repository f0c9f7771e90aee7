package main // Entry point package

import (
	"context" // Context for starting gates
	"log"     // Logging library

	"github.com/joho/godotenv"    // Loads .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/nexusclub/member-gate/internal/auth"        // Identity provider abstraction
	"github.com/nexusclub/member-gate/internal/config"      // Internal config loader
	"github.com/nexusclub/member-gate/internal/entitlement" // Billing backend client
	"github.com/nexusclub/member-gate/internal/event"       // Process-wide event bus
	"github.com/nexusclub/member-gate/internal/gate"        // Per-user subscription gates
	"github.com/nexusclub/member-gate/internal/handler"     // HTTP handlers
	"github.com/nexusclub/member-gate/internal/middleware"  // Rate limiting middleware
	"github.com/nexusclub/member-gate/internal/queue"       // Background analytics consumer
	"github.com/nexusclub/member-gate/internal/repository"  // Remote store repositories
	"github.com/nexusclub/member-gate/internal/router"      // Internal router setup
)

func main() {
	_ = godotenv.Load()  // Load .env when present; real env vars win
	cfg := config.Load() // Load environment config

	// Remote collaborators: the PostgREST store and the billing backend.
	store := repository.NewClient(cfg.SupabaseURL, cfg.SupabaseAnonKey)
	poolRepo := repository.NewPoolRepo(store)
	profileRepo := repository.NewProfileRepo(store)
	billing := entitlement.NewClient(cfg.EntitlementURL, cfg.EntitlementKey)

	// The bus is constructed once per process and owned here; the registry
	// holds the per-user gates and routes bus events to them.
	bus := event.NewBus()
	registry := gate.NewRegistry(bus, func(userID string) *gate.Gate {
		g := gate.New(auth.Static(userID), billing, poolRepo, cfg.Debounce, nil)
		if err := g.Start(context.Background()); err != nil {
			log.Printf("gate start for %s: %v", userID, err)
		}
		return g
	})
	defer registry.Close()

	// Redis-backed rate limiting; degrades to a no-op when Redis is down.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting disabled")
	}
	ratelimit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	// Background consumer for subscription.activated analytics events.
	go func() {
		if err := queue.StartActivationConsumer(); err != nil {
			log.Printf("activation consumer stopped: %v", err)
		}
	}()

	e := echo.New() // Create Echo instance
	router.RegisterRoutes(e)
	sessions := handler.NewSessionHandler(cfg, registry, bus, profileRepo)
	router.RegisterSession(e, sessions, cfg.IdentitySecret)
	numbers := handler.NewMemberNumberHandler(registry, poolRepo)
	paywall := handler.NewPaywallHandler(registry, billing, bus)
	router.RegisterMember(e, numbers, paywall, cfg.IdentitySecret, ratelimit)
	profiles := handler.NewProfileHandler(profileRepo, billing, bus)
	router.RegisterProfile(e, profiles, cfg.IdentitySecret)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}

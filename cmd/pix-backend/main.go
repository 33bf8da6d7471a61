package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"

	"pix-backend/internal/config"
	"pix-backend/internal/env"
	"pix-backend/internal/identity"
	"pix-backend/internal/infrastructure/cache"
	"pix-backend/internal/infrastructure/processor"
	"pix-backend/internal/infrastructure/registry"
	"pix-backend/internal/infrastructure/repo"
	"pix-backend/internal/infrastructure/tracking"
	"pix-backend/internal/queue"
	"pix-backend/internal/server"
	"pix-backend/internal/usecase"
	"pix-backend/internal/workers"
)

func main() {
	env.Load(".env", ".env.local")
	envDefaults := config.EnvDefaults()

	envName := flag.String("env", envDefaults.Env, "")
	port := flag.Int("port", envDefaults.Port, "")
	dbURL := flag.String("database-url", envDefaults.DatabaseURL, "")
	redisAddr := flag.String("redis-addr", envDefaults.RedisAddr, "")
	rabbitURL := flag.String("rabbitmq-url", envDefaults.RabbitURL, "")

	flag.Parse()

	cfg := envDefaults
	cfg.Env = *envName
	cfg.Port = *port
	cfg.DatabaseURL = *dbURL
	cfg.RedisAddr = *redisAddr
	cfg.RabbitURL = *rabbitURL

	var orderRepo usecase.OrderRepo
	var dbPing func() error
	if cfg.DatabaseURL != "" {
		pg, err := repo.NewPostgresOrderRepo(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("postgres: %v", err)
		}
		orderRepo = pg
		dbPing = pg.Ping
	} else {
		log.Println("no database configured, using in-memory store")
		orderRepo = repo.NewMemoryOrderRepo()
	}

	var orderCache server.OrderCache
	if c := cache.NewOrderCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); c != nil {
		orderCache = c
	}

	creator := &processor.Client{
		BaseURL:     cfg.ProcessorBaseURL,
		SecretKey:   cfg.ProcessorSecret,
		PublicKey:   cfg.ProcessorPublic,
		ProductName: cfg.ProductName,
		PostbackURL: postbackURL(cfg),
	}
	sender := &tracking.Client{URL: cfg.TrackingURL, Token: cfg.TrackingToken}
	forwarder := &usecase.TrackingForwarder{Sender: sender, ProductName: cfg.ProductName}

	if cfg.RabbitURL != "" {
		broker, err := queue.Connect(cfg.RabbitURL)
		if err != nil {
			log.Printf("rabbitmq unavailable, dispatching inline: %v", err)
		} else {
			defer broker.Close()
			forwarder.Broker = broker
			consumer := &workers.TrackingConsumer{Repo: orderRepo, Forwarder: forwarder, Sender: sender}
			if err := consumer.Start(broker); err != nil {
				log.Fatalf("start consumer: %v", err)
			}
		}
	}

	ident := identity.NewSynthesizer(identity.DefaultPools(), nil)
	checkout := usecase.NewCheckoutService(orderRepo, creator, ident, forwarder, "checkout", cfg.DefaultAmountCents)
	reconcile := usecase.NewReconcileService(orderRepo, forwarder)
	auth := &usecase.AuthService{JWTSecret: cfg.AdminJWTSecret}
	reg := &registry.Client{BaseURL: cfg.RegistryBaseURL}

	srv := server.New(cfg, checkout, reconcile, auth, reg, orderCache, dbPing)

	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := http.ListenAndServe(addr, srv.Handler()); err != nil {
		log.Fatal(err)
	}
}

func postbackURL(cfg config.Config) string {
	if cfg.PostbackBaseURL == "" {
		return ""
	}
	return cfg.PostbackBaseURL + "/api/v1/webhooks/payment"
}

package main

import (
	"context"
	"log"

	"festival-cms-be/internal/bootstrap"
	"festival-cms-be/internal/config"
	"festival-cms-be/internal/server"
	"festival-cms-be/internal/tracer"
	"festival-cms-be/pkg/database"
)

func main() {
	// 0. Tracing (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Configuration
	cfg := config.Load()

	// 2. Record store
	db, err := database.NewSurrealDB(
		context.Background(),
		cfg.Surreal.Endpoint,
		cfg.Surreal.Namespace,
		cfg.Surreal.Database,
		cfg.Surreal.Username,
		cfg.Surreal.Password,
	)
	if err != nil {
		log.Panicf("Unable to connect to SurrealDB: %v", err)
	}

	// 3. Dependency container
	container := bootstrap.NewContainer(db, cfg)

	// 4. Background workers
	go func() {
		log.Println("Background: Starting Consumer Service...")
		if err := container.ConsumerService.Consume(context.Background()); err != nil {
			log.Printf("Background Consumer Error: %v", err)
		}
	}()

	// 5. HTTP server
	srv := server.New(cfg, container)
	log.Fatal(srv.Run())
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/marketflux/eventengine/internal/config"
	"github.com/marketflux/eventengine/internal/dbstore"
	"github.com/marketflux/eventengine/internal/svc"
)

func main() {
	migrateOnly := flag.Bool("migrate-only", false, "Create the schema and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	if *migrateOnly {
		fmt.Println("Ensuring schema...")
		db, err := dbstore.Open(cfg.DBDSN)
		if err != nil {
			fmt.Printf("Failed to connect to database: %v\n", err)
			os.Exit(1)
		}
		if err := dbstore.EnsureSchema(db); err != nil {
			fmt.Printf("Failed to create schema: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Schema ready.")
		return
	}

	if err := svc.Init(cfg); err != nil {
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return svc.Start(gctx) })
	g.Go(func() error { return svc.API.Listen(cfg.HTTPAddr) })

	<-ctx.Done()
	svc.Stop()

	if err := g.Wait(); err != nil {
		panic(err)
	}
}

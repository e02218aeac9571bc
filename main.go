// Command gridloc runs the event location service: an HTTP API for
// submitting waveform records as jobs, and a background runner that drives
// the correlation/grid-search pipeline over each record.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/microseis/gridloc/internal/api"
	"github.com/microseis/gridloc/internal/config"
	"github.com/microseis/gridloc/internal/db"
	"github.com/microseis/gridloc/internal/runner"
	"github.com/microseis/gridloc/internal/version"
	"github.com/microseis/gridloc/internal/waveform"
)

var (
	listen      = flag.String("listen", ":8080", "Listen address")
	dbPath      = flag.String("db", "gridloc.db", "SQLite database path")
	sitePath    = flag.String("site", "site.json", "Site descriptor (stations, model, center)")
	paramsPath  = flag.String("params", "", "Processing parameters JSON (optional)")
	dataDir     = flag.String("data", ".", "Directory job waveform paths must live under")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("gridloc %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}
	if *listen == "" {
		log.Fatal("Listen address is required")
	}

	site, err := waveform.LoadSite(*sitePath)
	if err != nil {
		log.Fatalf("Failed to load site: %v", err)
	}

	params := &config.Processing{}
	if *paramsPath != "" {
		params, err = config.Load(*paramsPath)
		if err != nil {
			log.Fatalf("Failed to load parameters: %v", err)
		}
	}

	store, err := db.NewDB(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()

	if err := store.MigrateUp(); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	run := runner.New(store, site, params)

	var wg sync.WaitGroup
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// job runner routine
	wg.Add(1)
	go func() {
		defer wg.Done()
		run.Run(ctx)
		log.Print("runner routine terminated")
	}()

	// HTTP server routine
	wg.Add(1)
	go func() {
		defer wg.Done()

		server := &http.Server{
			Addr:    *listen,
			Handler: api.NewServer(store, run, site, params, *dataDir).ServeMux(),
		}

		go func() {
			log.Printf("listening on %s", *listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("failed to start server: %v", err)
				stop()
			}
		}()

		<-ctx.Done()
		log.Println("shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("HTTP server shutdown error: %v", err)
		}
	}()

	wg.Wait()
	log.Printf("Graceful shutdown complete")
}

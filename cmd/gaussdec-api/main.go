// gaussdec-api serves a finished decomposition store over HTTP: runs,
// per-pixel components, column densities and catalog statistics, plus
// swagger UI and prometheus metrics.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "gaussdec/docs"
	"gaussdec/internal/api"
	"gaussdec/internal/api/handler"
	"gaussdec/internal/store"
	"gaussdec/pkg/router"
)

// @title gaussdec inspection API
// @version 1.0
// @description Read-only HTTP API over a Gaussian decomposition store.
// @host localhost:8080
// @BasePath /api/v1
func main() {
	db := flag.String("db", "", "decomposition store to serve (required)")
	addr := flag.String("addr", ":8080", "listen address")
	flag.Parse()

	if *db == "" {
		fmt.Fprintln(os.Stderr, "usage: gaussdec-api -db <store.sqlite> [-addr :8080]")
		os.Exit(2)
	}

	st, err := store.OpenRead(*db)
	if err != nil {
		log.Fatalf("open store: %v", err)
	}
	defer st.Close()

	r := router.New()
	api.RegisterRoutes(r, handler.New(st))
	r.Mount("/metrics", promhttp.Handler())
	r.Mount("/swagger/", httpSwagger.WrapHandler)

	for _, route := range r.Routes() {
		log.Printf("route %s", route)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- r.Start(*addr) }()

	select {
	case err := <-errc:
		if err != nil {
			log.Fatalf("server: %v", err)
		}
	case <-ctx.Done():
		stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.Shutdown(shutdownCtx); err != nil {
			log.Fatalf("shutdown: %v", err)
		}
		<-errc
	}
}

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MJE43/nearkarts-go/internal/api"
	"github.com/MJE43/nearkarts-go/internal/config"
	"github.com/MJE43/nearkarts-go/internal/contract"
	"github.com/MJE43/nearkarts-go/internal/events"
	"github.com/MJE43/nearkarts-go/internal/journal"
	"github.com/MJE43/nearkarts-go/internal/store"
)

func main() {
	addr := flag.String("addr", "", "listen address (overrides KARTS_LISTEN_ADDR)")
	exportOnExit := flag.Bool("export-on-exit", false, "write the call journal to KARTS_JOURNAL_DIR on shutdown")
	flag.Parse()

	logger := log.New(os.Stdout, "[KARTD] ", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}

	logger.Printf("Starting nearkarts %s (Go %s) account=%s db=%s", api.EngineVersion, runtime.Version(), cfg.ContractAccount, cfg.DBPath)

	if err := run(cfg, *exportOnExit, logger); err != nil {
		logger.Fatalf("kartd: %v", err)
	}
	logger.Printf("stopped")
}

func run(cfg config.Config, exportOnExit bool, logger *log.Logger) error {
	st, err := store.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	hub := events.NewHub(cfg.EventBuffer)
	defer hub.Close()

	k := contract.New(st, contract.Options{
		ContractAccount: cfg.ContractAccount,
		MinDeposit:      cfg.MinDeposit,
		Publisher:       hub,
	})

	srv, err := api.NewServer(k, st, api.Options{
		RequestTimeout: cfg.RequestTimeout,
		Hub:            hub,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return err
	}
	logger.Printf("listening on http://%s", ln.Addr())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Printf("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		// Websocket streams are hijacked and ignored by Shutdown; closing
		// the hub ends them.
		hub.Close()
		return httpServer.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	if exportOnExit {
		path, n, err := journal.ExportFile(context.Background(), k, cfg.JournalDir)
		if err != nil {
			return err
		}
		logger.Printf("journal exported path=%s calls=%d", path, n)
	}
	return nil
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/andriemoral27/PrinTech-Main/internal/api"
	"github.com/andriemoral27/PrinTech-Main/internal/api/middleware"
	"github.com/andriemoral27/PrinTech-Main/internal/config"
	"github.com/andriemoral27/PrinTech-Main/internal/core"
	"github.com/andriemoral27/PrinTech-Main/internal/db"
	"github.com/andriemoral27/PrinTech-Main/internal/hardware"
	"github.com/andriemoral27/PrinTech-Main/internal/spooler"
	"github.com/andriemoral27/PrinTech-Main/internal/webhook"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	useStubLine := flag.Bool("stub-coin-input", false, "replace the GPIO coin input with a stub that never pulses")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[main] failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[main] invalid config: %v", err)
	}
	configureLogging(cfg.Logging.Level)

	if err := db.Init(db.Config{Path: cfg.Database.Path}); err != nil {
		log.Fatalf("[main] failed to initialize database: %v", err)
	}
	defer db.Close()

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	// Jobs left paid or printing by a previous run are failed, never
	// resumed: re-printing unattended after a restart would double-charge.
	failed, err := db.Jobs.FailInterrupted(rootCtx, core.ReasonInterrupted)
	if err != nil {
		log.Fatalf("[main] failed to recover interrupted jobs: %v", err)
	}
	if failed > 0 {
		log.Printf("[main] marked %d interrupted job(s) as failed", failed)
	}

	sender := webhook.NewSender(cfg.Webhooks, webhook.SenderConfig{})
	sender.Start()
	defer sender.Stop()

	ledger := core.NewPaperLedger(db.Paper)
	dispatcher := core.NewDispatcher(
		spooler.NewLPSpooler(),
		spooler.NewLibreOfficeConverter(cfg.Printer.ConverterCmd),
		cfg.Printer.WorkDir,
		cfg.Printer.Destination,
	)

	newCounter := func() core.Counter {
		var line hardware.Line = hardware.NewGPIOLine(cfg.Kiosk.CoinPin)
		if *useStubLine {
			line = hardware.StubLine{}
		}
		return hardware.NewPulseCounter(line, cfg.Kiosk.SampleInterval)
	}

	kiosk := core.NewKiosk(db.Jobs, ledger, dispatcher, sender, newCounter, core.KioskConfig{
		Session: core.SessionConfig{
			Timeout:    cfg.Kiosk.SessionTimeout,
			PulseValue: cfg.Kiosk.PulseValue,
		},
		PollInterval:   cfg.Printer.PollInterval,
		MaxPollRetries: cfg.Printer.MaxPollRetries,
	})
	kiosk.Start(rootCtx)
	defer kiosk.Stop()

	auth, err := middleware.NewAuthMiddleware()
	if err != nil {
		log.Fatalf("[main] failed to initialize auth: %v", err)
	}

	router := api.NewRouter(kiosk, ledger, sender, auth)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return rootCtx },
	}

	g, gctx := errgroup.WithContext(rootCtx)

	g.Go(func() error {
		log.Printf("[main] listening on :%d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		select {
		case sig := <-sigCh:
			log.Printf("[main] received %s, shutting down", sig)
		case <-gctx.Done():
		}

		rootCancel()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("[main] %v", err)
	}
	log.Println("[main] stopped")
}

// configureLogging maps the config level onto the stdlib logger and gin.
// Debug turns on caller locations and gin's verbose mode; everything
// else runs with standard timestamps and gin in release mode.
func configureLogging(level string) {
	if level == "debug" {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
		gin.SetMode(gin.DebugMode)
		return
	}
	log.SetFlags(log.LstdFlags)
	gin.SetMode(gin.ReleaseMode)
}

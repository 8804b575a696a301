package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/ovchar/tradejournal/internal/config"
	"github.com/ovchar/tradejournal/internal/es"
	"github.com/ovchar/tradejournal/internal/handlers"
	"github.com/ovchar/tradejournal/internal/logging"
	mwauth "github.com/ovchar/tradejournal/internal/middleware/auth"
	"github.com/ovchar/tradejournal/internal/mykafka"
	"github.com/ovchar/tradejournal/internal/service"
	"github.com/ovchar/tradejournal/internal/store"
	"github.com/ovchar/tradejournal/internal/tokens"
	httpserver "github.com/ovchar/tradejournal/internal/transport/http"
)

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	prod, err := mykafka.NewProducer(
		[]string{configuration.KAFKA_ADDRESS},
		[]string{"user_events", "trade_events"},
	)
	if err != nil {
		log.Fatal(err)
	}

	esClient, err := es.NewClient(configuration)
	if err != nil {
		log.Fatal(err)
	}

	st := store.NewGormStore(db)
	issuer := &tokens.Issuer{
		Store:      st,
		JWTSecret:  []byte(configuration.JWT_SECRET),
		AccessTTL:  configuration.ACCESS_TTL,
		RefreshTTL: configuration.REFRESH_TTL,
	}
	authSvc := &service.AuthService{Store: st, Issuer: issuer, Producer: prod}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := logging.IntoContext(c.Request().Context(), logger)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	})

	deps := httpserver.Deps{
		AuthHandler:    &handlers.AuthHandler{Svc: authSvc},
		ProjectHandler: &handlers.ProjectHandler{DB: db},
		TradeHandler:   &handlers.TradeHandler{DB: db, Producer: prod},
		SearchHandler:  &handlers.SearchHandler{ES: esClient, Index: "trade"},
		AuthMiddleware: &mwauth.Middleware{Issuer: issuer},
	}
	httpserver.Register(e, &deps)

	sweepCtx, stopSweeper := context.WithCancel(logging.IntoContext(context.Background(), logger))
	sweeper := &service.TokenSweeper{Store: st, Period: configuration.SWEEP_PERIOD}
	go sweeper.Run(sweepCtx)

	srv := &http.Server{
		Addr:         ":8080",
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	stopSweeper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := prod.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}

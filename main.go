package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"netsuite-gateway/config"
	"netsuite-gateway/controllers"
	"netsuite-gateway/netsuite"
	"netsuite-gateway/routes"
	"netsuite-gateway/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("configuration failed")
	}

	logrus.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}
	logrus.WithField("account_id", cfg.Credentials.AccountID).Info("starting netsuite gateway")

	client := netsuite.NewClient(cfg.Credentials)
	cache := services.NewCache(cfg.CacheTTL)
	sem := semaphore.NewWeighted(cfg.MaxConcurrentQueries)

	lookups := services.NewLookupService(client)
	accounts := services.NewAccountService(client)
	coordinator := services.NewBalanceCoordinator(client, accounts, lookups, cache, sem)
	equity := services.NewEquityService(client, lookups, cache, sem, cfg.RetainedEarningsPattern)
	transactions := services.NewTransactionService(client, cache, sem, cfg.Credentials.AccountID)

	// Bootstrap is tolerant of partial failure; the process starts either way
	// and dimensions resolve lazily or stay empty.
	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 2*time.Minute)
	lookups.Bootstrap(bootCtx)
	accounts.PrimeTitles(bootCtx)
	cancelBoot()

	router := routes.SetupRouter(routes.Controllers{
		Health:       controllers.NewHealthController(client, lookups, cache, cfg.Credentials.AccountID),
		Lookup:       controllers.NewLookupController(lookups),
		Account:      controllers.NewAccountController(accounts),
		Balance:      controllers.NewBalanceController(coordinator, lookups),
		Equity:       controllers.NewEquityController(equity, lookups),
		Transactions: controllers.NewTransactionController(transactions, lookups),
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logrus.WithField("port", cfg.Port).Info("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("shutdown incomplete")
	}
}

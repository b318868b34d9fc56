package main

import (
	"log"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	httpadp "koperasi-collection-backend/internal/adapter/http"
	mw "koperasi-collection-backend/internal/adapter/middleware"
	"koperasi-collection-backend/internal/adapter/repository/snapshot"
	"koperasi-collection-backend/internal/adapter/sheets"
	"koperasi-collection-backend/internal/config"
	"koperasi-collection-backend/internal/infrastructure/cache"
	"koperasi-collection-backend/internal/infrastructure/db"
	"koperasi-collection-backend/internal/jobs"
	"koperasi-collection-backend/internal/usecase/dashboard"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	// Snapshot persistence is best effort: without it the service still
	// works, it just starts cold.
	var store dashboard.Store
	dsn := cfg.SQLitePath
	if cfg.DBDriver == "mysql" {
		dsn = cfg.MySQLDSN()
	}
	if gdb, err := db.Open(cfg.DBDriver, dsn); err != nil {
		log.Printf("snapshot store unavailable, continuing without: %v", err)
	} else if s, err := snapshot.NewStore(gdb); err != nil {
		log.Printf("snapshot store migration failed, continuing without: %v", err)
	} else {
		store = s
	}

	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatal(err)
	}

	client := sheets.NewClient(cfg.GatewayURL, time.Duration(cfg.GatewayTimeoutSecs)*time.Second)
	dash := dashboard.NewUsecase(client, store)

	runner, err := jobs.NewRefreshRunner(dash, cfg.RefreshSpec, cfg.RefreshScopes)
	if err != nil {
		log.Fatal(err)
	}
	runner.Start()
	defer runner.Stop()

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger(), middleware.Recover())
	e.Validator = httpadp.NewValidator()

	h := httpadp.NewHandler(dash)
	p := httpadp.NewProxyHandler(client, dash)
	idemp := mw.Idempotency(rdb, time.Duration(cfg.IdempTTLSecs)*time.Second)

	// routes
	e.GET("/health", h.Health)
	e.POST("/refresh", h.Refresh)
	e.GET("/dashboard", h.Dashboard)
	e.GET("/mutations", h.Mutations)
	e.GET("/loans", h.Loans)
	e.GET("/loans/:loan_id/tickets", h.LoanTickets)
	e.GET("/submissions", h.Submissions)
	e.GET("/customers", h.Customers)
	e.GET("/customers/:id/balance", p.MemberBalance)

	e.POST("/login", p.Login)
	e.POST("/payments", p.PayInstallment, idemp)
	e.POST("/loan-requests", p.SubmitLoanRequest, idemp)
	e.POST("/loan-requests/:id/approve", p.ApproveLoanRequest, idemp)
	e.POST("/loan-requests/:id/disburse", p.DisburseLoanRequest, idemp)
	e.POST("/savings-withdrawals", p.WithdrawSavings, idemp)
	e.POST("/customers", p.RegisterCustomer, idemp)
	e.POST("/transport-claims", p.ClaimTransport, idemp)

	addr := ":" + cfg.AppPort
	log.Printf("listening on %s", addr)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}

package main

import (
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"storefront/internal/config"
	"storefront/internal/delivery"
	"storefront/internal/service"
	"storefront/internal/view"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using system environment variables")
	} else {
		log.Println("Environment variables loaded from .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	gateway, closeGateway := newGateway(cfg)
	defer closeGateway()

	flowCfg := service.LoginFlowConfig{
		ResendCooldown: cfg.ResendCooldown,
		Tick:           cfg.CooldownTick,
	}
	flows := service.NewFlowStore(func() *service.LoginFlow {
		return service.NewLoginFlow(gateway, flowCfg)
	}, cfg.SessionTTL)
	defer flows.Close()

	pageHandler := delivery.NewPageHandler(view.DefaultLanding())
	loginHandler := delivery.NewLoginHandler(flows, cfg.CookieName, cfg.CookieSecure, cfg.SessionTTL)

	app := delivery.NewApp(pageHandler, loginHandler, cfg.AllowedOrigins)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down")
		if err := app.Shutdown(); err != nil {
			log.Printf("Shutdown failed: %v", err)
		}
	}()

	log.Printf("Storefront listening on %s (OTP gateway: %s)", cfg.HTTPAddr, cfg.OTPGateway)
	if err := app.Listen(cfg.HTTPAddr); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

func newGateway(cfg config.Config) (service.OTPGateway, func()) {
	if strings.EqualFold(cfg.OTPGateway, config.GatewayLocal) {
		store := service.NewCodeStore(cfg.CodeTTL, cfg.MaxAttempts)
		log.Printf("Using local OTP gateway, codes are written to the log")
		return service.NewLocalGateway(store, cfg.SendDelay), store.Close
	}

	return service.NewSimulatedGateway(cfg.SendDelay, cfg.VerifyDelay), func() {}
}

package main

import (
	"context"
	"sync"

	"riskgate/internal/clients"
	"riskgate/internal/configuration"
	"riskgate/internal/core"
	"riskgate/internal/database"
	"riskgate/internal/geolocation"
	"riskgate/internal/models"
	"riskgate/internal/scoring"
	"riskgate/internal/services"
	"riskgate/internal/workers"

	"go.uber.org/zap"
)

func main() {
	zap.ReplaceGlobals(zap.Must(zap.NewProduction()))

	config := configuration.Read()
	core.NewLogger(config.App.LogLevel)

	profile := configuration.GetProfile(config.App.Profile)
	eventsManager := core.NewEventsManager(config.Events)

	var wg sync.WaitGroup

	if profile.RiskScorer {
		db := database.InitDB(config.Risk.Database, &models.LoginAttempt{})
		arbiter := clients.NewMFAClient(config.MFA.URL)
		riskService := services.RiskService{
			DB:        db,
			Scorer:    scoring.NewRuleScorer(db, scoring.NewHistoryVerifier(arbiter)),
			Publisher: eventsManager.GetPublisher(configuration.RoutingKeyRiskScored),
		}

		auditWorker := &workers.AuditWorker{
			Risk:       riskService,
			Subscriber: eventsManager.GetSubscriber(configuration.RoutingKeyLoginAttempted),
		}
		go auditWorker.Start(context.Background())

		wg.Add(1)
		go func() {
			defer wg.Done()
			core.StartHTTPServer("risk", config.Risk.Port, config.App.AllowedOrigins,
				riskService.Routes())
		}()
	}

	if profile.MFAArbiter {
		db := database.InitDB(config.MFA.Database, &models.TrustedDevice{}, &models.OTPLog{})
		mfaService := services.MFAService{
			DB:            db,
			Cache:         core.NewCache(config.MFA.Cache, "mfa cache"),
			Notifier:      core.NewNotifier(config.Notifier),
			Publisher:     eventsManager.GetPublisher(configuration.RoutingKeyMFACompleted),
			RiskThreshold: config.App.RiskThreshold,
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			core.StartHTTPServer("mfa", config.MFA.Port, config.App.AllowedOrigins,
				mfaService.Routes())
		}()
	}

	if profile.Authenticator {
		db := database.InitDB(config.Auth.Database, &models.User{})
		store := core.NewCache(config.Auth.Cache, "auth cache")
		authService := services.AuthService{
			DB:         db,
			Cache:      store,
			AuthConfig: config.App.GetAuthConfig(),
			Locator:    geolocation.NewLocator(config.Geo, store),
			RiskClient: clients.NewRiskClient(config.Risk.URL),
			MFAClient:  clients.NewMFAClient(config.MFA.URL),
			Publisher:  eventsManager.GetPublisher(configuration.RoutingKeyLoginAttempted),
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			core.StartHTTPServer("auth", config.Auth.Port, config.App.AllowedOrigins,
				authService.Routes())
		}()
	}

	wg.Wait()
	eventsManager.Close()
}

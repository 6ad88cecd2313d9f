package main

import (
	"context"
	"net/http"

	"prompthub/internal/api/handlers"
	"prompthub/internal/app"
	"prompthub/internal/cache"
	"prompthub/internal/classifier"
	"prompthub/internal/config"
	"prompthub/internal/llm"
	"prompthub/internal/logger"
	"prompthub/internal/repository/postgres"

	"github.com/joho/godotenv"
)

func enableCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	}
}

func main() {
	// Optional .env for local development
	if err := godotenv.Load(); err != nil {
		logger.Log.Debug("No .env file found, using environment")
	}

	appConfig, err := config.LoadConfig()
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to load configuration")
	}

	// Persistent store
	logger.Log.Info("Initializing database...")
	database, err := postgres.NewPostgresDB(appConfig.Database)
	if err != nil {
		logger.Log.WithError(err).Fatal("Failed to initialize database")
	}
	defer database.Close()

	// Config cache: Redis when configured, in-process otherwise
	ctx := context.Background()
	var cacheBackend cache.Cache
	if appConfig.Redis.Addr != "" {
		redisCache, err := cache.NewRedis(ctx, appConfig.Redis.Addr, appConfig.Redis.Password, appConfig.Redis.DB)
		if err != nil {
			logger.Log.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer redisCache.Close()
		cacheBackend = redisCache
	} else {
		cacheBackend = cache.NewMemory()
	}

	// Optional answering-machine pre-check service
	var precheck classifier.Classifier
	if appConfig.Classifier.URL != "" {
		precheck = classifier.NewHTTPClassifier(appConfig.Classifier.URL, appConfig.Classifier.Timeout)
	}

	application := app.New(database, cacheBackend, llm.NewGeminiGenerator(), precheck, appConfig)

	// Warm the config cache at startup; a failure here is not fatal since
	// every read path falls back to the store.
	warmer := cache.NewWarmer(cacheBackend, database)
	if err := warmer.Warm(ctx); err != nil {
		logger.Log.WithError(err).Warn("Cache warm-start failed, continuing with cold cache")
	}

	webhookHandlers := handlers.NewWebhookHandlers(application)
	adminHandlers := handlers.NewAdminHandlers(application)
	cacheHandlers := handlers.NewCacheHandlers(application)

	mux := http.NewServeMux()

	corsHandler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.WriteHeader(http.StatusOK)
	}

	mux.HandleFunc("GET /api/health", enableCORS(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}))

	// Webhook
	mux.HandleFunc("POST /api/webhook", enableCORS(webhookHandlers.HandleWebhook))
	mux.HandleFunc("OPTIONS /api/webhook", corsHandler)

	// Tenant administration
	mux.HandleFunc("POST /api/tenants", enableCORS(adminHandlers.CreateTenant))
	mux.HandleFunc("GET /api/tenants", enableCORS(adminHandlers.ListTenants))
	mux.HandleFunc("OPTIONS /api/tenants", corsHandler)
	mux.HandleFunc("GET /api/tenants/{id}", enableCORS(adminHandlers.GetTenant))
	mux.HandleFunc("PUT /api/tenants/{id}", enableCORS(adminHandlers.UpdateTenant))
	mux.HandleFunc("DELETE /api/tenants/{id}", enableCORS(adminHandlers.DeleteTenant))
	mux.HandleFunc("OPTIONS /api/tenants/{id}", corsHandler)

	// Prompt administration
	mux.HandleFunc("POST /api/tenants/{id}/prompts", enableCORS(adminHandlers.CreatePrompt))
	mux.HandleFunc("GET /api/tenants/{id}/prompts", enableCORS(adminHandlers.ListPrompts))
	mux.HandleFunc("OPTIONS /api/tenants/{id}/prompts", corsHandler)
	mux.HandleFunc("GET /api/tenants/{id}/prompts/{promptId}", enableCORS(adminHandlers.GetPrompt))
	mux.HandleFunc("PUT /api/tenants/{id}/prompts/{promptId}", enableCORS(adminHandlers.UpdatePrompt))
	mux.HandleFunc("DELETE /api/tenants/{id}/prompts/{promptId}", enableCORS(adminHandlers.DeletePrompt))
	mux.HandleFunc("OPTIONS /api/tenants/{id}/prompts/{promptId}", corsHandler)

	// Cache administration
	mux.HandleFunc("POST /api/cache/init", enableCORS(cacheHandlers.InitCache))
	mux.HandleFunc("POST /api/cache/clear", enableCORS(cacheHandlers.ClearCache))
	mux.HandleFunc("OPTIONS /api/cache/init", corsHandler)
	mux.HandleFunc("OPTIONS /api/cache/clear", corsHandler)

	port := appConfig.Server.Port
	logger.Log.WithField("port", port).Info("Server starting")
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		logger.Log.WithError(err).Fatal("Server failed to start")
	}
}

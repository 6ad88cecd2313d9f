package app

import (
	"prompthub/internal/cache"
	"prompthub/internal/classifier"
	"prompthub/internal/config"
	"prompthub/internal/llm"
	"prompthub/internal/repository/db"
)

// App holds all application dependencies wired in main and handed to the
// handler layer.
type App struct {
	DB         db.Database
	Cache      cache.Cache
	Generator  llm.Generator
	Classifier classifier.Classifier
	AppConfig  *config.AppConfig
}

// New creates the application dependency container
func New(database db.Database, cacheBackend cache.Cache, generator llm.Generator, precheck classifier.Classifier, appConfig *config.AppConfig) *App {
	return &App{
		DB:         database,
		Cache:      cacheBackend,
		Generator:  generator,
		Classifier: precheck,
		AppConfig:  appConfig,
	}
}

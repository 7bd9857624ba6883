package core

import (
	"riskgate/internal/cache"
	"riskgate/internal/models"

	"go.uber.org/zap"
)

func NewCache(config *models.CacheConfiguration, name string) cache.ICache {
	if config == nil {
		zap.L().Fatal("Missing cache configuration", zap.String("cache", name))
	}

	store, err := cache.NewRueidisCache(*config, name)
	if err != nil {
		zap.L().Fatal("Failed to connect to cache",
			zap.String("cache", name),
			zap.Error(err))
	}
	return store
}

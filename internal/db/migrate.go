package db

import (
	"github.com/genbyt/genbyt-backend/internal/app/model"
	"github.com/genbyt/genbyt-backend/pkg/logger"
)

// Migrate runs database migrations for the catalog schema.
func Migrate() error {
	logger.Info("Running database migrations...")

	models := []interface{}{
		&model.Category{},
		&model.Location{},
		&model.Term{},
		&model.Listing{},
		&model.ListingTerm{},
		&model.MediaAsset{},
		&model.PriceHistory{},
		&model.ListingView{},
		&model.Favorite{},
		&model.SoldArchive{},
	}

	if err := DB.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

package migrations

import (
	"order_scheduler/internal/models"
	"order_scheduler/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// RunMigrations ensures the schema exists and seeds baseline data.
func RunMigrations(db *gorm.DB) error {
	log.Info().Msg("running database migrations")

	err := db.AutoMigrate(
		&models.Customer{},
		&models.Product{},
		&models.RecurringSchedule{},
		&models.OrderInstance{},
		&models.AuditEntry{},
	)
	if err != nil {
		return err
	}

	if err := createDefaultData(db); err != nil {
		log.Warn().Err(err).Msg("failed to create default data")
	}

	log.Info().Msg("database migrations completed")
	return nil
}

// createDefaultData seeds the operations admin and a starter catalog.
func createDefaultData(db *gorm.DB) error {
	customerRepo := repository.NewCustomerRepository(db)

	if existing, err := customerRepo.GetByEmail("ops@grocer.example"); err == nil && existing != nil {
		log.Info().Msg("default admin already exists")
		return nil
	}

	admin := &models.Customer{
		Name:     "Operations Admin",
		Email:    "ops@grocer.example",
		Role:     string(models.RoleAdmin),
		IsActive: true,
	}
	if err := customerRepo.Create(admin); err != nil {
		return err
	}
	log.Info().Str("email", admin.Email).Msg("default admin created")

	products := []models.Product{
		{SKU: "MLK-1", Name: "Whole Milk 1L", Price: 3.50, StockQty: 200, IsActive: true},
		{SKU: "BRD-1", Name: "Sourdough Loaf", Price: 5.20, StockQty: 80, IsActive: true},
		{SKU: "EGG-12", Name: "Free Range Eggs (12)", Price: 6.80, StockQty: 120, IsActive: true},
		{SKU: "APL-1K", Name: "Apples 1kg", Price: 4.10, StockQty: 150, IsActive: true},
	}
	for i := range products {
		if err := db.Create(&products[i]).Error; err != nil {
			log.Warn().Err(err).Str("sku", products[i].SKU).Msg("failed to seed product")
		}
	}

	log.Info().Int("products", len(products)).Msg("starter catalog seeded")
	return nil
}

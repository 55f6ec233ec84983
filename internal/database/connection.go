// internal/database/connection.go
package database

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/myfitlabs/myfit-backend/internal/config"
	"github.com/myfitlabs/myfit-backend/internal/models"
)

var DB *gorm.DB

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var err error
	var gormConfig *gorm.Config

	// Configure GORM logger
	if cfg.LogLevel == "silent" {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		}
	} else {
		gormConfig = &gorm.Config{
			Logger: logger.Default.LogMode(logger.Info),
		}
	}

	// Connect to database
	DB, err = gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := DB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Database connection established successfully")
	return DB, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		log.Printf("Error getting underlying sql.DB: %v", err)
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Printf("Error closing database connection: %v", err)
	} else {
		log.Println("Database connection closed successfully")
	}
}

func RunMigrations(db *gorm.DB) error {
	log.Println("Running database migrations...")

	// gen_random_uuid() needs pgcrypto on Postgres < 13
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"pgcrypto\"").Error; err != nil {
		return fmt.Errorf("failed to create pgcrypto extension: %w", err)
	}

	// Run auto-migrations
	err := db.AutoMigrate(
		&models.User{},
		&models.Organization{},
		&models.OrganizationMember{},
		&models.Exercise{},
		&models.Workout{},
		&models.WorkoutExercise{},
		&models.WorkoutAssignment{},
		&models.Food{},
		&models.DietPlan{},
		&models.DietPlanMeal{},
		&models.DietPlanMealFood{},
		&models.MarketplaceTemplate{},
		&models.TemplatePurchase{},
		&models.TemplateReview{},
		&models.CreatorEarnings{},
		&models.CreatorPayout{},
		&models.OrganizationTemplateAccess{},
		&models.ReconciliationEvent{},
	)

	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create indexes
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Println("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		// User indexes
		"CREATE INDEX IF NOT EXISTS idx_users_type_status ON users(user_type, status)",

		// Template browsing indexes
		"CREATE INDEX IF NOT EXISTS idx_templates_active_type ON marketplace_templates(is_active, template_type)",
		"CREATE INDEX IF NOT EXISTS idx_templates_category_active ON marketplace_templates(category, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_templates_featured ON marketplace_templates(is_featured, is_active)",
		"CREATE INDEX IF NOT EXISTS idx_templates_price ON marketplace_templates(price_cents)",
		"CREATE INDEX IF NOT EXISTS idx_templates_purchase_count ON marketplace_templates(purchase_count DESC)",
		"CREATE INDEX IF NOT EXISTS idx_templates_created_at ON marketplace_templates(created_at DESC)",

		// Purchase indexes
		"CREATE INDEX IF NOT EXISTS idx_purchases_buyer_status ON template_purchases(buyer_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_purchases_template_status ON template_purchases(template_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_purchases_provider_id ON template_purchases(payment_provider_id)",
		"CREATE INDEX IF NOT EXISTS idx_purchases_created_at ON template_purchases(created_at DESC)",

		// Review indexes
		"CREATE INDEX IF NOT EXISTS idx_reviews_template_rating ON template_reviews(template_id, rating)",

		// Payout indexes
		"CREATE INDEX IF NOT EXISTS idx_payouts_earnings_status ON creator_payouts(earnings_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_payouts_created_at ON creator_payouts(created_at DESC)",

		// Reconciliation indexes
		"CREATE INDEX IF NOT EXISTS idx_reconciliation_unresolved ON reconciliation_events(resolved_at) WHERE resolved_at IS NULL",

		// Full-text search over template marketing copy
		"CREATE INDEX IF NOT EXISTS idx_templates_search ON marketplace_templates USING GIN(to_tsvector('english', title || ' ' || coalesce(short_description, '')))",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			log.Printf("Warning: Failed to create index: %s, Error: %v", index, err)
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

// Seed initial data
func SeedInitialData(db *gorm.DB) error {
	log.Println("Seeding initial data...")

	// Create default admin user
	var adminCount int64
	db.Model(&models.User{}).Where("user_type = ?", models.UserTypeAdmin).Count(&adminCount)

	if adminCount == 0 {
		admin := &models.User{
			Name:     "System Administrator",
			Email:    "admin@myfit.app",
			UserType: models.UserTypeAdmin,
			Status:   models.UserStatusActive,
			ProfileData: models.JSONB{
				"role": "super_admin",
			},
		}

		if err := admin.SetPassword("admin123!@#"); err != nil {
			return fmt.Errorf("failed to set admin password: %w", err)
		}

		if err := db.Create(admin).Error; err != nil {
			return fmt.Errorf("failed to create admin user: %w", err)
		}

		log.Println("Default admin user created successfully")
	}

	log.Println("Initial data seeding completed")
	return nil
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

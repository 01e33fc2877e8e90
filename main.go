package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"github.com/tableshare/tableshare/config"
	"github.com/tableshare/tableshare/middlewares"
	"github.com/tableshare/tableshare/models"
	"github.com/tableshare/tableshare/router"
	"github.com/tableshare/tableshare/utils"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or error loading: %v", err)
	}
	utils.InitLogger()
}

func main() {
	db, err := config.InitDB()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	utils.InitDB(db)

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	autoMigrate(db)
	seedDefaultStore(db)

	rateLimiter := middlewares.NewRateLimiter(50, 1)

	r := router.SetupRouter(db)
	r.Use(rateLimiter.RateLimit())

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	utils.InfoLogger.Printf("Listening on port %s", port)
	if err := r.Run(":" + port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

func autoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.Store{},
		&models.User{},
		&models.Table{},
		&models.MenuCategory{},
		&models.Menu{},
		&models.MenuOptionGroup{},
		&models.MenuOptionValue{},
		&models.TableSession{},
		&models.Participant{},
		&models.SharedCart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.IdempotencyRecord{},
	)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
}

// seedDefaultStore creates a store row on first boot so a fresh install
// has somewhere to hang tables and settings.
func seedDefaultStore(db *gorm.DB) {
	var count int64
	if err := db.Model(&models.Store{}).Count(&count).Error; err != nil {
		utils.ErrorLogger.Printf("Error counting stores: %v", err)
		return
	}
	if count > 0 {
		return
	}

	store := models.Store{
		Name:              "Default Store",
		TaxRate:           0.10,
		ServiceChargeRate: 0,
		TaxIncluded:       true,
		OrderConfirmMode:  models.ConfirmAuto,
		SessionTTLMinutes: 180,
	}
	if err := db.Create(&store).Error; err != nil {
		utils.ErrorLogger.Printf("Error seeding default store: %v", err)
		return
	}
	utils.InfoLogger.Printf("Seeded default store (id=%d)", store.ID)
}

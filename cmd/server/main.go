// Catalog - Multi-tenant product catalog service
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/aethra/catalog/internal/api"
	"github.com/aethra/catalog/internal/auth"
	"github.com/aethra/catalog/internal/config"
	"github.com/aethra/catalog/internal/database"
	"github.com/aethra/catalog/internal/engine"
	"github.com/aethra/catalog/internal/logger"
	"github.com/aethra/catalog/internal/models"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var Version = "1.0.0"

func main() {
	if len(os.Args) > 1 {
		runCLI()
		return
	}
	startServer()
}

func startServer() {
	if err := logger.Init(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Environment: getEnv("ENVIRONMENT", "development"),
		ServiceName: "catalog",
	}); err != nil {
		log.Fatalf("Logger init failed: %v", err)
	}
	defer logger.Sync()

	fmt.Printf("Catalog %s - Starting...\n", Version)

	db := connectDB()
	log.Println("Database connected")

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("Migrations complete")

	cfg := config.NewService(db)

	attrs := engine.NewAttributeStore(db)
	discovery := engine.NewDiscoveryEngine(attrs)
	configs := engine.NewFieldConfigEngine(db, discovery)
	search := engine.NewSearchEngine(db, attrs, discovery, configs, cfg)
	products := engine.NewProductEngine(db, attrs, configs, cfg)
	tenants := engine.NewTenantEngine(db)
	categories := engine.NewCategoryEngine(db)
	cm := engine.NewConnectionManager(db, os.Getenv("ENCRYPTION_KEY"))
	defer cm.Close()
	importer := engine.NewImporter(db, cm, products)

	jwtService := auth.NewJWTService()

	handler := api.NewHandler(discovery, configs, search, products)
	authHandler := api.NewAuthHandler(db, tenants, jwtService)
	categoryHandler := api.NewCategoryHandler(categories)
	sourceHandler := api.NewSourceHandler(cm, importer)
	router := api.SetupRouter(handler, authHandler, categoryHandler, sourceHandler, jwtService)

	port := getEnv("PORT", "8090")
	log.Printf("Server starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func connectDB() *gorm.DB {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		requireEnv("DB_HOST"),
		requireEnv("DB_PORT"),
		requireEnv("DB_USER"),
		requireEnv("DB_PASSWORD"),
		requireEnv("DB_NAME"),
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	return db
}

func requireEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("Missing required env: %s", key)
	}
	return value
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// CLI
func runCLI() {
	cmd := os.Args[1]
	switch cmd {
	case "serve":
		startServer()
	case "migrate":
		db := connectDB()
		if err := database.RunMigrations(db); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		fmt.Println("Migrations complete")
	case "tenant":
		runTenantCmd()
	default:
		printUsage()
	}
}

func printUsage() {
	fmt.Println(`Usage: catalog <command>
Commands:
  serve                                        Start server
  migrate                                      Run migrations
  tenant list                                  List tenants
  tenant create --name= --email= --password=   Create tenant with admin user
  tenant delete --id=                          Delete tenant and all its data`)
}

func runTenantCmd() {
	if len(os.Args) < 3 {
		printUsage()
		return
	}
	db := connectDB()
	tenants := engine.NewTenantEngine(db)
	switch os.Args[2] {
	case "list":
		var all []models.Tenant
		db.Find(&all)
		for _, t := range all {
			fmt.Printf("%s - %s\n", t.ID, t.Name)
		}
	case "create":
		name := getFlag("--name")
		email := getFlag("--email")
		password := getFlag("--password")
		if name == "" || email == "" || password == "" {
			printUsage()
			return
		}
		tenant, err := tenants.CreateTenant(name, email, password)
		if err != nil {
			log.Fatalf("Failed: %v", err)
		}
		fmt.Printf("Tenant created: %s (%s)\n", tenant.Name, tenant.ID)
	case "delete":
		raw := getFlag("--id")
		if raw == "" {
			printUsage()
			return
		}
		tenant, err := uuid.Parse(raw)
		if err != nil {
			log.Fatalf("Invalid tenant ID: %v", err)
		}
		if err := tenants.DeleteTenant(tenant); err != nil {
			log.Fatalf("Failed: %v", err)
		}
		fmt.Println("Tenant deleted")
	}
}

func getFlag(name string) string {
	prefix := name + "="
	for _, arg := range os.Args {
		if len(arg) > len(prefix) && arg[:len(prefix)] == prefix {
			return arg[len(prefix):]
		}
	}
	return ""
}

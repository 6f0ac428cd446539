package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/hoahub/portal-api/config"
	"github.com/hoahub/portal-api/database"
	"github.com/hoahub/portal-api/model"
	"github.com/hoahub/portal-api/utils/auth"
	"gorm.io/gorm"
)

// Seeds a tenant with an admin user and prints a ready-to-use access token
// for local development.
func main() {
	slug := flag.String("slug", "sunset-ridge", "association slug")
	name := flag.String("name", "Sunset Ridge HOA", "association display name")
	email := flag.String("email", "admin@example.com", "admin user email")
	password := flag.String("password", "changeme123", "admin user password")
	flag.Parse()

	if err := config.LoadENV(); err != nil {
		log.Printf("No .env loaded: %v", err)
	}

	getEnv, err := config.Get()
	if err != nil {
		log.Fatalf("Failed to read configuration: %v", err)
	}

	store, err := database.StartGORM()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		log.Fatalf("Failed to migrate: %v", err)
	}

	if err := store.SeedTenant(*slug, *name, *email, *password); err != nil {
		log.Fatalf("Seed failed: %v", err)
	}

	var user model.User
	if err := store.DB().First(&user, "email = ?", *email).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			log.Fatalf("Seeded user %s not found", *email)
		}
		log.Fatalf("Failed to load user: %v", err)
	}

	if getEnv.JWT_SECRET == "" {
		log.Println("JWT_SECRET not set, skipping dev token")
		return
	}

	jwtManager := auth.NewJWTManager(auth.JWTConfig{
		Secret: getEnv.JWT_SECRET,
		Expiry: time.Duration(getEnv.JWT_EXPIRY_HOURS) * time.Hour,
		Issuer: getEnv.JWT_ISSUER,
	})

	token, err := jwtManager.GenerateToken(user.ID, user.Email)
	if err != nil {
		log.Fatalf("Failed to generate token: %v", err)
	}

	fmt.Printf("Seed complete.\n  tenant: %s\n  admin:  %s\n  token:  %s\n", *slug, *email, token)
}

package main

import (
	"context"
	"errors"
	"log"

	"gorm.io/gorm"

	"gatehouse/internal/auth"
	"gatehouse/internal/config"
	"gatehouse/internal/db"
	"gatehouse/internal/model"
	"gatehouse/internal/repository"
)

// demoUser is a development fixture.
type demoUser struct {
	Name     string
	Email    string
	Password string
}

// demoUsers are created for local development only. Never run against
// production data.
var demoUsers = []demoUser{
	{Name: "Ann Example", Email: "ann@example.com", Password: "secret1"},
	{Name: "Bob Example", Email: "bob@example.com", Password: "secret2"},
	{Name: "Carol Example", Email: "carol@example.com", Password: "secret3"},
}

func main() {
	log.Println("Starting seed script...")

	// Load configuration
	cfg := config.Load()

	// Connect to database
	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	// Run migrations to ensure schema is up to date
	if err := gormDB.AutoMigrate(&model.User{}, &model.Session{}); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	userRepo := repository.NewUserRepository(gormDB)
	hasher := auth.NewBcryptHasher()
	ctx := context.Background()

	created, skipped := 0, 0
	for _, d := range demoUsers {
		_, err := userRepo.FindByEmail(ctx, d.Email)
		if err == nil {
			log.Printf("User %s already exists, skipping", d.Email)
			skipped++
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Fatalf("Failed to check user %s: %v", d.Email, err)
		}

		hash, err := hasher.Hash(d.Password)
		if err != nil {
			log.Fatalf("Failed to hash password for %s: %v", d.Email, err)
		}

		user := &model.User{
			Name:         d.Name,
			Email:        d.Email,
			PasswordHash: hash,
		}
		if err := userRepo.Create(ctx, user); err != nil {
			log.Fatalf("Failed to create user %s: %v", d.Email, err)
		}
		created++
	}

	log.Printf("Seed completed successfully!")
	log.Printf("  - New users created: %d", created)
	log.Printf("  - Existing users skipped: %d", skipped)
}

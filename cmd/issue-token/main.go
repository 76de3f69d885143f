// Command issue-token prints a bearer token for a user already in the
// directory, for local runs and smoke tests.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/garyjia/mediation-desk/internal/config"
	"github.com/garyjia/mediation-desk/internal/infrastructure/persistence/repository"
	httpserver "github.com/garyjia/mediation-desk/internal/interfaces/http"
	"github.com/garyjia/mediation-desk/pkg/database"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to the YAML config file")
	email := flag.String("email", "", "email of the user to issue a token for")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if *email == "" {
		log.Fatal("-email is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.New(database.Config{Path: cfg.Database.Path}, zap.NewNop())
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	user, err := repository.NewUserRepository(db.DB, zap.NewNop()).GetByEmail(context.Background(), *email)
	if err != nil {
		log.Fatalf("Failed to look up user: %v", err)
	}
	if user == nil {
		log.Fatalf("No user with email %s", *email)
	}

	token, err := httpserver.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.Issuer).Issue(user.ID, user.Role, *ttl)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}

	fmt.Printf("user:  %d (%s, %s)\n", user.ID, user.Email, user.Role)
	fmt.Printf("token: %s\n", token)
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"lexsaksham-backend/config"
	"lexsaksham-backend/models"
	"lexsaksham-backend/repository"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	name := flag.String("name", "default", "label for the new key")
	revoke := flag.String("revoke", "", "revoke the active key with this prefix instead of creating one")
	hashOnly := flag.Bool("hash-only", false, "print a key and its hash for API_KEY_HASHES without touching the database")
	flag.Parse()

	key, prefix, err := models.GenerateAPIKey()
	if err != nil {
		log.Fatalf("Failed to generate key: %v", err)
	}

	// Hash key
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash key: %v", err)
	}

	if *hashOnly {
		fmt.Printf("Key:  %s\n", key)
		fmt.Printf("Hash: %s\n", hash)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is required (or use -hash-only)")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	repo := repository.NewAPIKeyRepository(pool)

	if *revoke != "" {
		n, err := repo.Revoke(ctx, *revoke)
		if err != nil {
			log.Fatalf("Failed to revoke key: %v", err)
		}
		fmt.Printf("Revoked %d key(s) with prefix %s\n", n, *revoke)
		return
	}

	apiKey := &models.APIKey{
		ID:        uuid.New(),
		Name:      *name,
		Prefix:    prefix,
		Hash:      string(hash),
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.Create(ctx, apiKey); err != nil {
		log.Fatalf("Failed to create key: %v", err)
	}

	fmt.Printf("✅ API key created successfully!\n")
	fmt.Printf("   ID: %s\n", apiKey.ID)
	fmt.Printf("   Name: %s\n", apiKey.Name)
	fmt.Printf("   Prefix: %s\n", apiKey.Prefix)
	fmt.Printf("   Key: %s\n", key)
	fmt.Println("   Store the key now; only its hash is kept.")
}

package main

import (
	"context"
	"fmt"
	"log"

	"lexsaksham-backend/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

var tables = []struct {
	name string
	sql  string
}{
	{
		name: "judgments",
		sql: `
CREATE TABLE IF NOT EXISTS judgments (
    judgment_id TEXT PRIMARY KEY,
    case_name   TEXT NOT NULL,
    year        INTEGER,
    text        TEXT NOT NULL,
    embedding   vector(768) NOT NULL,
    created_at  TIMESTAMPTZ DEFAULT NOW()
);`,
	},
	{
		name: "documents",
		sql: `
CREATE TABLE IF NOT EXISTS documents (
    id              UUID PRIMARY KEY,
    filename        TEXT NOT NULL,
    mime_type       VARCHAR(100) NOT NULL,
    size            BIGINT NOT NULL,
    storage_path    TEXT NOT NULL,
    extracted_chars INTEGER NOT NULL DEFAULT 0,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`,
	},
	{
		name: "analysis_logs",
		sql: `
CREATE TABLE IF NOT EXISTS analysis_logs (
    id              BIGSERIAL PRIMARY KEY,
    logged_at       TIMESTAMPTZ NOT NULL,
    input_text      TEXT NOT NULL,
    input_lang      VARCHAR(8) NOT NULL,
    predicted_label TEXT NOT NULL,
    confidence      DOUBLE PRECISION NOT NULL,
    requires_review BOOLEAN NOT NULL DEFAULT false,
    risk_level      VARCHAR(16) NOT NULL,
    explain_method  VARCHAR(32) NOT NULL,
    degradations    JSONB NOT NULL DEFAULT '[]'::jsonb
);`,
	},
	{
		name: "api_keys",
		sql: `
CREATE TABLE IF NOT EXISTS api_keys (
    id         UUID PRIMARY KEY,
    name       TEXT NOT NULL,
    prefix     CHAR(8) NOT NULL,
    key_hash   TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    revoked_at TIMESTAMPTZ
);`,
	},
}

var indexes = []struct {
	name string
	sql  string
}{
	{
		name: "Judgment similarity search (HNSW, L2)",
		sql: `CREATE INDEX IF NOT EXISTS idx_judgments_embedding_hnsw ON judgments
USING hnsw (embedding vector_l2_ops)
WITH (m = 16, ef_construction = 64);`,
	},
	{
		name: "Analysis log recency",
		sql:  "CREATE INDEX IF NOT EXISTS idx_analysis_logs_logged_at ON analysis_logs(logged_at DESC);",
	},
	{
		name: "Analysis log risk level",
		sql:  "CREATE INDEX IF NOT EXISTS idx_analysis_logs_risk_level ON analysis_logs(risk_level);",
	},
	{
		name: "Active API keys by prefix",
		sql:  "CREATE UNIQUE INDEX IF NOT EXISTS idx_api_keys_prefix_active ON api_keys(prefix) WHERE revoked_at IS NULL;",
	},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Enable pgvector extension
	if _, err := pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		log.Printf("Warning: Failed to create pgvector extension: %v", err)
	} else {
		log.Println("✓ pgvector extension enabled")
	}

	for _, t := range tables {
		if _, err := pool.Exec(ctx, t.sql); err != nil {
			log.Fatalf("Failed to create %s table: %v", t.name, err)
		}
		log.Printf("✓ Created table: %s", t.name)
	}

	created := 0
	for _, idx := range indexes {
		if _, err := pool.Exec(ctx, idx.sql); err != nil {
			log.Printf("Warning: Failed to create index %s: %v", idx.name, err)
			continue
		}
		created++
		log.Printf("✓ Created index: %s", idx.name)
	}

	fmt.Println("\n✅ Database schema created successfully!")
	fmt.Printf("   Tables: %d\n", len(tables))
	fmt.Printf("   Indexes: %d of %d created\n", created, len(indexes))
}

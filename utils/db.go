package utils

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

var DB *sql.DB

// InitDB initializes the PostgreSQL database connection
func InitDB(logger *zap.Logger) error {
	host := MustGetEnv("POSTGRES_HOST")
	port := GetEnvOrDefault("POSTGRES_PORT", "5432")
	user := MustGetEnv("POSTGRES_USER")
	password := MustGetEnv("POSTGRES_PASSWORD")
	dbname := MustGetEnv("POSTGRES_DB")
	sslmode := GetEnvOrDefault("POSTGRES_SSLMODE", "disable")

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)

	var err error
	DB, err = sql.Open("postgres", connStr)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := DB.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connection established successfully")

	return nil
}

// CreateSchema creates the analysis tables if they don't exist
func CreateSchema(logger *zap.Logger) error {
	if DB == nil {
		return fmt.Errorf("database connection is nil; call InitDB first")
	}

	ctx := context.Background()

	_, err := DB.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS analysis_results (
			id SERIAL PRIMARY KEY,
			file_name VARCHAR(255) NOT NULL,
			wer DOUBLE PRECISION NOT NULL,
			ser DOUBLE PRECISION NOT NULL,
			cer DOUBLE PRECISION NOT NULL,
			wer_edits INT NOT NULL CHECK (wer_edits >= 0),
			wer_words INT NOT NULL CHECK (wer_words >= 0),
			ser_errors INT NOT NULL CHECK (ser_errors >= 0),
			ser_sentences INT NOT NULL CHECK (ser_sentences >= 0),
			cer_edits INT NOT NULL CHECK (cer_edits >= 0),
			cer_chars INT NOT NULL CHECK (cer_chars >= 0),
			split_mode VARCHAR(16) NOT NULL,
			cer_includes_spaces BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(file_name)
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create analysis_results table: %w", err)
	}

	_, err = DB.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_analysis_created_at ON analysis_results(created_at);
	`)
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	logger.Info("Database schema created successfully")
	return nil
}

// CloseDB closes the database connection
func CloseDB(logger *zap.Logger) error {
	if DB != nil {
		logger.Info("Closing database connection")
		return DB.Close()
	}
	return nil
}

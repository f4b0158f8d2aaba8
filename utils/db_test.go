package utils

import (
	"context"
	"os"
	"testing"

	"go.uber.org/zap"
)

func ensureDB(t *testing.T) {
	l := zap.NewNop()
	if os.Getenv("POSTGRES_HOST") == "" {
		t.Setenv("POSTGRES_HOST", "localhost")
	}
	if os.Getenv("POSTGRES_USER") == "" {
		t.Setenv("POSTGRES_USER", "postgres")
	}
	if os.Getenv("POSTGRES_PASSWORD") == "" {
		t.Setenv("POSTGRES_PASSWORD", "postgres")
	}
	if os.Getenv("POSTGRES_DB") == "" {
		t.Setenv("POSTGRES_DB", "transcript_analysis")
	}
	if err := InitDB(l); err != nil {
		t.Skip("db not available")
	}
	if err := CreateSchema(l); err != nil {
		t.Fatalf("schema: %v", err)
	}
}

const insertResult = `
	INSERT INTO analysis_results (
		file_name, wer, ser, cer,
		wer_edits, wer_words, ser_errors, ser_sentences, cer_edits, cer_chars,
		split_mode
	)
	VALUES ($1, 0, 0, 0, $2, 3, 0, 1, 0, 9, 'simple')
`

func TestFileNameUnique(t *testing.T) {
	ensureDB(t)
	ctx := context.Background()
	_, _ = DB.ExecContext(ctx, `DELETE FROM analysis_results WHERE file_name = $1`, "db-unique")
	t.Cleanup(func() {
		_, _ = DB.Exec(`DELETE FROM analysis_results WHERE file_name = $1`, "db-unique")
	})

	if _, err := DB.ExecContext(ctx, insertResult, "db-unique", 1); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := DB.ExecContext(ctx, insertResult, "db-unique", 1); err == nil {
		t.Fatalf("expected unique violation")
	}
}

func TestNegativeCountsRejected(t *testing.T) {
	ensureDB(t)
	ctx := context.Background()
	_, _ = DB.ExecContext(ctx, `DELETE FROM analysis_results WHERE file_name = $1`, "db-negative")

	if _, err := DB.ExecContext(ctx, insertResult, "db-negative", -1); err == nil {
		_, _ = DB.ExecContext(ctx, `DELETE FROM analysis_results WHERE file_name = $1`, "db-negative")
		t.Fatalf("expected check violation")
	}
}

func TestCreateSchemaIdempotent(t *testing.T) {
	ensureDB(t)
	if err := CreateSchema(zap.NewNop()); err != nil {
		t.Fatalf("second CreateSchema: %v", err)
	}
}

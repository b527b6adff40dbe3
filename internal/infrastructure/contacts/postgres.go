package contacts

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/cardlens/backend/internal/domain"
)

// PostgresStore is a PostgreSQL-backed contact repository
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore connects to PostgreSQL, configures the connection pool
// and verifies the connection
func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("database URL is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(2 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Create inserts a permanent contact record. Contact points are stored as a
// JSONB array since their cardinality varies per card.
func (s *PostgresStore) Create(ctx context.Context, record *domain.ContactRecord) error {
	contactsJSON, err := json.Marshal(record.Contacts)
	if err != nil {
		return fmt.Errorf("marshal contact points: %w", err)
	}

	query := `
		INSERT INTO contacts (
			id, owner_id, name, company, job_title, contact_points,
			address, website, image_url, thumbnail_url, raw_text,
			confidence, created_at
		) VALUES (
			$1::uuid, $2, $3, $4, $5, $6::jsonb,
			$7, $8, $9, $10, $11,
			$12, $13
		)`

	_, err = s.db.ExecContext(ctx, query,
		record.ID,
		record.OwnerID,
		record.Name,
		record.Company,
		record.JobTitle,
		contactsJSON,
		record.Address,
		record.Website,
		record.ImageURL,
		record.ThumbnailURL,
		record.RawText,
		record.Confidence,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert contact: %w", err)
	}
	return nil
}

// Close releases the connection pool
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

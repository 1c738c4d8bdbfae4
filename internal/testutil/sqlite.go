// Package testutil provides shared test infrastructure.
package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"gorm.io/driver/sqlite"

	"github.com/creaverse/dao-rewards/internal/db"
	"github.com/creaverse/dao-rewards/internal/models"
)

// SQLite opens a migrated in-memory database private to the test.
//
//	database := testutil.SQLite(t)
//	repo := db.NewRepository(database.DB)
func SQLite(t *testing.T) *db.DB {
	t.Helper()

	database, err := db.Open(sqlite.Open("file::memory:"), "ERROR")
	if err != nil {
		t.Fatalf("testutil: open sqlite: %v", err)
	}
	sqlDB, err := database.DB.DB()
	if err != nil {
		t.Fatalf("testutil: sql.DB: %v", err)
	}
	// every connection to :memory: is a fresh database
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(); err != nil {
		t.Fatalf("testutil: migrate: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })
	return database
}

// Profile inserts a profile created age ago and returns it
func Profile(t *testing.T, database *db.DB, username string, age time.Duration, mutate ...func(*models.Profile)) *models.Profile {
	t.Helper()
	now := time.Now().UTC()
	p := &models.Profile{
		Username:     username,
		CreatorTypes: models.JSONValue([]string(nil)),
		CreatedAt:    now.Add(-age),
		UpdatedAt:    now,
	}
	for _, fn := range mutate {
		fn(p)
	}
	if err := database.WithContext(context.Background()).Create(p).Error; err != nil {
		t.Fatalf("testutil: create profile: %v", err)
	}
	return p
}

// Post inserts a content item and returns it
func Post(t *testing.T, database *db.DB, authorID, contentType string, createdAt time.Time, mutate ...func(*models.Post)) *models.Post {
	t.Helper()
	p := &models.Post{
		AuthorID:        authorID,
		ContentType:     contentType,
		Body:            "body",
		Tags:            models.JSONValue([]string(nil)),
		ModerationFlags: models.JSONValue([]string(nil)),
		CreatedAt:       createdAt,
	}
	for _, fn := range mutate {
		fn(p)
	}
	if err := database.WithContext(context.Background()).Create(p).Error; err != nil {
		t.Fatalf("testutil: create post: %v", err)
	}
	return p
}

// Wallet returns a mutator setting the profile wallet
func Wallet(addr string) func(*models.Profile) {
	return func(p *models.Profile) {
		p.WalletAddress = sql.NullString{String: addr, Valid: true}
	}
}

package database

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrConflict is returned when an insert violates a uniqueness constraint.
var ErrConflict = errors.New("record already exists")

// DB wraps the gorm.DB instance.
type DB struct {
	db *gorm.DB
}

// New creates a new database connection and performs migrations.
// dbpath is the directory the sqlite file lives in; it is created if absent.
func New(dbpath string) (*DB, error) {
	if err := os.MkdirAll(dbpath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path.Join(dbpath, "pixelbin.db")), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err := db.AutoMigrate(
		&User{},
		&Image{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &DB{db: db}, nil
}

// NewInMemory creates a database backed by an in-memory sqlite instance.
// Intended for tests.
func NewInMemory() (*DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}

	if err := db.AutoMigrate(&User{}, &Image{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &DB{db: db}, nil
}

// translateError maps driver errors onto the package sentinel errors.
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	case strings.Contains(err.Error(), "UNIQUE constraint failed"):
		// The sqlite driver doesn't always translate constraint errors
		// into gorm sentinels.
		return ErrConflict
	default:
		return err
	}
}

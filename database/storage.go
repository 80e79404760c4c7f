package database

import (
	"context"

	"gorm.io/gorm"
)

// Storage defines the interface that all database implementations must satisfy
type Storage interface {
	// Lifecycle methods
	Init() error
	Close() error
	HealthCheck(ctx context.Context) error

	// GORM DB access
	GetDB() *gorm.DB
	// DSN is the connection string, needed by the LISTEN/NOTIFY listener
	DSN() string
}

package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostgresConfig(t *testing.T) {
	cfg := PostgresConfig{
		Host:     "db",
		Port:     "5432",
		User:     "rental",
		Password: "p@ss",
		DBName:   "rental",
		SSLMode:  "disable",
	}

	assert.Equal(t, "host=db port=5432 user=rental password=p@ss dbname=rental sslmode=disable TimeZone=UTC", cfg.DSN())
	assert.Equal(t, "postgres://rental:p%40ss@db:5432/rental?sslmode=disable", cfg.DatabaseURL())
}

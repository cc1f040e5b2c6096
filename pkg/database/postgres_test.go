package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host:     "db",
		Port:     5433,
		User:     "gmit",
		Password: "secret",
		Name:     "jemaat",
		SSLMode:  "require",
	})
	assert.Equal(t, "host=db port=5433 user=gmit password=secret dbname=jemaat sslmode=require", dsn)
}

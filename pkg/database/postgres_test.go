package database

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/results-app/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "results", SSLMode: "disable"})
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=results sslmode=disable", dsn)
}

func TestEnsureSchemaRunsEveryStatement(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	for range schema {
		mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	require.NoError(t, EnsureSchema(context.Background(), sqlx.NewDb(db, "postgres")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

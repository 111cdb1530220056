package repository

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/hitoshi/mssecurity/internal/model"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db, mock
}

var fixedTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

var deviceFixture = model.Device{ID: 1, UserID: 5, Name: "laptop", IP: "10.0.0.1"}

package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestDB_HealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

		assert.NoError(t, db.HealthCheck(context.Background()))
	})

	t.Run("query fails", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectQuery("SELECT 1").WillReturnError(errors.New("connection reset by peer"))

		err := db.HealthCheck(context.Background())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "database query check failed")
	})
}

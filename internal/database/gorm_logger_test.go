package database

import (
	"bytes"
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/pageza/nutrimatch/backend/internal/models"
)

func openLoggedSQLite(t *testing.T, l logger.Interface) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: l})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func TestGormLoggerReportsFailedQueries(t *testing.T) {
	var buf bytes.Buffer
	db := openLoggedSQLite(t, NewGormLogger(zerolog.New(&buf), logger.Warn, 0))

	err := db.Exec("SELECT * FROM missing_table").Error
	require.Error(t, err)
	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), `"message":"query failed"`)
	assert.Contains(t, buf.String(), "missing_table")
}

func TestGormLoggerIgnoresRecordNotFound(t *testing.T) {
	var buf bytes.Buffer
	db := openLoggedSQLite(t, NewGormLogger(zerolog.New(&buf), logger.Warn, 0))
	require.NoError(t, db.AutoMigrate(&models.Ingredient{}))
	buf.Reset()

	var ing models.Ingredient
	err := db.First(&ing, 42).Error
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())
}

func TestGormLoggerSlowQueries(t *testing.T) {
	var buf bytes.Buffer
	l := NewGormLogger(zerolog.New(&buf), logger.Warn, time.Nanosecond)

	l.Trace(context.Background(), time.Now().Add(-time.Second), func() (string, int64) { return "SELECT 1", 1 }, nil)
	assert.Contains(t, buf.String(), `"message":"slow query"`)
	assert.Contains(t, buf.String(), `"sql":"SELECT 1"`)
}

func TestGormLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	base := NewGormLogger(zerolog.New(&buf), logger.Warn, time.Second)

	base.Info(context.Background(), "hidden %d", 1)
	assert.Empty(t, buf.String())

	silent := base.LogMode(logger.Silent)
	silent.Error(context.Background(), "nope")
	silent.Trace(context.Background(), time.Now(), func() (string, int64) { return "SELECT 1", 0 }, assert.AnError)
	assert.Empty(t, buf.String())

	base.Warn(context.Background(), "pool %s", "exhausted")
	assert.Contains(t, buf.String(), "pool exhausted")
}

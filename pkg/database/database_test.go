package database

import (
	"testing"

	"budayana_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	return db
}

func TestSetupSkipsMigrationWhenDisabled(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Setup(db, false))
	assert.False(t, db.Migrator().HasTable(&model.Island{}),
		"disabled migration must leave the schema untouched")
}

func TestSetupMigratesAndSeeds(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, Setup(db, true))

	var islands []model.Island
	require.NoError(t, db.Order("unlock_order asc").Find(&islands).Error)
	require.Len(t, islands, 4)
	assert.Equal(t, "sulawesi", islands[0].Slug)

	var questionCount int64
	require.NoError(t, db.Model(&model.Question{}).Count(&questionCount).Error)
	assert.NotZero(t, questionCount)

	// The drag question's display order must not leak the answer key.
	var drag model.Question
	require.NoError(t, db.Preload("Options", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("sort_order asc")
	}).Where("question_type = ?", model.QuestionDragDrop).First(&drag).Error)
	canonical := drag.CanonicalDragOrder()
	require.NotEmpty(t, canonical)
	assert.NotEqual(t, canonical[0], drag.Options[0].ID)

	// A second boot with migration on must not duplicate content.
	require.NoError(t, Setup(db, true))
	var islandCount int64
	require.NoError(t, db.Model(&model.Island{}).Count(&islandCount).Error)
	assert.EqualValues(t, 4, islandCount)
}

package services

import (
	"fmt"
	"testing"

	"socketWhiteboard/configs"
	"socketWhiteboard/internal/enums"
	"socketWhiteboard/internal/models"
	"socketWhiteboard/internal/servers/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(&models.Database{
		Driver: enums.DB_DRIVER_SQLITE,
		Path:   fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func newTestConfig() *configs.Config {
	config := configs.NewConfig()
	config.Viper.Set("jwt.secret", "test-secret")
	return config
}

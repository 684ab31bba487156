package database

import (
	"fmt"
	"socketWhiteboard/configs"
	"socketWhiteboard/internal/enums"
	"socketWhiteboard/internal/models"
	"sync"

	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	db   *gorm.DB
	once sync.Once
)

func GetDB(config *configs.Config) *gorm.DB {
	once.Do(func() {
		var err error
		db, err = Open(getDatabase(config))
		if err != nil {
			logrus.Fatalf("Failed to connect to database: %v", err)
		}
		if err := Migrate(db); err != nil {
			logrus.Fatalf("Failed to migrate database: %v", err)
		}
		logrus.Info("Database migrated successfully")
	})
	return db
}

// Open connects with the configured driver. Duplicate key errors are translated to gorm.ErrDuplicatedKey.
func Open(database *models.Database) (*gorm.DB, error) {
	dialector, err := dialectorFor(database)
	if err != nil {
		return nil, err
	}
	return gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Whiteboard{},
	)
}

func dialectorFor(database *models.Database) (gorm.Dialector, error) {
	switch database.Driver {
	case enums.DB_DRIVER_POSTGRES, "":
		dsn := fmt.Sprintf(
			"host=%v user=%v password=%v dbname=%v port=%v sslmode=%v TimeZone=%v",
			database.Host, database.User, database.Password, database.Name, database.Port, database.SSL, database.Timezone,
		)
		return postgres.Open(dsn), nil
	case enums.DB_DRIVER_MYSQL:
		dsn := fmt.Sprintf(
			"%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			database.User, database.Password, database.Host, database.Port, database.Name,
		)
		return mysql.Open(dsn), nil
	case enums.DB_DRIVER_SQLITE:
		return sqlite.Open(database.Path), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", database.Driver)
	}
}

func getDatabase(config *configs.Config) *models.Database {
	return &models.Database{
		Driver:   config.Viper.GetString("database.driver"),
		Host:     config.Viper.GetString("database.host"),
		Port:     config.Viper.GetInt("database.port"),
		User:     config.Viper.GetString("database.user"),
		Password: config.Viper.GetString("database.password"),
		Name:     config.Viper.GetString("database.name"),
		SSL:      config.Viper.GetString("database.ssl"),
		Timezone: config.Viper.GetString("database.timezone"),
		Path:     config.Viper.GetString("database.path"),
	}
}

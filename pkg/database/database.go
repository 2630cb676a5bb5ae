package database

import (
	"budayana_backend/internal/config"
	"budayana_backend/internal/model"
	"fmt"
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig, migrate bool) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if err := Setup(db, migrate); err != nil {
		return nil, err
	}
	return db, nil
}

// Setup runs schema migration and content seeding when migrate is set;
// otherwise the schema is taken as already in place.
func Setup(db *gorm.DB, migrate bool) error {
	if !migrate {
		return nil
	}
	if err := Migrate(db); err != nil {
		return err
	}
	log.Println("Database migration completed")
	return SeedContent(db)
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Island{},
		&model.Story{},
		&model.Slide{},
		&model.Question{},
		&model.AnswerOption{},
		&model.Attempt{},
		&model.AttemptStage{},
		&model.QuestionLog{},
	)
}

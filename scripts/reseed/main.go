// Reseed wipes the content catalog and reloads the built-in islands,
// stories and questions. Attempt history is left untouched; logs whose
// questions change will be dropped on restore by the option-text match.
package main

import (
	"flag"
	"log"

	"budayana_backend/internal/config"
	"budayana_backend/internal/model"
	"budayana_backend/pkg/database"

	"gorm.io/gorm"
)

func main() {
	configPath := flag.String("config", "configs", "config directory")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.InitDB(&cfg.Database, true)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		for _, m := range []interface{}{
			&model.AnswerOption{},
			&model.Question{},
			&model.Slide{},
			&model.Story{},
			&model.Island{},
		} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(m).Error; err != nil {
				return err
			}
		}
		return database.SeedContent(tx)
	})
	if err != nil {
		log.Fatalf("Reseed failed: %v", err)
	}

	log.Println("Content catalog reseeded")
}

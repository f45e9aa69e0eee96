package migration

import (
	"log"

	"github.com/hilthontt/trio/domain/model"
	"gorm.io/gorm"
)

func Up1(database *gorm.DB) error {
	tables := []any{}
	tables = addNewTable(database, model.AuditLog{}, tables)
	if len(tables) == 0 {
		return nil
	}

	if err := database.Migrator().CreateTable(tables...); err != nil {
		log.Printf("Error migrating: %v\n", err)
		return err
	}
	log.Println("Tables Created")
	return nil
}

func addNewTable(database *gorm.DB, model any, tables []any) []any {
	if !database.Migrator().HasTable(model) {
		tables = append(tables, model)
	}
	return tables
}

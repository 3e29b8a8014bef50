package db

import (
	"fmt"

	"github.com/gilcleber/Controle-Premios-sub000/internal/models"
	"gorm.io/gorm"
)

// Migrate creates or updates every table the service owns.
func Migrate(conn *gorm.DB) error {
	if conn == nil {
		return fmt.Errorf("db: nil connection")
	}
	if errMigrate := conn.AutoMigrate(
		&models.Admin{},
		&models.Setting{},
		&models.RadioStation{},
		&models.Program{},
		&models.Prize{},
		&models.Output{},
		&models.MasterInventory{},
		&models.MasterInventoryPhoto{},
		&models.DistributionHistory{},
	); errMigrate != nil {
		return fmt.Errorf("db: auto migrate: %w", errMigrate)
	}

	// Composite indexes used by the lineage lookup and the late-pickup scan.
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		{table: "prizes", name: "idx_prizes_station_lineage", columns: "radio_station_id, source_master_id"},
		{table: "outputs", name: "idx_outputs_status_deadline", columns: "status, pickup_deadline"},
	}
	for _, idx := range indexes {
		stmt := fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if errExec := conn.Exec(stmt).Error; errExec != nil {
			return fmt.Errorf("db: create index %s: %w", idx.name, errExec)
		}
	}
	return nil
}

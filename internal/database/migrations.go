package database

import (
	"fmt"

	"gorm.io/gorm"
)

// AddIndexes adds performance-critical indexes beyond what AutoMigrate
// derives from the model tags
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		table   string
		name    string
		columns string
	}{
		// Scheduler scans active templates by next run every tick
		{"task_templates", "idx_templates_active_next_run", "is_active, next_run_at"},

		// Downstream execution workflows query by template/period
		{"tasks", "idx_tasks_template_period", "template_id, period_key"},
		{"tasks", "idx_tasks_assignee_id", "assignee_id"},

		// Registry expansion paths
		{"users", "idx_users_department_active", "department_id, is_active"},
		{"users", "idx_users_organization_active", "organization_id, is_active"},
		{"collection_points", "idx_points_type_active", "point_type, is_active"},
	}

	for _, idx := range indexes {
		if db.Migrator().HasIndex(idx.table, idx.name) {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	return nil
}

package database

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMigrationFilesExist(t *testing.T) {
	migrationsDir := "../../migrations"

	// Check if migrations directory exists
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		t.Fatal("Migrations directory does not exist")
	}

	// Expected migration files
	expectedMigrations := []string{
		"00001_create_users_table.sql",
		"00002_create_refresh_tokens_table.sql",
		"00003_create_products_table.sql",
		"00004_create_purchases_table.sql",
		"00005_create_sales_table.sql",
		"00006_create_sale_lines_table.sql",
	}

	for _, migration := range expectedMigrations {
		path := filepath.Join(migrationsDir, migration)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			t.Errorf("Migration file %s does not exist", migration)
		}
	}
}

func TestMigrationFilesHaveUpAndDown(t *testing.T) {
	migrationsDir := "../../migrations"

	files, err := os.ReadDir(migrationsDir)
	if err != nil {
		t.Fatalf("Failed to read migrations directory: %v", err)
	}

	sqlFileCount := 0
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		sqlFileCount++
		content, err := os.ReadFile(filepath.Join(migrationsDir, file.Name()))
		if err != nil {
			t.Errorf("Failed to read migration file %s: %v", file.Name(), err)
			continue
		}

		contentStr := string(content)

		// Check for goose Up directive
		if !strings.Contains(contentStr, "-- +goose Up") {
			t.Errorf("Migration file %s missing '-- +goose Up' directive", file.Name())
		}

		// Check for goose Down directive
		if !strings.Contains(contentStr, "-- +goose Down") {
			t.Errorf("Migration file %s missing '-- +goose Down' directive", file.Name())
		}

		// Check for StatementBegin/End
		if !strings.Contains(contentStr, "-- +goose StatementBegin") {
			t.Errorf("Migration file %s missing '-- +goose StatementBegin' directive", file.Name())
		}

		if !strings.Contains(contentStr, "-- +goose StatementEnd") {
			t.Errorf("Migration file %s missing '-- +goose StatementEnd' directive", file.Name())
		}
	}

	if sqlFileCount == 0 {
		t.Error("No SQL migration files found")
	}
}

func TestMigrationFilesCreateExpectedTables(t *testing.T) {
	migrationsDir := "../../migrations"

	expectedTables := map[string]string{
		"users":          "00001_create_users_table.sql",
		"refresh_tokens": "00002_create_refresh_tokens_table.sql",
		"products":       "00003_create_products_table.sql",
		"purchases":      "00004_create_purchases_table.sql",
		"sales":          "00005_create_sales_table.sql",
		"sale_lines":     "00006_create_sale_lines_table.sql",
	}

	for tableName, migrationFile := range expectedTables {
		path := filepath.Join(migrationsDir, migrationFile)
		content, err := os.ReadFile(path)
		if err != nil {
			t.Errorf("Failed to read migration file %s: %v", migrationFile, err)
			continue
		}

		contentStr := string(content)

		// Check if migration creates the table
		createTableStmt := "CREATE TABLE IF NOT EXISTS " + tableName
		if !strings.Contains(contentStr, createTableStmt) {
			t.Errorf("Migration file %s does not create table %s", migrationFile, tableName)
		}

		// Check if migration has drop table in down section
		dropTableStmt := "DROP TABLE IF EXISTS " + tableName
		if !strings.Contains(contentStr, dropTableStmt) {
			t.Errorf("Migration file %s does not drop table %s in down section", migrationFile, tableName)
		}
	}
}

func TestUsersTableHasRequiredColumns(t *testing.T) {
	migrationsDir := "../../migrations"
	path := filepath.Join(migrationsDir, "00001_create_users_table.sql")

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read users migration: %v", err)
	}

	contentStr := string(content)
	requiredColumns := []string{
		"id BIGSERIAL PRIMARY KEY",
		"username VARCHAR",
		"email VARCHAR",
		"password_hash VARCHAR",
		"created_at TIMESTAMP",
	}

	for _, column := range requiredColumns {
		if !strings.Contains(contentStr, column) {
			t.Errorf("Users table missing required column definition: %s", column)
		}
	}
}

func TestLedgerTablesRejectNonPositiveQuantities(t *testing.T) {
	migrationsDir := "../../migrations"

	// Quantity checks back up the engine-level validation: nothing with a
	// zero or negative quantity can reach either ledger table.
	quantityChecked := map[string]string{
		"purchases":  "00004_create_purchases_table.sql",
		"sale_lines": "00006_create_sale_lines_table.sql",
	}

	for tableName, migrationFile := range quantityChecked {
		content, err := os.ReadFile(filepath.Join(migrationsDir, migrationFile))
		if err != nil {
			t.Fatalf("Failed to read %s migration: %v", tableName, err)
		}

		if !strings.Contains(string(content), "CHECK (quantity > 0)") {
			t.Errorf("Table %s missing CHECK (quantity > 0) constraint", tableName)
		}
	}
}

func TestLedgerTablesReferenceProducts(t *testing.T) {
	migrationsDir := "../../migrations"

	referencing := map[string]string{
		"purchases":  "00004_create_purchases_table.sql",
		"sale_lines": "00006_create_sale_lines_table.sql",
	}

	for tableName, migrationFile := range referencing {
		content, err := os.ReadFile(filepath.Join(migrationsDir, migrationFile))
		if err != nil {
			t.Fatalf("Failed to read %s migration: %v", tableName, err)
		}

		if !strings.Contains(string(content), "REFERENCES products(id)") {
			t.Errorf("Table %s missing foreign key to products", tableName)
		}
	}
}

func TestSaleLinesCascadeWithTheirSale(t *testing.T) {
	migrationsDir := "../../migrations"
	path := filepath.Join(migrationsDir, "00006_create_sale_lines_table.sql")

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read sale_lines migration: %v", err)
	}

	contentStr := string(content)
	if !strings.Contains(contentStr, "REFERENCES sales(id) ON DELETE CASCADE") {
		t.Error("Sale lines must be removed with their parent sale")
	}
	if !strings.Contains(contentStr, "idx_sale_lines_product_id") {
		t.Error("Sale lines missing product_id index used by availability sums")
	}
}

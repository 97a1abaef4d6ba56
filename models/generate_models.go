package models

import (
	"fmt"
	"log"
	"os"
	"sort"
	"sync"

	"gorm.io/gen"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

/*
Column Mismatch Report Usage:

Reports columns of the blogs table that no field of Post maps to,
and Post fields whose column is missing from the table.

To generate the report:

1. Set the environment variable: GENERATE_COLUMN_REPORT=true
2. Run the application: go run .

Example output:
=== COLUMN MISMATCH REPORT ===
--- Table: blogs ---
Found 2 columns not accounted for in model:
  - created_at
  - updated_at
*/

// GenerateModels migrates the schema and writes typed query helpers to ./generated.
func GenerateModels(db *gorm.DB) error {
	if err := db.Exec("SELECT 1").Error; err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}

	newLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             0,
			LogLevel:                  logger.Info,
			IgnoreRecordNotFoundError: false,
			Colorful:                  true,
		},
	)
	migrateDB := db.Session(&gorm.Session{
		Logger:                 newLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            false,
	})

	g := gen.NewGenerator(gen.Config{
		OutPath:           "./generated",
		Mode:              gen.WithDefaultQuery | gen.WithQueryInterface,
		FieldNullable:     true,
		FieldCoverable:    true,
		FieldWithIndexTag: true,
		FieldWithTypeTag:  true,
	})
	g.UseDB(migrateDB)
	g.ApplyBasic(Post{})

	fmt.Println("Migrating models...")
	if err := migrateDB.AutoMigrate(&Post{}); err != nil {
		return fmt.Errorf("error during models migration: %w", err)
	}
	fmt.Println("Database migration completed successfully!")

	if _, err := GenerateColumnMismatchReport(migrateDB); err != nil {
		return err
	}

	g.Execute()
	fmt.Println("Model generation complete!")
	return nil
}

// ColumnReport lists drift between a table and its model.
type ColumnReport struct {
	Table         string
	ExtraColumns  []string
	MissingFields []string
}

// GenerateColumnMismatchReport prints and returns the column drift of the blogs table.
func GenerateColumnMismatchReport(db *gorm.DB) (ColumnReport, error) {
	fmt.Println("=== COLUMN MISMATCH REPORT ===")

	report := ColumnReport{Table: Post{}.TableName()}
	fmt.Printf("\n--- Table: %s ---\n", report.Table)

	if !db.Migrator().HasTable(&Post{}) {
		fmt.Println("Table does not exist yet (will be created during migration)")
		return report, nil
	}

	columnTypes, err := db.Migrator().ColumnTypes(&Post{})
	if err != nil {
		return report, fmt.Errorf("error getting columns for table %s: %w", report.Table, err)
	}
	dbColumns := make([]string, 0, len(columnTypes))
	for _, columnType := range columnTypes {
		dbColumns = append(dbColumns, columnType.Name())
	}

	modelFields, err := getModelFields(db, &Post{})
	if err != nil {
		return report, err
	}

	report.ExtraColumns = difference(dbColumns, modelFields)
	report.MissingFields = difference(modelFields, dbColumns)

	if len(report.ExtraColumns) > 0 {
		fmt.Printf("Found %d columns not accounted for in model:\n", len(report.ExtraColumns))
		for _, col := range report.ExtraColumns {
			fmt.Printf("  - %s\n", col)
		}
	}
	if len(report.MissingFields) > 0 {
		fmt.Printf("Found %d model fields without a column:\n", len(report.MissingFields))
		for _, col := range report.MissingFields {
			fmt.Printf("  - %s\n", col)
		}
	}
	if len(report.ExtraColumns) == 0 && len(report.MissingFields) == 0 {
		fmt.Println("All columns are accounted for in the model.")
	}

	return report, nil
}

// getModelFields resolves column names the same way gorm does when migrating.
func getModelFields(db *gorm.DB, model any) ([]string, error) {
	s, err := schema.Parse(model, &sync.Map{}, db.NamingStrategy)
	if err != nil {
		return nil, fmt.Errorf("error parsing model schema: %w", err)
	}
	return s.DBNames, nil
}

// difference returns the sorted entries of a that are not in b.
func difference(a, b []string) []string {
	seen := make(map[string]bool, len(b))
	for _, item := range b {
		seen[item] = true
	}

	var out []string
	for _, item := range a {
		if !seen[item] {
			out = append(out, item)
		}
	}
	sort.Strings(out)
	return out
}

// Package datamodeltest opens throwaway databases carrying every table of the datamodel.
package datamodeltest

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	departmentDatamodel "github.com/frahmantamala/employee-management/internal/core/datamodel/department"
	employeeDatamodel "github.com/frahmantamala/employee-management/internal/core/datamodel/employee"
	userDatamodel "github.com/frahmantamala/employee-management/internal/core/datamodel/user"
)

// OpenSQLite returns an in-memory database with the schema migrated. The pool is pinned
// to one connection since every sqlite :memory: connection is its own database.
func OpenSQLite() (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&departmentDatamodel.Department{},
		&employeeDatamodel.Employee{},
		&userDatamodel.Role{},
		&userDatamodel.User{},
	); err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	return db, nil
}

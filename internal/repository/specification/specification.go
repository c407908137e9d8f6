package specification

import "gorm.io/gorm"

// Specification narrows or orders a gorm query. Column names are fixed at compile time.
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}

// ApplyAll folds specs over db in order; later ordering specs become tie-breakers.
func ApplyAll(db *gorm.DB, specs ...Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

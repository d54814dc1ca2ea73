package specification

import "gorm.io/gorm"

// BySource filters documents by their origin (file path, URL, "inline").
type BySource struct {
	Source string
}

func (s BySource) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("source = ?", s.Source)
}

package models

import (
	"time"

	"gorm.io/datatypes"
)

// Blob is one named JSON document. The inventory state and the macro
// overrides are each persisted as a single row.
type Blob struct {
	Name      string         `gorm:"column:name;type:text;primaryKey"`
	Payload   datatypes.JSON `gorm:"column:payload;not null"`
	UpdatedAt time.Time      `gorm:"column:updated_at;not null"`
}

func (Blob) TableName() string {
	return "blobs"
}

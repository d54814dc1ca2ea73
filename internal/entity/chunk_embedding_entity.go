package entity

import (
	"time"

	"github.com/google/uuid"
)

type ChunkEmbedding struct {
	Id             uuid.UUID `gorm:"type:uuid;primaryKey"`
	Content        string
	EmbeddingValue []float32
	DocumentId     uuid.UUID `gorm:"type:uuid;index"`
	ChunkIndex     int
	Metadata       map[string]string
	CreatedAt      time.Time
	UpdatedAt      *time.Time
	DeletedAt      *time.Time
	IsDeleted      bool
}

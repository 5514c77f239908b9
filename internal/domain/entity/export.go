package entity

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Export is a rendered artifact that was delivered to at least one sink.
type Export struct {
	ID        string         `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"`
	Key       string         `gorm:"not null;index" json:"key"`
	Content   string         `gorm:"not null" json:"content"`
	Format    string         `gorm:"not null" json:"format"`
	SizePx    int            `gorm:"not null" json:"size"`
	Bytes     int            `json:"bytes"`
	Locations pq.StringArray `gorm:"type:text[]" json:"locations"`
	Warnings  pq.StringArray `gorm:"type:text[]" json:"warnings,omitempty"`
}

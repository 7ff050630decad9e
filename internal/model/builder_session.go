package model

import "time"

// BuilderSession stores the configuration owned by one browser session. The
// configuration is kept in its export encoding.
type BuilderSession struct {
	ID             string    `gorm:"primaryKey;size:36"`
	DataSourceType string    `gorm:"not null;size:16"`
	Configuration  string    `gorm:"type:text;not null"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime;index"`
}

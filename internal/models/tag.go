package models

import "time"

// Tag is a registry entry. Slug is the key questions reference; there is no
// foreign key from questions to tags, validation happens at write time only.
type Tag struct {
	Slug      string    `gorm:"primaryKey;size:64" json:"slug"`
	Name      string    `gorm:"not null" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

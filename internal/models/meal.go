package models

import "time"

// Meal is the persisted form of a Record. Local image bytes never reach it.
type Meal struct {
	ID           string    `json:"id" gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	OwnerID      string    `json:"ownerId" gorm:"type:uuid;index;not null"`
	Name         string    `json:"name" gorm:"not null"`
	Rating       int       `json:"rating" gorm:"not null;default:0"`
	PhotoURL     string    `json:"photoUrl"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	CreatedAt    time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

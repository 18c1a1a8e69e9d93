// Package model defines database models
package model

import "time"

type Account struct {
	ID           string    `gorm:"primaryKey;size:16" json:"id"`
	FirstName    string    `gorm:"not null" json:"firstname"`
	LastName     string    `gorm:"not null" json:"lastname"`
	Email        string    `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	APIKey       *string   `gorm:"index" json:"-"` // Issued by the identity authority on provisioning
	IsActive     bool      `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time `gorm:"not null" json:"created_at"`
}

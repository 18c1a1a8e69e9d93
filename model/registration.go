package model

import "time"

// PendingRegistration is an account creation request waiting for its email to
// be confirmed. Rows are kept (IsVerified=true) after promotion to an Account.
type PendingRegistration struct {
	ID           string    `gorm:"primaryKey;size:16"`
	FirstName    string    `gorm:"not null"`
	LastName     string    `gorm:"not null"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	IsVerified   bool      `gorm:"default:false;index"`
	CreatedAt    time.Time `gorm:"not null;index"`
}

type VerificationCode struct {
	ID                    uint      `gorm:"primaryKey;autoIncrement"`
	Code                  string    `gorm:"uniqueIndex;size:6;not null"`
	Enabled               bool      `gorm:"default:false"` // Reserved, no transition sets it yet
	PendingRegistrationID string    `gorm:"uniqueIndex;size:16;not null"`
	CreatedAt             time.Time `gorm:"not null"`

	PendingRegistration *PendingRegistration `gorm:"foreignKey:PendingRegistrationID;constraint:OnDelete:CASCADE"`
}

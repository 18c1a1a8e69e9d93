package model

import "time"

// OutboundLog is one captured request/response pair sent to an external
// service. Headers are stored as redacted JSON objects.
type OutboundLog struct {
	ID              uint   `gorm:"primaryKey;autoIncrement"`
	Level           string `gorm:"not null"`
	Operation       string `gorm:"not null;index"`
	Message         string `gorm:"not null"`
	Method          string
	URL             string
	RequestHeaders  string
	RequestBody     *string
	Status          int
	ResponseHeaders string
	ResponseBody    *string
	RequestTime     time.Time
	DurationMs      int64
	CreatedAt       time.Time `gorm:"autoCreateTime"`
}

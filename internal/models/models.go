package models

import (
	"time"
)

// Submission kinds.
const (
	KindContact    = "contact"
	KindNewsletter = "newsletter"
)

// Submission records one contact or newsletter form attempt and how it ended.
type Submission struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Kind         string    `gorm:"type:varchar(20);index;not null" json:"kind"`
	Locale       string    `gorm:"type:varchar(5)" json:"locale"`
	Email        string    `gorm:"type:varchar(255);index" json:"email"`
	Name         string    `gorm:"type:varchar(255)" json:"name"`
	Subject      string    `gorm:"type:varchar(255)" json:"subject"`
	Status       string    `gorm:"type:varchar(20);index;not null" json:"status"` // success, error, rate_limited, invalid
	HTTPStatus   int       `json:"http_status"`
	ErrorMessage string    `gorm:"type:text" json:"error_message"`
	RequestID    string    `gorm:"type:varchar(64)" json:"request_id"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Submission) TableName() string {
	return "submissions"
}

// SystemSetting stores configuration that must survive restarts
type SystemSetting struct {
	Key       string    `gorm:"primaryKey;type:varchar(100)" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (SystemSetting) TableName() string {
	return "system_settings"
}

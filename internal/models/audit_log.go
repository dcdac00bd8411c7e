package models

// AuditLog records mutating payment operations per user.
type AuditLog struct {
	Base
	UserID       string `gorm:"not null;index;size:36" json:"user_id"`
	Action       string `gorm:"not null" json:"action"`
	ResourceType string `gorm:"not null" json:"resource_type"`
	ResourceID   string `gorm:"size:36" json:"resource_id"`
	IPAddress    string `json:"ip_address"`
	Changes      string `json:"changes,omitempty"`
}

package models

// AuditLog is one mutating request, recorded after it succeeded. Rows are
// append-only and outlive the resources they name.
type AuditLog struct {
	Base
	UserID       string                 `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Action       string                 `gorm:"size:64;not null" json:"action"`
	ResourceType string                 `gorm:"size:64;not null" json:"resource_type"`
	ResourceID   string                 `gorm:"type:varchar(36)" json:"resource_id"`
	IPAddress    string                 `gorm:"size:64" json:"ip_address"`
	Changes      map[string]interface{} `gorm:"serializer:json;type:text" json:"changes,omitempty"`
}

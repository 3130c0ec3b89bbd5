package models

import "gorm.io/gorm"

// Chat message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of the in-sandbox interview chat, keyed by
// instance.
type ChatMessage struct {
	gorm.Model
	InstanceID uint   `gorm:"index;not null" json:"instance_id"`
	Role       string `gorm:"not null" json:"role"`
	Content    string `gorm:"type:text;not null" json:"content"`
}

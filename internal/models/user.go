package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a local account bound to an identity provider uid
type User struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
	ExternalUID     string    `gorm:"size:128;not null;uniqueIndex" json:"-"`
	Email           *string   `gorm:"size:254;uniqueIndex" json:"email"`
	Username        string    `gorm:"size:150;not null" json:"username"`
	FirstName       string    `gorm:"size:150" json:"first_name"`
	LastName        string    `gorm:"size:150" json:"last_name"`
	IsEmailVerified bool      `gorm:"not null;default:false" json:"is_email_verified"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	ensureID(&u.ID)
	return nil
}

// FullName returns "first last", falling back to the username
func (u *User) FullName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Username
	}
	return name
}

// EmailOrEmpty dereferences the optional email
func (u *User) EmailOrEmpty() string {
	if u.Email == nil {
		return ""
	}
	return *u.Email
}

// Role is the position of a profile inside its agency
type Role string

const (
	RoleOwner     Role = "agency_owner"
	RoleManager   Role = "agency_manager"
	RoleAgent     Role = "agency_agent"
	RoleAssistant Role = "agency_assistant"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleManager, RoleAgent, RoleAssistant:
		return true
	}
	return false
}

// UserProfile links a user to an agency with a role
type UserProfile struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	User      *User      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	AgencyID  *uuid.UUID `gorm:"type:uuid;index" json:"agency_id"`
	Agency    *Agency    `gorm:"foreignKey:AgencyID;constraint:OnDelete:CASCADE" json:"-"`
	Role      Role       `gorm:"size:20;not null;default:agency_assistant" json:"role"`
	IsActive  bool       `gorm:"not null" json:"is_active"`
}

func (p *UserProfile) BeforeCreate(tx *gorm.DB) error {
	ensureID(&p.ID)
	if p.Role == "" {
		p.Role = RoleAssistant
	}
	return nil
}

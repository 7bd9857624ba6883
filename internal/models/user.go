package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User is owned by the Authenticator. The login path never mutates it.
type User struct {
	ID             uuid.UUID `gorm:"type:uuid;primarykey"                     json:"id"`
	Email          string    `gorm:"uniqueIndex;not null"                     json:"email"`
	HashedPassword string    `gorm:"not null"                                 json:"-"`
	SRPSalt        []byte    `gorm:"column:srp_salt"                          json:"-"`
	SRPVerifier    []byte    `gorm:"column:srp_verifier"                      json:"-"`
	Role           Role      `gorm:"type:varchar(16);not null;default:'user'" json:"role"`
	CreatedAt      time.Time `                                                json:"created_at"`
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

type CurrentUserResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) ToCurrentUser() CurrentUserResponse {
	return CurrentUserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

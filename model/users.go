package model

import "time"

type User struct {
	UserID             string    `gorm:"column:user_id;primaryKey" json:"user_id"`                // Unique ID number
	Username           string    `gorm:"column:username" json:"username" validate:"required"`     // Username field
	Email              string    `gorm:"column:email" json:"email" validate:"email,required"`     // Email field
	PasswordHash       string    `gorm:"column:password_hash" json:"-"`                           // salt:hash credential record
	FullName           string    `gorm:"column:full_name" json:"full_name"`                       // Display name
	AvatarURL          string    `gorm:"column:avatar_url" json:"avatar_url"`                     // Path of the stored avatar image, if any
	CreatedAt          time.Time `gorm:"column:created_at" json:"created_at"`                     // Time created for account life
	LastPasswordChange time.Time `gorm:"column:last_password_change" json:"last_password_change"` // Rate limit anchor for password changes

	// Deleting a user removes every note (and through notes, every attachment).
	Notes []Note `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (User) TableName() string {
	return "users"
}

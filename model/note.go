package model

import (
	"time"
)

type Note struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	UserID    string    `gorm:"column:user_id;index" json:"user_id"`
	Title     string    `gorm:"column:title" json:"title"`
	Content   string    `gorm:"column:content" json:"content"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`

	// Single-image field predating the attachments table; kept so old
	// rows keep their picture. New writes go through attachments.
	ImagePath string `gorm:"column:image_path" json:"image_path,omitempty"`

	// Deleting a note removes its attachment rows. The backing files are the
	// storage manager's problem, not the database's.
	Attachments []Attachment `gorm:"foreignKey:NoteID;constraint:OnDelete:CASCADE" json:"attachments,omitempty"`
}

func (Note) TableName() string {
	return "notes"
}

// NoteWithAttachments is the joined read shape: one note plus all of its
// attachment rows, ordered by attachment ID ascending.
type NoteWithAttachments struct {
	Note        Note         `json:"note"`
	Attachments []Attachment `json:"attachments"`
}

package model

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"
)

// Attachment type codes, stored as plain integers in the attachments table.
const (
	AttachmentTypeImage = 1
	AttachmentTypeAudio = 2
	AttachmentTypeFile  = 3
)

type Attachment struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	NoteID    string    `gorm:"column:note_id;index" json:"note_id"`
	FileName  string    `gorm:"column:file_name" json:"file_name"`
	FilePath  string    `gorm:"column:file_path" json:"file_path"`
	MimeType  string    `gorm:"column:mime_type" json:"mime_type"`
	Type      int       `gorm:"column:type" json:"type"`
	SizeBytes int64     `gorm:"column:size_bytes" json:"size_bytes"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Attachment) TableName() string {
	return "attachments"
}

// AttachmentTypeForName classifies a file by its extension. Anything not
// recognized as an image or audio format counts as a generic file.
func AttachmentTypeForName(name string) int {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp", ".bmp":
		return AttachmentTypeImage
	case ".mp3", ".m4a", ".wav", ".ogg", ".aac", ".flac":
		return AttachmentTypeAudio
	default:
		return AttachmentTypeFile
	}
}

// MimeTypeForName derives a MIME type from the file extension. An
// unknown extension falls back to the wildcard type.
func MimeTypeForName(name string) string {
	if mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); mimeType != "" {
		return mimeType
	}
	return "*/*"
}

// TypeLabel returns the human readable name for an attachment type code.
func (a *Attachment) TypeLabel() string {
	switch a.Type {
	case AttachmentTypeImage:
		return "image"
	case AttachmentTypeAudio:
		return "audio"
	default:
		return "file"
	}
}

// DisplaySize formats the attachment size for API responses.
func (a *Attachment) DisplaySize() string {
	const unit = 1024
	if a.SizeBytes < unit {
		return fmt.Sprintf("%d B", a.SizeBytes)
	}
	div, exp := int64(unit), 0
	for n := a.SizeBytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(a.SizeBytes)/float64(div), "KMGTPE"[exp])
}

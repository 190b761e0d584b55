package model

import "time"

type UserStats struct {
	NotesStats struct {
		Total       int `json:"total"`
		Attachments int `json:"attachments"`
	} `json:"notes_stats"`
	AttachmentStats struct {
		Images     int   `json:"images"`
		Audio      int   `json:"audio"`
		Files      int   `json:"files"`
		TotalBytes int64 `json:"total_bytes"`
	} `json:"attachment_stats"`
	ActivityStats struct {
		LastActive     time.Time `json:"last_active"`
		AccountCreated time.Time `json:"account_created"`
		TotalSessions  int       `json:"total_sessions"`
	} `json:"activity_stats"`
}

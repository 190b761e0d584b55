package dto

import (
	"main/model"
	"time"
)

type AttachmentResponse struct {
	ID          int64     `json:"id"`
	NoteID      string    `json:"note_id"`
	FileName    string    `json:"file_name"`
	MimeType    string    `json:"mime_type"`
	Type        string    `json:"type"`
	Size        int64     `json:"size_bytes"`
	DisplaySize string    `json:"display_size"`
	CreatedAt   time.Time `json:"created_at"`
}

func ToAttachmentResponse(a *model.Attachment) AttachmentResponse {
	return AttachmentResponse{
		ID:          a.ID,
		NoteID:      a.NoteID,
		FileName:    a.FileName,
		MimeType:    a.MimeType,
		Type:        a.TypeLabel(),
		Size:        a.SizeBytes,
		DisplaySize: a.DisplaySize(),
		CreatedAt:   a.CreatedAt,
	}
}

func ToAttachmentResponses(attachments []model.Attachment) []AttachmentResponse {
	responses := make([]AttachmentResponse, len(attachments))
	for i := range attachments {
		responses[i] = ToAttachmentResponse(&attachments[i])
	}
	return responses
}

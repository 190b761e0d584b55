package dto

import (
	"main/model"
	"time"
)

type NoteLink struct {
	Href   string `json:"href"`
	Method string `json:"method,omitempty"` // Optional: GET, POST, PUT, PATCH, DELETE
}

type NoteResponse struct {
	ID        string              `json:"id"`
	Title     string              `json:"title"`
	Content   string              `json:"content"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
	Links     map[string]NoteLink `json:"_links,omitempty"`
}

type NoteWithAttachmentsResponse struct {
	Note        NoteResponse         `json:"note"`
	Attachments []AttachmentResponse `json:"attachments"`
}

type NotesPageResponse struct {
	Notes     []NoteResponse      `json:"notes"`
	PageSize  int                 `json:"page_size"`
	Offset    int                 `json:"offset"`
	Exhausted bool                `json:"exhausted"`
	Links     map[string]NoteLink `json:"_links,omitempty"`
}

// Convert a single note to NoteResponse
func ToNoteResponse(note *model.Note, links map[string]NoteLink) NoteResponse {
	return NoteResponse{
		ID:        note.ID,
		Title:     note.Title,
		Content:   note.Content,
		CreatedAt: note.CreatedAt,
		UpdatedAt: note.UpdatedAt,
		Links:     links,
	}
}

// Convert slice of notes to slice of NoteResponse
func ToNoteResponses(notes []model.Note, getNoteLinks func(note *model.Note) map[string]NoteLink) []NoteResponse {
	responses := make([]NoteResponse, len(notes))
	for i := range notes {
		responses[i] = ToNoteResponse(&notes[i], getNoteLinks(&notes[i]))
	}
	return responses
}

func ToNoteWithAttachmentsResponse(nwa *model.NoteWithAttachments, links map[string]NoteLink) NoteWithAttachmentsResponse {
	return NoteWithAttachmentsResponse{
		Note:        ToNoteResponse(&nwa.Note, links),
		Attachments: ToAttachmentResponses(nwa.Attachments),
	}
}

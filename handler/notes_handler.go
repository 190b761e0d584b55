package handler

import (
	"log"
	"net/http"
	"strconv"
	"time"

	"main/dto"
	"main/model"
	"main/repository"
	"main/services"
	"main/utils"

	"github.com/gin-gonic/gin"
)

// NoteRequest is the create/update payload. Only the title is
// mandatory; a note may have empty content.
type NoteRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content"`
}

const insertCallbackTimeout = 5 * time.Second

func noteLinks(c *gin.Context, noteID string) map[string]dto.NoteLink {
	baseURL := utils.GetBaseURL(c)
	return map[string]dto.NoteLink{
		"self":        {Href: baseURL + "/notes/" + noteID, Method: http.MethodGet},
		"update":      {Href: baseURL + "/notes/" + noteID, Method: http.MethodPut},
		"delete":      {Href: baseURL + "/notes/" + noteID, Method: http.MethodDelete},
		"attachments": {Href: baseURL + "/notes/" + noteID + "/attachments", Method: http.MethodGet},
	}
}

// CreateNoteHandler queues the insert and answers once the write worker
// has stored the row
func CreateNoteHandler(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.Unauthorized(c, "Missing or invalid token")
		return
	}

	var req NoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Title is required")
		return
	}

	notesRepo := repository.GetNotesRepo(utils.DB)

	note := &model.Note{
		UserID:  userID.(string),
		Title:   req.Title,
		Content: req.Content,
	}

	type outcome struct {
		note *model.Note
		err  error
	}
	done := make(chan outcome, 1)

	notesRepo.InsertWithCallback(note,
		func(stored *model.Note) { done <- outcome{note: stored} },
		func(err error) { done <- outcome{err: err} },
	)

	select {
	case result := <-done:
		if result.err != nil {
			log.Printf("Failed to create note for user %s: %v", userID, result.err)
			utils.InternalError(c, "Failed to create note")
			return
		}
		utils.Created(c, dto.ToNoteResponse(result.note, noteLinks(c, result.note.ID)))
	case <-time.After(insertCallbackTimeout):
		utils.InternalError(c, "Timed out creating note")
	}
}

func GetNoteHandler(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.Unauthorized(c, "Missing or invalid token")
		return
	}

	notesRepo := repository.GetNotesRepo(utils.DB)

	note, err := notesRepo.GetNote(c.Param("id"))
	if err != nil {
		utils.InternalError(c, "Failed to fetch note")
		return
	}
	if note == nil || note.UserID != userID.(string) {
		utils.NotFound(c, "Note not found")
		return
	}

	utils.Success(c, dto.ToNoteResponse(note, noteLinks(c, note.ID)))
}

// UpdateNoteHandler replaces the note row wholesale, keeping its ID,
// owner and creation time
func UpdateNoteHandler(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.Unauthorized(c, "Missing or invalid token")
		return
	}

	var req NoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Title is required")
		return
	}

	notesRepo := repository.GetNotesRepo(utils.DB)

	existing, err := notesRepo.GetNote(c.Param("id"))
	if err != nil {
		utils.InternalError(c, "Failed to fetch note")
		return
	}
	if existing == nil || existing.UserID != userID.(string) {
		utils.NotFound(c, "Note not found")
		return
	}

	existing.Title = req.Title
	existing.Content = req.Content

	if err := notesRepo.UpdateNote(existing); err != nil {
		log.Printf("Failed to update note %s: %v", existing.ID, err)
		utils.InternalError(c, "Failed to update note")
		return
	}

	utils.Success(c, dto.ToNoteResponse(existing, noteLinks(c, existing.ID)))
}

// DeleteNoteHandler removes the note row (attachment rows cascade) and
// then clears the attachment directory best-effort
func DeleteNoteHandler(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.Unauthorized(c, "Missing or invalid token")
		return
	}

	noteID := c.Param("id")
	notesRepo := repository.GetNotesRepo(utils.DB)

	note, err := notesRepo.GetNote(noteID)
	if err != nil {
		utils.InternalError(c, "Failed to fetch note")
		return
	}
	if note == nil || note.UserID != userID.(string) {
		utils.NotFound(c, "Note not found")
		return
	}

	if _, err := notesRepo.DeleteNote(noteID); err != nil {
		log.Printf("Failed to delete note %s: %v", noteID, err)
		utils.InternalError(c, "Failed to delete note")
		return
	}

	if services.GlobalAttachmentStorage != nil {
		if err := services.GlobalAttachmentStorage.RemoveNoteDir(noteID); err != nil {
			log.Printf("Failed to remove attachment directory for note %s: %v", noteID, err)
		}
	}

	utils.Success(c, gin.H{"message": "Note deleted"})
}

// ClearNotesHandler deletes every note the user has. Attachment rows go
// with the notes through the cascade; the note directories are cleared
// best-effort afterwards.
func ClearNotesHandler(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.Unauthorized(c, "Missing or invalid token")
		return
	}

	notesRepo := repository.GetNotesRepo(utils.DB)

	// Snapshot the note IDs before the rows go away
	notes, err := notesRepo.GetUserNotes(userID.(string))
	if err != nil {
		utils.InternalError(c, "Failed to fetch notes")
		return
	}

	deleted, err := notesRepo.DeleteAllByUser(userID.(string))
	if err != nil {
		log.Printf("Failed to clear notes for user %s: %v", userID, err)
		utils.InternalError(c, "Failed to delete notes")
		return
	}

	if storage := services.GlobalAttachmentStorage; storage != nil {
		for _, note := range notes {
			if err := storage.RemoveNoteDir(note.ID); err != nil {
				log.Printf("Failed to remove attachment directory for note %s: %v", note.ID, err)
			}
		}
	}

	utils.Success(c, gin.H{
		"message": "Notes deleted",
		"count":   deleted,
	})
}

func ListNotesHandler(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.Unauthorized(c, "Missing or invalid token")
		return
	}

	notesRepo := repository.GetNotesRepo(utils.DB)

	notes, err := notesRepo.GetUserNotes(userID.(string))
	if err != nil {
		utils.InternalError(c, "Failed to fetch notes")
		return
	}

	utils.Success(c, gin.H{
		"notes": dto.ToNoteResponses(notes, func(n *model.Note) map[string]dto.NoteLink {
			return noteLinks(c, n.ID)
		}),
		"count": len(notes),
	})
}

func SearchNotesHandler(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.Unauthorized(c, "Missing or invalid token")
		return
	}

	query := c.Query("q")
	if query == "" {
		utils.BadRequest(c, "Search query is required")
		return
	}

	notesRepo := repository.GetNotesRepo(utils.DB)

	notes, err := notesRepo.SearchNotes(userID.(string), query)
	if err != nil {
		utils.InternalError(c, "Failed to search notes")
		return
	}

	utils.Success(c, gin.H{
		"notes": dto.ToNoteResponses(notes, func(n *model.Note) map[string]dto.NoteLink {
			return noteLinks(c, n.ID)
		}),
		"count": len(notes),
		"query": query,
	})
}

// PagedNotesHandler serves one window of the user's notes. The pager
// loads pages of 20 and keeps the prefetch distance ahead of the
// requested offset, so the last window of a short result comes back
// short rather than padded.
func PagedNotesHandler(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.Unauthorized(c, "Missing or invalid token")
		return
	}

	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		utils.BadRequest(c, "Invalid offset")
		return
	}

	notesRepo := repository.GetNotesRepo(utils.DB)

	var pager *repository.Pager[model.Note]
	if query := c.Query("q"); query != "" {
		pager = notesRepo.PageSearch(userID.(string), query)
	} else {
		pager = notesRepo.PageUserNotes(userID.(string))
	}

	if err := pager.EnsureAhead(offset); err != nil {
		utils.InternalError(c, "Failed to load notes")
		return
	}

	loaded := pager.Loaded()
	window := []model.Note{}
	if offset < len(loaded) {
		end := offset + repository.DefaultPageSize
		if end > len(loaded) {
			end = len(loaded)
		}
		window = loaded[offset:end]
	}

	utils.Success(c, dto.NotesPageResponse{
		Notes: dto.ToNoteResponses(window, func(n *model.Note) map[string]dto.NoteLink {
			return noteLinks(c, n.ID)
		}),
		PageSize:  repository.DefaultPageSize,
		Offset:    offset,
		Exhausted: pager.Exhausted() && offset+repository.DefaultPageSize >= len(loaded),
	})
}

// GetNoteWithAttachmentsHandler returns the joined note and attachment
// rows in one response
func GetNoteWithAttachmentsHandler(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.Unauthorized(c, "Missing or invalid token")
		return
	}

	notesRepo := repository.GetNotesRepo(utils.DB)

	nwa, err := notesRepo.GetNoteWithAttachments(c.Param("id"))
	if err != nil {
		utils.InternalError(c, "Failed to fetch note")
		return
	}
	if nwa == nil || nwa.Note.UserID != userID.(string) {
		utils.NotFound(c, "Note not found")
		return
	}

	utils.Success(c, dto.ToNoteWithAttachmentsResponse(nwa, noteLinks(c, nwa.Note.ID)))
}

package handler

import (
	"log"
	"strconv"

	"main/dto"
	"main/model"
	"main/repository"
	"main/services"
	"main/utils"

	"github.com/gin-gonic/gin"
)

// ownedNote loads a note and checks it belongs to the requester
func ownedNote(c *gin.Context, noteID string) (*model.Note, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.Unauthorized(c, "Missing or invalid token")
		return nil, false
	}

	note, err := repository.GetNotesRepo(utils.DB).GetNote(noteID)
	if err != nil {
		utils.InternalError(c, "Failed to fetch note")
		return nil, false
	}
	if note == nil || note.UserID != userID.(string) {
		utils.NotFound(c, "Note not found")
		return nil, false
	}
	return note, true
}

// UploadAttachmentHandler stages the uploaded file, commits it into the
// note's directory and records the row
func UploadAttachmentHandler(c *gin.Context) {
	noteID := c.Param("id")
	if _, ok := ownedNote(c, noteID); !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.BadRequest(c, "A file is required")
		return
	}

	storage := services.GlobalAttachmentStorage
	if storage == nil {
		utils.InternalError(c, "Attachment storage not available")
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		utils.BadRequest(c, "Could not read uploaded file")
		return
	}
	defer src.Close()

	stagedPath, size, err := storage.Stage(src, fileHeader.Filename)
	if err != nil {
		log.Printf("Failed to stage attachment for note %s: %v", noteID, err)
		utils.InternalError(c, "Failed to store attachment")
		return
	}

	finalPath, err := storage.Commit(stagedPath, noteID, fileHeader.Filename)
	if err != nil {
		storage.Discard(stagedPath)
		log.Printf("Failed to commit attachment for note %s: %v", noteID, err)
		utils.InternalError(c, "Failed to store attachment")
		return
	}

	attachment := &model.Attachment{
		NoteID:    noteID,
		FileName:  fileHeader.Filename,
		FilePath:  finalPath,
		MimeType:  model.MimeTypeForName(fileHeader.Filename),
		Type:      model.AttachmentTypeForName(fileHeader.Filename),
		SizeBytes: size,
	}

	if err := repository.GetAttachmentsRepo(utils.DB).Insert(attachment); err != nil {
		// Roll the file back so the directory matches the table
		storage.Remove(finalPath)
		log.Printf("Failed to record attachment for note %s: %v", noteID, err)
		utils.InternalError(c, "Failed to record attachment")
		return
	}

	utils.Created(c, dto.ToAttachmentResponse(attachment))
}

func ListAttachmentsHandler(c *gin.Context) {
	noteID := c.Param("id")
	if _, ok := ownedNote(c, noteID); !ok {
		return
	}

	attachments, err := repository.GetAttachmentsRepo(utils.DB).GetByNoteID(noteID)
	if err != nil {
		utils.InternalError(c, "Failed to fetch attachments")
		return
	}

	utils.Success(c, gin.H{
		"attachments": dto.ToAttachmentResponses(attachments),
		"count":       len(attachments),
	})
}

// DeleteAttachmentHandler removes the backing file first and the row
// second. If the process dies in between, the dangling row stays until
// the next rescan of the note reconciles it.
func DeleteAttachmentHandler(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		utils.Unauthorized(c, "Missing or invalid token")
		return
	}

	attachmentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		utils.BadRequest(c, "Invalid attachment ID")
		return
	}

	attachmentsRepo := repository.GetAttachmentsRepo(utils.DB)

	attachment, err := attachmentsRepo.GetAttachment(attachmentID)
	if err != nil {
		utils.InternalError(c, "Failed to fetch attachment")
		return
	}
	if attachment == nil {
		utils.NotFound(c, "Attachment not found")
		return
	}

	note, err := repository.GetNotesRepo(utils.DB).GetNote(attachment.NoteID)
	if err != nil {
		utils.InternalError(c, "Failed to fetch note")
		return
	}
	if note == nil || note.UserID != userID.(string) {
		utils.NotFound(c, "Attachment not found")
		return
	}

	if storage := services.GlobalAttachmentStorage; storage != nil {
		if err := storage.Remove(attachment.FilePath); err != nil {
			log.Printf("Failed to remove attachment file %s: %v", attachment.FilePath, err)
			utils.InternalError(c, "Failed to delete attachment")
			return
		}
	}

	if _, err := attachmentsRepo.DeleteRow(attachmentID); err != nil {
		log.Printf("Failed to delete attachment row %d: %v", attachmentID, err)
		utils.InternalError(c, "Failed to delete attachment")
		return
	}

	utils.Success(c, gin.H{"message": "Attachment deleted"})
}

// RescanAttachmentsHandler rebuilds a note's attachment rows from the
// files actually present in its directory
func RescanAttachmentsHandler(c *gin.Context) {
	noteID := c.Param("id")
	if _, ok := ownedNote(c, noteID); !ok {
		return
	}

	storage := services.GlobalAttachmentStorage
	if storage == nil {
		utils.InternalError(c, "Attachment storage not available")
		return
	}

	scanned, err := storage.Rescan(noteID)
	if err != nil {
		log.Printf("Failed to rescan attachments for note %s: %v", noteID, err)
		utils.InternalError(c, "Failed to rescan attachments")
		return
	}

	attachmentsRepo := repository.GetAttachmentsRepo(utils.DB)
	if err := attachmentsRepo.ReplaceForNote(noteID, scanned); err != nil {
		log.Printf("Failed to reconcile attachments for note %s: %v", noteID, err)
		utils.InternalError(c, "Failed to reconcile attachments")
		return
	}

	attachments, err := attachmentsRepo.GetByNoteID(noteID)
	if err != nil {
		utils.InternalError(c, "Failed to fetch attachments")
		return
	}

	utils.Success(c, gin.H{
		"attachments": dto.ToAttachmentResponses(attachments),
		"count":       len(attachments),
	})
}

package repository

import (
	"errors"
	"testing"
	"time"

	"main/model"

	"github.com/google/uuid"
)

func seedNote(t *testing.T, repo *NotesRepo, userID, title string) *model.Note {
	t.Helper()
	note := &model.Note{UserID: userID, Title: title, Content: "body"}
	repo.Insert(note)
	repo.Flush()
	return note
}

func TestAttachmentsRepo(t *testing.T) {
	db := newTestDB(t)
	userRepo := NewUserRepo(db)
	defer userRepo.Close()
	notesRepo := NewNotesRepo(db)
	defer notesRepo.Close()
	attachmentsRepo := NewAttachmentsRepo(db)
	defer attachmentsRepo.Close()

	user := seedUser(t, userRepo, "attachUser")
	note := seedNote(t, notesRepo, user.UserID, "with files")

	t.Run("Insert", func(t *testing.T) {
		attachment := &model.Attachment{
			NoteID:    note.ID,
			FileName:  "photo.jpg",
			FilePath:  "/data/attachments/" + note.ID + "/photo.jpg",
			Type:      model.AttachmentTypeImage,
			SizeBytes: 2048,
		}
		if err := attachmentsRepo.Insert(attachment); err != nil {
			t.Fatal("insert failed:", err)
		}
		if attachment.ID == 0 {
			t.Fatal("attachment ID not filled in")
		}
	})

	t.Run("InsertOrphan", func(t *testing.T) {
		orphan := &model.Attachment{
			NoteID:   uuid.New().String(),
			FileName: "lost.pdf",
			FilePath: "/tmp/lost.pdf",
			Type:     model.AttachmentTypeFile,
		}
		err := attachmentsRepo.Insert(orphan)
		if !errors.Is(err, ErrNoteNotFound) {
			t.Fatalf("expected ErrNoteNotFound, got %v", err)
		}
	})

	t.Run("GetByNoteID", func(t *testing.T) {
		second := &model.Attachment{
			NoteID:    note.ID,
			FileName:  "memo.mp3",
			FilePath:  "/data/attachments/" + note.ID + "/memo.mp3",
			Type:      model.AttachmentTypeAudio,
			SizeBytes: 4096,
		}
		if err := attachmentsRepo.Insert(second); err != nil {
			t.Fatal("insert failed:", err)
		}

		attachments, err := attachmentsRepo.GetByNoteID(note.ID)
		if err != nil {
			t.Fatal("fetch failed:", err)
		}
		if len(attachments) != 2 {
			t.Fatalf("expected 2 attachments, got %d", len(attachments))
		}
		if attachments[0].ID > attachments[1].ID {
			t.Fatal("attachments not ordered by ID")
		}
	})

	t.Run("DeleteRow", func(t *testing.T) {
		attachments, _ := attachmentsRepo.GetByNoteID(note.ID)
		rows, err := attachmentsRepo.DeleteRow(attachments[0].ID)
		if err != nil {
			t.Fatal("delete failed:", err)
		}
		if rows != 1 {
			t.Fatalf("expected 1 row deleted, got %d", rows)
		}

		remaining, _ := attachmentsRepo.GetByNoteID(note.ID)
		if len(remaining) != 1 {
			t.Fatalf("expected 1 attachment left, got %d", len(remaining))
		}
	})

	t.Run("ReplaceForNote", func(t *testing.T) {
		scanned := []model.Attachment{
			{FileName: "a.png", FilePath: "/x/a.png", Type: model.AttachmentTypeImage, SizeBytes: 1, CreatedAt: time.Now()},
			{FileName: "b.wav", FilePath: "/x/b.wav", Type: model.AttachmentTypeAudio, SizeBytes: 2, CreatedAt: time.Now()},
			{FileName: "c.txt", FilePath: "/x/c.txt", Type: model.AttachmentTypeFile, SizeBytes: 3, CreatedAt: time.Now()},
		}
		if err := attachmentsRepo.ReplaceForNote(note.ID, scanned); err != nil {
			t.Fatal("replace failed:", err)
		}

		attachments, _ := attachmentsRepo.GetByNoteID(note.ID)
		if len(attachments) != 3 {
			t.Fatalf("expected the scanned set, got %d rows", len(attachments))
		}
		if attachments[0].FileName != "a.png" {
			t.Fatal("unexpected first row:", attachments[0].FileName)
		}
	})

	t.Run("CountByUser", func(t *testing.T) {
		counts, totalBytes, err := attachmentsRepo.CountByUser(user.UserID)
		if err != nil {
			t.Fatal("count failed:", err)
		}
		if counts[model.AttachmentTypeImage] != 1 ||
			counts[model.AttachmentTypeAudio] != 1 ||
			counts[model.AttachmentTypeFile] != 1 {
			t.Fatalf("unexpected type counts: %v", counts)
		}
		if totalBytes != 6 {
			t.Fatalf("expected 6 total bytes, got %d", totalBytes)
		}
	})

	t.Run("NoteDeleteCascades", func(t *testing.T) {
		if _, err := notesRepo.DeleteNote(note.ID); err != nil {
			t.Fatal("note delete failed:", err)
		}
		attachments, _ := attachmentsRepo.GetByNoteID(note.ID)
		if len(attachments) != 0 {
			t.Fatalf("attachment rows survived the cascade: %d", len(attachments))
		}
	})
}

func TestAttachmentsRepoObservable(t *testing.T) {
	db := newTestDB(t)
	userRepo := NewUserRepo(db)
	defer userRepo.Close()
	notesRepo := NewNotesRepo(db)
	defer notesRepo.Close()
	attachmentsRepo := NewAttachmentsRepo(db)
	defer attachmentsRepo.Close()

	user := seedUser(t, userRepo, "attachObserver")
	note := seedNote(t, notesRepo, user.UserID, "watched files")

	obs := attachmentsRepo.ObserveNoteAttachments(note.ID)
	defer obs.Stop()

	if initial, ok := obs.Next(5 * time.Second); !ok || len(initial) != 0 {
		t.Fatal("expected an empty initial snapshot")
	}

	attachment := &model.Attachment{
		NoteID:   note.ID,
		FileName: "new.jpg",
		FilePath: "/x/new.jpg",
		Type:     model.AttachmentTypeImage,
	}
	if err := attachmentsRepo.Insert(attachment); err != nil {
		t.Fatal("insert failed:", err)
	}

	updated, ok := obs.Next(5 * time.Second)
	if !ok || len(updated) != 1 {
		t.Fatal("snapshot does not reflect the insert")
	}
}

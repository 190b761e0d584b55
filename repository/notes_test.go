package repository

import (
	"fmt"
	"testing"
	"time"

	"main/model"

	"github.com/google/uuid"
)

func seedUser(t *testing.T, repo *UserRepo, username string) *model.User {
	t.Helper()
	user, err := repo.Register(username, username+"@email.com", "test1234", "")
	if err != nil {
		t.Fatal("failed to seed user:", err)
	}
	return user
}

func TestNotesRepoCRUD(t *testing.T) {
	db := newTestDB(t)
	userRepo := NewUserRepo(db)
	defer userRepo.Close()
	notesRepo := NewNotesRepo(db)
	defer notesRepo.Close()

	user := seedUser(t, userRepo, "notesUser")

	note := &model.Note{UserID: user.UserID, Title: "Shopping List", Content: "milk, eggs"}

	t.Run("Insert", func(t *testing.T) {
		notesRepo.Insert(note)
		notesRepo.Flush()

		stored, err := notesRepo.GetNote(note.ID)
		if err != nil || stored == nil {
			t.Fatal("inserted note not found:", err)
		}
		if stored.Title != "Shopping List" {
			t.Fatal("wrong title:", stored.Title)
		}
		if stored.CreatedAt.IsZero() || stored.UpdatedAt.IsZero() {
			t.Fatal("timestamps not filled in")
		}
	})

	t.Run("UpsertReplacesRow", func(t *testing.T) {
		replacement := &model.Note{
			ID:      note.ID,
			UserID:  user.UserID,
			Title:   "Shopping List v2",
			Content: "milk, eggs, bread",
		}
		notesRepo.Insert(replacement)
		notesRepo.Flush()

		stored, _ := notesRepo.GetNote(note.ID)
		if stored.Title != "Shopping List v2" {
			t.Fatal("row not replaced:", stored.Title)
		}

		var count int64
		db.Model(&model.Note{}).Where("id = ?", note.ID).Count(&count)
		if count != 1 {
			t.Fatalf("expected 1 row after upsert, got %d", count)
		}
	})

	t.Run("Update", func(t *testing.T) {
		stored, _ := notesRepo.GetNote(note.ID)
		before := stored.UpdatedAt

		time.Sleep(5 * time.Millisecond)
		stored.Content = "milk, eggs, bread, butter"
		if err := notesRepo.UpdateNote(stored); err != nil {
			t.Fatal("update failed:", err)
		}

		updated, _ := notesRepo.GetNote(note.ID)
		if updated.Content != "milk, eggs, bread, butter" {
			t.Fatal("content not updated")
		}
		if !updated.UpdatedAt.After(before) {
			t.Fatal("updated time not bumped")
		}
	})

	t.Run("Search", func(t *testing.T) {
		other := &model.Note{UserID: user.UserID, Title: "Meeting notes", Content: "quarterly review"}
		notesRepo.Insert(other)
		notesRepo.Flush()

		found, err := notesRepo.SearchNotes(user.UserID, "shop")
		if err != nil {
			t.Fatal("search failed:", err)
		}
		if len(found) != 1 || found[0].ID != note.ID {
			t.Fatalf("expected the shopping note, got %d results", len(found))
		}

		none, _ := notesRepo.SearchNotes(user.UserID, "nonexistent")
		if len(none) != 0 {
			t.Fatal("search matched something it should not")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		rows, err := notesRepo.DeleteNote(note.ID)
		if err != nil {
			t.Fatal("delete failed:", err)
		}
		if rows != 1 {
			t.Fatalf("expected 1 row deleted, got %d", rows)
		}
		gone, _ := notesRepo.GetNote(note.ID)
		if gone != nil {
			t.Fatal("note still there after delete")
		}
	})
}

func TestNotesRepoInsertWithCallback(t *testing.T) {
	db := newTestDB(t)
	userRepo := NewUserRepo(db)
	defer userRepo.Close()
	notesRepo := NewNotesRepo(db)
	defer notesRepo.Close()

	user := seedUser(t, userRepo, "callbackUser")

	done := make(chan *model.Note, 1)
	failed := make(chan error, 1)

	note := &model.Note{UserID: user.UserID, Title: "async", Content: "callback test"}
	notesRepo.InsertWithCallback(note,
		func(stored *model.Note) { done <- stored },
		func(err error) { failed <- err },
	)

	select {
	case stored := <-done:
		if stored.ID == "" {
			t.Fatal("callback note has no ID")
		}
		t.Log("callback delivered:", stored.ID)
	case err := <-failed:
		t.Fatal("insert failed:", err)
	case <-time.After(5 * time.Second):
		t.Fatal("callback never arrived")
	}
}

func TestNotesRepoPaging(t *testing.T) {
	db := newTestDB(t)
	userRepo := NewUserRepo(db)
	defer userRepo.Close()
	notesRepo := NewNotesRepo(db)
	defer notesRepo.Close()

	user := seedUser(t, userRepo, "pagingUser")

	// 45 notes with distinct update times, newest first in the result
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 45; i++ {
		n := model.Note{
			ID:        uuid.New().String(),
			UserID:    user.UserID,
			Title:     fmt.Sprintf("note %02d", i),
			Content:   "body",
			CreatedAt: base,
			UpdatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := db.Create(&n).Error; err != nil {
			t.Fatal("failed to seed note:", err)
		}
	}

	t.Run("PageSizes", func(t *testing.T) {
		pager := notesRepo.PageUserNotes(user.UserID)

		first, err := pager.NextPage()
		if err != nil {
			t.Fatal("first page failed:", err)
		}
		if len(first) != 20 {
			t.Fatalf("expected 20 rows on the first page, got %d", len(first))
		}
		if first[0].Title != "note 44" {
			t.Fatal("pages not ordered newest first:", first[0].Title)
		}

		second, _ := pager.NextPage()
		if len(second) != 20 {
			t.Fatalf("expected 20 rows on the second page, got %d", len(second))
		}

		third, _ := pager.NextPage()
		if len(third) != 5 {
			t.Fatalf("expected 5 rows on the last page, got %d", len(third))
		}
		if !pager.Exhausted() {
			t.Fatal("pager should be exhausted after the short page")
		}

		fourth, _ := pager.NextPage()
		if fourth != nil {
			t.Fatal("got rows past the end of the result")
		}
	})

	t.Run("EnsureAhead", func(t *testing.T) {
		pager := notesRepo.PageUserNotes(user.UserID)

		if err := pager.EnsureAhead(0); err != nil {
			t.Fatal("prefetch failed:", err)
		}
		if got := len(pager.Loaded()); got != 45 {
			// 60 ahead of position 0 covers the whole 45-row result
			t.Fatalf("expected all 45 rows prefetched, got %d", got)
		}
		if !pager.Exhausted() {
			t.Fatal("pager should know the result ended")
		}
	})

	t.Run("PageSearch", func(t *testing.T) {
		pager := notesRepo.PageSearch(user.UserID, "note 0")
		page, err := pager.NextPage()
		if err != nil {
			t.Fatal("search page failed:", err)
		}
		if len(page) != 10 {
			t.Fatalf("expected 10 matches for 'note 0', got %d", len(page))
		}
	})
}

func TestNotesRepoDeleteAllByUser(t *testing.T) {
	db := newTestDB(t)
	userRepo := NewUserRepo(db)
	defer userRepo.Close()
	notesRepo := NewNotesRepo(db)
	defer notesRepo.Close()

	user := seedUser(t, userRepo, "clearUser")
	keeper := seedUser(t, userRepo, "keeperUser")

	for i := 0; i < 3; i++ {
		notesRepo.Insert(&model.Note{UserID: user.UserID, Title: fmt.Sprintf("note %d", i), Content: "body"})
	}
	kept := &model.Note{UserID: keeper.UserID, Title: "survivor", Content: "body"}
	notesRepo.Insert(kept)
	notesRepo.Flush()

	attachment := model.Attachment{
		NoteID:   mustFirstNoteID(t, notesRepo, user.UserID),
		FileName: "doomed.jpg",
		FilePath: "/tmp/doomed.jpg",
		Type:     model.AttachmentTypeImage,
	}
	if err := db.Create(&attachment).Error; err != nil {
		t.Fatal("failed to seed attachment:", err)
	}

	deleted, err := notesRepo.DeleteAllByUser(user.UserID)
	if err != nil {
		t.Fatal("clear failed:", err)
	}
	if deleted != 3 {
		t.Fatalf("expected 3 notes deleted, got %d", deleted)
	}

	remaining, _ := notesRepo.GetUserNotes(user.UserID)
	if len(remaining) != 0 {
		t.Fatalf("notes survived the clear: %d", len(remaining))
	}

	var attachmentCount int64
	db.Model(&model.Attachment{}).Count(&attachmentCount)
	if attachmentCount != 0 {
		t.Fatalf("attachment rows survived the cascade: %d", attachmentCount)
	}

	theirs, _ := notesRepo.GetUserNotes(keeper.UserID)
	if len(theirs) != 1 {
		t.Fatal("another user's notes were cleared")
	}
}

func mustFirstNoteID(t *testing.T, repo *NotesRepo, userID string) string {
	t.Helper()
	notes, err := repo.GetUserNotes(userID)
	if err != nil || len(notes) == 0 {
		t.Fatal("no notes to pick from:", err)
	}
	return notes[0].ID
}

func TestNotesRepoObservables(t *testing.T) {
	db := newTestDB(t)
	userRepo := NewUserRepo(db)
	defer userRepo.Close()
	notesRepo := NewNotesRepo(db)
	defer notesRepo.Close()

	user := seedUser(t, userRepo, "observeUser")

	obs := notesRepo.ObserveUserNotes(user.UserID)
	defer obs.Stop()

	initial, ok := obs.Next(5 * time.Second)
	if !ok {
		t.Fatal("no initial snapshot")
	}
	if len(initial) != 0 {
		t.Fatalf("expected empty initial snapshot, got %d notes", len(initial))
	}

	note := &model.Note{UserID: user.UserID, Title: "watched", Content: "live"}
	notesRepo.Insert(note)
	notesRepo.Flush()

	updated, ok := obs.Next(5 * time.Second)
	if !ok {
		t.Fatal("no snapshot after insert")
	}
	if len(updated) != 1 || updated[0].Title != "watched" {
		t.Fatalf("snapshot does not reflect the write: %d notes", len(updated))
	}
	t.Log("observable emitted after write")
}

func TestObserveNoteWithAttachments(t *testing.T) {
	db := newTestDB(t)
	userRepo := NewUserRepo(db)
	defer userRepo.Close()
	notesRepo := NewNotesRepo(db)
	defer notesRepo.Close()
	attachmentsRepo := NewAttachmentsRepo(db)
	defer attachmentsRepo.Close()

	user := seedUser(t, userRepo, "joinedObserver")
	note := &model.Note{UserID: user.UserID, Title: "joined", Content: "note plus files"}
	notesRepo.Insert(note)
	notesRepo.Flush()

	obs := notesRepo.ObserveNoteWithAttachments(note.ID)
	defer obs.Stop()

	initial, ok := obs.Next(5 * time.Second)
	if !ok || initial == nil {
		t.Fatal("no initial snapshot")
	}
	if len(initial.Attachments) != 0 {
		t.Fatalf("expected no attachments yet, got %d", len(initial.Attachments))
	}

	// A write to the attachments table alone must re-emit the join
	attachment := &model.Attachment{
		NoteID:   note.ID,
		FileName: "joined.png",
		FilePath: "/x/joined.png",
		Type:     model.AttachmentTypeImage,
	}
	if err := attachmentsRepo.Insert(attachment); err != nil {
		t.Fatal("insert failed:", err)
	}

	withFile, ok := obs.Next(5 * time.Second)
	if !ok || withFile == nil {
		t.Fatal("no snapshot after attachment insert")
	}
	if len(withFile.Attachments) != 1 || withFile.Attachments[0].FileName != "joined.png" {
		t.Fatalf("snapshot does not reflect the attachment: %d rows", len(withFile.Attachments))
	}

	// A write to the note itself re-emits too
	withFile.Note.Title = "joined v2"
	if err := notesRepo.UpdateNote(&withFile.Note); err != nil {
		t.Fatal("update failed:", err)
	}

	renamed, ok := obs.Next(5 * time.Second)
	if !ok || renamed == nil {
		t.Fatal("no snapshot after note update")
	}
	if renamed.Note.Title != "joined v2" {
		t.Fatal("snapshot does not reflect the note update:", renamed.Note.Title)
	}
}

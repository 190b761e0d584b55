package services

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"main/model"
)

func newTestStorage(t *testing.T) *AttachmentStorage {
	t.Helper()
	storage, err := NewAttachmentStorage(t.TempDir())
	if err != nil {
		t.Fatal("failed to set up storage:", err)
	}
	return storage
}

func TestAttachmentStorageStageAndCommit(t *testing.T) {
	storage := newTestStorage(t)

	staged, size, err := storage.Stage(strings.NewReader("hello world"), "greeting.txt")
	if err != nil {
		t.Fatal("stage failed:", err)
	}
	if size != int64(len("hello world")) {
		t.Fatalf("wrong staged size: %d", size)
	}
	if filepath.Ext(staged) != ".txt" {
		t.Fatal("staged file lost its extension:", staged)
	}

	// Staged files are invisible to a rescan
	scanned, err := storage.Rescan("note-1")
	if err != nil {
		t.Fatal("rescan failed:", err)
	}
	if len(scanned) != 0 {
		t.Fatal("staged file leaked into the note directory")
	}

	committed, err := storage.Commit(staged, "note-1", "greeting.txt")
	if err != nil {
		t.Fatal("commit failed:", err)
	}
	if committed != filepath.Join(storage.NoteDir("note-1"), "greeting.txt") {
		t.Fatal("unexpected committed path:", committed)
	}

	data, err := os.ReadFile(committed)
	if err != nil {
		t.Fatal("committed file unreadable:", err)
	}
	if string(data) != "hello world" {
		t.Fatal("committed content mangled:", string(data))
	}

	if _, err := os.Stat(staged); !os.IsNotExist(err) {
		t.Fatal("staged file still present after commit")
	}
}

func TestAttachmentStorageDiscard(t *testing.T) {
	storage := newTestStorage(t)

	staged, _, err := storage.Stage(strings.NewReader("scratch"), "tmp.bin")
	if err != nil {
		t.Fatal("stage failed:", err)
	}
	if err := storage.Discard(staged); err != nil {
		t.Fatal("discard failed:", err)
	}
	if _, err := os.Stat(staged); !os.IsNotExist(err) {
		t.Fatal("discarded file still present")
	}

	// Discarding twice is fine
	if err := storage.Discard(staged); err != nil {
		t.Fatal("second discard errored:", err)
	}
}

func TestAttachmentStorageRemove(t *testing.T) {
	storage := newTestStorage(t)

	staged, _, _ := storage.Stage(strings.NewReader("x"), "doc.pdf")
	committed, err := storage.Commit(staged, "note-2", "doc.pdf")
	if err != nil {
		t.Fatal("commit failed:", err)
	}

	if err := storage.Remove(committed); err != nil {
		t.Fatal("remove failed:", err)
	}
	// Removing a missing file is tolerated
	if err := storage.Remove(committed); err != nil {
		t.Fatal("second remove errored:", err)
	}

	if err := storage.RemoveNoteDir("note-2"); err != nil {
		t.Fatal("note dir removal failed:", err)
	}
	if _, err := os.Stat(storage.NoteDir("note-2")); !os.IsNotExist(err) {
		t.Fatal("note directory still present")
	}
}

func TestAttachmentStorageSaveAvatar(t *testing.T) {
	storage := newTestStorage(t)

	path, err := storage.SaveAvatar(strings.NewReader("portrait bytes"), "me.jpg")
	if err != nil {
		t.Fatal("save failed:", err)
	}
	if filepath.Ext(path) != ".jpg" {
		t.Fatal("avatar lost its extension:", path)
	}
	if filepath.Base(filepath.Dir(path)) != "avatars" {
		t.Fatal("avatar stored outside the avatars directory:", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal("stored avatar unreadable:", err)
	}
	if string(data) != "portrait bytes" {
		t.Fatal("avatar content mangled")
	}

	// Two uploads of the same file get distinct names
	second, err := storage.SaveAvatar(strings.NewReader("portrait bytes"), "me.jpg")
	if err != nil {
		t.Fatal("second save failed:", err)
	}
	if second == path {
		t.Fatal("avatar uploads collided on the same path")
	}

	if err := storage.RemoveAvatar(path); err != nil {
		t.Fatal("remove failed:", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("removed avatar still present")
	}
	// Removing again, or removing nothing, is fine
	if err := storage.RemoveAvatar(path); err != nil {
		t.Fatal("second remove errored:", err)
	}
	if err := storage.RemoveAvatar(""); err != nil {
		t.Fatal("empty path errored:", err)
	}
}

func TestAttachmentStorageRescan(t *testing.T) {
	storage := newTestStorage(t)

	files := map[string]string{
		"photo.JPG":  "image bytes",
		"memo.mp3":   "audio bytes",
		"report.pdf": "file bytes",
	}
	for name, content := range files {
		staged, _, err := storage.Stage(strings.NewReader(content), name)
		if err != nil {
			t.Fatal("stage failed:", err)
		}
		if _, err := storage.Commit(staged, "note-3", name); err != nil {
			t.Fatal("commit failed:", err)
		}
	}

	scanned, err := storage.Rescan("note-3")
	if err != nil {
		t.Fatal("rescan failed:", err)
	}
	if len(scanned) != 3 {
		t.Fatalf("expected 3 files, got %d", len(scanned))
	}

	// Ordered by file name, classified by extension
	if scanned[0].FileName != "memo.mp3" || scanned[0].Type != model.AttachmentTypeAudio {
		t.Fatalf("unexpected first entry: %+v", scanned[0])
	}
	if scanned[1].FileName != "photo.JPG" || scanned[1].Type != model.AttachmentTypeImage {
		t.Fatalf("unexpected second entry: %+v", scanned[1])
	}
	if scanned[2].FileName != "report.pdf" || scanned[2].Type != model.AttachmentTypeFile {
		t.Fatalf("unexpected third entry: %+v", scanned[2])
	}
	if scanned[1].MimeType != "image/jpeg" {
		t.Fatal("wrong mime type for photo:", scanned[1].MimeType)
	}
	for _, a := range scanned {
		if a.MimeType == "" {
			t.Fatal("mime type not filled in for", a.FileName)
		}
	}
	if scanned[0].SizeBytes != int64(len("audio bytes")) {
		t.Fatalf("wrong size recorded: %d", scanned[0].SizeBytes)
	}

	// A note with no directory rescans to nothing
	empty, err := storage.Rescan("never-seen")
	if err != nil {
		t.Fatal("rescan of missing dir errored:", err)
	}
	if len(empty) != 0 {
		t.Fatal("phantom attachments from a missing directory")
	}
}

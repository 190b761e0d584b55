package services

import (
	"fmt"
	"io"
	"main/model"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
)

// AttachmentStorage owns the attachment files on disk. Files live under
// <root>/attachments/<noteID>/ and arrive there through a two step flow:
// incoming data is first staged into a scratch directory, then committed
// into the note's directory once the caller is ready to record it.
type AttachmentStorage struct {
	root string
}

// GlobalAttachmentStorage is the process-wide storage manager
var GlobalAttachmentStorage *AttachmentStorage

const (
	attachmentsDirName = "attachments"
	stagingDirName     = ".staging"
	avatarsDirName     = "avatars"
)

// NewAttachmentStorage prepares the directory layout under root
func NewAttachmentStorage(root string) (*AttachmentStorage, error) {
	if root == "" {
		return nil, fmt.Errorf("storage root cannot be empty")
	}
	if err := os.MkdirAll(filepath.Join(root, attachmentsDirName, stagingDirName), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage layout: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(root, avatarsDirName), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage layout: %w", err)
	}
	return &AttachmentStorage{root: root}, nil
}

// NoteDir returns the directory holding a note's attachment files
func (s *AttachmentStorage) NoteDir(noteID string) string {
	return filepath.Join(s.root, attachmentsDirName, noteID)
}

// Stage writes incoming data to the scratch directory and returns the
// staged path and size. A staged file is not visible to rescans until
// Commit moves it into a note's directory.
func (s *AttachmentStorage) Stage(r io.Reader, originalName string) (string, int64, error) {
	name := uuid.New().String() + filepath.Ext(originalName)
	stagedPath := filepath.Join(s.root, attachmentsDirName, stagingDirName, name)

	f, err := os.Create(stagedPath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create staged file: %w", err)
	}

	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(stagedPath)
		return "", 0, fmt.Errorf("failed to write staged file: %w", err)
	}

	return stagedPath, size, nil
}

// Commit moves a staged file into the note's directory under its final
// name and returns the committed path.
func (s *AttachmentStorage) Commit(stagedPath, noteID, fileName string) (string, error) {
	dir := s.NoteDir(noteID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create note directory: %w", err)
	}

	finalPath := filepath.Join(dir, fileName)
	if err := os.Rename(stagedPath, finalPath); err != nil {
		return "", fmt.Errorf("failed to commit attachment: %w", err)
	}

	return finalPath, nil
}

// Discard drops a staged file that will not be committed
func (s *AttachmentStorage) Discard(stagedPath string) error {
	if err := os.Remove(stagedPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to discard staged file: %w", err)
	}
	return nil
}

// Remove deletes a committed attachment file. Callers delete the file
// before the database row; if the process dies between the two steps the
// row dangles until a rescan reconciles the directory.
func (s *AttachmentStorage) Remove(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove attachment file: %w", err)
	}
	return nil
}

// RemoveNoteDir deletes a note's whole attachment directory. Used after
// a note row cascade removed its attachment rows.
func (s *AttachmentStorage) RemoveNoteDir(noteID string) error {
	if err := os.RemoveAll(s.NoteDir(noteID)); err != nil {
		return fmt.Errorf("failed to remove note directory: %w", err)
	}
	return nil
}

// SaveAvatar writes a profile image into the avatars directory and
// returns its path. Avatars live next to the attachments tree, one file
// per upload.
func (s *AttachmentStorage) SaveAvatar(r io.Reader, originalName string) (string, error) {
	name := "avatar_" + uuid.New().String() + filepath.Ext(originalName)
	path := filepath.Join(s.root, avatarsDirName, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create avatar file: %w", err)
	}

	_, err = io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write avatar file: %w", err)
	}

	return path, nil
}

// RemoveAvatar deletes a stored avatar file. A missing file is fine;
// the caller is replacing or clearing it either way.
func (s *AttachmentStorage) RemoveAvatar(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove avatar file: %w", err)
	}
	return nil
}

// Rescan walks a note's directory and rebuilds attachment records from
// what is actually on disk, classifying each file by extension. Results
// are ordered by file name for stable output.
func (s *AttachmentStorage) Rescan(noteID string) ([]model.Attachment, error) {
	dir := s.NoteDir(noteID)

	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read note directory: %w", err)
	}

	attachments := make([]model.Attachment, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		attachments = append(attachments, model.Attachment{
			NoteID:    noteID,
			FileName:  entry.Name(),
			FilePath:  filepath.Join(dir, entry.Name()),
			MimeType:  model.MimeTypeForName(entry.Name()),
			Type:      model.AttachmentTypeForName(entry.Name()),
			SizeBytes: info.Size(),
			CreatedAt: info.ModTime().UTC().Truncate(time.Second),
		})
	}

	sort.Slice(attachments, func(i, j int) bool {
		return attachments[i].FileName < attachments[j].FileName
	})

	return attachments, nil
}

package repository

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"main/model"
	"main/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNoteNotFound = errors.New("note not found")

type NotesRepo struct {
	db         *gorm.DB
	queue      *writeQueue
	dispatcher *callbackDispatcher
}

var (
	notesRepoOnce sync.Once
	notesRepo     *NotesRepo
)

// GetNotesRepo returns the process-wide notes repository
func GetNotesRepo(db *gorm.DB) *NotesRepo {
	notesRepoOnce.Do(func() {
		notesRepo = NewNotesRepo(db)
	})
	return notesRepo
}

func NewNotesRepo(db *gorm.DB) *NotesRepo {
	return &NotesRepo{
		db:         db,
		queue:      newWriteQueue("notes"),
		dispatcher: newCallbackDispatcher(),
	}
}

func (r *NotesRepo) prepare(note *model.Note) {
	if note.ID == "" {
		note.ID = uuid.New().String()
	}
	now := time.Now()
	if note.CreatedAt.IsZero() {
		note.CreatedAt = now
	}
	note.UpdatedAt = now
}

// Insert queues a note write and returns immediately. A row with the
// same ID is replaced wholesale. Failures are logged and counted; use
// InsertWithCallback when the caller needs the outcome.
func (r *NotesRepo) Insert(note *model.Note) {
	r.prepare(note)
	stored := *note
	r.queue.Submit(func() {
		timer := utils.TrackDBOperation("insert", "notes")
		defer timer.ObserveDuration()

		if err := r.db.Omit("Attachments").Clauses(clause.OnConflict{UpdateAll: true}).Create(&stored).Error; err != nil {
			utils.TrackError("database", "note_insert_failed")
			return
		}
		utils.TrackNoteOperation("create")
		hub.invalidate("notes")
	})
}

// InsertWithCallback queues a note write and delivers the stored note,
// or the failure, on the dispatcher goroutine. Callbacks never run on
// the write worker.
func (r *NotesRepo) InsertWithCallback(note *model.Note, onComplete func(*model.Note), onError func(error)) {
	r.prepare(note)
	stored := *note
	r.queue.Submit(func() {
		timer := utils.TrackDBOperation("insert", "notes")
		defer timer.ObserveDuration()

		err := r.db.Omit("Attachments").Clauses(clause.OnConflict{UpdateAll: true}).Create(&stored).Error
		if err != nil {
			utils.TrackError("database", "note_insert_failed")
			if onError != nil {
				r.dispatcher.Dispatch(func() { onError(err) })
			}
			return
		}

		utils.TrackNoteOperation("create")
		hub.invalidate("notes")
		if onComplete != nil {
			result := stored
			r.dispatcher.Dispatch(func() { onComplete(&result) })
		}
	})
}

// UpdateNote rewrites a note row and bumps its updated time
func (r *NotesRepo) UpdateNote(note *model.Note) error {
	var err error
	r.queue.Do(func() {
		timer := utils.TrackDBOperation("update", "notes")
		defer timer.ObserveDuration()

		note.UpdatedAt = time.Now()
		result := r.db.Omit("Attachments").Clauses(clause.OnConflict{UpdateAll: true}).Create(note)
		if result.Error != nil {
			utils.TrackError("database", "note_update_failed")
			err = fmt.Errorf("failed to update note: %w", result.Error)
			return
		}
		utils.TrackNoteOperation("update")
		hub.invalidate("notes")
	})
	return err
}

// DeleteNote removes a note row; its attachment rows cascade away with it
func (r *NotesRepo) DeleteNote(noteID string) (int64, error) {
	var (
		rows int64
		err  error
	)
	r.queue.Do(func() {
		timer := utils.TrackDBOperation("delete", "notes")
		defer timer.ObserveDuration()

		result := r.db.Where("id = ?", noteID).Delete(&model.Note{})
		if result.Error != nil {
			utils.TrackError("database", "note_deletion_failed")
			err = result.Error
			return
		}
		rows = result.RowsAffected
		utils.TrackNoteOperation("delete")
		hub.invalidate("notes", "attachments")
	})
	return rows, err
}

// DeleteAllByUser clears a user's notes and their attachments
func (r *NotesRepo) DeleteAllByUser(userID string) (int64, error) {
	var (
		rows int64
		err  error
	)
	r.queue.Do(func() {
		timer := utils.TrackDBOperation("delete", "notes")
		defer timer.ObserveDuration()

		result := r.db.Where("user_id = ?", userID).Delete(&model.Note{})
		if result.Error != nil {
			utils.TrackError("database", "note_deletion_failed")
			err = result.Error
			return
		}
		rows = result.RowsAffected
		hub.invalidate("notes", "attachments")
	})
	return rows, err
}

func (r *NotesRepo) GetNote(noteID string) (*model.Note, error) {
	timer := utils.TrackDBOperation("find", "notes")
	defer timer.ObserveDuration()

	var note model.Note
	err := r.db.Where("id = ?", noteID).First(&note).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		utils.TrackError("database", "note_lookup_error")
		return nil, err
	}
	return &note, nil
}

// GetUserNotes returns a user's notes, most recently updated first
func (r *NotesRepo) GetUserNotes(userID string) ([]model.Note, error) {
	timer := utils.TrackDBOperation("find", "notes")
	defer timer.ObserveDuration()

	var notes []model.Note
	err := r.db.Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&notes).Error
	if err != nil {
		utils.TrackError("database", "notes_fetch_failed")
		return nil, err
	}
	return notes, nil
}

// SearchNotes matches the query as a substring of either the title or
// the content, most recently updated first
func (r *NotesRepo) SearchNotes(userID, query string) ([]model.Note, error) {
	timer := utils.TrackDBOperation("find", "notes")
	defer timer.ObserveDuration()

	pattern := "%" + query + "%"
	var notes []model.Note
	err := r.db.Where("user_id = ? AND (title LIKE ? OR content LIKE ?)", userID, pattern, pattern).
		Order("updated_at DESC").
		Find(&notes).Error
	if err != nil {
		utils.TrackError("database", "notes_search_failed")
		return nil, err
	}
	return notes, nil
}

func (r *NotesRepo) CountUserNotes(userID string) (int64, error) {
	timer := utils.TrackDBOperation("count", "notes")
	defer timer.ObserveDuration()

	var count int64
	err := r.db.Model(&model.Note{}).Where("user_id = ?", userID).Count(&count).Error
	if err != nil {
		utils.TrackError("database", "notes_count_failed")
		return 0, err
	}
	return count, nil
}

// GetNoteWithAttachments loads a note together with its attachment
// rows, attachments ordered by ID ascending
func (r *NotesRepo) GetNoteWithAttachments(noteID string) (*model.NoteWithAttachments, error) {
	note, err := r.GetNote(noteID)
	if err != nil {
		return nil, err
	}
	if note == nil {
		return nil, nil
	}

	timer := utils.TrackDBOperation("find", "attachments")
	defer timer.ObserveDuration()

	var attachments []model.Attachment
	err = r.db.Where("note_id = ?", noteID).
		Order("id ASC").
		Find(&attachments).Error
	if err != nil {
		utils.TrackError("database", "attachments_fetch_failed")
		return nil, err
	}

	return &model.NoteWithAttachments{Note: *note, Attachments: attachments}, nil
}

// ObserveNote is a live query for a single note
func (r *NotesRepo) ObserveNote(noteID string) *Observable[*model.Note] {
	return newObservable(func() (*model.Note, error) {
		return r.GetNote(noteID)
	}, "notes")
}

// ObserveUserNotes is a live query for a user's note list
func (r *NotesRepo) ObserveUserNotes(userID string) *Observable[[]model.Note] {
	return newObservable(func() ([]model.Note, error) {
		return r.GetUserNotes(userID)
	}, "notes")
}

// ObserveSearch is a live substring search
func (r *NotesRepo) ObserveSearch(userID, query string) *Observable[[]model.Note] {
	return newObservable(func() ([]model.Note, error) {
		return r.SearchNotes(userID, query)
	}, "notes")
}

// ObserveNoteWithAttachments re-emits when either the note or its
// attachment rows change
func (r *NotesRepo) ObserveNoteWithAttachments(noteID string) *Observable[*model.NoteWithAttachments] {
	return newObservable(func() (*model.NoteWithAttachments, error) {
		return r.GetNoteWithAttachments(noteID)
	}, "notes", "attachments")
}

// PageUserNotes pages through a user's notes, most recently updated first
func (r *NotesRepo) PageUserNotes(userID string) *Pager[model.Note] {
	return newPager(func(limit, offset int) ([]model.Note, error) {
		timer := utils.TrackDBOperation("find", "notes")
		defer timer.ObserveDuration()

		var notes []model.Note
		err := r.db.Where("user_id = ?", userID).
			Order("updated_at DESC").
			Limit(limit).
			Offset(offset).
			Find(&notes).Error
		if err != nil {
			utils.TrackError("database", "notes_fetch_failed")
			return nil, err
		}
		return notes, nil
	})
}

// PageSearch pages through substring search results
func (r *NotesRepo) PageSearch(userID, query string) *Pager[model.Note] {
	pattern := "%" + query + "%"
	return newPager(func(limit, offset int) ([]model.Note, error) {
		timer := utils.TrackDBOperation("find", "notes")
		defer timer.ObserveDuration()

		var notes []model.Note
		err := r.db.Where("user_id = ? AND (title LIKE ? OR content LIKE ?)", userID, pattern, pattern).
			Order("updated_at DESC").
			Limit(limit).
			Offset(offset).
			Find(&notes).Error
		if err != nil {
			utils.TrackError("database", "notes_search_failed")
			return nil, err
		}
		return notes, nil
	})
}

// Flush waits for the write queue to drain
func (r *NotesRepo) Flush() {
	r.queue.Flush()
}

// Close stops the write worker and the callback dispatcher
func (r *NotesRepo) Close() {
	r.queue.Close()
	r.dispatcher.Close()
}

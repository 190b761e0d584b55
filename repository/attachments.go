package repository

import (
	"errors"
	"sync"
	"time"

	"main/model"
	"main/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrAttachmentNotFound = errors.New("attachment not found")

type AttachmentsRepo struct {
	db    *gorm.DB
	queue *writeQueue
}

var (
	attachmentsRepoOnce sync.Once
	attachmentsRepo     *AttachmentsRepo
)

// GetAttachmentsRepo returns the process-wide attachments repository
func GetAttachmentsRepo(db *gorm.DB) *AttachmentsRepo {
	attachmentsRepoOnce.Do(func() {
		attachmentsRepo = NewAttachmentsRepo(db)
	})
	return attachmentsRepo
}

func NewAttachmentsRepo(db *gorm.DB) *AttachmentsRepo {
	return &AttachmentsRepo{
		db:    db,
		queue: newWriteQueue("attachments"),
	}
}

// Insert records an attachment row for an already committed file. The
// note must exist; the foreign key rejects orphan rows. The attachment
// ID is filled in on return.
func (r *AttachmentsRepo) Insert(attachment *model.Attachment) error {
	var err error
	r.queue.Do(func() {
		timer := utils.TrackDBOperation("insert", "attachments")
		defer timer.ObserveDuration()

		if attachment.CreatedAt.IsZero() {
			attachment.CreatedAt = time.Now()
		}

		if err = r.db.Create(attachment).Error; err != nil {
			utils.TrackError("database", "attachment_insert_failed")
			var note model.Note
			if lookupErr := r.db.Where("id = ?", attachment.NoteID).First(&note).Error; errors.Is(lookupErr, gorm.ErrRecordNotFound) {
				err = ErrNoteNotFound
			}
			return
		}
		hub.invalidate("attachments")
	})
	return err
}

// Update rewrites an attachment row, replacing any row with the same ID
func (r *AttachmentsRepo) Update(attachment *model.Attachment) error {
	var err error
	r.queue.Do(func() {
		timer := utils.TrackDBOperation("update", "attachments")
		defer timer.ObserveDuration()

		if err = r.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(attachment).Error; err != nil {
			utils.TrackError("database", "attachment_update_failed")
			return
		}
		hub.invalidate("attachments")
	})
	return err
}

// DeleteRow removes just the database row. Callers delete the backing
// file first; a crash in between leaves a dangling row that the next
// rescan clears up.
func (r *AttachmentsRepo) DeleteRow(attachmentID int64) (int64, error) {
	var (
		rows int64
		err  error
	)
	r.queue.Do(func() {
		timer := utils.TrackDBOperation("delete", "attachments")
		defer timer.ObserveDuration()

		result := r.db.Where("id = ?", attachmentID).Delete(&model.Attachment{})
		if result.Error != nil {
			utils.TrackError("database", "attachment_deletion_failed")
			err = result.Error
			return
		}
		rows = result.RowsAffected
		hub.invalidate("attachments")
	})
	return rows, err
}

func (r *AttachmentsRepo) GetAttachment(attachmentID int64) (*model.Attachment, error) {
	timer := utils.TrackDBOperation("find", "attachments")
	defer timer.ObserveDuration()

	var attachment model.Attachment
	err := r.db.Where("id = ?", attachmentID).First(&attachment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		utils.TrackError("database", "attachment_lookup_error")
		return nil, err
	}
	return &attachment, nil
}

// GetByNoteID returns a note's attachment rows ordered by ID ascending
func (r *AttachmentsRepo) GetByNoteID(noteID string) ([]model.Attachment, error) {
	timer := utils.TrackDBOperation("find", "attachments")
	defer timer.ObserveDuration()

	var attachments []model.Attachment
	err := r.db.Where("note_id = ?", noteID).
		Order("id ASC").
		Find(&attachments).Error
	if err != nil {
		utils.TrackError("database", "attachments_fetch_failed")
		return nil, err
	}
	return attachments, nil
}

// ObserveNoteAttachments is a live query for a note's attachment list
func (r *AttachmentsRepo) ObserveNoteAttachments(noteID string) *Observable[[]model.Attachment] {
	return newObservable(func() ([]model.Attachment, error) {
		return r.GetByNoteID(noteID)
	}, "attachments")
}

// ReplaceForNote reconciles a note's rows against a rescan of its
// directory: existing rows are dropped and the scanned set is written
// in their place.
func (r *AttachmentsRepo) ReplaceForNote(noteID string, scanned []model.Attachment) error {
	var err error
	r.queue.Do(func() {
		timer := utils.TrackDBOperation("replace", "attachments")
		defer timer.ObserveDuration()

		err = r.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("note_id = ?", noteID).Delete(&model.Attachment{}).Error; err != nil {
				return err
			}
			for i := range scanned {
				scanned[i].ID = 0
				scanned[i].NoteID = noteID
				if err := tx.Create(&scanned[i]).Error; err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			utils.TrackError("database", "attachment_rescan_failed")
			return
		}
		hub.invalidate("attachments")
	})
	return err
}

// CountByUser aggregates attachment counts and sizes for the stats
// endpoint, grouped by type
func (r *AttachmentsRepo) CountByUser(userID string) (map[int]int, int64, error) {
	timer := utils.TrackDBOperation("count", "attachments")
	defer timer.ObserveDuration()

	type row struct {
		Type  int
		Count int
		Bytes int64
	}
	var rows []row
	err := r.db.Model(&model.Attachment{}).
		Select("attachments.type AS type, COUNT(*) AS count, COALESCE(SUM(attachments.size_bytes), 0) AS bytes").
		Joins("JOIN notes ON notes.id = attachments.note_id").
		Where("notes.user_id = ?", userID).
		Group("attachments.type").
		Scan(&rows).Error
	if err != nil {
		utils.TrackError("database", "attachments_count_failed")
		return nil, 0, err
	}

	counts := make(map[int]int, len(rows))
	var totalBytes int64
	for _, r := range rows {
		counts[r.Type] = r.Count
		totalBytes += r.Bytes
	}
	return counts, totalBytes, nil
}

// Flush waits for the write queue to drain
func (r *AttachmentsRepo) Flush() {
	r.queue.Flush()
}

// Close stops the repository's write worker
func (r *AttachmentsRepo) Close() {
	r.queue.Close()
}

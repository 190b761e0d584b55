package repository

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"main/model"
	"main/services"
	"main/utils"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Registration failure sentinels. Callers branch on these to tell the
// user what went wrong without parsing error strings.
var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already registered")
	ErrEmptyPassword      = errors.New("password cannot be empty")
	ErrHashFailure        = errors.New("failed to hash password")
	ErrRegistrationFailed = errors.New("registration failed")

	ErrUserNotFound  = errors.New("user not found")
	ErrWrongPassword = errors.New("current password is incorrect")
)

// Placeholder identity for EnsureUserExists
const (
	placeholderUsername = "default_user"
	placeholderEmail    = "default@example.com"
	placeholderPassword = "default_password"
)

type UserRepo struct {
	db    *gorm.DB
	queue *writeQueue
}

var (
	userRepoOnce sync.Once
	userRepo     *UserRepo
)

// GetUserRepo returns the process-wide user repository
func GetUserRepo(db *gorm.DB) *UserRepo {
	userRepoOnce.Do(func() {
		userRepo = NewUserRepo(db)
	})
	return userRepo
}

// NewUserRepo builds a repository with its own write queue. Tests use
// this directly against throwaway databases.
func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{
		db:    db,
		queue: newWriteQueue("users"),
	}
}

// Register creates a new account. Username and email uniqueness are
// check-then-act application checks, not database constraints, so two
// concurrent registrations of the same name can both pass the lookup;
// the mutation queue narrows that window to reads racing the worker.
func (r *UserRepo) Register(username, email, password, fullName string) (*model.User, error) {
	var (
		user *model.User
		err  error
	)
	r.queue.Do(func() {
		user, err = r.register(username, email, password, fullName)
	})
	return user, err
}

func (r *UserRepo) register(username, email, password, fullName string) (*model.User, error) {
	timer := utils.TrackDBOperation("insert", "users")
	defer timer.ObserveDuration()

	if password == "" {
		utils.TrackError("database", "empty_password")
		return nil, ErrEmptyPassword
	}

	existing, err := r.FindUserByUsername(username)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRegistrationFailed, err)
	}
	if existing != nil {
		utils.TrackError("database", "username_taken")
		return nil, ErrUsernameTaken
	}

	existing, err = r.FindUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRegistrationFailed, err)
	}
	if existing != nil {
		utils.TrackError("database", "email_taken")
		return nil, ErrEmailTaken
	}

	hashed, err := services.HashPassword(password)
	if err != nil {
		utils.TrackError("database", "hash_failure")
		return nil, ErrHashFailure
	}

	user := &model.User{
		UserID:       utils.GenerateUserID(),
		Username:     username,
		Email:        email,
		PasswordHash: hashed,
		FullName:     fullName,
		CreatedAt:    time.Now(),
	}

	if err := r.db.Create(user).Error; err != nil {
		utils.TrackError("database", "user_creation_failed")
		return nil, fmt.Errorf("%w: %v", ErrRegistrationFailed, err)
	}

	hub.invalidate("users")
	return user, nil
}

// InsertUser writes a user row, replacing any existing row with the
// same ID
func (r *UserRepo) InsertUser(user *model.User) error {
	var err error
	r.queue.Do(func() {
		timer := utils.TrackDBOperation("insert", "users")
		defer timer.ObserveDuration()

		err = r.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(user).Error
		if err != nil {
			utils.TrackError("database", "user_insert_failed")
			return
		}
		hub.invalidate("users")
	})
	return err
}

func (r *UserRepo) FindUser(userID string) (*model.User, error) {
	timer := utils.TrackDBOperation("find", "users")
	defer timer.ObserveDuration()

	var user model.User
	err := r.db.Where("user_id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		utils.TrackError("database", "user_lookup_error")
		return nil, err
	}
	return &user, nil
}

func (r *UserRepo) FindUserByUsername(username string) (*model.User, error) {
	timer := utils.TrackDBOperation("find", "users")
	defer timer.ObserveDuration()

	var user model.User
	err := r.db.Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		utils.TrackError("database", "user_lookup_error")
		log.Println("Error finding user:", err)
		return nil, err
	}
	return &user, nil
}

func (r *UserRepo) FindUserByEmail(email string) (*model.User, error) {
	timer := utils.TrackDBOperation("find", "users")
	defer timer.ObserveDuration()

	var user model.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		utils.TrackError("database", "user_lookup_error")
		return nil, err
	}
	return &user, nil
}

// UpdateProfile rewrites the account's display name and, when a new
// avatar was uploaded, its avatar path. An empty avatarURL keeps the
// current one. Returns the previous avatar path so the caller can
// delete the replaced file.
func (r *UserRepo) UpdateProfile(userID, fullName, avatarURL string) (string, error) {
	var (
		previousAvatar string
		err            error
	)
	r.queue.Do(func() {
		timer := utils.TrackDBOperation("update", "users")
		defer timer.ObserveDuration()

		var user *model.User
		user, err = r.FindUser(userID)
		if err != nil {
			return
		}
		if user == nil {
			err = ErrUserNotFound
			return
		}

		updates := map[string]interface{}{
			"full_name": fullName,
		}
		if avatarURL != "" {
			updates["avatar_url"] = avatarURL
			previousAvatar = user.AvatarURL
		}

		result := r.db.Model(&model.User{}).
			Where("user_id = ?", userID).
			Updates(updates)
		if result.Error != nil {
			utils.TrackError("database", "profile_update_failed")
			err = fmt.Errorf("failed to update profile: %w", result.Error)
			return
		}
		hub.invalidate("users")
	})
	return previousAvatar, err
}

// ObserveUser is a live query for one account
func (r *UserRepo) ObserveUser(userID string) *Observable[*model.User] {
	return newObservable(func() (*model.User, error) {
		return r.FindUser(userID)
	}, "users")
}

// UpdateUserPassword overwrites the stored credential record and stamps
// the change time
func (r *UserRepo) UpdateUserPassword(userID string, hashedPassword string) (int64, error) {
	var (
		rows int64
		err  error
	)
	r.queue.Do(func() {
		timer := utils.TrackDBOperation("update", "users")
		defer timer.ObserveDuration()

		if hashedPassword == "" {
			utils.TrackError("database", "invalid_password_hash")
			err = fmt.Errorf("password hashing error")
			return
		}

		result := r.db.Model(&model.User{}).
			Where("user_id = ?", userID).
			Updates(map[string]interface{}{
				"password_hash":        hashedPassword,
				"last_password_change": time.Now(),
			})
		if result.Error != nil {
			utils.TrackError("database", "password_update_failed")
			err = fmt.Errorf("failed to update password: %w", result.Error)
			return
		}
		rows = result.RowsAffected
		hub.invalidate("users")
	})
	return rows, err
}

// ChangePassword verifies the current password before storing a new
// one. An account with an empty credential record skips verification:
// that state only exists for bootstrapped placeholder accounts, and
// this is the path that gives them a real password.
func (r *UserRepo) ChangePassword(userID, oldPassword, newPassword string) error {
	var err error
	r.queue.Do(func() {
		err = r.changePassword(userID, oldPassword, newPassword)
	})
	return err
}

func (r *UserRepo) changePassword(userID, oldPassword, newPassword string) error {
	user, err := r.FindUser(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	if user.PasswordHash != "" && !services.ComparePasswords(user.PasswordHash, oldPassword) {
		utils.TrackError("auth", "wrong_password")
		return ErrWrongPassword
	}

	hashed, err := services.HashPassword(newPassword)
	if err != nil {
		return ErrHashFailure
	}

	result := r.db.Model(&model.User{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"password_hash":        hashed,
			"last_password_change": time.Now(),
		})
	if result.Error != nil {
		utils.TrackError("database", "password_update_failed")
		return fmt.Errorf("failed to update password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	hub.invalidate("users")
	return nil
}

// ResetPassword sets a new password for the account matching both the
// username and the email. A mismatch on either fails the same way, so
// the caller learns nothing about which half was wrong.
func (r *UserRepo) ResetPassword(username, email, newPassword string) error {
	var err error
	r.queue.Do(func() {
		err = r.resetPassword(username, email, newPassword)
	})
	return err
}

func (r *UserRepo) resetPassword(username, email, newPassword string) error {
	user, err := r.FindUserByUsername(username)
	if err != nil {
		return err
	}
	if user == nil || user.Email != email {
		utils.TrackError("auth", "reset_identity_mismatch")
		return ErrUserNotFound
	}

	hashed, err := services.HashPassword(newPassword)
	if err != nil {
		return ErrHashFailure
	}

	result := r.db.Model(&model.User{}).
		Where("user_id = ?", user.UserID).
		Updates(map[string]interface{}{
			"password_hash":        hashed,
			"last_password_change": time.Now(),
		})
	if result.Error != nil {
		utils.TrackError("database", "password_update_failed")
		return fmt.Errorf("failed to reset password: %w", result.Error)
	}

	hub.invalidate("users")
	return nil
}

// EnsureUserExists creates a placeholder account under the given ID if
// no row exists yet. Idempotent; used to satisfy the notes foreign key
// when data arrives before the owning account.
func (r *UserRepo) EnsureUserExists(userID string) error {
	var err error
	r.queue.Do(func() {
		var user *model.User
		user, err = r.FindUser(userID)
		if err != nil || user != nil {
			return
		}

		var hashed string
		hashed, err = services.HashPassword(placeholderPassword)
		if err != nil {
			return
		}

		placeholder := &model.User{
			UserID:       userID,
			Username:     placeholderUsername,
			Email:        placeholderEmail,
			PasswordHash: hashed,
			CreatedAt:    time.Now(),
		}
		if err = r.db.Create(placeholder).Error; err != nil {
			utils.TrackError("database", "placeholder_creation_failed")
			return
		}
		hub.invalidate("users")
	})
	return err
}

// DeleteUserByID removes the account; notes and attachments go with it
// through the cascade
func (r *UserRepo) DeleteUserByID(userID string) (int64, error) {
	var (
		rows int64
		err  error
	)
	r.queue.Do(func() {
		timer := utils.TrackDBOperation("delete", "users")
		defer timer.ObserveDuration()

		result := r.db.Where("user_id = ?", userID).Delete(&model.User{})
		if result.Error != nil {
			utils.TrackError("database", "user_deletion_failed")
			err = result.Error
			return
		}
		rows = result.RowsAffected
		hub.invalidate("users", "notes", "attachments")
	})
	return rows, err
}

// Flush waits for the write queue to drain
func (r *UserRepo) Flush() {
	r.queue.Flush()
}

// Close stops the repository's write worker
func (r *UserRepo) Close() {
	r.queue.Close()
}

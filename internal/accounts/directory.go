package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/fleetrent/fleetrent-backend/internal/database"
	"github.com/fleetrent/fleetrent-backend/internal/models"
	"gorm.io/gorm"
)

var (
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRole        = errors.New("role must be owner or customer")
	ErrAccountNotFound    = errors.New("account not found")
)

// Directory stores user identities and authenticates logins.
type Directory struct {
	db *gorm.DB
}

func NewDirectory(db *gorm.DB) *Directory {
	return &Directory{db: db}
}

// Register creates a new account. Username uniqueness is enforced by the
// store's unique index rather than a separate lookup, so two concurrent
// registrations with the same username cannot both succeed.
func (d *Directory) Register(ctx context.Context, username, password string, role models.Role) (*models.User, error) {
	if username == "" {
		return nil, fmt.Errorf("username required")
	}
	if !role.SelfRegisterable() {
		return nil, ErrInvalidRole
	}

	user := models.User{
		Username: username,
		Role:     role,
	}
	if err := user.SetPassword(password); err != nil {
		return nil, err
	}

	if err := d.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateUsername
		}
		return nil, database.StorageError(err)
	}
	return &user, nil
}

// Authenticate returns the account matching username and password. Unknown
// usernames and wrong passwords are indistinguishable to the caller.
func (d *Directory) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	var user models.User
	if err := d.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, database.StorageError(err)
	}

	if err := user.CheckPassword(password); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// Get looks up an account by id.
func (d *Directory) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := d.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, database.StorageError(err)
	}
	return &user, nil
}

// ChangePassword replaces an account's credential after verifying the
// current one. Usernames are immutable, so this is the only profile field
// that can change.
func (d *Directory) ChangePassword(ctx context.Context, id uint, current, updated string) error {
	user, err := d.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := user.CheckPassword(current); err != nil {
		return ErrInvalidCredentials
	}
	if err := user.SetPassword(updated); err != nil {
		return err
	}

	err = d.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("password_hash", user.PasswordHash).Error
	if err != nil {
		return database.StorageError(err)
	}
	return nil
}

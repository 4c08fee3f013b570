package services

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/rohits-web03/reciperater/internal/models"
)

var (
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrEmailTaken         = errors.New("user already exists with this email")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
)

// AccountService owns the users that meals belong to.
type AccountService struct {
	db *gorm.DB
}

func NewAccountService(db *gorm.DB) *AccountService {
	return &AccountService{db: db}
}

func (a *AccountService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	db := a.db.WithContext(ctx)

	var existing models.User
	err := db.Where("username = ?", username).First(&existing).Error
	switch {
	case err == nil:
		return nil, ErrUsernameTaken
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("register: %w", err)
	}

	err = db.Where("email = ?", email).First(&existing).Error
	switch {
	case err == nil:
		return nil, ErrEmailTaken
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("register: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("register: hash password: %w", err)
	}

	user := models.User{Username: username, Email: email, Password: string(hashed)}
	if err := db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return &user, nil
}

// Authenticate checks a username or email against the stored password hash.
func (a *AccountService) Authenticate(ctx context.Context, login, password string) (*models.User, error) {
	var user models.User
	err := a.db.WithContext(ctx).Where("username = ? OR email = ?", login, login).First(&user).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, ErrInvalidCredentials
	case err != nil:
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	if user.Password == "" {
		// Google-only account.
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// GoogleAccount finds the user behind a Google profile. With register set
// a missing user is created; an existing one is ErrEmailTaken.
func (a *AccountService) GoogleAccount(ctx context.Context, googleID, email, name string, register bool) (*models.User, error) {
	db := a.db.WithContext(ctx)

	var user models.User
	err := db.Where("email = ?", email).First(&user).Error
	switch {
	case err == nil && register:
		return nil, ErrEmailTaken
	case err == nil:
		if user.GoogleID == nil {
			user.GoogleID = &googleID
			if err := db.Model(&user).Update("google_id", googleID).Error; err != nil {
				return nil, fmt.Errorf("link google account: %w", err)
			}
		}
		return &user, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("google account: %w", err)
	case !register:
		return nil, ErrUserNotFound
	}

	user = models.User{Username: name, Email: email, GoogleID: &googleID}
	if err := db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("create google account: %w", err)
	}
	return &user, nil
}

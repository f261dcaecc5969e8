package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"budgetapp/internal/access"
	apperrors "budgetapp/internal/errors"
	"budgetapp/internal/models"
	"budgetapp/internal/pagination"
)

// minPasswordLength is the shortest accepted password.
const minPasswordLength = 8

// userService handles user-related business logic.
type userService struct {
	db *gorm.DB
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB) UserServicer {
	return &userService{db: db}
}

// CreateUser registers a new user
func (s *userService) CreateUser(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "username and password are required")
	}
	if len(password) < minPasswordLength {
		return nil, apperrors.WithField(apperrors.ErrInvalidInput, "password", "password must be at least 8 characters")
	}

	db := s.db.WithContext(ctx)
	if err := ensureUsernameFree(db, username, ""); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user := &models.User{
		Username: username,
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Password: string(hashedPassword),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, apperrors.ErrDuplicateUsername
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return user, nil
}

func ensureUsernameFree(db *gorm.DB, username, exceptID string) error {
	q := db.Model(&models.User{}).Where("username = ?", username)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrDuplicateUsername
	}
	return nil
}

// Authenticate checks a username/password pair and records the login time.
// Unknown users, inactive users and wrong passwords all fail the same way.
func (s *userService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	db := s.db.WithContext(ctx)

	var user models.User
	if err := db.Where("username = ? AND is_active = ?", strings.TrimSpace(username), true).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if err := db.Model(&user).Update("last_login_at", now).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	user.LastLoginAt = &now
	return &user, nil
}

// GetUserByID retrieves a user the caller may see: itself, or anyone for admins.
func (s *userService) GetUserByID(ctx context.Context, p access.Principal, id string) (*models.User, error) {
	return findUser(s.db.WithContext(ctx), p, id)
}

func findUser(db *gorm.DB, p access.Principal, id string) (*models.User, error) {
	var user models.User
	if err := db.Scopes(p.Scope(access.Users)).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by username, without access checks.
func (s *userService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// ListUsers returns a page of all users. Admin only.
func (s *userService) ListUsers(ctx context.Context, p access.Principal, page pagination.PageRequest) (*pagination.PageResponse[models.User], error) {
	if !p.IsAdmin {
		return nil, apperrors.ErrForbidden
	}
	page.Defaults()

	base := s.db.WithContext(ctx).Model(&models.User{})

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var users []models.User
	if err := base.Order("username").Scopes(pagination.Paginate(page)).Find(&users).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(users, userKey, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func userKey(u models.User) string { return u.ID }

// UpdateUser changes a user's username, email or password.
func (s *userService) UpdateUser(ctx context.Context, p access.Principal, id string, input UpdateUserInput) (*models.User, error) {
	db := s.db.WithContext(ctx)
	user, err := findUser(db, p, id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		if username == "" {
			return nil, apperrors.WithField(apperrors.ErrInvalidInput, "username", "username cannot be empty")
		}
		if username != user.Username {
			if err := ensureUsernameFree(db, username, user.ID); err != nil {
				return nil, err
			}
			updates["username"] = username
		}
	}
	if input.Email != nil {
		updates["email"] = strings.ToLower(strings.TrimSpace(*input.Email))
	}
	if input.Password != nil {
		if len(*input.Password) < minPasswordLength {
			return nil, apperrors.WithField(apperrors.ErrInvalidInput, "password", "password must be at least 8 characters")
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		updates["password"] = string(hashed)
	}

	if len(updates) > 0 {
		if err := db.Model(user).Updates(updates).Error; err != nil {
			if isDuplicateKey(err) {
				return nil, apperrors.ErrDuplicateUsername
			}
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return findUser(db, p, id)
}

// DeleteUser removes a user with all of its budgets and payees.
func (s *userService) DeleteUser(ctx context.Context, p access.Principal, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := findUser(tx, p, id)
		if err != nil {
			return err
		}
		if err := deleteBudgetsWhere(tx, "owner_id = ?", user.ID); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := deletePayeesWhere(tx, "owner_id = ?", user.ID); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(user).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// SetAdmin grants or revokes the admin flag. Used by operator tooling.
func (s *userService) SetAdmin(ctx context.Context, username string, isAdmin bool) (*models.User, error) {
	user, err := s.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(user).Update("is_admin", isAdmin).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	user.IsAdmin = isAdmin
	return user, nil
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"budgetapp/internal/access"
	apperrors "budgetapp/internal/errors"
	"budgetapp/internal/models"
	"budgetapp/internal/pagination"
)

// payeeService handles payee-related business logic.
type payeeService struct {
	db *gorm.DB
}

// NewPayeeService creates a new PayeeServicer.
func NewPayeeService(db *gorm.DB) PayeeServicer {
	return &payeeService{db: db}
}

func validatePayeeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperrors.WithField(apperrors.ErrInvalidInput, "name", "payee name is required")
	}
	if utf8.RuneCountInString(name) > models.PayeeNameMaxLength {
		return "", apperrors.WithField(apperrors.ErrInvalidInput, "name",
			fmt.Sprintf("payee name must be at most %d characters", models.PayeeNameMaxLength))
	}
	return name, nil
}

// CreatePayee creates a payee owned by the caller.
func (s *payeeService) CreatePayee(ctx context.Context, p access.Principal, name string) (*models.Payee, error) {
	name, err := validatePayeeName(name)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	if err := ensurePayeeNameFree(db, p.UserID, name, ""); err != nil {
		return nil, err
	}

	payee := &models.Payee{Name: name, OwnerID: p.UserID}
	if err := db.Create(payee).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, apperrors.ErrDuplicatePayee
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return payee, nil
}

func ensurePayeeNameFree(db *gorm.DB, ownerID, name, exceptID string) error {
	q := db.Model(&models.Payee{}).Where("owner_id = ? AND name = ?", ownerID, name)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrDuplicatePayee
	}
	return nil
}

// ListPayees returns a page of the payees visible to the caller.
func (s *payeeService) ListPayees(ctx context.Context, p access.Principal, page pagination.PageRequest) (*pagination.PageResponse[models.Payee], error) {
	page.Defaults()

	base := s.db.WithContext(ctx).Model(&models.Payee{}).Scopes(p.Scope(access.Payees))

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var payees []models.Payee
	if err := base.Order("name").Scopes(pagination.Paginate(page)).Find(&payees).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(payees, payeeKey, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func payeeKey(p models.Payee) string { return p.ID }

// GetPayeeByID returns a payee by ID if the caller may see it.
func (s *payeeService) GetPayeeByID(ctx context.Context, p access.Principal, id string) (*models.Payee, error) {
	return findPayee(s.db.WithContext(ctx), p, id)
}

func findPayee(db *gorm.DB, p access.Principal, id string) (*models.Payee, error) {
	var payee models.Payee
	if err := db.Scopes(p.Scope(access.Payees)).Where("id = ?", id).First(&payee).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPayeeNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &payee, nil
}

// UpdatePayee renames a payee.
func (s *payeeService) UpdatePayee(ctx context.Context, p access.Principal, id, name string) (*models.Payee, error) {
	name, err := validatePayeeName(name)
	if err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	payee, err := findPayee(db, p, id)
	if err != nil {
		return nil, err
	}
	if payee.Name == name {
		return payee, nil
	}
	if err := ensurePayeeNameFree(db, payee.OwnerID, name, payee.ID); err != nil {
		return nil, err
	}

	if err := db.Model(payee).Update("name", name).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, apperrors.ErrDuplicatePayee
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	payee.Name = name
	return payee, nil
}

// DeletePayee removes a payee and every transaction paid to it.
func (s *payeeService) DeletePayee(ctx context.Context, p access.Principal, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payee, err := findPayee(tx, p, id)
		if err != nil {
			return err
		}
		if err := deletePayeesWhere(tx, "id = ?", payee.ID); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// PayeeNames maps payee ids to payee names.
func (s *payeeService) PayeeNames(ctx context.Context, payeeIDs []string) (map[string]string, error) {
	names := make(map[string]string, len(payeeIDs))
	if len(payeeIDs) == 0 {
		return names, nil
	}

	var payees []models.Payee
	if err := s.db.WithContext(ctx).Select("id, name").Where("id IN ?", payeeIDs).Find(&payees).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for _, p := range payees {
		names[p.ID] = p.Name
	}
	return names, nil
}

package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"budgetapp/internal/access"
	apperrors "budgetapp/internal/errors"
	"budgetapp/internal/models"
	"budgetapp/internal/pagination"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	db *gorm.DB
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB) TransactionServicer {
	return &transactionService{db: db}
}

// categoryOwner returns the owner of the budget a category belongs to.
func categoryOwner(tx *gorm.DB, category *models.BudgetCategory) (string, error) {
	var budget models.Budget
	if err := tx.Select("id, owner_id").Where("id = ?", category.BudgetID).First(&budget).Error; err != nil {
		return "", err
	}
	return budget.OwnerID, nil
}

// CreateTransaction records a spend against a visible category. The payee is
// looked up by name among the category owner's payees and created when missing.
func (s *transactionService) CreateTransaction(ctx context.Context, p access.Principal, input TransactionInput) (*models.Transaction, error) {
	if !models.ValidMoney(input.Amount) {
		return nil, apperrors.WithField(apperrors.ErrInvalidInput, "amount", "amount must have at most 2 decimal places")
	}
	payeeName, err := validatePayeeName(input.Payee)
	if err != nil {
		return nil, apperrors.WithField(apperrors.ErrInvalidInput, "payee", err.Error())
	}
	if input.Date.IsZero() {
		return nil, apperrors.WithField(apperrors.ErrInvalidInput, "date", "date is required")
	}

	var transaction *models.Transaction
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		category, err := findCategory(tx, p, input.BudgetCategoryID)
		if err != nil {
			return err
		}
		ownerID, err := categoryOwner(tx, category)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		payee, _, err := getOrCreatePayee(tx, ownerID, payeeName)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		transaction = &models.Transaction{
			Amount:           input.Amount.Round(2),
			PayeeID:          payee.ID,
			BudgetCategoryID: category.ID,
			Date:             input.Date.UTC(),
		}
		if err := tx.Create(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

// ListTransactions returns a page of the transactions visible to the caller.
func (s *transactionService) ListTransactions(
	ctx context.Context,
	p access.Principal,
	page pagination.PageRequest,
	filter TransactionFilter,
) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.WithContext(ctx).Model(&models.Transaction{}).Scopes(p.Scope(access.Transactions))
	base = applyTransactionFilters(base, filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Order("date DESC, created_at DESC").Scopes(pagination.Paginate(page)).Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, transactionKey, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func transactionKey(t models.Transaction) string { return t.ID }

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.BudgetCategoryID != "" {
		q = q.Where("budget_category_id = ?", f.BudgetCategoryID)
	}
	if f.PayeeID != "" {
		q = q.Where("payee_id = ?", f.PayeeID)
	}
	if f.BudgetID != "" {
		q = q.Where("budget_category_id IN (SELECT id FROM budget_categories WHERE budget_id = ?)", f.BudgetID)
	}
	if f.FromDate != nil {
		q = q.Where("date >= ?", f.FromDate.UTC())
	}
	if f.ToDate != nil {
		q = q.Where("date <= ?", f.ToDate.UTC())
	}
	return q
}

// GetTransactionByID returns a transaction by ID if the caller may see it.
func (s *transactionService) GetTransactionByID(ctx context.Context, p access.Principal, id string) (*models.Transaction, error) {
	return findTransaction(s.db.WithContext(ctx), p, id)
}

func findTransaction(db *gorm.DB, p access.Principal, id string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := db.Scopes(p.Scope(access.Transactions)).Where("id = ?", id).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// UpdateTransaction changes a transaction's fields. A new payee name is
// resolved the same way as on create, and so is the current payee's name when
// the new category belongs to another owner.
func (s *transactionService) UpdateTransaction(ctx context.Context, p access.Principal, id string, input TransactionUpdate) (*models.Transaction, error) {
	if input.Amount != nil && !models.ValidMoney(*input.Amount) {
		return nil, apperrors.WithField(apperrors.ErrInvalidInput, "amount", "amount must have at most 2 decimal places")
	}
	var payeeName string
	if input.Payee != nil {
		name, err := validatePayeeName(*input.Payee)
		if err != nil {
			return nil, apperrors.WithField(apperrors.ErrInvalidInput, "payee", err.Error())
		}
		payeeName = name
	}

	var transaction *models.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		transaction, err = findTransaction(tx, p, id)
		if err != nil {
			return err
		}

		categoryID := transaction.BudgetCategoryID
		if input.BudgetCategoryID != nil {
			categoryID = *input.BudgetCategoryID
		}
		category, err := findCategory(tx, p, categoryID)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{"budget_category_id": category.ID}
		if input.Amount != nil {
			updates["amount"] = input.Amount.Round(2)
		}
		if input.Date != nil {
			updates["date"] = input.Date.UTC()
		}

		// The payee must belong to the category's owner; an admin moving the
		// transaction into another user's budget takes the payee name along.
		ownerID, err := categoryOwner(tx, category)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if input.Payee == nil {
			var current models.Payee
			if err := tx.Where("id = ?", transaction.PayeeID).First(&current).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if current.OwnerID != ownerID {
				payeeName = current.Name
			}
		}
		if payeeName != "" {
			payee, _, err := getOrCreatePayee(tx, ownerID, payeeName)
			if err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			updates["payee_id"] = payee.ID
		}

		if err := tx.Model(transaction).Updates(updates).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Where("id = ?", transaction.ID).First(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

// DeleteTransaction removes a transaction.
func (s *transactionService) DeleteTransaction(ctx context.Context, p access.Principal, id string) error {
	db := s.db.WithContext(ctx)
	transaction, err := findTransaction(db, p, id)
	if err != nil {
		return err
	}
	if err := db.Delete(transaction).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

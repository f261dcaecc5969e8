package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"budgetapp/internal/access"
	apperrors "budgetapp/internal/errors"
	"budgetapp/internal/logger"
	"budgetapp/internal/models"
	"budgetapp/internal/pagination"
)

// budgetService handles budget-related business logic.
type budgetService struct {
	db         *gorm.DB
	categories CategoryServicer
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB) BudgetServicer {
	return &budgetService{db: db, categories: NewCategoryService(db)}
}

// CreateBudget creates the caller's budget for (month, year).
func (s *budgetService) CreateBudget(ctx context.Context, p access.Principal, month models.Month, year int) (*models.Budget, error) {
	if err := validatePeriod(month, year); err != nil {
		return nil, err
	}

	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.Budget{}).
		Where("owner_id = ? AND month = ? AND year = ?", p.UserID, month, year).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateBudget
	}

	budget := &models.Budget{OwnerID: p.UserID, Month: month, Year: year}
	if err := db.Create(budget).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, apperrors.ErrDuplicateBudget
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return budget, nil
}

// ListBudgets returns a page of the budgets visible to the caller.
func (s *budgetService) ListBudgets(
	ctx context.Context,
	p access.Principal,
	page pagination.PageRequest,
	filter BudgetFilter,
) (*pagination.PageResponse[models.Budget], error) {
	page.Defaults()

	base := s.db.WithContext(ctx).Model(&models.Budget{}).Scopes(p.Scope(access.Budgets))
	if filter.Month != nil {
		base = base.Where("month = ?", *filter.Month)
	}
	if filter.Year != nil {
		base = base.Where("year = ?", *filter.Year)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if err := base.Order("year DESC, created_at DESC").Scopes(pagination.Paginate(page)).Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(budgets, budgetKey, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func budgetKey(b models.Budget) string { return b.ID }

// GetBudgetByID returns a budget by ID if the caller may see it.
func (s *budgetService) GetBudgetByID(ctx context.Context, p access.Principal, id string) (*models.Budget, error) {
	return s.findBudget(s.db.WithContext(ctx), p, id)
}

func (s *budgetService) findBudget(db *gorm.DB, p access.Principal, id string) (*models.Budget, error) {
	var budget models.Budget
	if err := db.Scopes(p.Scope(access.Budgets)).Where("id = ?", id).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// UpdateBudget changes a budget's month and/or year.
func (s *budgetService) UpdateBudget(
	ctx context.Context,
	p access.Principal,
	id string,
	month *models.Month,
	year *int,
) (*models.Budget, error) {
	db := s.db.WithContext(ctx)
	budget, err := s.findBudget(db, p, id)
	if err != nil {
		return nil, err
	}

	newMonth, newYear := budget.Month, budget.Year
	if month != nil {
		newMonth = *month
	}
	if year != nil {
		newYear = *year
	}
	if err := validatePeriod(newMonth, newYear); err != nil {
		return nil, err
	}
	if newMonth == budget.Month && newYear == budget.Year {
		return budget, nil
	}

	var count int64
	if err := db.Model(&models.Budget{}).
		Where("owner_id = ? AND month = ? AND year = ? AND id <> ?", budget.OwnerID, newMonth, newYear, budget.ID).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateBudget
	}

	if err := db.Model(budget).Updates(map[string]interface{}{"month": newMonth, "year": newYear}).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, apperrors.ErrDuplicateBudget
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	budget.Month, budget.Year = newMonth, newYear
	return budget, nil
}

// DeleteBudget removes a budget with its groups, categories and their transactions.
func (s *budgetService) DeleteBudget(ctx context.Context, p access.Principal, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		budget, err := s.findBudget(tx, p, id)
		if err != nil {
			return err
		}
		if err := deleteBudgetsWhere(tx, "id = ?", budget.ID); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// ResolvePrevious returns the owner's budget for the calendar month before
// budget's, or nil when the owner has none.
func (s *budgetService) ResolvePrevious(ctx context.Context, budget *models.Budget) (*models.Budget, error) {
	prev, err := resolvePrevious(s.db.WithContext(ctx), budget)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return prev, nil
}

func resolvePrevious(db *gorm.DB, budget *models.Budget) (*models.Budget, error) {
	month, year := budget.PreviousPeriod()

	var prev models.Budget
	err := db.Where("owner_id = ? AND month = ? AND year = ?", budget.OwnerID, month, year).First(&prev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &prev, nil
}

// CopyBudget rolls a budget forward into the caller's (TargetMonth, TargetYear)
// budget, creating it when missing. Groups and categories of the source are
// merged in by name; categories already present keep their limits. When there
// is no source at all the target is emptied.
func (s *budgetService) CopyBudget(ctx context.Context, p access.Principal, input CopyBudgetInput) (*BudgetDetail, error) {
	if err := validatePeriod(input.TargetMonth, input.TargetYear); err != nil {
		return nil, err
	}

	var targetID string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var source *models.Budget
		if input.SourceID != "" {
			var explicit models.Budget
			if err := tx.Where("id = ?", input.SourceID).First(&explicit).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperrors.ErrBudgetNotFound
				}
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if explicit.OwnerID != p.UserID {
				return apperrors.ErrForbiddenSource
			}
			source = &explicit
		}

		target, _, err := getOrCreateBudget(tx, p.UserID, input.TargetMonth, input.TargetYear)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		targetID = target.ID

		if source == nil {
			source, err = resolvePrevious(tx, target)
			if err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}

		if source == nil {
			if err := deleteGroupsWhere(tx, "budget_id = ?", target.ID); err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			return nil
		}
		if source.ID == target.ID {
			return nil
		}
		if err := mergeBudget(tx, source, target); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Get().Debugw("budget copied", "target", targetID, "source", input.SourceID, "user_id", p.UserID)
	return s.GetBudgetDetail(ctx, p, targetID)
}

// mergeBudget copies source's groups and categories into target. Transactions
// are never copied.
func mergeBudget(tx *gorm.DB, source, target *models.Budget) error {
	var groups []models.BudgetCategoryGroup
	if err := tx.Preload("Categories").Where("budget_id = ?", source.ID).Order("created_at, id").Find(&groups).Error; err != nil {
		return err
	}

	for _, group := range groups {
		targetGroup, _, err := getOrCreateGroup(tx, target.ID, group.Name)
		if err != nil {
			return err
		}
		for _, category := range group.Categories {
			copied := &models.BudgetCategory{
				Category: category.Category,
				GroupID:  targetGroup.ID,
				BudgetID: target.ID,
				Limit:    category.Limit,
			}
			// Names are unique per budget, so an existing category wins
			// even when it sits in a different group.
			if _, err := getOrCreate(tx, copied, map[string]interface{}{
				"budget_id": target.ID,
				"category":  category.Category,
			}); err != nil {
				return err
			}
		}
	}
	return nil
}

// GetBudgetDetail returns a budget with its previous budget, groups,
// categories with spent totals, transactions and the owner's payees.
func (s *budgetService) GetBudgetDetail(ctx context.Context, p access.Principal, id string) (*BudgetDetail, error) {
	db := s.db.WithContext(ctx)
	budget, err := s.findBudget(db, p, id)
	if err != nil {
		return nil, err
	}

	detail := &BudgetDetail{Budget: *budget}

	prev, err := resolvePrevious(db, budget)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if prev != nil {
		detail.PreviousID = &prev.ID
	}

	if err := db.Preload("Categories", func(q *gorm.DB) *gorm.DB {
		return q.Order("created_at, id")
	}).Where("budget_id = ?", budget.ID).Order("created_at, id").Find(&detail.Groups).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := db.Where("budget_id = ?", budget.ID).Order("created_at, id").Find(&detail.Categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	ids := make([]string, 0, len(detail.Categories))
	for _, c := range detail.Categories {
		ids = append(ids, c.ID)
	}
	detail.Spent, err = s.categories.SpentByCategory(ctx, ids)
	if err != nil {
		return nil, err
	}

	if err := db.Where("budget_category_id IN (?)",
		db.Model(&models.BudgetCategory{}).Select("id").Where("budget_id = ?", budget.ID)).
		Order("date, created_at").Find(&detail.Transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := db.Where("owner_id = ?", budget.OwnerID).Order("name").Find(&detail.Payees).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return detail, nil
}

func validatePeriod(month models.Month, year int) error {
	if !month.Valid() {
		return apperrors.WithField(apperrors.ErrInvalidInput, "month", "month must be one of JAN..DEC")
	}
	if year < 1 || year > 9999 {
		return apperrors.WithField(apperrors.ErrInvalidInput, "year", "year must be between 1 and 9999")
	}
	return nil
}

package services

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"budgetapp/internal/access"
	apperrors "budgetapp/internal/errors"
	"budgetapp/internal/models"
	"budgetapp/internal/pagination"
)

// categoryService handles category-related business logic.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// CreateCategory creates a category in the caller's budget for
// (BudgetMonth, BudgetYear), under the named group. Budget and group are
// created when missing.
func (s *categoryService) CreateCategory(ctx context.Context, p access.Principal, input CategoryInput) (*models.BudgetCategory, error) {
	name := strings.TrimSpace(input.Category)
	groupName := strings.TrimSpace(input.Group)
	if name == "" {
		return nil, apperrors.WithField(apperrors.ErrInvalidInput, "category", "category name is required")
	}
	if groupName == "" {
		return nil, apperrors.WithField(apperrors.ErrInvalidInput, "group", "group name is required")
	}
	if err := validatePeriod(input.BudgetMonth, input.BudgetYear); err != nil {
		return nil, err
	}
	if !models.ValidMoney(input.Limit) {
		return nil, apperrors.WithField(apperrors.ErrInvalidInput, "limit", "limit must have at most 2 decimal places")
	}

	var category *models.BudgetCategory
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		budget, _, err := getOrCreateBudget(tx, p.UserID, input.BudgetMonth, input.BudgetYear)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := ensureCategoryNameFree(tx, budget.ID, name, ""); err != nil {
			return err
		}
		group, _, err := getOrCreateGroup(tx, budget.ID, groupName)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		category = &models.BudgetCategory{
			Category: name,
			GroupID:  group.ID,
			BudgetID: budget.ID,
			Limit:    input.Limit.Round(2),
		}
		if err := tx.Create(category).Error; err != nil {
			if isDuplicateKey(err) {
				return apperrors.ErrDuplicateCategory
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// ensureCategoryNameFree fails with DUPLICATE_CATEGORY when another category
// of the budget already uses name.
func ensureCategoryNameFree(tx *gorm.DB, budgetID, name, exceptID string) error {
	q := tx.Model(&models.BudgetCategory{}).Where("budget_id = ? AND category = ?", budgetID, name)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrDuplicateCategory
	}
	return nil
}

// ListCategories returns a page of the categories visible to the caller.
func (s *categoryService) ListCategories(
	ctx context.Context,
	p access.Principal,
	page pagination.PageRequest,
	filter CategoryFilter,
) (*pagination.PageResponse[models.BudgetCategory], error) {
	page.Defaults()

	base := s.db.WithContext(ctx).Model(&models.BudgetCategory{}).Scopes(p.Scope(access.Categories))
	if filter.BudgetID != "" {
		base = base.Where("budget_id = ?", filter.BudgetID)
	}
	if filter.GroupID != "" {
		base = base.Where("group_id = ?", filter.GroupID)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var categories []models.BudgetCategory
	if err := base.Order("created_at, id").Scopes(pagination.Paginate(page)).Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(categories, categoryKey, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func categoryKey(c models.BudgetCategory) string { return c.ID }

// GetCategoryByID returns a category by ID if the caller may see it.
func (s *categoryService) GetCategoryByID(ctx context.Context, p access.Principal, id string) (*models.BudgetCategory, error) {
	return findCategory(s.db.WithContext(ctx), p, id)
}

func findCategory(db *gorm.DB, p access.Principal, id string) (*models.BudgetCategory, error) {
	var category models.BudgetCategory
	if err := db.Scopes(p.Scope(access.Categories)).Where("id = ?", id).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// UpdateCategory renames, re-limits or moves a category. Missing fields keep
// the current value; budget and group are re-resolved the same way as on create.
func (s *categoryService) UpdateCategory(ctx context.Context, p access.Principal, id string, input CategoryUpdate) (*models.BudgetCategory, error) {
	if input.Limit != nil && !models.ValidMoney(*input.Limit) {
		return nil, apperrors.WithField(apperrors.ErrInvalidInput, "limit", "limit must have at most 2 decimal places")
	}

	var category *models.BudgetCategory
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		category, err = findCategory(tx, p, id)
		if err != nil {
			return err
		}

		var budget models.Budget
		if err := tx.Where("id = ?", category.BudgetID).First(&budget).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		var group models.BudgetCategoryGroup
		if err := tx.Where("id = ?", category.GroupID).First(&group).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		month, year := budget.Month, budget.Year
		name, groupName := category.Category, group.Name
		if input.BudgetMonth != nil {
			month = *input.BudgetMonth
		}
		if input.BudgetYear != nil {
			year = *input.BudgetYear
		}
		if input.Category != nil {
			name = strings.TrimSpace(*input.Category)
		}
		if input.Group != nil {
			groupName = strings.TrimSpace(*input.Group)
		}
		if name == "" {
			return apperrors.WithField(apperrors.ErrInvalidInput, "category", "category name is required")
		}
		if groupName == "" {
			return apperrors.WithField(apperrors.ErrInvalidInput, "group", "group name is required")
		}
		if err := validatePeriod(month, year); err != nil {
			return err
		}

		// The category stays with its budget's owner, even when an admin edits it.
		targetBudget, _, err := getOrCreateBudget(tx, budget.OwnerID, month, year)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := ensureCategoryNameFree(tx, targetBudget.ID, name, category.ID); err != nil {
			return err
		}
		targetGroup, _, err := getOrCreateGroup(tx, targetBudget.ID, groupName)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		updates := map[string]interface{}{
			"category":  name,
			"group_id":  targetGroup.ID,
			"budget_id": targetBudget.ID,
		}
		if input.Limit != nil {
			updates["limit"] = input.Limit.Round(2)
		}
		if err := tx.Model(category).Updates(updates).Error; err != nil {
			if isDuplicateKey(err) {
				return apperrors.ErrDuplicateCategory
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		category.Category = name
		category.GroupID = targetGroup.ID
		category.BudgetID = targetBudget.ID
		if input.Limit != nil {
			category.Limit = input.Limit.Round(2)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return category, nil
}

// DeleteCategory removes a category and its transactions.
func (s *categoryService) DeleteCategory(ctx context.Context, p access.Principal, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		category, err := findCategory(tx, p, id)
		if err != nil {
			return err
		}
		if err := deleteCategoriesWhere(tx, "id = ?", category.ID); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

// Spent returns the sum of the category's transaction amounts, zero when it has none.
func (s *categoryService) Spent(ctx context.Context, categoryID string) (decimal.Decimal, error) {
	var amounts []decimal.Decimal
	if err := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("budget_category_id = ?", categoryID).
		Pluck("amount", &amounts).Error; err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total.Round(2), nil
}

// SpentByCategory returns Spent for every id in categoryIDs with one query.
// Every requested id is present in the result.
func (s *categoryService) SpentByCategory(ctx context.Context, categoryIDs []string) (map[string]decimal.Decimal, error) {
	totals := make(map[string]decimal.Decimal, len(categoryIDs))
	for _, id := range categoryIDs {
		totals[id] = decimal.Zero
	}
	if len(categoryIDs) == 0 {
		return totals, nil
	}

	var rows []struct {
		BudgetCategoryID string
		Amount           decimal.Decimal
	}
	if err := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Select("budget_category_id, amount").
		Where("budget_category_id IN ?", categoryIDs).
		Find(&rows).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for _, row := range rows {
		totals[row.BudgetCategoryID] = totals[row.BudgetCategoryID].Add(row.Amount)
	}
	for id, total := range totals {
		totals[id] = total.Round(2)
	}
	return totals, nil
}

// GroupNames maps group ids to group names.
func (s *categoryService) GroupNames(ctx context.Context, groupIDs []string) (map[string]string, error) {
	names := make(map[string]string, len(groupIDs))
	if len(groupIDs) == 0 {
		return names, nil
	}

	var groups []models.BudgetCategoryGroup
	if err := s.db.WithContext(ctx).Select("id, name").Where("id IN ?", groupIDs).Find(&groups).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for _, g := range groups {
		names[g.ID] = g.Name
	}
	return names, nil
}

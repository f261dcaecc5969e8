package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"budgetapp/internal/access"
	apperrors "budgetapp/internal/errors"
	"budgetapp/internal/models"
	"budgetapp/internal/pagination"
)

// groupService handles category-group business logic.
type groupService struct {
	db *gorm.DB
}

// NewGroupService creates a new GroupServicer.
func NewGroupService(db *gorm.DB) GroupServicer {
	return &groupService{db: db}
}

// CreateGroup creates a named group in a budget the caller may see.
func (s *groupService) CreateGroup(ctx context.Context, p access.Principal, budgetID, name string) (*models.BudgetCategoryGroup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithField(apperrors.ErrInvalidInput, "name", "group name is required")
	}

	db := s.db.WithContext(ctx)
	if err := ensureBudgetVisible(db, p, budgetID); err != nil {
		return nil, err
	}
	if err := ensureGroupNameFree(db, budgetID, name, ""); err != nil {
		return nil, err
	}

	group := &models.BudgetCategoryGroup{Name: name, BudgetID: budgetID}
	if err := db.Create(group).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, apperrors.ErrDuplicateGroup
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return group, nil
}

func ensureBudgetVisible(db *gorm.DB, p access.Principal, budgetID string) error {
	var count int64
	if err := db.Model(&models.Budget{}).Scopes(p.Scope(access.Budgets)).Where("id = ?", budgetID).Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count == 0 {
		return apperrors.ErrBudgetNotFound
	}
	return nil
}

func ensureGroupNameFree(db *gorm.DB, budgetID, name, exceptID string) error {
	q := db.Model(&models.BudgetCategoryGroup{}).Where("budget_id = ? AND name = ?", budgetID, name)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrDuplicateGroup
	}
	return nil
}

// ListGroups returns a page of the groups visible to the caller, keyed by name.
// Groups of different budgets may share a name; filter by budget to avoid collisions.
func (s *groupService) ListGroups(
	ctx context.Context,
	p access.Principal,
	page pagination.PageRequest,
	filter GroupFilter,
) (*pagination.PageResponse[models.BudgetCategoryGroup], error) {
	page.Defaults()

	base := s.db.WithContext(ctx).Model(&models.BudgetCategoryGroup{}).Scopes(p.Scope(access.Groups))
	if filter.BudgetID != "" {
		base = base.Where("budget_id = ?", filter.BudgetID)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var groups []models.BudgetCategoryGroup
	if err := base.Preload("Categories", func(q *gorm.DB) *gorm.DB {
		return q.Order("created_at, id")
	}).Order("created_at, id").Scopes(pagination.Paginate(page)).Find(&groups).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(groups, groupKey, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func groupKey(g models.BudgetCategoryGroup) string { return g.Name }

// GetGroupByID returns a group with its categories if the caller may see it.
func (s *groupService) GetGroupByID(ctx context.Context, p access.Principal, id string) (*models.BudgetCategoryGroup, error) {
	return findGroup(s.db.WithContext(ctx), p, id)
}

func findGroup(db *gorm.DB, p access.Principal, id string) (*models.BudgetCategoryGroup, error) {
	var group models.BudgetCategoryGroup
	if err := db.Preload("Categories", func(q *gorm.DB) *gorm.DB {
		return q.Order("created_at, id")
	}).Scopes(p.Scope(access.Groups)).Where("id = ?", id).First(&group).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrGroupNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &group, nil
}

// UpdateGroup renames a group or moves it to another visible budget. Moving
// carries the group's categories along.
func (s *groupService) UpdateGroup(
	ctx context.Context,
	p access.Principal,
	id string,
	name, budgetID *string,
) (*models.BudgetCategoryGroup, error) {
	var group *models.BudgetCategoryGroup
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		group, err = findGroup(tx, p, id)
		if err != nil {
			return err
		}

		newName, newBudget := group.Name, group.BudgetID
		if name != nil {
			newName = strings.TrimSpace(*name)
		}
		if budgetID != nil {
			newBudget = *budgetID
		}
		if newName == "" {
			return apperrors.WithField(apperrors.ErrInvalidInput, "name", "group name is required")
		}
		if newName == group.Name && newBudget == group.BudgetID {
			return nil
		}

		if newBudget != group.BudgetID {
			if err := ensureBudgetVisible(tx, p, newBudget); err != nil {
				return err
			}
			for _, c := range group.Categories {
				if err := ensureCategoryNameFree(tx, newBudget, c.Category, ""); err != nil {
					return err
				}
			}
		}
		if err := ensureGroupNameFree(tx, newBudget, newName, group.ID); err != nil {
			return err
		}

		moving := newBudget != group.BudgetID
		if err := tx.Model(group).Updates(map[string]interface{}{"name": newName, "budget_id": newBudget}).Error; err != nil {
			if isDuplicateKey(err) {
				return apperrors.ErrDuplicateGroup
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if moving {
			if err := tx.Model(&models.BudgetCategory{}).Where("group_id = ?", group.ID).
				Update("budget_id", newBudget).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			for i := range group.Categories {
				group.Categories[i].BudgetID = newBudget
			}
		}
		group.Name, group.BudgetID = newName, newBudget
		return nil
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

// DeleteGroup removes a group, its categories and their transactions.
func (s *groupService) DeleteGroup(ctx context.Context, p access.Principal, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		group, err := findGroup(tx, p, id)
		if err != nil {
			return err
		}
		if err := deleteGroupsWhere(tx, "id = ?", group.ID); err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

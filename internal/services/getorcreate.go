package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"budgetapp/internal/models"
)

// getOrCreate loads the row matching where into row. When none exists it
// inserts row as given with ON CONFLICT DO NOTHING and re-reads, so concurrent
// callers racing on the same unique key all end up with the single winner.
// The bool reports whether this call inserted the row.
func getOrCreate[T any](tx *gorm.DB, row *T, where map[string]interface{}) (bool, error) {
	var existing T
	err := tx.Where(where).First(&existing).Error
	if err == nil {
		*row = existing
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 1 {
		return true, nil
	}

	// Lost the race: another writer inserted the same key.
	var winner T
	if err := tx.Where(where).First(&winner).Error; err != nil {
		return false, err
	}
	*row = winner
	return false, nil
}

// getOrCreateBudget returns the owner's budget for (month, year).
func getOrCreateBudget(tx *gorm.DB, ownerID string, month models.Month, year int) (*models.Budget, bool, error) {
	budget := &models.Budget{OwnerID: ownerID, Month: month, Year: year}
	created, err := getOrCreate(tx, budget, map[string]interface{}{
		"owner_id": ownerID,
		"month":    month,
		"year":     year,
	})
	return budget, created, err
}

// getOrCreateGroup returns the group named name in the budget.
func getOrCreateGroup(tx *gorm.DB, budgetID, name string) (*models.BudgetCategoryGroup, bool, error) {
	group := &models.BudgetCategoryGroup{BudgetID: budgetID, Name: name}
	created, err := getOrCreate(tx, group, map[string]interface{}{
		"budget_id": budgetID,
		"name":      name,
	})
	return group, created, err
}

// getOrCreatePayee returns the owner's payee called name.
func getOrCreatePayee(tx *gorm.DB, ownerID, name string) (*models.Payee, bool, error) {
	payee := &models.Payee{OwnerID: ownerID, Name: name}
	created, err := getOrCreate(tx, payee, map[string]interface{}{
		"owner_id": ownerID,
		"name":     name,
	})
	return payee, created, err
}

// isDuplicateKey reports whether err is a unique-constraint violation.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

package services

import (
	"gorm.io/gorm"

	"budgetapp/internal/models"
)

// The helpers below delete children before parents so the result is the same
// whether or not the store enforces ON DELETE CASCADE. Callers run them
// inside a transaction.

// deleteCategoriesWhere removes the matching categories and their transactions.
func deleteCategoriesWhere(tx *gorm.DB, query string, args ...interface{}) error {
	ids := tx.Model(&models.BudgetCategory{}).Select("id").Where(query, args...)
	if err := tx.Where("budget_category_id IN (?)", ids).Delete(&models.Transaction{}).Error; err != nil {
		return err
	}
	return tx.Where(query, args...).Delete(&models.BudgetCategory{}).Error
}

// deleteGroupsWhere removes the matching groups, their categories and transactions.
func deleteGroupsWhere(tx *gorm.DB, query string, args ...interface{}) error {
	ids := tx.Model(&models.BudgetCategoryGroup{}).Select("id").Where(query, args...)
	if err := deleteCategoriesWhere(tx, "group_id IN (?)", ids); err != nil {
		return err
	}
	return tx.Where(query, args...).Delete(&models.BudgetCategoryGroup{}).Error
}

// deleteBudgetsWhere removes the matching budgets and everything under them.
func deleteBudgetsWhere(tx *gorm.DB, query string, args ...interface{}) error {
	ids := tx.Model(&models.Budget{}).Select("id").Where(query, args...)
	if err := deleteGroupsWhere(tx, "budget_id IN (?)", ids); err != nil {
		return err
	}
	return tx.Where(query, args...).Delete(&models.Budget{}).Error
}

// deletePayeesWhere removes the matching payees and their transactions.
func deletePayeesWhere(tx *gorm.DB, query string, args ...interface{}) error {
	ids := tx.Model(&models.Payee{}).Select("id").Where(query, args...)
	if err := tx.Where("payee_id IN (?)", ids).Delete(&models.Transaction{}).Error; err != nil {
		return err
	}
	return tx.Where(query, args...).Delete(&models.Payee{}).Error
}

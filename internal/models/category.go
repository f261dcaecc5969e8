package models

import "github.com/shopspring/decimal"

// BudgetCategory is a named spending bucket with a limit. BudgetID mirrors
// Group.BudgetID so the category name can be unique per budget.
type BudgetCategory struct {
	Base
	Category string          `gorm:"column:category;size:100;not null;uniqueIndex:uq_categories_budget_category" json:"category"`
	GroupID  string          `gorm:"type:varchar(36);not null;index" json:"group"`
	BudgetID string          `gorm:"type:varchar(36);not null;uniqueIndex:uq_categories_budget_category" json:"budget"`
	Limit    decimal.Decimal `gorm:"column:limit;type:numeric(20,2);not null;default:0" json:"limit"`

	// Relationships
	Transactions []Transaction `gorm:"foreignKey:BudgetCategoryID;constraint:OnDelete:CASCADE" json:"-"`
}

package models

// BudgetCategoryGroup is a named grouping of categories within one budget.
// Its owner is the owner of its budget.
type BudgetCategoryGroup struct {
	Base
	Name     string `gorm:"size:100;not null;uniqueIndex:uq_groups_name_budget" json:"name"`
	BudgetID string `gorm:"type:varchar(36);not null;uniqueIndex:uq_groups_name_budget" json:"budget"`

	// Relationships
	Categories []BudgetCategory `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"-"`
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single spend recorded against a budget category.
// Its owner is derived through category -> group -> budget.
type Transaction struct {
	Base
	Amount           decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"amount"`
	PayeeID          string          `gorm:"type:varchar(36);not null;index" json:"payee"`
	BudgetCategoryID string          `gorm:"type:varchar(36);not null;index" json:"budget_category"`
	Date             time.Time       `gorm:"not null;index" json:"date"`
}

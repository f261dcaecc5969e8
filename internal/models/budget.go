package models

import "fmt"

// Budget is a user's spending plan for one (month, year) pair.
type Budget struct {
	Base
	OwnerID string `gorm:"type:varchar(36);not null;uniqueIndex:uq_budgets_owner_month_year" json:"owner"`
	Month   Month  `gorm:"size:3;not null;uniqueIndex:uq_budgets_owner_month_year" json:"month"`
	Year    int    `gorm:"not null;uniqueIndex:uq_budgets_owner_month_year" json:"year"`

	// Relationships
	Groups []BudgetCategoryGroup `gorm:"foreignKey:BudgetID;constraint:OnDelete:CASCADE" json:"-"`
}

// PreviousPeriod returns the month and year of the calendar month before this budget's.
func (b *Budget) PreviousPeriod() (Month, int) {
	idx, year := PreviousMonth(b.Month.Index(), b.Year)
	month, _ := MonthFromIndex(idx)
	return month, year
}

func (b *Budget) String() string {
	return fmt.Sprintf("%s %d budget [owner=%s]", b.Month, b.Year, b.OwnerID)
}

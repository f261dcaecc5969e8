// Package access holds the ownership policy shared by every service:
// a caller sees a row only when it owns the row, directly or through its parents,
// or when it is an administrator.
package access

import "gorm.io/gorm"

// Resource identifies a table whose rows are owner-scoped.
type Resource int

const (
	Users Resource = iota
	Budgets
	Groups
	Categories
	Transactions
	Payees
)

// transactionOwner resolves a transaction's owner through its category's budget.
const transactionOwner = "transactions.budget_category_id IN (SELECT bc.id FROM budget_categories bc " +
	"JOIN budgets b ON b.id = bc.budget_id WHERE b.owner_id = ?)"

// Owner filters, keyed by resource. Derived owners are resolved through
// subqueries so the scope composes with any other clause on the query.
var ownerFilters = map[Resource]string{
	Users:        "users.id = ?",
	Budgets:      "budgets.owner_id = ?",
	Groups:       "budget_category_groups.budget_id IN (SELECT id FROM budgets WHERE owner_id = ?)",
	Categories:   "budget_categories.budget_id IN (SELECT id FROM budgets WHERE owner_id = ?)",
	Transactions: transactionOwner,
	Payees:       "payees.owner_id = ?",
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// Scope returns a GORM scope restricting r to rows visible to p.
// Administrators see every row.
func (p Principal) Scope(r Resource) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if p.IsAdmin {
			return db
		}
		filter, ok := ownerFilters[r]
		if !ok {
			// Unknown resources are never visible.
			return db.Where("1 = 0")
		}
		return db.Where(filter, p.UserID)
	}
}

// Owns reports whether p may act on a row owned by ownerID.
func (p Principal) Owns(ownerID string) bool {
	return p.IsAdmin || (p.UserID != "" && p.UserID == ownerID)
}

// Anonymous reports whether p carries no identity.
func (p Principal) Anonymous() bool {
	return p.UserID == ""
}

package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"budgetapp/internal/access"
	"budgetapp/internal/models"
	"budgetapp/internal/pagination"
)

// UpdateUserInput holds the optional fields of a user update.
type UpdateUserInput struct {
	Username *string
	Email    *string
	Password *string
}

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(ctx context.Context, username, email, password string) (*models.User, error)
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	GetUserByID(ctx context.Context, p access.Principal, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context, p access.Principal, page pagination.PageRequest) (*pagination.PageResponse[models.User], error)
	UpdateUser(ctx context.Context, p access.Principal, id string, input UpdateUserInput) (*models.User, error)
	DeleteUser(ctx context.Context, p access.Principal, id string) error
	SetAdmin(ctx context.Context, username string, isAdmin bool) (*models.User, error)
}

// BudgetFilter holds optional filter parameters for listing budgets.
type BudgetFilter struct {
	Month *models.Month
	Year  *int
}

// CopyBudgetInput describes a rollover into (TargetMonth, TargetYear).
// An empty SourceID copies from the previous calendar month's budget.
type CopyBudgetInput struct {
	SourceID    string
	TargetMonth models.Month
	TargetYear  int
}

// BudgetDetail is a budget with everything nested under it.
type BudgetDetail struct {
	Budget       models.Budget
	PreviousID   *string
	Groups       []models.BudgetCategoryGroup
	Categories   []models.BudgetCategory
	Spent        map[string]decimal.Decimal
	Transactions []models.Transaction
	Payees       []models.Payee
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	CreateBudget(ctx context.Context, p access.Principal, month models.Month, year int) (*models.Budget, error)
	ListBudgets(ctx context.Context, p access.Principal, page pagination.PageRequest, filter BudgetFilter) (*pagination.PageResponse[models.Budget], error)
	GetBudgetByID(ctx context.Context, p access.Principal, id string) (*models.Budget, error)
	GetBudgetDetail(ctx context.Context, p access.Principal, id string) (*BudgetDetail, error)
	UpdateBudget(ctx context.Context, p access.Principal, id string, month *models.Month, year *int) (*models.Budget, error)
	DeleteBudget(ctx context.Context, p access.Principal, id string) error
	ResolvePrevious(ctx context.Context, budget *models.Budget) (*models.Budget, error)
	CopyBudget(ctx context.Context, p access.Principal, input CopyBudgetInput) (*BudgetDetail, error)
}

// GroupFilter holds optional filter parameters for listing category groups.
type GroupFilter struct {
	BudgetID string
}

// GroupServicer defines the contract for category-group business logic.
type GroupServicer interface {
	CreateGroup(ctx context.Context, p access.Principal, budgetID, name string) (*models.BudgetCategoryGroup, error)
	ListGroups(ctx context.Context, p access.Principal, page pagination.PageRequest, filter GroupFilter) (*pagination.PageResponse[models.BudgetCategoryGroup], error)
	GetGroupByID(ctx context.Context, p access.Principal, id string) (*models.BudgetCategoryGroup, error)
	UpdateGroup(ctx context.Context, p access.Principal, id string, name, budgetID *string) (*models.BudgetCategoryGroup, error)
	DeleteGroup(ctx context.Context, p access.Principal, id string) error
}

// CategoryInput creates a category under the caller's (BudgetMonth, BudgetYear)
// budget and the named group, creating either when missing.
type CategoryInput struct {
	BudgetMonth models.Month
	BudgetYear  int
	Category    string
	Group       string
	Limit       decimal.Decimal
}

// CategoryUpdate holds the optional fields of a category update. Missing
// fields keep the category's current value.
type CategoryUpdate struct {
	BudgetMonth *models.Month
	BudgetYear  *int
	Category    *string
	Group       *string
	Limit       *decimal.Decimal
}

// CategoryFilter holds optional filter parameters for listing categories.
type CategoryFilter struct {
	BudgetID string
	GroupID  string
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(ctx context.Context, p access.Principal, input CategoryInput) (*models.BudgetCategory, error)
	ListCategories(ctx context.Context, p access.Principal, page pagination.PageRequest, filter CategoryFilter) (*pagination.PageResponse[models.BudgetCategory], error)
	GetCategoryByID(ctx context.Context, p access.Principal, id string) (*models.BudgetCategory, error)
	UpdateCategory(ctx context.Context, p access.Principal, id string, input CategoryUpdate) (*models.BudgetCategory, error)
	DeleteCategory(ctx context.Context, p access.Principal, id string) error
	Spent(ctx context.Context, categoryID string) (decimal.Decimal, error)
	SpentByCategory(ctx context.Context, categoryIDs []string) (map[string]decimal.Decimal, error)
	GroupNames(ctx context.Context, groupIDs []string) (map[string]string, error)
}

// PayeeServicer defines the contract for payee-related business logic.
type PayeeServicer interface {
	CreatePayee(ctx context.Context, p access.Principal, name string) (*models.Payee, error)
	ListPayees(ctx context.Context, p access.Principal, page pagination.PageRequest) (*pagination.PageResponse[models.Payee], error)
	GetPayeeByID(ctx context.Context, p access.Principal, id string) (*models.Payee, error)
	UpdatePayee(ctx context.Context, p access.Principal, id, name string) (*models.Payee, error)
	DeletePayee(ctx context.Context, p access.Principal, id string) error
	PayeeNames(ctx context.Context, payeeIDs []string) (map[string]string, error)
}

// TransactionInput records a spend. Payee is a name; the payee is created when missing.
type TransactionInput struct {
	Amount           decimal.Decimal
	Payee            string
	BudgetCategoryID string
	Date             time.Time
}

// TransactionUpdate holds the optional fields of a transaction update.
type TransactionUpdate struct {
	Amount           *decimal.Decimal
	Payee            *string
	BudgetCategoryID *string
	Date             *time.Time
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	BudgetID         string
	BudgetCategoryID string
	PayeeID          string
	FromDate         *time.Time
	ToDate           *time.Time
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(ctx context.Context, p access.Principal, input TransactionInput) (*models.Transaction, error)
	ListTransactions(ctx context.Context, p access.Principal, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(ctx context.Context, p access.Principal, id string) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, p access.Principal, id string, input TransactionUpdate) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, p access.Principal, id string) error
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]interface{})
}

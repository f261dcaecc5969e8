package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"budgetapp/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the plain-text password of every fixture user.
const TestPassword = "password123"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique username.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return CreateTestUserWithUsername(t, db, fmt.Sprintf("user%d", nextID()))
}

// CreateTestUserWithUsername creates a user with the given username.
func CreateTestUserWithUsername(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Username: username,
		Email:    username + "@test.com",
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestAdmin creates a user with the admin flag set.
func CreateTestAdmin(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	user := CreateTestUser(t, db)
	if err := db.Model(user).Update("is_admin", true).Error; err != nil {
		t.Fatalf("failed to promote test user: %v", err)
	}
	user.IsAdmin = true
	return user
}

// CreateTestBudget creates a budget for the given owner and period.
func CreateTestBudget(t *testing.T, db *gorm.DB, ownerID string, month models.Month, year int) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		OwnerID: ownerID,
		Month:   month,
		Year:    year,
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestGroup creates a category group in the given budget.
func CreateTestGroup(t *testing.T, db *gorm.DB, budgetID, name string) *models.BudgetCategoryGroup {
	t.Helper()

	group := &models.BudgetCategoryGroup{
		Name:     name,
		BudgetID: budgetID,
	}
	if err := db.Create(group).Error; err != nil {
		t.Fatalf("failed to create test group: %v", err)
	}
	return group
}

// CreateTestCategory creates a category in the given group with the given limit.
func CreateTestCategory(t *testing.T, db *gorm.DB, group *models.BudgetCategoryGroup, name, limit string) *models.BudgetCategory {
	t.Helper()

	category := &models.BudgetCategory{
		Category: name,
		GroupID:  group.ID,
		BudgetID: group.BudgetID,
		Limit:    decimal.RequireFromString(limit),
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestPayee creates a payee with a unique name for the given owner.
func CreateTestPayee(t *testing.T, db *gorm.DB, ownerID string) *models.Payee {
	t.Helper()

	payee := &models.Payee{
		Name:    fmt.Sprintf("Payee %d", nextID()),
		OwnerID: ownerID,
	}
	if err := db.Create(payee).Error; err != nil {
		t.Fatalf("failed to create test payee: %v", err)
	}
	return payee
}

// CreateTestTransaction records a transaction of the given amount against a category.
func CreateTestTransaction(t *testing.T, db *gorm.DB, categoryID, payeeID, amount string) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		Amount:           decimal.RequireFromString(amount),
		PayeeID:          payeeID,
		BudgetCategoryID: categoryID,
		Date:             time.Now().UTC().Truncate(time.Second),
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

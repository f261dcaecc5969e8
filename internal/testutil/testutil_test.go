package testutil_test

import (
	"testing"

	"budgetapp/internal/errors"
	"budgetapp/internal/models"
	"budgetapp/internal/testutil"
)

func TestSetupTestDB(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	// Verify all tables exist by doing a simple count query on each model.
	var count int64
	for _, table := range []string{"users", "budgets", "budget_category_groups", "budget_categories", "payees", "transactions", "audit_logs"} {
		if err := db.Table(table).Count(&count).Error; err != nil {
			t.Errorf("table %q should exist after migration: %v", table, err)
		}
	}
}

func TestSetupTestDBIsolated(t *testing.T) {
	first := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, first)
	second := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, second)

	testutil.CreateTestUser(t, first)

	var count int64
	second.Model(&models.User{}).Count(&count)
	if count != 0 {
		t.Errorf("expected isolated database, found %d users", count)
	}
}

func TestFixtures(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	user := testutil.CreateTestUser(t, db)
	if user.ID == "" {
		t.Fatal("user should have a non-empty ID")
	}

	budget := testutil.CreateTestBudget(t, db, user.ID, models.MonthMarch, 2024)
	if budget.OwnerID != user.ID {
		t.Errorf("expected owner %s, got %s", user.ID, budget.OwnerID)
	}

	group := testutil.CreateTestGroup(t, db, budget.ID, "Living")
	category := testutil.CreateTestCategory(t, db, group, "Rent", "1000.00")
	if category.BudgetID != budget.ID {
		t.Errorf("expected category budget %s, got %s", budget.ID, category.BudgetID)
	}
	if category.Limit.StringFixed(2) != "1000.00" {
		t.Errorf("expected limit 1000.00, got %s", category.Limit.StringFixed(2))
	}

	payee := testutil.CreateTestPayee(t, db, user.ID)
	tx := testutil.CreateTestTransaction(t, db, category.ID, payee.ID, "12.34")
	if tx.Amount.StringFixed(2) != "12.34" {
		t.Errorf("expected amount 12.34, got %s", tx.Amount.StringFixed(2))
	}

	admin := testutil.CreateTestAdmin(t, db)
	var stored models.User
	db.First(&stored, "id = ?", admin.ID)
	if !stored.IsAdmin {
		t.Error("expected admin flag to be persisted")
	}
}

func TestAssertAppError(t *testing.T) {
	err := errors.WithMessage(errors.ErrBudgetNotFound, "custom message")
	testutil.AssertAppError(t, err, "BUDGET_NOT_FOUND")
}

func TestAssertNoError(t *testing.T) {
	testutil.AssertNoError(t, nil)
}

package access_test

import (
	"testing"

	"budgetapp/internal/access"
	"budgetapp/internal/models"
	"budgetapp/internal/testutil"
)

func TestPrincipalScope(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	alice := testutil.CreateTestUser(t, db)
	bob := testutil.CreateTestUser(t, db)

	aliceBudget := testutil.CreateTestBudget(t, db, alice.ID, models.MonthJanuary, 2024)
	bobBudget := testutil.CreateTestBudget(t, db, bob.ID, models.MonthJanuary, 2024)
	aliceGroup := testutil.CreateTestGroup(t, db, aliceBudget.ID, "Living")
	bobGroup := testutil.CreateTestGroup(t, db, bobBudget.ID, "Living")
	aliceCategory := testutil.CreateTestCategory(t, db, aliceGroup, "Rent", "1000.00")
	bobCategory := testutil.CreateTestCategory(t, db, bobGroup, "Rent", "900.00")
	alicePayee := testutil.CreateTestPayee(t, db, alice.ID)
	bobPayee := testutil.CreateTestPayee(t, db, bob.ID)
	testutil.CreateTestTransaction(t, db, aliceCategory.ID, alicePayee.ID, "10.00")
	testutil.CreateTestTransaction(t, db, bobCategory.ID, bobPayee.ID, "20.00")

	tests := []struct {
		name     string
		model    interface{}
		resource access.Resource
	}{
		{"users", &models.User{}, access.Users},
		{"budgets", &models.Budget{}, access.Budgets},
		{"groups", &models.BudgetCategoryGroup{}, access.Groups},
		{"categories", &models.BudgetCategory{}, access.Categories},
		{"transactions", &models.Transaction{}, access.Transactions},
		{"payees", &models.Payee{}, access.Payees},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner := access.Principal{UserID: alice.ID}
			var count int64
			if err := db.Model(tt.model).Scopes(owner.Scope(tt.resource)).Count(&count).Error; err != nil {
				t.Fatalf("count failed: %v", err)
			}
			if count != 1 {
				t.Errorf("owner should see exactly 1 row, got %d", count)
			}

			admin := access.Principal{UserID: alice.ID, IsAdmin: true}
			if err := db.Model(tt.model).Scopes(admin.Scope(tt.resource)).Count(&count).Error; err != nil {
				t.Fatalf("count failed: %v", err)
			}
			if count != 2 {
				t.Errorf("admin should see every row, got %d", count)
			}

			stranger := access.Principal{UserID: "unknown"}
			if err := db.Model(tt.model).Scopes(stranger.Scope(tt.resource)).Count(&count).Error; err != nil {
				t.Fatalf("count failed: %v", err)
			}
			if count != 0 {
				t.Errorf("stranger should see nothing, got %d", count)
			}
		})
	}
}

func TestPrincipalOwns(t *testing.T) {
	if !(access.Principal{UserID: "a"}).Owns("a") {
		t.Error("owner should own its row")
	}
	if (access.Principal{UserID: "a"}).Owns("b") {
		t.Error("non-owner should not own the row")
	}
	if !(access.Principal{UserID: "a", IsAdmin: true}).Owns("b") {
		t.Error("admin should own every row")
	}
	if (access.Principal{}).Owns("") {
		t.Error("anonymous principal should own nothing")
	}
	if !(access.Principal{}).Anonymous() {
		t.Error("empty principal should be anonymous")
	}
}

package services

import (
	"context"
	"strings"
	"testing"

	"budgetapp/internal/models"
	"budgetapp/internal/pagination"
	"budgetapp/internal/testutil"
)

func TestCreatePayee(t *testing.T) {
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPayeeService(db)
		user := testutil.CreateTestUser(t, db)

		payee, err := svc.CreatePayee(ctx, principalFor(user), "Landlord")
		testutil.AssertNoError(t, err)
		if payee.Name != "Landlord" || payee.OwnerID != user.ID {
			t.Errorf("unexpected payee %+v", payee)
		}
	})

	t.Run("duplicate_for_same_owner", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPayeeService(db)
		alice := testutil.CreateTestUser(t, db)
		bob := testutil.CreateTestUser(t, db)

		_, err := svc.CreatePayee(ctx, principalFor(alice), "Landlord")
		testutil.AssertNoError(t, err)
		_, err = svc.CreatePayee(ctx, principalFor(bob), "Landlord")
		testutil.AssertNoError(t, err)
		_, err = svc.CreatePayee(ctx, principalFor(alice), "Landlord")
		testutil.AssertAppError(t, err, "DUPLICATE_PAYEE")
	})

	t.Run("name_too_long", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewPayeeService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreatePayee(ctx, principalFor(user), strings.Repeat("x", 31))
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestListPayees(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewPayeeService(db)
	alice := testutil.CreateTestUser(t, db)
	bob := testutil.CreateTestUser(t, db)
	mine := testutil.CreateTestPayee(t, db, alice.ID)
	testutil.CreateTestPayee(t, db, bob.ID)

	result, err := svc.ListPayees(ctx, principalFor(alice), pagination.PageRequest{})
	testutil.AssertNoError(t, err)
	if result.TotalItems != 1 {
		t.Fatalf("expected 1 payee, got %d", result.TotalItems)
	}
	if _, ok := result.Data[mine.ID]; !ok {
		t.Error("expected own payee keyed by id")
	}
}

func TestUpdatePayee(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewPayeeService(db)
	user := testutil.CreateTestUser(t, db)
	payee := testutil.CreateTestPayee(t, db, user.ID)
	other := testutil.CreateTestPayee(t, db, user.ID)

	updated, err := svc.UpdatePayee(ctx, principalFor(user), payee.ID, "Grocer")
	testutil.AssertNoError(t, err)
	if updated.Name != "Grocer" {
		t.Errorf("expected Grocer, got %s", updated.Name)
	}

	_, err = svc.UpdatePayee(ctx, principalFor(user), other.ID, "Grocer")
	testutil.AssertAppError(t, err, "DUPLICATE_PAYEE")
}

func TestDeletePayeeCascades(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewPayeeService(db)
	user := testutil.CreateTestUser(t, db)
	budget := testutil.CreateTestBudget(t, db, user.ID, models.MonthJanuary, 2024)
	category := testutil.CreateTestCategory(t, db, testutil.CreateTestGroup(t, db, budget.ID, "Living"), "Rent", "1000.00")
	payee := testutil.CreateTestPayee(t, db, user.ID)
	keep := testutil.CreateTestPayee(t, db, user.ID)
	testutil.CreateTestTransaction(t, db, category.ID, payee.ID, "10.00")
	testutil.CreateTestTransaction(t, db, category.ID, keep.ID, "20.00")

	testutil.AssertNoError(t, svc.DeletePayee(ctx, principalFor(user), payee.ID))

	if n := countRows(t, db, &models.Transaction{}, ""); n != 1 {
		t.Errorf("expected only the other payee's transaction to remain, found %d", n)
	}

	_, err := svc.GetPayeeByID(ctx, principalFor(user), payee.ID)
	testutil.AssertAppError(t, err, "PAYEE_NOT_FOUND")
}

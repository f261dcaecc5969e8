package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"gorm.io/gorm"

	"budgetapp/internal/logger"
	"budgetapp/internal/models"
	"budgetapp/internal/testutil"
)

func init() {
	logger.Init("test")
}

func execute(t *testing.T, db *gorm.DB, args ...string) (string, error) {
	t.Helper()
	open := func(context.Context) (*gorm.DB, func(), error) { return db, func() {}, nil }
	cmd := newRootCmd(open)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestUserPromoteAndDemote(t *testing.T) {
	db := testutil.SetupTestDB(t)
	user := testutil.CreateTestUserWithUsername(t, db, "alice")

	out, err := execute(t, db, "user", "promote", "alice")
	testutil.AssertNoError(t, err)
	if !strings.Contains(out, "alice is_admin=true") {
		t.Errorf("unexpected output %q", out)
	}

	var stored models.User
	testutil.AssertNoError(t, db.First(&stored, "id = ?", user.ID).Error)
	if !stored.IsAdmin {
		t.Fatal("expected user to be admin after promote")
	}

	_, err = execute(t, db, "user", "demote", "alice")
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, db.First(&stored, "id = ?", user.ID).Error)
	if stored.IsAdmin {
		t.Fatal("expected user not to be admin after demote")
	}
}

func TestUserPromoteUnknown(t *testing.T) {
	db := testutil.SetupTestDB(t)

	_, err := execute(t, db, "user", "promote", "nobody")
	testutil.AssertAppError(t, err, "USER_NOT_FOUND")
}

func TestBudgetCopyFromPreviousMonth(t *testing.T) {
	db := testutil.SetupTestDB(t)
	user := testutil.CreateTestUserWithUsername(t, db, "bob")
	jan := testutil.CreateTestBudget(t, db, user.ID, models.MonthJanuary, 2024)
	group := testutil.CreateTestGroup(t, db, jan.ID, "Bills")
	testutil.CreateTestCategory(t, db, group, "Rent", "1000.00")

	out, err := execute(t, db, "budget", "copy", "--user", "bob", "--month", "feb", "--year", "2024")
	testutil.AssertNoError(t, err)
	if !strings.Contains(out, "FEB 2024: 1 groups, 1 categories") {
		t.Errorf("unexpected output %q", out)
	}
	if !strings.Contains(out, "previous "+jan.ID) {
		t.Errorf("expected previous budget in output, got %q", out)
	}

	var count int64
	testutil.AssertNoError(t, db.Model(&models.Budget{}).
		Where("owner_id = ? AND month = ? AND year = ?", user.ID, models.MonthFebruary, 2024).
		Count(&count).Error)
	if count != 1 {
		t.Fatalf("expected one FEB budget, got %d", count)
	}
}

func TestBudgetCopyRejectsBadInput(t *testing.T) {
	db := testutil.SetupTestDB(t)
	testutil.CreateTestUserWithUsername(t, db, "carol")

	tests := []struct {
		name string
		args []string
	}{
		{"unknown month", []string{"budget", "copy", "--user", "carol", "--month", "XYZ", "--year", "2024"}},
		{"missing year", []string{"budget", "copy", "--user", "carol", "--month", "JAN"}},
		{"unknown user", []string{"budget", "copy", "--user", "dave", "--month", "JAN", "--year", "2024"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, db, tt.args...); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

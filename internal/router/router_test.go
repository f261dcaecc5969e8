package router

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"budgetapp/internal/config"
	"budgetapp/internal/logger"
	"budgetapp/internal/models"
	"budgetapp/internal/testutil"
	"budgetapp/internal/validator"
)

// testApp holds the full application stack for flow tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	config.Set(&config.Config{JWTSecret: "flow-secret", CookieName: "Token"})
	validator.Register()
}

// setupApp creates the full router backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return &testApp{DB: db, Router: New(Deps{DB: db, CORSOrigin: "*"})}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// mustStatus fails the test unless rec has the wanted status.
func mustStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) map[string]interface{} {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("expected %d, got %d: %s", want, rec.Code, rec.Body.String())
	}
	if rec.Body.Len() == 0 {
		return nil
	}
	return parseJSON(t, rec)
}

func errorCode(result map[string]interface{}) interface{} {
	if e, ok := result["error"].(map[string]interface{}); ok {
		return e["code"]
	}
	return nil
}

// registerUser registers a new user and returns its token and id.
func (app *testApp) registerUser(t *testing.T, username string) (token, userID string) {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"password":"password123"}`, username)
	result := mustStatus(t, app.request("POST", "/api/v1/auth/register", body, ""), http.StatusCreated)
	user := result["user"].(map[string]interface{})
	return result["token"].(string), user["id"].(string)
}

func (app *testApp) login(t *testing.T, username string) string {
	t.Helper()
	body := fmt.Sprintf(`{"username":%q,"password":"password123"}`, username)
	result := mustStatus(t, app.request("POST", "/api/v1/auth/token", body, ""), http.StatusOK)
	return result["token"].(string)
}

// createCategory creates a category and returns (categoryID, budgetID).
func (app *testApp) createCategory(t *testing.T, token, month string, year int, group, name, limit string) (string, string) {
	t.Helper()
	body := fmt.Sprintf(`{"budget_month":%q,"budget_year":%d,"category":%q,"group":%q,"limit":%q}`,
		month, year, name, group, limit)
	result := mustStatus(t, app.request("POST", "/api/v1/budget-categories", body, token), http.StatusCreated)
	cat := result["budget_category"].(map[string]interface{})
	return cat["id"].(string), cat["budget"].(string)
}

func (app *testApp) spend(t *testing.T, token, categoryID, payee, amount, date string) {
	t.Helper()
	body := fmt.Sprintf(`{"amount":%q,"payee":%q,"budget_category":%q,"date":%q}`, amount, payee, categoryID, date)
	mustStatus(t, app.request("POST", "/api/v1/transactions", body, token), http.StatusCreated)
}

func TestHealthAndPreflight(t *testing.T) {
	app := setupApp(t)

	result := mustStatus(t, app.request("GET", "/api/health", "", ""), http.StatusOK)
	if result["status"] != "ok" {
		t.Errorf("expected ok, got %v", result["status"])
	}

	rec := app.request("OPTIONS", "/api/v1/budgets", "", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 preflight, got %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("expected wildcard origin, got %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
}

func TestBudgetFlow_SpendAndCopy(t *testing.T) {
	app := setupApp(t)
	token, userID := app.registerUser(t, "alice")

	// Creating a category creates the January budget and its group on the fly.
	rentID, janID := app.createCategory(t, token, "JAN", 2024, "Living", "Rent", "1000.00")
	app.spend(t, token, rentID, "Landlord", "10.00", "2024-01-05")
	app.spend(t, token, rentID, "Landlord", "5.50", "2024-01-20")

	result := mustStatus(t, app.request("GET", "/api/v1/budgets/"+janID, "", token), http.StatusOK)
	jan := result["budget"].(map[string]interface{})
	if jan["owner"] != userID || jan["month"] != "JAN" {
		t.Errorf("unexpected budget %v", jan)
	}
	if jan["previous"] != nil {
		t.Errorf("expected no previous budget, got %v", jan["previous"])
	}
	rent := jan["budget_categories"].(map[string]interface{})[rentID].(map[string]interface{})
	if rent["spent"] != "15.50" || rent["limit"] != "1000.00" {
		t.Errorf("expected spent 15.50 of 1000.00, got %v of %v", rent["spent"], rent["limit"])
	}
	if _, ok := jan["budget_category_groups"].(map[string]interface{})["Living"]; !ok {
		t.Error("expected Living group keyed by name")
	}
	if n := len(jan["payees"].(map[string]interface{})); n != 1 {
		t.Errorf("expected the payee to be reused, got %d payees", n)
	}
	if n := len(jan["transactions"].(map[string]interface{})); n != 2 {
		t.Errorf("expected 2 transactions, got %d", n)
	}

	// Roll January into February.
	copyBody := fmt.Sprintf(`{"source":%q,"target_month":"FEB","target_year":2024}`, janID)
	result = mustStatus(t, app.request("POST", "/api/v1/budgets/copy", copyBody, token), http.StatusOK)
	feb := result["budget"].(map[string]interface{})
	febID := feb["id"].(string)
	if feb["previous"] != janID {
		t.Errorf("expected previous %s, got %v", janID, feb["previous"])
	}
	cats := feb["budget_categories"].(map[string]interface{})
	if len(cats) != 1 {
		t.Fatalf("expected one copied category, got %d", len(cats))
	}
	for _, v := range cats {
		c := v.(map[string]interface{})
		if c["category"] != "Rent" || c["group"] != "Living" || c["limit"] != "1000.00" || c["spent"] != "0.00" {
			t.Errorf("unexpected copied category %v", c)
		}
	}
	if n := len(feb["transactions"].(map[string]interface{})); n != 0 {
		t.Errorf("transactions must not be copied, got %d", n)
	}

	// Copying again converges on the same rows.
	result = mustStatus(t, app.request("POST", "/api/v1/budgets/copy", copyBody, token), http.StatusOK)
	again := result["budget"].(map[string]interface{})
	if again["id"] != febID || len(again["budget_categories"].(map[string]interface{})) != 1 {
		t.Errorf("expected idempotent copy, got %v", again)
	}

	var budgets int64
	app.DB.Model(&models.Budget{}).Where("owner_id = ?", userID).Count(&budgets)
	if budgets != 2 {
		t.Errorf("expected 2 budgets, got %d", budgets)
	}

	// Listing filters by month.
	result = mustStatus(t, app.request("GET", "/api/v1/budgets?month=FEB&year=2024", "", token), http.StatusOK)
	if data := result["data"].(map[string]interface{}); len(data) != 1 || data[febID] == nil {
		t.Errorf("expected only February, got %v", data)
	}
}

func TestBudgetFlow_CopyWithoutSourceUsesPreviousMonth(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "alice")

	app.createCategory(t, token, "DEC", 2023, "Living", "Heating", "80.00")

	result := mustStatus(t, app.request("POST", "/api/v1/budgets/copy",
		`{"target_month":"JAN","target_year":2024}`, token), http.StatusOK)
	jan := result["budget"].(map[string]interface{})
	if n := len(jan["budget_categories"].(map[string]interface{})); n != 1 {
		t.Errorf("expected December's category carried over, got %d", n)
	}

	// No budget the month before: an empty target.
	result = mustStatus(t, app.request("POST", "/api/v1/budgets/copy",
		`{"target_month":"JUN","target_year":2024}`, token), http.StatusOK)
	jun := result["budget"].(map[string]interface{})
	if n := len(jun["budget_category_groups"].(map[string]interface{})); n != 0 {
		t.Errorf("expected no groups, got %d", n)
	}
}

func TestOwnershipIsolation(t *testing.T) {
	app := setupApp(t)
	alice, _ := app.registerUser(t, "alice")
	bob, _ := app.registerUser(t, "bob")

	rentID, janID := app.createCategory(t, alice, "JAN", 2024, "Living", "Rent", "1000.00")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   string
	}{
		{name: "read budget", method: "GET", path: "/api/v1/budgets/" + janID, status: http.StatusNotFound, code: "BUDGET_NOT_FOUND"},
		{name: "delete budget", method: "DELETE", path: "/api/v1/budgets/" + janID, status: http.StatusNotFound, code: "BUDGET_NOT_FOUND"},
		{name: "read category", method: "GET", path: "/api/v1/budget-categories/" + rentID, status: http.StatusNotFound, code: "CATEGORY_NOT_FOUND"},
		{name: "spend on category", method: "POST", path: "/api/v1/transactions",
			body:   fmt.Sprintf(`{"amount":"1.00","payee":"Shop","budget_category":%q,"date":"2024-01-02"}`, rentID),
			status: http.StatusNotFound, code: "CATEGORY_NOT_FOUND"},
		{name: "copy foreign source", method: "POST", path: "/api/v1/budgets/copy",
			body:   fmt.Sprintf(`{"source":%q,"target_month":"FEB","target_year":2024}`, janID),
			status: http.StatusForbidden, code: "FORBIDDEN_SOURCE"},
		{name: "list users", method: "GET", path: "/api/v1/users", status: http.StatusForbidden, code: "FORBIDDEN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := mustStatus(t, app.request(tt.method, tt.path, tt.body, bob), tt.status)
			if got := errorCode(result); got != tt.code {
				t.Errorf("expected %s, got %v", tt.code, got)
			}
		})
	}

	// Bob's list is empty and the failed copy created nothing.
	result := mustStatus(t, app.request("GET", "/api/v1/budgets", "", bob), http.StatusOK)
	if result["total_items"].(float64) != 0 {
		t.Errorf("expected bob to see no budgets, got %v", result["total_items"])
	}
	mustStatus(t, app.request("GET", "/api/v1/budgets/"+janID, "", alice), http.StatusOK)
}

func TestAdminSeesEverything(t *testing.T) {
	app := setupApp(t)
	alice, _ := app.registerUser(t, "alice")
	app.registerUser(t, "root")
	_, janID := app.createCategory(t, alice, "JAN", 2024, "Living", "Rent", "1000.00")

	if err := app.DB.Model(&models.User{}).Where("username = ?", "root").Update("is_admin", true).Error; err != nil {
		t.Fatalf("promote: %v", err)
	}
	admin := app.login(t, "root")

	result := mustStatus(t, app.request("GET", "/api/v1/users", "", admin), http.StatusOK)
	if result["total_items"].(float64) != 2 {
		t.Errorf("expected 2 users, got %v", result["total_items"])
	}
	mustStatus(t, app.request("GET", "/api/v1/budgets/"+janID, "", admin), http.StatusOK)
}

func TestAuthFlow(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "alice")

	t.Run("rejects missing token", func(t *testing.T) {
		result := mustStatus(t, app.request("GET", "/api/v1/user-info", "", ""), http.StatusUnauthorized)
		if errorCode(result) != "UNAUTHORIZED" {
			t.Errorf("expected UNAUTHORIZED, got %v", errorCode(result))
		}
	})

	t.Run("accepts the cookie", func(t *testing.T) {
		rec := app.request("POST", "/api/v1/auth/token", `{"username":"alice","password":"password123"}`, "")
		mustStatus(t, rec, http.StatusOK)
		cookies := rec.Result().Cookies()
		if len(cookies) == 0 {
			t.Fatal("expected auth cookie")
		}

		req := httptest.NewRequest("GET", "/api/v1/user-info", nil)
		req.AddCookie(cookies[0])
		out := httptest.NewRecorder()
		app.Router.ServeHTTP(out, req)
		result := mustStatus(t, out, http.StatusOK)
		if result["user"].(map[string]interface{})["username"] != "alice" {
			t.Errorf("unexpected user %v", result["user"])
		}
	})

	t.Run("rejects wrong password", func(t *testing.T) {
		result := mustStatus(t, app.request("POST", "/api/v1/auth/token",
			`{"username":"alice","password":"wrong-password"}`, ""), http.StatusUnauthorized)
		if errorCode(result) != "INVALID_CREDENTIALS" {
			t.Errorf("expected INVALID_CREDENTIALS, got %v", errorCode(result))
		}
	})

	t.Run("logout revokes the token", func(t *testing.T) {
		mustStatus(t, app.request("GET", "/api/v1/user-info", "", token), http.StatusOK)
		mustStatus(t, app.request("POST", "/api/v1/auth/logout", "", token), http.StatusOK)
		mustStatus(t, app.request("GET", "/api/v1/user-info", "", token), http.StatusUnauthorized)
	})
}

func TestDeleteCascades(t *testing.T) {
	app := setupApp(t)
	token, _ := app.registerUser(t, "alice")

	rentID, janID := app.createCategory(t, token, "JAN", 2024, "Living", "Rent", "1000.00")
	app.spend(t, token, rentID, "Landlord", "10.00", "2024-01-05")

	result := mustStatus(t, app.request("DELETE", "/api/v1/budgets/"+janID, "", token), http.StatusOK)
	if result["message"] != "Budget deleted successfully" {
		t.Errorf("unexpected message %v", result["message"])
	}

	for _, model := range []interface{}{&models.BudgetCategoryGroup{}, &models.BudgetCategory{}, &models.Transaction{}} {
		var n int64
		app.DB.Model(model).Count(&n)
		if n != 0 {
			t.Errorf("expected %T rows to be gone, found %d", model, n)
		}
	}

	// Payees outlive the budget.
	result = mustStatus(t, app.request("GET", "/api/v1/payees", "", token), http.StatusOK)
	if result["total_items"].(float64) != 1 {
		t.Errorf("expected payee to survive, got %v", result["total_items"])
	}
}

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"budgetapp/internal/access"
	"budgetapp/internal/config"
	"budgetapp/internal/logger"
	"budgetapp/internal/middleware"
	"budgetapp/internal/models"
	"budgetapp/internal/pagination"
	"budgetapp/internal/services"
	"budgetapp/internal/validator"
)

const (
	testUserID   = "0190a6d2-0000-7000-8000-000000000001"
	testBudgetID = "0190a6d2-0000-7000-8000-0000000000b1"
	testGroupID  = "0190a6d2-0000-7000-8000-0000000000c1"
	testCatID    = "0190a6d2-0000-7000-8000-0000000000d1"
	testPayeeID  = "0190a6d2-0000-7000-8000-0000000000e1"
	testTxnID    = "0190a6d2-0000-7000-8000-0000000000f1"
)

// --- mock services ---

type mockUserService struct {
	createUserFn        func(username, email, password string) (*models.User, error)
	authenticateFn      func(username, password string) (*models.User, error)
	getUserByIDFn       func(p access.Principal, id string) (*models.User, error)
	getUserByUsernameFn func(username string) (*models.User, error)
	listUsersFn         func(p access.Principal, page pagination.PageRequest) (*pagination.PageResponse[models.User], error)
	updateUserFn        func(p access.Principal, id string, input services.UpdateUserInput) (*models.User, error)
	deleteUserFn        func(p access.Principal, id string) error
	setAdminFn          func(username string, isAdmin bool) (*models.User, error)
}

func (m *mockUserService) CreateUser(_ context.Context, username, email, password string) (*models.User, error) {
	if m.createUserFn != nil {
		return m.createUserFn(username, email, password)
	}
	return &models.User{}, nil
}

func (m *mockUserService) Authenticate(_ context.Context, username, password string) (*models.User, error) {
	if m.authenticateFn != nil {
		return m.authenticateFn(username, password)
	}
	return &models.User{}, nil
}

func (m *mockUserService) GetUserByID(_ context.Context, p access.Principal, id string) (*models.User, error) {
	if m.getUserByIDFn != nil {
		return m.getUserByIDFn(p, id)
	}
	return &models.User{}, nil
}

func (m *mockUserService) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	if m.getUserByUsernameFn != nil {
		return m.getUserByUsernameFn(username)
	}
	return &models.User{}, nil
}

func (m *mockUserService) ListUsers(_ context.Context, p access.Principal, page pagination.PageRequest) (*pagination.PageResponse[models.User], error) {
	if m.listUsersFn != nil {
		return m.listUsersFn(p, page)
	}
	return emptyPage[models.User](), nil
}

func (m *mockUserService) UpdateUser(_ context.Context, p access.Principal, id string, input services.UpdateUserInput) (*models.User, error) {
	if m.updateUserFn != nil {
		return m.updateUserFn(p, id, input)
	}
	return &models.User{}, nil
}

func (m *mockUserService) DeleteUser(_ context.Context, p access.Principal, id string) error {
	if m.deleteUserFn != nil {
		return m.deleteUserFn(p, id)
	}
	return nil
}

func (m *mockUserService) SetAdmin(_ context.Context, username string, isAdmin bool) (*models.User, error) {
	if m.setAdminFn != nil {
		return m.setAdminFn(username, isAdmin)
	}
	return &models.User{}, nil
}

var _ services.UserServicer = (*mockUserService)(nil)

type mockBudgetService struct {
	createBudgetFn    func(p access.Principal, month models.Month, year int) (*models.Budget, error)
	listBudgetsFn     func(p access.Principal, page pagination.PageRequest, filter services.BudgetFilter) (*pagination.PageResponse[models.Budget], error)
	getBudgetByIDFn   func(p access.Principal, id string) (*models.Budget, error)
	getBudgetDetailFn func(p access.Principal, id string) (*services.BudgetDetail, error)
	updateBudgetFn    func(p access.Principal, id string, month *models.Month, year *int) (*models.Budget, error)
	deleteBudgetFn    func(p access.Principal, id string) error
	copyBudgetFn      func(p access.Principal, input services.CopyBudgetInput) (*services.BudgetDetail, error)
}

func (m *mockBudgetService) CreateBudget(_ context.Context, p access.Principal, month models.Month, year int) (*models.Budget, error) {
	if m.createBudgetFn != nil {
		return m.createBudgetFn(p, month, year)
	}
	return &models.Budget{}, nil
}

func (m *mockBudgetService) ListBudgets(_ context.Context, p access.Principal, page pagination.PageRequest, filter services.BudgetFilter) (*pagination.PageResponse[models.Budget], error) {
	if m.listBudgetsFn != nil {
		return m.listBudgetsFn(p, page, filter)
	}
	return emptyPage[models.Budget](), nil
}

func (m *mockBudgetService) GetBudgetByID(_ context.Context, p access.Principal, id string) (*models.Budget, error) {
	if m.getBudgetByIDFn != nil {
		return m.getBudgetByIDFn(p, id)
	}
	return &models.Budget{}, nil
}

func (m *mockBudgetService) GetBudgetDetail(_ context.Context, p access.Principal, id string) (*services.BudgetDetail, error) {
	if m.getBudgetDetailFn != nil {
		return m.getBudgetDetailFn(p, id)
	}
	return &services.BudgetDetail{}, nil
}

func (m *mockBudgetService) UpdateBudget(_ context.Context, p access.Principal, id string, month *models.Month, year *int) (*models.Budget, error) {
	if m.updateBudgetFn != nil {
		return m.updateBudgetFn(p, id, month, year)
	}
	return &models.Budget{}, nil
}

func (m *mockBudgetService) DeleteBudget(_ context.Context, p access.Principal, id string) error {
	if m.deleteBudgetFn != nil {
		return m.deleteBudgetFn(p, id)
	}
	return nil
}

func (m *mockBudgetService) ResolvePrevious(_ context.Context, _ *models.Budget) (*models.Budget, error) {
	return nil, nil
}

func (m *mockBudgetService) CopyBudget(_ context.Context, p access.Principal, input services.CopyBudgetInput) (*services.BudgetDetail, error) {
	if m.copyBudgetFn != nil {
		return m.copyBudgetFn(p, input)
	}
	return &services.BudgetDetail{}, nil
}

var _ services.BudgetServicer = (*mockBudgetService)(nil)

type mockGroupService struct {
	createGroupFn  func(p access.Principal, budgetID, name string) (*models.BudgetCategoryGroup, error)
	listGroupsFn   func(p access.Principal, page pagination.PageRequest, filter services.GroupFilter) (*pagination.PageResponse[models.BudgetCategoryGroup], error)
	getGroupByIDFn func(p access.Principal, id string) (*models.BudgetCategoryGroup, error)
	updateGroupFn  func(p access.Principal, id string, name, budgetID *string) (*models.BudgetCategoryGroup, error)
	deleteGroupFn  func(p access.Principal, id string) error
}

func (m *mockGroupService) CreateGroup(_ context.Context, p access.Principal, budgetID, name string) (*models.BudgetCategoryGroup, error) {
	if m.createGroupFn != nil {
		return m.createGroupFn(p, budgetID, name)
	}
	return &models.BudgetCategoryGroup{}, nil
}

func (m *mockGroupService) ListGroups(_ context.Context, p access.Principal, page pagination.PageRequest, filter services.GroupFilter) (*pagination.PageResponse[models.BudgetCategoryGroup], error) {
	if m.listGroupsFn != nil {
		return m.listGroupsFn(p, page, filter)
	}
	return emptyPage[models.BudgetCategoryGroup](), nil
}

func (m *mockGroupService) GetGroupByID(_ context.Context, p access.Principal, id string) (*models.BudgetCategoryGroup, error) {
	if m.getGroupByIDFn != nil {
		return m.getGroupByIDFn(p, id)
	}
	return &models.BudgetCategoryGroup{}, nil
}

func (m *mockGroupService) UpdateGroup(_ context.Context, p access.Principal, id string, name, budgetID *string) (*models.BudgetCategoryGroup, error) {
	if m.updateGroupFn != nil {
		return m.updateGroupFn(p, id, name, budgetID)
	}
	return &models.BudgetCategoryGroup{}, nil
}

func (m *mockGroupService) DeleteGroup(_ context.Context, p access.Principal, id string) error {
	if m.deleteGroupFn != nil {
		return m.deleteGroupFn(p, id)
	}
	return nil
}

var _ services.GroupServicer = (*mockGroupService)(nil)

type mockCategoryService struct {
	createCategoryFn  func(p access.Principal, input services.CategoryInput) (*models.BudgetCategory, error)
	listCategoriesFn  func(p access.Principal, page pagination.PageRequest, filter services.CategoryFilter) (*pagination.PageResponse[models.BudgetCategory], error)
	getCategoryByIDFn func(p access.Principal, id string) (*models.BudgetCategory, error)
	updateCategoryFn  func(p access.Principal, id string, input services.CategoryUpdate) (*models.BudgetCategory, error)
	deleteCategoryFn  func(p access.Principal, id string) error
	spent             map[string]decimal.Decimal
	groupNames        map[string]string
}

func (m *mockCategoryService) CreateCategory(_ context.Context, p access.Principal, input services.CategoryInput) (*models.BudgetCategory, error) {
	if m.createCategoryFn != nil {
		return m.createCategoryFn(p, input)
	}
	return &models.BudgetCategory{}, nil
}

func (m *mockCategoryService) ListCategories(_ context.Context, p access.Principal, page pagination.PageRequest, filter services.CategoryFilter) (*pagination.PageResponse[models.BudgetCategory], error) {
	if m.listCategoriesFn != nil {
		return m.listCategoriesFn(p, page, filter)
	}
	return emptyPage[models.BudgetCategory](), nil
}

func (m *mockCategoryService) GetCategoryByID(_ context.Context, p access.Principal, id string) (*models.BudgetCategory, error) {
	if m.getCategoryByIDFn != nil {
		return m.getCategoryByIDFn(p, id)
	}
	return &models.BudgetCategory{}, nil
}

func (m *mockCategoryService) UpdateCategory(_ context.Context, p access.Principal, id string, input services.CategoryUpdate) (*models.BudgetCategory, error) {
	if m.updateCategoryFn != nil {
		return m.updateCategoryFn(p, id, input)
	}
	return &models.BudgetCategory{}, nil
}

func (m *mockCategoryService) DeleteCategory(_ context.Context, p access.Principal, id string) error {
	if m.deleteCategoryFn != nil {
		return m.deleteCategoryFn(p, id)
	}
	return nil
}

func (m *mockCategoryService) Spent(_ context.Context, categoryID string) (decimal.Decimal, error) {
	return m.spent[categoryID], nil
}

func (m *mockCategoryService) SpentByCategory(_ context.Context, categoryIDs []string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(categoryIDs))
	for _, id := range categoryIDs {
		out[id] = m.spent[id]
	}
	return out, nil
}

func (m *mockCategoryService) GroupNames(_ context.Context, groupIDs []string) (map[string]string, error) {
	out := make(map[string]string, len(groupIDs))
	for _, id := range groupIDs {
		if name, ok := m.groupNames[id]; ok {
			out[id] = name
		}
	}
	return out, nil
}

var _ services.CategoryServicer = (*mockCategoryService)(nil)

type mockPayeeService struct {
	createPayeeFn  func(p access.Principal, name string) (*models.Payee, error)
	listPayeesFn   func(p access.Principal, page pagination.PageRequest) (*pagination.PageResponse[models.Payee], error)
	getPayeeByIDFn func(p access.Principal, id string) (*models.Payee, error)
	updatePayeeFn  func(p access.Principal, id, name string) (*models.Payee, error)
	deletePayeeFn  func(p access.Principal, id string) error
	names          map[string]string
}

func (m *mockPayeeService) CreatePayee(_ context.Context, p access.Principal, name string) (*models.Payee, error) {
	if m.createPayeeFn != nil {
		return m.createPayeeFn(p, name)
	}
	return &models.Payee{}, nil
}

func (m *mockPayeeService) ListPayees(_ context.Context, p access.Principal, page pagination.PageRequest) (*pagination.PageResponse[models.Payee], error) {
	if m.listPayeesFn != nil {
		return m.listPayeesFn(p, page)
	}
	return emptyPage[models.Payee](), nil
}

func (m *mockPayeeService) GetPayeeByID(_ context.Context, p access.Principal, id string) (*models.Payee, error) {
	if m.getPayeeByIDFn != nil {
		return m.getPayeeByIDFn(p, id)
	}
	return &models.Payee{}, nil
}

func (m *mockPayeeService) UpdatePayee(_ context.Context, p access.Principal, id, name string) (*models.Payee, error) {
	if m.updatePayeeFn != nil {
		return m.updatePayeeFn(p, id, name)
	}
	return &models.Payee{}, nil
}

func (m *mockPayeeService) DeletePayee(_ context.Context, p access.Principal, id string) error {
	if m.deletePayeeFn != nil {
		return m.deletePayeeFn(p, id)
	}
	return nil
}

func (m *mockPayeeService) PayeeNames(_ context.Context, payeeIDs []string) (map[string]string, error) {
	out := make(map[string]string, len(payeeIDs))
	for _, id := range payeeIDs {
		if name, ok := m.names[id]; ok {
			out[id] = name
		}
	}
	return out, nil
}

var _ services.PayeeServicer = (*mockPayeeService)(nil)

type mockTransactionService struct {
	createTransactionFn  func(p access.Principal, input services.TransactionInput) (*models.Transaction, error)
	listTransactionsFn   func(p access.Principal, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	getTransactionByIDFn func(p access.Principal, id string) (*models.Transaction, error)
	updateTransactionFn  func(p access.Principal, id string, input services.TransactionUpdate) (*models.Transaction, error)
	deleteTransactionFn  func(p access.Principal, id string) error
}

func (m *mockTransactionService) CreateTransaction(_ context.Context, p access.Principal, input services.TransactionInput) (*models.Transaction, error) {
	if m.createTransactionFn != nil {
		return m.createTransactionFn(p, input)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) ListTransactions(_ context.Context, p access.Principal, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if m.listTransactionsFn != nil {
		return m.listTransactionsFn(p, page, filter)
	}
	return emptyPage[models.Transaction](), nil
}

func (m *mockTransactionService) GetTransactionByID(_ context.Context, p access.Principal, id string) (*models.Transaction, error) {
	if m.getTransactionByIDFn != nil {
		return m.getTransactionByIDFn(p, id)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) UpdateTransaction(_ context.Context, p access.Principal, id string, input services.TransactionUpdate) (*models.Transaction, error) {
	if m.updateTransactionFn != nil {
		return m.updateTransactionFn(p, id, input)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) DeleteTransaction(_ context.Context, p access.Principal, id string) error {
	if m.deleteTransactionFn != nil {
		return m.deleteTransactionFn(p, id)
	}
	return nil
}

var _ services.TransactionServicer = (*mockTransactionService)(nil)

// mockAuditService records the actions it was asked to log.
type mockAuditService struct {
	actions []string
}

func (m *mockAuditService) Log(_, action, _, _, _ string, _ map[string]interface{}) {
	m.actions = append(m.actions, action)
}

// failingDenylist refuses every revocation.
type failingDenylist struct{}

func (failingDenylist) Revoke(context.Context, string, time.Time) error {
	return errors.New("redis unavailable")
}

func (failingDenylist) IsRevoked(context.Context, string) (bool, error) { return false, nil }

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	config.Set(&config.Config{JWTSecret: "test-secret", CookieName: "Token"})
	validator.Register()
}

func emptyPage[T any]() *pagination.PageResponse[T] {
	resp := pagination.NewPageResponse([]T{}, func(T) string { return "" }, 1, 20, 0)
	return &resp
}

// injectPrincipal authenticates every request as p.
func injectPrincipal(p access.Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, p.UserID)
		c.Set(middleware.ContextIsAdmin, p.IsAdmin)
		c.Set(middleware.ContextPrincipal, p)
		c.Next()
	}
}

func injectUser() gin.HandlerFunc {
	return injectPrincipal(access.Principal{UserID: testUserID})
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

func assertErrorField(t *testing.T, result map[string]interface{}, field string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["field"] != field {
		t.Errorf("expected error field %q, got %v", field, errObj["field"])
	}
}

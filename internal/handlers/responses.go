package handlers

import (
	"time"

	"github.com/shopspring/decimal"

	"budgetapp/internal/models"
	"budgetapp/internal/pagination"
	"budgetapp/internal/services"
)

// dateLayout is how transaction dates are rendered.
const dateLayout = "2006-01-02"

// MessageResponse represents a plain confirmation message.
type MessageResponse struct {
	Message string `json:"message"`
}

// UserResponse represents the user data in the response.
type UserResponse struct {
	ID          string     `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	IsAdmin     bool       `json:"is_admin"`
	DateJoined  time.Time  `json:"date_joined"`
	LastLoginAt *time.Time `json:"last_login,omitempty"`
}

func newUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		IsAdmin:     u.IsAdmin,
		DateJoined:  u.CreatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}

// AuthResponse represents the authentication response with token.
type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// BudgetResponse is a budget without its contents.
type BudgetResponse struct {
	ID        string       `json:"id"`
	Owner     string       `json:"owner"`
	Month     models.Month `json:"month"`
	Year      int          `json:"year"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

func newBudgetResponse(b *models.Budget) BudgetResponse {
	return BudgetResponse{
		ID:        b.ID,
		Owner:     b.OwnerID,
		Month:     b.Month,
		Year:      b.Year,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

// GroupResponse is a category group with the ids of its categories.
type GroupResponse struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Budget           string   `json:"budget"`
	BudgetCategories []string `json:"budget_categories"`
}

func newGroupResponse(g *models.BudgetCategoryGroup) GroupResponse {
	ids := make([]string, 0, len(g.Categories))
	for _, c := range g.Categories {
		ids = append(ids, c.ID)
	}
	return GroupResponse{ID: g.ID, Name: g.Name, Budget: g.BudgetID, BudgetCategories: ids}
}

// CategoryResponse is a category with its group name and spent total.
// Money fields are decimal strings with two places.
type CategoryResponse struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Group    string `json:"group"`
	GroupID  string `json:"group_id"`
	Budget   string `json:"budget"`
	Limit    string `json:"limit"`
	Spent    string `json:"spent"`
}

func newCategoryResponse(c *models.BudgetCategory, groupName string, spent decimal.Decimal) CategoryResponse {
	return CategoryResponse{
		ID:       c.ID,
		Category: c.Category,
		Group:    groupName,
		GroupID:  c.GroupID,
		Budget:   c.BudgetID,
		Limit:    models.FormatMoney(c.Limit),
		Spent:    models.FormatMoney(spent),
	}
}

// TransactionResponse is a transaction with its payee name.
type TransactionResponse struct {
	ID             string `json:"id"`
	Amount         string `json:"amount"`
	BudgetCategory string `json:"budget_category"`
	Date           string `json:"date"`
	Payee          string `json:"payee"`
	PayeeID        string `json:"payee_id"`
}

func newTransactionResponse(t *models.Transaction, payeeName string) TransactionResponse {
	return TransactionResponse{
		ID:             t.ID,
		Amount:         models.FormatMoney(t.Amount),
		BudgetCategory: t.BudgetCategoryID,
		Date:           t.Date.UTC().Format(dateLayout),
		Payee:          payeeName,
		PayeeID:        t.PayeeID,
	}
}

// PayeeResponse represents a payee.
type PayeeResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func newPayeeResponse(p *models.Payee) PayeeResponse {
	return PayeeResponse{ID: p.ID, Name: p.Name}
}

// BudgetDetailResponse is a budget with everything nested under it.
// Groups are keyed by name, everything else by id.
type BudgetDetailResponse struct {
	BudgetResponse
	Previous             *string                        `json:"previous"`
	BudgetCategoryGroups map[string]GroupResponse       `json:"budget_category_groups"`
	BudgetCategories     map[string]CategoryResponse    `json:"budget_categories"`
	Transactions         map[string]TransactionResponse `json:"transactions"`
	Payees               map[string]PayeeResponse       `json:"payees"`
}

func newBudgetDetailResponse(d *services.BudgetDetail) BudgetDetailResponse {
	resp := BudgetDetailResponse{
		BudgetResponse:       newBudgetResponse(&d.Budget),
		Previous:             d.PreviousID,
		BudgetCategoryGroups: make(map[string]GroupResponse, len(d.Groups)),
		BudgetCategories:     make(map[string]CategoryResponse, len(d.Categories)),
		Transactions:         make(map[string]TransactionResponse, len(d.Transactions)),
		Payees:               make(map[string]PayeeResponse, len(d.Payees)),
	}

	groupNames := make(map[string]string, len(d.Groups))
	for i := range d.Groups {
		g := &d.Groups[i]
		groupNames[g.ID] = g.Name
		resp.BudgetCategoryGroups[g.Name] = newGroupResponse(g)
	}
	for i := range d.Categories {
		c := &d.Categories[i]
		resp.BudgetCategories[c.ID] = newCategoryResponse(c, groupNames[c.GroupID], d.Spent[c.ID])
	}

	payeeNames := make(map[string]string, len(d.Payees))
	for i := range d.Payees {
		p := &d.Payees[i]
		payeeNames[p.ID] = p.Name
		resp.Payees[p.ID] = newPayeeResponse(p)
	}
	for i := range d.Transactions {
		t := &d.Transactions[i]
		resp.Transactions[t.ID] = newTransactionResponse(t, payeeNames[t.PayeeID])
	}
	return resp
}

// mapPage converts every item of a page, keeping keys and metadata.
func mapPage[T, R any](page *pagination.PageResponse[T], convert func(*T) R) pagination.PageResponse[R] {
	data := make(map[string]R, len(page.Data))
	for key, item := range page.Data {
		data[key] = convert(&item)
	}
	return pagination.PageResponse[R]{
		Data:       data,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalItems: page.TotalItems,
		TotalPages: page.TotalPages,
	}
}

// pageIDs returns the ids of a page's items.
func pageIDs[T any](page *pagination.PageResponse[T], id func(*T) string) []string {
	ids := make([]string, 0, len(page.Data))
	for _, item := range page.Data {
		ids = append(ids, id(&item))
	}
	return ids
}

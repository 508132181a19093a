package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/spendwise/api/internal/errs"
	"github.com/spendwise/api/internal/model"
	"github.com/spendwise/api/internal/query"
	"github.com/spendwise/api/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

/************ fakes ************/

type fakeAuth struct {
	registerFn func(ctx context.Context, email, name, password string) (model.Tokens, *model.User, error)
	loginFn    func(ctx context.Context, email, password, ip string) (model.Tokens, *model.User, error)
	refreshFn  func(ctx context.Context, refreshToken string) (model.Tokens, *model.User, error)
	currentFn  func(ctx context.Context, userID uuid.UUID) (*model.User, error)
}

var _ service.AuthService = (*fakeAuth)(nil)

func (f *fakeAuth) Register(ctx context.Context, email, name, password string) (model.Tokens, *model.User, error) {
	return f.registerFn(ctx, email, name, password)
}
func (f *fakeAuth) LoginWithIP(ctx context.Context, email, password, ip string) (model.Tokens, *model.User, error) {
	return f.loginFn(ctx, email, password, ip)
}
func (f *fakeAuth) Refresh(ctx context.Context, refreshToken string) (model.Tokens, *model.User, error) {
	return f.refreshFn(ctx, refreshToken)
}
func (f *fakeAuth) CurrentUser(ctx context.Context, userID uuid.UUID) (*model.User, error) {
	return f.currentFn(ctx, userID)
}

type fakeTokens struct {
	userID uuid.UUID
}

func (f *fakeTokens) ParseAccessToken(token string) (uuid.UUID, error) {
	if token != "good" {
		return uuid.Nil, errs.ErrAccessDenied
	}
	return f.userID, nil
}

type fakePinger struct{ err error }

func (f *fakePinger) Ping(context.Context) error { return f.err }

type fakeExpenseService struct {
	createFn func(ctx context.Context, userID uuid.UUID, in service.CreateExpenseInput) (*model.Expense, error)
	updateFn func(ctx context.Context, userID, expenseID uuid.UUID, in service.UpdateExpenseInput) (*model.Expense, error)
	deleteFn func(ctx context.Context, userID, expenseID uuid.UUID) error
	getFn    func(ctx context.Context, userID, expenseID uuid.UUID) (*model.Expense, error)
	listFn   func(ctx context.Context, userID uuid.UUID, f query.ExpenseFilter, sortParam string, page, size int) (query.Page[model.Expense], error)
}

var _ service.ExpenseService = (*fakeExpenseService)(nil)

func (f *fakeExpenseService) Create(ctx context.Context, userID uuid.UUID, in service.CreateExpenseInput) (*model.Expense, error) {
	return f.createFn(ctx, userID, in)
}
func (f *fakeExpenseService) Update(ctx context.Context, userID, expenseID uuid.UUID, in service.UpdateExpenseInput) (*model.Expense, error) {
	return f.updateFn(ctx, userID, expenseID, in)
}
func (f *fakeExpenseService) Delete(ctx context.Context, userID, expenseID uuid.UUID) error {
	return f.deleteFn(ctx, userID, expenseID)
}
func (f *fakeExpenseService) Get(ctx context.Context, userID, expenseID uuid.UUID) (*model.Expense, error) {
	return f.getFn(ctx, userID, expenseID)
}
func (f *fakeExpenseService) List(ctx context.Context, userID uuid.UUID, flt query.ExpenseFilter, sortParam string, page, size int) (query.Page[model.Expense], error) {
	return f.listFn(ctx, userID, flt, sortParam, page, size)
}

type fakeBudgetService struct {
	createFn func(ctx context.Context, userID uuid.UUID, in service.CreateBudgetInput) (*service.BudgetView, error)
	getFn    func(ctx context.Context, userID, budgetID uuid.UUID) (*service.BudgetView, error)
	listFn   func(ctx context.Context, userID uuid.UUID, year *int) ([]service.BudgetView, error)
	updateFn func(ctx context.Context, userID, budgetID uuid.UUID, in service.UpdateBudgetInput) (*service.BudgetView, error)
	deleteFn func(ctx context.Context, userID, budgetID uuid.UUID) error
}

var _ service.BudgetService = (*fakeBudgetService)(nil)

func (f *fakeBudgetService) Create(ctx context.Context, userID uuid.UUID, in service.CreateBudgetInput) (*service.BudgetView, error) {
	return f.createFn(ctx, userID, in)
}
func (f *fakeBudgetService) Get(ctx context.Context, userID, budgetID uuid.UUID) (*service.BudgetView, error) {
	return f.getFn(ctx, userID, budgetID)
}
func (f *fakeBudgetService) List(ctx context.Context, userID uuid.UUID, year *int) ([]service.BudgetView, error) {
	return f.listFn(ctx, userID, year)
}
func (f *fakeBudgetService) Update(ctx context.Context, userID, budgetID uuid.UUID, in service.UpdateBudgetInput) (*service.BudgetView, error) {
	return f.updateFn(ctx, userID, budgetID, in)
}
func (f *fakeBudgetService) Delete(ctx context.Context, userID, budgetID uuid.UUID) error {
	return f.deleteFn(ctx, userID, budgetID)
}

type fakeCategoryService struct {
	createFn func(ctx context.Context, userID uuid.UUID, name string) (*model.Category, error)
	getFn    func(ctx context.Context, userID, categoryID uuid.UUID) (*model.Category, error)
	listFn   func(ctx context.Context, userID uuid.UUID) ([]model.Category, error)
	renameFn func(ctx context.Context, userID, categoryID uuid.UUID, name string) (*model.Category, error)
	deleteFn func(ctx context.Context, userID, categoryID uuid.UUID) error
}

var _ service.CategoryService = (*fakeCategoryService)(nil)

func (f *fakeCategoryService) Create(ctx context.Context, userID uuid.UUID, name string) (*model.Category, error) {
	return f.createFn(ctx, userID, name)
}
func (f *fakeCategoryService) Get(ctx context.Context, userID, categoryID uuid.UUID) (*model.Category, error) {
	return f.getFn(ctx, userID, categoryID)
}
func (f *fakeCategoryService) List(ctx context.Context, userID uuid.UUID) ([]model.Category, error) {
	return f.listFn(ctx, userID)
}
func (f *fakeCategoryService) Rename(ctx context.Context, userID, categoryID uuid.UUID, name string) (*model.Category, error) {
	return f.renameFn(ctx, userID, categoryID, name)
}
func (f *fakeCategoryService) Delete(ctx context.Context, userID, categoryID uuid.UUID) error {
	return f.deleteFn(ctx, userID, categoryID)
}

type testEnv struct {
	userID     uuid.UUID
	auth       *fakeAuth
	expenses   *fakeExpenseService
	budgets    *fakeBudgetService
	categories *fakeCategoryService
	router     *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	userID := uuid.Must(uuid.NewV4())
	env := &testEnv{
		userID:     userID,
		auth:       &fakeAuth{},
		expenses:   &fakeExpenseService{},
		budgets:    &fakeBudgetService{},
		categories: &fakeCategoryService{},
	}
	s := New(env.auth, &fakeTokens{userID: userID}, env.categories, env.expenses, env.budgets, &fakePinger{}, zap.NewNop())
	env.router = s.Router()
	return env
}

func (env *testEnv) do(method, path, body string, authed bool) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer good")
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, w.Body.String())
	}
	return body
}

/************ tests ************/

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(http.MethodGet, "/health", "", false)
	if w.Code != http.StatusOK {
		t.Fatalf("health: %d %s", w.Code, w.Body.String())
	}
}

func TestAuthMiddleware(t *testing.T) {
	env := newTestEnv(t)
	env.expenses.listFn = func(context.Context, uuid.UUID, query.ExpenseFilter, string, int, int) (query.Page[model.Expense], error) {
		return query.NewPage([]model.Expense{}, query.NormalizePage(0, 10), 0), nil
	}

	w := env.do(http.MethodGet, "/expenses", "", false)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: %d", w.Code)
	}
	if body := decodeError(t, w); body.Code != "UNAUTHORIZED" {
		t.Fatalf("code = %s", body.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/expenses", nil)
	req.Header.Set("Authorization", "Bearer rotten")
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: %d", w.Code)
	}
	if body := decodeError(t, w); body.Code != "INVALID_TOKEN" {
		t.Fatalf("code = %s", body.Code)
	}

	w = env.do(http.MethodGet, "/expenses", "", true)
	if w.Code != http.StatusOK {
		t.Fatalf("valid token: %d %s", w.Code, w.Body.String())
	}
}

func TestErrorMapping(t *testing.T) {
	env := newTestEnv(t)
	id := uuid.Must(uuid.NewV4())

	cases := []struct {
		err      error
		status   int
		code     string
	}{
		{errs.ErrAccessDenied, http.StatusForbidden, "ACCESS_DENIED"},
		{errs.ErrNotFound, http.StatusNotFound, "RESOURCE_NOT_FOUND"},
		{errs.ErrBudgetExceeded, http.StatusUnprocessableEntity, "BUDGET_EXCEEDED"},
	}
	for _, tc := range cases {
		env.expenses.getFn = func(context.Context, uuid.UUID, uuid.UUID) (*model.Expense, error) {
			return nil, tc.err
		}
		w := env.do(http.MethodGet, "/expenses/"+id.String(), "", true)
		if w.Code != tc.status {
			t.Fatalf("%v: status %d, want %d", tc.err, w.Code, tc.status)
		}
		if body := decodeError(t, w); body.Code != tc.code {
			t.Fatalf("%v: code %s, want %s", tc.err, body.Code, tc.code)
		}
	}
}

func TestCreateExpense_ParseErrorsAggregated(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/expenses",
		`{"categoryId":"not-a-uuid","amount":"abc","expenseDate":"2024/03/01"}`, true)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status %d %s", w.Code, w.Body.String())
	}
	body := decodeError(t, w)
	if body.Code != "VALIDATION_ERROR" {
		t.Fatalf("code = %s", body.Code)
	}
	for _, field := range []string{"categoryId", "amount", "expenseDate"} {
		if _, ok := body.FieldErrors[field]; !ok {
			t.Fatalf("missing field error %q: %v", field, body.FieldErrors)
		}
	}
}

func TestCreateExpense_OK(t *testing.T) {
	env := newTestEnv(t)
	var got service.CreateExpenseInput
	env.expenses.createFn = func(_ context.Context, userID uuid.UUID, in service.CreateExpenseInput) (*model.Expense, error) {
		if userID != env.userID {
			t.Fatalf("wrong user: %v", userID)
		}
		got = in
		return &model.Expense{
			ID:          uuid.Must(uuid.NewV4()),
			UserID:      userID,
			CategoryID:  in.CategoryID,
			Amount:      in.Amount,
			Description: in.Description,
			ExpenseDate: in.ExpenseDate,
			CreatedAt:   time.Now(),
		}, nil
	}

	catID := uuid.Must(uuid.NewV4())
	w := env.do(http.MethodPost, "/expenses",
		`{"categoryId":"`+catID.String()+`","amount":12.50,"description":"coffee","expenseDate":"2024-03-01"}`, true)
	if w.Code != http.StatusCreated {
		t.Fatalf("status %d %s", w.Code, w.Body.String())
	}
	if got.CategoryID != catID || got.Amount.Cents != 1250 || got.Description != "coffee" {
		t.Fatalf("bad input passed through: %+v", got)
	}
	if !strings.Contains(w.Body.String(), `"expenseDate":"2024-03-01"`) {
		t.Fatalf("date not rendered as calendar date: %s", w.Body.String())
	}
}

func TestListExpenses_QueryParams(t *testing.T) {
	env := newTestEnv(t)
	env.expenses.listFn = func(_ context.Context, _ uuid.UUID, f query.ExpenseFilter, sortParam string, page, size int) (query.Page[model.Expense], error) {
		if f.CategoryID == nil || f.MinAmount == nil || f.MinAmount.Cents != 500 {
			t.Fatalf("filter not parsed: %+v", f)
		}
		if sortParam != "amount,asc" || page != 2 || size != 5 {
			t.Fatalf("paging not parsed: sort=%q page=%d size=%d", sortParam, page, size)
		}
		return query.NewPage([]model.Expense{}, query.NormalizePage(page, size), 12), nil
	}

	catID := uuid.Must(uuid.NewV4())
	w := env.do(http.MethodGet,
		"/expenses?categoryId="+catID.String()+"&minAmount=5.00&sort=amount,asc&page=2&size=5", "", true)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d %s", w.Code, w.Body.String())
	}
	var page pageResponse[expenseResponse]
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	if page.TotalElements != 12 || page.TotalPages != 3 || page.Page != 2 || !page.Last {
		t.Fatalf("bad page envelope: %+v", page)
	}
}

func TestUpdateBudget_MonthTriState(t *testing.T) {
	env := newTestEnv(t)
	id := uuid.Must(uuid.NewV4())

	var got service.UpdateBudgetInput
	env.budgets.updateFn = func(_ context.Context, _, _ uuid.UUID, in service.UpdateBudgetInput) (*service.BudgetView, error) {
		got = in
		return &service.BudgetView{Budget: model.Budget{ID: id, Amount: model.Cents(100), Year: 2024}}, nil
	}

	// Absent month leaves the period untouched.
	w := env.do(http.MethodPut, "/budgets/"+id.String(), `{"amount":"20.00"}`, true)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d %s", w.Code, w.Body.String())
	}
	if got.Month.Set {
		t.Fatalf("absent month must not be marked set")
	}

	// Explicit null switches to yearly.
	w = env.do(http.MethodPut, "/budgets/"+id.String(), `{"month":null}`, true)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d %s", w.Code, w.Body.String())
	}
	if !got.Month.Set || got.Month.Value != nil {
		t.Fatalf("explicit null must set a nil month: %+v", got.Month)
	}

	// A concrete month passes through.
	w = env.do(http.MethodPut, "/budgets/"+id.String(), `{"month":7}`, true)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d %s", w.Code, w.Body.String())
	}
	if !got.Month.Set || got.Month.Value == nil || *got.Month.Value != 7 {
		t.Fatalf("month not parsed: %+v", got.Month)
	}
}

func TestRegister_and_Login(t *testing.T) {
	env := newTestEnv(t)
	env.auth.registerFn = func(_ context.Context, email, name, password string) (model.Tokens, *model.User, error) {
		if email != "alice@example.com" {
			t.Fatalf("email = %q", email)
		}
		return model.Tokens{AccessToken: "a", RefreshToken: "r"}, &model.User{Email: email}, nil
	}
	w := env.do(http.MethodPost, "/auth/register",
		`{"email":"alice@example.com","name":"Alice","password":"s3cret-pass"}`, false)
	if w.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", w.Code, w.Body.String())
	}

	env.auth.loginFn = func(_ context.Context, email, password, ip string) (model.Tokens, *model.User, error) {
		return model.Tokens{}, nil, errs.ErrInvalidCredentials
	}
	w = env.do(http.MethodPost, "/auth/login",
		`{"email":"alice@example.com","password":"wrong"}`, false)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("login: %d", w.Code)
	}
	if body := decodeError(t, w); body.Code != "INVALID_CREDENTIALS" {
		t.Fatalf("code = %s", body.Code)
	}
}

func TestDeleteExpense_NoContent(t *testing.T) {
	env := newTestEnv(t)
	env.expenses.deleteFn = func(context.Context, uuid.UUID, uuid.UUID) error { return nil }

	w := env.do(http.MethodDelete, "/expenses/"+uuid.Must(uuid.NewV4()).String(), "", true)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status %d", w.Code)
	}
}

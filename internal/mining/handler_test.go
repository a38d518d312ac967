package mining

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/mining-tracker/internal/auth"
	"github.com/ayush/mining-tracker/internal/middleware"
	"github.com/ayush/mining-tracker/internal/models"
	"github.com/ayush/mining-tracker/internal/store"
	"github.com/ayush/mining-tracker/internal/web"
)

// --- fakes ---

type fakeUsers struct {
	byID map[string]*models.User
}

func (f *fakeUsers) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

type fakeRecords struct {
	insertErr error
	totalErr  error

	nextID int64
	clock  time.Time
	rows   []models.MiningRecord
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{clock: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeRecords) InsertMiningRecord(ctx context.Context, rec *models.MiningRecord) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.nextID++
	f.clock = f.clock.Add(time.Second)
	rec.ID = f.nextID
	rec.CreatedAt = f.clock
	f.rows = append(f.rows, *rec)
	return nil
}

func (f *fakeRecords) TotalMined(ctx context.Context, username, cryptocurrency string) (decimal.Decimal, error) {
	if f.totalErr != nil {
		return decimal.Zero, f.totalErr
	}
	total := decimal.Zero
	for _, r := range f.rows {
		if r.Username == username && r.Cryptocurrency == cryptocurrency {
			total = total.Add(r.Amount)
		}
	}
	return total, nil
}

func (f *fakeRecords) ListMiningByUsername(ctx context.Context, username string) ([]models.MiningRecord, error) {
	var out []models.MiningRecord
	for i := len(f.rows) - 1; i >= 0; i-- { // created_at desc
		if f.rows[i].Username == username {
			out = append(out, f.rows[i])
		}
	}
	return out, nil
}

type fakeSessions struct {
	store map[string]auth.Identity
}

func (f *fakeSessions) Create(ctx context.Context, ident auth.Identity) (string, error) {
	sid := "sid-" + ident.UserID
	f.store[sid] = ident
	return sid, nil
}

func (f *fakeSessions) Get(ctx context.Context, sessionID string) (*auth.Identity, error) {
	ident, ok := f.store[sessionID]
	if !ok {
		return nil, nil
	}
	return &ident, nil
}

func (f *fakeSessions) Delete(ctx context.Context, sessionID string) error {
	delete(f.store, sessionID)
	return nil
}

// --- fixture ---

type fixture struct {
	users    *fakeUsers
	records  *fakeRecords
	sessions *fakeSessions
	handler  *Handler
}

func newFixture() *fixture {
	users := &fakeUsers{byID: map[string]*models.User{
		"u-1": {ID: "u-1", Username: "alice", Login: "alice1", Email: "a@x.com"},
		"u-2": {ID: "u-2", Username: "bob", Login: "bob1", Email: "b@x.com"},
	}}
	records := newFakeRecords()
	sessions := &fakeSessions{store: map[string]auth.Identity{
		"sid-u-1": {UserID: "u-1", Username: "alice"},
		"sid-u-2": {UserID: "u-2", Username: "bob"},
	}}
	return &fixture{
		users:    users,
		records:  records,
		sessions: sessions,
		handler:  NewHandler(users, records, web.NewRenderer()),
	}
}

// saveMining runs a request through RequireAuth + SaveMining, the way
// the route is wired in main.
func (fx *fixture) saveMining(sid, body string) *httptest.ResponseRecorder {
	h := middleware.RequireAuth(fx.sessions)(http.HandlerFunc(fx.handler.SaveMining))
	req := httptest.NewRequest(http.MethodPost, "/save_mining", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: sid})
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func (fx *fixture) dashboard(sid string) *httptest.ResponseRecorder {
	h := middleware.RequirePage(fx.sessions)(http.HandlerFunc(fx.handler.Dashboard))
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: sid})
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// --- save_mining ---

func TestSaveMining_ReturnsRunningTotal(t *testing.T) {
	fx := newFixture()

	rr := fx.saveMining("sid-u-1", `{"cryptocurrency":"BTC","amount":0.5}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true,"username":"alice","total_amount":0.5}`, rr.Body.String())

	rr = fx.saveMining("sid-u-1", `{"cryptocurrency":"BTC","amount":1.5}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true,"username":"alice","total_amount":2}`, rr.Body.String())

	require.Len(t, fx.records.rows, 2)
	assert.Equal(t, "a@x.com", fx.records.rows[0].Email, "record snapshots the owner's email")
}

func TestSaveMining_TotalIsPerCurrency(t *testing.T) {
	fx := newFixture()

	fx.saveMining("sid-u-1", `{"cryptocurrency":"ETH","amount":10}`)
	rr := fx.saveMining("sid-u-1", `{"cryptocurrency":"BTC","amount":1}`)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"success":true,"username":"alice","total_amount":1}`, rr.Body.String())
}

func TestSaveMining_Unauthenticated(t *testing.T) {
	fx := newFixture()

	rr := fx.saveMining("", `{"cryptocurrency":"BTC","amount":0.5}`)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.JSONEq(t, `{"success":false,"error":"not authenticated"}`, rr.Body.String())
	assert.Empty(t, fx.records.rows, "no row may be created")
}

func TestSaveMining_MissingCryptocurrency(t *testing.T) {
	fx := newFixture()

	for _, body := range []string{`{}`, `{"amount":5}`, `{"cryptocurrency":"","amount":5}`} {
		rr := fx.saveMining("sid-u-1", body)

		assert.Equal(t, http.StatusInternalServerError, rr.Code, "body %s", body)
		assert.JSONEq(t, `{"success":false,"error":"cryptocurrency is required"}`, rr.Body.String(), "body %s", body)
	}
	assert.Empty(t, fx.records.rows, "no row may be created")
}

func TestSaveMining_MalformedBody(t *testing.T) {
	fx := newFixture()

	rr := fx.saveMining("sid-u-1", `{"cryptocurrency":`)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), `"success":false`)
	assert.Empty(t, fx.records.rows)
}

func TestSaveMining_InsertErrorRollsIntoFailurePayload(t *testing.T) {
	fx := newFixture()
	fx.records.insertErr = assert.AnError

	rr := fx.saveMining("sid-u-1", `{"cryptocurrency":"BTC","amount":0.5}`)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), `"success":false`)
}

func TestSaveMining_HighPrecisionAmountSurvives(t *testing.T) {
	fx := newFixture()

	rr := fx.saveMining("sid-u-1", `{"cryptocurrency":"BTC","amount":0.0000000001}`)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, fx.records.rows, 1)
	assert.True(t, fx.records.rows[0].Amount.Equal(decimal.RequireFromString("0.0000000001")),
		"ten fractional digits must be stored exactly, got %s", fx.records.rows[0].Amount)
}

// --- dashboard ---

func TestDashboard_ListsOwnRecordsNewestFirst(t *testing.T) {
	fx := newFixture()
	fx.saveMining("sid-u-1", `{"cryptocurrency":"ETH","amount":10}`)
	fx.saveMining("sid-u-1", `{"cryptocurrency":"ETH","amount":5}`)
	fx.saveMining("sid-u-2", `{"cryptocurrency":"DOGE","amount":100}`)

	rr := fx.dashboard("sid-u-1")

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "alice")
	assert.Contains(t, body, "ETH")
	assert.NotContains(t, body, "DOGE", "another user's records must not appear")
	assert.NotContains(t, body, "bob")

	// most recent save (amount 5) renders before the first one (amount 10)
	require.Contains(t, body, ">5<")
	require.Contains(t, body, ">10<")
	assert.Less(t, strings.Index(body, ">5<"), strings.Index(body, ">10<"))
}

func TestDashboard_UnauthenticatedRedirectsToLogin(t *testing.T) {
	fx := newFixture()

	rr := fx.dashboard("")

	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/login", rr.Header().Get("Location"))
}

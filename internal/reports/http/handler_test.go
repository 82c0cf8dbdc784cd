package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridian-books/meridian/internal/coa"
	"github.com/meridian-books/meridian/internal/ledger"
	"github.com/meridian-books/meridian/internal/reports"
	_ "github.com/meridian-books/meridian/testing"
)

type fixtureStore struct {
	accounts []coa.Account
	items    []ledger.LineItem
	calls    int
}

func (s *fixtureStore) ListAccounts(ctx context.Context, accountBookID uuid.UUID) ([]coa.Account, error) {
	s.calls++
	return s.accounts, nil
}

func (s *fixtureStore) ListLineItems(ctx context.Context, accountBookID uuid.UUID, from, to time.Time) ([]ledger.LineItem, error) {
	s.calls++
	out := make([]ledger.LineItem, 0, len(s.items))
	for _, item := range s.items {
		if item.VoucherDate.Before(to) && !item.VoucherDate.Before(from) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (s *fixtureStore) Snapshot(ctx context.Context, accountBookID uuid.UUID, from, to time.Time) ([]coa.Account, []ledger.LineItem, error) {
	accounts, err := s.ListAccounts(ctx, accountBookID)
	if err != nil {
		return nil, nil, err
	}
	items, err := s.ListLineItems(ctx, accountBookID, from, to)
	if err != nil {
		return nil, nil, err
	}
	return accounts, items, nil
}

func fixtureLines(no string, day time.Time, debitAccount, creditAccount string, amount int64) []ledger.LineItem {
	id := uuid.New()
	return []ledger.LineItem{
		{AccountCode: debitAccount, VoucherID: id, VoucherNo: no, VoucherDate: day, Debit: true, Amount: decimal.NewFromInt(amount)},
		{AccountCode: creditAccount, VoucherID: id, VoucherNo: no, VoucherDate: day, Amount: decimal.NewFromInt(amount)},
	}
}

func newFixtureStore() *fixtureStore {
	day := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	items := fixtureLines("V-001", day, "1100", "4000", 60000)
	items = append(items, fixtureLines("V-002", day.AddDate(0, 0, 5), "5000", "1100", 15000)...)
	return &fixtureStore{
		accounts: []coa.Account{
			{Code: "1100", Name: "Cash", Type: coa.AccountTypeAsset, DebitNormal: true, Liquidity: true},
			{Code: "4000", Name: "Sales", Type: coa.AccountTypeRevenue},
			{Code: "5000", Name: "Rent Expense", Type: coa.AccountTypeExpense, DebitNormal: true},
		},
		items: items,
	}
}

func newTestServer(t *testing.T, store ledger.Store, client *redis.Client) *httptest.Server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	service := reports.NewService(store, logger)
	handler := NewHandler(logger, service, client, nil, Options{CacheTTL: time.Minute, ExportRateLimit: 100})
	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		handler.MountRoutes(r)
	})
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server
}

func get(t *testing.T, server *httptest.Server, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := server.Client().Get(server.URL + path)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	return resp, body
}

func TestTrialBalanceEndpoint(t *testing.T) {
	server := newTestServer(t, newFixtureStore(), nil)

	resp, body := get(t, server, "/api/v1/account-books/"+uuid.NewString()+"/trial-balance?startDate=2025-03-01&endDate=2025-04-30")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope struct {
		Data       []json.RawMessage `json:"data"`
		Page       int               `json:"page"`
		TotalCount int               `json:"totalCount"`
		PageSize   int               `json:"pageSize"`
	}
	require.NoError(t, json.Unmarshal(body, &envelope))
	assert.Equal(t, 3, envelope.TotalCount)
	assert.Equal(t, 1, envelope.Page)
	assert.Equal(t, 10, envelope.PageSize, "pageSize defaults when unset")
}

func TestLedgerEndpointFiltersByAccount(t *testing.T) {
	server := newTestServer(t, newFixtureStore(), nil)

	resp, body := get(t, server, "/api/v1/account-books/"+uuid.NewString()+"/ledger?startDate=2025-03-01&endDate=2025-04-30&accountCode=1100")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var envelope struct {
		Data []reports.LedgerRow `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &envelope))
	require.Len(t, envelope.Data, 2)
	for _, row := range envelope.Data {
		assert.Equal(t, "1100", row.AccountCode)
	}
}

func TestReportEndpointCachesResponse(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := newFixtureStore()
	server := newTestServer(t, store, client)

	path := "/api/v1/account-books/" + uuid.NewString() + "/reports?startDate=2025-03-01&endDate=2025-04-30&sheetType=INCOME_STATEMENT"

	resp, first := get(t, server, path)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	callsAfterFirst := store.calls
	require.Positive(t, callsAfterFirst)

	resp, second := get(t, server, path)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, callsAfterFirst, store.calls, "second request must be served from cache")
	assert.Equal(t, string(first), string(second))

	var content reports.ReportContent
	require.NoError(t, json.Unmarshal(second, &content))
	assert.Equal(t, reports.SheetIncomeStatement, content.SheetType)
}

func TestTrialBalanceEndpointCachesResponse(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := newFixtureStore()
	server := newTestServer(t, store, client)

	base := "/api/v1/account-books/" + uuid.NewString() + "/trial-balance?startDate=2025-03-01&endDate=2025-04-30"

	resp, first := get(t, server, base)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	callsAfterFirst := store.calls
	require.Positive(t, callsAfterFirst)

	resp, second := get(t, server, base)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, callsAfterFirst, store.calls, "second request must be served from cache")
	assert.Equal(t, string(first), string(second))

	// a different page size is a different envelope, so it recomputes
	resp, _ = get(t, server, base+"&pageSize=1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Greater(t, store.calls, callsAfterFirst)
}

func TestReportEndpointRejectsUnknownSheetType(t *testing.T) {
	store := newFixtureStore()
	server := newTestServer(t, store, nil)

	resp, body := get(t, server, "/api/v1/account-books/"+uuid.NewString()+"/reports?startDate=2025-03-01&endDate=2025-04-30&sheetType=PROFIT_GRAPH")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Zero(t, store.calls, "invalid sheet type must not reach the store")
	assert.Contains(t, string(body), "Unsupported Sheet Type")
}

func TestEndpointValidation(t *testing.T) {
	server := newTestServer(t, newFixtureStore(), nil)
	base := "/api/v1/account-books/" + uuid.NewString()

	cases := map[string]string{
		"missing dates":     base + "/trial-balance",
		"bad date":          base + "/trial-balance?startDate=yesterday&endDate=2025-04-30",
		"inverted range":    base + "/trial-balance?startDate=2025-04-30&endDate=2025-03-01",
		"bad page":          base + "/trial-balance?startDate=2025-03-01&endDate=2025-04-30&page=0",
		"bad sort key":      base + "/trial-balance?startDate=2025-03-01&endDate=2025-04-30&sortBy=name",
		"bad sort order":    base + "/trial-balance?startDate=2025-03-01&endDate=2025-04-30&sortBy=accountCode&sortOrder=sideways",
		"bad account book":  "/api/v1/account-books/not-a-uuid/trial-balance?startDate=2025-03-01&endDate=2025-04-30",
		"bad ledger params": base + "/ledger?startDate=2025-03-01&endDate=bogus",
	}
	for name, path := range cases {
		t.Run(name, func(t *testing.T) {
			resp, _ := get(t, server, path)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestUnbalancedLedgerReturns422(t *testing.T) {
	store := newFixtureStore()
	// drop one leg so a voucher no longer balances
	store.items = store.items[1:]
	server := newTestServer(t, store, nil)

	resp, body := get(t, server, "/api/v1/account-books/"+uuid.NewString()+"/trial-balance?startDate=2025-03-01&endDate=2025-04-30")
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, string(body), "Ledger Imbalance")
}

func TestTrialBalanceCSVExport(t *testing.T) {
	server := newTestServer(t, newFixtureStore(), nil)

	resp, body := get(t, server, "/api/v1/account-books/"+uuid.NewString()+"/trial-balance/export.csv?startDate=2025-03-01&endDate=2025-04-30")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "trial_balance.csv")

	content := string(body)
	assert.True(t, strings.Contains(content, "科目編號,會計科目"), "expected translated headers, got %q", content)
	assert.Contains(t, content, "1100,Cash")
}

func TestLedgerCSVExport(t *testing.T) {
	server := newTestServer(t, newFixtureStore(), nil)

	resp, body := get(t, server, "/api/v1/account-books/"+uuid.NewString()+"/ledger/export.csv?startDate=2025-03-01&endDate=2025-04-30&accountCode=1100")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	content := string(body)
	assert.Contains(t, content, "傳票編號")
	assert.Contains(t, content, "V-001")
	assert.NotContains(t, content, "5000,Rent Expense", "account filter must apply to the export")
}

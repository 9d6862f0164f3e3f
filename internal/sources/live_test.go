package sources

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticMapping(names StoreNames) *Mapping {
	return &Mapping{loader: NewLoader(func(context.Context) (StoreNames, error) { return names, nil })}
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	assert.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestLiveFollowsNextLinks(t *testing.T) {
	var srv *httptest.Server
	var firstFilter, prefer string
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/data/RetailTransactions", r.URL.Path)
		if r.URL.Query().Get("page") == "2" {
			writeJSON(t, w, map[string]any{"value": []map[string]any{
				{"OperatingUnitNumber": "S2", "PaymentAmount": 70, "TransactionDate": "2026-03-03T09:00:00Z", "StaffId": "4662", "StaffName": "Budi"},
			}})
			return
		}
		firstFilter = r.URL.Query().Get("$filter")
		prefer = r.Header.Get("Prefer")
		writeJSON(t, w, map[string]any{
			"value": []map[string]any{
				{"OperatingUnitNumber": "S1", "PaymentAmount": 100, "TransactionDate": "2026-03-02T10:00:00Z", "StaffId": "4661", "StaffName": "Ali"},
				{"OperatingUnitNumber": "S1", "PaymentAmount": 50, "TransactionDate": "2026-03-02T12:00:00Z", "StaffId": ""},
			},
			"@odata.nextLink": srv.URL + "/data/RetailTransactions?page=2",
		})
	}))
	t.Cleanup(srv.Close)

	live := NewLive(srv.Client(), LiveConfig{BaseURL: srv.URL + "/"}, staticMapping(StoreNames{"S1": "Mall One"}), nil, nil)
	live.newID = func() string { return "req-1" }

	resp := live.Metrics(context.Background(), MonthRequest(2026, 2))
	require.True(t, resp.Success, resp.Debug.Notes)

	assert.Equal(t, "PaymentAmount ne 0 and TransactionDate ge 2026-03-01T00:00:00Z and TransactionDate lt 2026-04-01T00:00:00Z", firstFilter)
	assert.Equal(t, "odata.maxpagesize=5000", prefer)
	assert.Equal(t, Debug{Source: SourceLive, RequestID: "req-1", Pages: 2, Fetched: 3}, resp.Debug)

	require.Len(t, resp.ByStore, 2)
	assert.Equal(t, "Mall One", resp.ByStore[0].StoreName)
	assert.InDelta(t, 150, resp.ByStore[0].SalesAmount, 1e-9)
	assert.Equal(t, 2, resp.ByStore[0].Invoices)
	assert.Equal(t, "S2", resp.ByStore[1].StoreName)

	require.Len(t, resp.ByEmployee, 2)
	assert.Equal(t, "4661", resp.ByEmployee[0].EmployeeID)
	assert.Equal(t, "Ali", resp.ByEmployee[0].EmployeeName)
	assert.Equal(t, "Mall One", resp.ByEmployee[0].StoreName)
	assert.Equal(t, "4662", resp.ByEmployee[1].EmployeeID)

	require.Len(t, resp.ByDay, 2)
	assert.Equal(t, "2026-03-02", resp.ByDay[0].Date)
	require.Len(t, resp.ByDay[0].ByEmployee, 1)
	assert.InDelta(t, 100, resp.ByDay[0].ByEmployee[0].SalesAmount, 1e-9)

	assert.InDelta(t, 220, resp.Totals.SalesAmount, 1e-9)
	assert.Equal(t, 3, resp.Totals.Invoices)
	assert.Nil(t, resp.Totals.KPIs.Conversion)
}

func TestLiveNarrowsQuery(t *testing.T) {
	var filter string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		filter = r.URL.Query().Get("$filter")
		writeJSON(t, w, map[string]any{"value": []any{}})
	}))
	t.Cleanup(srv.Close)

	req := DayRequest(2026, 0, 31)
	req.StoreID = "S'1"
	req.EmployeeID = "4661"
	resp := NewLive(srv.Client(), LiveConfig{BaseURL: srv.URL}, nil, nil, nil).Metrics(context.Background(), req)

	require.True(t, resp.Success)
	assert.Empty(t, resp.ByStore)
	assert.Contains(t, filter, "TransactionDate ge 2026-01-31T00:00:00Z and TransactionDate lt 2026-02-01T00:00:00Z")
	assert.Contains(t, filter, "OperatingUnitNumber eq 'S''1'")
	assert.Contains(t, filter, "StaffId eq '4661'")
}

func TestLiveReportsUpstreamErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	live := NewLive(srv.Client(), LiveConfig{BaseURL: srv.URL}, nil, nil, nil)
	live.newID = func() string { return "req-2" }
	resp := live.Metrics(context.Background(), MonthRequest(2026, 2))

	assert.False(t, resp.Success)
	assert.Equal(t, "req-2", resp.Debug.RequestID)
	require.Len(t, resp.Debug.Notes, 1)
	assert.Contains(t, resp.Debug.Notes[0], "401")
}

func TestLiveStopsAtPageLimit(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"value": []any{}, "@odata.nextLink": srv.URL + "/data/RetailTransactions"})
	}))
	t.Cleanup(srv.Close)

	resp := NewLive(srv.Client(), LiveConfig{BaseURL: srv.URL, MaxPages: 3}, nil, nil, nil).
		Metrics(context.Background(), MonthRequest(2026, 2))
	assert.False(t, resp.Success)
	require.Len(t, resp.Debug.Notes, 1)
	assert.Contains(t, resp.Debug.Notes[0], ErrPageLimit.Error())
}

func TestLiveConfigClientAttachesToken(t *testing.T) {
	tokens := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.Form.Get("grant_type"))
		writeJSON(t, w, map[string]any{"access_token": "tok", "token_type": "bearer", "expires_in": 3600})
	}))
	t.Cleanup(tokens.Close)

	var auth string
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		writeJSON(t, w, map[string]any{"value": []any{}})
	}))
	t.Cleanup(api.Close)

	cfg := LiveConfig{BaseURL: api.URL, TokenURL: tokens.URL, ClientID: "id", ClientSecret: "secret", Scope: "api/.default"}
	resp := NewLive(cfg.HTTPClient(context.Background()), cfg, nil, nil, nil).Metrics(context.Background(), MonthRequest(2026, 2))

	require.True(t, resp.Success, resp.Debug.Notes)
	assert.Equal(t, "Bearer tok", auth)
}

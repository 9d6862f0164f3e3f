package directory

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retail-cockpit/cockpit/internal/access"
	"github.com/retail-cockpit/cockpit/internal/platform/httpx"
)

func newTestRouter(repo *fakeRepo) http.Handler {
	h := NewHandler(nil, newTestService(repo))
	r := chi.NewRouter()
	r.Use(access.Middleware{}.Authenticate)
	h.MountRoutes(r)
	return r
}

func doRequest(t *testing.T, router http.Handler, method, path, role, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if role != "" {
		req.Header.Set(access.HeaderUserID, "u-1")
		req.Header.Set(access.HeaderUserRole, role)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestPutStoreRequiresDirectoryRights(t *testing.T) {
	repo := newFakeRepo()
	router := newTestRouter(repo)
	body := `{"name":"Mall One","areaManager":"Rina","city":"Jakarta"}`

	assert.Equal(t, http.StatusUnauthorized, doRequest(t, router, http.MethodPut, "/directory/stores/S1", "", body).Code)
	assert.Equal(t, http.StatusForbidden, doRequest(t, router, http.MethodPut, "/directory/stores/S1", "general_manager", body).Code)

	rec := doRequest(t, router, http.MethodPut, "/directory/stores/S1", "admin", body)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	require.Len(t, repo.stores, 1)
	assert.Equal(t, "S1", repo.stores[0].ID)
}

func TestPutStoreTargetValidation(t *testing.T) {
	repo := newFakeRepo()
	router := newTestRouter(repo)

	rec := doRequest(t, router, http.MethodPut, "/directory/stores/S1/targets", "general_manager", `{"year":2025,"month":13,"amount":10}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var problem httpx.ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "Validation Failed", problem.Title)
	assert.Contains(t, problem.Detail, "Month")

	rec = doRequest(t, router, http.MethodPut, "/directory/stores/S1/targets", "general_manager", `{"year":2025,"month":6,"amount":10}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doRequest(t, router, http.MethodPut, "/directory/stores/S1/targets", "general_manager", `{"year":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEmployeeTargetsForAreaManagers(t *testing.T) {
	repo := newFakeRepo()
	router := newTestRouter(repo)

	rec := doRequest(t, router, http.MethodPut, "/directory/employees/E1/targets", "area_manager", `{"year":2025,"month":6,"amount":10,"duvet":true}`)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Len(t, repo.targets, 1)
	assert.Equal(t, TargetInput{Owner: "E1", Kind: KindEmployeeDuvet, Year: 2025, Month: 6, Amount: 10}, repo.targets[0])

	rec = doRequest(t, router, http.MethodPut, "/directory/employees/E1/targets", "employee", `{"year":2025,"month":6,"amount":10}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestListStores(t *testing.T) {
	repo := newFakeRepo()
	repo.stores = []StoreInput{{ID: "S1", Name: "Mall One", AreaManager: "Rina"}}
	repo.targets = []TargetInput{{Owner: "S1", Kind: KindStore, Year: 2025, Month: 6, Amount: 3000}}
	router := newTestRouter(repo)

	rec := doRequest(t, router, http.MethodGet, "/directory/stores", "general_manager", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":"S1","name":"Mall One","areaManager":"Rina","targets":{"2025":{"6":3000}}}]`, rec.Body.String())

	assert.Equal(t, http.StatusForbidden, doRequest(t, router, http.MethodGet, "/directory/stores", "store_manager", "").Code)
}

func TestPostSales(t *testing.T) {
	repo := newFakeRepo()
	router := newTestRouter(repo)
	body := `[{"billDate":"2025-06-01T00:00:00Z","outletName":"Mall One","itemName":"KING COMFORTER","itemAlias":"4001","soldQty":1,"itemRate":799}]`

	rec := doRequest(t, router, http.MethodPost, "/directory/sales/DUVET", "general_manager", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"imported":1}`, rec.Body.String())
	assert.Len(t, repo.imported[StreamDuvet], 1)
}

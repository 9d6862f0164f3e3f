package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/retail-cockpit/cockpit/internal/retail"
)

func TestApplyScopeByArea(t *testing.T) {
	f := retail.ForMonth(2025, 5)
	scope := Resolve(&retail.Profile{ID: "a", Role: retail.RoleAdmin}, universe(), f)
	out := ApplyScope(scope, Selection{AreaManager: "Khalid", Store: "All"}, f)
	assert.Equal(t, []string{"Olaya", "Nakheel"}, storeNames(out.Stores))
	assert.Equal(t, []string{"Sara", "Huda"}, employeeNames(out.Employees))
	assert.Len(t, out.Metrics, 2)
	assert.Len(t, out.Sales, 2)
}

func TestApplyScopeByStoreAndCity(t *testing.T) {
	f := retail.AllTime()
	scope := Resolve(&retail.Profile{ID: "a", Role: retail.RoleAdmin}, universe(), f)

	byStore := ApplyScope(scope, Selection{Store: "Nakheel"}, f)
	assert.Equal(t, []string{"Nakheel"}, storeNames(byStore.Stores))
	assert.Equal(t, []string{"Huda"}, employeeNames(byStore.Employees))

	byCity := ApplyScope(scope, Selection{City: "jeddah"}, f)
	assert.Equal(t, []string{"Jeddah Park"}, storeNames(byCity.Stores))
	assert.Len(t, byCity.Sales, 2)
}

func TestApplyScopeNeverWidens(t *testing.T) {
	f := retail.AllTime()
	scope := Resolve(&retail.Profile{ID: "k", Role: retail.RoleAreaManager, AreaManager: "Khalid"}, universe(), f)
	out := ApplyScope(scope, Selection{AreaManager: "Omar"}, f)
	assert.Empty(t, out.Stores)
	assert.Empty(t, out.Employees)
	assert.Empty(t, out.Metrics)
}

func TestApplyScopeStoreManagerKeepsOwnStaff(t *testing.T) {
	f := retail.AllTime()
	scope := Resolve(&retail.Profile{ID: "m", Role: retail.RoleStoreManager, Store: "Olaya"}, universe(), f)
	out := ApplyScope(scope, Selection{Store: "Nakheel"}, f)
	assert.Equal(t, []string{"Nakheel"}, storeNames(out.Stores))
	assert.Equal(t, []string{"Sara"}, employeeNames(out.Employees))
	assert.Len(t, out.Metrics, 1)
}

func TestApplyScopeKeepsIdentity(t *testing.T) {
	f := retail.AllTime()
	scope := Resolve(&retail.Profile{ID: "m", Role: retail.RoleStoreManager, Store: "Olaya"}, universe(), f)
	out := ApplyScope(scope, Selection{}, f)
	assert.Equal(t, retail.RoleStoreManager, out.Role)
	assert.Equal(t, "Olaya", out.Identity.Store)
}

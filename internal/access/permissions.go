package access

import (
	"github.com/retail-cockpit/cockpit/internal/retail"
)

// Capability is an action a role may be allowed to perform.
type Capability string

const (
	CanViewOwnSales        Capability = "view_own_sales"
	CanViewBranch          Capability = "view_branch"
	CanViewRegion          Capability = "view_region"
	CanViewAll             Capability = "view_all"
	CanSendTasks           Capability = "send_tasks"
	CanEditEmployeeTargets Capability = "edit_employee_targets"
	CanEditBranchTargets   Capability = "edit_branch_targets"
	CanImportReports       Capability = "import_reports"
	CanManageDirectory     Capability = "manage_directory"
)

var rolePermissions = map[retail.Role][]Capability{
	retail.RoleEmployee:       {CanViewOwnSales, CanViewBranch},
	retail.RoleStoreManager:   {CanViewOwnSales, CanViewBranch, CanSendTasks, CanViewRegion},
	retail.RoleAreaManager:    {CanViewRegion, CanEditEmployeeTargets},
	retail.RoleGeneralManager: {CanViewAll, CanEditBranchTargets, CanEditEmployeeTargets, CanImportReports},
}

// Can reports whether the role holds the capability. Admins hold every
// capability.
func Can(role retail.Role, c Capability) bool {
	if role == retail.RoleAdmin {
		return true
	}
	for _, granted := range rolePermissions[role] {
		if granted == c {
			return true
		}
	}
	return false
}

// CanAny reports whether the role holds at least one capability. An empty
// list is always satisfied.
func CanAny(role retail.Role, caps ...Capability) bool {
	if len(caps) == 0 {
		return true
	}
	for _, c := range caps {
		if Can(role, c) {
			return true
		}
	}
	return false
}

// CapabilitiesOf lists the capabilities granted to a role.
func CapabilitiesOf(role retail.Role) []Capability {
	if role == retail.RoleAdmin {
		return []Capability{
			CanViewOwnSales, CanViewBranch, CanViewRegion, CanViewAll, CanSendTasks,
			CanEditEmployeeTargets, CanEditBranchTargets, CanImportReports, CanManageDirectory,
		}
	}
	return append([]Capability(nil), rolePermissions[role]...)
}

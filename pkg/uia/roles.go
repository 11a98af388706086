package uia

import "strings"

// roleTable maps the user-friendly role names accepted by capture_ui_snapshot's
// query.role filter to the set of underlying accessibility localized control
// type strings UI Automation reports. Kept as a data table, not code
// branches: adding a role means adding a row, not a case.
var roleTable = map[string][]string{
	"button":            {"button"},
	"textfield":         {"edit"},
	"text":              {"text", "static text"},
	"image":             {"image"},
	"menu":              {"menu"},
	"list":              {"list"},
	"table":             {"table", "data grid"},
	"checkbox":          {"check box"},
	"radio":             {"radio button"},
	"slider":            {"slider"},
	"link":              {"hyperlink"},
	"group":             {"group"},
	"window":            {"window", "pane"},
	"toolbar":           {"tool bar"},
	"menubar":           {"menu bar"},
	"menuitem":          {"menu item"},
	"popupbutton":       {"split button", "button"},
	"searchfield":       {"edit"},
	"scrollarea":        {"scroll bar", "pane"},
	"tab":               {"tab item"},
	"tabgroup":          {"tab"},
	"splitgroup":        {"split button", "pane"},
	"outline":           {"tree", "tree item"},
	"browser":           {"document", "pane"},
	"application":       {"window"},
	"combobox":          {"combo box"},
	"progressindicator": {"progress bar"},
	"disclosure":        {"button"},
	"sheet":             {"pane"},
	"drawer":            {"pane"},
	"helpbutton":        {"button"},
	"colorwell":         {"button"},
	"ruler":             {"pane"},
	"cell":              {"data item"},
	"row":               {"data item"},
	"column":            {"header"},
}

// UserRoles returns every user-facing role name the filter understands, in
// map iteration order (not sorted), used by the property tests.
func UserRoles() []string {
	names := make([]string, 0, len(roleTable))
	for name := range roleTable {
		names = append(names, name)
	}
	return names
}

// MapUserRole returns the underlying control-type strings for a user role
// name, and whether the name is recognized at all.
func MapUserRole(userRole string) ([]string, bool) {
	underlying, ok := roleTable[strings.ToLower(userRole)]
	return underlying, ok
}

// RoleMatches reports whether an element's underlying, OS-reported role
// (e.g. "edit", "check box") belongs to the family named by userRole.
func RoleMatches(userRole, underlyingRole string) bool {
	candidates, ok := MapUserRole(userRole)
	if !ok {
		return false
	}
	underlyingRole = strings.ToLower(underlyingRole)
	for _, c := range candidates {
		if c == underlyingRole {
			return true
		}
	}
	return false
}

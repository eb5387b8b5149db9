package policy

import "slices"

// Permissions is the catalog of codenames a group may carry.
var Permissions = []string{
	"todo.add_todo",
	"todo.change_todo",
	"todo.delete_todo",
	"todo.view_todo",
	"auth.add_user",
	"auth.change_user",
	"auth.delete_user",
	"auth.view_user",
	"auth.add_group",
	"auth.change_group",
	"auth.delete_group",
	"auth.view_group",
}

// IsKnownPermission reports whether codename is in the catalog.
func IsKnownPermission(codename string) bool {
	return slices.Contains(Permissions, codename)
}

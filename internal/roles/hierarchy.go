// Package roles implements the fixed role hierarchy and the access policy
// evaluated on top of it. The hierarchy is a total order over the eight
// organization roles; every rank comparison in the codebase goes through
// Level rather than ad-hoc string checks.
package roles

import "github.com/amanah-org/amanah/internal/shared"

// levels maps each role to its rank. Admin is highest, anggota lowest.
// Never mutated at runtime.
var levels = map[shared.Role]int{
	shared.RoleAdmin:            8,
	shared.RoleKetua:            7,
	shared.RoleWakilKetua:       6,
	shared.RoleSekretaris:       5,
	shared.RoleBendahara:        4,
	shared.RoleKepalaDepartemen: 3,
	shared.RoleStaf:             2,
	shared.RoleAnggota:          1,
}

// Level returns the rank of a role. Unknown roles map to 0 so that every
// comparison against them fails closed.
func Level(role shared.Role) int {
	return levels[role]
}

// Known reports whether the role is one of the eight defined roles.
func Known(role shared.Role) bool {
	_, ok := levels[role]
	return ok
}

// All returns every defined role ordered from highest to lowest rank.
func All() []shared.Role {
	return []shared.Role{
		shared.RoleAdmin,
		shared.RoleKetua,
		shared.RoleWakilKetua,
		shared.RoleSekretaris,
		shared.RoleBendahara,
		shared.RoleKepalaDepartemen,
		shared.RoleStaf,
		shared.RoleAnggota,
	}
}

// TopLevel reports whether the role belongs to the organization's core board
// (admin, ketua, wakil ketua). Core board members bypass department scoping.
func TopLevel(role shared.Role) bool {
	return Level(role) >= Level(shared.RoleWakilKetua)
}

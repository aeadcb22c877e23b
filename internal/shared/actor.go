package shared

// Role identifies a position in the organization hierarchy.
type Role string

// Organization roles, admin highest, anggota lowest.
const (
	RoleAdmin            Role = "admin"
	RoleKetua            Role = "ketua"
	RoleWakilKetua       Role = "wakil_ketua"
	RoleSekretaris       Role = "sekretaris"
	RoleBendahara        Role = "bendahara"
	RoleKepalaDepartemen Role = "kepala_departemen"
	RoleStaf             Role = "staf"
	RoleAnggota          Role = "anggota"
)

// Actor is the authenticated identity performing an operation. It is immutable
// for the duration of one request; role and department come from the verified
// token claims. A zero DepartmentID/DivisionID means the actor has none.
type Actor struct {
	ID           int64
	Role         Role
	DepartmentID int64
	DivisionID   int64
}

package petugas

import "strings"

// Role scopes what a caller may see. Anything that is not ADMIN gets the
// collector sheet allowance; the restricted-record filtering applies
// specifically to KOLEKTOR.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleKolektor Role = "KOLEKTOR"
)

func ParseRole(s string) Role {
	return Role(strings.ToUpper(strings.TrimSpace(s)))
}

func (r Role) IsAdmin() bool    { return r == RoleAdmin }
func (r Role) IsKolektor() bool { return r == RoleKolektor }

// Profile is the logged-in field officer.
type Profile struct {
	ID      string `json:"id_petugas"`
	Nama    string `json:"nama"`
	NoHP    string `json:"no_hp"`
	Jabatan string `json:"jabatan"`
	Foto    string `json:"foto"`
}

package domain

import "fmt"

// Role is the capability tier of a user.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleAdmin     Role = "admin"
)

// Capability is an action gated by role.
type Capability int

const (
	CapManageCatalog Capability = iota + 1
	CapManageUsers
	CapViewAllOrders
	CapDeleteOrders
)

var roleCapabilities = map[Role][]Capability{
	RoleUser:      nil,
	RoleAssistant: {CapManageCatalog},
	RoleAdmin:     {CapManageCatalog, CapManageUsers, CapViewAllOrders, CapDeleteOrders},
}

// ParseRole accepts only the known roles.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return r, nil
}

func (r Role) Valid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

// Can reports whether r grants c.
func (r Role) Can(c Capability) bool {
	for _, granted := range roleCapabilities[r] {
		if granted == c {
			return true
		}
	}
	return false
}

// In reports whether r is one of roles.
func (r Role) In(roles ...Role) bool {
	for _, allowed := range roles {
		if r == allowed {
			return true
		}
	}
	return false
}

func (r Role) String() string {
	return string(r)
}

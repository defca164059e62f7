package user

import "time"

// Role represents a member's role in the program
type Role string

const (
	RoleMember  Role = "member"
	RoleCashier Role = "cashier"
	RoleManager Role = "manager"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	switch r {
	case RoleMember, RoleCashier, RoleManager:
		return true
	}
	return false
}

// IsStaff reports whether the role may award points and process redemptions.
func (r Role) IsStaff() bool {
	return r == RoleCashier || r == RoleManager
}

// User is a program member. Members are never deleted. Points is a cached
// balance that only ledger operations write.
type User struct {
	ID           int64      `db:"id" json:"id"`
	UTORid       string     `db:"utorid" json:"utorid"`
	Name         string     `db:"name" json:"name"`
	Email        string     `db:"email" json:"email"`
	Birthday     *time.Time `db:"birthday" json:"birthday,omitempty"`
	Points       int64      `db:"points" json:"points"`
	Verified     bool       `db:"verified" json:"verified"`
	Suspicious   bool       `db:"suspicious" json:"suspicious"`
	Role         Role       `db:"role" json:"role"`
	PasswordHash string     `db:"password_hash" json:"-"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
}

// Actor returns the identity the member acts with.
func (u *User) Actor() Actor {
	return Actor{ID: u.ID, Role: u.Role, Verified: u.Verified}
}

// Actor identifies who performs an operation.
type Actor struct {
	ID       int64
	Role     Role
	Verified bool
}

// IsStaff reports whether the actor is a cashier or a manager.
func (a Actor) IsStaff() bool { return a.Role.IsStaff() }

// IsManager reports whether the actor is a manager.
func (a Actor) IsManager() bool { return a.Role == RoleManager }

// ListFilter narrows manager user listings.
type ListFilter struct {
	Role     Role
	Verified *bool
	Search   string
	Limit    int
	Offset   int
}

// Flags are the manager-controlled attributes of a member.
type Flags struct {
	Verified   *bool
	Suspicious *bool
	Role       *Role
}

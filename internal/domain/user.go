package domain

import "time"

type Role string

const (
	RoleStudent Role = "student"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Department   string
	IsSuspended  bool
	CreatedAt    time.Time
}

func (u *User) IsAdmin() bool { return u != nil && u.Role == RoleAdmin }

// IsStaff is true for staff and admins.
func (u *User) IsStaff() bool {
	return u != nil && (u.Role == RoleStaff || u.Role == RoleAdmin)
}

// CanManageResource reports whether u may edit, delete or decide bookings for r.
func (u *User) CanManageResource(r *Resource) bool {
	if u == nil || r == nil {
		return false
	}
	return u.IsAdmin() || r.OwnerID == u.ID
}

// CanViewBooking allows the requester and anyone managing the resource.
func (u *User) CanViewBooking(b *Booking, r *Resource) bool {
	if u == nil || b == nil {
		return false
	}
	return b.RequesterID == u.ID || u.CanManageResource(r)
}

// AdminLog records privileged actions.
type AdminLog struct {
	ID          int64
	AdminID     int64
	Action      string
	TargetTable string
	Details     string
	CreatedAt   time.Time
}

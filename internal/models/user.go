package models

import "time"

type Role string

const (
	RoleStudent Role = "student"
	RoleCoach   Role = "coach"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleCoach, RoleAdmin:
		return true
	default:
		return false
	}
}

type User struct {
	ID           int64     `json:"id"`
	UID          string    `json:"uid"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity is the authenticated caller, resolved from a verified token and
// passed explicitly into every service operation.
type Identity struct {
	UID  string
	Role Role
}

func (i Identity) IsStudent() bool { return i.Role == RoleStudent }
func (i Identity) IsCoach() bool   { return i.Role == RoleCoach }
func (i Identity) IsAdmin() bool   { return i.Role == RoleAdmin }

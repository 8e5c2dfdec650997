// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles a user document can carry.
const (
	RoleMember     = "member"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superadmin"
)

// User represents members, admins, and the superadmin.
//
// NOTE:
//   - Departments holds at most two department ids and is written only by
//     the membership ledger transactions. Once non-empty the selection is
//     locked; only an admin reassignment may change it.
//   - TotalPoints is authoritative stored state, mutated only by the
//     contribution Approve transaction.
type User struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName string             `bson:"full_name" json:"full_name"`
	Email    string             `bson:"email" json:"email"`
	EmailCI  string             `bson:"email_ci" json:"email_ci"` // lowercased, for lookups
	Role     string             `bson:"role" json:"role"`         // member | admin | superadmin

	// GoogleID links the account to the OAuth identity after first sign-in.
	GoogleID string `bson:"google_id,omitempty" json:"google_id,omitempty"`

	// PasswordHash is set only for admin accounts that use password sign-in.
	PasswordHash string `bson:"password_hash,omitempty" json:"-"`

	Departments []string            `bson:"departments" json:"departments"`
	ProjectID   *primitive.ObjectID `bson:"project_id,omitempty" json:"project_id,omitempty"`
	TotalPoints int64               `bson:"total_points" json:"total_points"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// InProject reports whether the user currently belongs to the given project.
func (u *User) InProject(projectID primitive.ObjectID) bool {
	return u.ProjectID != nil && *u.ProjectID == projectID
}

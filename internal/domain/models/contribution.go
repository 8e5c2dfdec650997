// internal/domain/models/contribution.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Contribution status lifecycle: pending → verified | rejected.
// Both verified and rejected are terminal; a transition out of pending may
// happen at most once.
const (
	ContributionPending  = "pending"
	ContributionVerified = "verified"
	ContributionRejected = "rejected"
)

// Contribution is a member-submitted work record reviewed by an admin.
type Contribution struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID primitive.ObjectID `bson:"user_id" json:"user_id"`
	// ProjectID is nil for general (non-project) contributions.
	ProjectID *primitive.ObjectID `bson:"project_id,omitempty" json:"project_id,omitempty"`

	Text      string `bson:"text" json:"text"`
	ImagePath string `bson:"image_path,omitempty" json:"image_path,omitempty"`
	ImageURL  string `bson:"image_url,omitempty" json:"image_url,omitempty"`

	Status        string `bson:"status" json:"status"`
	PointsAwarded int64  `bson:"points_awarded" json:"points_awarded"`

	CreatedAt  time.Time           `bson:"created_at" json:"created_at"`
	VerifiedBy *primitive.ObjectID `bson:"verified_by,omitempty" json:"verified_by,omitempty"`
	VerifiedAt *time.Time          `bson:"verified_at,omitempty" json:"verified_at,omitempty"`
}

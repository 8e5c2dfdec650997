// internal/domain/models/joinrequest.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// JoinRequestPending is the only status a request carries while it exists;
// approval/rejection flows are an open extension point, and withdrawal
// deletes the document.
const JoinRequestPending = "pending"

// JoinRequest asks to join a project when self-service joining is not
// possible. At most one pending request per (user, project) pair exists,
// enforced by a unique partial index.
type JoinRequest struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	ProjectID primitive.ObjectID `bson:"project_id" json:"project_id"`
	Status    string             `bson:"status" json:"status"`

	RequestedAt time.Time `bson:"requested_at" json:"requested_at"`
}

// Package requeststore brokers project join requests. A request only exists
// in the pending state; withdrawal deletes it. Approval and rejection flows
// are deliberately not implemented here.
package requeststore

import (
	"context"
	"errors"
	"time"

	"github.com/KMohnishM/Cys-FFCS/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicateRequest is returned when the user already has a pending
	// request for the project.
	ErrDuplicateRequest = errors.New("a pending request for this project already exists")

	// ErrAlreadyMember is returned when the requester is already on the team.
	ErrAlreadyMember = errors.New("requester is already a project member")

	// ErrNoPendingRequest is returned by Withdraw when nothing was deleted.
	ErrNoPendingRequest = errors.New("no pending request to withdraw")
)

type Store struct {
	c     *mongo.Collection
	projs *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:     db.Collection("join_requests"),
		projs: db.Collection("projects"),
	}
}

// Create files a pending request. Duplicates lose the insert race against
// the unique partial index rather than a read-then-write check, so two
// simultaneous submissions still yield exactly one request.
func (s *Store) Create(ctx context.Context, userID, projectID primitive.ObjectID) (models.JoinRequest, error) {
	var p models.Project
	if err := s.projs.FindOne(ctx, bson.M{"_id": projectID}).Decode(&p); err != nil {
		return models.JoinRequest{}, err
	}
	if p.HasMember(userID) {
		return models.JoinRequest{}, ErrAlreadyMember
	}

	r := models.JoinRequest{
		ID:          primitive.NewObjectID(),
		UserID:      userID,
		ProjectID:   projectID,
		Status:      models.JoinRequestPending,
		RequestedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, r); err != nil {
		if wafflemongo.IsDup(err) {
			return models.JoinRequest{}, ErrDuplicateRequest
		}
		return models.JoinRequest{}, err
	}
	return r, nil
}

// Withdraw deletes the caller's pending request for the project.
func (s *Store) Withdraw(ctx context.Context, userID, projectID primitive.ObjectID) error {
	res, err := s.c.DeleteMany(ctx, bson.M{
		"user_id":    userID,
		"project_id": projectID,
		"status":     models.JoinRequestPending,
	})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNoPendingRequest
	}
	return nil
}

// PendingForProject lists a project's open requests, oldest first.
func (s *Store) PendingForProject(ctx context.Context, projectID primitive.ObjectID) ([]models.JoinRequest, error) {
	return s.find(ctx, bson.M{"project_id": projectID, "status": models.JoinRequestPending})
}

// PendingForUser lists the user's open requests, oldest first.
func (s *Store) PendingForUser(ctx context.Context, userID primitive.ObjectID) ([]models.JoinRequest, error) {
	return s.find(ctx, bson.M{"user_id": userID, "status": models.JoinRequestPending})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.JoinRequest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "requested_at", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.JoinRequest
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

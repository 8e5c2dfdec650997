// Package reviewstore holds the append-only project review feed. Posting is
// gated on current team membership; comments are sanitized before storage.
package reviewstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/KMohnishM/Cys-FFCS/internal/domain/models"
	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotProjectMember is returned when the poster is not on the team.
	ErrNotProjectMember = errors.New("only current project members may post reviews")

	// ErrEmptyComment is returned when nothing survives sanitization.
	ErrEmptyComment = errors.New("review comment is empty")
)

type Store struct {
	c      *mongo.Collection
	projs  *mongo.Collection
	policy *bluemonday.Policy
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:      db.Collection("reviews"),
		projs:  db.Collection("projects"),
		policy: bluemonday.StrictPolicy(),
	}
}

// Add appends a review by a current member of the project.
func (s *Store) Add(ctx context.Context, projectID primitive.ObjectID, userID primitive.ObjectID, userName, comment string) (models.Review, error) {
	var p models.Project
	if err := s.projs.FindOne(ctx, bson.M{"_id": projectID}).Decode(&p); err != nil {
		return models.Review{}, err
	}
	if !p.HasMember(userID) {
		return models.Review{}, ErrNotProjectMember
	}

	clean := strings.TrimSpace(s.policy.Sanitize(comment))
	if clean == "" {
		return models.Review{}, ErrEmptyComment
	}

	r := models.Review{
		ID:        primitive.NewObjectID(),
		ProjectID: projectID,
		UserID:    userID,
		UserName:  userName,
		Comment:   clean,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, r); err != nil {
		return models.Review{}, err
	}
	return r, nil
}

// ListByProject returns a project's reviews newest-first.
func (s *Store) ListByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Review, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"project_id": projectID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Review
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

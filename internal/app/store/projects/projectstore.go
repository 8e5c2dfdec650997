// Package projectstore manages project documents. The members array is
// mutated only by the membership ledger; this store covers creation and
// queries.
package projectstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/KMohnishM/Cys-FFCS/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicateName is returned when a project with the name already exists
// in the same department.
var ErrDuplicateName = errors.New("a project with this name already exists")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("projects")}
}

// Create inserts a new project with an empty team.
func (s *Store) Create(ctx context.Context, name, description, department string) (models.Project, error) {
	now := time.Now().UTC()
	p := models.Project{
		ID:          primitive.NewObjectID(),
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Department:  department,
		Members:     []primitive.ObjectID{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if p.Name == "" {
		return models.Project{}, errors.New("project name is required")
	}
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Project{}, ErrDuplicateName
		}
		return models.Project{}, err
	}
	return p, nil
}

// GetByID loads one project.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	var p models.Project
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns all projects sorted by name.
func (s *Store) List(ctx context.Context) ([]models.Project, error) {
	return s.find(ctx, bson.M{})
}

// ListByDepartments returns projects in any of the given departments, which
// is how the projects page scopes the list to the viewer's selection.
func (s *Store) ListByDepartments(ctx context.Context, deptIDs []string) ([]models.Project, error) {
	if len(deptIDs) == 0 {
		return nil, nil
	}
	return s.find(ctx, bson.M{"department": bson.M{"$in": deptIDs}})
}

// GetByMember returns the project the user belongs to, or ErrNoDocuments.
func (s *Store) GetByMember(ctx context.Context, userID primitive.ObjectID) (*models.Project, error) {
	var p models.Project
	if err := s.c.FindOne(ctx, bson.M{"members": userID}).Decode(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Project, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var projects []models.Project
	if err := cur.All(ctx, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

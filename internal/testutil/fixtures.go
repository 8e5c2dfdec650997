// internal/testutil/fixtures.go
package testutil

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/KMohnishM/Cys-FFCS/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a user with the given role and no department selection.
func (f *Fixtures) CreateUser(ctx context.Context, name, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:          primitive.NewObjectID(),
		FullName:    name,
		Email:       email,
		EmailCI:     strings.ToLower(email),
		Role:        role,
		Departments: []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateMember inserts a member user.
func (f *Fixtures) CreateMember(ctx context.Context, name, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, name, email, models.RoleMember)
}

// CreateMemberWithPoints inserts a member carrying an existing point total.
func (f *Fixtures) CreateMemberWithPoints(ctx context.Context, name, email string, points int64) models.User {
	f.t.Helper()
	u := f.CreateUser(ctx, name, email, models.RoleMember)
	_, err := f.db.Collection("users").UpdateByID(ctx, u.ID,
		bson.M{"$set": bson.M{"total_points": points}})
	if err != nil {
		f.t.Fatalf("failed to set points: %v", err)
	}
	u.TotalPoints = points
	return u
}

// CreateAdmin inserts an admin user.
func (f *Fixtures) CreateAdmin(ctx context.Context, name, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, name, email, models.RoleAdmin)
}

// CreateDepartment inserts a department with the given capacity and fill.
func (f *Fixtures) CreateDepartment(ctx context.Context, id, name string, capacity, filled int) models.Department {
	f.t.Helper()

	now := time.Now().UTC()
	d := models.Department{
		ID:          id,
		Name:        name,
		Capacity:    capacity,
		FilledCount: filled,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("departments").InsertOne(ctx, d); err != nil {
		f.t.Fatalf("failed to create test department: %v", err)
	}
	return d
}

// CreateProject inserts a project with the given members.
func (f *Fixtures) CreateProject(ctx context.Context, name, dept string, members ...primitive.ObjectID) models.Project {
	f.t.Helper()

	if members == nil {
		members = []primitive.ObjectID{}
	}
	now := time.Now().UTC()
	p := models.Project{
		ID:          primitive.NewObjectID(),
		Name:        name,
		Description: "test project",
		Department:  dept,
		Members:     members,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("projects").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test project: %v", err)
	}
	return p
}

// CreatePendingContribution inserts a pending contribution for the user.
func (f *Fixtures) CreatePendingContribution(ctx context.Context, userID primitive.ObjectID, text string) models.Contribution {
	f.t.Helper()

	c := models.Contribution{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Text:      text,
		Status:    models.ContributionPending,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("contributions").InsertOne(ctx, c); err != nil {
		f.t.Fatalf("failed to create test contribution: %v", err)
	}
	return c
}

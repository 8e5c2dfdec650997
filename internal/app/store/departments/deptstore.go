// Package deptstore reads and seeds the departments collection. Seat counts
// (filled_count) are owned by the membership ledger; nothing here mutates
// them.
package deptstore

import (
	"context"
	"time"

	"github.com/KMohnishM/Cys-FFCS/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("departments")}
}

// GetByID loads one department by its slug id.
func (s *Store) GetByID(ctx context.Context, id string) (*models.Department, error) {
	var d models.Department
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return nil, err
	}
	return &d, nil
}

// List returns all departments sorted by name.
func (s *Store) List(ctx context.Context) ([]models.Department, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var depts []models.Department
	if err := cur.All(ctx, &depts); err != nil {
		return nil, err
	}
	return depts, nil
}

// SeedEntry describes one department to ensure during seeding.
type SeedEntry struct {
	ID       string
	Name     string
	Capacity int
}

// Defaults are the club's standing departments.
func Defaults() []SeedEntry {
	return []SeedEntry{
		{ID: "technical", Name: "Technical", Capacity: 30},
		{ID: "design", Name: "Design", Capacity: 20},
		{ID: "content", Name: "Content", Capacity: 20},
		{ID: "events", Name: "Events", Capacity: 25},
		{ID: "outreach", Name: "Outreach", Capacity: 25},
		{ID: "finance", Name: "Finance", Capacity: 10},
	}
}

// Seed upserts the given departments. Existing documents keep their
// filled_count; name and capacity are refreshed. Idempotent, safe to run on
// every admin request.
func (s *Store) Seed(ctx context.Context, entries []SeedEntry) error {
	now := time.Now().UTC()
	for _, e := range entries {
		_, err := s.c.UpdateOne(ctx,
			bson.M{"_id": e.ID},
			bson.M{
				"$set": bson.M{
					"name":       e.Name,
					"capacity":   e.Capacity,
					"updated_at": now,
				},
				"$setOnInsert": bson.M{
					"filled_count": 0,
					"created_at":   now,
				},
			},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

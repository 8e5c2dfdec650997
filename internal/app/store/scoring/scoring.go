// Package scoring derives read-only views over stored point totals: the
// leaderboard and the per-user dashboard summary. It writes nothing;
// total_points is owned by the contribution approval transaction.
package scoring

import (
	"context"

	"github.com/KMohnishM/Cys-FFCS/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	users    *mongo.Collection
	contribs *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		users:    db.Collection("users"),
		contribs: db.Collection("contributions"),
	}
}

// Entry is one leaderboard row.
type Entry struct {
	Rank        int                `json:"rank"`
	UserID      primitive.ObjectID `json:"user_id"`
	FullName    string             `json:"full_name"`
	Departments []string           `json:"departments"`
	TotalPoints int64              `json:"total_points"`
}

// Leaderboard ranks members by total points. Admin and superadmin accounts
// never appear. Ties break by _id ascending, i.e. whoever registered first.
func (s *Store) Leaderboard(ctx context.Context) ([]Entry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "total_points", Value: -1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"full_name": 1, "departments": 1, "total_points": 1})

	cur, err := s.users.Find(ctx, bson.M{"role": models.RoleMember}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var entries []Entry
	for cur.Next(ctx) {
		var u models.User
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		entries = append(entries, Entry{
			Rank:        len(entries) + 1,
			UserID:      u.ID,
			FullName:    u.FullName,
			Departments: u.Departments,
			TotalPoints: u.TotalPoints,
		})
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Summary is the dashboard view of one member's standing.
type Summary struct {
	TotalPoints int64
	Pending     int64
	Verified    int64
	Rejected    int64
}

// UserSummary reports a member's point total and contribution counts per
// status, using one aggregation over their contributions.
func (s *Store) UserSummary(ctx context.Context, userID primitive.ObjectID) (Summary, error) {
	var u models.User
	proj := options.FindOne().SetProjection(bson.M{"total_points": 1})
	if err := s.users.FindOne(ctx, bson.M{"_id": userID}, proj).Decode(&u); err != nil {
		return Summary{}, err
	}
	sum := Summary{TotalPoints: u.TotalPoints}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"user_id": userID}}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$status",
			"count": bson.M{"$sum": 1},
		}}},
	}
	cur, err := s.contribs.Aggregate(ctx, pipeline)
	if err != nil {
		return Summary{}, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var row struct {
			Status string `bson:"_id"`
			Count  int64  `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return Summary{}, err
		}
		switch row.Status {
		case models.ContributionPending:
			sum.Pending = row.Count
		case models.ContributionVerified:
			sum.Verified = row.Count
		case models.ContributionRejected:
			sum.Rejected = row.Count
		}
	}
	if err := cur.Err(); err != nil {
		return Summary{}, err
	}
	return sum, nil
}

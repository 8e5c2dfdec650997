// Package contribstore implements the contribution review workflow:
// members submit, admins approve (awarding points) or reject. Approval is
// the only writer of users.total_points.
package contribstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/KMohnishM/Cys-FFCS/internal/app/system/txn"
	"github.com/KMohnishM/Cys-FFCS/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var (
	// ErrEmptyText is returned when a submission has no text.
	ErrEmptyText = errors.New("contribution text is required")

	// ErrAlreadyProcessed is returned when approving or rejecting a
	// contribution that already left the pending state.
	ErrAlreadyProcessed = errors.New("contribution already processed")

	// ErrBadPoints is returned for negative point awards. Zero is a valid
	// award: the contribution is verified without crediting points.
	ErrBadPoints = errors.New("points must not be negative")
)

// ImageDeleter removes a stored image by path. Satisfied by pantry/storage.
type ImageDeleter interface {
	Delete(ctx context.Context, path string) error
}

type Store struct {
	db     *mongo.Database
	c      *mongo.Collection
	users  *mongo.Collection
	images ImageDeleter
	log    *zap.Logger
}

// New builds the store. images may be nil when no object storage is
// configured; rejected contributions then keep their orphaned image.
func New(db *mongo.Database, images ImageDeleter, log *zap.Logger) *Store {
	return &Store{
		db:     db,
		c:      db.Collection("contributions"),
		users:  db.Collection("users"),
		images: images,
		log:    log,
	}
}

// Submission is the member-facing input. ImagePath/ImageURL are filled by
// the handler after the image is processed and stored.
type Submission struct {
	UserID    primitive.ObjectID
	ProjectID *primitive.ObjectID
	Text      string
	ImagePath string
	ImageURL  string
}

// Submit inserts a pending contribution.
func (s *Store) Submit(ctx context.Context, sub Submission) (models.Contribution, error) {
	text := strings.TrimSpace(sub.Text)
	if text == "" {
		return models.Contribution{}, ErrEmptyText
	}

	c := models.Contribution{
		ID:        primitive.NewObjectID(),
		UserID:    sub.UserID,
		ProjectID: sub.ProjectID,
		Text:      text,
		ImagePath: sub.ImagePath,
		ImageURL:  sub.ImageURL,
		Status:    models.ContributionPending,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.Contribution{}, err
	}
	return c, nil
}

// Approve marks a pending contribution verified and credits the submitter's
// total_points, both in one transaction. A second approval of the same
// contribution returns ErrAlreadyProcessed and awards nothing.
func (s *Store) Approve(ctx context.Context, adminID, contribID primitive.ObjectID, points int64) error {
	if points < 0 {
		return ErrBadPoints
	}

	return txn.WithTransaction(ctx, s.db.Client(), func(ctx context.Context) error {
		// Read phase.
		var c models.Contribution
		if err := s.c.FindOne(ctx, bson.M{"_id": contribID}).Decode(&c); err != nil {
			return err
		}
		if c.Status != models.ContributionPending {
			return ErrAlreadyProcessed
		}
		if err := s.users.FindOne(ctx, bson.M{"_id": c.UserID}).Err(); err != nil {
			return err
		}

		// Write phase. The status filter makes the approval single-shot even
		// without a session: a concurrent approve matches zero documents.
		now := time.Now().UTC()
		res, err := s.c.UpdateOne(ctx,
			bson.M{"_id": contribID, "status": models.ContributionPending},
			bson.M{"$set": bson.M{
				"status":         models.ContributionVerified,
				"points_awarded": points,
				"verified_by":    adminID,
				"verified_at":    now,
			}})
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return ErrAlreadyProcessed
		}

		if _, err := s.users.UpdateByID(ctx, c.UserID, bson.M{
			"$inc": bson.M{"total_points": points},
			"$set": bson.M{"updated_at": now},
		}); err != nil {
			// Restore the pending status so the approval can be retried.
			if _, uerr := s.c.UpdateByID(ctx, contribID, bson.M{
				"$set":   bson.M{"status": models.ContributionPending, "points_awarded": int64(0)},
				"$unset": bson.M{"verified_by": "", "verified_at": ""},
			}); uerr != nil {
				s.log.Error("failed to restore pending status after points credit error",
					zap.String("contribution_id", contribID.Hex()),
					zap.Error(uerr))
			}
			return err
		}
		return nil
	})
}

// Reject marks a pending contribution rejected, then deletes its stored
// image best-effort. No points change hands.
func (s *Store) Reject(ctx context.Context, adminID, contribID primitive.ObjectID) error {
	var c models.Contribution
	if err := s.c.FindOne(ctx, bson.M{"_id": contribID}).Decode(&c); err != nil {
		return err
	}

	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": contribID, "status": models.ContributionPending},
		bson.M{"$set": bson.M{
			"status":      models.ContributionRejected,
			"verified_by": adminID,
			"verified_at": now,
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrAlreadyProcessed
	}

	if c.ImagePath != "" && s.images != nil {
		if err := s.images.Delete(ctx, c.ImagePath); err != nil {
			s.log.Warn("failed to delete rejected contribution image",
				zap.String("path", c.ImagePath),
				zap.Error(err))
		}
	}
	return nil
}

// GetByID loads one contribution.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Contribution, error) {
	var c models.Contribution
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ListByUser returns a member's contributions newest-first.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Contribution, error) {
	return s.find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

// ListPending returns the admin review queue, oldest-first.
func (s *Store) ListPending(ctx context.Context) ([]models.Contribution, error) {
	return s.find(ctx, bson.M{"status": models.ContributionPending},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Contribution, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Contribution
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

package userstore

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
	"golang.org/x/crypto/bcrypt"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicateEmail is returned when a user with the email already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")

	errBadRole = errors.New(`role must be "member"|"admin"|"superadmin"`)
)

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email.
// Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email_ci": normalizeEmail(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user after normalizing fields.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.FullName = strings.TrimSpace(u.FullName)
	u.Email = strings.TrimSpace(u.Email)
	u.EmailCI = normalizeEmail(u.Email)
	if u.Departments == nil {
		u.Departments = []string{}
	}

	switch u.Role {
	case models.RoleMember, models.RoleAdmin, models.RoleSuperAdmin:
		// ok
	default:
		return models.User{}, errBadRole
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// EnsureFromGoogle finds the account for a verified Google identity, creating
// a member on first sign-in. An existing account (seeded admin, prior email
// sign-up) is linked to the Google id instead of duplicated.
func (s *Store) EnsureFromGoogle(ctx context.Context, googleID, email, fullName string) (*models.User, error) {
	emailCI := normalizeEmail(email)

	var u models.User
	err := s.c.FindOne(ctx, bson.M{"email_ci": emailCI}).Decode(&u)
	switch {
	case err == nil:
		if u.GoogleID != googleID {
			_, uerr := s.c.UpdateByID(ctx, u.ID, bson.M{"$set": bson.M{
				"google_id":  googleID,
				"updated_at": time.Now().UTC(),
			}})
			if uerr != nil {
				return nil, uerr
			}
			u.GoogleID = googleID
		}
		return &u, nil

	case err == mongo.ErrNoDocuments:
		created, cerr := s.Create(ctx, models.User{
			FullName: fullName,
			Email:    email,
			Role:     models.RoleMember,
			GoogleID: googleID,
		})
		if cerr == ErrDuplicateEmail {
			// Lost a first-sign-in race; the winner's doc is what we want.
			if ferr := s.c.FindOne(ctx, bson.M{"email_ci": emailCI}).Decode(&u); ferr != nil {
				return nil, ferr
			}
			return &u, nil
		}
		if cerr != nil {
			return nil, cerr
		}
		return &created, nil

	default:
		return nil, err
	}
}

// SetRole changes a user's role.
func (s *Store) SetRole(ctx context.Context, id primitive.ObjectID, role string) error {
	switch role {
	case models.RoleMember, models.RoleAdmin, models.RoleSuperAdmin:
	default:
		return errBadRole
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"role":       role,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// VerifyPassword checks an admin's password sign-in credentials.
// Returns mongo.ErrNoDocuments for unknown emails and bcrypt's mismatch
// error for wrong passwords, so callers can show one generic message.
func (s *Store) VerifyPassword(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u.PasswordHash == "" {
		return nil, bcrypt.ErrMismatchedHashAndPassword
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, err
	}
	return u, nil
}

// EnsureSuperAdmin promotes (or creates) the configured superadmin account at
// startup. password is hashed only when a new account is created.
func (s *Store) EnsureSuperAdmin(ctx context.Context, email, fullName, password string) error {
	u, err := s.GetByEmail(ctx, email)
	if err == nil {
		if u.Role == models.RoleSuperAdmin {
			return nil
		}
		return s.SetRole(ctx, u.ID, models.RoleSuperAdmin)
	}
	if err != mongo.ErrNoDocuments {
		return err
	}

	nu := models.User{
		FullName: fullName,
		Email:    email,
		Role:     models.RoleSuperAdmin,
	}
	if password != "" {
		hash, herr := bcrypt.GenerateFromPassword([]byte(password), 12)
		if herr != nil {
			return herr
		}
		nu.PasswordHash = string(hash)
	}
	_, err = s.Create(ctx, nu)
	if err == ErrDuplicateEmail {
		return nil // concurrent startup already created it
	}
	return err
}

// ListMembers returns member-role users sorted by name, for admin pages.
func (s *Store) ListMembers(ctx context.Context) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "full_name", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"role": models.RoleMember}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// GetManyByID loads the given users, preserving no particular order.
func (s *Store) GetManyByID(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

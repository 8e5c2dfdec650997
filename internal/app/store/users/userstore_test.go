package userstore_test

import (
	"testing"

	userstore "github.com/KMohnishM/Cys-FFCS/internal/app/store/users"
	"github.com/KMohnishM/Cys-FFCS/internal/app/system/indexes"
	"github.com/KMohnishM/Cys-FFCS/internal/domain/models"
	"github.com/KMohnishM/Cys-FFCS/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Create_Member(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	created, err := store.Create(ctx, models.User{
		FullName: "Asha Rao",
		Email:    "Asha.Rao@vitstudent.ac.in",
		Role:     models.RoleMember,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID == primitive.NilObjectID {
		t.Error("expected ID to be assigned")
	}
	if created.EmailCI != "asha.rao@vitstudent.ac.in" {
		t.Errorf("EmailCI not normalized: %q", created.EmailCI)
	}
	if created.Departments == nil || len(created.Departments) != 0 {
		t.Errorf("expected empty departments slice, got %v", created.Departments)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestStore_Create_BadRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := store.Create(ctx, models.User{
		FullName: "Nobody",
		Email:    "nobody@vitstudent.ac.in",
		Role:     "owner",
	})
	if err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestStore_Create_DuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	first := models.User{FullName: "A", Email: "same@vitstudent.ac.in", Role: models.RoleMember}
	if _, err := store.Create(ctx, first); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	// Same address in a different case must still collide.
	_, err := store.Create(ctx, models.User{FullName: "B", Email: "SAME@vitstudent.ac.in", Role: models.RoleMember})
	if err != userstore.ErrDuplicateEmail {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestStore_GetByEmail_CaseInsensitive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateMember(ctx, "Asha Rao", "asha@vitstudent.ac.in")

	got, err := store.GetByEmail(ctx, "ASHA@vitstudent.ac.in")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if got.FullName != "Asha Rao" {
		t.Errorf("wrong user: %q", got.FullName)
	}

	if _, err := store.GetByEmail(ctx, "missing@vitstudent.ac.in"); err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments, got %v", err)
	}
}

func TestStore_EnsureFromGoogle_FirstSignInCreatesMember(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u, err := store.EnsureFromGoogle(ctx, "goog-123", "new@vitstudent.ac.in", "New Member")
	if err != nil {
		t.Fatalf("EnsureFromGoogle failed: %v", err)
	}
	if u.Role != models.RoleMember {
		t.Errorf("role: got %q, want member", u.Role)
	}
	if u.GoogleID != "goog-123" {
		t.Errorf("google id not recorded: %q", u.GoogleID)
	}
	if len(u.Departments) != 0 {
		t.Errorf("expected no departments on first sign-in, got %v", u.Departments)
	}
}

func TestStore_EnsureFromGoogle_LinksExistingAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	existing := fixtures.CreateAdmin(ctx, "Club Admin", "admin@vitstudent.ac.in")

	u, err := store.EnsureFromGoogle(ctx, "goog-admin", "admin@vitstudent.ac.in", "Ignored Name")
	if err != nil {
		t.Fatalf("EnsureFromGoogle failed: %v", err)
	}
	if u.ID != existing.ID {
		t.Error("expected existing account to be reused, not duplicated")
	}
	if u.Role != models.RoleAdmin {
		t.Errorf("existing role must be kept: got %q", u.Role)
	}

	// Re-read to confirm the link was persisted.
	got, err := store.GetByID(ctx, existing.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.GoogleID != "goog-admin" {
		t.Errorf("google id not linked: %q", got.GoogleID)
	}
}

func TestStore_SetRole(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateMember(ctx, "Asha Rao", "asha@vitstudent.ac.in")

	if err := store.SetRole(ctx, u.ID, models.RoleAdmin); err != nil {
		t.Fatalf("SetRole failed: %v", err)
	}
	got, err := store.GetByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Role != models.RoleAdmin {
		t.Errorf("role: got %q, want admin", got.Role)
	}

	if err := store.SetRole(ctx, u.ID, "owner"); err == nil {
		t.Error("expected error for invalid role")
	}
	if err := store.SetRole(ctx, primitive.NewObjectID(), models.RoleAdmin); err != mongo.ErrNoDocuments {
		t.Errorf("expected ErrNoDocuments for missing user, got %v", err)
	}
}

func TestStore_EnsureSuperAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.EnsureSuperAdmin(ctx, "root@vitstudent.ac.in", "Super Admin", "s3cret-pass"); err != nil {
		t.Fatalf("EnsureSuperAdmin failed: %v", err)
	}
	u, err := store.GetByEmail(ctx, "root@vitstudent.ac.in")
	if err != nil {
		t.Fatalf("GetByEmail failed: %v", err)
	}
	if u.Role != models.RoleSuperAdmin {
		t.Errorf("role: got %q, want superadmin", u.Role)
	}

	// Second run is a no-op.
	if err := store.EnsureSuperAdmin(ctx, "root@vitstudent.ac.in", "Super Admin", "other"); err != nil {
		t.Fatalf("second EnsureSuperAdmin failed: %v", err)
	}

	// Password sign-in works with the seeded hash.
	if _, err := store.VerifyPassword(ctx, "root@vitstudent.ac.in", "s3cret-pass"); err != nil {
		t.Errorf("VerifyPassword rejected correct password: %v", err)
	}
	if _, err := store.VerifyPassword(ctx, "root@vitstudent.ac.in", "wrong"); err == nil {
		t.Error("VerifyPassword accepted wrong password")
	}
}

func TestStore_VerifyPassword_NoHash(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := userstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// Google-only accounts have no password hash and must never verify.
	fixtures.CreateMember(ctx, "Asha Rao", "asha@vitstudent.ac.in")
	if _, err := store.VerifyPassword(ctx, "asha@vitstudent.ac.in", ""); err == nil {
		t.Error("expected rejection for account without password hash")
	}
}

func TestFetcher_FetchSessionUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateAdmin(ctx, "Club Admin", "admin@vitstudent.ac.in")

	f := userstore.NewFetcher(db)
	su, err := f.FetchSessionUser(ctx, u.ID.Hex())
	if err != nil {
		t.Fatalf("FetchSessionUser failed: %v", err)
	}
	if su == nil {
		t.Fatal("expected session user")
	}
	if su.Role != models.RoleAdmin || su.Name != "Club Admin" {
		t.Errorf("unexpected session user: %+v", su)
	}

	// Unknown and malformed ids degrade to anonymous, not errors.
	if su, err := f.FetchSessionUser(ctx, primitive.NewObjectID().Hex()); err != nil || su != nil {
		t.Errorf("missing user: got (%v, %v), want (nil, nil)", su, err)
	}
	if su, err := f.FetchSessionUser(ctx, "not-an-oid"); err != nil || su != nil {
		t.Errorf("malformed id: got (%v, %v), want (nil, nil)", su, err)
	}
}

package scoring_test

import (
	"testing"

	"github.com/KMohnishM/Cys-FFCS/internal/app/store/scoring"
	"github.com/KMohnishM/Cys-FFCS/internal/domain/models"
	"github.com/KMohnishM/Cys-FFCS/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestLeaderboard_OrderAndExclusion(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := scoring.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fixtures.CreateMemberWithPoints(ctx, "Low", "low@vitstudent.ac.in", 10)
	fixtures.CreateMemberWithPoints(ctx, "High", "high@vitstudent.ac.in", 90)
	fixtures.CreateMemberWithPoints(ctx, "Mid", "mid@vitstudent.ac.in", 40)

	// Staff never appear, whatever their points.
	admin := fixtures.CreateAdmin(ctx, "Club Admin", "admin@vitstudent.ac.in")
	if _, err := db.Collection("users").UpdateByID(ctx, admin.ID,
		bson.M{"$set": bson.M{"total_points": int64(999)}}); err != nil {
		t.Fatalf("set admin points: %v", err)
	}
	fixtures.CreateUser(ctx, "Root", "root@vitstudent.ac.in", models.RoleSuperAdmin)

	entries, err := store.Leaderboard(ctx)
	if err != nil {
		t.Fatalf("Leaderboard failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entry count: got %d, want 3 (staff excluded)", len(entries))
	}
	wantOrder := []string{"High", "Mid", "Low"}
	for i, want := range wantOrder {
		if entries[i].FullName != want {
			t.Errorf("rank %d: got %q, want %q", i+1, entries[i].FullName, want)
		}
		if entries[i].Rank != i+1 {
			t.Errorf("rank field: got %d, want %d", entries[i].Rank, i+1)
		}
	}
}

func TestLeaderboard_TieBreaksByInsertionOrder(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := scoring.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	first := fixtures.CreateMemberWithPoints(ctx, "First", "first@vitstudent.ac.in", 50)
	second := fixtures.CreateMemberWithPoints(ctx, "Second", "second@vitstudent.ac.in", 50)

	entries, err := store.Leaderboard(ctx)
	if err != nil {
		t.Fatalf("Leaderboard failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entry count: got %d, want 2", len(entries))
	}
	if entries[0].UserID != first.ID || entries[1].UserID != second.ID {
		t.Error("tie not broken by insertion order")
	}
}

func TestUserSummary(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := scoring.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateMemberWithPoints(ctx, "Asha Rao", "asha@vitstudent.ac.in", 30)

	fixtures.CreatePendingContribution(ctx, u.ID, "one")
	fixtures.CreatePendingContribution(ctx, u.ID, "two")
	c := fixtures.CreatePendingContribution(ctx, u.ID, "three")
	if _, err := db.Collection("contributions").UpdateByID(ctx, c.ID,
		bson.M{"$set": bson.M{"status": models.ContributionVerified}}); err != nil {
		t.Fatalf("mark verified: %v", err)
	}

	sum, err := store.UserSummary(ctx, u.ID)
	if err != nil {
		t.Fatalf("UserSummary failed: %v", err)
	}
	if sum.TotalPoints != 30 {
		t.Errorf("total points: got %d, want 30", sum.TotalPoints)
	}
	if sum.Pending != 2 || sum.Verified != 1 || sum.Rejected != 0 {
		t.Errorf("counts: got %+v", sum)
	}
}

func TestUserSummary_UnknownUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := scoring.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.UserSummary(ctx, primitive.NewObjectID()); err != mongo.ErrNoDocuments {
		t.Errorf("got %v, want ErrNoDocuments", err)
	}
}

package reviewstore_test

import (
	"strings"
	"testing"
	"time"

	reviewstore "github.com/KMohnishM/Cys-FFCS/internal/app/store/reviews"
	"github.com/KMohnishM/Cys-FFCS/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_Add_MemberOnly(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := reviewstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	member := fixtures.CreateMember(ctx, "Asha Rao", "asha@vitstudent.ac.in")
	outsider := fixtures.CreateMember(ctx, "Ravi", "ravi@vitstudent.ac.in")
	p := fixtures.CreateProject(ctx, "Alpha", "technical", member.ID)

	r, err := store.Add(ctx, p.ID, member.ID, "Asha Rao", "great progress this sprint")
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if r.Comment != "great progress this sprint" {
		t.Errorf("comment: %q", r.Comment)
	}

	if _, err := store.Add(ctx, p.ID, outsider.ID, "Ravi", "drive-by comment"); err != reviewstore.ErrNotProjectMember {
		t.Errorf("outsider: got %v, want ErrNotProjectMember", err)
	}
}

func TestStore_Add_SanitizesMarkup(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := reviewstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	member := fixtures.CreateMember(ctx, "Asha Rao", "asha@vitstudent.ac.in")
	p := fixtures.CreateProject(ctx, "Alpha", "technical", member.ID)

	r, err := store.Add(ctx, p.ID, member.ID, "Asha Rao",
		`looks <script>alert("xss")</script> good`)
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if strings.Contains(r.Comment, "<script>") || strings.Contains(r.Comment, "alert") {
		t.Errorf("markup survived sanitization: %q", r.Comment)
	}

	// A comment that is nothing but markup is rejected.
	if _, err := store.Add(ctx, p.ID, member.ID, "Asha Rao", "<img src=x onerror=alert(1)>"); err != reviewstore.ErrEmptyComment {
		t.Errorf("markup-only comment: got %v, want ErrEmptyComment", err)
	}
}

func TestStore_ListByProject_NewestFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := reviewstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	member := fixtures.CreateMember(ctx, "Asha Rao", "asha@vitstudent.ac.in")
	p := fixtures.CreateProject(ctx, "Alpha", "technical", member.ID)
	other := fixtures.CreateProject(ctx, "Beta", "design", member.ID)

	if _, err := store.Add(ctx, p.ID, member.ID, "Asha Rao", "first"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	time.Sleep(5 * time.Millisecond) // created_at has millisecond precision
	if _, err := store.Add(ctx, p.ID, member.ID, "Asha Rao", "second"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if _, err := store.Add(ctx, other.ID, member.ID, "Asha Rao", "elsewhere"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	got, err := store.ListByProject(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListByProject failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("review count: got %d, want 2", len(got))
	}
	if got[0].Comment != "second" {
		t.Errorf("expected newest review first, got %q", got[0].Comment)
	}
}

func TestStore_Add_UnknownProject(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := reviewstore.New(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	member := fixtures.CreateMember(ctx, "Asha Rao", "asha@vitstudent.ac.in")
	if _, err := store.Add(ctx, primitive.NewObjectID(), member.ID, "Asha Rao", "hi"); err != mongo.ErrNoDocuments {
		t.Errorf("got %v, want ErrNoDocuments", err)
	}
}

package indexes_test

import (
	"testing"

	"github.com/KMohnishM/Cys-FFCS/internal/app/system/indexes"
	"github.com/KMohnishM/Cys-FFCS/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
)

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("first EnsureAll failed: %v", err)
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_PendingRequestUniqueness(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	coll := db.Collection("join_requests")
	doc := bson.M{"user_id": "u1", "project_id": "p1", "status": "pending"}
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if _, err := coll.InsertOne(ctx, bson.M{"user_id": "u1", "project_id": "p1", "status": "pending"}); err == nil {
		t.Error("duplicate pending request insert should fail")
	}
	// A non-pending duplicate is allowed (historical records).
	if _, err := coll.InsertOne(ctx, bson.M{"user_id": "u1", "project_id": "p1", "status": "withdrawn"}); err != nil {
		t.Errorf("non-pending duplicate should be allowed: %v", err)
	}
}

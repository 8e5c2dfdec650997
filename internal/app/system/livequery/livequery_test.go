package livequery_test

import (
	"context"
	"testing"
	"time"

	"github.com/KMohnishM/Cys-FFCS/internal/app/system/livequery"
	"github.com/KMohnishM/Cys-FFCS/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func TestSubscribe_DeliversInsert(t *testing.T) {
	db := testutil.SetupTestDB(t)
	coll := db.Collection("livequery_probe")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sub := livequery.Subscribe(ctx, coll, zap.NewNop())
	defer sub.Close()

	// Let the watcher settle before writing; the poller fallback records its
	// start time on the first sweep.
	time.Sleep(200 * time.Millisecond)

	res, err := coll.InsertOne(ctx, bson.M{"name": "probe", "updated_at": time.Now().UTC()})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}

	deadline := time.After(10 * time.Second)
	for {
		select {
		case ev, ok := <-sub.Events:
			if !ok {
				t.Fatal("events channel closed before delivery")
			}
			if ev.DocumentID == res.InsertedID {
				return
			}
		case <-deadline:
			t.Fatal("no event delivered within deadline")
		}
	}
}

func TestSubscription_CloseStopsEvents(t *testing.T) {
	db := testutil.SetupTestDB(t)
	coll := db.Collection("livequery_probe")

	sub := livequery.Subscribe(context.Background(), coll, zap.NewNop())
	sub.Close()

	select {
	case _, ok := <-sub.Events:
		if ok {
			t.Error("expected closed channel after Close")
		}
	case <-time.After(5 * time.Second):
		t.Error("events channel not closed after Close")
	}
}

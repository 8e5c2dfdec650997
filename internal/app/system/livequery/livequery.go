// internal/app/system/livequery/livequery.go

// Package livequery delivers change notifications for one collection over a
// channel. It prefers MongoDB change streams and falls back to polling on
// deployments that do not support them (standalone servers). Delivery is
// at-least-once; consumers reconcile by document id.
package livequery

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Event describes one observed change.
type Event struct {
	DocumentID primitive.ObjectID
	Payload    bson.M
}

// DefaultPollInterval paces the fallback poller.
const DefaultPollInterval = 3 * time.Second

// Subscription streams Events until Close or context cancellation.
type Subscription struct {
	Events <-chan Event

	cancel context.CancelFunc
	done   chan struct{}
}

// Close stops the subscription and waits for its goroutine to exit.
func (s *Subscription) Close() {
	s.cancel()
	<-s.done
}

// Subscribe watches coll for inserts, updates, and replaces. The filter is
// applied client-side to the changed document in polling mode and is nil-safe.
func Subscribe(ctx context.Context, coll *mongo.Collection, log *zap.Logger) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	events := make(chan Event, 16)
	sub := &Subscription{
		Events: events,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(sub.done)
		defer close(events)

		if runChangeStream(ctx, coll, events, log) {
			return
		}
		// Change streams unavailable (standalone server); poll instead.
		runPoller(ctx, coll, events, log)
	}()

	return sub
}

// runChangeStream returns true if the stream ran until cancellation, false if
// it could not be opened and the caller should fall back to polling.
func runChangeStream(ctx context.Context, coll *mongo.Collection, events chan<- Event, log *zap.Logger) bool {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"operationType": bson.M{"$in": bson.A{"insert", "update", "replace"}},
		}}},
	}
	cs, err := coll.Watch(ctx, pipeline)
	if err != nil {
		log.Info("change streams unavailable, falling back to polling",
			zap.String("collection", coll.Name()),
			zap.Error(err))
		return false
	}
	defer cs.Close(context.Background())

	for cs.Next(ctx) {
		var change struct {
			DocumentKey struct {
				ID primitive.ObjectID `bson:"_id"`
			} `bson:"documentKey"`
			FullDocument bson.M `bson:"fullDocument"`
		}
		if err := cs.Decode(&change); err != nil {
			log.Warn("decode change event", zap.Error(err))
			continue
		}
		select {
		case events <- Event{DocumentID: change.DocumentKey.ID, Payload: change.FullDocument}:
		case <-ctx.Done():
			return true
		}
	}
	if err := cs.Err(); err != nil && ctx.Err() == nil {
		log.Warn("change stream ended", zap.Error(err))
	}
	return true
}

// runPoller emits an event for every document whose updated_at advanced past
// the previous sweep. Coarser than a change stream but the same at-least-once
// contract.
func runPoller(ctx context.Context, coll *mongo.Collection, events chan<- Event, log *zap.Logger) {
	ticker := time.NewTicker(DefaultPollInterval)
	defer ticker.Stop()

	since := time.Now().UTC()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		sweep := time.Now().UTC()
		cur, err := coll.Find(ctx, bson.M{"updated_at": bson.M{"$gte": since}})
		if err != nil {
			if ctx.Err() == nil {
				log.Warn("livequery poll", zap.Error(err))
			}
			continue
		}
		for cur.Next(ctx) {
			var doc bson.M
			if err := cur.Decode(&doc); err != nil {
				continue
			}
			id, ok := doc["_id"].(primitive.ObjectID)
			if !ok {
				continue
			}
			select {
			case events <- Event{DocumentID: id, Payload: doc}:
			case <-ctx.Done():
				cur.Close(context.Background())
				return
			}
		}
		cur.Close(ctx)
		since = sweep
	}
}

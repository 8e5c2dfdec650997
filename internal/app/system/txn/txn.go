// internal/app/system/txn/txn.go

// Package txn runs multi-document business logic as MongoDB transactions.
//
// Callbacks must follow a strict read-then-write discipline:
//
//  1. read phase  — fetch every document the decision needs
//  2. decision    — validate invariants purely from the values read
//  3. write phase — issue all writes; no read after the first write
//
// The driver retries the whole callback when another committed writer
// invalidates a read (TransientTransactionError), so callbacks must be
// side-effect-free and safely repeatable: no user-visible output, no
// storage uploads, nothing that cannot run twice.
//
// Transactions require a replica set or mongos. On standalone servers
// WithTransaction falls back to running the callback without a session;
// callers keep correctness there by making every write a guarded update
// whose filter re-asserts the precondition read in phase 1 (for example
// filled_count < capacity, or status == "pending") and by treating a
// non-matching guarded write as an invariant failure.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// Body is the retryable transaction callback. Every store operation inside
// must use the passed context so it joins the session.
type Body func(ctx context.Context) error

// WithTransaction executes body inside a majority read/write transaction.
//
// Application errors returned by body abort the transaction (no partial
// commit) and are returned unchanged, so sentinel errors like
// ErrDepartmentFull survive for the caller to match on. If the server does
// not support transactions at all, body runs once without a session.
func WithTransaction(ctx context.Context, client *mongo.Client, body Body) error {
	sess, err := client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return body(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	opts := options.Transaction().
		SetReadConcern(readconcern.Majority()).
		SetWriteConcern(writeconcern.Majority())

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, body(sc)
	}, opts)

	if err != nil && IsNotSupported(err) {
		return body(ctx)
	}
	return err
}

// IsNotSupported reports whether err indicates the deployment cannot run
// multi-document transactions (standalone server, no sessions).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		// 20 IllegalOperation, 51 — transaction numbers need a replica set;
		// 263 OperationNotSupportedInTransaction.
		switch ce.Code {
		case 20, 51, 263:
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "transaction") && strings.Contains(msg, "replica set") {
		return true
	}
	if strings.Contains(msg, "session") && strings.Contains(msg, "not supported") {
		return true
	}
	if strings.Contains(msg, "transaction") && strings.Contains(msg, "session") {
		return true
	}
	if strings.Contains(msg, "illegal operation") && strings.Contains(msg, "transaction") {
		return true
	}
	return false
}

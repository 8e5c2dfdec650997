// Package ledger owns every write that crosses the membership invariants:
// department seat counts, the user's department selection, and project
// team rosters. Each operation runs as one transaction whose callback reads
// everything first, decides, then writes with guarded updates — the guards
// re-assert the preconditions so the writes stay safe even on deployments
// where the transaction harness falls back to plain execution.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KMohnishM/Cys-FFCS/internal/app/system/txn"
	"github.com/KMohnishM/Cys-FFCS/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// RequiredDepartments is how many departments a member must pick, exactly.
const RequiredDepartments = 2

var (
	// ErrWrongSelectionCount is returned when the selection is not exactly
	// RequiredDepartments distinct departments.
	ErrWrongSelectionCount = fmt.Errorf("select exactly %d distinct departments", RequiredDepartments)

	// ErrAlreadySelected is returned when the member's selection is locked.
	ErrAlreadySelected = errors.New("departments already selected")

	// ErrUnknownDepartment is returned when a selected department does not exist.
	ErrUnknownDepartment = errors.New("unknown department")

	// ErrDepartmentFull is returned when a selected department has no free seat.
	ErrDepartmentFull = errors.New("department is full")

	// ErrProjectFull is returned when the project team is at capacity.
	ErrProjectFull = errors.New("project team is full")
)

type Ledger struct {
	db    *mongo.Database
	users *mongo.Collection
	depts *mongo.Collection
	projs *mongo.Collection
	log   *zap.Logger
}

func New(db *mongo.Database, log *zap.Logger) *Ledger {
	return &Ledger{
		db:    db,
		users: db.Collection("users"),
		depts: db.Collection("departments"),
		projs: db.Collection("projects"),
		log:   log,
	}
}

// hasSeatFilter matches a department only while it still has a free seat
// (capacity 0 = unlimited). Paired with $inc it makes seat claims safe
// without a session.
func hasSeatFilter(deptID string) bson.M {
	return bson.M{
		"_id": deptID,
		"$or": bson.A{
			bson.M{"capacity": 0},
			bson.M{"$expr": bson.M{"$lt": bson.A{"$filled_count", "$capacity"}}},
		},
	}
}

// undoStack collects compensating writes. Inside a committed transaction the
// compensations never run (the abort discards everything); in fallback mode
// they restore counters already touched before a guard failed.
type undoStack []func(ctx context.Context)

func (u *undoStack) push(fn func(ctx context.Context)) { *u = append(*u, fn) }

func (u undoStack) run(ctx context.Context) {
	for i := len(u) - 1; i >= 0; i-- {
		u[i](ctx)
	}
}

// claimSeat increments a department's seat counter, guarded by capacity.
func (l *Ledger) claimSeat(ctx context.Context, deptID string, undo *undoStack) error {
	res, err := l.depts.UpdateOne(ctx, hasSeatFilter(deptID), bson.M{
		"$inc": bson.M{"filled_count": 1},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", ErrDepartmentFull, deptID)
	}
	undo.push(func(ctx context.Context) {
		if err := l.releaseSeat(ctx, deptID); err != nil {
			l.log.Error("failed to release claimed seat during rollback",
				zap.String("department_id", deptID),
				zap.Error(err))
		}
	})
	return nil
}

// releaseSeat decrements a seat counter, never below zero.
func (l *Ledger) releaseSeat(ctx context.Context, deptID string) error {
	_, err := l.depts.UpdateOne(ctx,
		bson.M{"_id": deptID, "filled_count": bson.M{"$gt": 0}},
		bson.M{
			"$inc": bson.M{"filled_count": -1},
			"$set": bson.M{"updated_at": time.Now().UTC()},
		})
	return err
}

// SelectDepartments records a member's one-time selection of exactly
// RequiredDepartments departments, claiming a seat in each. The selection is
// locked once non-empty; only AdminReassignDepartments may change it.
func (l *Ledger) SelectDepartments(ctx context.Context, userID primitive.ObjectID, deptIDs []string) error {
	deptIDs = distinct(deptIDs)
	if len(deptIDs) != RequiredDepartments {
		return ErrWrongSelectionCount
	}

	return txn.WithTransaction(ctx, l.db.Client(), func(ctx context.Context) error {
		// Read phase.
		var u models.User
		if err := l.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&u); err != nil {
			return err
		}
		if len(u.Departments) > 0 {
			return ErrAlreadySelected
		}
		for _, id := range deptIDs {
			var d models.Department
			if err := l.depts.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
				if err == mongo.ErrNoDocuments {
					return fmt.Errorf("%w: %s", ErrUnknownDepartment, id)
				}
				return err
			}
			if !d.HasSeat() {
				return fmt.Errorf("%w: %s", ErrDepartmentFull, d.ID)
			}
		}

		// Write phase.
		var undo undoStack
		for _, id := range deptIDs {
			if err := l.claimSeat(ctx, id, &undo); err != nil {
				undo.run(ctx)
				return err
			}
		}
		res, err := l.users.UpdateOne(ctx,
			bson.M{"_id": userID, "departments": bson.M{"$size": 0}},
			bson.M{"$set": bson.M{
				"departments": deptIDs,
				"updated_at":  time.Now().UTC(),
			}})
		if err != nil {
			undo.run(ctx)
			return err
		}
		if res.MatchedCount == 0 {
			// Another request locked the selection between read and write.
			undo.run(ctx)
			return ErrAlreadySelected
		}
		return nil
	})
}

// AdminReassignDepartments replaces a member's selection, releasing seats in
// departments they leave and claiming seats in departments they enter.
func (l *Ledger) AdminReassignDepartments(ctx context.Context, targetUserID primitive.ObjectID, newDeptIDs []string) error {
	newDeptIDs = distinct(newDeptIDs)
	if len(newDeptIDs) > RequiredDepartments {
		return ErrWrongSelectionCount
	}

	return txn.WithTransaction(ctx, l.db.Client(), func(ctx context.Context) error {
		// Read phase.
		var u models.User
		if err := l.users.FindOne(ctx, bson.M{"_id": targetUserID}).Decode(&u); err != nil {
			return err
		}
		arrivals := diff(newDeptIDs, u.Departments)
		departures := diff(u.Departments, newDeptIDs)

		for _, id := range arrivals {
			var d models.Department
			if err := l.depts.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
				if err == mongo.ErrNoDocuments {
					return fmt.Errorf("%w: %s", ErrUnknownDepartment, id)
				}
				return err
			}
			if !d.HasSeat() {
				return fmt.Errorf("%w: %s", ErrDepartmentFull, d.ID)
			}
		}

		// Write phase.
		var undo undoStack
		for _, id := range arrivals {
			if err := l.claimSeat(ctx, id, &undo); err != nil {
				undo.run(ctx)
				return err
			}
		}
		for _, id := range departures {
			id := id
			if err := l.releaseSeat(ctx, id); err != nil {
				undo.run(ctx)
				return err
			}
			undo.push(func(ctx context.Context) {
				if _, err := l.depts.UpdateOne(ctx, bson.M{"_id": id},
					bson.M{"$inc": bson.M{"filled_count": 1}}); err != nil {
					l.log.Error("failed to restore released seat during rollback",
						zap.String("department_id", id),
						zap.Error(err))
				}
			})
		}
		if _, err := l.users.UpdateByID(ctx, targetUserID, bson.M{"$set": bson.M{
			"departments": newDeptIDs,
			"updated_at":  time.Now().UTC(),
		}}); err != nil {
			undo.run(ctx)
			return err
		}
		return nil
	})
}

// ResetDepartments clears a member's selection and releases their seats,
// letting them pick again.
func (l *Ledger) ResetDepartments(ctx context.Context, targetUserID primitive.ObjectID) error {
	return l.AdminReassignDepartments(ctx, targetUserID, nil)
}

// JoinProject puts the user on the project's team. A user already on the
// team is a no-op; a user on a different team leaves it in the same
// transaction, so "at most one project per user" holds throughout.
func (l *Ledger) JoinProject(ctx context.Context, userID, projectID primitive.ObjectID) error {
	return txn.WithTransaction(ctx, l.db.Client(), func(ctx context.Context) error {
		// Read phase.
		var u models.User
		if err := l.users.FindOne(ctx, bson.M{"_id": userID}).Decode(&u); err != nil {
			return err
		}
		var p models.Project
		if err := l.projs.FindOne(ctx, bson.M{"_id": projectID}).Decode(&p); err != nil {
			return err
		}
		if p.HasMember(userID) {
			return nil
		}
		if len(p.Members) >= models.MaxProjectMembers {
			return ErrProjectFull
		}

		// Write phase.
		var undo undoStack
		if u.ProjectID != nil {
			oldID := *u.ProjectID
			if _, err := l.projs.UpdateByID(ctx, oldID, bson.M{
				"$pull": bson.M{"members": userID},
				"$set":  bson.M{"updated_at": time.Now().UTC()},
			}); err != nil {
				return err
			}
			undo.push(func(ctx context.Context) {
				if _, err := l.projs.UpdateByID(ctx, oldID,
					bson.M{"$addToSet": bson.M{"members": userID}}); err != nil {
					l.log.Error("failed to restore previous team roster during rollback",
						zap.String("project_id", oldID.Hex()),
						zap.String("user_id", userID.Hex()),
						zap.Error(err))
				}
			})
		}

		res, err := l.projs.UpdateOne(ctx,
			bson.M{
				"_id":     projectID,
				"members": bson.M{"$ne": userID},
				"$expr":   bson.M{"$lt": bson.A{bson.M{"$size": "$members"}, models.MaxProjectMembers}},
			},
			bson.M{
				"$push": bson.M{"members": userID},
				"$set":  bson.M{"updated_at": time.Now().UTC()},
			})
		if err != nil {
			undo.run(ctx)
			return err
		}
		if res.MatchedCount == 0 {
			// Seat taken between read and write.
			undo.run(ctx)
			return ErrProjectFull
		}

		if _, err := l.users.UpdateByID(ctx, userID, bson.M{"$set": bson.M{
			"project_id": projectID,
			"updated_at": time.Now().UTC(),
		}}); err != nil {
			undo.run(ctx)
			return err
		}
		return nil
	})
}

// LeaveProject removes the user from the project's team and clears their
// project pointer. Leaving a project the user is not on is a no-op.
func (l *Ledger) LeaveProject(ctx context.Context, userID, projectID primitive.ObjectID) error {
	return txn.WithTransaction(ctx, l.db.Client(), func(ctx context.Context) error {
		if _, err := l.projs.UpdateByID(ctx, projectID, bson.M{
			"$pull": bson.M{"members": userID},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		}); err != nil {
			return err
		}
		// Only clear the pointer when it names this project, so leaving a
		// stale project cannot detach the user from their current one.
		_, err := l.users.UpdateOne(ctx,
			bson.M{"_id": userID, "project_id": projectID},
			bson.M{
				"$unset": bson.M{"project_id": ""},
				"$set":   bson.M{"updated_at": time.Now().UTC()},
			})
		return err
	})
}

func distinct(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// diff returns the elements of a not present in b.
func diff(a, b []string) []string {
	inB := make(map[string]struct{}, len(b))
	for _, id := range b {
		inB[id] = struct{}{}
	}
	var out []string
	for _, id := range a {
		if _, ok := inB[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

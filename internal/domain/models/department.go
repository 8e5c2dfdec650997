// internal/domain/models/department.go
package models

import "time"

// Department is a capacity-limited group a member joins during selection.
//
// FilledCount is a denormalized seat counter. It must always equal the
// number of users whose departments array contains this id, which is why it
// is only ever changed by the membership ledger's transactional
// increment/decrement, never recomputed from a scan.
type Department struct {
	ID          string `bson:"_id" json:"dept_id"` // short slug, e.g. "technical"
	Name        string `bson:"name" json:"name"`
	Capacity    int    `bson:"capacity" json:"capacity"` // 0 = unlimited
	FilledCount int    `bson:"filled_count" json:"filled_count"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasSeat reports whether the department can take one more member,
// based on the values read in the current transaction.
func (d *Department) HasSeat() bool {
	return d.Capacity == 0 || d.FilledCount < d.Capacity
}

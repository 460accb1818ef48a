// Package calendar holds the pure parts of the calendar engine: day
// bucketing of entities and month grid construction.
package calendar

import (
	"sort"
	"time"

	"projcal/internal/model"
)

// Bucket maps a day key (YYYY-MM-DD) to the entities due that day, in fetch
// order. A missing key means the day is empty.
type Bucket map[string][]model.Entity

// Aggregate groups entities by the local calendar day of their due date.
//
// Lists are consumed in the order given (projects, epics, tasks by
// convention) and order is preserved inside each day. Entities with no due
// date, or one that does not parse, are skipped.
func Aggregate(loc *time.Location, lists ...[]model.Entity) Bucket {
	if loc == nil {
		loc = time.Local
	}
	out := Bucket{}
	for _, list := range lists {
		for _, e := range list {
			if e == nil {
				continue
			}
			due, ok := ParseDue(e.DueRaw(), loc)
			if !ok {
				continue
			}
			key := DayKey(due)
			out[key] = append(out[key], e)
		}
	}
	return out
}

// At returns the entities due on day (in day's location).
func (b Bucket) At(day time.Time) []model.Entity {
	if b == nil {
		return nil
	}
	return b[DayKey(day)]
}

// Keys returns the non-empty day keys in chronological order.
func (b Bucket) Keys() []string {
	keys := make([]string, 0, len(b))
	for k, v := range b {
		if len(v) > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Count returns the number of bucketed entities.
func (b Bucket) Count() int {
	n := 0
	for _, v := range b {
		n += len(v)
	}
	return n
}

// Between returns a copy restricted to keys in [from, to] (inclusive,
// compared as day keys). Empty bounds are open.
func (b Bucket) Between(from, to string) Bucket {
	out := Bucket{}
	for k, v := range b {
		if from != "" && k < from {
			continue
		}
		if to != "" && k > to {
			continue
		}
		out[k] = append([]model.Entity(nil), v...)
	}
	return out
}

// Refs projects the bucket into plain rows for JSON/EDN output.
func (b Bucket) Refs() map[string][]model.Ref {
	out := make(map[string][]model.Ref, len(b))
	for _, k := range b.Keys() {
		rows := make([]model.Ref, 0, len(b[k]))
		for _, e := range b[k] {
			rows = append(rows, model.RefOf(e))
		}
		out[k] = rows
	}
	return out
}

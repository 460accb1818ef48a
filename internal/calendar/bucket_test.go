package calendar

import (
	"reflect"
	"testing"
	"time"

	"projcal/internal/model"
)

func strp(s string) *string { return &s }

func TestAggregate_ScenarioDropsUndatedEntities(t *testing.T) {
	projects := []model.Entity{model.Project{ID: 1, Title: "Launch", DueDate: strp("2024-03-05T10:00:00Z")}}
	epics := []model.Entity{model.Epic{ID: 3, Title: "Billing", DueDate: nil}}
	tasks := []model.Entity{model.Task{ID: 7, Title: "Wire API", DueDate: strp("2024-03-05T23:00:00Z")}}

	b := Aggregate(time.UTC, projects, epics, tasks)

	if got := b.Keys(); !reflect.DeepEqual(got, []string{"2024-03-05"}) {
		t.Fatalf("keys=%v", got)
	}
	day := b["2024-03-05"]
	if len(day) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(day))
	}
	if model.Key(day[0]) != "project-1" || model.Key(day[1]) != "task-7" {
		t.Fatalf("unexpected order: %s, %s", model.Key(day[0]), model.Key(day[1]))
	}
}

func TestAggregate_PartitionsByLocalDay(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	tasks := []model.Entity{
		// 2024-03-06T02:00Z is still March 5th at UTC-5.
		model.Task{ID: 1, Title: "a", DueDate: strp("2024-03-06T02:00:00Z")},
		model.Task{ID: 2, Title: "b", DueDate: strp("2024-03-06T12:00:00Z")},
		model.Task{ID: 3, Title: "c", DueDate: strp("2024-03-06")},
		model.Task{ID: 4, Title: "d", DueDate: strp("2024-03-05T08:30:00")},
		model.Task{ID: 5, Title: "e", DueDate: strp("not a date")},
		model.Task{ID: 6, Title: "f", DueDate: strp("   ")},
	}
	b := Aggregate(loc, tasks)

	want := map[string][]int{
		"2024-03-05": {1, 4},
		"2024-03-06": {2, 3},
	}
	if len(b) != len(want) {
		t.Fatalf("keys=%v", b.Keys())
	}
	seen := map[int]int{}
	for key, ids := range want {
		got := b[key]
		if len(got) != len(ids) {
			t.Fatalf("%s: got %d entities, want %d", key, len(got), len(ids))
		}
		for i, id := range ids {
			if got[i].EntityID() != id {
				t.Fatalf("%s[%d]: got id %d, want %d", key, i, got[i].EntityID(), id)
			}
			due, ok := ParseDue(got[i].DueRaw(), loc)
			if !ok || DayKey(due) != key {
				t.Fatalf("%s holds entity due %q", key, got[i].DueRaw())
			}
			seen[id]++
		}
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("entity %d appears %d times", id, n)
		}
	}
	if b.Count() != 4 {
		t.Fatalf("Count=%d, want 4", b.Count())
	}
}

func TestAggregate_PreservesOrderAcrossLists(t *testing.T) {
	due := strp("2024-05-01T09:00:00Z")
	b := Aggregate(time.UTC,
		[]model.Entity{model.Project{ID: 2, DueDate: due}, model.Project{ID: 1, DueDate: due}},
		[]model.Entity{model.Epic{ID: 9, DueDate: due}},
		[]model.Entity{model.Task{ID: 5, DueDate: due}, model.Task{ID: 4, DueDate: due}},
	)
	var got []string
	for _, e := range b["2024-05-01"] {
		got = append(got, model.Key(e))
	}
	want := []string{"project-2", "project-1", "epic-9", "task-5", "task-4"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("order=%v, want %v", got, want)
	}
}

func TestAggregate_Idempotent(t *testing.T) {
	lists := [][]model.Entity{
		{model.Project{ID: 1, DueDate: strp("2024-01-31T22:00:00Z")}},
		{model.Epic{ID: 2, DueDate: strp("2024-02-01T01:00:00Z")}, model.Epic{ID: 3}},
		{model.Task{ID: 4, DueDate: strp("2024-01-31")}},
	}
	a := Aggregate(time.UTC, lists...)
	b := Aggregate(time.UTC, lists...)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("aggregate is not idempotent:\n%v\n%v", a, b)
	}
}

func TestAggregate_EmptyInput(t *testing.T) {
	b := Aggregate(time.UTC)
	if len(b) != 0 || b.Count() != 0 {
		t.Fatalf("expected empty bucket, got %v", b)
	}
	if got := b.At(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)); got != nil {
		t.Fatalf("absent key should be empty, got %v", got)
	}
}

func TestBucket_BetweenAndRefs(t *testing.T) {
	b := Aggregate(time.UTC, []model.Entity{
		model.Task{ID: 1, Title: "a", DueDate: strp("2024-03-01")},
		model.Task{ID: 2, Title: "b", DueDate: strp("2024-03-15")},
		model.Task{ID: 3, Title: "c", DueDate: strp("2024-04-01")},
	})
	march := b.Between("2024-03-01", "2024-03-31")
	if got := march.Keys(); !reflect.DeepEqual(got, []string{"2024-03-01", "2024-03-15"}) {
		t.Fatalf("Between keys=%v", got)
	}
	refs := march.Refs()
	if len(refs["2024-03-15"]) != 1 || refs["2024-03-15"][0].ID != 2 || *refs["2024-03-15"][0].DueDate != "2024-03-15" {
		t.Fatalf("unexpected refs: %#v", refs)
	}
}

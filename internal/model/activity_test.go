package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestActivityJSONKeepsVariant(t *testing.T) {
	in := Activity{
		ID:       "a1",
		Type:     ActivityClaimed,
		UserID:   "u2",
		UserName: "Sam",
		Data: ClaimedActivity{
			ChoreRef:  ChoreRef{ChoreID: "c1", ChoreName: "Mow lawn"},
			OfferedBy: "Alex",
		},
		Timestamp: time.Date(2025, 1, 8, 9, 0, 0, 0, time.UTC),
	}

	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatalf("unmarshal raw: %v", err)
	}
	data := raw["data"].(map[string]any)
	if data["choreId"] != "c1" || data["offeredBy"] != "Alex" {
		t.Errorf("data = %v, want choreId and offeredBy at top level", data)
	}

	var out Activity
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	claimed, ok := out.Data.(ClaimedActivity)
	if !ok {
		t.Fatalf("data type = %T, want ClaimedActivity", out.Data)
	}
	if claimed.OfferedBy != "Alex" || claimed.Ref().ChoreName != "Mow lawn" {
		t.Errorf("claimed = %+v", claimed)
	}
}

func TestDecodeActivityDataUnknownType(t *testing.T) {
	if _, err := DecodeActivityData("levitated", []byte(`{}`)); err == nil {
		t.Fatal("expected error for unknown type")
	}
}

func TestChoreDerivedStatus(t *testing.T) {
	now := time.Date(2025, 1, 10, 15, 0, 0, 0, time.UTC)
	due := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	c := Chore{DueDate: &due}

	if !c.IsOverdue(now) {
		t.Error("expected chore due this morning to be overdue")
	}
	if !c.IsDueOn(now) {
		t.Error("expected chore to be due today")
	}

	c.Completed = true
	if c.IsOverdue(now) || c.IsDueOn(now) || c.Syncable() {
		t.Error("completed chore must not be overdue, due or syncable")
	}
}

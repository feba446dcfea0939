package entity

import (
	"testing"

	"github.com/voxsat/satellite/internal/proto"
)

func TestRegistryDescribeAllTerminatesWithDone(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewSwitch(1, "mute", "Mute", nil))
	reg.Register(NewSwitch(2, "other", "Other", nil))

	entries := reg.DescribeAll()
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries (2 entities + done), got %d", len(entries))
	}
	last := entries[len(entries)-1]
	if last.Type != proto.MsgListEntitiesDoneResponse {
		t.Fatalf("expected final entry to be ListEntitiesDoneResponse, got %v", last.Type)
	}
}

func TestRegistryDispatchRoutesByKey(t *testing.T) {
	reg := NewRegistry()
	var gotA, gotB bool
	reg.Register(NewSwitch(1, "a", "A", func(on bool) { gotA = on }))
	reg.Register(NewSwitch(2, "b", "B", func(on bool) { gotB = on }))

	cmd := proto.SwitchCommandRequest{Key: 2, State: true}
	handled, err := reg.Dispatch(proto.MsgSwitchCommandRequest, cmd.Encode())
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if !handled {
		t.Fatal("expected dispatch to be handled")
	}
	if gotA {
		t.Fatal("entity 1 should not have been toggled")
	}
	if !gotB {
		t.Fatal("entity 2 should have been toggled")
	}
}

func TestRegistryDispatchUnknownKeyNotHandled(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewSwitch(1, "a", "A", nil))

	cmd := proto.SwitchCommandRequest{Key: 99, State: true}
	handled, err := reg.Dispatch(proto.MsgSwitchCommandRequest, cmd.Encode())
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if handled {
		t.Fatal("expected no entity to claim an unknown key")
	}
}

func TestSwitchSetIsIdempotentOnNoChange(t *testing.T) {
	calls := 0
	sw := NewSwitch(1, "a", "A", func(bool) { calls++ })
	sw.Set(true)
	sw.Set(true)
	if calls != 1 {
		t.Fatalf("expected exactly one callback invocation, got %d", calls)
	}
}

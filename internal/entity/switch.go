package entity

import (
	"sync"

	"github.com/voxsat/satellite/internal/domain"
	"github.com/voxsat/satellite/internal/proto"
)

// Switch is a simple boolean entity. The satellite uses one instance
// as its mute switch, gating the mic feed into the wake-word pipeline.
type Switch struct {
	key      uint32
	objectID string
	name     string

	mu      sync.Mutex
	state   bool
	onWrite func(bool)
}

// NewSwitch constructs a Switch starting in the off (false) state.
// onWrite, if non-nil, is called synchronously whenever a command
// changes the state.
func NewSwitch(key uint32, objectID, name string, onWrite func(bool)) *Switch {
	return &Switch{key: key, objectID: objectID, name: name, onWrite: onWrite}
}

func (s *Switch) Key() uint32             { return s.key }
func (s *Switch) Kind() domain.EntityKind { return domain.KindSwitch }
func (s *Switch) ObjectID() string        { return s.objectID }

func (s *Switch) Describe() (proto.MsgType, []byte) {
	resp := proto.ListEntitiesSwitchResponse{ObjectID: s.objectID, Key: s.key, Name: s.name}
	return proto.MsgListEntitiesSwitchResponse, resp.Encode()
}

func (s *Switch) State() (proto.MsgType, []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	resp := proto.SwitchStateResponse{Key: s.key, State: s.state}
	return proto.MsgSwitchStateResponse, resp.Encode()
}

func (s *Switch) Set(on bool) {
	s.mu.Lock()
	if s.state == on {
		s.mu.Unlock()
		return
	}
	s.state = on
	cb := s.onWrite
	s.mu.Unlock()
	if cb != nil {
		cb(on)
	}
}

func (s *Switch) HandleCommand(msgType proto.MsgType, payload []byte) (bool, error) {
	if msgType != proto.MsgSwitchCommandRequest {
		return false, nil
	}
	cmd, err := proto.DecodeSwitchCommandRequest(payload)
	if err != nil {
		return true, err
	}
	if cmd.Key != s.key {
		return false, nil
	}
	s.Set(cmd.State)
	return true, nil
}

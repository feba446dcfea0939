// Package entity implements the small set of hub-visible entities the
// satellite exposes: its media player (backed by the music and
// announcement handles of one player.Pair) and its mute switch. Each
// entity owns its own state and knows how to describe itself and react
// to the subset of protocol messages addressed to its key.
package entity

import (
	"github.com/voxsat/satellite/internal/domain"
	"github.com/voxsat/satellite/internal/proto"
)

// Entity is anything the satellite advertises via ListEntities and
// that can receive commands routed by key.
type Entity interface {
	Key() uint32
	Kind() domain.EntityKind
	ObjectID() string

	// Describe returns the ListEntities* response announcing this
	// entity, wrapped with its message type.
	Describe() (proto.MsgType, []byte)

	// State returns the current state response for this entity,
	// wrapped with its message type.
	State() (proto.MsgType, []byte)

	// HandleCommand applies a command payload of the given type
	// addressed to this entity's key. It returns true if msgType is
	// one this entity recognizes and the command carries this entity's
	// key (or the payload failed to decode, reported via err); false
	// otherwise.
	HandleCommand(msgType proto.MsgType, payload []byte) (handled bool, err error)
}

package entity

import (
	"github.com/voxsat/satellite/internal/domain"
	"github.com/voxsat/satellite/internal/player"
	"github.com/voxsat/satellite/internal/proto"
)

// MediaPlayer exposes the satellite's player.Pair as a single hub
// entity: state is reported from the music handle. A play command
// routes to the music or announcement handle depending on its
// Announcement flag; pause and resume act on the music handle; set
// volume applies to both handles.
type MediaPlayer struct {
	key      uint32
	objectID string
	name     string
	pair     *player.Pair
	onVolume func(pct int) // persists the new volume to preferences
}

// NewMediaPlayer wraps pair for hub visibility under key. onVolume, if
// non-nil, is called with the new 0-100 volume whenever a set-volume
// command is applied.
func NewMediaPlayer(key uint32, objectID, name string, pair *player.Pair, onVolume func(int)) *MediaPlayer {
	return &MediaPlayer{key: key, objectID: objectID, name: name, pair: pair, onVolume: onVolume}
}

func (m *MediaPlayer) Key() uint32             { return m.key }
func (m *MediaPlayer) Kind() domain.EntityKind { return domain.KindMediaPlayer }
func (m *MediaPlayer) ObjectID() string        { return m.objectID }

func (m *MediaPlayer) Describe() (proto.MsgType, []byte) {
	resp := proto.ListEntitiesMediaPlayerResponse{ObjectID: m.objectID, Key: m.key, Name: m.name}
	return proto.MsgListEntitiesMediaPlayerResponse, resp.Encode()
}

func (m *MediaPlayer) State() (proto.MsgType, []byte) {
	resp := proto.MediaPlayerStateResponse{
		Key:    m.key,
		State:  uint32(m.pair.Music.State()),
		Volume: float32(m.pair.Music.Volume()) / 100,
		Muted:  m.pair.Music.Muted(),
	}
	return proto.MsgMediaPlayerStateResponse, resp.Encode()
}

func (m *MediaPlayer) HandleCommand(msgType proto.MsgType, payload []byte) (bool, error) {
	if msgType != proto.MsgMediaPlayerCommandRequest {
		return false, nil
	}
	cmd, err := proto.DecodeMediaPlayerCommandRequest(payload)
	if err != nil {
		return true, err
	}
	if cmd.Key != m.key {
		return false, nil
	}

	switch cmd.Command {
	case proto.MediaCommandPlay:
		if cmd.Announcement {
			m.pair.PlayAnnouncement([]string{cmd.MediaURL}, nil)
			break
		}
		m.pair.Music.Play([]string{cmd.MediaURL}, nil)
	case proto.MediaCommandPause:
		m.pair.Music.Pause()
	case proto.MediaCommandResume:
		m.pair.Music.Resume()
	case proto.MediaCommandSetVolume:
		pct := int(cmd.Volume * 100)
		m.pair.Music.SetVolume(pct)
		m.pair.Announcement.SetVolume(pct)
		if m.onVolume != nil {
			m.onVolume(pct)
		}
	}
	return true, nil
}

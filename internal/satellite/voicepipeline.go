package satellite

import (
	"time"

	"github.com/voxsat/satellite/internal/domain"
	"github.com/voxsat/satellite/internal/eventbus"
	"github.com/voxsat/satellite/internal/player"
	"github.com/voxsat/satellite/internal/proto"
)

// duckTarget is the music volume percentage used while a higher
// priority announcement, TTS response, or alarm is playing.
const duckTarget = 20

// onWakeup handles a local wake-word detection. If a timer is
// currently ringing, the detection is interpreted as "stop the timer"
// instead of starting a new interaction.
func (s *Server) onWakeup(sess *Session, detectorID string) {
	sess.mu.Lock()
	ringing := sess.timerRinging
	sess.timerRinging = false
	sess.mu.Unlock()
	if ringing {
		s.bus.Publish(eventbus.Event{Topic: eventbus.TopicTimer, Data: eventbus.TimerRinging{Ringing: false}})
		s.players.Music.Unduck()
		return
	}

	phrase := detectorID
	if e, ok := s.catalog.Get(detectorID); ok {
		phrase = e.Phrase
	}

	s.log.Info("satellite: wake word %q detected", phrase)
	s.bus.Publish(eventbus.Event{Topic: eventbus.TopicWakeWord, Data: eventbus.WakeWordFired{DetectorID: detectorID}})

	req := proto.VoiceAssistantRequest{Start: true, WakeWordPhrase: phrase}
	_ = sess.send(uint64(proto.MsgVoiceAssistantRequest), req.Encode())

	s.players.Music.Duck(duckTarget)
	sess.setStreaming(true)
	s.bus.Publish(eventbus.Event{Topic: eventbus.TopicStreaming, Data: eventbus.StreamingChanged{Streaming: true}})

	if s.cfg.WakeUpSoundURL != "" {
		_ = s.players.Announcement.Play([]string{s.cfg.WakeUpSoundURL}, nil)
	}
}

// onStop implements "Stop (local stop-word or hardware stop)".
func (s *Server) onStop(sess *Session) {
	s.pool.DisarmStopWord()

	sess.mu.Lock()
	ringing := sess.timerRinging
	sess.timerRinging = false
	sess.mu.Unlock()

	s.bus.Publish(eventbus.Event{Topic: eventbus.TopicWakeWord, Data: eventbus.WakeWordFired{IsStopWord: true}})

	if ringing {
		s.bus.Publish(eventbus.Event{Topic: eventbus.TopicTimer, Data: eventbus.TimerRinging{Ringing: false}})
		s.players.Announcement.Stop()
		s.players.Music.Unduck()
		return
	}

	// Stopping an in-flight TTS or announcement playback delivers its
	// pending completion, which is the TTS-finished path; only when
	// nothing was playing is the path driven directly. Stopping the
	// wake-up chime, which is played without a completion, does not
	// reach the TTS-finished path.
	if s.players.Announcement.State() != domain.StateIdle {
		s.players.Announcement.Stop()
		return
	}
	s.ttsFinished(sess)
}

// playTTS implements play_tts: starts playback of the remembered TTS
// URL exactly once per RUN_START/TTS_END cycle.
func (s *Server) playTTS(sess *Session) {
	sess.mu.Lock()
	url := sess.ttsURL
	already := sess.ttsPlayed
	sess.mu.Unlock()
	if url == "" || already {
		return
	}

	sess.mu.Lock()
	sess.ttsPlayed = true
	sess.mu.Unlock()

	s.pool.ArmStopWord()
	s.players.Music.Duck(duckTarget)

	id := sess.id
	_ = s.players.PlayAnnouncement([]string{url}, func() {
		s.post(sess, func(cur *Session) {
			if cur.id != id {
				return
			}
			s.ttsFinished(cur)
		})
	})
}

// ttsFinished implements the "TTS finished" completion callback.
func (s *Server) ttsFinished(sess *Session) {
	s.pool.DisarmStopWord()

	msg := proto.VoiceAssistantAnnounceFinished{Success: true}
	_ = sess.send(uint64(proto.MsgVoiceAssistantAnnounceFinished), msg.Encode())

	sess.mu.Lock()
	cont := sess.continueConversation
	sess.mu.Unlock()

	if cont {
		req := proto.VoiceAssistantRequest{Start: true}
		_ = sess.send(uint64(proto.MsgVoiceAssistantRequest), req.Encode())
		sess.setStreaming(true)
		s.bus.Publish(eventbus.Event{Topic: eventbus.TopicStreaming, Data: eventbus.StreamingChanged{Streaming: true}})
		return
	}
	s.players.Music.Unduck()
}

// handleVAEvent dispatches one hub voice-assistant pipeline event.
func (s *Server) handleVAEvent(sess *Session, payload []byte) {
	ev, err := proto.DecodeVoiceAssistantEventResponse(payload)
	if err != nil {
		s.log.Warn("satellite: bad voice-assistant event: %v", err)
		return
	}

	switch ev.Type {
	case proto.VAEventRunStart:
		sess.mu.Lock()
		sess.ttsURL = ev.TTSURL
		sess.ttsPlayed = false
		sess.continueConversation = false
		sess.mu.Unlock()

	case proto.VAEventSTTVadEnd, proto.VAEventSTTEnd:
		sess.setStreaming(false)
		s.bus.Publish(eventbus.Event{Topic: eventbus.TopicStreaming, Data: eventbus.StreamingChanged{Streaming: false}})

	case proto.VAEventIntentProgress:
		if ev.StartStreamingHint {
			s.playTTS(sess)
		}

	case proto.VAEventIntentEnd:
		if ev.ContinueConversation {
			sess.mu.Lock()
			sess.continueConversation = true
			sess.mu.Unlock()
		}

	case proto.VAEventTTSEnd:
		sess.mu.Lock()
		sess.ttsURL = ev.TTSURL
		sess.mu.Unlock()
		s.playTTS(sess)

	case proto.VAEventRunEnd:
		sess.setStreaming(false)
		s.bus.Publish(eventbus.Event{Topic: eventbus.TopicStreaming, Data: eventbus.StreamingChanged{Streaming: false}})
		sess.mu.Lock()
		played := sess.ttsPlayed
		sess.mu.Unlock()
		if !played {
			s.ttsFinished(sess)
		}

	case proto.VAEventError:
		s.log.Warn("satellite: voice-assistant pipeline error event")
		sess.setStreaming(false)
		s.bus.Publish(eventbus.Event{Topic: eventbus.TopicStreaming, Data: eventbus.StreamingChanged{Streaming: false}})
	}
}

// handleAnnounceRequest implements a hub-initiated announcement,
// unrelated to the voice pipeline.
func (s *Server) handleAnnounceRequest(sess *Session, payload []byte) {
	req, err := proto.DecodeVoiceAssistantAnnounceRequest(payload)
	if err != nil {
		s.log.Warn("satellite: bad announce request: %v", err)
		return
	}

	urls := make([]string, 0, 2)
	if req.PreannounceMediaID != "" {
		urls = append(urls, req.PreannounceMediaID)
	}
	urls = append(urls, req.MediaID)

	s.pool.ArmStopWord()
	if req.StartConversation {
		sess.mu.Lock()
		sess.continueConversation = true
		sess.mu.Unlock()
	}
	s.players.Music.Duck(duckTarget)

	id := sess.id
	_ = s.players.PlayAnnouncement(urls, func() {
		s.post(sess, func(cur *Session) {
			if cur.id != id {
				return
			}
			s.ttsFinished(cur)
		})
	})
}

// handleTimerEvent starts the repeating timer-sound loop when the hub
// reports a timer has finished.
func (s *Server) handleTimerEvent(sess *Session, payload []byte) {
	ev, err := proto.DecodeVoiceAssistantTimerEventResponse(payload)
	if err != nil {
		s.log.Warn("satellite: bad timer event: %v", err)
		return
	}
	if !ev.Finished {
		return
	}

	sess.mu.Lock()
	already := sess.timerRinging
	if !already {
		sess.timerRinging = true
	}
	sess.mu.Unlock()
	if already {
		return
	}

	s.pool.ArmStopWord()
	s.bus.Publish(eventbus.Event{Topic: eventbus.TopicTimer, Data: eventbus.TimerRinging{Ringing: true}})
	s.players.Music.Duck(duckTarget)
	s.playTimerSound(sess)
}

// playTimerSound plays the configured timer sound once and, if the
// timer is still ringing when it finishes, schedules a 1s-delayed
// replay. The loop only ends via onStop (stop-word/hardware stop) or
// onWakeup while ringing.
func (s *Server) playTimerSound(sess *Session) {
	if s.cfg.TimerSoundURL == "" {
		return
	}
	id := sess.id
	var onFinished player.OnFinished
	onFinished = func() {
		s.post(sess, func(cur *Session) {
			if cur.id != id {
				return
			}
			cur.mu.Lock()
			ringing := cur.timerRinging
			cur.mu.Unlock()
			if !ringing {
				return
			}
			time.AfterFunc(time.Second, func() {
				s.post(cur, func(c *Session) {
					if c.id != id {
						return
					}
					c.mu.Lock()
					stillRinging := c.timerRinging
					c.mu.Unlock()
					if !stillRinging {
						return
					}
					s.playTimerSound(c)
				})
			})
		})
	}
	_ = s.players.Announcement.Play([]string{s.cfg.TimerSoundURL}, onFinished)
}

package player

import "github.com/voxsat/satellite/internal/domain"

// Pair bundles the two independent player handles and implements the
// sole coupling rule between them: an announcement pauses music (if
// playing) and resumes it when the announcement finishes.
type Pair struct {
	Music        *Handle
	Announcement *Handle
}

// NewPair wraps an already-constructed music and announcement handle.
func NewPair(music, announcement *Handle) *Pair {
	return &Pair{Music: music, Announcement: announcement}
}

// PlayAnnouncement plays urls on the announcement handle, pausing
// music first if it was playing and resuming it once the announcement
// finishes (natural end or stop), before the caller's onFinished runs.
func (p *Pair) PlayAnnouncement(urls []string, onFinished OnFinished) error {
	wasPlaying := p.Music.State() == domain.StatePlaying
	if wasPlaying {
		p.Music.Pause()
	}
	return p.Announcement.Play(urls, func() {
		if wasPlaying {
			p.Music.Resume()
		}
		if onFinished != nil {
			onFinished()
		}
	})
}

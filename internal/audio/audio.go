// Package audio plays a short tone when bodies start touching.
package audio

import (
	"math"
	"sync"
	"time"

	"polydrop/internal/logger"
	"polydrop/internal/physics"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
	"github.com/pkg/errors"
)

const (
	sampleRate = beep.SampleRate(48000)

	impactDuration = 60 * time.Millisecond
	// DefaultInterval is the minimum gap between two impact tones.
	DefaultInterval = 40 * time.Millisecond
)

// impactPitches is indexed by the lower body index of the pair.
var impactPitches = [...]float64{220, 262, 330, 392, 440, 523}

// SoundManager owns the speaker and mixes impact tones.
type SoundManager struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	initialized bool
	last        time.Time

	// Interval rate limits Impact. Volume is a gain in (0, 1].
	Interval time.Duration
	Volume   float64

	log  *logger.Logger
	now  func() time.Time
	play func(beep.Streamer)
}

// NewSoundManager returns a manager that stays silent until Initialize succeeds.
func NewSoundManager(log *logger.Logger) *SoundManager {
	sm := &SoundManager{
		mixer:    &beep.Mixer{},
		Interval: DefaultInterval,
		Volume:   0.5,
		log:      log,
		now:      time.Now,
	}
	sm.play = sm.mix
	return sm
}

// Initialize opens the speaker. A failure leaves the manager silent; callers log it and go on.
func (sm *SoundManager) Initialize() error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(time.Millisecond*100)); err != nil {
		return errors.Wrap(err, "init speaker")
	}
	speaker.Play(sm.mixer)
	sm.initialized = true
	if sm.log != nil {
		sm.log.Logf("audio: speaker at %d Hz", int(sampleRate))
	}
	return nil
}

// Cleanup silences the mixer.
func (sm *SoundManager) Cleanup() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if !sm.initialized {
		return
	}
	speaker.Lock()
	sm.mixer.Clear()
	speaker.Unlock()
	sm.initialized = false
}

// Impact queues a tone for a begin-contact event. It matches physics.ContactFunc.
func (sm *SoundManager) Impact(a, b physics.FixtureRef) {
	sm.mu.Lock()
	now := sm.now()
	if !sm.last.IsZero() && now.Sub(sm.last) < sm.Interval {
		sm.mu.Unlock()
		return
	}
	sm.last = now
	vol := sm.Volume
	sm.mu.Unlock()

	body := min(a.Body, b.Body)
	tone := NewImpactGenerator(sampleRate, impactPitches[body%len(impactPitches)])
	sm.play(&effects.Volume{
		Streamer: beep.Take(sampleRate.N(impactDuration), tone),
		Base:     2,
		Volume:   math.Log2(max(vol, 0.01)),
	})
}

func (sm *SoundManager) mix(s beep.Streamer) {
	sm.mu.Lock()
	ok := sm.initialized
	sm.mu.Unlock()
	if !ok {
		return
	}
	speaker.Lock()
	sm.mixer.Add(s)
	speaker.Unlock()
}

// ImpactGenerator is a sine with a fast exponential decay, heard as a short knock.
type ImpactGenerator struct {
	sr   beep.SampleRate
	freq float64
	pos  int
}

// NewImpactGenerator creates an impact tone at freq Hz.
func NewImpactGenerator(sr beep.SampleRate, freq float64) *ImpactGenerator {
	return &ImpactGenerator{sr: sr, freq: freq}
}

func (g *ImpactGenerator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		t := float64(g.pos) / float64(g.sr)
		sample := 0.4 * math.Exp(-t*60) * math.Sin(2*math.Pi*g.freq*t)
		samples[i][0] = sample
		samples[i][1] = sample
		g.pos++
	}
	return len(samples), true
}

func (g *ImpactGenerator) Err() error {
	return nil
}

package player

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bep/debounce"

	"chorus/internal/library"
)

const EventStateChanged = "player:state"

const EventPlaybackError = "player:error"

const (
	StatusStopped = "stopped"
	StatusPaused  = "paused"
	StatusPlaying = "playing"
)

const positionPollInterval = 100 * time.Millisecond

// Trailing window over scrub input so dragging a position slider issues
// one seek instead of a storm.
const seekSettleDelay = 200 * time.Millisecond

const defaultVolume = 0.3

type Emitter func(eventName string, payload any)

// PlaybackError is the structured error surfaced when the audio
// backend cannot load or decode a file. Playback state is reset but the
// playlist stays navigable.
type PlaybackError struct {
	FilePath string `json:"filePath"`
	Message  string `json:"message"`
}

func (e PlaybackError) Error() string {
	return fmt.Sprintf("playback of %s failed: %s", e.FilePath, e.Message)
}

type State struct {
	Status          string        `json:"status"`
	Index           int           `json:"index"`
	QueueLength     int           `json:"queueLength"`
	PositionMS      int           `json:"positionMs"`
	DurationMS      int           `json:"durationMs"`
	PositionPercent float64       `json:"positionPercent"`
	Volume          float64       `json:"volume"`
	Song            *library.Song `json:"song,omitempty"`
	UpdatedAt       string        `json:"updatedAt"`
}

// MinSec breaks a millisecond position into whole minutes and leftover
// seconds for display.
func MinSec(milliseconds int) (minutes int, seconds int) {
	totalSeconds := milliseconds / 1000
	return totalSeconds / 60, totalSeconds % 60
}

// Sequencer owns the playlist, current index, and transport state, and
// drives the audio backend through a small state machine. All mutation
// happens behind its mutex; backend callbacks re-enter through public
// methods.
type Sequencer struct {
	mu           sync.Mutex
	playlist     []library.Song
	index        int
	status       string
	positionMS   int
	durationMS   int
	volume       float64
	tracking     bool
	hasSession   bool
	pendingSeek  int
	backend      Backend
	emit         Emitter
	onError      func(PlaybackError)
	onTrackStart func(library.Song)
	seekDebounce func(func())
	tickStop     chan struct{}
	updatedAt    time.Time
}

// NewSequencer wires the sequencer to a backend. A nil backend (no
// audio support in this build) keeps every transport call a reported
// no-op instead of a crash.
func NewSequencer(backend Backend) *Sequencer {
	s := &Sequencer{
		status:       StatusStopped,
		volume:       defaultVolume,
		tracking:     true,
		backend:      backend,
		seekDebounce: debounce.New(seekSettleDelay),
	}

	if backend != nil {
		backend.SetOnEOF(s.handleEOF)
	}

	return s
}

func (s *Sequencer) SetEmitter(emitter Emitter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emit = emitter
}

// SetOnError registers the caller-supplied handler for structured
// playback errors.
func (s *Sequencer) SetOnError(handler func(PlaybackError)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onError = handler
}

// SetOnTrackStart registers a callback fired whenever a new track
// starts playing.
func (s *Sequencer) SetOnTrackStart(handler func(library.Song)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onTrackStart = handler
}

// ReplacePlaylist swaps the playlist wholesale and resets the current
// index. It never auto-plays.
func (s *Sequencer) ReplacePlaylist(songs []library.Song) State {
	s.mu.Lock()
	s.playlist = append([]library.Song{}, songs...)
	s.index = 0
	s.updatedAt = time.Now().UTC()
	state := s.stateLocked()
	s.mu.Unlock()

	s.emitState(state)
	return state
}

// Play starts the song at the current index.
func (s *Sequencer) Play() (State, error) {
	s.mu.Lock()
	index := s.index
	s.mu.Unlock()
	return s.PlayAt(index)
}

// PlayAt starts the song at the given playlist index: the previous
// backend session is replaced by one bound to the song's file and
// playback state is set optimistically before the backend confirms.
func (s *Sequencer) PlayAt(index int) (State, error) {
	s.mu.Lock()
	if index < 0 || index >= len(s.playlist) {
		state := s.stateLocked()
		s.mu.Unlock()
		return state, fmt.Errorf("no song at playlist index %d", index)
	}
	song := s.playlist[index]
	backend := s.backend
	volume := s.volume
	s.mu.Unlock()

	if backend == nil {
		return s.failPlayback(song.FilePath, errors.New("no audio backend available"))
	}

	if err := backend.Load(song.FilePath); err != nil {
		return s.failPlayback(song.FilePath, err)
	}

	s.mu.Lock()
	s.index = index
	s.status = StatusPlaying
	s.positionMS = 0
	s.durationMS = 0
	s.tracking = true
	s.hasSession = true
	s.updatedAt = time.Now().UTC()
	onTrackStart := s.onTrackStart
	s.ensureTickerLocked()
	state := s.stateLocked()
	s.mu.Unlock()

	_ = backend.SetVolume(volume * 100)
	if err := backend.Play(); err != nil {
		return s.failPlayback(song.FilePath, err)
	}

	if onTrackStart != nil {
		onTrackStart(song)
	}

	s.emitState(state)
	return state, nil
}

// Next advances the current index, wrapping past the end of the
// playlist, and plays the song there. On a single-song playlist this
// replays the same song.
func (s *Sequencer) Next() (State, error) {
	s.mu.Lock()
	length := len(s.playlist)
	if length == 0 {
		state := s.stateLocked()
		s.mu.Unlock()
		return state, errors.New("playlist is empty")
	}
	index := (s.index + 1) % length
	s.mu.Unlock()

	return s.PlayAt(index)
}

// Prev retreats the current index, wrapping to the last song from the
// first, and plays the song there.
func (s *Sequencer) Prev() (State, error) {
	s.mu.Lock()
	length := len(s.playlist)
	if length == 0 {
		state := s.stateLocked()
		s.mu.Unlock()
		return state, errors.New("playlist is empty")
	}
	index := (s.index - 1 + length) % length
	s.mu.Unlock()

	return s.PlayAt(index)
}

// TogglePause inverts the backend's actual playing state. Without a
// live session it is a no-op.
func (s *Sequencer) TogglePause() (State, error) {
	s.mu.Lock()
	backend := s.backend
	hasSession := s.hasSession
	s.mu.Unlock()

	if backend == nil || !hasSession {
		return s.GetState(), nil
	}

	playing, err := backend.Playing()
	if err != nil {
		return s.GetState(), fmt.Errorf("read backend playing state: %w", err)
	}

	if playing {
		if err := backend.Pause(); err != nil {
			return s.GetState(), err
		}
	} else {
		if err := backend.Play(); err != nil {
			return s.GetState(), err
		}
	}

	s.mu.Lock()
	if playing {
		s.status = StatusPaused
	} else {
		s.status = StatusPlaying
	}
	s.updatedAt = time.Now().UTC()
	state := s.stateLocked()
	s.mu.Unlock()

	s.emitState(state)
	return state, nil
}

// Stop halts playback and rewinds the position; the playlist and index
// are kept.
func (s *Sequencer) Stop() State {
	s.mu.Lock()
	backend := s.backend
	hasSession := s.hasSession
	s.status = StatusStopped
	s.positionMS = 0
	s.updatedAt = time.Now().UTC()
	s.stopTickerLocked()
	state := s.stateLocked()
	s.mu.Unlock()

	if backend != nil && hasSession {
		_ = backend.Stop()
	}

	s.emitState(state)
	return state
}

// SeekPercent seeks to a percentage of the current duration. The
// displayed position updates immediately while position tracking is
// suspended; the backend seek itself is debounced so a dragged scrub
// control issues one seek. Tracking resumes when the seek fires.
func (s *Sequencer) SeekPercent(percent float64) State {
	s.mu.Lock()
	target := int(float64(s.durationMS) * percent / 100)
	if target < 0 {
		target = 0
	}
	if target > s.durationMS {
		target = s.durationMS
	}
	s.positionMS = target
	s.pendingSeek = target
	s.tracking = false
	s.updatedAt = time.Now().UTC()
	state := s.stateLocked()
	s.mu.Unlock()

	s.seekDebounce(s.fireSeek)
	s.emitState(state)
	return state
}

func (s *Sequencer) fireSeek() {
	s.mu.Lock()
	backend := s.backend
	hasSession := s.hasSession
	target := s.pendingSeek
	s.tracking = true
	s.mu.Unlock()

	if backend == nil || !hasSession {
		return
	}
	if err := backend.Seek(target); err != nil {
		s.reportError(PlaybackError{FilePath: s.currentPath(), Message: err.Error()})
	}
}

// SetVolume stores the 0..1 volume and forwards it to the backend
// immediately.
func (s *Sequencer) SetVolume(volume float64) State {
	if volume < 0 {
		volume = 0
	}
	if volume > 1 {
		volume = 1
	}

	s.mu.Lock()
	s.volume = volume
	backend := s.backend
	s.updatedAt = time.Now().UTC()
	state := s.stateLocked()
	s.mu.Unlock()

	if backend != nil {
		_ = backend.SetVolume(volume * 100)
	}

	s.emitState(state)
	return state
}

func (s *Sequencer) GetState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

// PositionMS returns the current playback position.
func (s *Sequencer) PositionMS() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.positionMS
}

// Close tears the sequencer down: position polling stops and the
// backend session is released. Safe to call repeatedly.
func (s *Sequencer) Close() {
	s.mu.Lock()
	s.stopTickerLocked()
	backend := s.backend
	s.backend = nil
	s.hasSession = false
	s.mu.Unlock()

	if backend != nil {
		_ = backend.Close()
	}
}

// handleEOF is the backend end-of-file callback: playback of the
// current song finished, advance automatically.
func (s *Sequencer) handleEOF() {
	s.mu.Lock()
	s.status = StatusStopped
	s.mu.Unlock()

	if _, err := s.Next(); err != nil {
		s.mu.Lock()
		state := s.stateLocked()
		s.mu.Unlock()
		s.emitState(state)
	}
}

func (s *Sequencer) failPlayback(filePath string, cause error) (State, error) {
	playbackErr := PlaybackError{FilePath: filePath, Message: cause.Error()}

	s.mu.Lock()
	s.status = StatusStopped
	s.hasSession = false
	s.updatedAt = time.Now().UTC()
	s.stopTickerLocked()
	state := s.stateLocked()
	s.mu.Unlock()

	s.reportError(playbackErr)
	s.emitState(state)
	return state, playbackErr
}

func (s *Sequencer) reportError(playbackErr PlaybackError) {
	s.mu.Lock()
	handler := s.onError
	emitter := s.emit
	s.mu.Unlock()

	if handler != nil {
		handler(playbackErr)
	}
	if emitter != nil {
		emitter(EventPlaybackError, playbackErr)
	}
}

func (s *Sequencer) currentPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index >= 0 && s.index < len(s.playlist) {
		return s.playlist[s.index].FilePath
	}
	return ""
}

func (s *Sequencer) ensureTickerLocked() {
	if s.tickStop != nil {
		return
	}

	stop := make(chan struct{})
	s.tickStop = stop
	go s.runTicker(stop)
}

func (s *Sequencer) stopTickerLocked() {
	if s.tickStop == nil {
		return
	}

	close(s.tickStop)
	s.tickStop = nil
}

func (s *Sequencer) runTicker(stop <-chan struct{}) {
	ticker := time.NewTicker(positionPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.onTick()
		}
	}
}

// onTick polls the backend's playback time into the displayed position,
// unless tracking is suspended mid-scrub. Paused or stopped sessions
// are left alone so the poll emits no events while nothing moves.
func (s *Sequencer) onTick() {
	s.mu.Lock()
	backend := s.backend
	hasSession := s.hasSession
	tracking := s.tracking
	playing := s.status == StatusPlaying
	s.mu.Unlock()

	if backend == nil || !hasSession || !playing {
		return
	}

	position, posErr := backend.PositionMS()
	duration, durErr := backend.DurationMS()

	s.mu.Lock()
	if durErr == nil && duration > 0 {
		s.durationMS = duration
	}
	if tracking && posErr == nil {
		s.positionMS = position
	}
	state := s.stateLocked()
	s.mu.Unlock()

	s.emitState(state)
}

func (s *Sequencer) stateLocked() State {
	state := State{
		Status:      s.status,
		Index:       s.index,
		QueueLength: len(s.playlist),
		PositionMS:  s.positionMS,
		DurationMS:  s.durationMS,
		Volume:      s.volume,
	}

	if s.durationMS > 0 {
		state.PositionPercent = float64(s.positionMS) / float64(s.durationMS) * 100
	}

	if s.index >= 0 && s.index < len(s.playlist) {
		song := s.playlist[s.index]
		state.Song = &song
	}

	if !s.updatedAt.IsZero() {
		state.UpdatedAt = s.updatedAt.UTC().Format(time.RFC3339)
	}

	return state
}

func (s *Sequencer) emitState(state State) {
	s.mu.Lock()
	emitter := s.emit
	s.mu.Unlock()

	if emitter != nil {
		emitter(EventStateChanged, state)
	}
}

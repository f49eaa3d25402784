package player

// Backend is the native audio decode/playback boundary. Load replaces
// any previous session with a new one bound to the given file,
// releasing the old session's resources.
type Backend interface {
	Load(path string) error
	Play() error
	Pause() error
	Stop() error
	Seek(positionMS int) error
	SetVolume(percent float64) error
	Playing() (bool, error)
	PositionMS() (int, error)
	DurationMS() (int, error)
	SetOnEOF(callback func())
	Close() error
}

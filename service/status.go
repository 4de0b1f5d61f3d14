package service

// Surface identifies one output channel of a generation run.
type Surface int

const (
	SurfaceLinkedIn Surface = iota
	SurfaceWhatsApp
	SurfaceChart
)

func (s Surface) String() string {
	switch s {
	case SurfaceLinkedIn:
		return "LinkedIn"
	case SurfaceWhatsApp:
		return "WhatsApp"
	case SurfaceChart:
		return "Chart"
	}
	return "Unknown"
}

type StreamStatus int

const (
	StatusUnknown StreamStatus = iota
	StatusStarted
	StatusData
	StatusFinished
	StatusError
)

// StreamNotify carries one display update from the generation state
// machine to whoever renders the stream.
type StreamNotify struct {
	Surface Surface
	Status  StreamStatus
	Data    string // text chunk, ticker symbol, or error message
}

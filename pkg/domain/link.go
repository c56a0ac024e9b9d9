package domain

// ReadStatus classifies the outcome of a non-blocking read.
type ReadStatus int

const (
	// ReadPending means no complete line is available yet.
	ReadPending ReadStatus = iota
	// ReadLine means Line holds a complete line without its terminator.
	ReadLine
	// ReadClosed means the peer ended the stream; Err is set on failure.
	ReadClosed
)

// ReadResult is the outcome of PeerLink.Read.
type ReadResult struct {
	Status ReadStatus
	Line   string
	Err    error
}

// PeerLink is a bidirectional line channel to one peer.
// Implementations must never block in Read: a missing line is ReadPending.
type PeerLink interface {
	// Read returns the next line, ReadPending or ReadClosed.
	Read() ReadResult

	// WriteLine sends one line, appending the terminator.
	WriteLine(line string) error

	// Close releases the underlying connection.
	Close() error
}

package operation

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// seqCounter numbers operations within a process, in start order
var seqCounter uint64

// Kind names the command an operation runs for
type Kind string

const (
	KindCreate  Kind = "create"
	KindInsert  Kind = "insert"
	KindSelect  Kind = "select"
	KindDisplay Kind = "display"
	KindSchema  Kind = "schema"
	KindJoin    Kind = "join"
	KindList    Kind = "list"
	KindExport  Kind = "export"
	KindImport  Kind = "import"
	KindHistory Kind = "history"
)

// Operation is the correlation context of a single CLI command.
// Its ID is attached to every log line the command emits.
type Operation struct {
	ID        string    // Unique identifier (UUID)
	Seq       uint64    // Process-local sequence number
	Kind      Kind      // Command being run
	StartTime time.Time // When the operation began
	Active    bool      // Whether the operation is still running
}

// Begin starts a new operation with a unique ID
func Begin(kind Kind) *Operation {
	return &Operation{
		ID:        uuid.New().String(),
		Seq:       atomic.AddUint64(&seqCounter, 1),
		Kind:      kind,
		StartTime: time.Now(),
		Active:    true,
	}
}

// Logger returns logger annotated with the operation's identity
func (op *Operation) Logger(logger *slog.Logger) *slog.Logger {
	return logger.With(
		slog.String("op_id", op.ID),
		slog.String("command", string(op.Kind)),
	)
}

// Elapsed returns the time since the operation began
func (op *Operation) Elapsed() time.Duration {
	return time.Since(op.StartTime)
}

// End marks the operation as finished
func (op *Operation) End() {
	op.Active = false
}

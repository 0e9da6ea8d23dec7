package room

// Conn is the transport side of a client. Send must not block the room.
type Conn interface {
	Send([]byte) error
	Close() error
}

// Connect registers a new connection; the room answers with the init packet.
type Connect struct {
	ClientID string
	Conn     Conn
}

// Packet carries a decoded client packet (protocol.Input or protocol.Join).
// It is only recorded as pending; the tick applies it.
type Packet struct {
	ClientID string
	Packet   any
}

// Disconnect marks a client and its player for termination at the end of
// the next tick.
type Disconnect struct {
	ClientID string
}

// Kill terminates a client's player while keeping the connection.
type Kill struct {
	ClientID string
}

// SnapshotRequest asks the room for a debug snapshot between ticks.
type SnapshotRequest struct {
	Reply chan<- Snapshot
}

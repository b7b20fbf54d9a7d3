package mqtt

// pendingMsg is a serialized message waiting for the broker connection.
type pendingMsg struct {
	payload []byte
	qos     byte
}

// backlog is a bounded FIFO of messages held while disconnected.
// When full, the oldest message is dropped.
// Not safe for concurrent use; the caller must synchronize.
type backlog struct {
	msgs    []pendingMsg
	limit   int
	dropped int
}

func newBacklog(limit int) *backlog {
	return &backlog{
		msgs:  make([]pendingMsg, 0, limit),
		limit: limit,
	}
}

func (b *backlog) push(msg pendingMsg) {
	if len(b.msgs) == b.limit {
		b.dropped++
		b.msgs = append(b.msgs[:0], b.msgs[1:]...)
	}
	b.msgs = append(b.msgs, msg)
}

// drain returns every held message, oldest first, and the number dropped since the last drain.
func (b *backlog) drain() ([]pendingMsg, int) {
	if len(b.msgs) == 0 {
		dropped := b.dropped
		b.dropped = 0
		return nil, dropped
	}

	out := make([]pendingMsg, len(b.msgs))
	copy(out, b.msgs)
	dropped := b.dropped

	b.msgs = b.msgs[:0]
	b.dropped = 0
	return out, dropped
}

func (b *backlog) len() int {
	return len(b.msgs)
}

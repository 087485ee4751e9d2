// Package channel provides generic channel interfaces for decoupled
// communication. The directive stream between the annotation engine and
// the stdout writer is the main consumer.
package channel

// Receiver provides read access to a channel.
type Receiver[T any] interface {
	Receive() <-chan T
	Len() int
}

// Sender provides write access to a channel. Send blocks until the value
// is accepted; TrySend never blocks and reports whether the value was
// accepted. Cosmetic updates use TrySend so a stalled consumer cannot
// stall the producer.
type Sender[T any] interface {
	Send(T)
	TrySend(T) bool
}

// Channel combines read and write access.
type Channel[T any] interface {
	Receiver[T]
	Sender[T]
	Close()
}

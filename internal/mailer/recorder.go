package mailer

import (
	"context"
	"sync"
)

// Message is one email captured by Recorder
type Message struct {
	To      string
	Subject string
	Body    string
}

// Recorder keeps every message in memory. Err, when set, is returned from Send instead.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
	Err      error
}

// Send implements Mailer
func (r *Recorder) Send(ctx context.Context, to, subject, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.messages = append(r.messages, Message{To: to, Subject: subject, Body: body})
	return nil
}

// Messages returns a copy of the captured messages
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// Last returns the newest message and whether there was one
func (r *Recorder) Last() (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return Message{}, false
	}
	return r.messages[len(r.messages)-1], true
}

package testutil

import (
	"sync"

	"github.com/mcoot/teamenforcer/internal/model"
)

// Told is one message sent to a single participant
type Told struct {
	Identity model.Identity
	Message  string
}

// RecordingNotifier keeps every notice it is given
type RecordingNotifier struct {
	mu         sync.Mutex
	broadcasts []string
	tells      []Told
	console    []string
}

func (n *RecordingNotifier) Broadcast(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.broadcasts = append(n.broadcasts, msg)
}

func (n *RecordingNotifier) Tell(id model.Identity, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.tells = append(n.tells, Told{Identity: id, Message: msg})
}

func (n *RecordingNotifier) Console(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.console = append(n.console, msg)
}

// Broadcasts returns a copy of every broadcast so far
func (n *RecordingNotifier) Broadcasts() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.broadcasts...)
}

// TellsTo returns the messages sent to one participant
func (n *RecordingNotifier) TellsTo(id model.Identity) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var msgs []string
	for _, t := range n.tells {
		if t.Identity == id {
			msgs = append(msgs, t.Message)
		}
	}
	return msgs
}

// ConsoleLines returns a copy of every console line so far
func (n *RecordingNotifier) ConsoleLines() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.console...)
}

// Reset forgets everything recorded
func (n *RecordingNotifier) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.broadcasts = nil
	n.tells = nil
	n.console = nil
}

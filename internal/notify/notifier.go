package notify

import (
	"encoding/json"
	"log/slog"

	"github.com/mcoot/teamenforcer/internal/dependencies/clock"
	"github.com/mcoot/teamenforcer/internal/host"
	"github.com/mcoot/teamenforcer/internal/model"
)

// Publisher is where encoded events go. Notices are best effort; Deliver
// reports whether the host got the event.
type Publisher interface {
	BroadcastEvent(eventName, data string)
	Deliver(eventName, data string) error
}

// Notifier turns notices and role switches into stream events
type Notifier struct {
	publisher Publisher
	prefix    string
	clock     clock.Clock
	logger    *slog.Logger
}

var (
	_ host.Notifier      = (*Notifier)(nil)
	_ host.DirectiveSink = (*Notifier)(nil)
)

// NewNotifier creates a notifier. Chat messages are prefixed with prefix.
func NewNotifier(publisher Publisher, prefix string, clk clock.Clock, logger *slog.Logger) *Notifier {
	return &Notifier{
		publisher: publisher,
		prefix:    prefix,
		clock:     clk,
		logger:    logger.With(slog.String("component", "notifier")),
	}
}

// Broadcast sends a chat message to every participant
func (n *Notifier) Broadcast(msg string) {
	n.publish(model.Event{Type: model.EventBroadcast, Message: n.chat(msg)})
}

// Tell sends a chat message to one participant
func (n *Notifier) Tell(id model.Identity, msg string) {
	n.publish(model.Event{Type: model.EventTell, Identity: id, Message: n.chat(msg)})
}

// Console writes to the server console
func (n *Notifier) Console(msg string) {
	n.publish(model.Event{Type: model.EventConsole, Message: msg})
}

// RoleSwitched asks the host to move a participant to a new role and fails
// when no host received the directive
func (n *Notifier) RoleSwitched(p model.Participant) error {
	event, data, err := n.encode(model.Event{
		Type:     model.EventRoleSwitch,
		Identity: p.Identity,
		Handle:   p.Handle,
		Role:     p.Role,
	})
	if err != nil {
		return err
	}
	return n.publisher.Deliver(event, data)
}

func (n *Notifier) chat(msg string) string {
	if n.prefix == "" {
		return msg
	}
	return n.prefix + " " + msg
}

func (n *Notifier) publish(event model.Event) {
	name, data, err := n.encode(event)
	if err != nil {
		return
	}
	n.publisher.BroadcastEvent(name, data)
}

// encode stamps event and returns its stream name and JSON payload
func (n *Notifier) encode(event model.Event) (string, string, error) {
	event.Timestamp = n.clock.Now()
	data, err := json.Marshal(event)
	if err != nil {
		n.logger.Error("failed to encode event",
			slog.String("type", string(event.Type)),
			slog.Any("error", err))
		return "", "", err
	}
	return string(event.Type), string(data), nil
}

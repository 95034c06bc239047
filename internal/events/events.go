// Package events carries note change notifications from the service to live
// views over an in-process watermill pub/sub.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// Topic is the watermill topic all note events are published on.
const Topic = "notes"

// Type names a note event.
type Type string

const (
	Created Type = "note.created"
	Updated Type = "note.updated"
	Deleted Type = "note.deleted"
)

// NoteEvent describes a committed change to one note. For Updated events every
// field is set so open views can reconcile without re-reading the store.
type NoteEvent struct {
	Type      Type      `json:"type"`
	ID        int64     `json:"id"`
	Title     string    `json:"title,omitempty"`
	Content   string    `json:"content,omitempty"`
	ImagePath string    `json:"image_path,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// NoteUpdated builds the event published after an update commits.
func NoteUpdated(id int64, title, content, imagePath string, updatedAt time.Time) NoteEvent {
	return NoteEvent{Type: Updated, ID: id, Title: title, Content: content, ImagePath: imagePath, UpdatedAt: updatedAt}
}

// Publisher is what the note service needs from the bus.
type Publisher interface {
	Publish(ev NoteEvent) error
}

// Bus is a watermill GoChannel pub/sub specialised to NoteEvent.
type Bus struct {
	pubSub *gochannel.GoChannel
	logger *slog.Logger
}

// NewBus creates a bus whose subscribers each buffer up to buffer messages.
func NewBus(buffer int64, logger *slog.Logger) *Bus {
	return &Bus{
		pubSub: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: buffer},
			watermill.NewStdLogger(false, false),
		),
		logger: logger,
	}
}

// Publish sends ev to every current subscriber. Events published with no
// subscribers are dropped.
func (b *Bus) Publish(ev NoteEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("events: marshal: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("type", string(ev.Type))
	if err := b.pubSub.Publish(Topic, msg); err != nil {
		return fmt.Errorf("events: publish: %w", err)
	}
	return nil
}

// Subscribe returns a channel of decoded events that is closed when ctx is
// cancelled or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context) (<-chan NoteEvent, error) {
	messages, err := b.pubSub.Subscribe(ctx, Topic)
	if err != nil {
		return nil, fmt.Errorf("events: subscribe: %w", err)
	}

	out := make(chan NoteEvent)
	go func() {
		defer close(out)
		for msg := range messages {
			var ev NoteEvent
			if err := json.Unmarshal(msg.Payload, &ev); err != nil {
				b.logger.Warn("events: dropping undecodable message",
					slog.String("uuid", msg.UUID),
					slog.String("error", err.Error()))
				msg.Ack()
				continue
			}
			select {
			case out <- ev:
				msg.Ack()
			case <-ctx.Done():
				msg.Ack()
				return
			}
		}
	}()
	return out, nil
}

// Close shuts down the bus and closes every subscription.
func (b *Bus) Close() error {
	return b.pubSub.Close()
}

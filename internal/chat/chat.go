package chat

import (
	"context"
	"fmt"

	"github.com/Samuelzila/grammar-police/internal/model"
)

// Replier posts a reply addressed to the message it answers.
type Replier interface {
	Reply(ctx context.Context, msg model.InboundMessage, content string) error
}

// DeliveryError is returned when a reply could not be sent.
type DeliveryError struct {
	Platform model.Platform
	Err      error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivering %s reply: %v", e.Platform, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Mux dispatches replies to the replier registered for the message's platform.
type Mux struct {
	repliers map[model.Platform]Replier
}

func NewMux() *Mux {
	return &Mux{repliers: make(map[model.Platform]Replier)}
}

func (m *Mux) Register(platform model.Platform, r Replier) {
	m.repliers[platform] = r
}

func (m *Mux) Reply(ctx context.Context, msg model.InboundMessage, content string) error {
	r, ok := m.repliers[msg.Platform]
	if !ok {
		return &DeliveryError{Platform: msg.Platform, Err: fmt.Errorf("no replier registered")}
	}
	return r.Reply(ctx, msg, content)
}

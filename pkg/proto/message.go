package proto

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// MsgKind is the closed set of semantic categories an AgentMessage can
// carry, serialized lowercase snake_case on the wire.
type MsgKind string

const (
	MsgKindTaskAssignment  MsgKind = "task_assignment"
	MsgKindTaskComplete    MsgKind = "task_complete"
	MsgKindTaskGiveUp      MsgKind = "task_give_up"
	MsgKindInterrupt       MsgKind = "interrupt"
	MsgKindArchitectReview MsgKind = "architect_review"
	MsgKindInfo            MsgKind = "info"
	MsgKindEvaluation      MsgKind = "evaluation"
	MsgKindObservation     MsgKind = "observation"
)

// ValidMsgKind reports whether k is one of the closed enumeration values.
func ValidMsgKind(k MsgKind) bool {
	switch k {
	case MsgKindTaskAssignment, MsgKindTaskComplete, MsgKindTaskGiveUp,
		MsgKindInterrupt, MsgKindArchitectReview, MsgKindInfo,
		MsgKindEvaluation, MsgKindObservation:
		return true
	default:
		return false
	}
}

// AgentMessage is the record exchanged between agents over the wire.
type AgentMessage struct {
	ID      uuid.UUID  `json:"id"`
	From    AgentID    `json:"from"`
	To      AgentID    `json:"to"`
	Kind    MsgKind    `json:"kind"`
	Content string     `json:"content"`
	TaskID  *uuid.UUID `json:"task_id,omitempty"`
}

// NewMessage builds a message with a freshly generated ID.
func NewMessage(from, to AgentID, kind MsgKind, content string) *AgentMessage {
	return &AgentMessage{
		ID:      uuid.New(),
		From:    from,
		To:      to,
		Kind:    kind,
		Content: content,
	}
}

// WithTaskID attaches a task identifier and returns the same message for
// chaining.
func (m *AgentMessage) WithTaskID(id uuid.UUID) *AgentMessage {
	m.TaskID = &id
	return m
}

// Validate checks required fields and that Kind is a recognized value.
func (m *AgentMessage) Validate() error {
	if m.ID == uuid.Nil {
		return fmt.Errorf("proto: message id is required")
	}
	if m.Kind == "" {
		return fmt.Errorf("proto: message kind is required")
	}
	if !ValidMsgKind(m.Kind) {
		return fmt.Errorf("proto: invalid message kind: %s", m.Kind)
	}
	return nil
}

// ToJSON serializes the message to JSON bytes.
func (m *AgentMessage) ToJSON() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("proto: marshal AgentMessage: %w", err)
	}
	return data, nil
}

// FromJSON parses JSON bytes into a new AgentMessage.
func FromJSON(data []byte) (*AgentMessage, error) {
	var m AgentMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("proto: unmarshal AgentMessage: %w", err)
	}
	return &m, nil
}

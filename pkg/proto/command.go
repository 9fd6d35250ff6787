package proto

import "time"

// TaskStatus is the status of a task record in the supervisor's task log.
type TaskStatus string

const (
	TaskStatusInProgress TaskStatus = "InProgress"
	TaskStatusCompleted  TaskStatus = "Completed"
	TaskStatusBlocked    TaskStatus = "Blocked"
)

// TaskRecord is one append-only entry in the supervisor's task log.
type TaskRecord struct {
	Agent     AgentID
	Status    TaskStatus
	Summary   string
	Timestamp time.Time
}

// CommandKind distinguishes the RuntimeCommand variants. RuntimeCommand
// values never cross the wire; they are an in-process privileged channel
// from an agent worker to the supervisor.
type CommandKind int

const (
	CmdSetCrewSize CommandKind = iota
	CmdRelieveManager
	CmdTaskUpdate
)

// RuntimeCommand is the tagged union of privileged directives an agent
// worker's parser output can hand to the supervisor. Only one of the
// fields relevant to Kind is populated.
type RuntimeCommand struct {
	Kind CommandKind

	// CmdSetCrewSize
	CrewSize uint8

	// CmdRelieveManager
	Reason string

	// CmdTaskUpdate
	Agent   AgentID
	Status  TaskStatus
	Summary string
}

// NewSetCrewSize builds a SetCrewSize command.
func NewSetCrewSize(count uint8) RuntimeCommand {
	return RuntimeCommand{Kind: CmdSetCrewSize, CrewSize: count}
}

// NewRelieveManager builds a RelieveManager command.
func NewRelieveManager(reason string) RuntimeCommand {
	return RuntimeCommand{Kind: CmdRelieveManager, Reason: reason}
}

// NewTaskUpdate builds a TaskUpdate command.
func NewTaskUpdate(agent AgentID, status TaskStatus, summary string) RuntimeCommand {
	return RuntimeCommand{Kind: CmdTaskUpdate, Agent: agent, Status: status, Summary: summary}
}

// Package proto defines the agent identity and message types exchanged
// between crewctl agents, and the in-process runtime commands agent
// workers hand off to the supervisor.
package proto

import (
	"fmt"
	"strings"
)

// Role is the closed set of agent roles in the fleet.
type Role string

const (
	RoleManager   Role = "manager"
	RoleArchitect Role = "architect"
	RoleDeveloper Role = "developer"
	RoleScorer    Role = "scorer"
)

// String returns the role's lowercase name.
func (r Role) String() string {
	return string(r)
}

// ParseRole parses a role name case-insensitively.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(s) {
	case "manager":
		return RoleManager, nil
	case "architect":
		return RoleArchitect, nil
	case "developer":
		return RoleDeveloper, nil
	case "scorer":
		return RoleScorer, nil
	default:
		return "", fmt.Errorf("unknown role: %s", s)
	}
}

// IsSingleton reports whether the role has exactly one live instance.
func (r Role) IsSingleton() bool {
	return r != RoleDeveloper
}

// AgentID identifies one running agent instance: a role plus an index.
// Singleton roles (manager, architect, scorer) always carry index 0;
// developers use indices 0..N-1 for the current crew size.
type AgentID struct {
	Role  Role  `json:"role"`
	Index uint8 `json:"index"`
}

// NewSingletonID returns the AgentID for a singleton role.
func NewSingletonID(role Role) AgentID {
	return AgentID{Role: role, Index: 0}
}

// NewDeveloperID returns the AgentID for a developer at the given index.
func NewDeveloperID(index uint8) AgentID {
	return AgentID{Role: RoleDeveloper, Index: index}
}

// SocketName returns the stable textual form used as both the socket
// filename stem and a human-readable address: the role name for
// singletons, "developer-<index>" for developers.
func (a AgentID) SocketName() string {
	if a.Role == RoleDeveloper {
		return fmt.Sprintf("developer-%d", a.Index)
	}
	return string(a.Role)
}

// String implements fmt.Stringer.
func (a AgentID) String() string {
	return a.SocketName()
}

// Equal reports structural equality, matching spec.md's equality-by-value
// requirement for AgentID.
func (a AgentID) Equal(other AgentID) bool {
	return a.Role == other.Role && a.Index == other.Index
}

package types

import (
	"encoding/json"
	"fmt"
)

// SessionStatus represents the lifecycle state of a workflow session
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
	SessionStatusPaused    SessionStatus = "paused"
)

// String returns the string representation of SessionStatus
func (s SessionStatus) String() string {
	return string(s)
}

// IsValid checks if the SessionStatus is a valid value
func (s SessionStatus) IsValid() bool {
	switch s {
	case SessionStatusActive, SessionStatusCompleted, SessionStatusPaused:
		return true
	default:
		return false
	}
}

// MarshalJSON implements json.Marshaler
func (s SessionStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// UnmarshalJSON implements json.Unmarshaler
func (s *SessionStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	status := SessionStatus(str)
	if !status.IsValid() {
		return fmt.Errorf("invalid session status: %s", str)
	}
	*s = status
	return nil
}

// UserRole represents the perspective a trainee works an incident from.
// Role selects guidance variants and report recommendations only; it never
// affects transition validity.
type UserRole string

const (
	UserRoleAnalyst UserRole = "analyst"
	UserRoleManager UserRole = "manager"
	UserRoleClient  UserRole = "client"
)

// String returns the string representation of UserRole
func (r UserRole) String() string {
	return string(r)
}

// IsValid checks if the UserRole is a valid value
func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleAnalyst, UserRoleManager, UserRoleClient:
		return true
	default:
		return false
	}
}

// MarshalJSON implements json.Marshaler
func (r UserRole) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(r))
}

// UnmarshalJSON implements json.Unmarshaler
func (r *UserRole) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	role := UserRole(str)
	if !role.IsValid() {
		return fmt.Errorf("invalid user role: %s", str)
	}
	*r = role
	return nil
}

// Severity represents the assessed severity of an incident
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// String returns the string representation of Severity
func (s Severity) String() string {
	return string(s)
}

// IsValid checks if the Severity is a valid value
func (s Severity) IsValid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	default:
		return false
	}
}

// MarshalJSON implements json.Marshaler
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// UnmarshalJSON implements json.Unmarshaler
func (s *Severity) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	sev := Severity(str)
	if !sev.IsValid() {
		return fmt.Errorf("invalid severity: %s", str)
	}
	*s = sev
	return nil
}

// IncidentStatus represents the state of a simulated incident record
type IncidentStatus string

const (
	IncidentStatusOpen      IncidentStatus = "open"
	IncidentStatusContained IncidentStatus = "contained"
	IncidentStatusResolved  IncidentStatus = "resolved"
)

// String returns the string representation of IncidentStatus
func (s IncidentStatus) String() string {
	return string(s)
}

// IsValid checks if the IncidentStatus is a valid value
func (s IncidentStatus) IsValid() bool {
	switch s {
	case IncidentStatusOpen, IncidentStatusContained, IncidentStatusResolved:
		return true
	default:
		return false
	}
}

// MarshalJSON implements json.Marshaler
func (s IncidentStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// UnmarshalJSON implements json.Unmarshaler
func (s *IncidentStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	status := IncidentStatus(str)
	if !status.IsValid() {
		return fmt.Errorf("invalid incident status: %s", str)
	}
	*s = status
	return nil
}

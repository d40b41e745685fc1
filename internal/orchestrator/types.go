package orchestrator

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Outcome is the result of a single orchestrator call. Code and Message are
// only meaningful when OK is false. Calls return a definite outcome rather
// than hang; a hanging orchestrator is the transport's problem, not ours.
type Outcome struct {
	OK      bool
	Code    string
	Message string
}

func Success() Outcome {
	return Outcome{OK: true}
}

func Failure(code, message string) Outcome {
	return Outcome{Code: code, Message: message}
}

func Failuref(code, format string, args ...any) Outcome {
	return Outcome{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (o Outcome) Err() error {
	if o.OK {
		return nil
	}
	if o.Message == "" {
		return errors.New(o.Code)
	}
	return fmt.Errorf("%s: %s", o.Code, o.Message)
}

// SessionStart is the payload of an inbound session assignment.
type SessionStart struct {
	SessionID  string
	MaxPlayers int
	Properties map[string]string
}

// SessionUpdate arrives when the orchestrator changes an already-active
// session, typically after a backfill pass rewrites the matchmaker data.
type SessionUpdate struct {
	SessionID      string
	Reason         string
	MatchmakerData string
}

// Callbacks is the event surface the node registers once during
// initialization. The adapter may invoke any of these from a goroutine it
// owns; OnHealthCheck must return promptly.
type Callbacks struct {
	OnSessionStart  func(SessionStart)
	OnSessionUpdate func(SessionUpdate)
	OnTerminate     func()
	OnHealthCheck   func() bool
}

// AcceptancePolicy tells the orchestrator whether new player sessions may be
// placed on this process.
type AcceptancePolicy string

const (
	AcceptAll AcceptancePolicy = "accept_all"
	DenyAll   AcceptancePolicy = "deny_all"
)

// ReadyParams announces where the process listens and which log files the
// orchestrator should collect after the process ends.
type ReadyParams struct {
	Port     int
	LogPaths []string
}

// RegistrationParams identifies this process to the orchestrator when it
// registers into a self-managed fleet. Token and key fields are secrets;
// MarshalZerologObject emits them redacted so a plain .Object() log line can
// never leak them.
type RegistrationParams struct {
	WebSocketURL string
	FleetID      string
	HostID       string
	ProcessID    string
	AuthToken    string
	AccessKey    string
	SecretKey    string
	SessionToken string
	Region       string
}

func (p RegistrationParams) MarshalZerologObject(e *zerolog.Event) {
	e.Str("ws_url", p.WebSocketURL).
		Str("fleet_id", p.FleetID).
		Str("host_id", p.HostID).
		Str("process_id", p.ProcessID).
		Str("auth_token", redact(p.AuthToken)).
		Str("access_key", redact(p.AccessKey)).
		Str("secret_key", redact(p.SecretKey)).
		Str("session_token", redact(p.SessionToken)).
		Str("region", p.Region)
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "[redacted]"
}

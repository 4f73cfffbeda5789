package api

import (
	"context"
	"time"
)

// Token is an opaque session/authorization token. The engine never inspects
// it; it only forwards it to the transport.
type Token string

// Identity is the visual identity attributed to a user or participant.
type Identity struct {
	UserID    string `json:"user_id"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// SessionInfo is everything the session provider supplies about the current
// user.
type SessionInfo struct {
	Token Token
	User  Identity
	OrgID string
}

// SessionProvider supplies the current session. Implementations return
// ErrNoSession when no user is signed in; the engine then permits no
// operations.
type SessionProvider interface {
	Current(ctx context.Context) (SessionInfo, error)
}

// StaticSession returns a SessionProvider that always yields info.
// Useful for tests and single-user tooling.
func StaticSession(info SessionInfo) SessionProvider {
	return staticSession{info: info}
}

type staticSession struct {
	info SessionInfo
}

func (s staticSession) Current(ctx context.Context) (SessionInfo, error) {
	if s.info.Token == "" {
		return SessionInfo{}, ErrNoSession
	}
	return s.info, nil
}

// Transport fetches and persists workflows. Implementations classify every
// failure of Save into a TransportError so callers can branch on the kind.
type Transport interface {
	// GetAll lists the workflows visible to the given session, in a stable
	// order.
	GetAll(ctx context.Context, token Token) ([]WorkflowSummary, error)

	// Create registers a new, empty workflow and returns its summary.
	Create(ctx context.Context, token Token, name, description string) (WorkflowSummary, error)

	// Save persists the graph snapshot for an existing workflow. The server
	// may re-run structural validation and decline with a Rejected error.
	Save(ctx context.Context, token Token, workflowID string, snapshot GraphSnapshot) (WorkflowSummary, error)
}

// Participant is one presence entry: a remote user currently viewing or
// editing the same workflow. Presence is advisory only and never gates
// mutations or saves.
type Participant struct {
	ID       string
	Identity Identity

	// Primary marks the earliest joiner still present; the renderer gives it
	// the distinguished avatar styling.
	Primary bool

	JoinedAt time.Time
	LastSeen time.Time
}

// PresenceEventKind identifies a presence channel notification.
type PresenceEventKind string

const (
	PresenceJoin      PresenceEventKind = "join"
	PresenceLeave     PresenceEventKind = "leave"
	PresenceHeartbeat PresenceEventKind = "heartbeat"
)

// PresenceEvent is one join/leave/heartbeat notification for a workflow.
type PresenceEvent struct {
	Kind          PresenceEventKind `json:"kind"`
	WorkflowID    string            `json:"workflow_id"`
	ParticipantID string            `json:"participant_id"`
	Identity      Identity          `json:"identity"`
}

// PresenceChannel is an externally supplied stream of presence notifications.
// Subscribe returns a channel that is closed when ctx is cancelled or the
// underlying stream ends. Publish announces the local participant to others.
type PresenceChannel interface {
	Subscribe(ctx context.Context, workflowID string) (<-chan PresenceEvent, error)
	Publish(ctx context.Context, ev PresenceEvent) error
}

// BlockType is one entry of the closed block catalog: a kind of block the
// user can place on the canvas. The engine stores the chosen ID opaquely as
// the node's type tag.
type BlockType struct {
	ID          string
	DisplayName string
	Icon        string
}

// ChannelInfo is one selectable destination returned by an integration
// gateway once the service is connected.
type ChannelInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ConnectionState is the two-state handshake of an integration: the info call
// errors while Disconnected and succeeds once Connected.
type ConnectionState string

const (
	Disconnected ConnectionState = "DISCONNECTED"
	Connected    ConnectionState = "CONNECTED"
)

// IntegrationGateway is the narrow contract to a third-party OAuth
// integration. GetInfo returns ErrNotConnected until the user completes the
// out-of-band authorization that Install begins.
type IntegrationGateway interface {
	GetInfo(ctx context.Context, service string) ([]ChannelInfo, error)
	Install(ctx context.Context, service, returnPath string) (string, error)
}

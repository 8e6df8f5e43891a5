// Package types defines the domain records returned by the query layer and
// the request shapes accepted at the HTTP boundary.
package types

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// StringList accepts either a single JSON string or an array of strings,
// normalizing both to a list.
type StringList []string

// UnmarshalJSON implements the string-or-list behavior.
func (s *StringList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*s = StringList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = StringList(many)
	return nil
}

// Agent is a configured agent owned by a developer.
type Agent struct {
	ID              uuid.UUID       `json:"id"`
	DeveloperID     uuid.UUID       `json:"developer_id"`
	Name            string          `json:"name"`
	CanonicalName   string          `json:"canonical_name"`
	About           string          `json:"about"`
	Instructions    []string        `json:"instructions"`
	Model           string          `json:"model"`
	Metadata        json.RawMessage `json:"metadata,omitempty"`
	DefaultSettings json.RawMessage `json:"default_settings,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Developer is an API tenant.
type Developer struct {
	ID        uuid.UUID       `json:"id"`
	Email     string          `json:"email"`
	Active    bool            `json:"active"`
	Tags      []string        `json:"tags"`
	Settings  json.RawMessage `json:"settings,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// User is an end user belonging to a developer.
type User struct {
	ID          uuid.UUID       `json:"id"`
	DeveloperID uuid.UUID       `json:"developer_id"`
	Name        string          `json:"name"`
	About       string          `json:"about"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Session is a conversation scope binding agents and users.
type Session struct {
	ID               uuid.UUID       `json:"id"`
	DeveloperID      uuid.UUID       `json:"developer_id"`
	Situation        string          `json:"situation"`
	SystemTemplate   *string         `json:"system_template,omitempty"`
	Metadata         json.RawMessage `json:"metadata,omitempty"`
	RenderTemplates  bool            `json:"render_templates"`
	TokenBudget      *int            `json:"token_budget,omitempty"`
	ContextOverflow  *string         `json:"context_overflow,omitempty"`
	ForwardToolCalls bool            `json:"forward_tool_calls"`
	RecallOptions    json.RawMessage `json:"recall_options,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// Entry is one message or event in a session's history.
type Entry struct {
	ID         uuid.UUID       `json:"id"`
	SessionID  uuid.UUID       `json:"session_id"`
	Source     string          `json:"source"`
	Role       string          `json:"role"`
	EventType  string          `json:"event_type"`
	Name       *string         `json:"name,omitempty"`
	Content    json.RawMessage `json:"content"`
	ToolCallID *string         `json:"tool_call_id,omitempty"`
	ToolCalls  json.RawMessage `json:"tool_calls,omitempty"`
	Model      string          `json:"model"`
	TokenCount *int            `json:"token_count,omitempty"`
	Tokenizer  string          `json:"tokenizer"`
	CreatedAt  time.Time       `json:"created_at"`
	Timestamp  float64         `json:"timestamp"`
}

// Relation links two entries within a session's history graph.
type Relation struct {
	SessionID uuid.UUID `json:"session_id"`
	Head      uuid.UUID `json:"head"`
	Relation  string    `json:"relation"`
	Tail      uuid.UUID `json:"tail"`
}

// DocOwner identifies the owner of a matched document.
type DocOwner struct {
	ID   uuid.UUID `json:"id"`
	Role string    `json:"role"`
}

// DocReference is one vector-search match.
type DocReference struct {
	ID       uuid.UUID       `json:"id"`
	Owner    DocOwner        `json:"owner"`
	Title    *string         `json:"title,omitempty"`
	Snippet  *string         `json:"snippet,omitempty"`
	Distance float64         `json:"distance"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
}

// ResourceCreated acknowledges a created resource.
type ResourceCreated struct {
	ID        uuid.UUID `json:"id"`
	CreatedAt time.Time `json:"created_at"`
}

// ResourceUpdated acknowledges an updated resource.
type ResourceUpdated struct {
	ID        uuid.UUID `json:"id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ResourceDeleted acknowledges a deleted resource.
type ResourceDeleted struct {
	ID        uuid.UUID `json:"id"`
	DeletedAt time.Time `json:"deleted_at"`
}

// CreateOrUpdateAgentRequest carries the fields for an agent upsert.
type CreateOrUpdateAgentRequest struct {
	Name            string         `json:"name" binding:"required"`
	CanonicalName   string         `json:"canonical_name,omitempty"`
	About           string         `json:"about,omitempty"`
	Instructions    StringList     `json:"instructions,omitempty"`
	Model           string         `json:"model,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	DefaultSettings map[string]any `json:"default_settings,omitempty"`
}

// CreateDeveloperRequest registers a developer.
type CreateDeveloperRequest struct {
	Email    string         `json:"email" binding:"required,email"`
	Active   *bool          `json:"active,omitempty"`
	Tags     []string       `json:"tags,omitempty"`
	Settings map[string]any `json:"settings,omitempty"`
}

// CreateOrUpdateUserRequest carries the fields for a user upsert.
type CreateOrUpdateUserRequest struct {
	Name     string         `json:"name" binding:"required"`
	About    string         `json:"about,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// PatchUserRequest carries a partial user update; nil fields are untouched.
type PatchUserRequest struct {
	Name     *string        `json:"name,omitempty"`
	About    *string        `json:"about,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// CreateSessionRequest creates a session with its participants.
type CreateSessionRequest struct {
	Agent            *uuid.UUID     `json:"agent,omitempty"`
	Agents           []uuid.UUID    `json:"agents,omitempty"`
	User             *uuid.UUID     `json:"user,omitempty"`
	Users            []uuid.UUID    `json:"users,omitempty"`
	Situation        string         `json:"situation,omitempty"`
	SystemTemplate   *string        `json:"system_template,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	RenderTemplates  bool           `json:"render_templates,omitempty"`
	TokenBudget      *int           `json:"token_budget,omitempty"`
	ContextOverflow  *string        `json:"context_overflow,omitempty"`
	ForwardToolCalls bool           `json:"forward_tool_calls,omitempty"`
	RecallOptions    map[string]any `json:"recall_options,omitempty"`
}

// PatchSessionRequest carries a partial session update.
type PatchSessionRequest struct {
	Situation        *string        `json:"situation,omitempty"`
	SystemTemplate   *string        `json:"system_template,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	RenderTemplates  *bool          `json:"render_templates,omitempty"`
	TokenBudget      *int           `json:"token_budget,omitempty"`
	ContextOverflow  *string        `json:"context_overflow,omitempty"`
	ForwardToolCalls *bool          `json:"forward_tool_calls,omitempty"`
	RecallOptions    map[string]any `json:"recall_options,omitempty"`
}

// CreateEntryRequest appends one entry to a session.
type CreateEntryRequest struct {
	ID         *uuid.UUID     `json:"id,omitempty"`
	Source     string         `json:"source,omitempty"`
	Role       string         `json:"role" binding:"required"`
	EventType  string         `json:"event_type,omitempty"`
	Name       *string        `json:"name,omitempty"`
	Content    any            `json:"content,omitempty"`
	ToolCallID *string        `json:"tool_call_id,omitempty"`
	ToolCalls  any            `json:"tool_calls,omitempty"`
	Model      string         `json:"model,omitempty"`
	TokenCount *int           `json:"token_count,omitempty"`
	CreatedAt  *time.Time     `json:"created_at,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// CreateRelationRequest links two entries.
type CreateRelationRequest struct {
	Head     uuid.UUID `json:"head" binding:"required"`
	Relation string    `json:"relation" binding:"required"`
	Tail     uuid.UUID `json:"tail" binding:"required"`
}

// DocSearchOwner scopes a document search to one owner.
type DocSearchOwner struct {
	Role string    `json:"role" binding:"required,oneof=user agent"`
	ID   uuid.UUID `json:"id" binding:"required"`
}

// DocSearchRequest is a vector similarity search over documents.
type DocSearchRequest struct {
	Embedding      []float32        `json:"embedding" binding:"required"`
	K              int              `json:"k,omitempty"`
	Confidence     float64          `json:"confidence,omitempty"`
	Owners         []DocSearchOwner `json:"owners,omitempty"`
	MetadataFilter map[string]any   `json:"metadata_filter,omitempty"`
}

package core

import (
	"context"
	"time"
)

// Role identifies which instructions the text generator receives
type Role string

const (
	RoleSummarizer Role = "summarizer"
	RolePlanner    Role = "planner"
	RoleCoder      Role = "coder"
	RoleDebugger   Role = "debugger"
)

// Step is one state of the analysis workflow
type Step string

const (
	StepPlan    Step = "plan"
	StepCode    Step = "code"
	StepExecute Step = "execute"
	StepRepair  Step = "repair"
	StepDone    Step = "done"
)

// DefaultRetryLimit is the number of repair attempts allowed per turn
const DefaultRetryLimit = 3

// Message roles stored in the conversation
const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
)

// Message is one entry of the session conversation
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Insight annotates one interactive figure
type Insight struct {
	Title      string `json:"title"`
	KeyFinding string `json:"key_finding"`
	Details    string `json:"details"`
}

// InteractiveFigure is an embeddable chart payload with its insight
type InteractiveFigure struct {
	HTML    string  `json:"html"`
	Insight Insight `json:"insight"`
}

// Artifacts holds the visual results of the latest successful execution
type Artifacts struct {
	StaticImage []byte              `json:"static_image,omitempty"`
	Figures     []InteractiveFigure `json:"figures,omitempty"`
}

// Empty reports whether there is nothing to deliver
func (a Artifacts) Empty() bool {
	return len(a.StaticImage) == 0 && len(a.Figures) == 0
}

// Session is the analysis state of one uploaded dataset
type Session struct {
	ID             string    `json:"id"`
	DatasetPath    string    `json:"dataset_path"`
	DatasetSummary string    `json:"dataset_summary"`
	Messages       []Message `json:"messages"`
	WorkingCode    string    `json:"working_code"`
	LastOutput     string    `json:"last_output"`
	LastError      string    `json:"last_error"`
	RetryCount     int       `json:"retry_count"`
	Artifacts      Artifacts `json:"artifacts"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewSession creates an empty session bound to a dataset
func NewSession(id, datasetPath string) *Session {
	now := time.Now()
	return &Session{
		ID:          id,
		DatasetPath: datasetPath,
		Messages:    []Message{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// AddMessage appends a message to the conversation
func (s *Session) AddMessage(role, content string) {
	s.Messages = append(s.Messages, Message{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
	s.UpdatedAt = time.Now()
}

// LastMessage returns the most recent message, or nil for an empty conversation
func (s *Session) LastMessage() *Message {
	if len(s.Messages) == 0 {
		return nil
	}
	return &s.Messages[len(s.Messages)-1]
}

// Clone returns a deep copy of the session
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Messages = append([]Message(nil), s.Messages...)
	if s.Messages != nil && c.Messages == nil {
		c.Messages = []Message{}
	}
	if s.Artifacts.StaticImage != nil {
		c.Artifacts.StaticImage = append([]byte(nil), s.Artifacts.StaticImage...)
	}
	if s.Artifacts.Figures != nil {
		c.Artifacts.Figures = append([]InteractiveFigure(nil), s.Artifacts.Figures...)
	}
	return &c
}

// ExecutionResult is what one run of generated code produced.
// An empty Error means success.
type ExecutionResult struct {
	TextOutput      string              `json:"text_output"`
	StaticImage     []byte              `json:"static_image,omitempty"`
	StaticImagePath string              `json:"static_image_path,omitempty"`
	Figures         []InteractiveFigure `json:"figures,omitempty"`
	Error           string              `json:"error,omitempty"`
	// LoadFailed marks a dataset that could not be loaded; TextOutput explains why.
	LoadFailed bool `json:"load_failed,omitempty"`
}

// TurnResult is handed to the transport after a turn completes
type TurnResult struct {
	SessionID    string              `json:"session_id"`
	ResponseText string              `json:"response_text"`
	StaticImage  []byte              `json:"static_image,omitempty"`
	Figures      []InteractiveFigure `json:"figures,omitempty"`
	Failed       bool                `json:"failed"`
	Path         []Step              `json:"path"`
	RetryCount   int                 `json:"retry_count"`
}

// Generator produces text for a role from named context fields
type Generator interface {
	Generate(ctx context.Context, role Role, fields map[string]any) (string, error)
}

// Executor runs generated code against a dataset
type Executor interface {
	Execute(ctx context.Context, code, datasetPath, sessionID string) ExecutionResult
}

// Notifier receives progress events, once per workflow step
type Notifier interface {
	StepStarted(ctx context.Context, sessionID string, step Step)
	StepFinished(ctx context.Context, sessionID string, step Step, err error)
}

// NopNotifier discards progress events
type NopNotifier struct{}

func (NopNotifier) StepStarted(context.Context, string, Step)         {}
func (NopNotifier) StepFinished(context.Context, string, Step, error) {}

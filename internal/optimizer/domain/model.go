package domain

import "time"

// Role of a chat turn
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	return r == RoleSystem || r == RoleUser || r == RoleAssistant
}

// Session is the server-side record of one uploaded Dockerfile
type Session struct {
	ID        string    `json:"sessionID"`
	Raw       string    `json:"raw"`
	Optimized *string   `json:"optimized,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OptimizedOrRaw returns the optimized text when one was stored, the raw text otherwise
func (s *Session) OptimizedOrRaw() string {
	if s.Optimized != nil {
		return *s.Optimized
	}
	return s.Raw
}

// ChatTurn is one entry of the client-held conversation history
type ChatTurn struct {
	Role    Role   `json:"role" binding:"required,oneof=system user assistant"`
	Content string `json:"content"`
}

// LintResult is a single lint finding
type LintResult struct {
	Line     int    `json:"line"`
	Rule     string `json:"rule"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// LayerEntry describes one image layer and its size
type LayerEntry struct {
	Instruction string `json:"instruction"`
	SizeBytes   int64  `json:"sizeBytes"`
}

// UploadResult is returned after a Dockerfile upload
type UploadResult struct {
	SessionID  string `json:"sessionID"`
	Filename   string `json:"filename"`
	Dockerfile string `json:"dockerfile"`
}

// OptimizeResult is returned by an optimize call
type OptimizeResult struct {
	SessionID           string       `json:"sessionID"`
	OptimizedDockerfile string       `json:"optimizedDockerfile"`
	LintResults         []LintResult `json:"lintResults"`
	LayerReport         []LayerEntry `json:"layerReport"`
}

// ChatResult is returned by a chat call
type ChatResult struct {
	Response string     `json:"response"`
	History  []ChatTurn `json:"history"`
}

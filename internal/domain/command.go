package domain

import "time"

// CommandEntry represents a log entry for one processed user command
type CommandEntry struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"-"`
	Time       string    `json:"ts"`
	Source     string    `json:"source"`
	Raw        string    `json:"raw"`
	Normalized string    `json:"normalized"`
	Payload    Record    `json:"payload"`
	Accepted   bool      `json:"ok"`
	Message    string    `json:"msg"`
}

const (
	SourceText  = "text"
	SourceVoice = "voice/deepgram"
	SourceAMQP  = "amqp"
	SourceCLI   = "cli"
)

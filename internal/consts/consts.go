package consts

import "time"

// Conversation history bounds
const (
	// HistoryPromptLimit is the maximum number of stored messages sent to the
	// model on each turn
	HistoryPromptLimit = 10
	// HistoryStorageLimit is the maximum number of messages kept in a session
	HistoryStorageLimit = 20
)

// Tool output limits
const (
	// MaxListedRecords caps how many records a read-only tool summarizes for
	// the model
	MaxListedRecords = 10
)

// LLM default configurations
const (
	// DefaultModel is the chat model used when none is configured
	DefaultModel = "gpt-4o"
	// DefaultTranscriptionModel is the speech-to-text model
	DefaultTranscriptionModel = "whisper-1"
)

// Timeouts for various operations
const (
	// Timeout5Seconds is a 5 second timeout
	Timeout5Seconds = 5 * time.Second
	// Timeout10Seconds is a 10 second timeout
	Timeout10Seconds = 10 * time.Second
	// Timeout30Seconds is a 30 second timeout
	Timeout30Seconds = 30 * time.Second
	// Timeout60Seconds is a 60 second timeout (1 minute)
	Timeout60Seconds = 60 * time.Second
	// Timeout2Minutes is a 2 minute timeout
	Timeout2Minutes = 2 * time.Minute
)

// Confirmation gate
const (
	// PendingActionTTL is how long a proposed mutation stays confirmable
	PendingActionTTL = 10 * time.Minute
)

// Telegram polling
const (
	// LongPollSeconds is the getUpdates long-poll window
	LongPollSeconds = 50
)

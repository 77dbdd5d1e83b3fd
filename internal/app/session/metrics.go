package session

import "github.com/YelzhanWeb/bulkplan/internal/domain"

// Metrics receives counters from the command pipeline.
type Metrics interface {
	CommandProcessed(intent domain.IntentType, accepted bool)
	Transcription(result string)
	ScheduleSize(operations int)
	ScheduleReset()
}

const (
	TranscriptionOK    = "ok"
	TranscriptionEmpty = "empty"
	TranscriptionError = "error"
)

type nopMetrics struct{}

func (nopMetrics) CommandProcessed(domain.IntentType, bool) {}
func (nopMetrics) Transcription(string)                     {}
func (nopMetrics) ScheduleSize(int)                         {}
func (nopMetrics) ScheduleReset()                           {}

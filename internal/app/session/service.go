// Package session owns the process-wide planning state: the base and current
// schedules, the rolling command log and the last voice transcript.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/YelzhanWeb/bulkplan/internal/adapter/logger"
	"github.com/YelzhanWeb/bulkplan/internal/app/intent"
	"github.com/YelzhanWeb/bulkplan/internal/app/planner"
	"github.com/YelzhanWeb/bulkplan/internal/domain"
	"github.com/YelzhanWeb/bulkplan/internal/interfaces"
)

var (
	ErrDuplicateAudio = errors.New("audio already processed")
	ErrNoSpeech       = errors.New("no speech detected")
	ErrNoTranscriber  = errors.New("transcriber not configured")
	ErrEmptyCommand   = errors.New("empty command")
)

const (
	timestampLayout = "2006-01-02 15:04:05"
	fingerprintSize = 1024

	IntentReset domain.IntentType = "reset"
)

type Result = interfaces.CommandResult

type Config struct {
	Orders       []domain.Order
	Base         domain.Schedule
	MachineNames map[string]string
	Extractor    intent.Chain
	Transcriber  interfaces.Transcriber
	Publisher    interfaces.MessagePublisher
	Recorder     interfaces.CommandRecorder
	Metrics      Metrics
	Location     *time.Location
	LogSize      int
	Now          func() time.Time
	// Repair selects how machines are repaired after each mutation.
	Repair planner.RepairMode
}

type fingerprint struct {
	size int
	sum  uint64
}

type Service struct {
	// mu serializes the command pipeline; readers go through current.
	mu      sync.Mutex
	current atomic.Pointer[domain.Schedule]
	base    domain.Schedule

	known     domain.OrderSet
	names     map[string]string
	extractor intent.Chain
	mutator   planner.Mutator
	log       *commandLog

	cacheMu         sync.RWMutex
	lastTranscript  string
	lastFingerprint *fingerprint

	transcriber interfaces.Transcriber
	publisher   interfaces.MessagePublisher
	recorder    interfaces.CommandRecorder
	metrics     Metrics
	location    *time.Location
	now         func() time.Time
	logger      logger.Logger
}

func NewService(cfg Config, log logger.Logger) *Service {
	if cfg.Extractor == nil {
		cfg.Extractor = intent.Chain{intent.RegexExtractor{}, intent.Fallback}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = nopMetrics{}
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	names := make(map[string]string, len(cfg.MachineNames))
	for k, v := range cfg.MachineNames {
		names[k] = v
	}

	s := &Service{
		base:        cfg.Base.Clone(),
		known:       domain.NewOrderSet(cfg.Orders),
		names:       names,
		extractor:   cfg.Extractor,
		mutator:     planner.Mutator{Mode: cfg.Repair},
		log:         newCommandLog(cfg.LogSize),
		transcriber: cfg.Transcriber,
		publisher:   cfg.Publisher,
		recorder:    cfg.Recorder,
		metrics:     cfg.Metrics,
		location:    cfg.Location,
		now:         cfg.Now,
		logger:      log,
	}

	current := s.base.Clone()
	s.current.Store(&current)
	s.metrics.ScheduleSize(current.Len())

	return s
}

func (s *Service) Current() domain.Schedule {
	return *s.current.Load()
}

func (s *Service) Base() domain.Schedule {
	return s.base
}

func (s *Service) MachineNames() map[string]string {
	out := make(map[string]string, len(s.names))
	for k, v := range s.names {
		out[k] = v
	}
	return out
}

func (s *Service) Commands() []domain.CommandEntry {
	return s.log.All()
}

func (s *Service) LastTranscript() string {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	return s.lastTranscript
}

func (s *Service) OrderTimeline(orderID string) ([]domain.Operation, error) {
	ops := s.Current().ForOrder(orderID)
	if len(ops) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownOrder, orderID)
	}
	return ops, nil
}

// ProcessText runs one typed command through normalize, extract, validate and
// apply. A rejected command is not an error: it is reported in the result and
// recorded in the command log.
func (s *Service) ProcessText(ctx context.Context, raw, source string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(raw) == "" {
		return Result{}, ErrEmptyCommand
	}
	return s.process(ctx, raw, source), nil
}

// ProcessVoice transcribes audio and processes the transcript. The same
// recording is processed at most once in a row. The pipeline lock is taken
// only after transcription, so text commands and Reset are not held up by
// the transcriber.
func (s *Service) ProcessVoice(ctx context.Context, audio []byte, mimetype string) (Result, error) {
	requestID := logger.RequestID(ctx)

	if len(audio) == 0 {
		return Result{}, ErrNoSpeech
	}
	if s.transcriber == nil {
		return Result{}, ErrNoTranscriber
	}

	fp := audioFingerprint(audio)
	s.cacheMu.Lock()
	duplicate := s.lastFingerprint != nil && *s.lastFingerprint == fp
	if !duplicate {
		s.lastFingerprint = &fp
	}
	s.cacheMu.Unlock()
	if duplicate {
		s.logger.Debug("voice_duplicate", "Audio already processed, skipping", requestID, map[string]interface{}{"bytes": len(audio)})
		return Result{}, ErrDuplicateAudio
	}

	text, err := s.transcriber.Transcribe(ctx, audio, mimetype)
	if err != nil {
		s.metrics.Transcription(TranscriptionError)
		s.logger.Error("transcription_failed", "Transcription failed", requestID, map[string]interface{}{"bytes": len(audio)}, err)
		return Result{}, fmt.Errorf("transcription failed: %w", err)
	}

	text = strings.TrimSpace(text)
	s.cacheMu.Lock()
	s.lastTranscript = text
	s.cacheMu.Unlock()

	if text == "" {
		s.metrics.Transcription(TranscriptionEmpty)
		return Result{}, ErrNoSpeech
	}
	s.metrics.Transcription(TranscriptionOK)
	s.logger.Debug("transcription_received", "Transcript received", requestID, map[string]interface{}{"transcript": text})

	s.mu.Lock()
	res := s.process(ctx, text, domain.SourceVoice)
	s.mu.Unlock()

	res.Transcript = text
	return res, nil
}

// Reset restores the base schedule and clears the command log and the
// transcript cache.
func (s *Service) Reset(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.base.Clone()
	s.current.Store(&current)
	s.log.Clear()

	s.cacheMu.Lock()
	s.lastTranscript = ""
	s.lastFingerprint = nil
	s.cacheMu.Unlock()

	s.metrics.ScheduleReset()
	s.metrics.ScheduleSize(current.Len())
	s.logger.Info("schedule_reset", "Schedule reset to base", logger.RequestID(ctx), nil)

	s.publish(ctx, interfaces.ScheduleChangedMessage{
		CommandID: uuid.NewString(),
		Intent:    IntentReset,
		Message:   "Reset to base schedule",
		Source:    "reset",
	}, current)
}

func (s *Service) process(ctx context.Context, raw, source string) Result {
	requestID := logger.RequestID(ctx)

	// 1. Normalize and extract
	normalized := intent.NormalizeOrderReferences(raw)
	rec := s.extractor.Extract(ctx, normalized)
	if rec.Error != "" {
		s.logger.Error("extractor_degraded", "Intent extractor failed, falling back to unknown", requestID, map[string]interface{}{"source": rec.Source}, errors.New(rec.Error))
	}

	now := s.now()
	entry := domain.CommandEntry{
		ID:         uuid.NewString(),
		Timestamp:  now,
		Time:       now.In(s.location).Format(timestampLayout),
		Source:     source,
		Raw:        raw,
		Normalized: normalized,
	}
	if entry.Source == "" {
		entry.Source = rec.Source
	}
	if entry.Source == "" {
		entry.Source = "?"
	}

	// 2. Validate against the loaded orders
	in, err := intent.Validate(&rec, s.known)
	entry.Payload = rec
	if err != nil {
		return s.finish(ctx, entry, rec.Intent, false, err.Error())
	}

	// 3. Apply and swap in the new schedule
	next, err := s.mutator.Apply(s.Current(), in)
	if err != nil {
		return s.finish(ctx, entry, rec.Intent, false, err.Error())
	}
	s.current.Store(&next)
	s.metrics.ScheduleSize(next.Len())

	msg, orders := describe(in)
	res := s.finish(ctx, entry, rec.Intent, true, msg)

	// 4. Notify subscribers
	s.publish(ctx, interfaces.ScheduleChangedMessage{
		CommandID: entry.ID,
		Intent:    in.Type(),
		OrderIDs:  orders,
		Message:   msg,
		Source:    entry.Source,
	}, next)

	return res
}

func (s *Service) finish(ctx context.Context, entry domain.CommandEntry, kind domain.IntentType, accepted bool, msg string) Result {
	requestID := logger.RequestID(ctx)

	entry.Accepted = accepted
	entry.Message = msg
	s.log.Add(entry)
	s.metrics.CommandProcessed(kind, accepted)

	details := map[string]interface{}{
		"command_id": entry.ID,
		"source":     entry.Source,
		"normalized": entry.Normalized,
		"intent":     kind,
	}
	if accepted {
		s.logger.Info("command_applied", msg, requestID, details)
	} else {
		s.logger.Debug("command_rejected", msg, requestID, details)
	}

	if s.recorder != nil {
		if err := s.recorder.RecordCommand(ctx, entry); err != nil {
			s.logger.Error("command_record_failed", "Failed to persist command", requestID, details, err)
		}
	}

	return Result{Entry: entry, Accepted: accepted, Message: msg}
}

func (s *Service) publish(ctx context.Context, msg interfaces.ScheduleChangedMessage, sched domain.Schedule) {
	if s.publisher == nil {
		return
	}

	msg.Operations = sched.Len()
	msg.SpanStart, msg.SpanEnd = sched.Span()
	msg.Timestamp = s.now()

	// A failed notification does not undo the change.
	if err := s.publisher.PublishScheduleChanged(ctx, msg); err != nil {
		s.logger.Error("rabbitmq_publish_failed", "Failed to publish schedule change", logger.RequestID(ctx), map[string]interface{}{"command_id": msg.CommandID}, err)
	}
}

func describe(in domain.Intent) (string, []string) {
	switch v := in.(type) {
	case domain.DelayOrder:
		direction := "Delayed"
		if v.Advances() {
			direction = "Advanced"
		}
		return fmt.Sprintf("%s %s", direction, v.OrderID), []string{v.OrderID}
	case domain.SwapOrders:
		return fmt.Sprintf("Swapped %s ↔ %s", v.OrderID, v.OrderID2), []string{v.OrderID, v.OrderID2}
	default:
		return string(in.Type()), nil
	}
}

func audioFingerprint(audio []byte) fingerprint {
	head := audio
	if len(head) > fingerprintSize {
		head = head[:fingerprintSize]
	}
	return fingerprint{size: len(audio), sum: xxhash.Sum64(head)}
}

package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YelzhanWeb/bulkplan/internal/adapter/logger"
	"github.com/YelzhanWeb/bulkplan/internal/app/intent"
	"github.com/YelzhanWeb/bulkplan/internal/app/planner"
	"github.com/YelzhanWeb/bulkplan/internal/domain"
	"github.com/YelzhanWeb/bulkplan/internal/interfaces"
)

type fakeTranscriber struct {
	text  string
	err   error
	calls int
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ []byte, _ string) (string, error) {
	f.calls++
	return f.text, f.err
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []interfaces.ScheduleChangedMessage
	err      error
}

func (f *fakePublisher) PublishScheduleChanged(_ context.Context, msg interfaces.ScheduleChangedMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, msg)
	return f.err
}

func (f *fakePublisher) PublishCommand(context.Context, interfaces.CommandMessage) error {
	return nil
}

type fakeRecorder struct {
	entries []domain.CommandEntry
	err     error
}

func (f *fakeRecorder) RecordCommand(_ context.Context, entry domain.CommandEntry) error {
	f.entries = append(f.entries, entry)
	return f.err
}

type fakeMetrics struct {
	commands       map[string]int
	transcriptions map[string]int
	size           int
	resets         int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{commands: map[string]int{}, transcriptions: map[string]int{}}
}

func (f *fakeMetrics) CommandProcessed(kind domain.IntentType, accepted bool) {
	key := string(kind) + "/rejected"
	if accepted {
		key = string(kind) + "/accepted"
	}
	f.commands[key]++
}

func (f *fakeMetrics) Transcription(result string) { f.transcriptions[result]++ }
func (f *fakeMetrics) ScheduleSize(n int)          { f.size = n }
func (f *fakeMetrics) ScheduleReset()              { f.resets++ }

var testNow = time.Date(2025, 11, 3, 10, 0, 0, 0, time.UTC)

func testOrders() []domain.Order {
	return []domain.Order{
		{ID: "ORD-001", SKU: domain.DefaultProduct, QtyKg: 2400, DueDate: time.Date(2025, 11, 5, 0, 0, 0, 0, time.UTC)},
		{ID: "ORD-002", SKU: domain.DefaultProduct, QtyKg: 1200, DueDate: time.Date(2025, 11, 6, 0, 0, 0, 0, time.UTC)},
	}
}

type fixture struct {
	svc       *Service
	publisher *fakePublisher
	recorder  *fakeRecorder
	metrics   *fakeMetrics
	voice     *fakeTranscriber
}

func newFixture(t *testing.T, mutate func(*Config)) fixture {
	t.Helper()

	orders := testOrders()
	f := fixture{
		publisher: &fakePublisher{},
		recorder:  &fakeRecorder{},
		metrics:   newFakeMetrics(),
		voice:     &fakeTranscriber{},
	}
	cfg := Config{
		Orders:      orders,
		Base:        planner.Build(orders, planner.BuildOptions{}),
		Transcriber: f.voice,
		Publisher:   f.publisher,
		Recorder:    f.recorder,
		Metrics:     f.metrics,
		Now:         func() time.Time { return testNow },
	}
	if mutate != nil {
		mutate(&cfg)
	}
	f.svc = NewService(cfg, logger.NewNop())
	return f
}

func TestProcessTextAppliesDelay(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	res, err := f.svc.ProcessText(ctx, "delay order two by 1 day", domain.SourceText)
	require.NoError(t, err)

	assert.True(t, res.Accepted)
	assert.Equal(t, "Delayed ORD-002", res.Message)
	assert.Equal(t, "delay ORD-002 by 1 day", res.Entry.Normalized)
	assert.Equal(t, domain.SourceText, res.Entry.Source)
	assert.Equal(t, intent.SourceRegex, res.Entry.Payload.Source)

	before := f.svc.Base().ForOrder("ORD-002")
	after := f.svc.Current().ForOrder("ORD-002")
	require.Len(t, after, len(before))
	for i := range before {
		assert.Equal(t, before[i].Start.Add(24*time.Hour), after[i].Start)
		assert.Equal(t, before[i].Duration(), after[i].Duration())
	}
	assert.Equal(t, f.svc.Base().ForOrder("ORD-001"), f.svc.Current().ForOrder("ORD-001"))

	require.Len(t, f.publisher.messages, 1)
	msg := f.publisher.messages[0]
	assert.Equal(t, domain.IntentDelayOrder, msg.Intent)
	assert.Equal(t, []string{"ORD-002"}, msg.OrderIDs)
	assert.Equal(t, res.Entry.ID, msg.CommandID)
	assert.Equal(t, 8, msg.Operations)

	assert.Equal(t, 1, f.metrics.commands["delay_order/accepted"])
	assert.Len(t, f.recorder.entries, 1)
}

func TestProcessTextRejectsUnknownOrder(t *testing.T) {
	f := newFixture(t, nil)

	res, err := f.svc.ProcessText(context.Background(), "delay order 99 by 1 day", domain.SourceText)
	require.NoError(t, err)

	assert.False(t, res.Accepted)
	assert.Equal(t, "Unknown order: ORD-099", res.Message)
	assert.Equal(t, f.svc.Base(), f.svc.Current())
	assert.Empty(t, f.publisher.messages)
	assert.Equal(t, 1, f.metrics.commands["delay_order/rejected"])

	cmds := f.svc.Commands()
	require.Len(t, cmds, 1)
	assert.False(t, cmds[0].Accepted)
	assert.Equal(t, "delay order 99 by 1 day", cmds[0].Raw)
}

func TestProcessTextMessages(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"advance ORD-002 by 30 minutes", "Advanced ORD-002"},
		{"swap order 1 and order 2", "Swapped ORD-001 ↔ ORD-002"},
		{"swap ORD-001 with ORD-001", "Cannot swap same order"},
		{"delay ORD-001 by 0 hours", "Unsupported intent"},
		{"make it faster", "Unsupported intent"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			f := newFixture(t, nil)
			res, err := f.svc.ProcessText(context.Background(), tt.text, domain.SourceText)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Message)
		})
	}
}

func TestProcessTextSwapAnchorsSecondOrder(t *testing.T) {
	f := newFixture(t, nil)

	firstA, ok := f.svc.Base().FirstStart("ORD-001")
	require.True(t, ok)

	res, err := f.svc.ProcessText(context.Background(), "swap ORD-001 with ORD-002", domain.SourceText)
	require.NoError(t, err)
	require.True(t, res.Accepted)

	firstB, ok := f.svc.Current().FirstStart("ORD-002")
	require.True(t, ok)
	assert.Equal(t, firstA, firstB)
}

func TestProcessTextEmpty(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.ProcessText(context.Background(), "   ", domain.SourceText)
	assert.ErrorIs(t, err, ErrEmptyCommand)
	assert.Empty(t, f.svc.Commands())
}

func TestCommandLogKeepsMostRecent(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.LogSize = 3 })

	texts := []string{"one", "two", "three", "four", "five"}
	for _, text := range texts {
		_, err := f.svc.ProcessText(context.Background(), text, domain.SourceText)
		require.NoError(t, err)
	}

	cmds := f.svc.Commands()
	require.Len(t, cmds, 3)
	assert.Equal(t, "three", cmds[0].Raw)
	assert.Equal(t, "five", cmds[2].Raw)
}

func TestCommandTimestampUsesLocation(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.Location = time.FixedZone("UTC+1", 3600) })

	res, err := f.svc.ProcessText(context.Background(), "delay ORD-002 by 1 hour", domain.SourceText)
	require.NoError(t, err)
	assert.Equal(t, "2025-11-03 11:00:00", res.Entry.Time)
	assert.Equal(t, testNow, res.Entry.Timestamp)
}

func TestDegradedExtractorIsRejected(t *testing.T) {
	broken := intent.ExtractorFunc(func(_ context.Context, text string) (domain.Record, bool) {
		rec := domain.UnknownRecord(text, "openai")
		rec.Error = "timeout"
		return rec, true
	})
	f := newFixture(t, func(c *Config) { c.Extractor = intent.Chain{intent.RegexExtractor{}, broken} })

	res, err := f.svc.ProcessText(context.Background(), "please hurry up order 1", "")
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Equal(t, "Unsupported intent", res.Message)
	assert.Equal(t, "openai", res.Entry.Source)
	assert.Equal(t, "timeout", res.Entry.Payload.Error)
}

func TestSideEffectFailuresDoNotRejectCommand(t *testing.T) {
	f := newFixture(t, nil)
	f.publisher.err = errors.New("channel closed")
	f.recorder.err = errors.New("db down")

	res, err := f.svc.ProcessText(context.Background(), "delay ORD-001 by 2 hours", domain.SourceText)
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.NotEqual(t, f.svc.Base(), f.svc.Current())
}

func TestProcessVoice(t *testing.T) {
	f := newFixture(t, nil)
	f.voice.text = " delay order two by 1 hour "
	audio := []byte("RIFF....WAVEfmt voice sample")

	res, err := f.svc.ProcessVoice(context.Background(), audio, "audio/wav")
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.Equal(t, "delay order two by 1 hour", res.Transcript)
	assert.Equal(t, domain.SourceVoice, res.Entry.Source)
	assert.Equal(t, "delay order two by 1 hour", f.svc.LastTranscript())
	assert.Equal(t, 1, f.metrics.transcriptions[TranscriptionOK])

	_, err = f.svc.ProcessVoice(context.Background(), audio, "audio/wav")
	assert.ErrorIs(t, err, ErrDuplicateAudio)
	assert.Equal(t, 1, f.voice.calls)
}

func TestProcessVoiceFailures(t *testing.T) {
	t.Run("upstream error", func(t *testing.T) {
		f := newFixture(t, nil)
		upstream := errors.New("deepgram: 500")
		f.voice.err = upstream

		_, err := f.svc.ProcessVoice(context.Background(), []byte("abc"), "audio/wav")
		assert.ErrorIs(t, err, upstream)
		assert.Equal(t, f.svc.Base(), f.svc.Current())
		assert.Empty(t, f.svc.Commands())
		assert.Equal(t, 1, f.metrics.transcriptions[TranscriptionError])
	})

	t.Run("empty transcript", func(t *testing.T) {
		f := newFixture(t, nil)
		f.voice.text = "  "

		_, err := f.svc.ProcessVoice(context.Background(), []byte("abc"), "audio/wav")
		assert.ErrorIs(t, err, ErrNoSpeech)
		assert.Equal(t, "", f.svc.LastTranscript())
		assert.Empty(t, f.svc.Commands())
	})

	t.Run("no audio", func(t *testing.T) {
		f := newFixture(t, nil)
		_, err := f.svc.ProcessVoice(context.Background(), nil, "audio/wav")
		assert.ErrorIs(t, err, ErrNoSpeech)
		assert.Zero(t, f.voice.calls)
	})

	t.Run("no transcriber", func(t *testing.T) {
		f := newFixture(t, func(c *Config) { c.Transcriber = nil })
		_, err := f.svc.ProcessVoice(context.Background(), []byte("abc"), "audio/wav")
		assert.ErrorIs(t, err, ErrNoTranscriber)
	})
}

type blockingTranscriber struct {
	started chan struct{}
	release chan struct{}
	text    string
}

func (b *blockingTranscriber) Transcribe(ctx context.Context, _ []byte, _ string) (string, error) {
	close(b.started)
	select {
	case <-b.release:
		return b.text, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestProcessVoiceDoesNotBlockTextCommands(t *testing.T) {
	voice := &blockingTranscriber{
		started: make(chan struct{}),
		release: make(chan struct{}),
		text:    "delay order 2 by 1 hour",
	}
	f := newFixture(t, func(c *Config) { c.Transcriber = voice })
	ctx := context.Background()

	voiceDone := make(chan Result, 1)
	go func() {
		res, err := f.svc.ProcessVoice(ctx, []byte("slow audio"), "audio/wav")
		assert.NoError(t, err)
		voiceDone <- res
	}()
	<-voice.started

	textDone := make(chan Result, 1)
	go func() {
		res, err := f.svc.ProcessText(ctx, "delay order 1 by 1 day", domain.SourceText)
		assert.NoError(t, err)
		textDone <- res
	}()

	select {
	case res := <-textDone:
		assert.True(t, res.Accepted)
	case <-time.After(2 * time.Second):
		t.Fatal("text command waited for the transcriber")
	}

	close(voice.release)
	res := <-voiceDone
	assert.True(t, res.Accepted)
	assert.Equal(t, "delay order 2 by 1 hour", res.Transcript)
	require.Len(t, f.svc.Commands(), 2)
	assert.Equal(t, domain.SourceText, f.svc.Commands()[0].Source)
	assert.Equal(t, domain.SourceVoice, f.svc.Commands()[1].Source)
}

func TestRepairModeFromConfig(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.Repair = planner.RepairRepack })
	base := f.svc.Current()

	_, err := f.svc.ProcessText(context.Background(), "delay order 1 by 30 minutes", domain.SourceText)
	require.NoError(t, err)

	want := planner.Mutator{Mode: planner.RepairRepack}.DelayBy(base, "ORD-001", 30*time.Minute)
	assert.Equal(t, want.Operations(), f.svc.Current().Operations())
}

func TestResetRestoresBase(t *testing.T) {
	f := newFixture(t, nil)
	f.voice.text = "swap order 1 and order 2"
	ctx := context.Background()

	_, err := f.svc.ProcessVoice(ctx, []byte("audio"), "audio/wav")
	require.NoError(t, err)
	require.NotEqual(t, f.svc.Base(), f.svc.Current())

	f.svc.Reset(ctx)

	assert.Equal(t, f.svc.Base(), f.svc.Current())
	assert.Empty(t, f.svc.Commands())
	assert.Equal(t, "", f.svc.LastTranscript())
	assert.Equal(t, 1, f.metrics.resets)

	last := f.publisher.messages[len(f.publisher.messages)-1]
	assert.Equal(t, IntentReset, last.Intent)

	// the fingerprint is cleared too, so the same recording is accepted again
	_, err = f.svc.ProcessVoice(ctx, []byte("audio"), "audio/wav")
	assert.NoError(t, err)
}

func TestOrderTimeline(t *testing.T) {
	f := newFixture(t, nil)

	ops, err := f.svc.OrderTimeline("ORD-001")
	require.NoError(t, err)
	require.Len(t, ops, 4)
	assert.Equal(t, domain.OperationMix, ops[0].Kind)

	_, err = f.svc.OrderTimeline("ORD-404")
	assert.ErrorIs(t, err, domain.ErrUnknownOrder)
}

func TestAudioFingerprintUsesLengthAndHead(t *testing.T) {
	a := make([]byte, 2048)
	b := make([]byte, 2048)
	b[1500] = 1
	assert.Equal(t, audioFingerprint(a), audioFingerprint(b))

	c := make([]byte, 2049)
	assert.NotEqual(t, audioFingerprint(a), audioFingerprint(c))
}

func TestConcurrentReadersSeeWholeSchedules(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 20; i++ {
			_, _ = f.svc.ProcessText(ctx, "delay ORD-001 by 1 hour", domain.SourceText)
		}
	}()

	for i := 0; i < 200; i++ {
		assert.Equal(t, 8, f.svc.Current().Len())
	}
	wg.Wait()
}

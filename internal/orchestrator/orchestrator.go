// Package orchestrator drives one full question-and-answer cycle
// against the assistant service: ask, render, then speak. It owns the
// request lifecycle the UI observes (busy flag, status line, source
// citation, audio hand-off) and guarantees that a cycle either
// completes or reports exactly one failure message.
package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"

	"baymax/internal/assistant"
	"baymax/internal/audio"
)

const (
	// StatusThinking is shown while a cycle is in flight.
	StatusThinking = "Baymax sedang berpikir..."

	// ErrorPrefix starts every user-visible failure message.
	ErrorPrefix = "Terjadi kesalahan: "

	// SourcesLabel starts the citation line under an answer.
	SourcesLabel = "Sumber: "
)

// ErrBusy is returned when a submission arrives while another cycle is
// still running.
var ErrBusy = errors.New("a question is already being processed")

// Service is the assistant API surface one cycle needs.
type Service interface {
	Ask(ctx context.Context, message string, useRetrieval bool) (*assistant.Answer, error)
	Speak(ctx context.Context, text, mode string) ([]byte, error)
}

// Display receives UI mutations as a cycle progresses. Implementations
// must tolerate calls from whatever goroutine runs Submit.
type Display interface {
	// SetBusy brackets the cycle: true exactly once at the start,
	// false exactly once at the end.
	SetBusy(busy bool)

	// SetStatus replaces the status line; empty clears it.
	SetStatus(text string)

	// ShowAnswer renders the answer text.
	ShowAnswer(text string)

	// SetSources replaces the citation line; empty clears it.
	SetSources(line string)

	// SetAudio hands over a clip for immediate playback; nil resets
	// the audio output.
	SetAudio(clip *audio.Clip)
}

// Query is one submitted question after input normalization.
type Query struct {
	Text         string
	UseRetrieval bool
	VoiceMode    string
}

// Orchestrator runs at most one query cycle at a time.
type Orchestrator struct {
	svc     Service
	display Display
	logger  *zap.Logger

	inFlight atomic.Bool
}

// New creates an orchestrator. The display must not be nil.
func New(svc Service, display Display, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{svc: svc, display: display, logger: logger}
}

// Busy reports whether a cycle is currently in flight.
func (o *Orchestrator) Busy() bool {
	return o.inFlight.Load()
}

// Submit runs one question-and-answer cycle. Input surrounded by
// whitespace is trimmed first; input that trims to nothing is silently
// ignored. A submission while another cycle runs returns ErrBusy and
// touches nothing. Request failures do not come back as errors; they
// are rendered onto the display's status line, answer intact.
func (o *Orchestrator) Submit(ctx context.Context, rawInput string, useRetrieval bool, voiceMode string) error {
	text := strings.TrimSpace(rawInput)
	if text == "" {
		return nil
	}

	if !o.inFlight.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer o.inFlight.Store(false)

	o.run(ctx, Query{Text: text, UseRetrieval: useRetrieval, VoiceMode: voiceMode})
	return nil
}

// run executes the cycle for an already-validated query.
func (o *Orchestrator) run(ctx context.Context, q Query) {
	o.display.SetBusy(true)
	defer o.display.SetBusy(false)

	o.display.SetStatus(StatusThinking)
	o.display.SetSources("")
	o.display.SetAudio(nil)

	o.logger.Debug("submitting question",
		zap.Bool("use_retrieval", q.UseRetrieval),
		zap.String("voice_mode", q.VoiceMode))

	answer, err := o.svc.Ask(ctx, q.Text, q.UseRetrieval)
	if err != nil {
		o.fail("answer request failed", err)
		return
	}

	o.display.ShowAnswer(answer.Text)
	if len(answer.Sources) > 0 {
		o.display.SetSources(SourcesLabel + strings.Join(answer.Sources, ", "))
	}

	// Speech is requested only after the answer rendered; a speech
	// failure must leave the answer on screen untouched.
	data, err := o.svc.Speak(ctx, answer.Text, q.VoiceMode)
	if err != nil {
		o.fail("speech request failed", err)
		return
	}

	o.display.SetAudio(audio.NewClip(data, "audio/mpeg"))
	o.display.SetStatus("")
}

// fail logs the failure and puts its message on the status line. The
// cycle still resolves normally; nothing already rendered is undone.
func (o *Orchestrator) fail(what string, err error) {
	o.logger.Warn(what, zap.Error(err))
	o.display.SetStatus(ErrorPrefix + err.Error())
}

// Package generation drives one patent generation run: it walks the fixed
// section list, asks the provider for each section in turn and streams the
// section lifecycle to an Emitter.
package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"patentai/internal/llm"
	llmclient "patentai/internal/llmClient"
	"patentai/internal/logger"
	"patentai/internal/patent"
)

// Pacing is re-exported from llmclient, where each provider profile carries
// its own.
type Pacing = llmclient.Pacing

const (
	sectionTemperature = 0.7
	sectionMaxTokens   = 1024
)

// Request is one generation run.
type Request struct {
	RunID      string // generated when empty
	Generation patent.GenerationRequest
}

// Orchestrator runs generation requests against one provider. It holds no
// per-run state and may serve concurrent runs.
type Orchestrator struct {
	client  llm.Client
	profile llmclient.Profile
	pacing  Pacing
	log     *logger.Logger
	sleep   llmclient.Sleeper
}

type Option func(*Orchestrator)

func WithLogger(l *logger.Logger) Option { return func(o *Orchestrator) { o.log = logger.OrNop(l) } }

// WithPacing overrides the profile's pacing.
func WithPacing(p Pacing) Option { return func(o *Orchestrator) { o.pacing = p } }

// WithSleeper replaces the context-aware sleep used for every pacing delay.
func WithSleeper(s llmclient.Sleeper) Option {
	return func(o *Orchestrator) {
		if s != nil {
			o.sleep = s
		}
	}
}

func New(client llm.Client, profile llmclient.Profile, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client:  client,
		profile: profile,
		pacing:  profile.Pacing,
		log:     logger.Nop(),
		sleep:   llmclient.SleepContext,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.pacing.ChunkSize <= 0 {
		o.pacing.ChunkSize = 3
	}
	return o
}

// Profile returns the provider profile the orchestrator was built with.
func (o *Orchestrator) Profile() llmclient.Profile { return o.profile }

// ProviderError is a hard provider failure that ended a run.
type ProviderError struct {
	Section string
	Err     error
}

func (e *ProviderError) Error() string { return fmt.Sprintf("section %s: %v", e.Section, e.Err) }
func (e *ProviderError) Unwrap() error { return e.Err }

// EmitError means the consumer went away mid-run.
type EmitError struct {
	Event EventType
	Err   error
}

func (e *EmitError) Error() string { return fmt.Sprintf("emit %s: %v", e.Event, e.Err) }
func (e *EmitError) Unwrap() error { return e.Err }

// RateLimitNotice is the content sent in place of a section whose provider
// quota ran out.
func RateLimitNotice(section, provider string) string {
	return fmt.Sprintf("⚠️ Rate limit reached for %s with %s API. Please try again in a moment.", section, provider)
}

// run is the explicit per-run state.
type run struct {
	id       string
	req      patent.GenerationRequest
	em       Emitter
	sections []SectionResult
	index    int
}

func (r *run) current() *SectionResult { return &r.sections[r.index] }

func (r *run) result() Result {
	out := make([]SectionResult, len(r.sections))
	copy(out, r.sections)
	return Result{RunID: r.id, Sections: out}
}

// Run generates every section in order and streams them to em.
//
// A section whose provider calls end rate limited gets the notice as its only
// content and is completed with a warning; the run continues. Any other
// provider failure emits one error event and ends the run with a
// *ProviderError. A failed Emit ends the run with an *EmitError and no further
// provider calls. Cancelling ctx stops in-flight provider calls and sleeps.
// The Result reflects every section reached, whatever the outcome.
func (o *Orchestrator) Run(ctx context.Context, req Request, em Emitter) (res Result, err error) {
	r := &run{id: req.RunID, req: req.Generation, em: em}
	if r.id == "" {
		r.id = uuid.NewString()
	}
	for _, name := range patent.Sections() {
		r.sections = append(r.sections, SectionResult{Name: name, State: StatePending})
	}
	log := o.log.With("run_id", r.id, "provider", o.profile.Provider)

	defer func() {
		if p := recover(); p != nil {
			res = r.result()
			err = fmt.Errorf("generation panic: %v", p)
			log.Error("generation panicked", "panic", p)
			_ = em.Emit(context.WithoutCancel(ctx), Failure(err.Error()))
		}
	}()

	log.Info("generation started", "office", r.req.Office.Name, "format", r.req.Format, "file", r.req.Invention.IsFile())
	for r.index = range r.sections {
		if err := o.section(ctx, r, log); err != nil {
			var pe *ProviderError
			if errors.As(err, &pe) {
				log.Error("generation failed", "section", pe.Section, "error", pe.Err)
				if emitErr := em.Emit(ctx, Failure(pe.Err.Error())); emitErr != nil {
					return r.result(), &EmitError{Event: EventError, Err: emitErr}
				}
			} else {
				log.Warn("generation aborted", "section", r.current().Name, "error", err)
			}
			return r.result(), err
		}
	}
	if err := o.emit(ctx, r, Complete()); err != nil {
		return r.result(), err
	}
	log.Info("generation complete", "warned", countWarned(r.sections))
	return r.result(), nil
}

func (o *Orchestrator) section(ctx context.Context, r *run, log *logger.Logger) error {
	sec := r.current()
	sec.State = StateGenerating
	if err := o.emit(ctx, r, SectionStart(sec.Name)); err != nil {
		return err
	}
	prompt := patent.BuildPrompt(sec.Name, r.req.Invention, r.req.Office, r.req.Format)
	if r.index > 0 {
		if err := o.sleep(ctx, o.pacing.SectionGap); err != nil {
			return err
		}
	}

	log.Debug("generating section", "section", sec.Name, "prompt_bytes", len(prompt))
	text, err := o.client.Complete(ctx, llm.ChatRequest{
		System:      patent.SystemInstruction,
		User:        prompt,
		Temperature: sectionTemperature,
		MaxTokens:   sectionMaxTokens,
	})
	switch {
	case err == nil:
	case errors.Is(err, llmclient.ErrRateLimited):
		log.Warn("section rate limited", "section", sec.Name, "error", err)
		notice := RateLimitNotice(sec.Name, o.profile.DisplayName)
		sec.Content = notice
		if err := o.emit(ctx, r, Content(sec.Name, notice)); err != nil {
			return err
		}
		sec.State = StateWarned
		return o.emit(ctx, r, SectionComplete(sec.Name, true))
	case errors.Is(err, llmclient.ErrEmptyResponse):
		text = ""
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		sec.State = StateFailed
		return &ProviderError{Section: sec.Name, Err: err}
	}

	for _, chunk := range Chunks(text, o.pacing.ChunkSize) {
		sec.Content += chunk
		if err := o.emit(ctx, r, Content(sec.Name, chunk)); err != nil {
			return err
		}
		if err := o.sleep(ctx, o.pacing.ChunkDelay); err != nil {
			return err
		}
	}
	sec.State = StateComplete
	if err := o.emit(ctx, r, SectionComplete(sec.Name, false)); err != nil {
		return err
	}
	return o.sleep(ctx, o.pacing.AfterSection)
}

func (o *Orchestrator) emit(ctx context.Context, r *run, e Event) error {
	if err := r.em.Emit(ctx, e); err != nil {
		return &EmitError{Event: e.Type, Err: err}
	}
	return nil
}

// Chunks splits text on single spaces and regroups it size tokens at a time,
// each group followed by one space. Newlines stay inside tokens. Empty text
// yields no chunks.
func Chunks(text string, size int) []string {
	if text == "" {
		return nil
	}
	if size <= 0 {
		size = 1
	}
	words := strings.Split(text, " ")
	out := make([]string, 0, (len(words)+size-1)/size)
	for i := 0; i < len(words); i += size {
		end := min(i+size, len(words))
		out = append(out, strings.Join(words[i:end], " ")+" ")
	}
	return out
}

func countWarned(sections []SectionResult) int {
	n := 0
	for _, s := range sections {
		if s.Warning() {
			n++
		}
	}
	return n
}

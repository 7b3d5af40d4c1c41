// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

/*
Package assistant turns raw local-model completions into vetted farming
answers.

The Orchestrator drives one answer run per question:

	Drafting -> Checking -> Done
	Drafting -> Checking -> Correcting -> Done
	Drafting -> ... (attempts exhausted) -> Fallback -> Done

Every run returns non-empty text. Model and collaborator failures are
recovered inside the run and surface only in logs, metrics and spans.
*/
package assistant

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/FarminAI/services/llm"
)

var tracer = otel.Tracer("farminai.assistant")

// Generator issues one inference call. *llm.Inference implements it.
type Generator interface {
	Generate(ctx context.Context, prompt, languageHint string, temperature float32) llm.Result
}

// Translator renders text in a target language. Implementations return the
// input unchanged on any failure.
type Translator interface {
	Translate(ctx context.Context, text, target string) string
}

type identityTranslator struct{}

func (identityTranslator) Translate(_ context.Context, text, _ string) string { return text }

// Reply is the result of one answer run.
type Reply struct {
	Text     string
	Outcome  AnswerOutcome
	Attempts int
	Language string
}

// Orchestrator runs the draft, check, correct and fallback loop.
//
// # Thread Safety
//
// Safe for concurrent use. Runs on the same Session are serialized by the
// session lock; runs on different sessions proceed in parallel.
type Orchestrator struct {
	generator  Generator
	translator Translator
	fallback   *FallbackTable
	observer   Observer
	cfg        Config
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithTranslator sets the translator used for fallback and clarification
// text.
func WithTranslator(t Translator) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.translator = t
		}
	}
}

// WithFallbackTable replaces the embedded fallback table.
func WithFallbackTable(t *FallbackTable) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.fallback = t
		}
	}
}

// WithObserver attaches a metrics observer.
func WithObserver(obs Observer) Option {
	return func(o *Orchestrator) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// NewOrchestrator creates an Orchestrator. Unset Config fields take the
// values of DefaultConfig.
func NewOrchestrator(gen Generator, cfg Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		generator:  gen,
		translator: identityTranslator{},
		fallback:   DefaultFallbackTable(),
		observer:   noopObserver{},
		cfg:        cfg.withDefaults(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Config returns the effective configuration.
func (o *Orchestrator) Config() Config {
	return o.cfg
}

// Answer returns a non-empty answer to question. See Respond.
func (o *Orchestrator) Answer(ctx context.Context, sess *Session, question, language string) string {
	return o.Respond(ctx, sess, question, language).Text
}

// Respond runs the full answer pipeline for one question.
//
// # Description
//
// Up to Config.Retries drafting attempts are made. Each attempt builds a
// prompt from the session history, calls the model at the attempt's
// temperature and cleans the completion. A clean draft that mentions a
// question keyword is returned. An off-topic draft gets exactly one
// corrective re-prompt at the next, lower temperature; if the corrected
// text still misses, the original draft is returned as a degraded answer.
// Failed attempts wait Config.Backoff before the next one, except after the
// last. When no attempt yields usable text, the fallback table answers, and
// failing that the clarification message.
//
// Successful runs, degraded ones included, append the question and the
// answer to the session. Fallback and clarification replies do not.
//
// # Inputs
//
//   - ctx: Cancellation ends the backoff wait and moves straight to fallback.
//   - sess: Conversation session, locked for the whole run. Nil means a
//     throwaway session.
//   - question: The user's question.
//   - language: Target language code; "" means English.
//
// # Outputs
//
//   - Reply: Text is never empty.
func (o *Orchestrator) Respond(ctx context.Context, sess *Session, question, language string) Reply {
	ctx, span := tracer.Start(ctx, "Orchestrator.Answer")
	defer span.End()

	if sess == nil {
		sess = NewSession("")
	}
	lang := llm.NormalizeLanguage(language)
	q := strings.TrimSpace(question)
	span.SetAttributes(
		attribute.String("session.id", sess.ID()),
		attribute.String("language", lang),
	)

	if q == "" {
		return o.finish(span, Reply{
			Text:     o.translate(ctx, o.cfg.ClarificationMessage, lang),
			Outcome:  AnswerClarification,
			Language: lang,
		})
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	system := systemInstructionFor(o.cfg.SystemInstruction, q)
	keywords := Keywords(q)

	attempts := 0
	for attempt := 0; attempt < o.cfg.Retries; attempt++ {
		attempts++
		prompt, err := BuildPrompt(PromptRequest{
			SystemInstruction: system,
			History:           sess.recentLocked(o.cfg.HistoryTurns),
			LatestQuestion:    q,
			Language:          lang,
			HistoryTurns:      o.cfg.HistoryTurns,
		})
		if err != nil {
			break
		}

		draft, ok := o.draft(ctx, span, prompt, lang, attempt)
		if !ok {
			if attempt < o.cfg.Retries-1 && !o.wait(ctx) {
				span.AddEvent("backoff interrupted")
				break
			}
			continue
		}

		if keywords.CoveredBy(draft) {
			return o.commit(ctx, span, sess, q, Reply{Text: draft, Outcome: AnswerSuccess, Attempts: attempts, Language: lang})
		}

		slog.Info("Draft misses question keywords, re-prompting",
			"session_id", sess.ID(),
			"attempt", attempt+1,
			"keywords", strings.Join(keywords, ","),
			"reason", ErrOffTopicCompletion)
		span.AddEvent("corrective re-prompt")

		if corrected, ok := o.correct(ctx, span, system, q, keywords, lang, attempt); ok {
			o.observer.ObserveCorrection(true)
			return o.commit(ctx, span, sess, q, Reply{Text: corrected, Outcome: AnswerSuccess, Attempts: attempts, Language: lang})
		}
		o.observer.ObserveCorrection(false)
		return o.commit(ctx, span, sess, q, Reply{Text: draft, Outcome: AnswerDegraded, Attempts: attempts, Language: lang})
	}

	return o.finish(span, o.fallbackReply(ctx, sess.ID(), q, lang, attempts))
}

// draft runs one drafting call and cleans its output.
func (o *Orchestrator) draft(ctx context.Context, span trace.Span, prompt, lang string, attempt int) (string, bool) {
	text, ok := o.generate(ctx, span, prompt, lang, o.cfg.Temperature(attempt))
	if !ok {
		return "", false
	}
	cleaned, ok := CleanWithMin(text, o.cfg.MinAnswerChars)
	if !ok {
		slog.Warn("Completion empty after cleaning",
			"attempt", attempt+1,
			"reason", ErrEmptyCompletion)
		span.AddEvent("degenerate completion")
		return "", false
	}
	return cleaned, true
}

// correct issues the single corrective re-prompt of an attempt.
func (o *Orchestrator) correct(ctx context.Context, span trace.Span, system, q string, keywords KeywordSet, lang string, attempt int) (string, bool) {
	prompt, err := BuildCorrectivePrompt(system, q, keywords)
	if err != nil {
		return "", false
	}
	text, ok := o.generate(ctx, span, prompt, lang, o.cfg.Temperature(attempt+1))
	if !ok {
		return "", false
	}
	corrected, ok := CleanWithMin(text, o.cfg.MinAnswerChars)
	if !ok || !keywords.CoveredBy(corrected) {
		return "", false
	}
	return corrected, true
}

func (o *Orchestrator) generate(ctx context.Context, span trace.Span, prompt, lang string, temperature float32) (string, bool) {
	start := time.Now()
	res := o.generator.Generate(ctx, prompt, lang, temperature)
	o.observer.ObserveInference(res.Outcome, time.Since(start))

	if res.OK() {
		return res.Text, true
	}
	reason := ErrNetworkFailure
	if res.Outcome == llm.OutcomeEmptyCompletion || errors.Is(res.Err, llm.ErrEmptyCompletion) {
		reason = ErrEmptyCompletion
	}
	slog.Warn("Inference attempt failed",
		"outcome", res.Outcome.String(),
		"reason", reason,
		"error", res.Err)
	span.AddEvent("inference failed", trace.WithAttributes(
		attribute.String("outcome", res.Outcome.String()),
	))
	return "", false
}

// wait sleeps for the backoff. It returns false if ctx ended first.
func (o *Orchestrator) wait(ctx context.Context) bool {
	if o.cfg.Backoff <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(o.cfg.Backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (o *Orchestrator) fallbackReply(ctx context.Context, sessionID, q, lang string, attempts int) Reply {
	if entry, ok := o.fallback.Lookup(q); ok {
		slog.Info("Answering from fallback table",
			"session_id", sessionID,
			"keyword", entry.Keyword)
		return Reply{
			Text:     o.translate(ctx, entry.Answer, lang),
			Outcome:  AnswerFallback,
			Attempts: attempts,
			Language: lang,
		}
	}
	return Reply{
		Text:     o.translate(ctx, o.cfg.ClarificationMessage, lang),
		Outcome:  AnswerClarification,
		Attempts: attempts,
		Language: lang,
	}
}

func (o *Orchestrator) translate(ctx context.Context, text, lang string) string {
	if lang == llm.DefaultLanguage {
		return text
	}
	out := o.translator.Translate(ctx, text, lang)
	if strings.TrimSpace(out) == "" {
		return text
	}
	return out
}

// commit records a successful exchange. Caller holds sess.mu.
func (o *Orchestrator) commit(ctx context.Context, span trace.Span, sess *Session, q string, reply Reply) Reply {
	sess.appendLocked(ctx,
		Turn{Role: RoleUser, Content: q},
		Turn{Role: RoleAssistant, Content: reply.Text},
	)
	return o.finish(span, reply)
}

func (o *Orchestrator) finish(span trace.Span, reply Reply) Reply {
	o.observer.ObserveAnswer(reply.Outcome, reply.Attempts)
	span.SetAttributes(
		attribute.String("answer.outcome", string(reply.Outcome)),
		attribute.Int("answer.attempts", reply.Attempts),
	)
	return reply
}

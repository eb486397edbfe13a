// Package extract turns normalized user text into a validated ExtractionResult
// by calling the generation collaborator under a strict JSON contract, then
// repairing whatever comes back. The backend is never trusted to enforce its
// own schema: every field is re-validated against the registry, and any
// failure degrades to a minimal fallback instead of an error.
package extract

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/mfigueroa/gastobot/agent/contract"
	"github.com/mfigueroa/gastobot/agent/memory"
	"github.com/mfigueroa/gastobot/agent/normalize"
	"github.com/mfigueroa/gastobot/agent/schema"
)

// Result is the ephemeral output of one extraction call. It is consumed by
// the orchestrator within the same turn and never persisted directly.
type Result struct {
	Kind        schema.Kind
	Amount      *decimal.Decimal
	Currency    schema.Currency
	Category    schema.Category
	Description string
	DateRef     string
}

// HasAmount reports whether a positive amount was extracted.
func (r Result) HasAmount() bool {
	return r.Amount != nil && r.Amount.IsPositive()
}

const (
	defaultTimeout      = 15 * time.Second
	defaultContextTurns = 6
)

type Option func(*Extractor)

func WithTimeout(d time.Duration) Option {
	return func(e *Extractor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithContextTurns bounds how many prior turns are included in the prompt.
func WithContextTurns(n int) Option {
	return func(e *Extractor) {
		if n >= 0 {
			e.contextTurns = n
		}
	}
}

// Extractor drives the Generator with a fixed instruction and repairs its
// output.
type Extractor struct {
	gen          contract.Generator
	system       string
	timeout      time.Duration
	contextTurns int
}

func New(gen contract.Generator, systemPrompt string, opts ...Option) *Extractor {
	e := &Extractor{
		gen:          gen,
		system:       strings.TrimSpace(systemPrompt),
		timeout:      defaultTimeout,
		contextTurns: defaultContextTurns,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Extract runs one generation call for a turn. It never returns an error: a
// generator failure, timeout, or malformed payload yields Fallback(text).
func (e *Extractor) Extract(ctx context.Context, turn normalize.Normalized, history []memory.Turn) Result {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	raw, err := e.gen.Generate(ctx, e.system, e.buildUserPrompt(turn, history))
	if err != nil {
		log.Warn().Err(err).Msg("generation failed, using extraction fallback")
		return Fallback(turn.Original)
	}

	res, err := parsePayload(raw, turn.Original)
	if err != nil {
		log.Debug().Err(err).Str("raw", raw).Msg("unparsable generation output")
		return Fallback(turn.Original)
	}
	return res
}

// Fallback is the minimal result for a turn whose extraction failed: all
// optional fields unknown, description preserved verbatim.
func Fallback(original string) Result {
	return Result{
		Kind:        schema.KindUnknown,
		Currency:    schema.CurrencyUnknown,
		Category:    schema.CategoryOther,
		Description: original,
	}
}

func (e *Extractor) buildUserPrompt(turn normalize.Normalized, history []memory.Turn) string {
	var b strings.Builder

	if n := len(history); n > 0 && e.contextTurns > 0 {
		start := n - e.contextTurns
		if start < 0 {
			start = 0
		}
		b.WriteString("Contexto de la conversación:\n")
		for _, t := range history[start:] {
			role := "usuario"
			if t.Role == memory.RoleAgent {
				role = "asistente"
			}
			b.WriteString(role)
			b.WriteString(": ")
			b.WriteString(t.Content)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if hints := turn.HintLine(); hints != "" {
		b.WriteString(hints)
		b.WriteString("\n\n")
	}

	b.WriteString("Texto del usuario:\n")
	b.WriteString(turn.Original)
	b.WriteString("\n\nResponde SOLO con el JSON.")
	return b.String()
}

// payload is the loose shape the model claims to return. Amount is raw JSON
// because backends alternate between numbers and quoted strings.
type payload struct {
	Type        string          `json:"type"`
	Amount      json.RawMessage `json:"amount"`
	Currency    string          `json:"currency"`
	Category    string          `json:"category"`
	Description string          `json:"description"`
	DateText    string          `json:"date_text"`
}

var fencePattern = regexp.MustCompile("```(?:json)?")

func parsePayload(raw, original string) (Result, error) {
	cleaned := strings.TrimSpace(fencePattern.ReplaceAllString(raw, ""))
	if cleaned == "" {
		return Result{}, contract.ErrExtractionMalformed
	}

	var p payload
	if err := json.Unmarshal([]byte(cleaned), &p); err != nil {
		return Result{}, contract.ErrExtractionMalformed
	}

	kind := schema.ParseKind(p.Type)
	res := Result{
		Kind:        kind,
		Amount:      coerceAmount(p.Amount),
		Currency:    schema.ParseCurrency(p.Currency),
		Category:    schema.NormalizeCategory(kind, p.Category),
		Description: strings.TrimSpace(p.Description),
		DateRef:     strings.TrimSpace(p.DateText),
	}
	if res.Description == "" {
		res.Description = original
	}
	return res, nil
}

// coerceAmount accepts a JSON number or a numeric string (comma or dot
// decimal separator). Coercion failure means absent, never zero.
func coerceAmount(raw json.RawMessage) *decimal.Decimal {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		trimmed = strings.ReplaceAll(strings.TrimSpace(asString), ",", ".")
	}

	d, err := decimal.NewFromString(trimmed)
	if err != nil || !d.IsPositive() {
		return nil
	}
	return &d
}

// Package orchestrator decides, once per turn, which domain action a message
// resolves to and dispatches it exactly once. It is stateless across turns
// except through conversation memory; the generation backend only supplies
// hints, never the decision.
package orchestrator

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	actionx "github.com/mfigueroa/gastobot/agent/action"
	contractx "github.com/mfigueroa/gastobot/agent/contract"
	extractx "github.com/mfigueroa/gastobot/agent/extract"
	memoryx "github.com/mfigueroa/gastobot/agent/memory"
	normalizex "github.com/mfigueroa/gastobot/agent/normalize"
)

var (
	ErrInvalidSession = errors.New("session id is empty")
	ErrInvalidMessage = errors.New("message is empty")
)

// Fixed user-facing texts. Infrastructure detail never reaches these.
const (
	replyApology = "❌ Hubo un error procesando tu mensaje. Por favor intenta de nuevo o escribe 'ayuda'."

	replyAskRegistration = "👋 ¡Hola! Para empezar, envíame tu nombre y un correo de contacto.\nEjemplo: \"Juan Perez, juan@mail.com\""
	replyBadContact      = "❌ El contacto no parece válido. Por favor envíame tu nombre y un correo correcto (ej. \"Juan Perez, juan@mail.com\")."

	replyAskAmount = "¿Cuánto fue el monto? 💵"
	replyAskKind   = "¿Eso fue un gasto o un ingreso?"
	replyAskPeriod = "¿Qué período quieres? Puede ser semanal, mensual o anual."
	replyConfused  = "No te entendí 🤔. Cuéntame un gasto o ingreso con su monto, o escribe 'ayuda' para ver ejemplos."

	replyCooldown = "⚠️ Has solicitado demasiados códigos. Intenta de nuevo en una hora."
)

type Orchestrator struct {
	store     contractx.Storage
	extractor *extractx.Extractor
	memory    *memoryx.Store
	handlers  *actionx.Handlers
}

func New(
	store contractx.Storage,
	extractor *extractx.Extractor,
	mem *memoryx.Store,
	handlers *actionx.Handlers,
) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("storage is required")
	}
	if extractor == nil {
		return nil, errors.New("extractor is required")
	}
	if mem == nil {
		return nil, errors.New("conversation memory is required")
	}
	if handlers == nil {
		return nil, errors.New("action handlers are required")
	}
	return &Orchestrator{
		store:     store,
		extractor: extractor,
		memory:    mem,
		handlers:  handlers,
	}, nil
}

// HandleMessage processes one inbound message and returns the response text.
// Turns of the same session are serialized; independent sessions may run
// concurrently. Errors past input validation are converted to a fixed apology
// at this boundary and never crash the session's memory.
func (o *Orchestrator) HandleMessage(ctx context.Context, sessionID, text string) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return "", ErrInvalidSession
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrInvalidMessage
	}

	unlock := o.memory.Lock(sessionID)
	defer unlock()

	return o.handleTurn(ctx, sessionID, text), nil
}

func (o *Orchestrator) handleTurn(ctx context.Context, sessionID, text string) string {
	turn := normalizex.Normalize(text)

	profile, err := o.store.GetUserProfile(ctx, sessionID)
	if err != nil {
		log.Error().Err(err).Str("session", sessionID).Msg("profile lookup failed")
		return replyApology
	}

	// Registration gate: while the profile is incomplete the only permitted
	// actions are receiving the registration payload or asking for it. A
	// registration payload wins over any transaction in the same turn.
	var dec decision
	if !profile.Complete() {
		dec = decideRegistration(turn)
	} else {
		dec = o.decide(ctx, sessionID, turn)
	}
	reply, committed := o.dispatch(ctx, sessionID, dec)
	if committed {
		o.remember(sessionID, text, reply)
	}
	return reply
}

// remember appends both sides of the turn to conversation memory. Called only
// after the turn's action has committed, so a failed turn never leaves the
// log half-updated.
func (o *Orchestrator) remember(sessionID, userText, agentText string) {
	o.memory.Append(sessionID, memoryx.Turn{Role: memoryx.RoleUser, Content: userText})
	o.memory.Append(sessionID, memoryx.Turn{Role: memoryx.RoleAgent, Content: agentText})
}

// decideRegistration maps a turn from an unregistered session to either the
// registration action or a request for the payload.
func decideRegistration(turn normalizex.Normalized) decision {
	name, contactAddr, ok := parseRegistrationPayload(turn.Original)
	if !ok {
		return decision{Action: contractx.ActionAskClarification, Clarify: replyAskRegistration}
	}
	return decision{Action: contractx.ActionRegisterProfile, Name: name, Contact: contactAddr}
}

// parseRegistrationPayload recognizes a "name, contact" turn. The contact is
// whichever token carries the address separator; the rest is the name.
func parseRegistrationPayload(text string) (name, contactAddr string, ok bool) {
	if !strings.Contains(text, "@") {
		return "", "", false
	}

	if parts := strings.SplitN(text, ",", 2); len(parts) == 2 && strings.Contains(parts[1], "@") {
		name = strings.TrimSpace(parts[0])
		contactAddr = strings.TrimSpace(parts[1])
		if name != "" && contactAddr != "" {
			return name, contactAddr, true
		}
	}

	var rest []string
	for _, field := range strings.Fields(text) {
		if contactAddr == "" && strings.Contains(field, "@") {
			contactAddr = strings.Trim(field, ".,;:")
			continue
		}
		rest = append(rest, field)
	}
	name = strings.TrimSpace(strings.Join(rest, " "))
	if name == "" || contactAddr == "" {
		return "", "", false
	}
	return name, contactAddr, true
}

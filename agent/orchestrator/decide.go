package orchestrator

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	actionx "github.com/mfigueroa/gastobot/agent/action"
	contractx "github.com/mfigueroa/gastobot/agent/contract"
	memoryx "github.com/mfigueroa/gastobot/agent/memory"
	normalizex "github.com/mfigueroa/gastobot/agent/normalize"
	schemax "github.com/mfigueroa/gastobot/agent/schema"
)

// decision is the single closed outcome of a turn. Exactly one variant is
// populated according to Action; clarify carries the question text for
// ActionAskClarification.
type decision struct {
	Action  contractx.Action
	Commit  actionx.CommitRequest
	Period  contractx.ReportPeriod
	Clarify string

	// Name and Contact carry the ActionRegisterProfile payload.
	Name    string
	Contact string

	// pending, when set alongside ActionAskClarification, is stored for a
	// one-shot carry-over into the next turn.
	pending *memoryx.PendingSlots
}

// decide maps a normalized turn to exactly one action. Deterministic keyword
// routes run before the extractor; the extractor's output is treated as a
// hint and re-validated here, never trusted as a command.
func (o *Orchestrator) decide(ctx context.Context, sessionID string, turn normalizex.Normalized) decision {
	var dec decision

	if isHelpTurn(turn.Folded) {
		dec.Action = contractx.ActionShowHelp
		return dec
	}
	if isCredentialTurn(turn.Folded) {
		dec.Action = contractx.ActionIssueCredential
		return dec
	}
	if isReportTurn(turn.Folded) {
		period, ok := detectPeriod(turn.Folded)
		if !ok {
			dec.Action = contractx.ActionAskClarification
			dec.Clarify = replyAskPeriod
			return dec
		}
		dec.Action = contractx.ActionGenerateReport
		dec.Period = period
		return dec
	}

	// One-shot carry-over from the immediately preceding turn. Taking the
	// slots here enforces the drop: they are either consumed now or gone.
	pending, hasPending := o.memory.TakePending(sessionID)

	if amount, ok := normalizex.BareAmount(turn.Folded); ok && hasPending && pending.Kind != "" {
		dec.Action = contractx.ActionCommitTransaction
		dec.Commit = actionx.CommitRequest{
			Kind:        pending.Kind,
			Amount:      amount,
			Category:    pending.Category,
			Description: pending.Description,
			DateRef:     pending.DateRef,
		}
		return dec
	}

	history := o.memory.Get(sessionID)
	res := o.extractor.Extract(ctx, turn, history)

	kind := res.Kind
	category := res.Category
	description := res.Description
	dateRef := res.DateRef
	if kind == "" && res.HasAmount() && hasPending && pending.Kind != "" {
		kind = pending.Kind
		if category == "" || category == schemax.CategoryOther {
			category = pending.Category
		}
		if description == "" {
			description = pending.Description
		}
		if dateRef == "" {
			dateRef = pending.DateRef
		}
	}
	if kind != "" && (category == "" || category == schemax.CategoryOther) {
		category = turn.CategoryHint(kind)
	}

	switch {
	case kind != "" && res.HasAmount():
		dec.Action = contractx.ActionCommitTransaction
		dec.Commit = actionx.CommitRequest{
			Kind:        kind,
			Amount:      *res.Amount,
			Currency:    res.Currency,
			Category:    category,
			Description: description,
			DateRef:     dateRef,
		}
	case kind != "":
		dec.Action = contractx.ActionAskClarification
		dec.Clarify = replyAskAmount
		dec.pending = &memoryx.PendingSlots{
			Kind:        kind,
			Category:    category,
			Description: description,
			DateRef:     dateRef,
		}
	case res.HasAmount():
		dec.Action = contractx.ActionAskClarification
		dec.Clarify = replyAskKind
	default:
		dec.Action = contractx.ActionAskClarification
		dec.Clarify = replyConfused
	}
	return dec
}

// dispatch executes the decision's single action. The boolean reports whether
// the turn committed; an uncommitted turn is kept out of memory.
func (o *Orchestrator) dispatch(ctx context.Context, sessionID string, dec decision) (string, bool) {
	var (
		reply string
		err   error
	)
	switch dec.Action {
	case contractx.ActionShowHelp:
		reply = o.handlers.Help()
	case contractx.ActionIssueCredential:
		reply, err = o.handlers.IssueCredential(ctx, sessionID)
	case contractx.ActionGenerateReport:
		reply, err = o.handlers.GenerateReport(ctx, sessionID, dec.Period)
	case contractx.ActionCommitTransaction:
		reply, err = o.handlers.CommitTransaction(ctx, sessionID, dec.Commit)
	case contractx.ActionRegisterProfile:
		reply, err = o.handlers.RegisterProfile(ctx, sessionID, dec.Name, dec.Contact)
	case contractx.ActionAskClarification:
		reply = dec.Clarify
		if dec.pending != nil {
			o.memory.SetPending(sessionID, *dec.pending)
		}
	default:
		reply = replyConfused
	}

	if err != nil {
		switch {
		case errors.Is(err, contractx.ErrInvalidContact):
			return replyBadContact, true
		case errors.Is(err, contractx.ErrRateLimited):
			return replyCooldown, true
		case errors.Is(err, contractx.ErrInvalidPeriod):
			return replyAskPeriod, true
		case errors.Is(err, contractx.ErrInsufficientSlots):
			return replyAskAmount, true
		default:
			log.Error().Err(err).Str("session", sessionID).
				Str("action", string(dec.Action)).Msg("action failed")
			return replyApology, false
		}
	}
	return reply, true
}

func isHelpTurn(folded string) bool {
	return strings.Contains(folded, "ayuda") || strings.Contains(folded, "help")
}

func isCredentialTurn(folded string) bool {
	for _, kw := range []string{"codigo", "código", "otp", "clave"} {
		if strings.Contains(folded, kw) {
			return true
		}
	}
	return false
}

func isReportTurn(folded string) bool {
	for _, kw := range []string{"reporte", "resumen", "cuanto gaste", "cuánto gasté", "balance"} {
		if strings.Contains(folded, kw) {
			return true
		}
	}
	return false
}

func detectPeriod(folded string) (contractx.ReportPeriod, bool) {
	for _, token := range strings.Fields(folded) {
		if period, ok := contractx.ParsePeriod(strings.Trim(token, ".,;:!?¡¿")); ok {
			return period, true
		}
	}
	return "", false
}

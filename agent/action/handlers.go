// Package action implements the domain action handlers: pure request→response
// transforms over validated inputs plus the storage collaborator. Handlers
// return user-facing confirmation text; user-input problems come back as
// sentinel errors for the orchestrator to phrase.
package action

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/mfigueroa/gastobot/agent/contract"
	"github.com/mfigueroa/gastobot/agent/dates"
	"github.com/mfigueroa/gastobot/agent/schema"
)

type Config struct {
	// CredentialHourlyLimit is the rolling per-user issuance cap.
	CredentialHourlyLimit int `split_words:"true" default:"10"`
	// CredentialTTL is the expiry window of an issued code.
	CredentialTTL time.Duration `split_words:"true" default:"5m"`
	CodeLength    int           `split_words:"true" default:"6"`
	DashboardURL  string        `split_words:"true"`
}

type Handlers struct {
	store    contract.Storage
	resolver *dates.Resolver
	helpText string
	cfg      Config

	now func() time.Time
}

func New(store contract.Storage, resolver *dates.Resolver, helpText string, cfg Config) (*Handlers, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: storage is required", contract.ErrValidation)
	}
	if resolver == nil {
		resolver = dates.NewResolver(dates.DefaultLocation)
	}
	if cfg.CredentialHourlyLimit <= 0 {
		cfg.CredentialHourlyLimit = 10
	}
	if cfg.CredentialTTL <= 0 {
		cfg.CredentialTTL = 5 * time.Minute
	}
	if cfg.CodeLength <= 0 {
		cfg.CodeLength = 6
	}
	return &Handlers{
		store:    store,
		resolver: resolver,
		helpText: helpText,
		cfg:      cfg,
		now:      time.Now,
	}, nil
}

// RegisterProfile validates and persists a user's name and contact. The
// contact must look addressable (contain "@"); otherwise ErrInvalidContact.
func (h *Handlers) RegisterProfile(ctx context.Context, identifier, name, contact string) (string, error) {
	name = strings.TrimSpace(name)
	contact = strings.TrimSpace(contact)

	if name == "" {
		return "", fmt.Errorf("%w: name is empty", contract.ErrInsufficientSlots)
	}
	if !strings.Contains(contact, "@") {
		return "", fmt.Errorf("%w: %q", contract.ErrInvalidContact, contact)
	}

	if err := h.store.UpdateUserProfile(ctx, identifier, name, contact); err != nil {
		return "", err
	}

	return fmt.Sprintf(
		"✅ ¡Perfecto %s! Tu perfil ha sido registrado con el contacto %s. Ahora puedes empezar a registrar tus gastos e ingresos.",
		name, contact,
	), nil
}

// CommitRequest is the validated input for one transaction commit.
type CommitRequest struct {
	Kind        schema.Kind
	Amount      decimal.Decimal
	Currency    schema.Currency
	Category    schema.Category
	Description string
	DateRef     string
}

// CommitTransaction resolves the date reference, persists exactly one
// transaction and returns the confirmation text.
func (h *Handlers) CommitTransaction(ctx context.Context, identifier string, req CommitRequest) (string, error) {
	if req.Kind == schema.KindUnknown {
		return "", fmt.Errorf("%w: kind is required", contract.ErrInsufficientSlots)
	}
	if !req.Amount.IsPositive() {
		return "", fmt.Errorf("%w: amount must be positive", contract.ErrInsufficientSlots)
	}

	userID, err := h.store.FindOrCreateUser(ctx, identifier)
	if err != nil {
		return "", err
	}

	currency := req.Currency
	if currency == schema.CurrencyUnknown || currency == "" {
		currency = schema.CurrencyPEN
	}

	occurredAt := h.resolver.Resolve(req.DateRef, h.now())
	tx := contract.Transaction{
		ID:          uuid.NewString(),
		Kind:        req.Kind,
		Amount:      req.Amount,
		Currency:    currency,
		Category:    schema.NormalizeCategory(req.Kind, string(req.Category)),
		Description: strings.TrimSpace(req.Description),
		OccurredAt:  occurredAt,
	}

	if err := h.store.InsertTransaction(ctx, userID, tx); err != nil {
		return "", err
	}

	label := "Gasto"
	if tx.Kind == schema.KindIncome {
		label = "Ingreso"
	}
	return fmt.Sprintf(
		"✅ %s registrado: S/ %s en %s (%s). Descripción: %s",
		label, tx.Amount.StringFixed(2), tx.Category, occurredAt.Format("02/01/2006"), tx.Description,
	), nil
}

// IssueCredential generates a fixed-length numeric one-time code, invalidating
// all prior outstanding codes, under a rolling hourly rate limit.
func (h *Handlers) IssueCredential(ctx context.Context, identifier string) (string, error) {
	userID, err := h.store.FindOrCreateUser(ctx, identifier)
	if err != nil {
		return "", err
	}

	count, err := h.store.CountRecentCredentials(ctx, userID, time.Hour)
	if err != nil {
		return "", err
	}
	if count >= h.cfg.CredentialHourlyLimit {
		return "", fmt.Errorf("%w: %d codes within the hour", contract.ErrRateLimited, count)
	}

	code, err := numericCode(h.cfg.CodeLength)
	if err != nil {
		return "", err
	}

	if err := h.store.ReplaceActiveCredential(ctx, userID, code, h.cfg.CredentialTTL); err != nil {
		return "", err
	}
	log.Debug().Int64("user_id", userID).Msg("credential issued")

	msg := fmt.Sprintf("🔐 Tu código es: %s\n⏱️ Expira en %d minutos.", code, int(h.cfg.CredentialTTL.Minutes()))
	if h.cfg.DashboardURL != "" {
		msg += "\n\n📊 Ingresa a tu dashboard:\n" + h.cfg.DashboardURL
	}
	return msg, nil
}

// Help returns the fixed usage text.
func (h *Handlers) Help() string {
	return h.helpText
}

// numericCode draws each digit with rand.Int so the distribution is uniform;
// reducing raw bytes mod 10 would skew toward the low digits.
func numericCode(length int) (string, error) {
	ten := big.NewInt(10)
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		buf[i] = byte('0' + n.Int64())
	}
	return string(buf), nil
}

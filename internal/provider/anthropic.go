// Package provider generates structured critiques by prompting an Anthropic
// model. It is host glue: the pipeline core never calls it — the host feeds
// its parsed output to the ingestor.
package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/attribute"

	"github.com/m0n0x41d/crucible/internal/integrity"
	"github.com/m0n0x41d/crucible/internal/telemetry"
	"github.com/m0n0x41d/crucible/internal/types"
)

const (
	maxRetries      = 3
	initialInterval = 1 * time.Second
	maxTokens       = 4096
)

// errAPIKeyRequired is returned when no API key is available.
var errAPIKeyRequired = errors.New("API key required")

// ErrBadCritiqueJSON is returned when the model's reply cannot be parsed into
// a critique list. The host typically re-prompts with the error text.
var ErrBadCritiqueJSON = errors.New("model reply is not a critique JSON array")

// Critic wraps the Anthropic API for critique generation.
type Critic struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewCritic creates a critique client. Env var ANTHROPIC_API_KEY takes
// precedence over the explicit apiKey.
func NewCritic(apiKey, model string) (*Critic, error) {
	if envKey := os.Getenv("ANTHROPIC_API_KEY"); envKey != "" {
		apiKey = envKey
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: set ANTHROPIC_API_KEY or provide via config", errAPIKeyRequired)
	}
	return &Critic{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  anthropic.Model(model),
	}, nil
}

const critiquePrompt = `You are one side of a structured planning debate, acting as role %s in round %d.
Critique the proposal below. Reply with ONLY a JSON array; each element:
{"severity": "blocking"|"important"|"minor", "title": "...", "detail": "...",
 "derived_from": ["blk_..."] (optional, only when refining a listed open item),
 "disposition": {"decision": "...", "rationale": "..."} (optional)}

Open items you may derive from:
%s

Proposal:
%s`

// Critique asks the model for one round of critiques against a proposal,
// offering the current active set as derivation targets.
func (c *Critic) Critique(ctx context.Context, role types.Role, round int, proposal string, openItems []string) ([]integrity.RawCritique, error) {
	prompt := fmt.Sprintf(critiquePrompt, role, round, strings.Join(openItems, "\n"), proposal)

	tracer := telemetry.Tracer("github.com/m0n0x41d/crucible/internal/provider")
	ctx, span := tracer.Start(ctx, "anthropic.messages.new")
	defer span.End()
	span.SetAttributes(
		attribute.String("crucible.ai.model", string(c.model)),
		attribute.String("crucible.ai.role", string(role)),
	)

	params := anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(
		backoff.NewExponentialBackOff(backoff.WithInitialInterval(initialInterval)),
		maxRetries), ctx)

	var reply string
	err := backoff.Retry(func() error {
		message, err := c.client.Messages.New(ctx, params)
		if err != nil {
			return err
		}
		var text strings.Builder
		for _, block := range message.Content {
			if block.Type == "text" {
				text.WriteString(block.Text)
			}
		}
		reply = text.String()
		return nil
	}, policy)
	if err != nil {
		return nil, fmt.Errorf("anthropic call failed: %w", err)
	}

	return ParseCritiques(reply)
}

// ParseCritiques extracts the critique array from a model reply, tolerating
// prose or fencing around the JSON.
func ParseCritiques(reply string) ([]integrity.RawCritique, error) {
	start := strings.Index(reply, "[")
	end := strings.LastIndex(reply, "]")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: no JSON array found", ErrBadCritiqueJSON)
	}
	var critiques []integrity.RawCritique
	if err := json.Unmarshal([]byte(reply[start:end+1]), &critiques); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadCritiqueJSON, err)
	}
	return critiques, nil
}

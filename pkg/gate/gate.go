/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package gate implements the advisory second-opinion step against an
// external reasoning service. The gate can only tighten the rule verdict:
// every failure mode resolves to a denial, never to the rule verdict's
// approval.
package gate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/SHARAN-RH/netops/pkg/logger"
	"github.com/SHARAN-RH/netops/pkg/models"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultMaxTokens = 1024

	// maxResponseBytes bounds how much of the reasoning service's response
	// is read.
	maxResponseBytes = 1 << 20
)

var (
	errUnexpectedStatusCode = errors.New("unexpected status code from reasoning service")
	errEmptyCompletion      = errors.New("reasoning service returned no completion")
	errMissingFields        = errors.New("reasoning service response missing required fields")
)

// AdvisoryGate implements Gate over an OpenAI-style chat completions
// endpoint.
type AdvisoryGate struct {
	config *models.GateConfig
	client HTTPClient
	logger logger.Logger
}

// NewAdvisoryGate creates a gate from the configuration. A nil client uses a
// plain http.Client bounded by the configured timeout.
func NewAdvisoryGate(cfg *models.GateConfig, client HTTPClient, log logger.Logger) *AdvisoryGate {
	if client == nil {
		client = &http.Client{}
	}

	return &AdvisoryGate{
		config: cfg,
		client: client,
		logger: log,
	}
}

// reviewRequest is the bounded payload sent to the reasoning service.
type reviewRequest struct {
	Device   *models.Device         `json:"device"`
	Policy   *models.Policy         `json:"policy"`
	Snapshot *models.HealthSnapshot `json:"snapshot"`
	Rule     *models.Verdict        `json:"rule_verdict"`
}

// completionRequest and completionResponse follow the chat completions wire
// format.
type completionRequest struct {
	Model          string              `json:"model,omitempty"`
	MaxTokens      int                 `json:"max_tokens"`
	ResponseFormat *responseFormat     `json:"response_format,omitempty"`
	Messages       []completionMessage `json:"messages"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type completionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// gateOpinion is the structured decision the reasoning service must return.
// Pointer fields let validation distinguish absent from zero-valued.
type gateOpinion struct {
	Approve    *bool    `json:"approve"`
	Reason     *string  `json:"reason"`
	Confidence *float64 `json:"confidence"`
}

// Review applies the advisory gate to a rule verdict. When the gate is
// disabled the rule verdict passes through unchanged. When enabled, the
// external opinion becomes the final verdict on success; on any failure the
// result is a denial naming the gate failure, with the rule verdict's
// structured metrics retained for audit.
func (g *AdvisoryGate) Review(
	ctx context.Context, device *models.Device, policy *models.Policy,
	snapshot *models.HealthSnapshot, rule *models.Verdict,
) *models.Verdict {
	if !g.config.Enabled {
		return rule
	}

	opinion, err := g.consult(ctx, &reviewRequest{
		Device:   device,
		Policy:   policy,
		Snapshot: snapshot,
		Rule:     rule,
	})
	if err != nil {
		g.logger.Warn().
			Err(err).
			Str("device_id", device.ID).
			Bool("rule_approve", rule.Approve).
			Msg("Advisory gate failed, denying")

		return &models.Verdict{
			Approve:       false,
			Reason:        fmt.Sprintf("advisory gate failure: %v", err),
			Confidence:    0,
			TargetVersion: rule.TargetVersion,
			DecidedBy:     models.DecidedByGate,
			Metrics:       rule.Metrics,
		}
	}

	g.logger.Info().
		Str("device_id", device.ID).
		Bool("rule_approve", rule.Approve).
		Bool("gate_approve", *opinion.Approve).
		Float64("confidence", *opinion.Confidence).
		Msg("Advisory gate decision")

	return &models.Verdict{
		Approve:       *opinion.Approve,
		Reason:        *opinion.Reason,
		Confidence:    *opinion.Confidence,
		Conditions:    rule.Conditions,
		TargetVersion: rule.TargetVersion,
		DecidedBy:     models.DecidedByGate,
		Metrics:       rule.Metrics,
	}
}

// consult sends one bounded request to the reasoning service and validates
// the structured decision in its response.
func (g *AdvisoryGate) consult(ctx context.Context, review *reviewRequest) (*gateOpinion, error) {
	timeout := time.Duration(g.config.Timeout)
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	prompt, err := buildPrompt(review)
	if err != nil {
		return nil, err
	}

	maxTokens := g.config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	body, err := json.Marshal(&completionRequest{
		Model:          g.config.Model,
		MaxTokens:      maxTokens,
		ResponseFormat: &responseFormat{Type: "json_object"},
		Messages: []completionMessage{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, g.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")

	if g.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.config.APIKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", errUnexpectedStatusCode, resp.StatusCode)
	}

	var completion completionResponse
	if err := json.Unmarshal(payload, &completion); err != nil {
		return nil, err
	}

	if len(completion.Choices) == 0 {
		return nil, errEmptyCompletion
	}

	var opinion gateOpinion
	if err := json.Unmarshal([]byte(completion.Choices[0].Message.Content), &opinion); err != nil {
		return nil, err
	}

	// Absence of a field is not consent; all three must be explicit.
	if opinion.Approve == nil || opinion.Reason == nil || opinion.Confidence == nil {
		return nil, errMissingFields
	}

	return &opinion, nil
}

// buildPrompt renders the review payload into the instruction sent to the
// reasoning service.
func buildPrompt(review *reviewRequest) (string, error) {
	payload, err := json.MarshalIndent(review, "", "  ")
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`You are a network upgrade safety reviewer. Given the device, its
effective policy, the latest health snapshot, and the rule-based verdict,
decide whether the upgrade should proceed.

%s

Guidelines:
- Prioritize network stability; if data looks incomplete or contradictory, deny.
- You may deny an upgrade the rules approved, but never invent approvals.

Respond with JSON in exactly this shape:
{"approve": true|false, "reason": "concise explanation", "confidence": 0.0-1.0}`, payload), nil
}

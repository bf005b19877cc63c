// Package discovery implements the content-discovery collaborator
// behind the ports.Discoverer contract. The DeepSeek provider talks to
// an OpenAI-compatible chat completion endpoint; the static provider
// serves deterministic data for development and tests.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"scholarmap-backend/application/ports"
	"scholarmap-backend/domain"
	pkgerrors "scholarmap-backend/pkg/errors"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const systemPrompt = `You are a research librarian. Given a topic, produce a small
concept graph: the topic itself, two or three subtopics that expand it, and one or
two notable authors. Attach real, citable sources to every node.

Respond with a single JSON object of the form:
{"nodes":[{"label":"...","type":"topic|subtopic|author","parentIndex":0,
"score":0.9,"sources":[{"kind":"paper|book|article","title":"...",
"authors":["..."],"year":2020,"url":"...","doi":"...","snippet":"...","rank":0}]}]}

The first node must be the topic itself with no parentIndex. Every other node's
parentIndex references an earlier node in the array.`

// discoveryPayload is the JSON shape the model is asked to produce
type discoveryPayload struct {
	Nodes []struct {
		Label       string                 `json:"label"`
		Type        string                 `json:"type"`
		ParentIndex *int                   `json:"parentIndex,omitempty"`
		Score       *float64               `json:"score,omitempty"`
		Metadata    map[string]interface{} `json:"metadata,omitempty"`
		Sources     []domain.SourceItem    `json:"sources,omitempty"`
	} `json:"nodes"`
}

// DeepSeekDiscoverer implements ports.Discoverer against the DeepSeek
// chat completion API
type DeepSeekDiscoverer struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewDeepSeekDiscoverer creates a discoverer talking to an
// OpenAI-compatible endpoint at baseURL
func NewDeepSeekDiscoverer(apiKey, baseURL, model string, logger *zap.Logger) ports.Discoverer {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &DeepSeekDiscoverer{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		logger: logger,
	}
}

// Discover asks the model for a concept graph of the topic. Errors
// propagate unmapped; the orchestrator owns the failure semantics.
func (d *DeepSeekDiscoverer) Discover(ctx context.Context, topic string, params map[string]interface{}) ([]domain.NodeItem, error) {
	userPrompt := fmt.Sprintf("Topic: %s", topic)
	if len(params) > 0 {
		if hints, err := json.Marshal(params); err == nil {
			userPrompt += fmt.Sprintf("\nHints: %s", hints)
		}
	}

	resp, err := d.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: d.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, pkgerrors.NewExternalError("deepseek", err)
	}
	if len(resp.Choices) == 0 {
		return nil, pkgerrors.NewExternalError("deepseek", fmt.Errorf("empty completion"))
	}

	items, err := parsePayload(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	d.logger.Info("Discovery completed",
		zap.String("topic", topic),
		zap.Int("nodes", len(items)),
	)
	return items, nil
}

// parsePayload decodes the model output into node items, validating the
// parent references so a malformed graph fails here rather than halfway
// through persistence
func parsePayload(content string) ([]domain.NodeItem, error) {
	content = strings.TrimSpace(content)
	// Some models wrap JSON in a fenced block despite the response format.
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var payload discoveryPayload
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return nil, pkgerrors.NewExternalError("deepseek", fmt.Errorf("malformed discovery payload: %w", err))
	}
	if len(payload.Nodes) == 0 {
		return nil, pkgerrors.NewExternalError("deepseek", fmt.Errorf("discovery payload has no nodes"))
	}

	items := make([]domain.NodeItem, 0, len(payload.Nodes))
	for i, n := range payload.Nodes {
		if n.Label == "" {
			return nil, pkgerrors.NewExternalError("deepseek", fmt.Errorf("node %d has no label", i))
		}
		if n.ParentIndex != nil && (*n.ParentIndex < 0 || *n.ParentIndex >= i) {
			return nil, pkgerrors.NewExternalError("deepseek", fmt.Errorf("node %d has invalid parentIndex %d", i, *n.ParentIndex))
		}
		nodeType := n.Type
		if nodeType == "" {
			nodeType = domain.NodeTypeSubtopic
		}
		items = append(items, domain.NodeItem{
			Label:       n.Label,
			Type:        nodeType,
			ParentIndex: n.ParentIndex,
			Score:       n.Score,
			Metadata:    n.Metadata,
			Sources:     n.Sources,
		})
	}
	return items, nil
}

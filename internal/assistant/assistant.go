// Package assistant hosts the conversation orchestrator: it runs the
// Gemini chat loop, dispatches the model's tool calls against the
// registry, and maps upstream failures to user-facing messages.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/generative-ai-go/genai"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"

	"github.com/sekolahdigital/adminpanel/internal/aitools"
	"github.com/sekolahdigital/adminpanel/internal/i18n"
	"github.com/sekolahdigital/adminpanel/internal/model"
	"github.com/sekolahdigital/adminpanel/internal/retrieval"
)

const (
	defaultModel     = "gemini-2.0-flash"
	defaultMaxRounds = 5
	defaultTimeout   = 60 * time.Second
)

// chatSession is the slice of *genai.ChatSession the round loop needs.
// Tests substitute a scripted session.
type chatSession interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// Assistant answers admin questions about school data.
type Assistant struct {
	client    *genai.Client
	tools     *aitools.Registry
	retrieval *retrieval.Builder
	cfg       model.AssistantConfig

	// newSession starts a tool-calling chat; newPlainSession starts a
	// tool-free chat for the retrieval mode, where the data is already
	// in the prompt and a function call would leave nothing to answer.
	newSession      func() chatSession
	newPlainSession func() chatSession
}

// Options selects per-query behavior.
type Options struct {
	// MaxContextSize overrides the context ceiling for the retrieval mode.
	MaxContextSize int
	// UseSmartRetrieval selects the heuristic context-assembly mode
	// instead of tool calling.
	UseSmartRetrieval bool
	// IncludeRecommendations asks for follow-up suggestions in the answer.
	IncludeRecommendations bool
}

// Result is one answered query.
type Result struct {
	Response string
	// ContextUsed lists context sources (retrieval mode) or invoked
	// tool names (tool mode), in order.
	ContextUsed []string
	DataSize    int
}

// New creates the assistant and configures the Gemini model: tools,
// system instruction, safety settings, and generation parameters.
func New(ctx context.Context, apiKey string, tools *aitools.Registry, builder *retrieval.Builder, cfg model.AssistantConfig) (*Assistant, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is not set")
	}
	applyDefaults(&cfg)

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("init gemini client: %w", err)
	}

	m := configureModel(client, cfg.Model, baseInstruction+toolInstruction)
	m.Tools = aitools.Declarations()
	plain := configureModel(client, cfg.Model, baseInstruction)

	return &Assistant{
		client:          client,
		tools:           tools,
		retrieval:       builder,
		cfg:             cfg,
		newSession:      func() chatSession { return m.StartChat() },
		newPlainSession: func() chatSession { return plain.StartChat() },
	}, nil
}

func configureModel(client *genai.Client, name, instruction string) *genai.GenerativeModel {
	m := client.GenerativeModel(name)
	temp := float32(0.3)
	m.Temperature = &temp
	topP := float32(0.8)
	m.TopP = &topP
	maxTokens := int32(1024)
	m.MaxOutputTokens = &maxTokens
	m.SafetySettings = []*genai.SafetySetting{
		{
			Category:  genai.HarmCategoryHarassment,
			Threshold: genai.HarmBlockMediumAndAbove,
		},
		{
			Category:  genai.HarmCategoryHateSpeech,
			Threshold: genai.HarmBlockMediumAndAbove,
		},
	}
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(instruction)}}
	return m
}

func applyDefaults(cfg *model.AssistantConfig) {
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxRounds <= 0 {
		cfg.MaxRounds = defaultMaxRounds
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = defaultTimeout
	}
}

// Close releases the underlying API client.
func (a *Assistant) Close() error {
	return a.client.Close()
}

// Analyze answers one admin question. The query is validated first; a
// rejected query comes back as a *QueryError without any model call.
func (a *Assistant) Analyze(ctx context.Context, query string, opts Options) (*Result, error) {
	if err := ValidateQuery(query); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.CallTimeout)
	defer cancel()

	if opts.UseSmartRetrieval {
		return a.analyzeWithContext(ctx, query, opts)
	}
	return a.analyzeWithTools(ctx, query)
}

// analyzeWithContext assembles relevant context up front and sends a
// single-shot prompt, the fallback design without function calling.
func (a *Assistant) analyzeWithContext(ctx context.Context, query string, opts Options) (*Result, error) {
	assembled, err := a.retrieval.WithCeiling(opts.MaxContextSize).RelevantContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("assemble context: %w", err)
	}

	session := a.newPlainSession()
	prompt := buildContextPrompt(assembled.Text, query, opts.IncludeRecommendations)
	resp, err := session.SendMessage(ctx, genai.Text(prompt))
	if err != nil {
		return nil, mapModelError(ctx, err)
	}

	_, text := splitParts(resp)
	if text == "" {
		if blockedBySafety(resp) {
			return nil, errors.New(i18n.T(ctx, "SafetyBlocked"))
		}
		return nil, errors.New(i18n.T(ctx, "AnalysisFailed"))
	}
	return &Result{Response: text, ContextUsed: assembled.Sources, DataSize: assembled.DataSize}, nil
}

// analyzeWithTools runs the function-calling loop. Every tool call the
// model makes in one turn is executed before the next turn; the loop
// stops on a text answer or when the round budget runs out, in which
// case the last text seen is still returned.
func (a *Assistant) analyzeWithTools(ctx context.Context, query string) (*Result, error) {
	session := a.newSession()
	parts := []genai.Part{genai.Text(query)}

	var toolsUsed []string
	var lastText string
	dataSize := 0

	for round := 1; round <= a.cfg.MaxRounds; round++ {
		resp, err := session.SendMessage(ctx, parts...)
		if err != nil {
			return nil, mapModelError(ctx, err)
		}

		calls, text := splitParts(resp)
		if text != "" {
			lastText = text
		}
		if len(calls) == 0 {
			if lastText == "" && blockedBySafety(resp) {
				return nil, errors.New(i18n.T(ctx, "SafetyBlocked"))
			}
			break
		}
		slog.Debug("model requested tools", "round", round, "count", len(calls))

		outs := make([]map[string]any, len(calls))
		g, gctx := errgroup.WithContext(ctx)
		for i, call := range calls {
			i, call := i, call
			toolsUsed = append(toolsUsed, call.Name)
			g.Go(func() error {
				outs[i] = a.tools.Dispatch(gctx, call.Name, call.Args)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("run tools: %w", err)
		}

		parts = parts[:0]
		for i, call := range calls {
			dataSize += len(fmt.Sprint(outs[i]))
			parts = append(parts, genai.FunctionResponse{
				Name:     call.Name,
				Response: outs[i],
			})
		}
	}

	if lastText == "" {
		return nil, errors.New(i18n.T(ctx, "AnalysisFailed"))
	}
	return &Result{Response: lastText, ContextUsed: toolsUsed, DataSize: dataSize}, nil
}

// splitParts separates a model turn into function calls and joined text.
func splitParts(resp *genai.GenerateContentResponse) ([]genai.FunctionCall, string) {
	var calls []genai.FunctionCall
	var text string
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			switch p := part.(type) {
			case genai.FunctionCall:
				calls = append(calls, p)
			case genai.Text:
				text += string(p)
			}
		}
	}
	return calls, text
}

func blockedBySafety(resp *genai.GenerateContentResponse) bool {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason == genai.BlockReasonSafety {
		return true
	}
	for _, cand := range resp.Candidates {
		if cand.FinishReason == genai.FinishReasonSafety {
			return true
		}
	}
	return false
}

package intel

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/globe/pkg/integrations/openai"
	"github.com/matzehuels/globe/pkg/observability"
)

// SystemPrompt frames every remote request.
const SystemPrompt = "You are a helpful travel and cultural assistant."

// Prompt builds the user message for req.
func Prompt(req Request) string {
	return fmt.Sprintf("You are a helpful travel + culture assistant. The user selected %s at coordinates %.6f, %.6f.\n"+
		"Mode: %s\n"+
		"Provide useful information depending on the mode. "+
		"If mode is facts: list key facts and short bullet points (population if known, type, coordinates, short geography). "+
		"If mode is story: write a short evocative micro-story (2-3 sentences). "+
		"If mode is travel: provide quick travel tips, suggested itinerary highlights, and safety tips. "+
		"If mode is lore: invent a short myth or legend rooted in the place's feel. "+
		"Keep the tone cinematic and concise.",
		req.Name(), req.Lat, req.Lng, req.Mode)
}

// Remote describes places with the OpenAI chat completions API.
type Remote struct {
	client *openai.Client
	model  string
	logger *log.Logger
}

// NewRemote returns a remote describer. An empty model selects
// openai.DefaultModel.
func NewRemote(client *openai.Client, model string, logger *log.Logger) *Remote {
	if model == "" {
		model = openai.DefaultModel
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Remote{client: client, model: model, logger: logger}
}

func (r *Remote) Source() string { return "openai" }

// Model returns the chat model in use.
func (r *Remote) Model() string { return r.model }

func (r *Remote) Describe(ctx context.Context, req Request) string {
	req = req.normalized()
	text, err := r.describe(ctx, req)
	if err != nil {
		r.logger.Warn("describe failed", "place", req.Name(), "mode", req.Mode, "err", err)
		return FailureText
	}
	if text == "" {
		return EmptyText
	}
	return text
}

// describe returns the raw answer and the upstream error, if any.
func (r *Remote) describe(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	observability.Intel().OnDescribeStart(ctx, r.Source(), string(req.Mode))
	text, err := r.client.Complete(ctx, openai.CompletionRequest{
		System:      SystemPrompt,
		User:        Prompt(req),
		Model:       r.model,
		MaxTokens:   openai.DefaultMaxTokens,
		Temperature: openai.DefaultTemperature,
	})
	observability.Intel().OnDescribeComplete(ctx, r.Source(), string(req.Mode), time.Since(start), err)
	return text, err
}

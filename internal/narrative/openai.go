package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/Jainesh24/cwi-backend/internal/contracts"
)

const systemPrompt = "You are a clinical waste management expert. Provide concise, actionable insights."

type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
}

// OpenAI requests a JSON chat completion matching
// {assessment, recommendedAction, alertMessage}.
type OpenAI struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT3Dot5Turbo
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 500
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.7
	}

	return &OpenAI{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

func (o *OpenAI) Generate(ctx context.Context, in Input) (Narrative, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(in)},
		},
		Temperature: o.temperature,
		MaxTokens:   o.maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return Narrative{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Narrative{}, ErrEmptyResponse
	}

	n, err := parseNarrative(resp.Choices[0].Message.Content)
	if err != nil {
		return Narrative{}, err
	}
	n.Source = contracts.NarrativeLLM
	return n, nil
}

// BuildPrompt renders the event, score and factor list for the model.
func BuildPrompt(in Input) string {
	ev := in.Event
	var b strings.Builder

	b.WriteString("You are a clinical waste management expert AI analyzing hospital waste data.\n\n")
	b.WriteString("Waste Entry Details:\n")
	fmt.Fprintf(&b, "- Department: %s\n", ev.Department)
	fmt.Fprintf(&b, "- Waste Type: %s\n", ev.Category)
	fmt.Fprintf(&b, "- Quantity: %s kg\n", strconv.FormatFloat(ev.Quantity, 'f', -1, 64))
	fmt.Fprintf(&b, "- Procedure: %s\n", ev.Procedure)
	fmt.Fprintf(&b, "- Disposal Method: %s\n", ev.Disposal)
	fmt.Fprintf(&b, "- Shift: %s\n", ev.Shift)
	if ev.Notes != "" {
		fmt.Fprintf(&b, "- Notes: %s\n", ev.Notes)
	}

	b.WriteString("\nRisk Analysis:\n")
	fmt.Fprintf(&b, "- Risk Score: %d/100\n", in.Score)
	fmt.Fprintf(&b, "- Risk Factors: %s\n", strings.Join(in.Factors, "; "))
	if in.Baseline != nil {
		fmt.Fprintf(&b, "- Expected Daily: %s kg\n", strconv.FormatFloat(in.Baseline.ExpectedDaily, 'f', -1, 64))
	}

	b.WriteString(`
Task: Provide a concise analysis with:
1. Assessment: Brief evaluation (2-3 sentences)
2. Recommended Action: Specific actionable steps (2-3 bullet points)
3. Alert Message: Short alert message if risk score > 60

Format your response as JSON:
{
  "assessment": "...",
  "recommendedAction": "...",
  "alertMessage": "..." or null
}`)

	return b.String()
}

type completionPayload struct {
	Assessment        string          `json:"assessment"`
	RecommendedAction json.RawMessage `json:"recommendedAction"`
	AlertMessage      *string         `json:"alertMessage"`
}

// parseNarrative validates the model output against the response schema.
// recommendedAction may come back as a string or a list of strings.
func parseNarrative(raw string) (Narrative, error) {
	var payload completionPayload
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &payload); err != nil {
		return Narrative{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	action, err := decodeAction(payload.RecommendedAction)
	if err != nil {
		return Narrative{}, err
	}

	assessment := strings.TrimSpace(payload.Assessment)
	if assessment == "" || action == "" {
		return Narrative{}, fmt.Errorf("%w: assessment and recommendedAction are required", ErrMalformedResponse)
	}

	n := Narrative{Assessment: assessment, RecommendedAction: action}
	if payload.AlertMessage != nil {
		if msg := strings.TrimSpace(*payload.AlertMessage); msg != "" {
			n.AlertMessage = &msg
		}
	}
	return n, nil
}

func decodeAction(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "", nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return strings.TrimSpace(text), nil
	}

	var steps []string
	if err := json.Unmarshal(raw, &steps); err != nil {
		return "", fmt.Errorf("%w: recommendedAction must be a string or list of strings", ErrMalformedResponse)
	}
	lines := make([]string, 0, len(steps))
	for _, s := range steps {
		if s = strings.TrimSpace(s); s != "" {
			lines = append(lines, "• "+strings.TrimLeft(s, "•-* "))
		}
	}
	return strings.Join(lines, "\n"), nil
}

// cleanJSON strips markdown fences some models wrap around JSON.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

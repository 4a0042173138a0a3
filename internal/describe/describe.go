// Package describe generates natural-language descriptions of screenshots
// with a vision model. Responses are cached by image content so repeated
// requests for the same file cost one API call.
package describe

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hpungsan/glimpse/internal/cache"
)

// DefaultPrompt asks for a search-friendly description plus a confidence
// self-assessment, as a JSON object.
const DefaultPrompt = `Describe this screenshot for later text search. Mention visible UI elements, text, and the overall context. Respond with a JSON object: {"description": "...", "confidence": N} where N is 1-5.`

// Result is one model response.
type Result struct {
	Text       string `json:"description"`
	Confidence int    `json:"confidence"`
	Model      string `json:"model"`
}

// Provider produces a description for an image file.
type Provider interface {
	Describe(ctx context.Context, imagePath, prompt string) (*Result, error)
}

// OpenAI is a Provider backed by an OpenAI-compatible vision model.
type OpenAI struct {
	client *openai.Client
	model  string
	cache  *cache.Cache[*Result]
	logger *slog.Logger
}

// NewOpenAI builds a provider for the given model. The cache may be nil to
// disable response caching.
func NewOpenAI(apiKey, model string, c *cache.Cache[*Result]) *OpenAI {
	return &OpenAI{
		client: openai.NewClient(apiKey),
		model:  model,
		cache:  c,
		logger: slog.Default(),
	}
}

// Describe sends the image to the model and parses its response. An empty
// prompt uses DefaultPrompt.
func (p *OpenAI) Describe(ctx context.Context, imagePath, prompt string) (*Result, error) {
	if prompt == "" {
		prompt = DefaultPrompt
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", imagePath, err)
	}

	key := cacheKey(data, p.model, prompt)
	if p.cache != nil {
		if cached, ok := p.cache.Get(key); ok {
			p.logger.Debug("description cache hit", "path", imagePath)
			return cached, nil
		}
	}

	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType(imagePath), base64.StdEncoding.EncodeToString(data))

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    dataURL,
							Detail: openai.ImageURLDetailAuto,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", imagePath, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("describe %s: model returned no choices", imagePath)
	}

	result := parseResponse(resp.Choices[0].Message.Content)
	result.Model = p.model

	if p.cache != nil {
		p.cache.Set(key, result)
	}
	return result, nil
}

// parseResponse extracts the description and confidence from the model
// output. Models do not always honor the JSON instruction; a response that
// is not the expected object is kept verbatim with a middling confidence.
func parseResponse(content string) *Result {
	text := strings.TrimSpace(content)

	// Tolerate fenced output.
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}

	var parsed struct {
		Description string `json:"description"`
		Confidence  int    `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(text), &parsed); err != nil || parsed.Description == "" {
		return &Result{Text: strings.TrimSpace(content), Confidence: 3}
	}

	conf := parsed.Confidence
	if conf < 1 {
		conf = 1
	} else if conf > 5 {
		conf = 5
	}
	return &Result{Text: parsed.Description, Confidence: conf}
}

func cacheKey(imageData []byte, model, prompt string) string {
	h := sha256.New()
	h.Write(imageData)
	h.Write([]byte(model))
	h.Write([]byte(prompt))
	return hex.EncodeToString(h.Sum(nil))
}

func mimeType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/png"
	}
}

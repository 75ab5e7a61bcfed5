package dispatch

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/fanout-cli/internal/model"
	"github.com/sells-group/fanout-cli/pkg/anthropicx"
	"github.com/sells-group/fanout-cli/pkg/deepseek"
	"github.com/sells-group/fanout-cli/pkg/gemini"
	"github.com/sells-group/fanout-cli/pkg/openai"
)

// ClientConfig carries the per-provider wiring shared by all adapters.
// Secrets are not part of it; they arrive per call from the keyring.
type ClientConfig struct {
	BaseURL string
	Model   string
}

// sharedTransport is reused across per-call client constructions so
// connection pooling survives credential changes.
var sharedTransport = &http.Client{
	Timeout: 60 * time.Second,
	Transport: &http.Transport{
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
	},
}

// --- OpenAI ---

type openaiCaller struct {
	cfg ClientConfig
}

// NewOpenAICaller adapts the OpenAI client to the Caller contract.
func NewOpenAICaller(cfg ClientConfig) Caller {
	return &openaiCaller{cfg: cfg}
}

func (c *openaiCaller) Provider() model.Provider { return model.ProviderOpenAI }

func (c *openaiCaller) client(secret string) openai.Client {
	opts := []openai.Option{openai.WithHTTPClient(sharedTransport)}
	if c.cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(c.cfg.BaseURL))
	}
	if c.cfg.Model != "" {
		opts = append(opts, openai.WithModel(c.cfg.Model))
	}
	return openai.NewClient(secret, opts...)
}

func (c *openaiCaller) Complete(ctx context.Context, prompt, secret string) (*Result, error) {
	resp, err := c.client(secret).ChatCompletion(ctx, openai.ChatCompletionRequest{
		Messages: []openai.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, eris.New("openai: empty completion")
	}
	return &Result{
		Text: resp.Choices[0].Message.Content,
		Usage: model.TokenUsage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}

func (c *openaiCaller) Validate(ctx context.Context, secret string) error {
	_, err := c.client(secret).ListModels(ctx)
	return err
}

// --- Anthropic ---

type anthropicCaller struct {
	cfg ClientConfig
}

// NewAnthropicCaller adapts the SDK-backed Anthropic client to the Caller
// contract.
func NewAnthropicCaller(cfg ClientConfig) Caller {
	return &anthropicCaller{cfg: cfg}
}

func (c *anthropicCaller) Provider() model.Provider { return model.ProviderAnthropic }

func (c *anthropicCaller) client(secret string) anthropicx.Client {
	var opts []anthropicx.Option
	if c.cfg.BaseURL != "" {
		opts = append(opts, anthropicx.WithBaseURL(c.cfg.BaseURL))
	}
	if c.cfg.Model != "" {
		opts = append(opts, anthropicx.WithModel(c.cfg.Model))
	}
	return anthropicx.NewClient(secret, opts...)
}

func (c *anthropicCaller) Complete(ctx context.Context, prompt, secret string) (*Result, error) {
	resp, err := c.client(secret).CreateMessage(ctx, anthropicx.MessageRequest{Prompt: prompt})
	if err != nil {
		return nil, err
	}
	return &Result{
		Text: resp.Text,
		Usage: model.TokenUsage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
		},
	}, nil
}

func (c *anthropicCaller) Validate(ctx context.Context, secret string) error {
	_, err := c.client(secret).CreateMessage(ctx, anthropicx.MessageRequest{
		Prompt:    "ping",
		MaxTokens: 1,
	})
	return err
}

// --- Gemini ---

type geminiCaller struct {
	cfg ClientConfig
}

// NewGeminiCaller adapts the Gemini client to the Caller contract.
func NewGeminiCaller(cfg ClientConfig) Caller {
	return &geminiCaller{cfg: cfg}
}

func (c *geminiCaller) Provider() model.Provider { return model.ProviderGemini }

func (c *geminiCaller) client(secret string) gemini.Client {
	opts := []gemini.Option{gemini.WithHTTPClient(sharedTransport)}
	if c.cfg.BaseURL != "" {
		opts = append(opts, gemini.WithBaseURL(c.cfg.BaseURL))
	}
	if c.cfg.Model != "" {
		opts = append(opts, gemini.WithModel(c.cfg.Model))
	}
	return gemini.NewClient(secret, opts...)
}

func (c *geminiCaller) Complete(ctx context.Context, prompt, secret string) (*Result, error) {
	resp, err := c.client(secret).GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}
	text := resp.Text()
	if text == "" {
		return nil, eris.New("gemini: empty completion")
	}
	return &Result{
		Text: text,
		Usage: model.TokenUsage{
			InputTokens:  resp.UsageMetadata.PromptTokenCount,
			OutputTokens: resp.UsageMetadata.CandidatesTokenCount,
		},
	}, nil
}

func (c *geminiCaller) Validate(ctx context.Context, secret string) error {
	_, err := c.client(secret).ListModels(ctx)
	return err
}

// --- DeepSeek ---

type deepseekCaller struct {
	cfg ClientConfig
}

// NewDeepSeekCaller adapts the DeepSeek client to the Caller contract.
func NewDeepSeekCaller(cfg ClientConfig) Caller {
	return &deepseekCaller{cfg: cfg}
}

func (c *deepseekCaller) Provider() model.Provider { return model.ProviderDeepSeek }

func (c *deepseekCaller) client(secret string) deepseek.Client {
	opts := []deepseek.Option{deepseek.WithHTTPClient(sharedTransport)}
	if c.cfg.BaseURL != "" {
		opts = append(opts, deepseek.WithBaseURL(c.cfg.BaseURL))
	}
	if c.cfg.Model != "" {
		opts = append(opts, deepseek.WithModel(c.cfg.Model))
	}
	return deepseek.NewClient(secret, opts...)
}

func (c *deepseekCaller) Complete(ctx context.Context, prompt, secret string) (*Result, error) {
	resp, err := c.client(secret).ChatCompletion(ctx, deepseek.ChatCompletionRequest{
		Messages: []deepseek.Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, eris.New("deepseek: empty completion")
	}
	return &Result{
		Text: resp.Choices[0].Message.Content,
		Usage: model.TokenUsage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}

func (c *deepseekCaller) Validate(ctx context.Context, secret string) error {
	_, err := c.client(secret).ListModels(ctx)
	return err
}

// Package aiclient wraps the OpenAI chat completion API behind the two
// narrow operations the pipeline needs: organization classification and
// contact validation. Calls run through a circuit breaker and retry with
// backoff so a degraded upstream cannot stall batch runs.
package aiclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sony/gobreaker"

	"github.com/gbl-data/leadpipe/internal/config"
	"github.com/gbl-data/leadpipe/internal/logger"
	"github.com/gbl-data/leadpipe/internal/retry"
)

// ErrUnavailable is returned when the AI service cannot be reached, the
// circuit is open, or the client is disabled by configuration. Callers
// treat it as a signal to fall back to keyword-only results.
var ErrUnavailable = errors.New("ai service unavailable")

// chatCompleter is the slice of the OpenAI client the package uses.
// Narrowed to an interface so tests can stub completions.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Client is the shared transport for the AI-backed collaborators.
type Client struct {
	api     chatCompleter
	breaker *gobreaker.CircuitBreaker
	config  config.AIConfig
	logger  logger.Logger
}

// New creates a Client from configuration. A disabled or key-less
// configuration yields a client whose calls return ErrUnavailable.
func New(cfg config.AIConfig, log logger.Logger) *Client {
	c := &Client{
		config: cfg,
		logger: log,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "openai",
			MaxRequests: 3,
			Interval:    60 * time.Second,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.ConsecutiveFailures > 5 ||
					(counts.Requests >= 10 && failureRatio >= 0.6)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn("circuit breaker state change",
					logger.String("breaker", name),
					logger.String("from", from.String()),
					logger.String("to", to.String()))
			},
		}),
	}

	if cfg.Enabled && cfg.APIKey != "" {
		c.api = openai.NewClient(cfg.APIKey)
	}
	return c
}

// Enabled reports whether the client can make calls at all.
func (c *Client) Enabled() bool {
	return c.api != nil
}

// complete sends one system+user prompt pair and returns the raw
// completion text.
func (c *Client) complete(ctx context.Context, system, user string) (string, error) {
	if c.api == nil {
		return "", ErrUnavailable
	}

	var content string
	retryCfg := retry.DefaultConfig()
	retryCfg.MaxAttempts = c.config.MaxRetries + 1

	err := retry.Do(ctx, retryCfg, func() error {
		result, err := c.breaker.Execute(func() (any, error) {
			callCtx, cancel := context.WithTimeout(ctx, c.config.Timeout)
			defer cancel()

			return c.api.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
				Model:       c.config.Model,
				Temperature: 0,
				Messages: []openai.ChatCompletionMessage{
					{Role: openai.ChatMessageRoleSystem, Content: system},
					{Role: openai.ChatMessageRoleUser, Content: user},
				},
			})
		})
		if err != nil {
			return err
		}

		resp := result.(openai.ChatCompletionResponse)
		if len(resp.Choices) == 0 {
			return fmt.Errorf("empty completion response")
		}
		content = resp.Choices[0].Message.Content
		return nil
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return "", err
	}
	return content, nil
}

// ABOUTME: Anthropic Messages API streaming provider implementation
// ABOUTME: Sends the request, assembles SSE events into snapshots and collects the final message

package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/google/uuid"

	"github.com/mauromedda/chatstream/internal/log"
	"github.com/mauromedda/chatstream/pkg/ai"
	"github.com/mauromedda/chatstream/pkg/ai/internal/httputil"
)

const (
	defaultBaseURL   = "https://api.anthropic.com"
	anthropicVersion = "2023-06-01"
	messagesPath     = "/v1/messages"
	streamBufferSize = 64
	maxErrorBody     = 64 << 10
)

func init() {
	ai.RegisterProvider(ai.ApiAnthropic, func(cfg ai.ProviderConfig) ai.ApiProvider {
		opts := make([]httputil.Option, 0, len(cfg.Headers))
		for k, v := range cfg.Headers {
			opts = append(opts, httputil.WithHeader(k, v))
		}
		return New(cfg.APIKey, cfg.BaseURL, opts...)
	})
}

// Provider implements ai.ApiProvider for the Anthropic Messages API.
type Provider struct {
	client *httputil.Client
}

// New creates an Anthropic provider. If apiKey is empty, it reads ANTHROPIC_API_KEY.
func New(apiKey, baseURL string, opts ...httputil.Option) *Provider {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	base := []httputil.Option{
		httputil.WithHeader("x-api-key", apiKey),
		httputil.WithHeader("anthropic-version", anthropicVersion),
		httputil.WithHeader("content-type", "application/json"),
	}

	return &Provider{
		client: httputil.NewClient(baseURL, append(base, opts...)...),
	}
}

// Api returns the Anthropic API identifier.
func (p *Provider) Api() ai.Api {
	return ai.ApiAnthropic
}

// Stream initiates a streaming call to the Anthropic Messages API.
func (p *Provider) Stream(ctx context.Context, req *ai.Request, opts *ai.StreamOptions) *ai.ResponseStream {
	stream := ai.NewResponseStream(streamBufferSize)

	go p.runStream(ctx, stream, req, opts)

	return stream
}

// runStream performs the HTTP request and assembles SSE events in a goroutine.
func (p *Provider) runStream(ctx context.Context, stream *ai.ResponseStream, req *ai.Request, opts *ai.StreamOptions) {
	if req == nil {
		stream.FinishWithError(errors.New("anthropic: nil request"))
		return
	}

	bodyJSON, err := json.Marshal(buildRequestBody(req, opts))
	if err != nil {
		stream.FinishWithError(fmt.Errorf("failed to marshal request body: %w", err))
		return
	}

	requestID := uuid.NewString()
	header := http.Header{}
	header.Set("x-request-id", requestID)
	log.Debug("anthropic: request %s model=%s messages=%d tools=%d", requestID, req.Model, len(req.Messages), len(req.Tools))

	reader, resp, err := p.client.StreamSSE(ctx, http.MethodPost, messagesPath, bodyJSON, header)
	if err != nil {
		stream.FinishWithError(fmt.Errorf("failed to start SSE stream: %w", err))
		return
	}
	defer reader.Close()
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		handleErrorResponse(stream, resp, requestID)
		return
	}

	asm := NewAssembler()
	collector := ai.NewMessageCollector()
	failed := false
	asm.readFrames(ctx, reader, func(snap *ai.ChatResponse, err error) bool {
		if err != nil {
			stream.FinishWithError(fmt.Errorf("anthropic request %s: %w", requestID, err))
			failed = true
			return false
		}
		collector.Add(snap)
		return stream.Send(snap)
	})
	if failed {
		return
	}

	if err := asm.Err(); err != nil {
		stream.FinishWithError(err)
		return
	}
	stream.Finish(collector.Message())
}

// handleErrorResponse reads the error body and finishes the stream with an error.
func handleErrorResponse(stream *ai.ResponseStream, resp *http.Response, requestID string) {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var payload struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error.Message != "" {
		stream.FinishWithError(&StatusError{
			StatusCode: resp.StatusCode,
			RequestID:  requestID,
			APIError:   APIError{Type: payload.Error.Type, Message: payload.Error.Message},
		})
		return
	}
	stream.FinishWithError(&StatusError{
		StatusCode: resp.StatusCode,
		RequestID:  requestID,
		APIError:   APIError{Type: "http_error", Message: string(body)},
	})
}

// StatusError is returned when the API answers with a non-200 status.
type StatusError struct {
	StatusCode int
	RequestID  string
	APIError   APIError
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("anthropic API error (status %d, request %s): %s: %s",
		e.StatusCode, e.RequestID, e.APIError.Type, e.APIError.Message)
}

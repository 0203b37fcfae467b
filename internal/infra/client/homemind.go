package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/boddenberg/home-mind-bridge/internal/domain"
	"github.com/boddenberg/home-mind-bridge/internal/infra/resilience"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("client")

// maxErrorBody caps how much of a failed response body is kept for the error message.
const maxErrorBody = 2048

// HomeMindClient calls the Home Mind API. The base URL is passed per call
// because every config entry may point at a different API.
type HomeMindClient struct {
	httpClient    *http.Client
	breakers      *resilience.Set
	healthTimeout time.Duration
	chatTimeout   time.Duration
	logger        *zap.Logger
}

// Options tunes a HomeMindClient. Zero values take the domain defaults.
type Options struct {
	HealthTimeout time.Duration
	ChatTimeout   time.Duration
}

// NewHomeMindClient creates a client on top of the host's shared http.Client.
// Timeouts are applied per call, so httpClient should carry none of its own.
// Chat calls go through the breaker of their API base URL; breakers may be nil.
func NewHomeMindClient(httpClient *http.Client, breakers *resilience.Set, opts Options, logger *zap.Logger) *HomeMindClient {
	if opts.HealthTimeout <= 0 {
		opts.HealthTimeout = domain.DefaultHealthTimeout
	}
	if opts.ChatTimeout <= 0 {
		opts.ChatTimeout = domain.DefaultChatTimeout
	}
	return &HomeMindClient{
		httpClient:    httpClient,
		breakers:      breakers,
		healthTimeout: opts.HealthTimeout,
		chatTimeout:   opts.ChatTimeout,
		logger:        logger,
	}
}

// Health issues GET {apiURL}/api/health once.
// Transport failures, non-200 statuses and replies that are not declared as
// JSON (a different server answering with an HTML page) come back as
// *domain.ErrAPI; a JSON reply whose body does not decode comes back as a
// plain error.
func (c *HomeMindClient) Health(ctx context.Context, apiURL string) (*domain.HealthResponse, error) {
	ctx, span := tracer.Start(ctx, "HomeMindClient.Health", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	url := domain.NormalizeAPIURL(apiURL) + domain.HealthEndpoint
	span.SetAttributes(attribute.String("http.url", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &domain.ErrAPI{Err: fmt.Errorf("create http request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, &domain.ErrAPI{Err: transportError(ctx, err, c.healthTimeout)}
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		span.SetStatus(codes.Error, resp.Status)
		return nil, &domain.ErrAPI{StatusCode: resp.StatusCode, Body: readErrorBody(resp.Body)}
	}

	if ct := resp.Header.Get("Content-Type"); !isJSONContentType(ct) {
		span.SetStatus(codes.Error, "unexpected content type")
		return nil, &domain.ErrAPI{Err: fmt.Errorf("unexpected content type %q from %s", ct, url)}
	}

	var health domain.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("decode health response: %w", err)
	}
	return &health, nil
}

// Chat issues POST {apiURL}/api/chat once, through the circuit breaker of apiURL.
// Every failure comes back as *domain.ErrAPI.
func (c *HomeMindClient) Chat(ctx context.Context, apiURL string, chatReq *domain.ChatRequest) (*domain.ChatResponse, error) {
	ctx, span := tracer.Start(ctx, "HomeMindClient.Chat", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("conversation.id", chatReq.ConversationID),
		attribute.Bool("conversation.is_voice", chatReq.IsVoice),
	)

	baseURL := domain.NormalizeAPIURL(apiURL)
	url := baseURL + domain.ChatEndpoint

	c.logger.Debug("calling Home Mind API",
		zap.String("url", url),
		zap.String("user_id", chatReq.UserID),
		zap.String("conversation_id", chatReq.ConversationID),
		zap.Bool("is_voice", chatReq.IsVoice),
		zap.Bool("custom_prompt", chatReq.CustomPrompt != ""),
	)

	result, err := c.breakers.For(baseURL).Execute(func() (any, error) {
		return c.doChat(ctx, url, chatReq)
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		var apiErr *domain.ErrAPI
		if errors.As(err, &apiErr) {
			return nil, apiErr
		}
		return nil, &domain.ErrAPI{Err: err}
	}
	return result.(*domain.ChatResponse), nil
}

func (c *HomeMindClient) doChat(ctx context.Context, url string, chatReq *domain.ChatRequest) (*domain.ChatResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.chatTimeout)
	defer cancel()

	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, &domain.ErrAPI{Err: fmt.Errorf("marshal chat request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &domain.ErrAPI{Err: fmt.Errorf("create http request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.ErrAPI{Err: transportError(ctx, err, c.chatTimeout)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.ErrAPI{StatusCode: resp.StatusCode, Body: readErrorBody(resp.Body)}
	}

	var chatResp domain.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, &domain.ErrAPI{Err: fmt.Errorf("decode chat response: %w", err)}
	}
	return &chatResp, nil
}

func isJSONContentType(ct string) bool {
	mediaType, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// transportError names the timeout explicitly when the per-call deadline fired.
func transportError(ctx context.Context, err error, timeout time.Duration) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("timed out after %s: %w", timeout, err)
	}
	return err
}

func readErrorBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	return strings.TrimSpace(string(b))
}

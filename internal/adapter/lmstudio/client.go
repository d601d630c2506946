package lmstudio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/docker/go-units"
	"github.com/go-resty/resty/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/tidwall/gjson"

	"github.com/thushan/lmsgate/internal/config"
	"github.com/thushan/lmsgate/internal/core/constants"
	"github.com/thushan/lmsgate/internal/core/domain"
	"github.com/thushan/lmsgate/internal/core/ports"
	"github.com/thushan/lmsgate/internal/logger"
	"github.com/thushan/lmsgate/internal/util"
	"github.com/thushan/lmsgate/internal/version"
)

// Client is the shared outbound client for one LM Studio daemon. A single
// pooled transport is created up front and reused by every call; the base
// URL and timeouts are read from an atomic snapshot so a config reload
// takes effect on the next request.
type Client struct {
	http     *resty.Client
	stats    ports.StatsCollector
	logger   logger.StyledLogger
	settings atomic.Pointer[settings]
}

type settings struct {
	baseURL         string
	listTimeout     time.Duration
	infoTimeout     time.Duration
	loadTimeout     time.Duration
	maxResponseSize int64
}

// call describes one forwarded request
type call struct {
	payload any
	op      domain.Operation
	method  string
	path    string
	model   string
	timeout time.Duration
}

func newSettings(cfg config.LMStudioConfig) *settings {
	return &settings{
		baseURL:         cfg.BaseURL,
		listTimeout:     cfg.ListTimeout,
		infoTimeout:     cfg.InfoTimeout,
		loadTimeout:     cfg.LoadTimeout,
		maxResponseSize: cfg.MaxResponseSize,
	}
}

func NewClient(cfg config.LMStudioConfig, stats ports.StatsCollector, log logger.StyledLogger) *Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	rc := resty.New().
		SetTransport(transport).
		SetLogger(newRestyLogger(log)).
		SetHeader(constants.HeaderUserAgent, fmt.Sprintf("%s/%s", version.Name, version.Version)).
		SetHeader(constants.HeaderAccept, constants.ContentTypeJSON)
	rc.JSONMarshal = jsoniter.ConfigCompatibleWithStandardLibrary.Marshal
	rc.JSONUnmarshal = jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal

	c := &Client{
		http:   rc,
		stats:  stats,
		logger: log,
	}
	c.settings.Store(newSettings(cfg))
	return c
}

// UpdateConfig swaps the base URL and timeouts used by subsequent calls.
// Pool sizing is fixed for the lifetime of the client.
func (c *Client) UpdateConfig(cfg config.LMStudioConfig) {
	previous := c.settings.Swap(newSettings(cfg))
	if previous == nil || previous.baseURL != cfg.BaseURL {
		c.logger.InfoWithEndpoint("LM Studio endpoint updated", cfg.BaseURL)
	}
}

func (c *Client) BaseURL() string {
	return c.settings.Load().baseURL
}

// Close releases pooled connections, in-flight calls are unaffected
func (c *Client) Close() {
	c.http.GetClient().CloseIdleConnections()
}

func (c *Client) ListModels(ctx context.Context) (models []domain.ModelDescriptor, err error) {
	defer c.record(domain.OpListModels, time.Now(), &err)

	s := c.settings.Load()
	body, err := c.forward(ctx, s, call{
		op:      domain.OpListModels,
		method:  http.MethodGet,
		path:    constants.UpstreamPathModels,
		timeout: s.listTimeout,
	})
	if err != nil {
		return nil, err
	}

	models, err = parseModelList(body)
	if err != nil {
		return nil, domain.NewInternalError(domain.OpListModels, err)
	}
	return models, nil
}

func (c *Client) LoadModel(ctx context.Context, model string) (err error) {
	defer c.record(domain.OpLoadModel, time.Now(), &err)

	s := c.settings.Load()
	_, err = c.forward(ctx, s, call{
		op:      domain.OpLoadModel,
		method:  http.MethodPost,
		path:    constants.UpstreamPathModelsLoad,
		payload: domain.ModelLoadRequest{Model: model},
		model:   model,
		timeout: s.loadTimeout,
	})
	return err
}

func (c *Client) UnloadModel(ctx context.Context, model string) (err error) {
	defer c.record(domain.OpUnloadModel, time.Now(), &err)

	s := c.settings.Load()
	_, err = c.forward(ctx, s, call{
		op:      domain.OpUnloadModel,
		method:  http.MethodPost,
		path:    constants.UpstreamPathModelsUnload,
		payload: domain.ModelLoadRequest{Model: model},
		model:   model,
		timeout: s.loadTimeout,
	})
	return err
}

func (c *Client) ModelInfo(ctx context.Context, modelID string) (body []byte, err error) {
	defer c.record(domain.OpModelInfo, time.Now(), &err)

	s := c.settings.Load()
	body, err = c.forward(ctx, s, call{
		op:      domain.OpModelInfo,
		method:  http.MethodGet,
		path:    constants.UpstreamPathModels + "/" + util.EscapePathSegments(modelID),
		model:   modelID,
		timeout: s.infoTimeout,
	})
	if err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(body) {
		return nil, domain.NewInternalError(domain.OpModelInfo, errors.New("invalid JSON in model info response"))
	}
	return body, nil
}

// forward performs one bounded round trip and sorts any failure into the
// upstream, unreachable or internal tier. The timeout is layered on the
// caller's context so a disconnecting client aborts the outbound call.
func (c *Client) forward(ctx context.Context, s *settings, cl call) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, cl.timeout)
	defer cancel()

	target := util.ResolveURLPath(s.baseURL, cl.path)

	req := c.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true)
	if cl.payload != nil {
		req.SetHeader(constants.ContentTypeHeader, constants.ContentTypeJSON).
			SetBody(cl.payload)
	}

	resp, err := req.Execute(cl.method, target)
	if err != nil {
		return nil, domain.NewUnreachableError(cl.op, s.baseURL, cl.model, err)
	}

	raw := resp.RawBody()
	defer raw.Close()

	body, err := io.ReadAll(io.LimitReader(raw, s.maxResponseSize+1))
	if err != nil {
		// the connection dropped or the deadline hit mid-body
		return nil, domain.NewUnreachableError(cl.op, s.baseURL, cl.model, err)
	}
	if int64(len(body)) > s.maxResponseSize {
		return nil, domain.NewInternalError(cl.op,
			fmt.Errorf("response body exceeds %s", units.HumanSize(float64(s.maxResponseSize))))
	}

	c.logger.Debug("LM Studio responded",
		"op", cl.op,
		"method", cl.method,
		"url", target,
		"status", resp.StatusCode(),
		"bytes", len(body))

	if !resp.IsSuccess() {
		return nil, domain.NewUpstreamError(cl.op, resp.StatusCode(), string(body))
	}
	return body, nil
}

func (c *Client) record(op domain.Operation, start time.Time, err *error) {
	if c.stats == nil {
		return
	}
	c.stats.Record(ports.OperationEvent{
		Operation: op,
		Latency:   time.Since(start),
		Err:       *err,
	})
}

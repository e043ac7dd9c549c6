package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/config"
	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/logger"
	"github.com/SMExDigital/SMExDigital.VSTS.TestCaseCleanup/model"
)

var (
	_ ProjectLookup   = (*AzureDevOpsClient)(nil)
	_ WorkItemClient  = (*AzureDevOpsClient)(nil)
	_ TestCaseDeleter = (*AzureDevOpsClient)(nil)
	_ RequestMonitor  = (*AzureDevOpsClient)(nil)
)

// HTTPError is returned for any non-2xx response
type HTTPError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 512 {
		body = body[:512] + "..."
	}
	return fmt.Sprintf("%s %s returned %d: %s", e.Method, e.URL, e.StatusCode, body)
}

// retryable reports whether the request may succeed if sent again
func (e *HTTPError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// AzureDevOpsClient implements the tracker interfaces against the TFS/Azure DevOps REST API
type AzureDevOpsClient struct {
	httpClient *http.Client
	baseURL    *url.URL
	token      string
	apiVersion string
	timeout    time.Duration
	maxRetries int
	limiter    *rate.Limiter
	logger     logger.Logger
	newBackOff func() backoff.BackOff

	requestCount     int64      // Total requests made
	lastRequestCount int64      // Request count at last RPS calculation
	lastRPS          int64      // Last calculated RPS
	lastRPSTime      time.Time  // Time of last RPS calculation
	mu               sync.Mutex // Protects RPS calculation fields
}

func NewAzureDevOpsClient(cfg *config.ServerConfig, log logger.Logger) (*AzureDevOpsClient, error) {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	cfg.ApplyDefaults()

	base, err := url.Parse(cfg.URI)
	if err != nil {
		return nil, fmt.Errorf("parsing server uri: %w", err)
	}

	// default 0
	var limiter *rate.Limiter
	if cfg.MaxRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.MaxRPS), cfg.MaxRPS) // burst = MaxRPS
	}

	return &AzureDevOpsClient{
		httpClient:  &http.Client{},
		baseURL:     base,
		token:       cfg.PersonalAccessToken,
		apiVersion:  cfg.APIVersion,
		timeout:     time.Duration(cfg.TimeoutSeconds) * time.Second,
		maxRetries:  cfg.MaxRetries,
		limiter:     limiter,
		logger:      log.With("component", "tracker"),
		newBackOff:  defaultBackOff,
		lastRPSTime: time.Now(),
	}, nil
}

func defaultBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = 0 // bounded by maxRetries instead
	return bo
}

type projectResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GetProject looks a team project up by name
func (c *AzureDevOpsClient) GetProject(ctx context.Context, name string) (*model.Project, error) {
	var resp projectResponse
	err := c.do(ctx, http.MethodGet, []string{"_apis", "projects", name}, nil, nil, &resp)
	if err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("project %q: %w", name, model.ErrProjectNotFound)
		}
		return nil, fmt.Errorf("retrieving project %q: %w", name, err)
	}

	id, err := uuid.Parse(resp.ID)
	if err != nil {
		return nil, fmt.Errorf("parsing id of project %q: %w", name, err)
	}

	return &model.Project{ID: id, Name: resp.Name}, nil
}

type wiqlRequest struct {
	Query string `json:"query"`
}

type wiqlResponse struct {
	WorkItems []struct {
		ID int `json:"id"`
	} `json:"workItems"`
}

// QueryByText runs a WIQL query scoped to the project
func (c *AzureDevOpsClient) QueryByText(ctx context.Context, project model.Project, query string) ([]model.WorkItemRef, error) {
	var resp wiqlResponse
	err := c.do(ctx, http.MethodPost, []string{project.Name, "_apis", "wit", "wiql"}, nil, wiqlRequest{Query: query}, &resp)
	if err != nil {
		return nil, fmt.Errorf("running work item query: %w", err)
	}

	refs := make([]model.WorkItemRef, 0, len(resp.WorkItems))
	for _, wi := range resp.WorkItems {
		refs = append(refs, model.WorkItemRef{ID: wi.ID, ProjectID: project.ID})
	}
	return refs, nil
}

type workItemsResponse struct {
	Count int `json:"count"`
	Value []struct {
		ID     int                    `json:"id"`
		Fields map[string]interface{} `json:"fields"`
	} `json:"value"`
}

// GetDetails retrieves the requested fields of up to MaxIDsPerRequest work items
func (c *AzureDevOpsClient) GetDetails(ctx context.Context, ids []int, fields []string) ([]model.WorkItemDetail, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > MaxIDsPerRequest {
		return nil, fmt.Errorf("%d ids requested, at most %d allowed per request: %w", len(ids), MaxIDsPerRequest, model.ErrInvalidArgument)
	}

	idStrings := make([]string, len(ids))
	for i, id := range ids {
		idStrings[i] = strconv.Itoa(id)
	}
	query := url.Values{}
	query.Set("ids", strings.Join(idStrings, ","))
	if len(fields) > 0 {
		query.Set("fields", strings.Join(fields, ","))
	}

	var resp workItemsResponse
	if err := c.do(ctx, http.MethodGet, []string{"_apis", "wit", "workitems"}, query, nil, &resp); err != nil {
		return nil, fmt.Errorf("retrieving work items: %w", err)
	}

	details := make([]model.WorkItemDetail, 0, len(resp.Value))
	for _, wi := range resp.Value {
		details = append(details, toDetail(wi.ID, wi.Fields))
	}
	return details, nil
}

func toDetail(id int, fields map[string]interface{}) model.WorkItemDetail {
	if fields == nil {
		fields = map[string]interface{}{}
	}
	d := model.WorkItemDetail{ID: id, Fields: fields}
	if title, ok := fields[model.FieldTitle].(string); ok {
		d.Title = title
	}
	d.CreatedBy = identityName(fields[model.FieldCreatedBy])
	if raw, ok := fields[model.FieldCreatedDate].(string); ok {
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			d.CreatedDate = ts
		}
	}
	return d
}

// identityName handles both the legacy "Name <domain\user>" string and the identity object
func identityName(v interface{}) string {
	switch id := v.(type) {
	case string:
		return id
	case map[string]interface{}:
		for _, key := range []string{"displayName", "uniqueName"} {
			if s, ok := id[key].(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// DeleteByID permanently deletes a test case and its associated test data
func (c *AzureDevOpsClient) DeleteByID(ctx context.Context, projectID uuid.UUID, id int) error {
	path := []string{projectID.String(), "_apis", "testplan", "testcases", strconv.Itoa(id)}
	// A retried delete can find the test case already gone when an earlier attempt reached the server
	if err := c.retry(ctx, http.MethodDelete, path, nil, nil, nil, true); err != nil {
		return fmt.Errorf("deleting test case %d: %w", id, err)
	}
	return nil
}

// do sends one API call with rate limiting, per-attempt timeout and retries.
// out may be nil when the response body is not needed.
func (c *AzureDevOpsClient) do(ctx context.Context, method string, path []string, query url.Values, body interface{}, out interface{}) error {
	return c.retry(ctx, method, path, query, body, out, false)
}

// retry is do with goneOnRetry: a 404 on any attempt after the first counts as success
func (c *AzureDevOpsClient) retry(ctx context.Context, method string, path []string, query url.Values, body interface{}, out interface{}, goneOnRetry bool) error {
	endpoint := c.baseURL.JoinPath(path...)
	if query == nil {
		query = url.Values{}
	}
	query.Set("api-version", c.apiVersion)
	endpoint.RawQuery = query.Encode()
	target := endpoint.String()

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
	}

	attempts := c.maxRetries
	if attempts <= 0 {
		attempts = 1
	}
	bo := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), uint64(attempts-1)), ctx)

	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		if attempt > 1 {
			c.logger.Debug("Retrying %s %s (attempt %d/%d)", method, target, attempt, attempts)
		}
		err := c.send(ctx, method, target, payload, out)
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		var httpErr *HTTPError
		if !errors.As(err, &httpErr) {
			return err
		}
		if goneOnRetry && attempt > 1 && httpErr.StatusCode == http.StatusNotFound {
			c.logger.Debug("%s %s returned 404 on attempt %d, already applied", method, target, attempt)
			return nil
		}
		if !httpErr.retryable() {
			return backoff.Permanent(err)
		}
		return err
	}, bo)
}

func (c *AzureDevOpsClient) send(ctx context.Context, method, target string, payload []byte, out interface{}) error {
	// Rate limiting: wait for token before each attempt
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}
	}
	atomic.AddInt64(&c.requestCount, 1)

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(reqCtx, method, target, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.SetBasicAuth("", c.token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Verbose("%s %s", method, target)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, target, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &HTTPError{Method: method, URL: target, StatusCode: resp.StatusCode, Body: string(data)}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return backoff.Permanent(fmt.Errorf("parsing response of %s %s: %w", method, target, err))
	}
	return nil
}

// RequestCount returns the number of HTTP requests sent so far, retries included
func (c *AzureDevOpsClient) RequestCount() int64 {
	return atomic.LoadInt64(&c.requestCount)
}

// GetCurrentRPS calculates and returns the current requests per second rate
// This method is thread-safe and can be called periodically for monitoring
func (c *AzureDevOpsClient) GetCurrentRPS() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(c.lastRPSTime).Seconds()

	// Only recalculate if at least 1 second has passed
	if elapsed >= 1.0 {
		currentCount := atomic.LoadInt64(&c.requestCount)
		requestsDelta := currentCount - c.lastRequestCount

		c.lastRPS = int64(float64(requestsDelta) / elapsed)
		c.lastRequestCount = currentCount
		c.lastRPSTime = now
	}

	return c.lastRPS
}

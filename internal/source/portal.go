package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/RishiKendai/overlap/internal/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	portalTimeout      = 30 * time.Second
	portalFetchWorkers = 4
	// maxContentBytes caps a single submission download.
	maxContentBytes = 10 << 20
)

// ErrContentTooLarge is returned for responses larger than the download cap.
var ErrContentTooLarge = errors.New("response too large")

// PortalClient fetches submissions from the grading portal's HTTP API
type PortalClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewPortalClient creates a new portal API client
func NewPortalClient(baseURL, apiKey string) *PortalClient {
	return &PortalClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: portalTimeout,
		},
	}
}

// PortalError represents an error response from the portal API
type PortalError struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

// ListSubmissions returns the submission records of an assignment in portal order
func (c *PortalClient) ListSubmissions(ctx context.Context, assignmentID string) ([]*models.Submission, error) {
	endpoint := fmt.Sprintf("%s/api/assignments/%s/submissions", c.baseURL, url.PathEscape(assignmentID))

	body, err := c.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var submissions []*models.Submission
	if err := json.Unmarshal(body, &submissions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal submissions: %w", err)
	}

	return submissions, nil
}

// FetchContent downloads the uploaded file of one submission
func (c *PortalClient) FetchContent(ctx context.Context, submissionID string) ([]byte, error) {
	endpoint := fmt.Sprintf("%s/api/submissions/%s/content", c.baseURL, url.PathEscape(submissionID))
	return c.get(ctx, endpoint)
}

// Documents lists the assignment's submissions and downloads each one's
// content. A failed download marks only that document unavailable.
func (c *PortalClient) Documents(ctx context.Context, assignmentID string) ([]models.Document, error) {
	submissions, err := c.ListSubmissions(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	docs := make([]models.Document, len(submissions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(portalFetchWorkers)
	for i, sub := range submissions {
		i, sub := i, sub
		docs[i] = models.Document{ID: sub.ID, OwnerName: sub.StudentName}

		if sub.Content != "" {
			docs[i].RawText = sub.Content
			continue
		}

		g.Go(func() error {
			data, err := c.FetchContent(gctx, sub.ID)
			if err != nil {
				log.Warn().Err(err).Str("submissionId", sub.ID).Msg("Failed to fetch submission content")
				docs[i].LoadErr = fmt.Errorf("%w: %v", models.ErrInputUnavailable, err)
				return nil
			}
			docs[i].RawText = decodeContent(sub.ID, data)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return Dedupe(docs), nil
}

func (c *PortalClient) get(ctx context.Context, endpoint string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.apiKey != "" {
		httpReq.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxContentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(body) > maxContentBytes {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrContentTooLarge, endpoint, maxContentBytes)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("not found: %s", endpoint)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp PortalError
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
			return nil, fmt.Errorf("portal error (status %d): %s - %s", resp.StatusCode, errResp.Error, errResp.Details)
		}
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

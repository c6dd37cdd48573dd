package services

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"equityscope/backend-go/internal/models"
)

const bloggerService = "blogger"

var errMissingSummaryInput = errors.New("both recommendation and rationale are required")

// BloggerClient delegates summary writing to a remote blogger endpoint.
type BloggerClient struct {
	baseURL string
	hc      *http.Client
	retry   RetryPolicy
}

func NewBloggerClient(baseURL string, retry RetryPolicy) *BloggerClient {
	return &BloggerClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		hc:      &http.Client{Timeout: 30 * time.Second},
		retry:   retry,
	}
}

type bloggerRequest struct {
	Recommendation string `json:"recommendation"`
	Rationale      string `json:"rationale"`
}

type bloggerResponse struct {
	Summary string `json:"summary"`
}

func (c *BloggerClient) Summarize(ctx context.Context, rec models.Recommendation, _ models.FinancialSnapshot, _ models.RatioSet) (string, error) {
	if !rec.Verdict.Valid() || strings.TrimSpace(rec.Rationale) == "" {
		return "", fatalErr(bloggerService, errMissingSummaryInput)
	}
	body := bloggerRequest{Recommendation: string(rec.Verdict), Rationale: rec.Rationale}

	var out bloggerResponse
	err := c.retry.Do(ctx, func(callCtx context.Context) error {
		return doJSON(callCtx, c.hc, bloggerService, http.MethodPost, c.baseURL+"/blogger", nil, body, &out)
	})
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Summary) == "" {
		return "", fatalErr(bloggerService, errEmptyCompletion)
	}
	return strings.TrimSpace(out.Summary), nil
}

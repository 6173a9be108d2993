package exercisedb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/amaumene/exercisedb-sync/internal/config"
	"github.com/sirupsen/logrus"
)

// RawExercise is an exercise as returned by ExerciseDB
type RawExercise struct {
	ExerciseID       string   `json:"exerciseId"`
	Name             string   `json:"name"`
	GifURL           string   `json:"gifUrl"`
	TargetMuscles    []string `json:"targetMuscles"`
	BodyParts        []string `json:"bodyParts"`
	Equipments       []string `json:"equipments"`
	SecondaryMuscles []string `json:"secondaryMuscles"`
	Instructions     []string `json:"instructions"`
}

// Metadata describes the pagination state of a page
type Metadata struct {
	TotalExercises int    `json:"totalExercises"`
	TotalPages     int    `json:"totalPages"`
	CurrentPage    int    `json:"currentPage"`
	NextPage       string `json:"nextPage"` // Absolute URL, empty on the last page
}

// PageResponse is one page of a category listing
type PageResponse struct {
	Success  bool          `json:"success"`
	Metadata Metadata      `json:"metadata"`
	Data     []RawExercise `json:"data"`
}

// Client wraps direct ExerciseDB API HTTP calls
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClient creates a new ExerciseDB client
func NewClient(cfg *config.Config, logger *logrus.Logger) (*Client, error) {
	if cfg.ExerciseDBBaseURL == "" {
		return nil, fmt.Errorf("exercisedb base URL is required")
	}
	if _, err := url.Parse(cfg.ExerciseDBBaseURL); err != nil {
		return nil, fmt.Errorf("invalid exercisedb base URL: %w", err)
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.ExerciseDBBaseURL, "/"),
		apiKey:  cfg.ExerciseDBAPIKey,
		httpClient: &http.Client{
			Timeout: cfg.HTTPTimeout,
		},
		logger: logger,
	}, nil
}

// CategoryURL returns the URL of the first page of a category listing
func (c *Client) CategoryURL(category string) string {
	return fmt.Sprintf("%s/muscles/%s/exercises", c.baseURL, url.PathEscape(category))
}

// GetPage fetches and decodes a single listing page.
// Non-2xx answers are returned as *StatusError.
func (c *Client) GetPage(ctx context.Context, pageURL string) (*PageResponse, error) {
	c.logger.WithField("url", pageURL).Debug("Fetching ExerciseDB page")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "exercisedb-sync/1.0")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("exercisedb API request failed: %w", err)
	}
	defer resp.Body.Close()

	// Check response status
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			URL:        pageURL,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	var page PageResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"count":       len(page.Data),
		"total_pages": page.Metadata.TotalPages,
		"has_next":    page.Metadata.NextPage != "",
	}).Debug("ExerciseDB page fetched")

	return &page, nil
}

// Package testsupport provides an in-process ExerciseDB fake for tests.
package testsupport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// Malformed queued as a response writes a truncated JSON body with status 200
const Malformed = -1

// Exercise mirrors the ExerciseDB wire format
type Exercise struct {
	ExerciseID       string   `json:"exerciseId"`
	Name             string   `json:"name"`
	GifURL           string   `json:"gifUrl"`
	TargetMuscles    []string `json:"targetMuscles"`
	BodyParts        []string `json:"bodyParts"`
	Equipments       []string `json:"equipments"`
	SecondaryMuscles []string `json:"secondaryMuscles"`
	Instructions     []string `json:"instructions"`
}

// Request is one request received by the fake
type Request struct {
	Category string
	Page     int
}

type pageKey struct {
	category string
	page     int
}

// Upstream is a scripted ExerciseDB server. Categories that were never configured
// answer with a single empty page.
type Upstream struct {
	Server *httptest.Server

	mu         sync.Mutex
	categories map[string][]Exercise
	pageSize   map[string]int
	queued     map[pageKey][]int
	requests   []Request
}

// NewUpstream starts a fake server that is closed when the test ends
func NewUpstream(t *testing.T) *Upstream {
	t.Helper()
	u := &Upstream{
		categories: map[string][]Exercise{},
		pageSize:   map[string]int{},
		queued:     map[pageKey][]int{},
	}
	u.Server = httptest.NewServer(http.HandlerFunc(u.serve))
	t.Cleanup(u.Server.Close)
	return u
}

// BaseURL is the value to use as the ExerciseDB base URL
func (u *Upstream) BaseURL() string {
	return u.Server.URL
}

// SetCategory serves exercises for category, pageSize per page
func (u *Upstream) SetCategory(category string, exercises []Exercise, pageSize int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.categories[category] = exercises
	u.pageSize[category] = pageSize
}

// Queue makes the next requests for a category page answer with the given statuses
// (or Malformed) before the page is served normally
func (u *Upstream) Queue(category string, page int, statuses ...int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	key := pageKey{category, page}
	u.queued[key] = append(u.queued[key], statuses...)
}

// Requests returns the requests received so far
func (u *Upstream) Requests() []Request {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]Request, len(u.requests))
	copy(out, u.requests)
	return out
}

// RequestedCategories returns the distinct categories requested, in first-request order
func (u *Upstream) RequestedCategories() []string {
	seen := map[string]bool{}
	var out []string
	for _, req := range u.Requests() {
		if !seen[req.Category] {
			seen[req.Category] = true
			out = append(out, req.Category)
		}
	}
	return out
}

func (u *Upstream) serve(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/muscles/"), "/exercises")
	if path == r.URL.Path {
		http.NotFound(w, r)
		return
	}
	category := path
	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			http.Error(w, "bad page", http.StatusBadRequest)
			return
		}
		page = n
	}

	u.mu.Lock()
	u.requests = append(u.requests, Request{Category: category, Page: page})
	key := pageKey{category, page}
	status := 0
	if queue := u.queued[key]; len(queue) > 0 {
		status = queue[0]
		u.queued[key] = queue[1:]
	}
	exercises := u.categories[category]
	size := u.pageSize[category]
	u.mu.Unlock()

	switch {
	case status == Malformed:
		_, _ = w.Write([]byte(`{"data": [`))
		return
	case status != 0:
		http.Error(w, http.StatusText(status), status)
		return
	}

	if size <= 0 {
		size = 10
	}
	totalPages := (len(exercises) + size - 1) / size
	if totalPages == 0 {
		totalPages = 1
	}

	start := (page - 1) * size
	end := start + size
	if start > len(exercises) {
		start = len(exercises)
	}
	if end > len(exercises) {
		end = len(exercises)
	}

	var nextPage *string
	if page < totalPages {
		next := fmt.Sprintf("%s/muscles/%s/exercises?page=%d", u.Server.URL, url.PathEscape(category), page+1)
		nextPage = &next
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"metadata": map[string]any{
			"totalExercises": len(exercises),
			"totalPages":     totalPages,
			"currentPage":    page,
			"nextPage":       nextPage,
		},
		"data": exercises[start:end],
	})
}

// MakeExercises builds n exercises with IDs prefix-0 .. prefix-(n-1)
func MakeExercises(prefix string, n int, equipment ...string) []Exercise {
	if len(equipment) == 0 {
		equipment = []string{"body weight"}
	}
	out := make([]Exercise, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("%s-%d", prefix, i)
		out = append(out, Exercise{
			ExerciseID:       id,
			Name:             fmt.Sprintf("%s exercise %d", prefix, i),
			GifURL:           "https://static.exercisedb.dev/media/" + id + ".gif",
			TargetMuscles:    []string{prefix},
			BodyParts:        []string{"upper arms"},
			Equipments:       equipment,
			SecondaryMuscles: []string{"forearms"},
			Instructions:     []string{"Step:1 Get into position.", "Step:2 Move."},
		})
	}
	return out
}

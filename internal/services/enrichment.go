package services

import (
	"context"
	"encoding/json"
	"math/rand"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"

	"github.com/ndavydov/applicant-sync/internal/entities"
	"github.com/ndavydov/applicant-sync/internal/metrics"
)

type aiClient interface {
	GenerateResponse(ctx context.Context, request string) (string, error)
}

// RetryPolicy bounds enrichment retries: delay before attempt n is
// BaseDelay doubled n-1 times plus a random jitter up to MaxJitter.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxJitter   time.Duration
}

// Enricher asks the oracle for a summary, score, issues and follow-ups for
// one snapshot. The compact serialization of the document is the request body
// and the cache key, so identical documents never hit the oracle twice while
// the cache entry lives.
type Enricher struct {
	aiClient aiClient
	retry    RetryPolicy
	sleep    func(time.Duration)
	cache    *gocache.Cache
}

func NewEnricher(aiClient aiClient) *Enricher {
	return &Enricher{
		aiClient: aiClient,
		retry:    RetryPolicy{MaxAttempts: 3, BaseDelay: 2 * time.Second, MaxJitter: 500 * time.Millisecond},
		sleep:    time.Sleep,
		cache:    gocache.New(time.Hour, 2*time.Hour),
	}
}

func (e *Enricher) SetRetryPolicy(policy RetryPolicy) {
	e.retry = policy
}

// SetSleep replaces the inter-attempt delay, so tests run without waiting.
func (e *Enricher) SetSleep(sleep func(time.Duration)) {
	e.sleep = sleep
}

func (e *Enricher) Enrich(ctx context.Context, snapshot entities.Snapshot) (*entities.Enrichment, error) {

	compact, err := snapshot.Compact()
	if err != nil {
		return nil, err
	}

	if cached, found := e.cache.Get(compact); found {
		result := cached.(entities.Enrichment)
		return &result, nil
	}

	prompt := buildPrompt(compact)

	var lastErr error
	for attempt := 0; attempt < e.retry.MaxAttempts; attempt++ {
		if attempt > 0 {
			log.Warnf("enrichment attempt %d failed, retrying: %v", attempt, lastErr)
			e.sleep(e.backoff(attempt))
		}

		metrics.EnrichmentAttemptsCounter.Inc()
		start := time.Now()
		raw, err := e.aiClient.GenerateResponse(ctx, prompt)
		metrics.EnrichmentDuration.Observe(time.Since(start).Seconds())

		if err != nil {
			lastErr = err
			continue
		}

		result, err := parseEnrichment(raw)
		if err != nil {
			lastErr = err
			continue
		}

		e.cache.SetDefault(compact, *result)
		return result, nil
	}

	return nil, &EnrichmentError{Attempts: e.retry.MaxAttempts, Err: lastErr}
}

func (e *Enricher) backoff(attempt int) time.Duration {
	delay := e.retry.BaseDelay << (attempt - 1)
	if e.retry.MaxJitter > 0 {
		delay += time.Duration(rand.Int63n(int64(e.retry.MaxJitter)))
	}
	return delay
}

func buildPrompt(compactSnapshot string) string {
	return `You are a recruiting analyst.
Applicants have already been shortlisted based on their location, preferred rate, availability, and experience (or tier 1 company).

Applicant JSON:
` + compactSnapshot + `

Data units:
preferred_rate, min_rate are per hour
availability is in hours per week

Given this JSON applicant profile, do four things:
1. Provide a concise 75-word summary.
2. Rate overall candidate quality from 1-10 (higher is better).
3. List any data gaps or inconsistencies you notice.
4. Suggest up to three follow-up questions to clarify gaps.

Return exactly a json:
{
    "summary": "<text>",
    "score": <integer>,
    "issues": "<comma-separated list or 'None'>",
    "follow_ups": "<bullet list>"
}`
}

// parseEnrichment normalizes the oracle's output: trimmed strings, issues
// defaulting to "None", score coerced to an integer with 0 on failure.
func parseEnrichment(raw string) (*entities.Enrichment, error) {

	raw = stripCodeFence(strings.TrimSpace(raw))

	var payload struct {
		Summary   string `json:"summary"`
		Score     any    `json:"score"`
		Issues    string `json:"issues"`
		FollowUps string `json:"follow_ups"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, err
	}

	issues := strings.TrimSpace(payload.Issues)
	if issues == "" {
		issues = "None"
	}

	return &entities.Enrichment{
		Summary:   strings.TrimSpace(payload.Summary),
		Score:     coerceScore(payload.Score),
		Issues:    issues,
		FollowUps: strings.TrimSpace(payload.FollowUps),
	}, nil
}

// stripCodeFence drops a ```json ... ``` wrapper some models insist on.
func stripCodeFence(raw string) string {
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
	return strings.TrimSpace(raw)
}

func coerceScore(value any) int {
	switch v := value.(type) {
	case float64:
		return int(v)
	case string:
		if score, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return score
		}
	}
	return 0
}

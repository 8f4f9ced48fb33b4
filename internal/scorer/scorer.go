package scorer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/medguardian/backend/internal/models"
)

// Result is the outcome of one risk screening.
type Result struct {
	Positive    bool    `json:"positive"`
	RiskPercent float64 `json:"risk_percent"`
}

// Scorer evaluates a feature vector for one condition.
type Scorer interface {
	Score(ctx context.Context, condition models.Condition, features []float64) (Result, error)
}

// featureLengths pins the expected vector size per condition to the models
// the scoring service was trained with.
var featureLengths = map[models.Condition]int{
	models.ConditionHeart:    13,
	models.ConditionDiabetes: 6,
	models.ConditionKidney:   24,
}

// ValidateFeatures checks the vector length for the condition.
func ValidateFeatures(condition models.Condition, features []float64) error {
	want, ok := featureLengths[condition]
	if !ok {
		return fmt.Errorf("scorer: unknown condition %q", condition)
	}
	if len(features) != want {
		return fmt.Errorf("scorer: %s expects %d features, got %d", condition, want, len(features))
	}
	return nil
}

// Fallback is the deterministic default used when no model is reachable:
// not positive, zero risk. Screening must degrade, not fail.
func Fallback() Result {
	return Result{Positive: false, RiskPercent: 0}
}

// HTTPScorer calls an external model service.
type HTTPScorer struct {
	URL    string
	Client *http.Client
}

func NewHTTPScorer(url string) *HTTPScorer {
	return &HTTPScorer{
		URL:    url,
		Client: &http.Client{Timeout: 15 * time.Second},
	}
}

type scoreRequest struct {
	Condition string    `json:"condition"`
	Features  []float64 `json:"features"`
}

type scoreResponse struct {
	Positive    bool    `json:"positive"`
	RiskPercent float64 `json:"risk_percent"`
}

func (s *HTTPScorer) Score(ctx context.Context, condition models.Condition, features []float64) (Result, error) {
	if err := ValidateFeatures(condition, features); err != nil {
		return Result{}, err
	}
	if s.URL == "" {
		return Result{}, fmt.Errorf("scorer: no service URL configured")
	}

	payload, err := json.Marshal(scoreRequest{Condition: string(condition), Features: features})
	if err != nil {
		return Result{}, fmt.Errorf("scorer: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("scorer: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("scorer: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("scorer: status %d from model service", resp.StatusCode)
	}

	var parsed scoreResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Result{}, fmt.Errorf("scorer: decode response: %w", err)
	}
	if parsed.RiskPercent < 0 {
		parsed.RiskPercent = 0
	}
	if parsed.RiskPercent > 100 {
		parsed.RiskPercent = 100
	}
	return Result{Positive: parsed.Positive, RiskPercent: parsed.RiskPercent}, nil
}

// SafeScore runs the scorer and degrades to the Fallback result on any
// failure other than a bad feature vector, which stays the caller's error.
func SafeScore(ctx context.Context, s Scorer, condition models.Condition, features []float64) (Result, error) {
	if err := ValidateFeatures(condition, features); err != nil {
		return Result{}, err
	}
	if s == nil {
		return Fallback(), nil
	}
	res, err := s.Score(ctx, condition, features)
	if err != nil {
		log.Printf("scorer: %s scoring degraded to default: %v", condition, err)
		return Fallback(), nil
	}
	return res, nil
}

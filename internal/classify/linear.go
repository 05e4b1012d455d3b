package classify

import (
	"encoding/json"
	"fmt"
	"os"
)

// LinearModel is a fitted linear classifier: one weight row per class, or a
// single row for a binary problem.
type LinearModel struct {
	Classes   []string    `json:"classes"`
	Coef      [][]float64 `json:"coef"`
	Intercept []float64   `json:"intercept"`
}

// LoadLinearModel reads a classifier JSON export from path.
func LoadLinearModel(path string) (*LinearModel, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read classifier: %w", err)
	}
	var m LinearModel
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%w: classifier %s: %v", ErrInvalidModel, path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks that classes, weights and intercepts line up.
func (m *LinearModel) Validate() error {
	switch {
	case len(m.Classes) < 2:
		return fmt.Errorf("%w: need at least 2 classes, got %d", ErrInvalidModel, len(m.Classes))
	case len(m.Coef) == 0:
		return fmt.Errorf("%w: no coefficients", ErrInvalidModel)
	case len(m.Coef) == 1 && len(m.Classes) != 2:
		return fmt.Errorf("%w: one coefficient row needs 2 classes, got %d", ErrInvalidModel, len(m.Classes))
	case len(m.Coef) > 1 && len(m.Coef) != len(m.Classes):
		return fmt.Errorf("%w: %d coefficient rows for %d classes", ErrInvalidModel, len(m.Coef), len(m.Classes))
	case len(m.Intercept) != len(m.Coef):
		return fmt.Errorf("%w: %d intercepts for %d coefficient rows", ErrInvalidModel, len(m.Intercept), len(m.Coef))
	}
	width := len(m.Coef[0])
	for i, row := range m.Coef {
		if len(row) != width {
			return fmt.Errorf("%w: coefficient row %d has %d weights, want %d", ErrInvalidModel, i, len(row), width)
		}
	}
	return nil
}

// Features is the expected input dimension.
func (m *LinearModel) Features() int {
	if len(m.Coef) == 0 {
		return 0
	}
	return len(m.Coef[0])
}

// Decision returns the raw score of every coefficient row for x.
func (m *LinearModel) Decision(x Vector) []float64 {
	scores := make([]float64, len(m.Coef))
	for i, row := range m.Coef {
		s := m.Intercept[i]
		for idx, val := range x {
			if idx < len(row) {
				s += row[idx] * val
			}
		}
		scores[i] = s
	}
	return scores
}

// Predict returns the label for x. Binary models pick Classes[1] on a positive
// score; multiclass models pick the first highest-scoring row.
func (m *LinearModel) Predict(x Vector) string {
	scores := m.Decision(x)
	if len(scores) == 1 {
		if scores[0] > 0 {
			return m.Classes[1]
		}
		return m.Classes[0]
	}
	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	return m.Classes[best]
}

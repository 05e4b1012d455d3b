package classify

import (
	"errors"
	"testing"
)

func TestLinearModelBinary(t *testing.T) {
	m := &LinearModel{
		Classes:   []string{"Analyst", "Engineer"},
		Coef:      [][]float64{{-1, 1}},
		Intercept: []float64{0},
	}
	if err := m.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got := m.Predict(Vector{1: 1}); got != "Engineer" {
		t.Fatalf("positive score: got %q", got)
	}
	if got := m.Predict(Vector{0: 1}); got != "Analyst" {
		t.Fatalf("negative score: got %q", got)
	}
	if got := m.Predict(Vector{}); got != "Analyst" {
		t.Fatalf("zero score: got %q", got)
	}
}

func TestLinearModelArgmax(t *testing.T) {
	m := &LinearModel{
		Classes:   []string{"Designer", "Engineer", "Manager"},
		Coef:      [][]float64{{1, 0}, {0, 1}, {0.5, 0.5}},
		Intercept: []float64{0, 0, 0.1},
	}
	if got := m.Predict(Vector{1: 1}); got != "Engineer" {
		t.Fatalf("got %q", got)
	}
	if got := m.Predict(Vector{}); got != "Manager" {
		t.Fatalf("intercept only: got %q", got)
	}
}

func TestLinearModelValidate(t *testing.T) {
	tests := []struct {
		name string
		m    LinearModel
	}{
		{name: "one class", m: LinearModel{Classes: []string{"a"}, Coef: [][]float64{{1}}, Intercept: []float64{0}}},
		{name: "no coef", m: LinearModel{Classes: []string{"a", "b"}}},
		{name: "single row three classes", m: LinearModel{Classes: []string{"a", "b", "c"}, Coef: [][]float64{{1}}, Intercept: []float64{0}}},
		{name: "row count", m: LinearModel{Classes: []string{"a", "b", "c"}, Coef: [][]float64{{1}, {1}}, Intercept: []float64{0, 0}}},
		{name: "intercepts", m: LinearModel{Classes: []string{"a", "b"}, Coef: [][]float64{{1}, {1}}, Intercept: []float64{0}}},
		{name: "ragged", m: LinearModel{Classes: []string{"a", "b"}, Coef: [][]float64{{1, 2}, {1}}, Intercept: []float64{0, 0}}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.m.Validate(); !errors.Is(err, ErrInvalidModel) {
				t.Fatalf("expected ErrInvalidModel, got %v", err)
			}
		})
	}
}

package classify

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrInvalidModel is returned when serialized model parameters cannot be used.
var ErrInvalidModel = errors.New("invalid model")

// Classifier maps combined job context + resume text to a role label.
type Classifier interface {
	Predict(ctx context.Context, text string) (string, error)
}

const (
	manifestFile          = "manifest.yaml"
	defaultVectorizerFile = "tfidf_vectorizer.json"
	defaultClassifierFile = "role_classifier.json"
)

// Manifest names the artifacts inside a model directory.
type Manifest struct {
	Name       string `yaml:"name"`
	Version    string `yaml:"version"`
	Vectorizer string `yaml:"vectorizer"`
	Classifier string `yaml:"classifier"`
}

// Model is a loaded vectorizer + linear classifier pair. It is immutable after
// Load and safe for concurrent Predict calls.
type Model struct {
	manifest   Manifest
	vectorizer *Vectorizer
	linear     *LinearModel
}

// Load reads manifest.yaml (optional) and the two artifacts it names from dir.
func Load(dir string) (*Model, error) {
	manifest, err := readManifest(dir)
	if err != nil {
		return nil, err
	}

	vec, err := LoadVectorizer(filepath.Join(dir, manifest.Vectorizer))
	if err != nil {
		return nil, err
	}
	lin, err := LoadLinearModel(filepath.Join(dir, manifest.Classifier))
	if err != nil {
		return nil, err
	}
	return New(manifest, vec, lin)
}

// New pairs a vectorizer with a classifier after checking their dimensions agree.
func New(manifest Manifest, vec *Vectorizer, lin *LinearModel) (*Model, error) {
	if vec == nil || lin == nil {
		return nil, fmt.Errorf("%w: vectorizer and classifier are required", ErrInvalidModel)
	}
	if lin.Features() != vec.Features() {
		return nil, fmt.Errorf("%w: classifier expects %d features, vectorizer produces %d",
			ErrInvalidModel, lin.Features(), vec.Features())
	}
	return &Model{manifest: manifest, vectorizer: vec, linear: lin}, nil
}

// Predict vectorizes text and returns the predicted label.
func (m *Model) Predict(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return m.linear.Predict(m.vectorizer.Transform(text)), nil
}

// Manifest returns the manifest the model was loaded with.
func (m *Model) Manifest() Manifest {
	return m.manifest
}

// Classes lists the labels the model can return.
func (m *Model) Classes() []string {
	out := make([]string, len(m.linear.Classes))
	copy(out, m.linear.Classes)
	return out
}

func readManifest(dir string) (Manifest, error) {
	manifest := Manifest{}
	raw, err := os.ReadFile(filepath.Join(dir, manifestFile))
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	default:
		if err := yaml.Unmarshal(raw, &manifest); err != nil {
			return Manifest{}, fmt.Errorf("%w: manifest: %v", ErrInvalidModel, err)
		}
	}
	if manifest.Vectorizer == "" {
		manifest.Vectorizer = defaultVectorizerFile
	}
	if manifest.Classifier == "" {
		manifest.Classifier = defaultClassifierFile
	}
	return manifest, nil
}

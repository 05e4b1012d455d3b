package analysis

import (
	"context"
	"errors"
	"sync"
	"testing"

	"resume-roles/internal/extract"
	"resume-roles/internal/queue"
	"resume-roles/internal/results"
	local "resume-roles/internal/shared/storage/object/local"
)

type fakeExtractor struct {
	texts map[string]string
	fail  map[string]bool
}

func (f *fakeExtractor) Extract(ctx context.Context, data []byte, fileName string) (string, error) {
	if f.fail[fileName] {
		return "", extract.ErrExtraction
	}
	if text, ok := f.texts[fileName]; ok {
		return text, nil
	}
	return string(data), nil
}

type fakeClassifier struct {
	mu     sync.Mutex
	inputs []string
	label  func(text string) (string, error)
}

func (f *fakeClassifier) Predict(ctx context.Context, text string) (string, error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, text)
	f.mu.Unlock()
	if f.label != nil {
		return f.label(text)
	}
	return "Engineer", nil
}

func (f *fakeClassifier) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.inputs))
	copy(out, f.inputs)
	return out
}

type fakeNotifier struct {
	msgs []queue.Message
	err  error
}

func (f *fakeNotifier) Send(ctx context.Context, msg queue.Message) error {
	f.msgs = append(f.msgs, msg)
	return f.err
}

var errModel = errors.New("model exploded")

type testEnv struct {
	dir        string
	store      *local.Store
	extractor  *fakeExtractor
	classifier *fakeClassifier
	repo       *results.MemoryRepo
	notifier   *fakeNotifier
	svc        *Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	env := &testEnv{
		dir:        dir,
		store:      local.New(dir),
		extractor:  &fakeExtractor{texts: map[string]string{}, fail: map[string]bool{}},
		classifier: &fakeClassifier{},
		repo:       results.NewMemoryRepo(),
		notifier:   &fakeNotifier{},
	}
	env.svc = &Service{
		Store:      env.store,
		Extractor:  env.extractor,
		Classifier: env.classifier,
		Results:    env.repo,
		Notifier:   env.notifier,
	}
	return env
}

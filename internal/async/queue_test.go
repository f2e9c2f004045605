package async

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/finbeam/extractor/internal/common"
	"github.com/finbeam/extractor/internal/fx"
	"github.com/finbeam/extractor/internal/llm"
	"github.com/finbeam/extractor/internal/ocr"
	"github.com/finbeam/extractor/internal/pipeline"
	"github.com/finbeam/extractor/internal/validate"
	"github.com/finbeam/extractor/internal/vendors"
)

type nullGenerator struct{}

func (nullGenerator) Generate(context.Context, []llm.Message) (string, error) {
	return "", errors.New("no backend in tests")
}

type nullRecognizer struct{}

func (nullRecognizer) Recognize(context.Context, []byte, ocr.SegMode) (string, float64, error) {
	return "", 0, errors.New("no engine in tests")
}
func (nullRecognizer) Close() error { return nil }

type nullRates struct{}

func (nullRates) FetchRates(context.Context, string) (*fx.RateTable, error) {
	return nil, errors.New("no rates in tests")
}

func testFactory() (*pipeline.Processor, error) {
	llmCfg := common.LLMConfig{MaxAttempts: 1, BackoffBase: time.Millisecond, AttemptTimeout: time.Second, TruncateBudget: 4000}
	fxCfg := common.FXConfig{Provider: "openerapi", CacheTTL: time.Hour, Timeout: time.Second}
	return pipeline.NewProcessor(
		ocr.NewAcquirer(common.OCRConfig{}, nullRecognizer{}, nil),
		llm.NewOrchestrator(nullGenerator{}, llmCfg, nil),
		validate.NewGate(nil),
		vendors.NewResolver(nil),
		fx.NewConverter(fxCfg, nullRates{}, nil),
		nil,
	), nil
}

func TestQueueProcessesAllJobsBeforeShutdown(t *testing.T) {
	dir := t.TempDir()
	paths := make([]string, 5)
	for i := range paths {
		paths[i] = filepath.Join(dir, filepath.Base(dir)+string(rune('a'+i))+".txt")
		if err := os.WriteFile(paths[i], []byte("Total: $10.00\n"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	var mu sync.Mutex
	done := map[string]bool{}
	sink := func(job Job, result *pipeline.Result, err error) {
		mu.Lock()
		defer mu.Unlock()
		done[job.Path] = err == nil && result != nil
	}

	q := NewPipelineQueue(testFactory, "USD", sink, nil, WithWorkers(2))
	for _, p := range paths {
		if err := q.Enqueue(context.Background(), Job{Path: p, TenantID: uuid.New(), SubmittedAt: time.Now()}); err != nil {
			t.Fatal(err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	mu.Lock()
	defer mu.Unlock()
	if len(done) != len(paths) {
		t.Fatalf("sink saw %d jobs, want %d", len(done), len(paths))
	}
	for p, ok := range done {
		if !ok {
			t.Errorf("job %s did not produce a result", p)
		}
	}
}

func TestQueueReportsUnreadableFile(t *testing.T) {
	var mu sync.Mutex
	var sawErr error
	sink := func(_ Job, _ *pipeline.Result, err error) {
		mu.Lock()
		defer mu.Unlock()
		sawErr = err
	}

	q := NewPipelineQueue(testFactory, "USD", sink, nil, WithWorkers(1))
	_ = q.Enqueue(context.Background(), Job{Path: "/does/not/exist.pdf", SubmittedAt: time.Now()})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	mu.Lock()
	defer mu.Unlock()
	if sawErr == nil {
		t.Error("sink error = nil, want read failure")
	}
}

func TestQueueEnqueueAfterShutdownIsNoop(t *testing.T) {
	q := NewPipelineQueue(testFactory, "USD", func(Job, *pipeline.Result, error) {}, nil, WithWorkers(1))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	q.Shutdown(ctx)

	// Must not panic on the closed channel.
	if err := q.Enqueue(context.Background(), Job{Path: "late.pdf"}); err != nil {
		t.Errorf("Enqueue after shutdown = %v, want nil", err)
	}
}

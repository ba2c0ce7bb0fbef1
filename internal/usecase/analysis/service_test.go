package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/propfinder/internal/domain"
	"github.com/kailas-cloud/propfinder/internal/domain/query"
)

type mockCompleter struct {
	reply  string
	err    error
	delay  time.Duration
	system string
	user   string
	calls  int
}

func (m *mockCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	m.calls++
	m.system, m.user = system, user
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return m.reply, m.err
}

func TestSummarize_Success(t *testing.T) {
	llm := &mockCompleter{reply: "Hay 4 propiedades, principalmente casas en Cancún."}
	svc := New(llm, time.Second, zap.NewNop())

	got, err := svc.Summarize(context.Background(), "casa con alberca", query.Spanish, sampleResults())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != llm.reply {
		t.Errorf("got %q", got)
	}
	if llm.system != systemPrompt || llm.user == "" {
		t.Error("prompts not forwarded")
	}
}

func TestSummarize_EmptyResults(t *testing.T) {
	llm := &mockCompleter{reply: "x"}
	got, err := New(llm, time.Second, zap.NewNop()).Summarize(context.Background(), "q", query.English, nil)
	if err != nil || got != "" {
		t.Fatalf("got %q, %v; want empty, nil", got, err)
	}
	if llm.calls != 0 {
		t.Error("model must not be called for empty results")
	}
}

func TestSummarize_Timeout(t *testing.T) {
	llm := &mockCompleter{reply: "late", delay: time.Second}
	svc := New(llm, 20*time.Millisecond, zap.NewNop())

	_, err := svc.Summarize(context.Background(), "q", query.Spanish, sampleResults())
	if !errors.Is(err, domain.ErrAnalysisUnavailable) || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected unavailable + deadline, got %v", err)
	}
}

func TestSummarize_Error(t *testing.T) {
	llm := &mockCompleter{err: errors.New("overloaded")}
	_, err := New(llm, time.Second, zap.NewNop()).Summarize(context.Background(), "q", query.Spanish, sampleResults())

	var stageErr *domain.StageError
	if !errors.As(err, &stageErr) || stageErr.Stage != "analysis" {
		t.Fatalf("expected analysis StageError, got %v", err)
	}
}

func TestSummarize_Disabled(t *testing.T) {
	svc := New(nil, 0, zap.NewNop())
	if svc.Enabled() {
		t.Fatal("nil completer must disable analysis")
	}
	if svc.timeout != DefaultTimeout {
		t.Errorf("timeout = %v", svc.timeout)
	}
	if _, err := svc.Summarize(context.Background(), "q", query.Spanish, sampleResults()); !errors.Is(err, domain.ErrAnalysisUnavailable) {
		t.Fatalf("expected ErrAnalysisUnavailable, got %v", err)
	}
	var nilSvc *Service
	if nilSvc.Enabled() {
		t.Error("nil service must report disabled")
	}
}

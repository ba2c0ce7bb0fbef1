package app

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/propfinder/internal/config"
	"github.com/kailas-cloud/propfinder/internal/domain"
	"github.com/kailas-cloud/propfinder/internal/domain/query"
	embeddinguc "github.com/kailas-cloud/propfinder/internal/usecase/embedding"
)

func TestLoadDictionary(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		d, err := LoadDictionary("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(d.Places) != len(query.DefaultDictionary().Places) {
			t.Error("default dictionary altered")
		}
	})

	t.Run("extended", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "dict.yaml")
		data := []byte("places:\n  - name: Sayulita\n    kind: city\n    region: Nayarit\n")
		if err := os.WriteFile(path, data, 0o600); err != nil {
			t.Fatal(err)
		}
		d, err := LoadDictionary(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		ex := query.NewExtractor(d).ExtractText("casa en Sayulita")
		if ex.Filters.City != "Sayulita" {
			t.Errorf("city = %q", ex.Filters.City)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadDictionary(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Error("expected error")
		}
	})
}

func TestBuildEmbedder_Chain(t *testing.T) {
	cfg := &config.Config{Embedding: config.EmbeddingConfig{Model: "m", Dimensions: 8}}
	cfg.ApplyDefaults()

	if _, ok := BuildEmbedder(cfg, nil, zap.NewNop()).(*embeddinguc.GuardedEmbedder); !ok {
		t.Error("without instruction the guarded embedder is outermost")
	}

	cfg.Embedding.QueryInstruction = "query: "
	if _, ok := BuildEmbedder(cfg, nil, zap.NewNop()).(*domain.InstructionEmbedder); !ok {
		t.Error("instruction embedder must be outermost")
	}
}

func TestBuildAnalyst_DisabledWithoutModel(t *testing.T) {
	cfg := &config.Config{}
	if a := BuildAnalyst(cfg, zap.NewNop()); a != nil {
		t.Errorf("analyst = %v, want nil interface", a)
	}

	cfg.Analysis.Model = "gpt-4o-mini"
	a := BuildAnalyst(cfg, zap.NewNop())
	if a == nil || !a.Enabled() {
		t.Error("analyst should be enabled")
	}
}

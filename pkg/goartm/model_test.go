package goartm

import (
	"context"
	"errors"
	"testing"

	"goartm/internal/config"
	"goartm/internal/engine/enginetest"
	"goartm/internal/model"
)

func TestNewValidation(t *testing.T) {
	ctx := context.Background()
	if _, err := New(ctx, nil, Options{}); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("nil engine: got %v", err)
	}
	stub := &enginetest.Stub{}
	if _, err := New(ctx, stub, Options{Processors: -1}); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("negative processors: got %v", err)
	}
	if _, err := New(ctx, stub, Options{Topics: -3}); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("negative topics: got %v", err)
	}
	if _, err := New(ctx, stub, Options{TopicNames: []string{"a", "a"}}); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("duplicate topic names: got %v", err)
	}
}

func TestNewDefaultsAndReconfigure(t *testing.T) {
	stub := &enginetest.Stub{}
	m, err := New(context.Background(), stub, Options{Processors: 4})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if m.Topics() != DefaultTopics {
		t.Fatalf("topics: got %d want %d", m.Topics(), DefaultTopics)
	}
	if m.DocumentPasses() != DefaultDocumentPasses {
		t.Fatalf("document passes: got %d", m.DocumentPasses())
	}
	if !m.CacheTheta() {
		t.Fatal("cache theta should default to true")
	}
	if len(stub.ReconfigureCalls) != 1 {
		t.Fatalf("reconfigure calls: got %d", len(stub.ReconfigureCalls))
	}
	if got := stub.ReconfigureCalls[0]; got.Processors != 4 || !got.CacheTheta {
		t.Fatalf("unexpected master config %+v", got)
	}
}

func TestTopicNamesWinOverTopicCount(t *testing.T) {
	m, err := New(context.Background(), &enginetest.Stub{}, Options{
		Topics:     7,
		TopicNames: []string{"sport", "science"},
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if m.Topics() != 2 {
		t.Fatalf("topics: got %d want 2", m.Topics())
	}
}

func TestSetters(t *testing.T) {
	ctx := context.Background()
	stub := &enginetest.Stub{}
	m, err := New(ctx, stub, Options{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if err := m.SetProcessors(ctx, 0); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("zero processors: got %v", err)
	}
	if err := m.SetProcessors(ctx, 8); err != nil {
		t.Fatalf("set processors: %v", err)
	}
	if m.Processors() != 8 || len(stub.ReconfigureCalls) != 2 {
		t.Fatalf("processors not applied: %d, reconfigures %d", m.Processors(), len(stub.ReconfigureCalls))
	}

	if err := m.SetDocumentPasses(-1); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("negative passes: got %v", err)
	}
	if err := m.SetDocumentPasses(3); err != nil {
		t.Fatalf("set passes: %v", err)
	}

	if err := m.SetTopicNames([]string{"a", "b", "c"}); err != nil {
		t.Fatalf("set topic names: %v", err)
	}
	if m.Topics() != 3 {
		t.Fatalf("topic count should follow names, got %d", m.Topics())
	}
	if err := m.SetTopics(5); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("conflicting topic count: got %v", err)
	}
	if err := m.SetTopics(3); err != nil {
		t.Fatalf("matching topic count: %v", err)
	}

	if err := m.SetCacheTheta(ctx, false); err != nil {
		t.Fatalf("set cache theta: %v", err)
	}
	if m.CacheTheta() {
		t.Fatal("cache theta should be off")
	}
}

func TestRegularizerAndScoreCollections(t *testing.T) {
	ctx := context.Background()
	stub := &enginetest.Stub{}
	m, err := New(ctx, stub, Options{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if err := m.AddRegularizer(ctx, model.Regularizer{Kind: model.RegularizerPhi}); !errors.Is(err, ErrMissingArgument) {
		t.Fatalf("nameless regularizer: got %v", err)
	}
	if err := m.AddRegularizer(ctx, model.Regularizer{Name: "r", Kind: "bogus"}); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("bad kind: got %v", err)
	}
	if err := m.AddRegularizer(ctx, model.Regularizer{Name: "smooth", Kind: model.RegularizerPhi, Tau: 0.1}); err != nil {
		t.Fatalf("add regularizer: %v", err)
	}
	if err := m.AddRegularizer(ctx, model.Regularizer{Name: "sparse", Kind: model.RegularizerTheta, Tau: -0.5}); err != nil {
		t.Fatalf("add regularizer: %v", err)
	}
	if len(stub.CreatedRegs) != 2 {
		t.Fatalf("created regularizers: %d", len(stub.CreatedRegs))
	}
	regs := m.Regularizers()
	if len(regs) != 2 || regs[0].Name != "smooth" || regs[1].Name != "sparse" {
		t.Fatalf("unexpected regularizer list %+v", regs)
	}
	if err := m.RemoveRegularizer(ctx, "smooth"); err != nil {
		t.Fatalf("remove regularizer: %v", err)
	}
	if len(m.Regularizers()) != 1 {
		t.Fatal("regularizer was not removed")
	}
	if err := m.RemoveRegularizer(ctx, "absent"); err != nil {
		t.Fatalf("removing an unknown regularizer should be a no-op, got %v", err)
	}

	if err := m.AddScore(ctx, model.Score{Name: "perp", Kind: model.ScorePerplexity}); err != nil {
		t.Fatalf("add score: %v", err)
	}
	if err := m.AddScore(ctx, model.Score{Name: "bad", Kind: "nope"}); !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("bad score kind: got %v", err)
	}
	if got := m.Scores(); len(got) != 1 || got[0].Name != "perp" {
		t.Fatalf("unexpected scores %+v", got)
	}
	if err := m.RemoveScore(ctx, "perp"); err != nil {
		t.Fatalf("remove score: %v", err)
	}
	if len(stub.DisposedScores) != 1 {
		t.Fatal("score was not disposed in the engine")
	}
}

func TestClosedSessionRejectsOperations(t *testing.T) {
	ctx := context.Background()
	stub := &enginetest.Stub{}
	m, err := New(ctx, stub, Options{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if stub.CloseCount != 1 {
		t.Fatalf("engine closed %d times", stub.CloseCount)
	}
	if err := m.SetProcessors(ctx, 2); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("set processors after close: got %v", err)
	}
	if err := m.FitOffline(ctx, FitOfflineOptions{DataPath: t.TempDir()}); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("fit after close: got %v", err)
	}
	if _, err := m.GetPhi(ctx, PhiOptions{}); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("get phi after close: got %v", err)
	}
}

func TestOperationsRequireInitialization(t *testing.T) {
	ctx := context.Background()
	m, err := New(ctx, &enginetest.Stub{}, Options{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := m.GetPhi(ctx, PhiOptions{}); !errors.Is(err, ErrModelNotInitialized) {
		t.Fatalf("get phi: got %v", err)
	}
	if err := m.Save(ctx, "model.bin"); !errors.Is(err, ErrModelNotInitialized) {
		t.Fatalf("save: got %v", err)
	}
	if _, err := m.Transform(ctx, TransformOptions{DataPath: t.TempDir()}); !errors.Is(err, ErrModelNotInitialized) {
		t.Fatalf("transform: got %v", err)
	}
}

func TestInitializeRequiresASource(t *testing.T) {
	ctx := context.Background()
	m, err := New(ctx, &enginetest.Stub{}, Options{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := m.Initialize(ctx, InitializeOptions{}); !errors.Is(err, ErrMissingArgument) {
		t.Fatalf("empty initialize: got %v", err)
	}
}

func TestInitializeAdoptsEngineTopicNames(t *testing.T) {
	ctx := context.Background()
	stub := &enginetest.Stub{Tokens: []string{"alpha", "beta"}}
	m, err := New(ctx, stub, Options{Topics: 3})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := m.Initialize(ctx, InitializeOptions{DictionaryName: "dict"}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if !m.Initialized() {
		t.Fatal("model should be initialized")
	}
	want := []string{"topic_0", "topic_1", "topic_2"}
	got := m.TopicNames()
	if len(got) != len(want) {
		t.Fatalf("topic names: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("topic names: got %v want %v", got, want)
		}
	}
	if stub.InitCalls[0].DictionaryName != "dict" {
		t.Fatalf("unexpected init request %+v", stub.InitCalls[0])
	}
}

func TestInitializeBatchesPathWinsOverDictionary(t *testing.T) {
	ctx := context.Background()
	stub := &enginetest.Stub{}
	m, err := New(ctx, stub, Options{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := m.Initialize(ctx, InitializeOptions{DataPath: "/data/batches", DictionaryName: "dict"}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	req := stub.InitCalls[0]
	if req.BatchesPath != "/data/batches" || req.DictionaryName != "" {
		t.Fatalf("batches path should win: %+v", req)
	}
}

func TestDictionaryArgumentValidation(t *testing.T) {
	ctx := context.Background()
	m, err := New(ctx, &enginetest.Stub{}, Options{})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := m.LoadDictionary(ctx, "", "/some/path"); !errors.Is(err, ErrMissingArgument) {
		t.Fatalf("empty name: got %v", err)
	}
	if err := m.LoadDictionary(ctx, "dict", ""); !errors.Is(err, ErrMissingArgument) {
		t.Fatalf("empty path: got %v", err)
	}
	if err := m.RemoveDictionary(ctx, ""); !errors.Is(err, ErrMissingArgument) {
		t.Fatalf("empty remove: got %v", err)
	}
}

func TestNewFromConfig(t *testing.T) {
	ctx := context.Background()
	stub := &enginetest.Stub{}
	cfg, err := config.Parse([]byte(`
topics: 4
document_passes: 2
regularizers:
  - name: smooth_phi
    kind: phi
    tau: 0.2
scores:
  - name: perp
    kind: perplexity
store:
  kind: memory
`))
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	m, err := NewFromConfig(ctx, stub, cfg)
	if err != nil {
		t.Fatalf("new from config: %v", err)
	}
	if m.Topics() != 4 || m.DocumentPasses() != 2 {
		t.Fatalf("topology not applied: topics=%d passes=%d", m.Topics(), m.DocumentPasses())
	}
	if len(stub.CreatedRegs) != 1 || stub.CreatedRegs[0].Name != "smooth_phi" {
		t.Fatalf("regularizers not registered: %+v", stub.CreatedRegs)
	}
	if len(stub.CreatedScores) != 1 || stub.CreatedScores[0].Kind != model.ScorePerplexity {
		t.Fatalf("scores not registered: %+v", stub.CreatedScores)
	}
}

package chain

import (
	"context"
	"testing"
	"time"
)

type fakeHistory struct {
	entry *HistoryEntry
}

func (f *fakeHistory) LatestExchange(ctx context.Context, profileID *string, recipeID string) (*HistoryEntry, error) {
	return f.entry, nil
}

type fakeSender struct {
	calls int
	entry *HistoryEntry
}

func (f *fakeSender) SendRecipe(ctx context.Context, recipeID string) (*HistoryEntry, error) {
	f.calls++
	return f.entry, nil
}

type fakePrompter struct {
	reply string
}

func (f fakePrompter) Prompt(ctx context.Context, req PromptRequest) (string, error) {
	return f.reply, nil
}
func (f fakePrompter) Select(ctx context.Context, req SelectRequest) (string, error) {
	return f.reply, nil
}

type fakeRunner struct{}

func (fakeRunner) Run(ctx context.Context, argv []string, stdin *string) ([]byte, error) {
	return []byte("ok"), nil
}

type fakeFiles struct{}

func (fakeFiles) ReadFile(path string) ([]byte, error) { return []byte("contents"), nil }

func newTestResolver(history *fakeHistory, sender *fakeSender) *Resolver {
	return NewResolver(history, sender, fakePrompter{}, fakeRunner{}, fakeFiles{})
}

func TestTriggerNeverFailsWithoutHistory(t *testing.T) {
	r := newTestResolver(&fakeHistory{}, &fakeSender{})
	_, err := r.ResolveResponse(context.Background(), "login", Trigger{Kind: TriggerNever}, nil, true)
	if _, ok := err.(*ErrNoResponseAvailable); !ok {
		t.Fatalf("err = %v, want ErrNoResponseAvailable", err)
	}
}

func TestTriggerNeverUsesHistory(t *testing.T) {
	entry := &HistoryEntry{Body: []byte("cached"), StartTime: time.Now()}
	r := newTestResolver(&fakeHistory{entry: entry}, &fakeSender{})
	body, err := r.ResolveResponse(context.Background(), "login", Trigger{Kind: TriggerNever}, nil, true)
	if err != nil {
		t.Fatalf("ResolveResponse: %v", err)
	}
	if string(body) != "cached" {
		t.Errorf("body = %q", body)
	}
}

func TestTriggerNoHistoryLaunchesWhenEmpty(t *testing.T) {
	sender := &fakeSender{entry: &HistoryEntry{Body: []byte("fresh")}}
	r := newTestResolver(&fakeHistory{}, sender)
	body, err := r.ResolveResponse(context.Background(), "login", Trigger{Kind: TriggerNoHistory}, nil, true)
	if err != nil {
		t.Fatalf("ResolveResponse: %v", err)
	}
	if string(body) != "fresh" || sender.calls != 1 {
		t.Errorf("body = %q, calls = %d", body, sender.calls)
	}
}

func TestTriggerExpireReusesFreshHistory(t *testing.T) {
	entry := &HistoryEntry{Body: []byte("cached"), StartTime: time.Now().Add(-5 * time.Second)}
	sender := &fakeSender{entry: &HistoryEntry{Body: []byte("fresh")}}
	r := newTestResolver(&fakeHistory{entry: entry}, sender)
	body, err := r.ResolveResponse(context.Background(), "login", Trigger{Kind: TriggerExpire, Expire: 60 * time.Second}, nil, true)
	if err != nil {
		t.Fatalf("ResolveResponse: %v", err)
	}
	if string(body) != "cached" || sender.calls != 0 {
		t.Errorf("body = %q, calls = %d", body, sender.calls)
	}
}

func TestTriggerExpireLaunchesWhenStale(t *testing.T) {
	entry := &HistoryEntry{Body: []byte("cached"), StartTime: time.Now().Add(-10 * time.Second)}
	sender := &fakeSender{entry: &HistoryEntry{Body: []byte("fresh")}}
	r := newTestResolver(&fakeHistory{entry: entry}, sender)
	body, err := r.ResolveResponse(context.Background(), "login", Trigger{Kind: TriggerExpire, Expire: 5 * time.Second}, nil, true)
	if err != nil {
		t.Fatalf("ResolveResponse: %v", err)
	}
	if string(body) != "fresh" || sender.calls != 1 {
		t.Errorf("body = %q, calls = %d", body, sender.calls)
	}
}

func TestTriggerAlwaysAlwaysLaunches(t *testing.T) {
	entry := &HistoryEntry{Body: []byte("cached"), StartTime: time.Now()}
	sender := &fakeSender{entry: &HistoryEntry{Body: []byte("fresh")}}
	r := newTestResolver(&fakeHistory{entry: entry}, sender)
	for i := 0; i < 2; i++ {
		if _, err := r.ResolveResponse(context.Background(), "login", Trigger{Kind: TriggerAlways}, nil, true); err != nil {
			t.Fatalf("ResolveResponse: %v", err)
		}
	}
	if sender.calls != 2 {
		t.Errorf("expected one sub-request per evaluation, got %d", sender.calls)
	}
}

func TestTriggerNotAllowed(t *testing.T) {
	r := newTestResolver(&fakeHistory{}, &fakeSender{})
	_, err := r.ResolveResponse(context.Background(), "login", Trigger{Kind: TriggerAlways}, nil, false)
	if _, ok := err.(*ErrTriggerNotAllowed); !ok {
		t.Fatalf("err = %v, want ErrTriggerNotAllowed", err)
	}
}

func TestApplySelector(t *testing.T) {
	body := []byte(`{"user":{"name":"ada"}}`)
	got, err := ApplySelectorBytes(body, "user.name")
	if err != nil {
		t.Fatalf("ApplySelectorBytes: %v", err)
	}
	if string(got) != "ada" {
		t.Errorf("selected = %q", got)
	}
}

func TestResolvePromptTrimsWhitespace(t *testing.T) {
	r := NewResolver(&fakeHistory{}, &fakeSender{}, fakePrompter{reply: "  typed value\n"}, fakeRunner{}, fakeFiles{})
	got, err := r.ResolvePrompt(context.Background(), PromptRequest{Message: "?"})
	if err != nil {
		t.Fatalf("ResolvePrompt: %v", err)
	}
	if got != "typed value" {
		t.Errorf("got %q, want trimmed reply", got)
	}
}

func TestResolveSelectTrimsWhitespace(t *testing.T) {
	r := NewResolver(&fakeHistory{}, &fakeSender{}, fakePrompter{reply: "option a\r\n"}, fakeRunner{}, fakeFiles{})
	got, err := r.ResolveSelect(context.Background(), SelectRequest{Message: "?", Options: []string{"option a"}})
	if err != nil {
		t.Fatalf("ResolveSelect: %v", err)
	}
	if got != "option a" {
		t.Errorf("got %q, want trimmed reply", got)
	}
}

func TestResolveChainWrapsErrorWithChainID(t *testing.T) {
	r := newTestResolver(&fakeHistory{}, &fakeSender{})
	c := Chain{
		ID:     "my_chain",
		Source: Source{Kind: SourceRequest, RecipeID: "login"},
		Trigger: Trigger{Kind: TriggerNever},
	}
	_, err := r.Resolve(context.Background(), c, nil, true)
	re, ok := err.(*ResolveError)
	if !ok {
		t.Fatalf("err = %T, want *ResolveError", err)
	}
	if re.ChainID != "my_chain" {
		t.Errorf("ChainID = %q", re.ChainID)
	}
}

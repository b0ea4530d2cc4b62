package search

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAdapterReturnsResults(t *testing.T) {
	p := &fakeProvider{name: "brave", results: []Result{
		{Title: "A", URL: "https://a.example", Snippet: "alpha"},
		{Title: "B", URL: "https://b.example", Snippet: "beta"},
	}}
	m := NewManager("brave")
	m.Register(p)

	a := NewAdapter(m, 8, discardLogger())
	got := a.Results(context.Background(), "q")
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if p.gotOpts.Count != 8 {
		t.Errorf("provider received Count = %d, want 8", p.gotOpts.Count)
	}
}

func TestAdapterSoftFailsOnError(t *testing.T) {
	p := &fakeProvider{name: "brave", err: errors.New("provider down")}
	m := NewManager("brave")
	m.Register(p)

	a := NewAdapter(m, 8, discardLogger())
	got := a.Results(context.Background(), "q")
	if got == nil {
		t.Fatal("Results() returned nil, want empty slice")
	}
	if len(got) != 0 {
		t.Errorf("got %d results, want 0", len(got))
	}
}

func TestAdapterSoftFailsWithNoProvider(t *testing.T) {
	a := NewAdapter(NewManager("brave"), 8, discardLogger())
	got := a.Results(context.Background(), "q")
	if got == nil || len(got) != 0 {
		t.Errorf("Results() = %v, want empty non-nil slice", got)
	}
}

func TestAdapterCapsResults(t *testing.T) {
	many := make([]Result, 20)
	for i := range many {
		many[i] = Result{Title: "r"}
	}
	p := &fakeProvider{name: "brave", results: many}
	m := NewManager("brave")
	m.Register(p)

	a := NewAdapter(m, 8, discardLogger())
	if got := a.Results(context.Background(), "q"); len(got) != 8 {
		t.Errorf("got %d results, want cap of 8", len(got))
	}
}

func TestAdapterNeverReturnsNil(t *testing.T) {
	// Provider legitimately returns (nil, nil) for zero matches.
	p := &fakeProvider{name: "brave", results: nil}
	m := NewManager("brave")
	m.Register(p)

	a := NewAdapter(m, 8, discardLogger())
	if got := a.Results(context.Background(), "q"); got == nil {
		t.Error("Results() returned nil, want empty slice")
	}
}

func TestAdapterDefaultCap(t *testing.T) {
	many := make([]Result, 20)
	p := &fakeProvider{name: "brave", results: many}
	m := NewManager("brave")
	m.Register(p)

	a := NewAdapter(m, 0, discardLogger())
	if got := a.Results(context.Background(), "q"); len(got) != 8 {
		t.Errorf("got %d results, want fallback cap of 8", len(got))
	}
}

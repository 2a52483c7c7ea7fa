package doctool

import (
	"context"
	"encoding/json"
	"testing"

	"go.uber.org/zap"

	"github.com/kosworks/scriptmate/internal/domain/docs"
)

type stubSearcher struct {
	ready   bool
	entries []docs.Entry

	lastQuery string
	lastLimit int
	panicWith any
}

func (s *stubSearcher) Ready() bool { return s.ready }

func (s *stubSearcher) Search(query string, limit int) []docs.Entry {
	if s.panicWith != nil {
		panic(s.panicWith)
	}
	s.lastQuery = query
	s.lastLimit = limit
	return s.entries
}

func newTool(searcher *stubSearcher) *Service {
	return New(searcher, zap.NewNop())
}

func TestInvoke_ValidationErrors(t *testing.T) {
	tests := []struct {
		name     string
		rawArgs  string
		wantCode string
	}{
		{"not json", `search for altitude`, CodeMalformedArgs},
		{"wrong query type", `{"query": 42}`, CodeMalformedArgs},
		{"wrong max_results type", `{"query": "ship", "max_results": "five"}`, CodeMalformedArgs},
		{"missing query", `{}`, CodeEmptyQuery},
		{"null query", `{"query": null}`, CodeEmptyQuery},
		{"empty query", `{"query": ""}`, CodeEmptyQuery},
		{"whitespace query", `{"query": "   "}`, CodeEmptyQuery},
		{"one char query", `{"query": "x"}`, CodeQueryTooShort},
		{"one char after trim", `{"query": " x "}`, CodeQueryTooShort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool := newTool(&stubSearcher{ready: true})
			res := tool.Invoke(context.Background(), tt.rawArgs)
			if res.OK {
				t.Fatal("expected failure envelope")
			}
			if res.Error != tt.wantCode {
				t.Errorf("Error = %q, want %q", res.Error, tt.wantCode)
			}
			if res.Message == "" {
				t.Error("failure envelope should carry a message")
			}
		})
	}
}

func TestInvoke_DocsNotLoaded(t *testing.T) {
	tool := newTool(&stubSearcher{ready: false})

	res := tool.Invoke(context.Background(), `{"query": "ship altitude"}`)
	if res.OK || res.Error != CodeDocsNotLoaded {
		t.Fatalf("got %+v, want %s", res, CodeDocsNotLoaded)
	}
}

func TestInvoke_ValidationBeforeReadiness(t *testing.T) {
	// An empty query reports empty_query even while docs are loading.
	tool := newTool(&stubSearcher{ready: false})

	res := tool.Invoke(context.Background(), `{"query": ""}`)
	if res.Error != CodeEmptyQuery {
		t.Fatalf("Error = %q, want %q", res.Error, CodeEmptyQuery)
	}
}

func TestInvoke_MaxResultsBounds(t *testing.T) {
	tests := []struct {
		name      string
		rawArgs   string
		wantLimit int
	}{
		{"default", `{"query": "ship"}`, 5},
		{"explicit", `{"query": "ship", "max_results": 3}`, 3},
		{"zero clamps up", `{"query": "ship", "max_results": 0}`, 1},
		{"negative clamps up", `{"query": "ship", "max_results": -7}`, 1},
		{"huge clamps down", `{"query": "ship", "max_results": 999}`, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := &stubSearcher{ready: true}
			newTool(searcher).Invoke(context.Background(), tt.rawArgs)
			if searcher.lastLimit != tt.wantLimit {
				t.Errorf("limit = %d, want %d", searcher.lastLimit, tt.wantLimit)
			}
		})
	}
}

func TestInvoke_Success(t *testing.T) {
	searcher := &stubSearcher{
		ready: true,
		entries: []docs.Entry{
			{ID: "SHIP:ALTITUDE", Name: "ALTITUDE", Type: docs.Suffix, Description: "Altitude above sea level.", Snippet: "print SHIP:ALTITUDE."},
		},
	}
	tool := newTool(searcher)

	res := tool.Invoke(context.Background(), `{"query": "  altitude  "}`)
	if !res.OK || res.Error != "" {
		t.Fatalf("expected success, got %+v", res)
	}
	if searcher.lastQuery != "altitude" {
		t.Errorf("query not trimmed: %q", searcher.lastQuery)
	}
	if len(res.Entries) != 1 || res.Entries[0].ID != "SHIP:ALTITUDE" {
		t.Fatalf("unexpected entries: %+v", res.Entries)
	}
	if res.Entries[0].Type != "suffix" {
		t.Errorf("Type = %q, want suffix", res.Entries[0].Type)
	}
}

func TestInvoke_ZeroHitsIsStillOK(t *testing.T) {
	tool := newTool(&stubSearcher{ready: true})

	res := tool.Invoke(context.Background(), `{"query": "quaternion"}`)
	if !res.OK {
		t.Fatalf("zero hits should be OK, got %+v", res)
	}
	if len(res.Entries) != 0 {
		t.Errorf("expected no entries, got %v", res.Entries)
	}
}

func TestInvoke_UnknownFieldsIgnored(t *testing.T) {
	tool := newTool(&stubSearcher{ready: true})

	res := tool.Invoke(context.Background(), `{"query": "ship", "verbose": true, "page": 2}`)
	if !res.OK {
		t.Fatalf("unknown fields should be ignored, got %+v", res)
	}
}

func TestInvoke_PanicBecomesInternalError(t *testing.T) {
	tool := newTool(&stubSearcher{ready: true, panicWith: "index corrupted"})

	res := tool.Invoke(context.Background(), `{"query": "ship"}`)
	if res.OK || res.Error != CodeInternalError {
		t.Fatalf("got %+v, want %s envelope", res, CodeInternalError)
	}
}

func TestRun_ReturnsParseableJSON(t *testing.T) {
	searcher := &stubSearcher{
		ready:   true,
		entries: []docs.Entry{{ID: "SHIP", Name: "SHIP", Type: docs.Structure}},
	}
	out := newTool(searcher).Run(context.Background(), `{"query": "ship"}`)

	var res Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("Run output not JSON: %v\n%s", err, out)
	}
	if !res.OK || len(res.Entries) != 1 {
		t.Errorf("unexpected envelope: %+v", res)
	}
}

func TestDeclaration(t *testing.T) {
	spec := newTool(&stubSearcher{}).Declaration()

	if spec.Name != ToolName {
		t.Errorf("Name = %q, want %q", spec.Name, ToolName)
	}
	if spec.Description == "" {
		t.Error("tool needs a description for the model")
	}
	props, ok := spec.Parameters["properties"].(map[string]any)
	if !ok {
		t.Fatal("parameters missing properties object")
	}
	if _, ok := props["query"]; !ok {
		t.Error("query parameter missing")
	}
	if _, ok := props["max_results"]; !ok {
		t.Error("max_results parameter missing")
	}
	req, ok := spec.Parameters["required"].([]string)
	if !ok || len(req) != 1 || req[0] != "query" {
		t.Errorf("required = %v, want [query]", spec.Parameters["required"])
	}
}

func TestSanitizeQuery(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"line\nbreak\ttab", "linebreaktab"},
		{"back`tick \"quote\" back\\slash", "backtick quote backslash"},
	}
	for _, tt := range tests {
		if got := sanitizeQuery(tt.in); got != tt.want {
			t.Errorf("sanitizeQuery(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	long := make([]rune, 300)
	for i := range long {
		long[i] = 'a'
	}
	got := sanitizeQuery(string(long))
	if len([]rune(got)) != maxQueryLogLen+3 {
		t.Errorf("long query not capped: %d runes", len([]rune(got)))
	}
}

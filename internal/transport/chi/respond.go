package chi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/kosworks/scriptmate/internal/domain/docs"
)

// errorResponse is the uniform error body.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// writeSSE writes one server-sent event. Multi-line data is split across
// data: lines per the SSE framing rules.
func writeSSE(w http.ResponseWriter, event, data string) {
	fmt.Fprintf(w, "event: %s\n", event)
	for _, line := range strings.Split(data, "\n") {
		fmt.Fprintf(w, "data: %s\n", line)
	}
	fmt.Fprint(w, "\n")
}

// entryJSON is the HTTP representation of a doc entry.
type entryJSON struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Type            string   `json:"type"`
	ParentStructure string   `json:"parent_structure,omitempty"`
	ReturnType      string   `json:"return_type,omitempty"`
	Access          string   `json:"access,omitempty"`
	Signature       string   `json:"signature,omitempty"`
	Description     string   `json:"description,omitempty"`
	Snippet         string   `json:"snippet,omitempty"`
	Tags            []string `json:"tags,omitempty"`
	Aliases         []string `json:"aliases,omitempty"`
	Deprecated      bool     `json:"deprecated,omitempty"`
}

func entryToJSON(e docs.Entry) entryJSON {
	return entryJSON{
		ID:              e.ID,
		Name:            e.Name,
		Type:            string(e.Type),
		ParentStructure: e.ParentStructure,
		ReturnType:      e.ReturnType,
		Access:          string(e.Access),
		Signature:       e.Signature,
		Description:     e.Description,
		Snippet:         e.Snippet,
		Tags:            e.Tags,
		Aliases:         e.Aliases,
		Deprecated:      e.Deprecated,
	}
}

func entriesToJSON(entries []docs.Entry) []entryJSON {
	out := make([]entryJSON, len(entries))
	for i, e := range entries {
		out[i] = entryToJSON(e)
	}
	return out
}

package visitor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/evcraddock/gatepass/internal/apperr"
)

// envelope is the backend response shape: {"message": [...]}.
type envelope struct {
	Message json.RawMessage `json:"message"`
}

// Decode parses a backend visitor response. Anything other than an object
// whose message is an array of visitor records is an IngestionFormatError,
// and no visitors are returned.
func Decode(r io.Reader) ([]Visitor, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading visitors: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &apperr.IngestionFormatError{Reason: "response is not an object", Err: err}
	}

	msg := bytes.TrimSpace(env.Message)
	if len(msg) == 0 || msg[0] != '[' {
		return nil, &apperr.IngestionFormatError{Reason: "message is not an array"}
	}

	var visitors []Visitor
	if err := json.Unmarshal(msg, &visitors); err != nil {
		return nil, &apperr.IngestionFormatError{Reason: "malformed visitor record", Err: err}
	}
	if visitors == nil {
		visitors = []Visitor{}
	}

	return visitors, nil
}

package elasticsearch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const indexNotFound = "index_not_found_exception"

// errorCause is the structured reason of a failed item or request.
type errorCause struct {
	kind      string
	rootCause string
	detail    string
}

// parseError extracts the root cause and nested cause of an error value.
// The value may be a bare string or an object whose root_cause is a
// string, a list of causes, or a single cause.
func parseError(raw json.RawMessage) errorCause {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return errorCause{}
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return errorCause{rootCause: s}
	}

	var obj struct {
		Type      string          `json:"type"`
		Reason    string          `json:"reason"`
		RootCause json.RawMessage `json:"root_cause"`
		CausedBy  json.RawMessage `json:"caused_by"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return errorCause{rootCause: string(raw)}
	}

	cause := errorCause{kind: obj.Type, rootCause: reason(obj.RootCause)}
	if cause.rootCause == "" {
		cause.rootCause = obj.Reason
	}
	if cause.rootCause == "" {
		cause.rootCause = obj.Type
	}
	cause.detail = reason(obj.CausedBy)
	return cause
}

// reason reads the reason of a cause given as a string, an object or a
// list of objects, in which case the first is used.
func reason(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	type cause struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	}
	var one cause
	if err := json.Unmarshal(raw, &one); err == nil {
		if one.Reason != "" {
			return one.Reason
		}
		return one.Type
	}
	var many []cause
	if err := json.Unmarshal(raw, &many); err == nil && len(many) > 0 {
		if many[0].Reason != "" {
			return many[0].Reason
		}
		return many[0].Type
	}
	return ""
}

func (c errorCause) String() string {
	if c.detail != "" {
		return c.rootCause + ": " + c.detail
	}
	return c.rootCause
}

// requestError is a request the cluster rejected as a whole.
type requestError struct {
	op     string
	status int
	cause  errorCause

	// indexMissing reports that the target index does not exist.
	indexMissing bool
}

func (e *requestError) Error() string {
	if e.cause.rootCause == "" {
		return fmt.Sprintf("%s: status %d", e.op, e.status)
	}
	return fmt.Sprintf("%s: status %d: %s", e.op, e.status, e.cause)
}

// responseError reads the error body of a failed response.
func responseError(op string, res *esapi.Response) *requestError {
	body, _ := io.ReadAll(res.Body)

	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	var cause errorCause
	if err := json.Unmarshal(body, &envelope); err == nil {
		cause = parseError(envelope.Error)
	}

	return &requestError{
		op:           op,
		status:       res.StatusCode,
		cause:        cause,
		indexMissing: cause.kind == indexNotFound || strings.Contains(string(body), indexNotFound),
	}
}

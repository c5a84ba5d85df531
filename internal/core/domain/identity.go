package domain

import (
	"fmt"
	"strings"
)

// DocumentID addresses an index document.
// It is the slash-joined (account, container, object) triple, so indexing
// the same object twice overwrites rather than duplicates.
type DocumentID string

// NewDocumentID builds the identity for an object.
func NewDocumentID(account, container, name string) DocumentID {
	return DocumentID(account + "/" + container + "/" + name)
}

// Split returns the account, container and object name.
// Object names may themselves contain slashes; only the first two separate.
func (id DocumentID) Split() (account, container, name string, err error) {
	parts := strings.SplitN(string(id), "/", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", fmt.Errorf("%w: malformed document id %q", ErrInvalidInput, string(id))
	}
	return parts[0], parts[1], parts[2], nil
}

// String returns the identity as a string.
func (id DocumentID) String() string {
	return string(id)
}

// DocumentIDStrings converts identities for clients that take plain strings.
func DocumentIDStrings(ids []DocumentID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}

package services

import (
	"fmt"
	"net/http"
	"net/mail"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/metasync/internal/core/domain"
)

// BuildDocument converts object metadata into its index document.
// Fields absent from meta stay unset. Unparseable typed values fail the
// whole document.
func BuildDocument(meta domain.ObjectMetadata, account, container, name string) (*domain.IndexDocument, error) {
	id := domain.NewDocumentID(account, container, name)

	rawTS, ok := meta.Get(domain.FieldTimestamp)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no %s", domain.ErrMissingField, id, domain.FieldTimestamp)
	}
	ts, err := domain.ParseTimestamp(rawTS)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", id, domain.FieldTimestamp, err)
	}

	rawLM, ok := meta.Get(domain.FieldLastModified)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no %s", domain.ErrMissingField, id, domain.FieldLastModified)
	}
	lastModified, err := parseHTTPDate(rawLM)
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", id, domain.FieldLastModified, err)
	}

	doc := &domain.IndexDocument{
		Timestamp:    ts.Milliseconds(),
		LastModified: lastModified.UnixMilli(),
		Account:      account,
		Container:    container,
		Object:       name,
		User:         meta.UserMetadata(),
	}

	if v, ok := meta.Get(domain.FieldContentLength); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %s %q", domain.ErrInvalidInput, id, domain.FieldContentLength, v)
		}
		doc.ContentLength = &n
	}
	if v, ok := meta.Get(domain.FieldStaticLargeObject); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %s %q", domain.ErrInvalidInput, id, domain.FieldStaticLargeObject, v)
		}
		doc.StaticLargeObject = &b
	}
	doc.ContentType = optional(meta, domain.FieldContentType)
	doc.ETag = optional(meta, domain.FieldETag)
	doc.ObjectManifest = optional(meta, domain.FieldObjectManifest)
	doc.TransID = optional(meta, domain.FieldTransID)

	return doc, nil
}

func optional(meta domain.ObjectMetadata, key string) *string {
	v, ok := meta.Get(key)
	if !ok {
		return nil
	}
	return &v
}

// parseHTTPDate accepts the HTTP date formats plus RFC 5322 dates with a
// numeric zone, e.g. "Mon, 12 Jan 1970 13:46:39 -0000".
func parseHTTPDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := http.ParseTime(s); err == nil {
		return t, nil
	}
	t, err := mail.ParseDate(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", domain.ErrInvalidInput, s)
	}
	return t, nil
}

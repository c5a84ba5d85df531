package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIndexDocument_Fields_OmitsUnset(t *testing.T) {
	doc := &IndexDocument{
		Timestamp:    1000,
		LastModified: 2000,
		Account:      "a",
		Container:    "c",
		Object:       "o",
	}

	assert.Equal(t, map[string]any{
		FieldTimestamp:    int64(1000),
		FieldLastModified: int64(2000),
		FieldAccount:      "a",
		FieldContainer:    "c",
		FieldObject:       "o",
	}, doc.Fields())
}

func TestIndexDocument_Fields_AllSet(t *testing.T) {
	length := int64(42)
	contentType := "text/plain"
	etag := "abc"
	manifest := "segments/obj"
	slo := true
	trans := "tx1"

	doc := &IndexDocument{
		Timestamp:         1,
		LastModified:      2,
		Account:           "a",
		Container:         "c",
		Object:            "o",
		ContentLength:     &length,
		ContentType:       &contentType,
		ETag:              &etag,
		ObjectManifest:    &manifest,
		StaticLargeObject: &slo,
		TransID:           &trans,
	}

	fields := doc.Fields()
	assert.Len(t, fields, 11)
	assert.Equal(t, int64(42), fields[FieldContentLength])
	assert.Equal(t, true, fields[FieldStaticLargeObject])
	assert.Equal(t, "segments/obj", fields[FieldObjectManifest])
}

func TestIndexDocument_Fields_UserMetadata(t *testing.T) {
	user := NewUserMetadata()
	user.Set("🐵", "👍")
	user.Set(FieldTimestamp, "spoofed")

	doc := &IndexDocument{Timestamp: 7, Account: "a", Container: "c", Object: "o", User: user}
	fields := doc.Fields()

	assert.Equal(t, "👍", fields["🐵"])
	assert.Equal(t, int64(7), fields[FieldTimestamp], "fixed fields win over user metadata")
}

func TestUserMetadata_Order(t *testing.T) {
	u := NewUserMetadata()
	u.Set("b", "2")
	u.Set("a", "1")
	u.Set("b", "3")

	assert.Equal(t, []string{"b", "a"}, u.Keys())
	assert.Equal(t, 2, u.Len())
	v, ok := u.Get("b")
	assert.True(t, ok)
	assert.Equal(t, "3", v)

	u.Sort()
	assert.Equal(t, []string{"a", "b"}, u.Keys())
}

func TestObjectMetadata_UserMetadata(t *testing.T) {
	meta := ObjectMetadata{
		"x-object-meta-foo":          "bar",
		"x-object-meta-\U0001F435":   "\U0001F44D",
		"X-Object-Meta-Color":        "blue",
		"x-object-meta-":             "ignored",
		"content-type":               "text/plain",
	}

	user := meta.UserMetadata()
	assert.Equal(t, []string{"Color", "foo", "🐵"}, user.Keys())
	v, _ := user.Get("🐵")
	assert.Equal(t, "👍", v)
}

func TestObjectMetadata_Get(t *testing.T) {
	meta := ObjectMetadata{"content-type": "text/plain"}
	v, ok := meta.Get("Content-Type")
	assert.True(t, ok)
	assert.Equal(t, "text/plain", v)

	_, ok = meta.Get("etag")
	assert.False(t, ok)
}

package domain

import "sort"

// IndexDocument is the search index representation of one object.
// Optional fields are nil when the object store did not report them.
type IndexDocument struct {
	// Timestamp is the object's x-timestamp in epoch milliseconds.
	Timestamp int64

	// LastModified is the Last-Modified header in epoch milliseconds.
	LastModified int64

	// Account, Container and Object name the source object.
	Account   string
	Container string
	Object    string

	ContentLength     *int64
	ContentType       *string
	ETag              *string
	ObjectManifest    *string
	StaticLargeObject *bool
	TransID           *string

	// User holds user-defined metadata with the prefix stripped.
	User *UserMetadata
}

// Fields flattens the document into index field names.
// Fixed fields take precedence over user metadata with the same name.
func (d *IndexDocument) Fields() map[string]any {
	fields := map[string]any{
		FieldTimestamp:    d.Timestamp,
		FieldLastModified: d.LastModified,
		FieldAccount:      d.Account,
		FieldContainer:    d.Container,
		FieldObject:       d.Object,
	}
	if d.ContentLength != nil {
		fields[FieldContentLength] = *d.ContentLength
	}
	if d.ContentType != nil {
		fields[FieldContentType] = *d.ContentType
	}
	if d.ETag != nil {
		fields[FieldETag] = *d.ETag
	}
	if d.ObjectManifest != nil {
		fields[FieldObjectManifest] = *d.ObjectManifest
	}
	if d.StaticLargeObject != nil {
		fields[FieldStaticLargeObject] = *d.StaticLargeObject
	}
	if d.TransID != nil {
		fields[FieldTransID] = *d.TransID
	}

	if d.User != nil {
		for _, k := range d.User.Keys() {
			if _, fixed := fields[k]; fixed {
				continue
			}
			v, _ := d.User.Get(k)
			fields[k] = v
		}
	}
	return fields
}

// UserMetadata is an insertion-ordered string map.
type UserMetadata struct {
	keys   []string
	values map[string]string
}

// NewUserMetadata creates an empty map.
func NewUserMetadata() *UserMetadata {
	return &UserMetadata{values: make(map[string]string)}
}

// Set stores a value, keeping the original position of an existing key.
func (u *UserMetadata) Set(key, value string) {
	if _, ok := u.values[key]; !ok {
		u.keys = append(u.keys, key)
	}
	u.values[key] = value
}

// Get returns the value for a key.
func (u *UserMetadata) Get(key string) (string, bool) {
	v, ok := u.values[key]
	return v, ok
}

// Keys returns the keys in order.
func (u *UserMetadata) Keys() []string {
	out := make([]string, len(u.keys))
	copy(out, u.keys)
	return out
}

// Len returns the number of entries.
func (u *UserMetadata) Len() int {
	return len(u.keys)
}

// Sort orders the keys lexically.
func (u *UserMetadata) Sort() {
	sort.Strings(u.keys)
}

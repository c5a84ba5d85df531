package domain

import "strings"

// UserMetaPrefix marks user-defined metadata keys.
const UserMetaPrefix = "x-object-meta-"

// ObjectMetadata is the header-like metadata of one object, as returned by
// the object store at read time. Keys are lower case.
type ObjectMetadata map[string]string

// Get returns the value for a key, matching case-insensitively.
func (m ObjectMetadata) Get(key string) (string, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	v, ok := m[strings.ToLower(key)]
	return v, ok
}

// UserMetadata returns the user-defined entries with the prefix stripped.
func (m ObjectMetadata) UserMetadata() *UserMetadata {
	user := NewUserMetadata()
	for k, v := range m {
		lower := strings.ToLower(k)
		if !strings.HasPrefix(lower, UserMetaPrefix) {
			continue
		}
		name := k[len(UserMetaPrefix):]
		if name == "" {
			continue
		}
		user.Set(name, v)
	}
	user.Sort()
	return user
}

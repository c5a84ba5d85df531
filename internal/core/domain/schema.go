package domain

import "sort"

// Fixed index field names.
const (
	FieldContentLength     = "content-length"
	FieldContentType       = "content-type"
	FieldETag              = "etag"
	FieldLastModified      = "last-modified"
	FieldObjectManifest    = "x-object-manifest"
	FieldStaticLargeObject = "x-static-large-object"
	FieldContainer         = "x-swift-container"
	FieldAccount           = "x-swift-account"
	FieldObject            = "x-swift-object"
	FieldTimestamp         = "x-timestamp"
	FieldTransID           = "x-trans-id"
)

// FieldType describes how the index stores a field.
type FieldType string

// Field types used by the fixed schema.
const (
	// FieldTypeInteger is a whole number.
	FieldTypeInteger FieldType = "integer"

	// FieldTypeString is analysed full text.
	FieldTypeString FieldType = "string"

	// FieldTypeKeyword is an exact, not analysed string.
	FieldTypeKeyword FieldType = "keyword"

	// FieldTypeDate is an epoch milliseconds date.
	FieldTypeDate FieldType = "date"

	// FieldTypeBoolean is true or false.
	FieldTypeBoolean FieldType = "boolean"
)

// SchemaMapping maps field names to their types.
type SchemaMapping map[string]FieldType

// DefaultSchema returns the fixed fields every object document may carry.
// User-defined metadata is left to the index's dynamic field handling.
func DefaultSchema() SchemaMapping {
	return SchemaMapping{
		FieldContentLength:     FieldTypeInteger,
		FieldContentType:       FieldTypeString,
		FieldETag:              FieldTypeKeyword,
		FieldLastModified:      FieldTypeDate,
		FieldObjectManifest:    FieldTypeString,
		FieldStaticLargeObject: FieldTypeBoolean,
		FieldContainer:         FieldTypeString,
		FieldAccount:           FieldTypeString,
		FieldObject:            FieldTypeString,
		FieldTimestamp:         FieldTypeDate,
		FieldTransID:           FieldTypeKeyword,
	}
}

// Missing returns the fields of s that current does not define.
// Fields present in current are never reported, whatever their type.
func (s SchemaMapping) Missing(current SchemaMapping) SchemaMapping {
	missing := make(SchemaMapping)
	for name, t := range s {
		if _, ok := current[name]; !ok {
			missing[name] = t
		}
	}
	return missing
}

// Names returns the field names sorted.
func (s SchemaMapping) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/custodia-labs/metasync/internal/core/domain"
)

// legacyDocType is the mapping type used by clusters that still have types.
const legacyDocType = "object"

type propertyMapping struct {
	Type  string `json:"type"`
	Index any    `json:"index"`
}

// Schema returns the field types of the index mapping. A missing index or
// an index without a mapping returns an empty schema.
func (i *Index) Schema(ctx context.Context) (domain.SchemaMapping, error) {
	req := esapi.IndicesGetMappingRequest{Index: []string{i.name}}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return nil, fmt.Errorf("get mapping: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return domain.SchemaMapping{}, nil
	}
	if res.IsError() {
		return nil, responseError("get mapping", res)
	}

	var parsed map[string]struct {
		Mappings json.RawMessage `json:"mappings"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode mapping: %w", err)
	}

	entry, ok := parsed[i.name]
	if !ok && len(parsed) == 1 {
		// The name was an alias; the response is keyed by the concrete index.
		for _, only := range parsed {
			entry = only
		}
	}

	props, err := properties(entry.Mappings)
	if err != nil {
		return nil, err
	}
	schema := make(domain.SchemaMapping, len(props))
	for name, p := range props {
		schema[name] = fieldType(p)
	}
	return schema, nil
}

// properties reads typeless mappings and legacy typed mappings.
func properties(mappings json.RawMessage) (map[string]propertyMapping, error) {
	if len(bytes.TrimSpace(mappings)) == 0 {
		return nil, nil
	}

	var typeless struct {
		Properties map[string]propertyMapping `json:"properties"`
	}
	if err := json.Unmarshal(mappings, &typeless); err != nil {
		return nil, fmt.Errorf("decode mapping properties: %w", err)
	}
	if typeless.Properties != nil {
		return typeless.Properties, nil
	}

	var typed map[string]struct {
		Properties map[string]propertyMapping `json:"properties"`
	}
	if err := json.Unmarshal(mappings, &typed); err != nil {
		return nil, nil
	}
	return typed[legacyDocType].Properties, nil
}

func fieldType(p propertyMapping) domain.FieldType {
	switch p.Type {
	case "integer", "long", "short":
		return domain.FieldTypeInteger
	case "date":
		return domain.FieldTypeDate
	case "boolean":
		return domain.FieldTypeBoolean
	case "keyword":
		return domain.FieldTypeKeyword
	case "text":
		return domain.FieldTypeString
	case "string":
		if p.Index == "not_analyzed" {
			return domain.FieldTypeKeyword
		}
		return domain.FieldTypeString
	default:
		return domain.FieldType(p.Type)
	}
}

// TranslateMapping renders fields as mapping properties for a cluster of
// the given major version. From 5 on, strings are text with a keyword
// sub-field and exact strings are keywords; earlier versions use string
// types with not_analyzed for exact values.
func TranslateMapping(fields domain.SchemaMapping, major int) map[string]any {
	props := make(map[string]any, len(fields))
	for name, t := range fields {
		props[name] = translateField(t, major)
	}
	return props
}

func translateField(t domain.FieldType, major int) map[string]any {
	switch t {
	case domain.FieldTypeString:
		if major >= 5 {
			return map[string]any{
				"type":   "text",
				"fields": map[string]any{"keyword": map[string]any{"type": "keyword"}},
			}
		}
		return map[string]any{"type": "string"}
	case domain.FieldTypeKeyword:
		if major >= 5 {
			return map[string]any{"type": "keyword"}
		}
		return map[string]any{"type": "string", "index": "not_analyzed"}
	default:
		return map[string]any{"type": string(t)}
	}
}

// PutSchema adds fields to the mapping, creating the index if it does not
// exist yet.
func (i *Index) PutSchema(ctx context.Context, fields domain.SchemaMapping) error {
	if len(fields) == 0 {
		return nil
	}
	major, err := i.ServerVersion(ctx)
	if err != nil {
		return err
	}

	props := TranslateMapping(fields, major)
	body, err := json.Marshal(map[string]any{"properties": props})
	if err != nil {
		return fmt.Errorf("encode mapping: %w", err)
	}

	req := esapi.IndicesPutMappingRequest{Index: []string{i.name}, Body: bytes.NewReader(body)}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("put mapping: %w", err)
	}
	defer res.Body.Close()

	if !res.IsError() {
		return nil
	}
	rerr := responseError("put mapping", res)
	if !rerr.indexMissing {
		return rerr
	}
	return i.create(ctx, props)
}

func (i *Index) create(ctx context.Context, props map[string]any) error {
	body, err := json.Marshal(map[string]any{"mappings": map[string]any{"properties": props}})
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}

	req := esapi.IndicesCreateRequest{Index: i.name, Body: bytes.NewReader(body)}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return responseError("create index", res)
	}
	return nil
}

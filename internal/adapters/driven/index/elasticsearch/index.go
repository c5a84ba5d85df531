package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/custodia-labs/metasync/internal/core/domain"
	"github.com/custodia-labs/metasync/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.SearchIndex = (*Index)(nil)

// Config configures the cluster connection.
type Config struct {
	// Addresses lists node URLs.
	Addresses []string

	// Username and Password enable basic authentication.
	Username string
	Password string

	// Index is the index name.
	Index string

	// Transport overrides the HTTP transport.
	Transport http.RoundTripper
}

// Index is one Elasticsearch index.
type Index struct {
	client *es.Client
	name   string

	mu    sync.Mutex
	major int
}

// New creates an index client. No request is made until first use.
func New(cfg Config) (*Index, error) {
	if cfg.Index == "" {
		return nil, fmt.Errorf("%w: index name is required", domain.ErrInvalidInput)
	}
	if len(cfg.Addresses) == 0 {
		return nil, fmt.Errorf("%w: at least one address is required", domain.ErrInvalidInput)
	}

	client, err := es.NewClient(es.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: cfg.Transport,
	})
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return &Index{client: client, name: cfg.Index}, nil
}

// Name returns the index name.
func (i *Index) Name() string {
	return i.name
}

// Close releases resources.
func (i *Index) Close() error {
	return nil
}

type mgetDoc struct {
	ID     string          `json:"_id"`
	Found  bool            `json:"found"`
	Source json.RawMessage `json:"_source"`
	Error  json.RawMessage `json:"error"`
}

// BulkLookup fetches the named source fields of many documents.
func (i *Index) BulkLookup(ctx context.Context, ids []domain.DocumentID, fields []string) ([]driven.LookupResult, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(map[string]any{"ids": domain.DocumentIDStrings(ids)})
	if err != nil {
		return nil, fmt.Errorf("encode mget: %w", err)
	}

	refresh := true
	req := esapi.MgetRequest{
		Index:   i.name,
		Body:    bytes.NewReader(body),
		Refresh: &refresh,
		Source:  fields,
	}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return nil, fmt.Errorf("mget: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		rerr := responseError("mget", res)
		if rerr.indexMissing {
			return notFound(ids), nil
		}
		return nil, rerr
	}

	var parsed struct {
		Docs []mgetDoc `json:"docs"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode mget: %w", err)
	}

	results := make([]driven.LookupResult, 0, len(parsed.Docs))
	for n, doc := range parsed.Docs {
		result := driven.LookupResult{ID: domain.DocumentID(doc.ID)}
		if result.ID == "" && n < len(ids) {
			result.ID = ids[n]
		}

		switch {
		case len(doc.Error) > 0 && string(doc.Error) != "null":
			cause := parseError(doc.Error)
			if cause.kind == indexNotFound {
				break
			}
			result.Err = errors.New(cause.String())
		case doc.Found:
			result.Found = true
			result.Fields, err = decodeSource(doc.Source)
			if err != nil {
				result.Err = err
			}
		}
		results = append(results, result)
	}
	return results, nil
}

func notFound(ids []domain.DocumentID) []driven.LookupResult {
	results := make([]driven.LookupResult, len(ids))
	for n, id := range ids {
		results[n] = driven.LookupResult{ID: id}
	}
	return results
}

func decodeSource(raw json.RawMessage) (map[string]any, error) {
	fields := map[string]any{}
	if len(raw) == 0 {
		return fields, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("decode _source: %w", err)
	}
	return fields, nil
}

type bulkItem struct {
	ID     string          `json:"_id"`
	Status int             `json:"status"`
	Result string          `json:"result"`
	Found  *bool           `json:"found"`
	Error  json.RawMessage `json:"error"`
}

// BulkWrite submits the mutations as one bulk request.
func (i *Index) BulkWrite(ctx context.Context, ops []domain.Mutation) ([]domain.BulkItemResult, error) {
	if len(ops) == 0 {
		return nil, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, op := range ops {
		action := map[string]any{
			string(op.Op): map[string]string{"_index": i.name, "_id": string(op.ID)},
		}
		if err := enc.Encode(action); err != nil {
			return nil, fmt.Errorf("encode bulk action: %w", err)
		}
		if op.Op == domain.OpDelete {
			continue
		}
		if op.Document == nil {
			return nil, fmt.Errorf("%w: %s %s has no document", domain.ErrInvalidInput, op.Op, op.ID)
		}
		if err := enc.Encode(op.Document.Fields()); err != nil {
			return nil, fmt.Errorf("encode document %s: %w", op.ID, err)
		}
	}

	req := esapi.BulkRequest{Index: i.name, Body: &buf}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return nil, fmt.Errorf("bulk: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, responseError("bulk", res)
	}

	var parsed struct {
		Items []map[string]bulkItem `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode bulk: %w", err)
	}

	results := make([]domain.BulkItemResult, 0, len(parsed.Items))
	for n, entry := range parsed.Items {
		for opName, item := range entry {
			results = append(results, itemResult(domain.MutationOp(opName), item, ops, n))
		}
	}
	return results, nil
}

func itemResult(op domain.MutationOp, item bulkItem, ops []domain.Mutation, n int) domain.BulkItemResult {
	id := domain.DocumentID(item.ID)
	if id == "" && n < len(ops) {
		id = ops[n].ID
	}

	res := domain.BulkItemResult{ID: id, Op: op, Status: item.Status}
	if item.Found != nil {
		res.Found = *item.Found
	} else {
		res.Found = item.Result != "not_found" && item.Result != "created"
	}

	if item.Status < http.StatusMultipleChoices {
		return res
	}
	cause := parseError(item.Error)
	res.Err = &domain.MutationError{
		Identity:    id,
		StatusCode:  item.Status,
		RootCause:   cause.rootCause,
		CauseDetail: cause.detail,
	}
	return res
}

// ServerVersion returns the major version of the cluster.
func (i *Index) ServerVersion(ctx context.Context) (int, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.major > 0 {
		return i.major, nil
	}

	res, err := esapi.InfoRequest{}.Do(ctx, i.client)
	if err != nil {
		return 0, fmt.Errorf("info: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return 0, responseError("info", res)
	}

	var info struct {
		Version struct {
			Number string `json:"number"`
		} `json:"version"`
	}
	if err := json.NewDecoder(res.Body).Decode(&info); err != nil {
		return 0, fmt.Errorf("decode info: %w", err)
	}
	major, err := parseMajor(info.Version.Number)
	if err != nil {
		return 0, err
	}
	i.major = major
	return major, nil
}

func parseMajor(version string) (int, error) {
	head, _, _ := strings.Cut(version, ".")
	major, err := strconv.Atoi(head)
	if err != nil || major <= 0 {
		return 0, fmt.Errorf("%w: elasticsearch version %q", domain.ErrInvalidInput, version)
	}
	return major, nil
}

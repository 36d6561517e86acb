// Package opensearch stores search documents in an OpenSearch cluster.
package opensearch

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"tonotes/contextutil"
	"tonotes/model"
	"tonotes/search"

	opensearchgo "github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

var ErrIncompatibleSchema = errors.New("existing opensearch index has an incompatible mapping")

// DefaultMaxResultWindow is OpenSearch's default index.max_result_window:
// from+size may not exceed it.
const DefaultMaxResultWindow = 10000

type Config struct {
	Addresses []string
	Username  string
	Password  string
	Index     string
	Insecure  bool

	// MaxResultWindow must match the index.max_result_window setting.
	MaxResultWindow int
}

// Client is a search.Index backed by OpenSearch.
type Client struct {
	client    *opensearchgo.Client
	index     string
	maxWindow int
}

var _ search.Index = (*Client)(nil)

func New(cfg Config) (*Client, error) {
	if cfg.Index == "" {
		cfg.Index = "notes"
	}
	if cfg.MaxResultWindow <= 0 {
		cfg.MaxResultWindow = DefaultMaxResultWindow
	}
	client, err := opensearchgo.NewClient(opensearchgo.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.Insecure},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create opensearch client: %w", err)
	}
	return &Client{client: client, index: cfg.Index, maxWindow: cfg.MaxResultWindow}, nil
}

// EnsureSchema creates the index when it does not exist. An existing index
// is checked for the fields search relies on and never recreated.
func (c *Client) EnsureSchema(ctx context.Context) error {
	logger := contextutil.LoggerFromContext(ctx)

	res, err := opensearchapi.IndicesExistsRequest{Index: []string{c.index}}.Do(ctx, c.client)
	if err != nil {
		return fmt.Errorf("check index %s: %w", c.index, err)
	}
	res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		if err := c.checkMapping(ctx); err != nil {
			return err
		}
		logger.Info("search index exists", "index", c.index)
		return nil
	case http.StatusNotFound:
	default:
		return fmt.Errorf("check index %s: unexpected status %d", c.index, res.StatusCode)
	}

	body, err := encode(indexBody())
	if err != nil {
		return err
	}
	res, err = opensearchapi.IndicesCreateRequest{Index: c.index, Body: body}.Do(ctx, c.client)
	if err := done(res, err, "create index"); err != nil {
		return err
	}
	logger.Info("created search index", "index", c.index)
	return nil
}

func (c *Client) checkMapping(ctx context.Context) error {
	res, err := opensearchapi.IndicesGetMappingRequest{Index: []string{c.index}}.Do(ctx, c.client)
	if err := check(res, err, "get mapping"); err != nil {
		return err
	}

	var mappings map[string]struct {
		Mappings struct {
			Properties map[string]struct {
				Type string `json:"type"`
			} `json:"properties"`
		} `json:"mappings"`
	}
	if err := decode(res, &mappings); err != nil {
		return err
	}

	for _, m := range mappings {
		for field, want := range expectedTypes {
			got, ok := m.Mappings.Properties[field]
			if !ok {
				return fmt.Errorf("%w: field %q is not mapped", ErrIncompatibleSchema, field)
			}
			if got.Type != want {
				return fmt.Errorf("%w: field %q is %q, want %q", ErrIncompatibleSchema, field, got.Type, want)
			}
		}
	}
	return nil
}

func (c *Client) IndexDocument(ctx context.Context, doc model.SearchDocument, refresh bool) error {
	body, err := encode(documentBody(doc))
	if err != nil {
		return err
	}
	res, err := opensearchapi.IndexRequest{
		Index:      c.index,
		DocumentID: doc.ID,
		Body:       body,
		Refresh:    refreshParam(refresh),
	}.Do(ctx, c.client)
	return done(res, err, "index document "+doc.ID)
}

// BulkIndex writes docs in one bulk request. Any per-item failure fails
// the whole call.
func (c *Client) BulkIndex(ctx context.Context, docs []model.SearchDocument) error {
	if len(docs) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, doc := range docs {
		action := map[string]any{"index": map[string]any{"_index": c.index, "_id": doc.ID}}
		if err := enc.Encode(action); err != nil {
			return err
		}
		if err := enc.Encode(documentBody(doc)); err != nil {
			return err
		}
	}

	res, err := opensearchapi.BulkRequest{Index: c.index, Body: &buf}.Do(ctx, c.client)
	if err := check(res, err, "bulk index"); err != nil {
		return err
	}

	var out struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			ID     string          `json:"_id"`
			Status int             `json:"status"`
			Error  json.RawMessage `json:"error"`
		} `json:"items"`
	}
	if err := decode(res, &out); err != nil {
		return err
	}
	if !out.Errors {
		return nil
	}

	var failed []string
	for _, item := range out.Items {
		for _, result := range item {
			if result.Status >= 300 {
				failed = append(failed, fmt.Sprintf("%s (%d): %s", result.ID, result.Status, result.Error))
			}
		}
	}
	return fmt.Errorf("bulk index: %d of %d documents failed: %s", len(failed), len(docs), strings.Join(failed, "; "))
}

// UpdateDocument sends only the named fields, upserting the full document
// when it does not exist yet.
func (c *Client) UpdateDocument(ctx context.Context, doc model.SearchDocument, fields []string, refresh bool) error {
	body, err := encode(map[string]any{
		"doc":    partialBody(doc, fields),
		"upsert": documentBody(doc),
	})
	if err != nil {
		return err
	}
	res, err := opensearchapi.UpdateRequest{
		Index:      c.index,
		DocumentID: doc.ID,
		Body:       body,
		Refresh:    refreshParam(refresh),
	}.Do(ctx, c.client)
	return done(res, err, "update document "+doc.ID)
}

func (c *Client) DeleteDocument(ctx context.Context, id string, refresh bool) error {
	res, err := opensearchapi.DeleteRequest{
		Index:      c.index,
		DocumentID: id,
		Refresh:    refreshParam(refresh),
	}.Do(ctx, c.client)
	if err == nil && res.StatusCode == http.StatusNotFound {
		res.Body.Close()
		return nil
	}
	return done(res, err, "delete document "+id)
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID        string              `json:"_id"`
			Score     *float64            `json:"_score"`
			Source    json.RawMessage     `json:"_source"`
			Highlight map[string][]string `json:"highlight"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search runs q. Pages that start at or past the result window come back
// empty with the real total; a page straddling it is cut at the window.
func (c *Client) Search(ctx context.Context, q *search.Query) (*search.HitSet, error) {
	if q.From >= c.maxWindow {
		return c.count(ctx, q)
	}
	if q.From+q.Size > c.maxWindow {
		clipped := *q
		clipped.Size = c.maxWindow - q.From
		q = &clipped
	}

	rendered, err := renderSearch(q)
	if err != nil {
		return nil, err
	}
	body, err := encode(rendered)
	if err != nil {
		return nil, err
	}

	res, err := opensearchapi.SearchRequest{Index: []string{c.index}, Body: body}.Do(ctx, c.client)
	if err := check(res, err, "search"); err != nil {
		return nil, err
	}

	var out searchResponse
	if err := decode(res, &out); err != nil {
		return nil, err
	}

	hits := &search.HitSet{
		Hits:  make([]search.Hit, 0, len(out.Hits.Hits)),
		Total: out.Hits.Total.Value,
	}
	for _, h := range out.Hits.Hits {
		hit := search.Hit{ID: h.ID, Highlights: h.Highlight}
		if h.Score != nil {
			hit.Score = *h.Score
		}
		if len(h.Source) > 0 {
			if err := json.Unmarshal(h.Source, &hit.Source); err != nil {
				return nil, fmt.Errorf("decode hit %s: %w", h.ID, err)
			}
			hit.Source.ID = h.ID
		}
		hits.Hits = append(hits.Hits, hit)
	}
	return hits, nil
}

func (c *Client) DocumentIDsAfter(ctx context.Context, afterID string, limit int) ([]string, error) {
	body, err := encode(renderIDsAfter(afterID, limit))
	if err != nil {
		return nil, err
	}

	res, err := opensearchapi.SearchRequest{Index: []string{c.index}, Body: body}.Do(ctx, c.client)
	if err := check(res, err, "list ids"); err != nil {
		return nil, err
	}
	var out searchResponse
	if err := decode(res, &out); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(out.Hits.Hits))
	for _, h := range out.Hits.Hits {
		ids = append(ids, h.ID)
	}
	return ids, nil
}

// count returns only the total number of matches for q.
func (c *Client) count(ctx context.Context, q *search.Query) (*search.HitSet, error) {
	rendered, err := renderCount(q)
	if err != nil {
		return nil, err
	}
	body, err := encode(rendered)
	if err != nil {
		return nil, err
	}

	res, err := opensearchapi.SearchRequest{Index: []string{c.index}, Body: body}.Do(ctx, c.client)
	if err := check(res, err, "count"); err != nil {
		return nil, err
	}
	var out searchResponse
	if err := decode(res, &out); err != nil {
		return nil, err
	}
	return &search.HitSet{Hits: []search.Hit{}, Total: out.Hits.Total.Value}, nil
}

func (c *Client) Refresh(ctx context.Context) error {
	res, err := opensearchapi.IndicesRefreshRequest{Index: []string{c.index}}.Do(ctx, c.client)
	return done(res, err, "refresh")
}

func refreshParam(refresh bool) string {
	if refresh {
		return "true"
	}
	return ""
}

// check turns a transport error or an error status into an error. On
// error the response body is consumed and closed.
func check(res *opensearchapi.Response, err error, op string) error {
	if err != nil {
		return fmt.Errorf("opensearch %s: %w", op, err)
	}
	if !res.IsError() {
		return nil
	}
	defer res.Body.Close()
	msg, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	return fmt.Errorf("opensearch %s: %s: %s", op, res.Status(), strings.TrimSpace(string(msg)))
}

// done is check for calls whose response body is not needed.
func done(res *opensearchapi.Response, err error, op string) error {
	if err := check(res, err, op); err != nil {
		return err
	}
	res.Body.Close()
	return nil
}

func decode(res *opensearchapi.Response, v any) error {
	defer res.Body.Close()
	if err := json.NewDecoder(res.Body).Decode(v); err != nil {
		return fmt.Errorf("decode opensearch response: %w", err)
	}
	return nil
}

func encode(v any) (io.Reader, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(b), nil
}

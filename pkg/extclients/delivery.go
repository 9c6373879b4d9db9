package extclients

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"
)

// RemoteDocument is the delivery service's view of a previously uploaded
// document, used for the content-hash dedup lookup.
type RemoteDocument struct {
	ID   string `json:"id"`
	Hash string `json:"hash"`
}

// RemoteCorrespondent and RemoteTag mirror the delivery service's own
// entities, looked up or created by name/normalized key before a document
// is patched with its field set.
type RemoteCorrespondent struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type RemoteTag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DeliveryClient talks to the document-management service Phase 5 uploads
// into: content-hash lookup, multipart upload, field patch, and
// correspondent/tag lookup-or-create.
type DeliveryClient struct {
	base baseClient
}

// NewDeliveryClient builds a DeliveryClient against baseURL.
func NewDeliveryClient(baseURL, token string, timeout time.Duration) *DeliveryClient {
	return &DeliveryClient{base: newBaseClient(baseURL, token, timeout)}
}

// FindByHash looks up a previously uploaded document by content hash.
// found is false (with a nil error) when no document has that hash yet.
func (c *DeliveryClient) FindByHash(ctx context.Context, hash string) (doc *RemoteDocument, found bool, err error) {
	var results []RemoteDocument
	path := "/documents?hash=" + url.QueryEscape(hash)
	if err := c.base.doJSON(ctx, "GET", path, nil, &results); err != nil {
		return nil, false, err
	}
	if len(results) == 0 {
		return nil, false, nil
	}
	return &results[0], true, nil
}

// Upload submits blob as a new document. A 409 response is treated as
// "already exists" rather than an error: the caller should fall back to
// FindByHash to recover the existing document's ID.
func (c *DeliveryClient) Upload(ctx context.Context, filename, mimeType string, blob []byte) (id string, duplicate bool, err error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("document", filename)
	if err != nil {
		return "", false, fmt.Errorf("extclients: create form file: %w", err)
	}
	if _, err := part.Write(blob); err != nil {
		return "", false, fmt.Errorf("extclients: write form file: %w", err)
	}
	if err := writer.WriteField("mime_type", mimeType); err != nil {
		return "", false, fmt.Errorf("extclients: write mime field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", false, fmt.Errorf("extclients: close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.base.baseURL+"/documents", &body)
	if err != nil {
		return "", false, fmt.Errorf("extclients: build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if c.base.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.base.token)
	}

	resp, err := c.base.http.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("extclients: upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		return "", true, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", false, &StatusError{StatusCode: resp.StatusCode}
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := jsonDecodeBody(resp, &created); err != nil {
		return "", false, err
	}
	return created.ID, false, nil
}

// PatchFields patches a document's custom-field set.
func (c *DeliveryClient) PatchFields(ctx context.Context, documentID string, fields map[string]string) error {
	path := "/documents/" + url.PathEscape(documentID)
	return c.base.doJSON(ctx, "PATCH", path, map[string]any{"fields": fields}, nil)
}

// ResolveCorrespondent looks up a remote correspondent by name, creating
// one if absent.
func (c *DeliveryClient) ResolveCorrespondent(ctx context.Context, name string) (*RemoteCorrespondent, error) {
	var matches []RemoteCorrespondent
	path := "/correspondents?name=" + url.QueryEscape(name)
	if err := c.base.doJSON(ctx, "GET", path, nil, &matches); err != nil {
		return nil, err
	}
	if len(matches) > 0 {
		return &matches[0], nil
	}

	var created RemoteCorrespondent
	if err := c.base.doJSON(ctx, "POST", "/correspondents", map[string]string{"name": name}, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// DeleteCorrespondent removes the remote correspondent with the given ID.
func (c *DeliveryClient) DeleteCorrespondent(ctx context.Context, id string) error {
	path := "/correspondents/" + url.PathEscape(id)
	return c.base.doJSON(ctx, "DELETE", path, nil, nil)
}

// ResolveTag looks up a remote tag by name, creating one if absent.
func (c *DeliveryClient) ResolveTag(ctx context.Context, name string) (*RemoteTag, error) {
	var matches []RemoteTag
	path := "/tags?name=" + url.QueryEscape(name)
	if err := c.base.doJSON(ctx, "GET", path, nil, &matches); err != nil {
		return nil, err
	}
	if len(matches) > 0 {
		return &matches[0], nil
	}

	var created RemoteTag
	if err := c.base.doJSON(ctx, "POST", "/tags", map[string]string{"name": name}, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// Copyright (c) 2025 The Archivista Authors
// SPDX-License-Identifier: MIT

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Document is one ingested file as listed by the backend.
type Document struct {
	FileName   string    `json:"file_name"`
	UserID     string    `json:"user_id"`
	DocumentID string    `json:"document_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// UploadResult is the backend's answer to a successful upload.
type UploadResult struct {
	Filename string `json:"filename"`
	Status   string `json:"status"`
	Ingested bool   `json:"ingested"`
}

// Documents lists the user's ingested documents, newest-first.
func (c *Client) Documents(ctx context.Context) ([]Document, error) {
	var docs []Document
	if err := c.getJSON(ctx, c.opts.BaseURL+c.opts.DocumentListPath, "", &docs); err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].CreatedAt.After(docs[j].CreatedAt)
	})
	return docs, nil
}

// UploadDocument sends one local file for ingestion as a multipart form
// under the "file" field.
func (c *Client) UploadDocument(ctx context.Context, path string) (*UploadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload form: %w", err)
	}

	body, err := c.uploadOnce(ctx, buf.Bytes(), writer.FormDataContentType())
	if errors.Is(err, ErrUnauthenticated) {
		if refreshErr := c.authClient.Refresh(ctx); refreshErr != nil {
			return nil, ErrUnauthenticated
		}
		body, err = c.uploadOnce(ctx, buf.Bytes(), writer.FormDataContentType())
	}
	if err != nil {
		return nil, err
	}

	var result UploadResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}
	return &result, nil
}

func (c *Client) uploadOnce(ctx context.Context, form []byte, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.opts.BaseURL+c.opts.DocumentUploadPath, bytes.NewReader(form))
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if token := c.store.AccessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(resp.StatusCode, body)
	}
	return body, nil
}

// DeleteDocument removes one ingested document. Deleting a document that no
// longer exists returns ErrNotFound so the UI can show a distinct message.
func (c *Client) DeleteDocument(ctx context.Context, documentID string) error {
	url := c.opts.BaseURL + c.opts.DocumentDeletePrefix + documentID
	if err := c.doSimple(ctx, http.MethodDelete, url, ""); err != nil {
		return fmt.Errorf("failed to delete document %s: %w", documentID, err)
	}
	return nil
}

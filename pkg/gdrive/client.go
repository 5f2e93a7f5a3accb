// Package gdrive is a minimal Google Drive v3 client covering the
// multipart upload used by resume export. Authentication is a bearer
// token supplied by configuration; token refresh belongs to the
// deployment, not this client.
package gdrive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"time"
)

var ErrInvalidConfig = errors.New("invalid google drive config")

// Config represents the configuration for the Drive client
type Config struct {
	AccessToken string
	BaseURL     string // e.g. https://www.googleapis.com/drive/v3
	UploadURL   string // e.g. https://www.googleapis.com/upload/drive/v3
	FolderID    string // optional destination folder
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.AccessToken == "" || c.BaseURL == "" || c.UploadURL == "" {
		return ErrInvalidConfig
	}
	return nil
}

// File represents the subset of Drive file metadata this service uses
type File struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MimeType    string `json:"mimeType"`
	WebViewLink string `json:"webViewLink"`
}

type Client struct {
	config     Config
	httpClient *http.Client
}

// NewClient creates a new Google Drive client with the given configuration
func NewClient(config Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}, nil
}

// UploadDocument uploads content as a Google Doc via the multipart
// upload endpoint and returns the created file metadata.
func (c *Client) UploadDocument(ctx context.Context, name, contentType string, content []byte) (*File, error) {
	metadata := map[string]interface{}{
		"name":     name,
		"mimeType": "application/vnd.google-apps.document",
	}
	if c.config.FolderID != "" {
		metadata["parents"] = []string{c.config.FolderID}
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	metaHeader := textproto.MIMEHeader{}
	metaHeader.Set("Content-Type", "application/json; charset=UTF-8")
	metaPart, err := writer.CreatePart(metaHeader)
	if err != nil {
		return nil, fmt.Errorf("failed to create metadata part: %w", err)
	}
	if err := json.NewEncoder(metaPart).Encode(metadata); err != nil {
		return nil, fmt.Errorf("failed to encode metadata: %w", err)
	}

	contentHeader := textproto.MIMEHeader{}
	contentHeader.Set("Content-Type", contentType)
	contentPart, err := writer.CreatePart(contentHeader)
	if err != nil {
		return nil, fmt.Errorf("failed to create content part: %w", err)
	}
	if _, err := contentPart.Write(content); err != nil {
		return nil, fmt.Errorf("failed to write content: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	url := fmt.Sprintf("%s/files?uploadType=multipart&fields=id,name,mimeType,webViewLink", c.config.UploadURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.AccessToken)
	req.Header.Set("Content-Type", "multipart/related; boundary="+writer.Boundary())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("drive api error: status %d: %s", resp.StatusCode, string(respBody))
	}

	var file File
	if err := json.Unmarshal(respBody, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal file metadata: %w", err)
	}

	return &file, nil
}

// GetFile fetches metadata for an exported file.
func (c *Client) GetFile(ctx context.Context, fileID string) (*File, error) {
	url := fmt.Sprintf("%s/files/%s?fields=id,name,mimeType,webViewLink", c.config.BaseURL, fileID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.AccessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("drive api error: status %d: %s", resp.StatusCode, string(respBody))
	}

	var file File
	if err := json.Unmarshal(respBody, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal file metadata: %w", err)
	}

	return &file, nil
}

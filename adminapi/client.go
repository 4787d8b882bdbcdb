// Package adminapi wraps the admin endpoints of the booking platform. All
// calls go through a Performer so an expired credential is refreshed and
// the call replayed transparently.
package adminapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"

	"github.com/jrsteele09/go-auth-client/dispatch"
)

const (
	createTourPath = "/admin/tour/create"
	updateTourPath = "/admin/tour/update/"
	uploadPath     = "/file-router/simple-upload"

	uploadField = "file"
)

// Performer sends an authenticated request. *session.Client implements it.
type Performer interface {
	Perform(ctx context.Context, req *dispatch.Request) (*dispatch.Response, error)
}

type Client struct {
	performer Performer
}

func New(performer Performer) *Client {
	return &Client{performer: performer}
}

// UploadedFile is the server's description of a stored upload.
type UploadedFile struct {
	URL  string `json:"url"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// CreateTour validates tour for lang and submits it.
func (c *Client) CreateTour(ctx context.Context, tour *Tour, lang Language) error {
	if err := tour.Validate(lang); err != nil {
		return err
	}
	return c.sendJSON(ctx, http.MethodPost, createTourPath, tour)
}

// UpdateTour replaces the tour identified by id.
func (c *Client) UpdateTour(ctx context.Context, id string, tour *Tour) error {
	if id == "" {
		return ErrMissingTourID
	}
	return c.sendJSON(ctx, http.MethodPut, updateTourPath+url.PathEscape(id), tour)
}

// UploadFile sends content as a multipart form under the field "file". The
// whole body is buffered so the upload can be replayed after a refresh.
func (c *Client) UploadFile(ctx context.Context, name, contentType string, content io.Reader) (UploadedFile, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, uploadField, name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := w.CreatePart(header)
	if err != nil {
		return UploadedFile{}, fmt.Errorf("[adminapi UploadFile] create part: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return UploadedFile{}, fmt.Errorf("[adminapi UploadFile] read content: %w", err)
	}
	if err := w.Close(); err != nil {
		return UploadedFile{}, fmt.Errorf("[adminapi UploadFile] close form: %w", err)
	}

	req := &dispatch.Request{
		Method: http.MethodPost,
		Path:   uploadPath,
		Header: http.Header{"Content-Type": []string{w.FormDataContentType()}},
		Body:   buf.Bytes(),
	}
	resp, err := c.performer.Perform(ctx, req)
	if err != nil {
		return UploadedFile{}, err
	}

	var uploaded UploadedFile
	if err := resp.DecodeJSON(&uploaded); err != nil {
		return UploadedFile{}, err
	}
	if uploaded.URL == "" {
		return UploadedFile{}, ErrEmptyUpload
	}
	return uploaded, nil
}

func (c *Client) sendJSON(ctx context.Context, method, path string, body any) error {
	req, err := dispatch.NewJSONRequest(method, path, body)
	if err != nil {
		return err
	}
	_, err = c.performer.Perform(ctx, req)
	return err
}

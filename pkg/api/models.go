package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/google/uuid"
)

// Multipart field names of the model upload.
const (
	FieldVideo       = "video"
	FieldTenantID    = "restaurantId"
	FieldName        = "name"
	FieldDescription = "description"
	FieldCategory    = "category"
)

// ListModels returns the models owned by tenantID.
func (c *Client) ListModels(ctx context.Context, tenantID string) ([]Model, error) {
	var models []Model
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("models", "restaurant", tenantID), nil, &models); err != nil {
		return nil, err
	}
	return models, nil
}

// GetModel returns a single model.
func (c *Client) GetModel(ctx context.Context, id string) (*Model, error) {
	var m Model
	if err := c.doJSON(ctx, http.MethodGet, c.endpoint("models", id), nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// DeleteModel removes model id.
func (c *Client) DeleteModel(ctx context.Context, id string) error {
	if err := c.doJSON(ctx, http.MethodDelete, c.endpoint("models", id), nil, nil); err != nil {
		return err
	}
	c.logger.Info("model deleted", "id", id)
	return nil
}

// UploadModel submits a recorded video and its metadata as one multipart
// POST. The body is streamed from req.Video; there is no automatic retry.
//
// A non-2xx response is returned as *APIError carrying the backend's
// message, or GenericFailureMessage when the payload is unreadable.
func (c *Client) UploadModel(ctx context.Context, req UploadRequest) (*Model, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name", ErrMissingField)
	}
	if req.TenantID == "" {
		return nil, fmt.Errorf("%w: tenant", ErrMissingField)
	}
	if req.Video == nil {
		return nil, ErrNoVideo
	}
	if req.Filename == "" {
		req.Filename = "capture.webm"
	}
	if req.ContentType == "" {
		req.ContentType = "application/octet-stream"
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.UploadTimeout)
	defer cancel()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		pw.CloseWithError(writeUploadForm(mw, req))
	}()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("models", "upload"), pr)
	if err != nil {
		pr.Close()
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	httpReq.Header.Set("X-Request-ID", requestID)

	c.logger.Info("uploading model",
		"request_id", requestID,
		"tenant", req.TenantID,
		"name", req.Name,
		"bytes", req.Size,
	)

	var m Model
	if err := c.send(httpReq, &m); err != nil {
		pr.CloseWithError(err)
		c.logger.Warn("model upload failed", "request_id", requestID, "error", err)
		return nil, err
	}

	c.logger.Info("model uploaded", "request_id", requestID, "model_id", m.ID)
	return &m, nil
}

func writeUploadForm(mw *multipart.Writer, req UploadRequest) error {
	fields := []struct{ name, value string }{
		{FieldTenantID, req.TenantID},
		{FieldName, strings.TrimSpace(req.Name)},
		{FieldDescription, req.Description},
		{FieldCategory, req.Category},
	}
	for _, f := range fields {
		if err := mw.WriteField(f.name, f.value); err != nil {
			return err
		}
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, FieldVideo, req.Filename))
	h.Set("Content-Type", req.ContentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, req.Video); err != nil {
		return fmt.Errorf("writing video: %w", err)
	}

	return mw.Close()
}

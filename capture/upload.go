package capture

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

	"github.com/h2non/filetype"
)

var ErrUnsupportedUpload = errors.New("upload content is not a supported image")

// Uploader stores captured bytes and returns a stable url
type Uploader interface {
	Upload(ctx context.Context, data []byte, filename string) (string, error)
}

// HTTPUploader posts files as multipart/form-data to a fixed endpoint
type HTTPUploader struct {
	endpoint string
	field    string
	client   *http.Client
}

var _ Uploader = (*HTTPUploader)(nil)

// NewHTTPUploader creates an uploader. Timeouts come from the caller's context.
func NewHTTPUploader(endpoint string, client *http.Client) *HTTPUploader {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPUploader{endpoint: endpoint, field: "file", client: client}
}

type uploadResponse struct {
	URL       string `json:"url"`
	SecureURL string `json:"secure_url"`
	Data      *struct {
		URL string `json:"url"`
	} `json:"data"`
}

func (u *HTTPUploader) Upload(ctx context.Context, data []byte, filename string) (string, error) {
	mimeType, err := SniffImage(data)
	if err != nil {
		return "", err
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, u.field, filename))
	header.Set("Content-Type", mimeType)
	part, err := w.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("failed to create multipart part: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("failed to write multipart body: %w", err)
	}
	if err := w.WriteField("filename", filename); err != nil {
		return "", fmt.Errorf("failed to write multipart field: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, &body)
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read upload response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("upload host returned status %d", resp.StatusCode)
	}

	var out uploadResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	switch {
	case out.SecureURL != "":
		return out.SecureURL, nil
	case out.URL != "":
		return out.URL, nil
	case out.Data != nil && out.Data.URL != "":
		return out.Data.URL, nil
	}
	return "", fmt.Errorf("upload response has no url")
}

// SniffImage returns the MIME type of image bytes by their magic numbers
func SniffImage(data []byte) (string, error) {
	kind, err := filetype.Match(data)
	if err != nil || kind == filetype.Unknown || !filetype.IsImage(data) {
		return "", ErrUnsupportedUpload
	}
	return kind.MIME.Value, nil
}

// DriveFiles stores files in a Drive folder
type DriveFiles interface {
	UploadFile(ctx context.Context, folderID, name, mimeType string, content io.Reader) (string, error)
}

// DriveUploader stores captures in a Google Drive folder
type DriveUploader struct {
	drive    DriveFiles
	folderID string
}

var _ Uploader = (*DriveUploader)(nil)

func NewDriveUploader(drive DriveFiles, folderID string) *DriveUploader {
	return &DriveUploader{drive: drive, folderID: folderID}
}

func (u *DriveUploader) Upload(ctx context.Context, data []byte, filename string) (string, error) {
	mimeType, err := SniffImage(data)
	if err != nil {
		return "", err
	}
	url, err := u.drive.UploadFile(ctx, u.folderID, filename, mimeType, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to upload to drive: %w", err)
	}
	return url, nil
}

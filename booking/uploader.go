package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
)

// FirebaseUploader stores objects through the Firebase Storage REST API.
type FirebaseUploader struct {
	bucket string
	httpc  *http.Client
}

// NewFirebaseUploader creates an uploader for the given storage bucket.
func NewFirebaseUploader(bucket string) *FirebaseUploader {
	return &FirebaseUploader{
		bucket: bucket,
		httpc:  &http.Client{Timeout: 60 * time.Second},
	}
}

// Upload streams the object and returns its download URL.
func (u *FirebaseUploader) Upload(ctx context.Context, name string, r io.Reader) (string, error) {
	endpoint := fmt.Sprintf(
		"https://firebasestorage.googleapis.com/v0/b/%s/o?uploadType=media&name=%s",
		u.bucket, url.QueryEscape(name),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, r)
	if err != nil {
		return "", errors.Wrap(err, "[FirebaseUploader.Upload] NewRequestWithContext")
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := u.httpc.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "[FirebaseUploader.Upload] request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", errors.Errorf("[FirebaseUploader.Upload] storage responded %d", resp.StatusCode)
	}

	var object struct {
		Name          string `json:"name"`
		DownloadToken string `json:"downloadTokens"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&object); err != nil {
		return "", errors.Wrap(err, "[FirebaseUploader.Upload] decode response")
	}

	download := fmt.Sprintf(
		"https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media",
		u.bucket, url.PathEscape(object.Name),
	)
	if object.DownloadToken != "" {
		download += "&token=" + object.DownloadToken
	}
	return download, nil
}

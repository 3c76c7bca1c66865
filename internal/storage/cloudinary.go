package storage

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"
)

const cloudinaryAPIBase = "https://api.cloudinary.com/v1_1"

// CloudinaryConfig holds the three credentials plus the target folder.
type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// CloudinaryStorage uses the Cloudinary upload API with signed requests.
// Uses raw HTTP calls (no SDK).
type CloudinaryStorage struct {
	cfg        CloudinaryConfig
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

// NewCloudinaryStorage creates a CloudinaryStorage.
func NewCloudinaryStorage(cfg CloudinaryConfig) *CloudinaryStorage {
	return &CloudinaryStorage{
		cfg:        cfg,
		baseURL:    cloudinaryAPIBase,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		now:        time.Now,
	}
}

var _ Storage = (*CloudinaryStorage)(nil)

type cloudinaryResponse struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
	Result    string `json:"result"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload sends the image. The public id is the key without its extension,
// prefixed by the configured folder.
func (c *CloudinaryStorage) Upload(ctx context.Context, key string, data io.Reader, _ string) (Asset, error) {
	publicID := strings.TrimSuffix(path.Base(key), path.Ext(key))
	params := map[string]string{
		"public_id": publicID,
		"timestamp": strconv.FormatInt(c.now().Unix(), 10),
	}
	if c.cfg.Folder != "" {
		params["folder"] = c.cfg.Folder
	}
	params["signature"] = c.sign(params)
	params["api_key"] = c.cfg.APIKey

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range params {
		if err := mw.WriteField(k, v); err != nil {
			return Asset{}, err
		}
	}
	fw, err := mw.CreateFormFile("file", path.Base(key))
	if err != nil {
		return Asset{}, err
	}
	if _, err := io.Copy(fw, data); err != nil {
		return Asset{}, fmt.Errorf("cloudinary upload: read image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return Asset{}, err
	}

	res, err := c.post(ctx, "/image/upload", mw.FormDataContentType(), &body)
	if err != nil {
		return Asset{}, fmt.Errorf("cloudinary upload: %w", err)
	}
	if res.PublicID == "" || res.SecureURL == "" {
		return Asset{}, errors.New("cloudinary upload: incomplete response")
	}
	return Asset{URL: res.SecureURL, PublicID: res.PublicID}, nil
}

// Delete destroys the asset. "not found" counts as deleted.
func (c *CloudinaryStorage) Delete(ctx context.Context, publicID string) error {
	params := map[string]string{
		"public_id":  publicID,
		"invalidate": "true",
		"timestamp":  strconv.FormatInt(c.now().Unix(), 10),
	}
	params["signature"] = c.sign(params)
	params["api_key"] = c.cfg.APIKey

	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	res, err := c.post(ctx, "/image/destroy", "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("cloudinary destroy %s: %w", publicID, err)
	}
	switch res.Result {
	case "ok", "not found":
		return nil
	default:
		return fmt.Errorf("cloudinary destroy %s: result %q", publicID, res.Result)
	}
}

func (c *CloudinaryStorage) post(ctx context.Context, endpoint, contentType string, body io.Reader) (*cloudinaryResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/"+url.PathEscape(c.cfg.CloudName)+endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var res cloudinaryResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&res); err != nil {
		return nil, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}
	if res.Error != nil {
		return nil, errors.New(res.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return &res, nil
}

// sign computes the SHA-1 request signature: the sorted k=v pairs joined
// by '&' with the API secret appended.
func (c *CloudinaryStorage) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+params[k])
	}
	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + c.cfg.APISecret))
	return hex.EncodeToString(sum[:])
}

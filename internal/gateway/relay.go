package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"time"

	"portfolio-site/internal/colorutil"
)

const maxUpstreamResponseBytes = 64 * 1024

// Upload is an image received from the visitor.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// PaletteExtractor turns an image into a list of hex colors.
type PaletteExtractor interface {
	Extract(ctx context.Context, img Upload, numColors int) ([]string, error)
}

// PaletteClient relays uploads to the external palette service as multipart form posts.
type PaletteClient struct {
	Endpoint string
	Client   *http.Client
}

func NewPaletteClient(endpoint string, timeout time.Duration) *PaletteClient {
	return &PaletteClient{Endpoint: endpoint, Client: &http.Client{Timeout: timeout}}
}

func (c *PaletteClient) Extract(ctx context.Context, img Upload, numColors int) ([]string, error) {
	body, contentType, err := encodeUpload(img, numColors)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		if cause := context.Cause(ctx); cause != nil {
			return nil, cause
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxUpstreamResponseBytes))
		return nil, fmt.Errorf("%w: %d", ErrUpstreamStatus, resp.StatusCode)
	}

	var payload struct {
		Palette []string `json:"palette"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxUpstreamResponseBytes)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamResponse, err)
	}
	if len(payload.Palette) == 0 {
		return nil, fmt.Errorf("%w: empty palette", ErrUpstreamResponse)
	}

	out := make([]string, 0, len(payload.Palette))
	for _, raw := range payload.Palette {
		hex, err := colorutil.ParseHex(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUpstreamResponse, err)
		}
		out = append(out, hex.String())
	}
	return out, nil
}

func encodeUpload(img Upload, numColors int) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	filename := img.Filename
	if filename == "" {
		filename = "upload"
	}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filename))
	header.Set("Content-Type", img.ContentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(img.Data); err != nil {
		return nil, "", err
	}
	if err := mw.WriteField("num_colors", strconv.Itoa(numColors)); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

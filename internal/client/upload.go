package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"sync"

	"go.uber.org/zap"
)

type File struct {
	Field   string
	Name    string
	Content io.Reader
}

// Upload posts fields and files as multipart/form-data. onProgress, when set,
// receives the share of the body sent so far in percent. Each attempt is
// bounded by the upload timeout.
func (c *Client) Upload(ctx context.Context, path string, fields map[string]string, files []File, onProgress func(percent int)) Envelope {
	body, contentType, err := buildMultipart(fields, files)
	if err != nil {
		return transportFailure(err)
	}
	return c.upload(ctx, path, body, contentType, onProgress, 0)
}

func (c *Client) upload(ctx context.Context, path string, body []byte, contentType string, onProgress func(int), attempt int) Envelope {
	actx, cancel := context.WithTimeout(ctx, c.uploadTimeout)
	defer cancel()

	var r io.Reader = bytes.NewReader(body)
	if onProgress != nil {
		r = &progressReader{r: r, total: int64(len(body)), report: onProgress, last: -1}
	}

	resp, err := c.roundTrip(actx, http.MethodPost, path, r, contentType, int64(len(body)))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return failure(msgUploadTimeout)
		}
		c.log.Debug("client.upload", zap.Error(err))
		return failure(msgNetworkError)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized && c.mayRefresh(attempt) {
		_, _ = io.Copy(io.Discard, resp.Body)
		if c.Refresh(ctx) {
			return c.upload(ctx, path, body, contentType, onProgress, attempt+1)
		}
		c.redirectToLogin()
		return failure(msgAuthFailed)
	}
	env := readEnvelope(resp.Body)
	env.Status = resp.StatusCode
	return env
}

func buildMultipart(fields map[string]string, files []File) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, "", fmt.Errorf("write field %s: %w", k, err)
		}
	}
	for _, f := range files {
		part, err := mw.CreateFormFile(f.Field, f.Name)
		if err != nil {
			return nil, "", fmt.Errorf("create part %s: %w", f.Name, err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, "", fmt.Errorf("copy %s: %w", f.Name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}

type progressReader struct {
	r      io.Reader
	total  int64
	report func(int)

	mu   sync.Mutex
	read int64
	last int
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.total > 0 {
		p.mu.Lock()
		p.read += int64(n)
		pct := int(math.Round(float64(p.read) * 100 / float64(p.total)))
		changed := pct != p.last
		p.last = pct
		p.mu.Unlock()
		if changed {
			p.report(pct)
		}
	}
	return n, err
}

package client

import (
	"context"
	"io"
	"mime"
	"net/http"
)

const defaultFilename = "download"

type Blob struct {
	Data        []byte
	Filename    string
	ContentType string
}

// Download fetches a file under the same refresh policy as Do. On failure the
// blob is nil and the envelope says why.
func (c *Client) Download(ctx context.Context, path string) (*Blob, Envelope) {
	return c.download(ctx, path, 0)
}

func (c *Client) download(ctx context.Context, path string, attempt int) (*Blob, Envelope) {
	rctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.roundTrip(rctx, http.MethodGet, path, nil, "", -1)
	if err != nil {
		return nil, transportFailure(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized && c.mayRefresh(attempt) {
		_, _ = io.Copy(io.Discard, resp.Body)
		if c.Refresh(ctx) {
			return c.download(ctx, path, attempt+1)
		}
		c.redirectToLogin()
		return nil, failure(msgAuthFailed)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := readEnvelope(resp.Body).Message
		if msg == "" || msg == msgInvalidResponse {
			msg = msgSomethingWrong
		}
		env := failure(msg)
		env.Status = resp.StatusCode
		return nil, env
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportFailure(err)
	}
	return &Blob{
		Data:        data,
		Filename:    filename(resp.Header.Get("Content-Disposition")),
		ContentType: resp.Header.Get("Content-Type"),
	}, Envelope{Success: true, Status: resp.StatusCode}
}

func filename(disposition string) string {
	if disposition == "" {
		return defaultFilename
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil || params["filename"] == "" {
		return defaultFilename
	}
	return params["filename"]
}

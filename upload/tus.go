package upload

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	tusVersion        = "1.0.0"
	offsetContentType = "application/offset+octet-stream"

	uploadOffsetHeader = "Upload-Offset"
)

// tusClient speaks the resumable-upload protocol against a negotiated upload
// URL. Protocol operations are never retried here: a retry could re-send
// bytes the server already applied, so retry policy stays with the caller.
type tusClient struct {
	httpClient  *http.Client
	accessToken Secret
}

func newTusClient(httpClient *http.Client, accessToken Secret) tusClient {
	if httpClient == nil {
		httpClient = defaultTusHTTPClient()
	}
	return tusClient{
		httpClient:  httpClient,
		accessToken: accessToken,
	}
}

// defaultTusHTTPClient is tuned for long-running chunk submissions. No
// client-level timeout: per-chunk timeouts and pause cancellation are
// handled via the request context.
func defaultTusHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 0,
		Transport: &http.Transport{
			MaxIdleConns:        50,
			MaxConnsPerHost:     20,
			IdleConnTimeout:     10 * time.Second,
			TLSHandshakeTimeout: 5 * time.Second,
			Proxy:               http.ProxyFromEnvironment,
		},
	}
}

// fetchOffset asks the server how many bytes it has durably received. The
// server's answer is authoritative; any client-tracked offset is discarded
// in its favor.
func (c tusClient) fetchOffset(ctx context.Context, uploadURL string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, uploadURL, nil)
	if err != nil {
		return 0, err
	}
	c.setProtocolHeaders(req.Header)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, newStatusError(resp.StatusCode, "unexpected status on offset query")
	}

	offset, ok := parseOffset(resp.Header.Get(uploadOffsetHeader))
	if !ok {
		return 0, newProtocolError("offset query response carries no parsable %s header", uploadOffsetHeader)
	}
	return offset, nil
}

// patchChunk submits one chunk starting at offset and returns the offset the
// server confirms afterwards. The confirmed offset must equal offset plus
// the chunk length; a mismatch means client and server disagree on byte
// position and the transfer must abort rather than risk silent data loss.
func (c tusClient) patchChunk(ctx context.Context, uploadURL string, offset int64, chunk io.Reader, chunkLen int64) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, uploadURL, chunk)
	if err != nil {
		return 0, err
	}
	c.setProtocolHeaders(req.Header)
	req.Header.Set(uploadOffsetHeader, fmt.Sprintf("%d", offset))
	req.Header.Set("Content-Type", offsetContentType)
	req.ContentLength = chunkLen

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, newStatusError(resp.StatusCode, "unexpected status on chunk submission")
	}

	confirmed, ok := parseOffset(resp.Header.Get(uploadOffsetHeader))
	if !ok {
		return 0, newProtocolError("chunk submission response carries no parsable %s header", uploadOffsetHeader)
	}

	expected := offset + chunkLen
	if confirmed != expected {
		return 0, newProtocolError("server confirmed offset %d, expected %d", confirmed, expected)
	}
	return confirmed, nil
}

func (c tusClient) setProtocolHeaders(header http.Header) {
	header.Set("Tus-Resumable", tusVersion)
	header.Set("Accept", acceptHeader)
	header.Set("Authorization", fmt.Sprintf("Bearer %s", string(c.accessToken)))
}

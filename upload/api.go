package upload

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/hashicorp/go-retryablehttp"
)

const (
	acceptHeader = "application/vnd.vimeo.*+json;version=3.4"

	statusAvailable = "available"
	qualityHLS      = "hls"
)

type createVideoResponse struct {
	URI    string `json:"uri"`
	Upload struct {
		UploadLink string `json:"upload_link"`
	} `json:"upload"`
}

type videoFile struct {
	Quality string `json:"quality"`
	Link    string `json:"link"`
}

type videoStatusResponse struct {
	Status string      `json:"status"`
	Files  []videoFile `json:"files"`
}

type apiClient struct {
	httpClient  *retryablehttp.Client
	baseURL     string
	accessToken Secret
	logger      log.Logger
}

func newAPIClient(client *retryablehttp.Client, baseURL string, accessToken Secret, logger log.Logger) apiClient {
	return apiClient{
		httpClient:  client,
		baseURL:     baseURL,
		accessToken: accessToken,
		logger:      logger,
	}
}

// createVideo negotiates a new upload session. The caller supplies the
// request body and any extra headers; the bearer credential and the
// versioned Accept header are always attached. A 404 status is accepted the
// same way as 2xx: it means no existing resource, proceed with the returned
// upload link.
func (c apiClient) createVideo(ctx context.Context, body []byte, headers map[string]string) (createVideoResponse, error) {
	url := fmt.Sprintf("%s/me/videos", c.baseURL)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return createVideoResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.setCommonHeaders(req.Header)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return createVideoResponse{}, err
	}
	defer c.closeBody(resp.Body)

	if !isAcceptedStatus(resp.StatusCode) {
		return createVideoResponse{}, newStatusError(resp.StatusCode, "unexpected status on video creation")
	}

	var response createVideoResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return createVideoResponse{}, err
	}
	return response, nil
}

// videoStatus fetches the transcode status and the available file variants
// of a video.
func (c apiClient) videoStatus(ctx context.Context, videoID string) (videoStatusResponse, error) {
	url := fmt.Sprintf("%s/videos/%s?fields=status,files", c.baseURL, videoID)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return videoStatusResponse{}, err
	}
	c.setCommonHeaders(req.Header)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return videoStatusResponse{}, err
	}
	defer c.closeBody(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return videoStatusResponse{}, unwrapError(resp)
	}

	var response videoStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return videoStatusResponse{}, err
	}
	return response, nil
}

// deleteVideo removes the remote video resource. A 404 means the resource is
// already gone, which is fine.
func (c apiClient) deleteVideo(ctx context.Context, videoID string) error {
	url := fmt.Sprintf("%s/videos/%s", c.baseURL, videoID)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	c.setCommonHeaders(req.Header)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer c.closeBody(resp.Body)

	if !isAcceptedStatus(resp.StatusCode) {
		return newStatusError(resp.StatusCode, "unexpected status on video deletion")
	}
	return nil
}

// moveToFolder files the video under the given folder. It reports whether
// the move was performed: a 404 (unknown folder or video) is not an error,
// just a no-op.
func (c apiClient) moveToFolder(ctx context.Context, folderID, videoID string) (bool, error) {
	url := fmt.Sprintf("%s/me/projects/%s/videos/%s", c.baseURL, folderID, videoID)

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPut, url, nil)
	if err != nil {
		return false, err
	}
	c.setCommonHeaders(req.Header)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer c.closeBody(resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, newStatusError(resp.StatusCode, "unexpected status on folder move")
	}
	return true, nil
}

func (c apiClient) setCommonHeaders(header http.Header) {
	header.Set("Authorization", fmt.Sprintf("Bearer %s", string(c.accessToken)))
	header.Set("Accept", acceptHeader)
}

func (c apiClient) closeBody(body io.ReadCloser) {
	if err := body.Close(); err != nil {
		c.logger.Printf(err.Error())
	}
}

// isAcceptedStatus reports whether the status is 2xx or 404. The creation
// and deletion endpoints treat 404 as "no existing resource, proceed".
func isAcceptedStatus(statusCode int) bool {
	if statusCode == http.StatusNotFound {
		return true
	}
	return statusCode >= 200 && statusCode < 300
}

func unwrapError(resp *http.Response) error {
	errorResp, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return fmt.Errorf("HTTP %d: %s", resp.StatusCode, errorResp)
}

// Package assemblyai implements the Transcriber interface on top of the
// AssemblyAI REST API: submit a transcription job for a media URL, then poll
// until it completes.
package assemblyai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spigell/selection-pipeline/internal/ai"
	"github.com/spigell/selection-pipeline/internal/utils"

	"go.uber.org/zap"
)

const (
	apiURL              = "https://api.assemblyai.com/v2"
	defaultPollInterval = 3 * time.Second
	defaultTimeout      = 5 * time.Minute

	statusCompleted = "completed"
	statusError     = "error"
)

type Client struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	APIURL     string
	// PollInterval is the delay between job status checks.
	PollInterval time.Duration
	// Timeout bounds one transcription end to end.
	Timeout time.Duration
}

func New(logger *zap.Logger, token string) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		token:  token,
		logger: logger,
		APIURL: apiURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		PollInterval: defaultPollInterval,
		Timeout:      defaultTimeout,
	}
}

type transcriptJob struct {
	ID     string `json:"id,omitempty"`
	Status string `json:"status,omitempty"`
	Text   string `json:"text,omitempty"`
	Error  string `json:"error,omitempty"`

	AudioURL string `json:"audio_url,omitempty"`
}

// Transcribe submits the media link and waits for the transcript. A provider
// failure or an expired deadline is returned as TranscriptionError so the
// batch can degrade the one candidate and continue.
func (c *Client) Transcribe(ctx context.Context, videoLink string) (string, error) {
	videoLink = strings.TrimSpace(videoLink)
	if videoLink == "" {
		return "", &ai.TranscriptionError{VideoLink: videoLink, Err: fmt.Errorf("video link is empty")}
	}

	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	job, err := c.submit(ctx, videoLink)
	if err != nil {
		return "", &ai.TranscriptionError{VideoLink: videoLink, Err: err}
	}

	c.logger.Debug("transcription job submitted",
		zap.String("job_id", job.ID),
		zap.String("status", job.Status),
	)

	for {
		switch job.Status {
		case statusCompleted:
			return strings.TrimSpace(job.Text), nil
		case statusError:
			return "", &ai.TranscriptionError{VideoLink: videoLink, Err: fmt.Errorf("provider error: %s", job.Error)}
		}

		if err := utils.WaitFor(ctx, c.PollInterval); err != nil {
			return "", &ai.TranscriptionError{VideoLink: videoLink, Err: err}
		}

		job, err = c.poll(ctx, job.ID)
		if err != nil {
			return "", &ai.TranscriptionError{VideoLink: videoLink, Err: err}
		}
	}
}

func (c *Client) submit(ctx context.Context, audioURL string) (*transcriptJob, error) {
	payload, err := json.Marshal(&transcriptJob{AudioURL: audioURL})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIURL+"/transcript", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

func (c *Client) poll(ctx context.Context, jobID string) (*transcriptJob, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIURL+"/transcript/"+jobID, nil)
	if err != nil {
		return nil, err
	}

	return c.do(req)
}

func (c *Client) do(req *http.Request) (*transcriptJob, error) {
	req.Header.Set("Authorization", c.token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var job transcriptJob
	if err := json.Unmarshal(body, &job); err != nil {
		return nil, fmt.Errorf("parse transcript response: %w", err)
	}

	return &job, nil
}

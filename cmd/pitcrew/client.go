package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/driveops/pitcrew"
)

// APIClient talks to a running pitcrew daemon.
type APIClient struct {
	baseURL string
	client  *http.Client
}

// NewAPIClient creates a new API client.
func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	if baseURL == "" {
		baseURL = "http://127.0.0.1:8080/api"
	}
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &APIClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *APIClient) StartProcess(name string) error {
	return c.post("/start?name=" + url.QueryEscape(name))
}

func (c *APIClient) StopProcess(name string) error {
	return c.post("/stop?name=" + url.QueryEscape(name))
}

func (c *APIClient) StopAll() error {
	return c.post("/stop-all")
}

// GetStatus returns one status when name is set, otherwise all of them.
func (c *APIClient) GetStatus(name string) ([]pitcrew.Status, error) {
	if name != "" {
		var st pitcrew.Status
		if err := c.get("/status?name="+url.QueryEscape(name), &st); err != nil {
			return nil, err
		}
		return []pitcrew.Status{st}, nil
	}
	var sts []pitcrew.Status
	if err := c.get("/status", &sts); err != nil {
		return nil, err
	}
	return sts, nil
}

func (c *APIClient) GetHighscores(env string) ([]pitcrew.Lap, error) {
	path := "/highscores"
	if env != "" {
		path += "?env=" + url.QueryEscape(env)
	}
	var laps []pitcrew.Lap
	if err := c.get(path, &laps); err != nil {
		return nil, err
	}
	return laps, nil
}

func (c *APIClient) GetCheckpoints(limit int) ([]pitcrew.Checkpoint, error) {
	var cps []pitcrew.Checkpoint
	if err := c.get(fmt.Sprintf("/checkpoints?limit=%d", limit), &cps); err != nil {
		return nil, err
	}
	return cps, nil
}

func (c *APIClient) GetHistory(name string, limit int) ([]pitcrew.HistoryRecord, error) {
	var recs []pitcrew.HistoryRecord
	path := fmt.Sprintf("/history?name=%s&limit=%d", url.QueryEscape(name), limit)
	if err := c.get(path, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

func (c *APIClient) GetConfig(key string) (any, error) {
	var entry struct {
		Key   string `json:"key"`
		Value any    `json:"value"`
	}
	if err := c.get("/config?key="+url.QueryEscape(key), &entry); err != nil {
		return nil, err
	}
	return entry.Value, nil
}

func (c *APIClient) SetConfig(key string, value any) error {
	body, err := json.Marshal(map[string]any{"key": key, "value": value})
	if err != nil {
		return err
	}
	resp, err := c.client.Post(c.baseURL+"/config", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	return checkResponse(resp)
}

func (c *APIClient) post(path string) error {
	resp, err := c.client.Post(c.baseURL+path, "application/json", nil)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	return checkResponse(resp)
}

func (c *APIClient) get(path string, out any) error {
	resp, err := c.client.Get(c.baseURL + path)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if err := checkResponse(resp); err != nil {
		return err
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func checkResponse(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	var errorResp struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&errorResp); err != nil {
		return fmt.Errorf("API error: status %d", resp.StatusCode)
	}
	return fmt.Errorf("API error: %s", errorResp.Error)
}

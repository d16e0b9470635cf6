package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	sessionCookieName = "xpubd_session"
	requestTimeout    = 30 * time.Second
)

var httpClient = &http.Client{Timeout: requestTimeout}

// callDaemon sends body as JSON to the daemon and decodes the JSON response
// into out. The session stored in the local state is attached, if any.
func callDaemon(method, path string, body, out interface{}) (*http.Response, error) {
	state, err := getState()
	if err != nil {
		return nil, err
	}
	server, ok := state[rpcServerKey]
	if !ok || server == "" {
		return nil, errors.New("set rpcserver with `config set rpcserver`")
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequest(method, strings.TrimRight(server, "/")+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if session := state[sessionKey]; session != "" {
		req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: session})
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to daemon: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var e struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(respBody, &e); err != nil || e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return nil, fmt.Errorf("%d: %s", resp.StatusCode, e.Error)
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return nil, fmt.Errorf("unable to decode response: %s", err)
		}
	}
	return resp, nil
}

func sessionFromResponse(resp *http.Response) string {
	for _, c := range resp.Cookies() {
		if c.Name == sessionCookieName {
			return c.Value
		}
	}
	return ""
}

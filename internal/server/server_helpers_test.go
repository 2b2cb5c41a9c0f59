package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type createdGame struct {
	ID       string
	JoinCode string
	HostID   string
}

func createGame(t *testing.T, ts *httptest.Server, payload map[string]any) createdGame {
	t.Helper()
	if payload == nil {
		payload = map[string]any{"name": "Host"}
	}
	resp := doRequest(t, ts, http.MethodPost, "/api/games", payload)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	return createdGame{
		ID:       body["game_id"].(string),
		JoinCode: body["join_code"].(string),
		HostID:   body["player_id"].(string),
	}
}

func joinPlayer(t *testing.T, ts *httptest.Server, codeOrID, name string) string {
	t.Helper()
	resp := doRequest(t, ts, http.MethodPost, "/api/games/"+codeOrID+"/join", map[string]string{
		"name": name,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	body := decodeBody(t, resp)
	return body["player_id"].(string)
}

func fetchSnapshot(t *testing.T, ts *httptest.Server, gameID string) map[string]any {
	t.Helper()
	resp := doRequest(t, ts, http.MethodGet, "/api/games/"+gameID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	return decodeBody(t, resp)
}

func currentRound(t *testing.T, snap map[string]any) map[string]any {
	t.Helper()
	current, ok := snap["current_round"].(map[string]any)
	if !ok {
		t.Fatalf("expected current_round in snapshot, got %#v", snap["current_round"])
	}
	return current
}

func doRequest(t *testing.T, ts *httptest.Server, method, path string, payload any) *http.Response {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func assertString(t *testing.T, value any, expected string) {
	t.Helper()
	str, ok := value.(string)
	if !ok {
		t.Fatalf("expected string %q, got %#v", expected, value)
	}
	if str != expected {
		t.Fatalf("expected %q, got %q", expected, str)
	}
}

func assertStatus(t *testing.T, resp *http.Response, expected int) {
	t.Helper()
	if resp.StatusCode != expected {
		t.Fatalf("expected status %d, got %d", expected, resp.StatusCode)
	}
}

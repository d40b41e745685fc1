package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

func main() {
	addr := getenv("OPS_ADDR", "http://localhost:8090")
	key := getenv("OPS_ADMIN_KEY", "")
	if len(os.Args) < 2 {
		log.Fatal("usage: node-admin <health|status|stats|terminate|reinitialize|policy|end-session|transitions|sessions|players> [arg]")
	}

	client := &http.Client{Timeout: 10 * time.Second}
	var (
		body []byte
		err  error
	)
	switch cmd := os.Args[1]; cmd {
	case "health":
		body, err = get(client, addr+"/healthz", "")
	case "status":
		body, err = get(client, addr+"/api/status", "")
	case "stats":
		body, err = get(client, addr+"/api/stats", "")
	case "terminate":
		body, err = post(client, addr+"/api/admin/terminate", key, map[string]string{"reason": argOr(2, "operator_requested")})
	case "reinitialize":
		body, err = post(client, addr+"/api/admin/reinitialize", key, nil)
	case "policy":
		body, err = post(client, addr+"/api/admin/policy", key, map[string]string{"policy": argOr(2, "accept_all")})
	case "end-session":
		body, err = post(client, addr+"/api/admin/session/end", key, map[string]string{"reason": argOr(2, "match_complete")})
	case "transitions":
		body, err = get(client, addr+"/api/journal/transitions?limit="+argOr(2, "20"), key)
	case "sessions":
		body, err = get(client, addr+"/api/journal/sessions?limit="+argOr(2, "20"), key)
	case "players":
		body, err = get(client, addr+"/api/journal/players?limit="+argOr(2, "20"), key)
	default:
		log.Fatalf("unknown command %q", cmd)
	}
	if err != nil {
		log.Fatal(err)
	}

	var pretty bytes.Buffer
	if json.Indent(&pretty, body, "", "  ") == nil {
		fmt.Println(pretty.String())
		return
	}
	fmt.Println(string(body))
}

func get(client *http.Client, url, key string) ([]byte, error) {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return do(client, req, key)
}

func post(client *http.Client, url, key string, payload map[string]string) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, _ := json.Marshal(payload)
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequest(http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return do(client, req, key)
}

func do(client *http.Client, req *http.Request, key string) ([]byte, error) {
	if key != "" {
		req.Header.Set("X-Admin-Key", key)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%s %s: %s: %s", req.Method, req.URL.Path, resp.Status, bytes.TrimSpace(data))
	}
	return data, nil
}

func argOr(i int, def string) string {
	if len(os.Args) > i && os.Args[i] != "" {
		return os.Args[i]
	}
	return def
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

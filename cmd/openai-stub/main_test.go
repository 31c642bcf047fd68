package main

import (
	"bufio"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCompletionFor_Modes(t *testing.T) {
	if got := completionFor(""); got != sampleScript {
		t.Fatalf("default mode should be clean JSON, got %q", got)
	}
	if got := completionFor("duplicate"); strings.Count(got, `"data"`) != 2 {
		t.Fatalf("duplicate mode should repeat the object: %q", got)
	}
	if got := completionFor("fenced"); !strings.Contains(got, "```json") {
		t.Fatalf("fenced mode missing fence: %q", got)
	}
	if got := completionFor("truncated"); strings.HasSuffix(got, "}}") {
		t.Fatalf("truncated mode should drop the closing braces: %q", got)
	}
}

func TestModeFor_UserToken(t *testing.T) {
	var req chatRequest
	req.Messages = append(req.Messages, struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}{Role: "user", Content: "Topic: owls stub:fenced please"})
	if got := modeFor("", req); got != "fenced" {
		t.Fatalf("modeFor = %q", got)
	}
	req.Messages[0].Content = "Topic: owls"
	if got := modeFor("duplicate", req); got != "duplicate" {
		t.Fatalf("default mode not kept: %q", got)
	}
}

func TestChunk(t *testing.T) {
	got := chunk("abcdefghij", 4)
	if strings.Join(got, "|") != "abcd|efgh|ij" {
		t.Fatalf("chunk = %v", got)
	}
	if len(chunk("", 4)) != 0 {
		t.Fatal("empty input should yield no chunks")
	}
}

func TestStreamingEndpoint(t *testing.T) {
	srv := httptest.NewServer(newMux("m", "duplicate", 0))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/chat/completions", "application/json", strings.NewReader(`{"model":"m","stream":true,"messages":[{"role":"user","content":"x"}]}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}
	var events int
	var done bool
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		line := sc.Text()
		if line == "data: [DONE]" {
			done = true
		} else if strings.HasPrefix(line, "data: ") {
			events++
		}
	}
	if !done || events != len(chunk(completionFor("duplicate"), 16)) {
		t.Fatalf("events=%d done=%v", events, done)
	}
}

func TestHTMLMode(t *testing.T) {
	srv := httptest.NewServer(newMux("m", "html", 0))
	defer srv.Close()
	resp, err := http.Post(srv.URL+"/v1/chat/completions", "application/json", strings.NewReader(`{"stream":true}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusBadGateway || !strings.Contains(string(b), "<html>") {
		t.Fatalf("status=%d body=%q", resp.StatusCode, b)
	}
}

// Command kirei-chat is an interactive terminal client for the kirei API.
package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
)

const banner = `# kirei

Your beauty advisor for salons and clinics in Japan.
Type a question, or /help for commands.`

const helpText = `## Commands

- ` + "`/top`" + ` show the highest rated providers
- ` + "`/stats`" + ` show collection statistics
- ` + "`/history`" + ` show the current conversation
- ` + "`/reindex`" + ` rebuild the semantic index
- ` + "`/quit`" + ` exit`

func main() {
	addr := flag.String("addr", "http://localhost:8080", "kirei server address")
	apiKey := flag.String("key", os.Getenv("KIREI_API_KEY"), "API key (Bearer token)")
	flag.Parse()

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to create renderer:", err)
		os.Exit(1)
	}

	c := &client{
		baseURL: strings.TrimRight(*addr, "/"),
		apiKey:  *apiKey,
		http:    &http.Client{Timeout: 60 * time.Second},
	}

	printMarkdown(renderer, banner)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch line {
		case "/quit", "/exit":
			return
		case "/help":
			printMarkdown(renderer, helpText)
		case "/top":
			c.showTop(renderer)
		case "/stats":
			c.showStats(renderer)
		case "/history":
			c.showHistory(renderer)
		case "/reindex":
			c.reindex()
		default:
			c.chat(renderer, line)
		}
	}
}

type client struct {
	baseURL   string
	apiKey    string
	sessionID string
	http      *http.Client
}

func (c *client) chat(renderer *glamour.TermRenderer, message string) {
	body, err := json.Marshal(map[string]string{
		"message":    message,
		"session_id": c.sessionID,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return
	}

	var resp struct {
		SessionID string `json:"session_id"`
		Reply     string `json:"reply"`
	}
	if err := c.do(http.MethodPost, "/api/chat", body, &resp); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return
	}

	c.sessionID = resp.SessionID
	printMarkdown(renderer, resp.Reply)
}

func (c *client) showTop(renderer *glamour.TermRenderer) {
	var resp struct {
		Items []struct {
			Name     string  `json:"name"`
			Category string  `json:"category"`
			Area     string  `json:"area"`
			Region   string  `json:"region"`
			Rating   float64 `json:"rating"`
		} `json:"items"`
	}
	if err := c.do(http.MethodGet, "/api/records/top", nil, &resp); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return
	}

	var b strings.Builder
	b.WriteString("## Top rated\n\n")
	for i, item := range resp.Items {
		fmt.Fprintf(&b, "%d. **%s** (%s, %s) %.1f\n", i+1, item.Name, item.Category, item.Area, item.Rating)
	}
	printMarkdown(renderer, b.String())
}

func (c *client) showStats(renderer *glamour.TermRenderer) {
	var stats struct {
		Total          int            `json:"total"`
		AverageRating  float64        `json:"average_rating"`
		CategoryCounts map[string]int `json:"category_counts"`
		RegionCounts   map[string]int `json:"region_counts"`
	}
	if err := c.do(http.MethodGet, "/api/stats", nil, &stats); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return
	}

	var b strings.Builder
	b.WriteString("## Collection\n\n")
	fmt.Fprintf(&b, "- providers: %d\n", stats.Total)
	fmt.Fprintf(&b, "- average rating: %.2f\n", stats.AverageRating)
	for cat, n := range stats.CategoryCounts {
		fmt.Fprintf(&b, "- %s: %d\n", cat, n)
	}
	printMarkdown(renderer, b.String())
}

func (c *client) showHistory(renderer *glamour.TermRenderer) {
	if c.sessionID == "" {
		fmt.Println("no conversation yet")
		return
	}

	var resp struct {
		Turns []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"turns"`
	}
	if err := c.do(http.MethodGet, "/api/history?session_id="+c.sessionID, nil, &resp); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return
	}

	var b strings.Builder
	b.WriteString("## Conversation\n\n")
	for _, turn := range resp.Turns {
		fmt.Fprintf(&b, "**%s:** %s\n\n", turn.Role, turn.Content)
	}
	printMarkdown(renderer, b.String())
}

func (c *client) reindex() {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.do(http.MethodPost, "/api/reindex", nil, &resp); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return
	}
	fmt.Println("reindex:", resp.Status)
}

func (c *client) do(method, path string, body []byte, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Message string `json:"message"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("%s: %s", resp.Status, apiErr.Message)
		}
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func printMarkdown(renderer *glamour.TermRenderer, md string) {
	out, err := renderer.Render(md)
	if err != nil {
		fmt.Println(md)
		return
	}
	fmt.Print(out)
}

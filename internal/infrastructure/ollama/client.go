package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"ScanNamer/internal/config"
	"ScanNamer/internal/ports"
)

// namingPrompt is the fixed instruction sent with every image. Temperature is
// pinned to zero so the same document always yields the same name.
const namingPrompt = "Analyze this image and return ONLY a filename. NO explanation. NO reasoning. NO extra text.\n" +
	"\n" +
	"FORMAT:\n" +
	"Documents: YYYY-MM-DD - Sender - Three Word Summary\n" +
	"Photos: Year - Subject - Location\n" +
	"\n" +
	"EXAMPLES:\n" +
	"Electric bill from Florida Power dated Dec 23, 2025 → 2025-12-23 - FloridaPower - Electric Bill\n" +
	"Marriage certificate from county clerk dated Jan 15, 2024 → 2024-01-15 - County Clerk - Marriage Certificate\n" +
	"Medical form from hospital with no date → 0000-00-00 - Hospital Name - Medical Form\n" +
	"Family photo at beach from 2010 → 2010 - Family Beach - Summer Vacation\n" +
	"Old photo with unknown year → 0000 - Person Name - Location Description\n" +
	"\n" +
	"Return ONLY the filename:"

// Client implements ports.NameOracle against an Ollama server's HTTP API.
type Client struct {
	host       string
	model      string
	httpClient *http.Client
}

var _ ports.NameOracle = (*Client)(nil)

// NewClient builds a client from configuration.
func NewClient(cfg config.OllamaConfig) *Client {
	return &Client{
		host:  strings.TrimRight(cfg.Host, "/"),
		model: cfg.Model,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout(),
		},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Options  chatOptions   `json:"options"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type chatOptions struct {
	Temperature float64 `json:"temperature"`
}

type chatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

// ProposeName sends the prepared image with the naming prompt and returns the
// model's answer trimmed of surrounding whitespace.
func (c *Client) ProposeName(ctx context.Context, imagePath string) (string, error) {
	if c.host == "" || c.model == "" {
		return "", fmt.Errorf("ollama client misconfigured")
	}

	raw, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{{
			Role:    "user",
			Content: namingPrompt,
			Images:  []string{base64.StdEncoding.EncodeToString(raw)},
		}},
		Options: chatOptions{Temperature: 0},
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	var reply chatResponse
	if err := c.post(ctx, "/api/chat", body, &reply); err != nil {
		return "", err
	}

	return strings.TrimSpace(reply.Message.Content), nil
}

type unloadRequest struct {
	Model     string `json:"model"`
	KeepAlive int    `json:"keep_alive"`
}

// Unload asks the host to evict the model from memory. Called best-effort on
// shutdown; a zero keep-alive frees the weights immediately.
func (c *Client) Unload(ctx context.Context) error {
	body, err := json.Marshal(unloadRequest{Model: c.model, KeepAlive: 0})
	if err != nil {
		return fmt.Errorf("marshal unload payload: %w", err)
	}
	return c.post(ctx, "/api/generate", body, nil)
}

func (c *Client) post(ctx context.Context, path string, body []byte, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("ollama error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	if v == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

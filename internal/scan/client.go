package scan

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	KeyEscape  = "Escape"
	KeyControl = "Control"
)

// KeyName maps a rune read from a raw terminal to a key event for Framer.
func KeyName(r rune) string {
	switch {
	case r == '\r' || r == '\n':
		return KeyEnter
	case r == 0x1b:
		return KeyEscape
	case r < 0x20 || r == 0x7f:
		return KeyControl
	default:
		return string(r)
	}
}

// Client submits framed codes to the server's scan endpoint on behalf of a
// signed-in cashier.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type Result struct {
	Status  int
	Name    string
	Total   string
	Items   int
	Message string
}

type scanReply struct {
	Error   string `json:"error"`
	Product *struct {
		Name string `json:"name"`
	} `json:"product"`
	Cart struct {
		Total     string `json:"total"`
		ItemCount int    `json:"item_count"`
	} `json:"cart"`
}

// Submit posts one code. Rejections such as unknown or out-of-stock codes
// come back as a Result with the server's message, not as an error.
func (c *Client) Submit(ctx context.Context, code string) (Result, error) {
	body, err := json.Marshal(map[string]string{"code": code})
	if err != nil {
		return Result{}, fmt.Errorf("encode scan: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/cart/scan", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("build scan request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("post scan: %w", err)
	}
	defer resp.Body.Close()

	var reply scanReply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return Result{}, fmt.Errorf("decode scan reply (status %d): %w", resp.StatusCode, err)
	}
	res := Result{
		Status:  resp.StatusCode,
		Total:   reply.Cart.Total,
		Items:   reply.Cart.ItemCount,
		Message: reply.Error,
	}
	if reply.Product != nil {
		res.Name = reply.Product.Name
	}
	return res, nil
}

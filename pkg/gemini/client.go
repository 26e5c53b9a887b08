// Package gemini provides a lightweight client for the Gemini generateContent API.
// Uses raw HTTP calls (no SDK) to minimize external dependencies.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
)

const (
	// DefaultModel は未指定時に使うモデル
	DefaultModel = "gemini-2.0-flash"

	// BackendVertex は Vertex AI エンドポイントを ADC で呼び出すモード
	BackendVertex = "vertex"

	apiKeyBaseURL      = "https://generativelanguage.googleapis.com"
	cloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"
)

// ErrNotConfigured は API キーも Vertex 設定もない場合のエラー
var ErrNotConfigured = errors.New("gemini: not configured")

// Config は Client の設定
type Config struct {
	APIKey   string // generativelanguage.googleapis.com 用
	Backend  string // "" (API キー) | "vertex"
	Model    string
	Project  string // Vertex AI のみ
	Location string // Vertex AI のみ (例: "us-central1")

	// RatePerMinute は送信リクエストの上限。0 以下は無制限。
	RatePerMinute int

	// BaseURL はエンドポイントの差し替え（テスト用）
	BaseURL string

	// TokenSource は Vertex AI の認証情報。nil の場合は ADC を使う。
	TokenSource oauth2.TokenSource

	Timeout time.Duration
}

// Client は Gemini API クライアントのインターフェース
type Client interface {
	// Configured は認証情報が設定済みかを返す
	Configured() bool
	// GenerateText はプロンプトを送り、最初の候補のテキストを返す
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// RealClient は Gemini API への raw HTTP クライアント実装
type RealClient struct {
	cfg        Config
	tokens     oauth2.TokenSource
	limiter    *rate.Limiter
	httpClient *http.Client
}

// NewClient は RealClient を生成する。
// Vertex モードで ADC が取得できない場合はエラーを返す。
func NewClient(ctx context.Context, cfg Config) (*RealClient, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	c := &RealClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.RatePerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RatePerMinute)), cfg.RatePerMinute)
	}

	if cfg.Backend == BackendVertex {
		if cfg.Project == "" || cfg.Location == "" {
			return nil, errors.New("gemini: vertex backend requires project and location")
		}
		c.tokens = cfg.TokenSource
		if c.tokens == nil {
			ts, err := google.DefaultTokenSource(ctx, cloudPlatformScope)
			if err != nil {
				return nil, fmt.Errorf("gemini: default credentials: %w", err)
			}
			c.tokens = ts
		}
	}
	return c, nil
}

// Configured reports whether calls can be attempted at all.
func (c *RealClient) Configured() bool {
	if c == nil {
		return false
	}
	if c.cfg.Backend == BackendVertex {
		return c.tokens != nil
	}
	return c.cfg.APIKey != ""
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// GenerateText は generateContent を呼び出し、最初の候補のテキストを連結して返す
func (c *RealClient) GenerateText(ctx context.Context, prompt string) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("gemini: rate limit: %w", err)
		}
	}

	jsonBody, err := json.Marshal(generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: prompt}}}},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.cfg.Backend == BackendVertex {
		tok, err := c.tokens.Token()
		if err != nil {
			return "", fmt.Errorf("gemini: token: %w", err)
		}
		tok.SetAuthHeader(req)
	} else {
		req.Header.Set("x-goog-api-key", c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var result generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("gemini: decode response (status %d): %w", resp.StatusCode, err)
	}
	if result.Error != nil {
		return "", fmt.Errorf("gemini generate: %s (%s)", result.Error.Message, result.Error.Status)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("gemini generate: unexpected status %d", resp.StatusCode)
	}
	if len(result.Candidates) == 0 {
		return "", errors.New("gemini generate: no candidates in response")
	}

	var sb strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

func (c *RealClient) endpoint() string {
	model := url.PathEscape(c.cfg.Model)
	if c.cfg.Backend == BackendVertex {
		base := c.cfg.BaseURL
		if base == "" {
			base = fmt.Sprintf("https://%s-aiplatform.googleapis.com", c.cfg.Location)
		}
		return fmt.Sprintf("%s/v1/projects/%s/locations/%s/publishers/google/models/%s:generateContent",
			base, url.PathEscape(c.cfg.Project), url.PathEscape(c.cfg.Location), model)
	}
	base := c.cfg.BaseURL
	if base == "" {
		base = apiKeyBaseURL
	}
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent", base, model)
}

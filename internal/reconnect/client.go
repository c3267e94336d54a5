package reconnect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	ErrConfigInvalid   = errors.New("reconnect config invalid")
	ErrRequestFailed   = errors.New("reconnect request failed")
	ErrResponseInvalid = errors.New("reconnect response invalid")
)

const defaultTimeout = 10 * time.Second

// Config 复机 API 配置
type Config struct {
	BaseURL   string `json:"base_url"`   // 网关地址，如 https://bras.example.com
	AuthToken string `json:"auth_token"` // API Token
	TimeoutMS int    `json:"timeout_ms"` // 请求超时（毫秒）
}

func (c *Config) normalize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.AuthToken = strings.TrimSpace(c.AuthToken)
}

// ValidateConfig 校验配置
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return fmt.Errorf("%w: base_url is required", ErrConfigInvalid)
	}
	return nil
}

// Client 复机 API 客户端
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient 创建复机客户端
func NewClient(cfg Config) (*Client, error) {
	cfg.normalize()
	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	timeout := defaultTimeout
	if cfg.TimeoutMS > 0 {
		timeout = time.Duration(cfg.TimeoutMS) * time.Millisecond
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}, nil
}

// Reconnect 请求对账户执行复机
func (c *Client) Reconnect(ctx context.Context, accountNo string) error {
	if strings.TrimSpace(accountNo) == "" {
		return fmt.Errorf("%w: account_no is required", ErrConfigInvalid)
	}

	params := map[string]interface{}{
		"account_no": accountNo,
	}
	body, err := json.Marshal(params)
	if err != nil {
		return err
	}

	endpoint := c.cfg.BaseURL + "/api/v1/account/reconnect"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(body)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.cfg.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.AuthToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: http status %d", ErrRequestFailed, resp.StatusCode)
	}

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}

	var result struct {
		StatusCode int    `json:"status_code"`
		Message    string `json:"message"`
	}
	if err := json.Unmarshal(respBytes, &result); err != nil {
		return fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if result.StatusCode != 200 {
		return fmt.Errorf("%w: %s", ErrResponseInvalid, result.Message)
	}
	return nil
}

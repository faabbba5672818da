package network

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"nepse-observer/src/helpers"
	"nepse-observer/src/interfaces"
	"nepse-observer/src/logger"
	"nepse-observer/src/models"
)

const defaultTimeout = 15 * time.Second

// NetworkManager performs one upstream GET per call. Retries are the caller's job.
type NetworkManager struct {
	ProxyManager interfaces.IProxyManager
	Logger       *logger.Logger

	timeout time.Duration
	client  *http.Client
	mu      sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewNetworkManager(cfg *models.MConfig, log *logger.Logger) *NetworkManager {
	var proxies []string
	if cfg.Network.UseProxies {
		proxies = cfg.Network.Proxies
	}

	timeout := time.Duration(cfg.Network.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	nm := &NetworkManager{
		ProxyManager: helpers.NewProxyManager(proxies, cfg.Network.UserAgent, log.Named("ProxyManager")),
		Logger:       log,
		timeout:      timeout,
	}
	nm.client = nm.createClient()
	return nm
}

// -----------------------------------------------------------------------------

func (nm *NetworkManager) createClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if nm.ProxyManager.HasProxies() {
		proxyStr, err := nm.ProxyManager.GetCurrentProxy()
		if err == nil && proxyStr != "" {
			if proxyURL, err := url.Parse(proxyStr); err == nil {
				transport.Proxy = http.ProxyURL(proxyURL)
			}
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   nm.timeout,
	}
}

// -----------------------------------------------------------------------------

func (nm *NetworkManager) rotateProxy() {
	if !nm.ProxyManager.HasProxies() {
		return
	}

	nm.ProxyManager.RotateProxy()
	client := nm.createClient()

	nm.mu.Lock()
	nm.client = client
	nm.mu.Unlock()
}

// -----------------------------------------------------------------------------

// Timeout returns the per-call upper bound.
func (nm *NetworkManager) Timeout() time.Duration {
	return nm.timeout
}

// -----------------------------------------------------------------------------

// Get performs a single GET bounded by the configured timeout.
func (nm *NetworkManager) Get(ctx context.Context, urlStr string, params map[string]string) ([]byte, error) {
	reqURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", urlStr, err)
	}

	q := reqURL.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	reqURL.RawQuery = q.Encode()

	ctx, cancel := context.WithTimeout(ctx, nm.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", nm.ProxyManager.GetUserAgent())
	req.Header.Set("Accept", "application/json")

	nm.mu.RLock()
	client := nm.client
	nm.mu.RUnlock()

	resp, err := client.Do(req)
	if err != nil {
		return nil, helpers.NewNetworkError("request failed", 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden {
		nm.Logger.Warning("Request blocked (%d). Rotating proxy.", resp.StatusCode)
		nm.rotateProxy()
		return nil, helpers.NewNetworkError(fmt.Sprintf("blocked (status %d)", resp.StatusCode), resp.StatusCode, nil)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		nm.Logger.Debug("Bad status %d from %s", resp.StatusCode, reqURL.Path)
		return nil, helpers.NewNetworkError(fmt.Sprintf("bad status: %d", resp.StatusCode), resp.StatusCode, nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, helpers.NewNetworkError("read body", resp.StatusCode, err)
	}
	return body, nil
}

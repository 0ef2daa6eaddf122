package util

import (
	"bufio"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"os"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
)

type HTTPClientOptions struct {
	Timeout          time.Duration
	UserAgent        string
	Referer          string
	Cookie           string
	CookieFile       string
	BypassCloudflare bool
	Transport        http.RoundTripper
	// Wrap decorates the finished transport chain.
	Wrap        func(http.RoundTripper) http.RoundTripper
	DebugLogger interface {
		Debugf(string, ...any)
	}
}

func NewHTTPClient(opts HTTPClientOptions) (*http.Client, error) {
	jar, _ := cookiejar.New(nil)

	var baseTransport http.RoundTripper
	if opts.Transport != nil {
		baseTransport = opts.Transport
	} else {
		baseTransport = &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxConnsPerHost:     32,
			MaxIdleConnsPerHost: 32,
			ForceAttemptHTTP2:   true,
		}
	}

	if opts.BypassCloudflare {
		baseTransport = cloudflarebp.AddCloudFlareByPass(baseTransport)
	}

	var rt http.RoundTripper = roundTripper{
		base:         baseTransport,
		ua:           opts.UserAgent,
		referer:      opts.Referer,
		cookieHeader: joinCookies(opts.Cookie, opts.CookieFile),
		log:          opts.DebugLogger,
	}
	if opts.Wrap != nil {
		rt = opts.Wrap(rt)
	}

	client := &http.Client{
		Timeout:   opts.Timeout,
		Transport: rt,
		Jar:       jar,
	}

	if opts.DebugLogger != nil {
		opts.DebugLogger.Debugf("HTTP client initialized (timeout=%s, ua=%q, cookieFile=%q, cfbypass=%t)",
			opts.Timeout, opts.UserAgent, opts.CookieFile, opts.BypassCloudflare)
	}

	return client, nil
}

type roundTripper struct {
	base         http.RoundTripper
	ua           string
	referer      string
	cookieHeader string
	log          interface{ Debugf(string, ...any) }
}

func (rt roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())

	if rt.ua != "" {
		req.Header.Set("User-Agent", rt.ua)
	}
	if rt.referer != "" && req.Header.Get("Referer") == "" {
		req.Header.Set("Referer", rt.referer)
	}
	if rt.cookieHeader != "" && req.Header.Get("Cookie") == "" {
		req.Header.Set("Cookie", rt.cookieHeader)
	}

	if rt.log != nil {
		rt.log.Debugf("HTTP %s %s", req.Method, req.URL.String())
	}

	return rt.base.RoundTrip(req)
}

func joinCookies(inline, file string) string {
	s := strings.TrimSpace(inline)
	if file == "" {
		return s
	}

	b, err := os.ReadFile(file)
	if err != nil {
		return s
	}

	// first non-empty line
	sc := bufio.NewScanner(strings.NewReader(string(b)))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if s == "" {
			return line
		}
		return s + "; " + line
	}

	return s
}

// DoWithRetry executes req, retrying transport errors and 5xx responses
// with a linear backoff. The request must have no body.
func DoWithRetry(c *http.Client, req *http.Request, attempts int, backoff time.Duration) (*http.Response, error) {
	var resp *http.Response
	var err error

	for i := 1; i <= attempts; i++ {
		resp, err = c.Do(req)
		if err == nil && resp.StatusCode < 500 {
			return resp, nil
		}

		if i == attempts {
			break
		}
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(backoff * time.Duration(i)):
		}
	}

	if err == nil && resp != nil {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d after %d attempts", resp.StatusCode, attempts)
	}

	return nil, err
}

func PickUserAgent(override string) string {
	if override != "" {
		return override
	}

	return "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
}

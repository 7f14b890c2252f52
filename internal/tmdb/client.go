package tmdb

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/msalah0e/castgraph/internal/cache"
	"github.com/msalah0e/castgraph/internal/metrics"
)

// Endpoint labels used for logging and metrics.
const (
	EndpointSearch  = "search_person"
	EndpointPerson  = "person"
	EndpointCredits = "movie_credits"
)

const (
	defaultBaseURL = "https://api.themoviedb.org/3"
	defaultLRUSize = 512
	maxBodyBytes   = 8 << 20
)

// ErrMissingAPIKey is returned by NewClient when no key is configured.
var ErrMissingAPIKey = errors.New("tmdb: missing API key")

// Options configures a Client. Zero values pick sensible defaults.
type Options struct {
	APIKey            string
	BaseURL           string
	HTTPClient        *http.Client
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	LRUSize           int
	Disk              *cache.Store
	Logger            *zap.SugaredLogger
	Metrics           *metrics.Registry
}

// Client talks to the TMDB v3 API. It is safe for concurrent use.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	timeout time.Duration
	limiter *rate.Limiter
	flight  singleflight.Group
	mem     *lru.Cache
	disk    *cache.Store
	log     *zap.SugaredLogger
	metrics *metrics.Registry
}

var _ Service = (*Client)(nil)

// NewClient builds a client from opts.
func NewClient(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.WithHint(ErrMissingAPIKey,
			"set TMDB_API_KEY (a .env file works) or [tmdb] api_key in config.toml")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = 40
	}
	if opts.Burst <= 0 {
		opts.Burst = 20
	}
	if opts.LRUSize <= 0 {
		opts.LRUSize = defaultLRUSize
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}

	mem, err := lru.New(opts.LRUSize)
	if err != nil {
		return nil, errors.Wrap(err, "create response cache")
	}

	return &Client{
		apiKey:  opts.APIKey,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    opts.HTTPClient,
		timeout: opts.Timeout,
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
		mem:     mem,
		disk:    opts.Disk,
		log:     opts.Logger.Named("tmdb"),
		metrics: opts.Metrics,
	}, nil
}

// SearchActors queries /search/person.
func (c *Client) SearchActors(ctx context.Context, query string) ([]Actor, error) {
	var resp wireSearch
	params := url.Values{"query": {query}, "include_adult": {"false"}}
	if err := c.get(ctx, EndpointSearch, "/search/person", params, &resp); err != nil {
		return nil, err
	}
	return actors(resp.Results), nil
}

// ActorDetails fetches a person with their movie credits appended.
func (c *Client) ActorDetails(ctx context.Context, id int) (ActorDetails, error) {
	var resp wirePerson
	params := url.Values{"append_to_response": {"movie_credits"}}
	if err := c.get(ctx, EndpointPerson, "/person/"+strconv.Itoa(id), params, &resp); err != nil {
		return ActorDetails{}, err
	}
	return resp.details()
}

// MovieCast fetches the cast list of one movie.
func (c *Client) MovieCast(ctx context.Context, movieID int) ([]Actor, error) {
	var resp wireMovieCredits
	if err := c.get(ctx, EndpointCredits, "/movie/"+strconv.Itoa(movieID)+"/credits", nil, &resp); err != nil {
		return nil, err
	}
	return actors(resp.Cast), nil
}

// get resolves a request through the memory cache, the disk cache and finally
// the network, then decodes the body into out.
func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values, out any) error {
	key := path
	if len(params) > 0 {
		key += "?" + params.Encode()
	}

	body, err := c.lookup(ctx, endpoint, key, path, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return errors.Wrapf(err, "decode %s", path)
	}
	return nil
}

func (c *Client) lookup(ctx context.Context, endpoint, key, path string, params url.Values) ([]byte, error) {
	if v, ok := c.mem.Get(key); ok {
		c.metrics.CacheHit("memory")
		return v.([]byte), nil
	}
	if c.disk != nil {
		if data, ok := c.disk.Get(key); ok {
			c.metrics.CacheHit("disk")
			c.mem.Add(key, data)
			return data, nil
		}
	}

	// The fetch outlives the caller that started the flight; each waiter
	// stops on its own ctx.
	ch := c.flight.DoChan(key, func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		data, err := c.fetch(fctx, endpoint, path, params)
		if err != nil {
			return nil, err
		}
		c.mem.Add(key, data)
		if c.disk != nil {
			if err := c.disk.Put(key, data); err != nil {
				c.log.Debugw("disk cache write failed", "key", key, "error", err)
			}
		}
		return data, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

func (c *Client) fetch(ctx context.Context, endpoint, path string, params url.Values) ([]byte, error) {
	start := time.Now()
	data, err := c.do(ctx, path, params)
	outcome := "ok"
	if err != nil {
		outcome = "error"
		c.log.Debugw("request failed", "endpoint", endpoint, "path", path, "error", err)
	}
	c.metrics.ObserveMetadata(endpoint, outcome, time.Since(start))
	return data, err
}

func (c *Client) do(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limiter")
	}

	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "build request %s", path)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "GET %s", path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode, path, body)
	}
	return body, nil
}

func statusError(code int, path string, body []byte) error {
	var we wireError
	_ = json.Unmarshal(body, &we)
	msg := we.StatusMessage
	if msg == "" {
		msg = http.StatusText(code)
	}

	switch code {
	case http.StatusUnauthorized:
		return errors.WithHint(errors.Wrapf(ErrUnauthorized, "GET %s: %s", path, msg),
			"check that TMDB_API_KEY is a valid v3 API key")
	case http.StatusNotFound:
		return errors.Wrapf(ErrNotFound, "GET %s: %s", path, msg)
	case http.StatusTooManyRequests:
		return errors.Wrapf(ErrRateLimited, "GET %s: %s", path, msg)
	default:
		return errors.Newf("GET %s: status %d: %s", path, code, msg)
	}
}

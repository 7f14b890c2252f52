package tmdb

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msalah0e/castgraph/internal/cache"
	"github.com/msalah0e/castgraph/internal/metrics"
)

func newTestClient(t *testing.T, h http.Handler, mutate ...func(*Options)) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	opts := Options{APIKey: "test-key", BaseURL: srv.URL, RequestsPerSecond: 1000, Burst: 100}
	for _, m := range mutate {
		m(&opts)
	}
	c, err := NewClient(opts)
	require.NoError(t, err)
	return c, srv
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(Options{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingAPIKey))
	assert.NotEmpty(t, errors.GetAllHints(err))
}

func TestMovieCast(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/603/credits", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
		fmt.Fprint(w, `{"id":603,"cast":[
			{"id":6384,"name":"Keanu Reeves","profile_path":"/k.jpg","popularity":40.5},
			{"id":2975,"name":"Laurence Fishburne","profile_path":null,"popularity":20},
			{"id":0,"name":"Broken"},
			{"id":530,"name":""}
		]}`)
	}))

	cast, err := c.MovieCast(context.Background(), 603)
	require.NoError(t, err)
	require.Len(t, cast, 2, "invalid members are dropped")
	assert.Equal(t, Actor{ID: 6384, Name: "Keanu Reeves", ProfilePath: "/k.jpg", Popularity: 40.5}, cast[0])
	assert.Equal(t, "", cast[1].ProfilePath)
}

func TestActorDetails(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/person/6384", r.URL.Path)
		assert.Equal(t, "movie_credits", r.URL.Query().Get("append_to_response"))
		fmt.Fprint(w, `{"id":6384,"name":"Keanu Reeves","profile_path":"/k.jpg","biography":"bio",
			"movie_credits":{"cast":[
				{"id":603,"title":"The Matrix","release_date":"1999-03-30","poster_path":"/m.jpg"},
				{"id":604,"title":"","release_date":"2003-05-15"},
				{"id":605,"title":"Untitled","release_date":""}
			]}}`)
	}))

	d, err := c.ActorDetails(context.Background(), 6384)
	require.NoError(t, err)
	assert.Equal(t, "Keanu Reeves", d.Name)
	assert.Equal(t, "bio", d.Biography)
	require.Len(t, d.Filmography, 2)
	assert.Equal(t, 603, d.Filmography[0].MovieID)
	assert.Equal(t, "", d.Filmography[1].ReleaseDate)
}

func TestActorDetailsInvalidRecord(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":7,"name":""}`)
	}))

	_, err := c.ActorDetails(context.Background(), 7)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusTooManyRequests, ErrRateLimited},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, `{"status_code":7,"status_message":"nope"}`)
			}))
			_, err := c.MovieCast(context.Background(), 1)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	_, err := c.MovieCast(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestMemoryCache(t *testing.T) {
	var hits int64
	reg := metrics.NewRegistry()
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		fmt.Fprint(w, `{"id":1,"cast":[]}`)
	}), func(o *Options) { o.Metrics = reg })

	for i := 0; i < 3; i++ {
		_, err := c.MovieCast(context.Background(), 1)
		require.NoError(t, err)
	}
	assert.Equal(t, int64(1), atomic.LoadInt64(&hits))
}

func TestDiskCache(t *testing.T) {
	dir := t.TempDir()
	var hits int64
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		fmt.Fprint(w, `{"id":1,"cast":[{"id":5,"name":"Five","profile_path":"/5.jpg"}]}`)
	})

	store1, err := cache.Open(dir, time.Hour)
	require.NoError(t, err)
	c1, _ := newTestClient(t, h, func(o *Options) { o.Disk = store1 })
	_, err = c1.MovieCast(context.Background(), 1)
	require.NoError(t, err)

	store2, err := cache.Open(dir, time.Hour)
	require.NoError(t, err)
	c2, _ := newTestClient(t, h, func(o *Options) { o.Disk = store2 })
	cast, err := c2.MovieCast(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, cast, 1)

	assert.Equal(t, int64(1), atomic.LoadInt64(&hits), "second client should read from disk")
}

func TestConcurrentRequestsShareFlight(t *testing.T) {
	var hits int64
	release := make(chan struct{})
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		<-release
		fmt.Fprint(w, `{"id":1,"cast":[]}`)
	}))

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.MovieCast(context.Background(), 1)
			assert.NoError(t, err)
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&hits))
}

func TestRateLimiterHonoursContext(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":1,"cast":[]}`)
	}), func(o *Options) { o.RequestsPerSecond = 0.001; o.Burst = 1 })

	_, err := c.MovieCast(context.Background(), 1)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.MovieCast(ctx, 2)
	require.Error(t, err, "second request should wait on the limiter and hit the deadline")
}

func TestSearch(t *testing.T) {
	var hits int64
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		assert.Equal(t, "/search/person", r.URL.Path)
		fmt.Fprint(w, `{"page":1,"results":[
			{"id":1,"name":"Tom Holland","profile_path":"/h.jpg"},
			{"id":2,"name":"Tom Hanks","profile_path":"/t.jpg"},
			{"id":3,"name":"Zzz","profile_path":"/z.jpg"}
		]}`)
	}))

	short, err := Search(context.Background(), c, "to")
	require.NoError(t, err)
	assert.Empty(t, short)
	assert.Equal(t, int64(0), atomic.LoadInt64(&hits), "short queries never reach the API")

	res, err := Search(context.Background(), c, "tom hanks")
	require.NoError(t, err)
	require.NotEmpty(t, res)
	assert.Equal(t, "Tom Hanks", res[0].Name)
	for _, a := range res {
		assert.NotEqual(t, "Zzz", a.Name)
	}
}

func TestRankFallsBackToAPIOrder(t *testing.T) {
	in := []Actor{{ID: 1, Name: "Alpha"}, {ID: 2, Name: "Beta"}}
	assert.Equal(t, in, Rank("qqqq", in))
	assert.Empty(t, Rank("x", nil))
}

func TestCancelledCallerDoesNotFailSharedFlight(t *testing.T) {
	var hits int64
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&hits, 1)
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		fmt.Fprint(w, `{"id":1,"cast":[{"id":2,"name":"Two","profile_path":"/2.jpg"}]}`)
	}))

	first, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.MovieCast(first, 1)
		firstErr <- err
	}()
	<-started

	type result struct {
		cast []Actor
		err  error
	}
	second := make(chan result, 1)
	go func() {
		cast, err := c.MovieCast(context.Background(), 1)
		second <- result{cast, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	res := <-second
	require.NoError(t, res.err)
	require.Len(t, res.cast, 1)
	assert.Equal(t, 2, res.cast[0].ID)
	assert.Equal(t, int64(1), atomic.LoadInt64(&hits), "second caller joins the first flight")
}

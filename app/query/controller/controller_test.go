package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/canopy-network/blockgraph/app/query/types"
	"github.com/canopy-network/blockgraph/pkg/db/graph"
	graphmodels "github.com/canopy-network/blockgraph/pkg/db/models/graph"
	"github.com/canopy-network/blockgraph/pkg/db/postgres"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeClient records the calls a handler makes against the store.
type fakeClient struct {
	graph.Client

	maxHeight    int64
	maxHeightErr error
	heights      map[string]int64
	hashes       map[int64]string
	rangeErr     error
	hashesErr    error

	ranges    []types.HeightRange
	idLookups [][]int64
}

func (f *fakeClient) GetBlocksAndEdgesAndHeightGroups(_ context.Context, startHeight, endHeight int64) (*graphmodels.BlocksAndEdgesAndHeightGroups, error) {
	f.ranges = append(f.ranges, types.HeightRange{Start: startHeight, End: endHeight})
	if f.rangeErr != nil {
		return nil, f.rangeErr
	}
	result := graphmodels.NewBlocksAndEdgesAndHeightGroups()
	result.HeightGroups = append(result.HeightGroups, graphmodels.HeightGroup{Height: startHeight, Size: 1})
	return result, nil
}

func (f *fakeClient) GetMaxHeight(context.Context) (int64, error) {
	return f.maxHeight, f.maxHeightErr
}

func (f *fakeClient) GetBlockHeight(_ context.Context, blockHash string) (int64, error) {
	h, ok := f.heights[blockHash]
	if !ok {
		return 0, graph.ErrBlockNotFound
	}
	return h, nil
}

func (f *fakeClient) GetBlockHashesByIDs(_ context.Context, blockIDs []int64) (map[int64]string, error) {
	f.idLookups = append(f.idLookups, blockIDs)
	if f.hashesErr != nil {
		return nil, f.hashesErr
	}
	out := map[int64]string{}
	for _, id := range blockIDs {
		if h, ok := f.hashes[id]; ok {
			out[id] = h
		}
	}
	return out, nil
}

// fakeStore hands out the same client and accounts for it like postgres.Client does.
type fakeStore struct {
	client     *fakeClient
	acq        *postgres.Acquisitions
	acquireErr error
}

func (s *fakeStore) WithClient(_ context.Context, fn func(graph.Client) error) error {
	if s.acquireErr != nil {
		return s.acquireErr
	}
	release := s.acq.Track()
	defer release()
	return fn(s.client)
}

// testController bundles a controller with the router built from it. The router
// can only be built once per metrics registry.
type testController struct {
	*Controller
	router http.Handler
}

func setupTestController(t *testing.T, client *fakeClient) (*testController, *fakeStore) {
	t.Helper()
	store := &fakeStore{client: client, acq: postgres.NewAcquisitions()}
	app := &types.App{
		Store:        store,
		Acquisitions: store.acq,
		Metrics:      prometheus.NewRegistry(),
		Logger:       zaptest.NewLogger(t),
	}

	c := NewController(app)
	router, err := c.NewRouter()
	require.NoError(t, err)

	return &testController{Controller: c, router: router}, store
}

func serve(t *testing.T, c *testController, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestMissingParameters(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		missing string
	}{
		{name: "range without start", target: "/blocksBetweenHeights?endHeight=5", missing: "startHeight"},
		{name: "range without end", target: "/blocksBetweenHeights?startHeight=5", missing: "endHeight"},
		{name: "range with both empty reports start", target: "/blocksBetweenHeights?startHeight=&endHeight=", missing: "startHeight"},
		{name: "head", target: "/head", missing: "heightDifference"},
		{name: "head with empty value", target: "/head?heightDifference=", missing: "heightDifference"},
		{name: "block hash without hash", target: "/blockHash?heightDifference=3", missing: "blockHash"},
		{name: "block hash without difference", target: "/blockHash?blockHash=aa", missing: "heightDifference"},
		{name: "hashes by ids", target: "/blockHashesByIds", missing: "blockIds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, store := setupTestController(t, &fakeClient{})

			rec := serve(t, c, tt.target)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "missing parameter: "+tt.missing, rec.Body.String())
			assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
			assert.Equal(t, int64(0), store.acq.Acquired(), "no client is acquired before parameters are present")
		})
	}
}

func TestBlocksBetweenHeightsForwardsLiteralRange(t *testing.T) {
	tests := []struct {
		name   string
		target string
		want   types.HeightRange
	}{
		{name: "ordinary", target: "/blocksBetweenHeights?startHeight=10&endHeight=20", want: types.HeightRange{Start: 10, End: 20}},
		{name: "inverted", target: "/blocksBetweenHeights?startHeight=20&endHeight=10", want: types.HeightRange{Start: 20, End: 10}},
		{name: "negative", target: "/blocksBetweenHeights?startHeight=-5&endHeight=-1", want: types.HeightRange{Start: -5, End: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{}
			c, _ := setupTestController(t, client)

			rec := serve(t, c, tt.target)

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, []types.HeightRange{tt.want}, client.ranges)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body graphmodels.BlocksAndEdgesAndHeightGroups
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, []graphmodels.HeightGroup{{Height: tt.want.Start, Size: 1}}, body.HeightGroups)
		})
	}
}

func TestHeadRange(t *testing.T) {
	tests := []struct {
		name      string
		maxHeight int64
		diff      string
		want      types.HeightRange
	}{
		{name: "window below head", maxHeight: 100, diff: "10", want: types.HeightRange{Start: 90, End: 100}},
		{name: "clamp engaged", maxHeight: 5, diff: "10", want: types.HeightRange{Start: 0, End: 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{maxHeight: tt.maxHeight}
			c, _ := setupTestController(t, client)

			rec := serve(t, c, "/head?heightDifference="+tt.diff)

			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, []types.HeightRange{tt.want}, client.ranges)
		})
	}
}

func TestBlockHashRange(t *testing.T) {
	client := &fakeClient{heights: map[string]int64{"near": 50, "low": 3}}
	c, _ := setupTestController(t, client)

	rec := serve(t, c, "/blockHash?blockHash=near&heightDifference=10")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = serve(t, c, "/blockHash?blockHash=low&heightDifference=10")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, []types.HeightRange{
		{Start: 40, End: 60},
		{Start: 0, End: 13},
	}, client.ranges)
}

func TestBlockHashUnknownIsInvalidInput(t *testing.T) {
	client := &fakeClient{heights: map[string]int64{}}
	c, store := setupTestController(t, client)

	rec := serve(t, c, "/blockHash?blockHash=ghost&heightDifference=10")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid input: block not found", rec.Body.String())
	assert.Empty(t, client.ranges)
	assert.Equal(t, int64(1), store.acq.Released())
}

func TestBlockHashesByIDs(t *testing.T) {
	client := &fakeClient{hashes: map[int64]string{3: "c", 7: "g", 9: "i"}}
	c, _ := setupTestController(t, client)

	rec := serve(t, c, "/blockHashesByIds?blockIds=3,7,9")

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, [][]int64{{3, 7, 9}}, client.idLookups)
	assert.JSONEq(t, `{"3":"c","7":"g","9":"i"}`, rec.Body.String())
}

func TestBlockHashesByIDsKeepsRequestOrder(t *testing.T) {
	client := &fakeClient{hashes: map[int64]string{}}
	c, _ := setupTestController(t, client)

	rec := serve(t, c, "/blockHashesByIds?blockIds=9,3,9")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, [][]int64{{9, 3, 9}}, client.idLookups)
	assert.JSONEq(t, `{}`, rec.Body.String())
}

func TestStrictIntegerParsing(t *testing.T) {
	tests := []struct {
		name   string
		target string
		detail string
	}{
		{name: "trailing garbage", target: "/head?heightDifference=10abc", detail: `heightDifference must be an integer, got "10abc"`},
		{name: "decimal", target: "/blocksBetweenHeights?startHeight=1.5&endHeight=2", detail: `startHeight must be an integer, got "1.5"`},
		{name: "leading space", target: "/blocksBetweenHeights?startHeight=1&endHeight=%207", detail: `endHeight must be an integer, got " 7"`},
		{name: "out of int64 range", target: "/head?heightDifference=99999999999999999999", detail: `heightDifference must be an integer, got "99999999999999999999"`},
		{name: "non numeric id", target: "/blockHashesByIds?blockIds=3,x,9", detail: `blockIds must be a comma-separated list of integers, got "x"`},
		{name: "empty id token", target: "/blockHashesByIds?blockIds=3,,9", detail: `blockIds must be a comma-separated list of integers, got ""`},
		{name: "block hash difference", target: "/blockHash?blockHash=aa&heightDifference=ten", detail: `heightDifference must be an integer, got "ten"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{heights: map[string]int64{"aa": 1}}
			c, store := setupTestController(t, client)

			rec := serve(t, c, tt.target)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "invalid input: "+tt.detail, rec.Body.String())
			assert.Empty(t, client.ranges)
			assert.Empty(t, client.idLookups)
			assert.Equal(t, store.acq.Acquired(), store.acq.Released())
		})
	}
}

func TestRangeOverflowIsInvalidInput(t *testing.T) {
	client := &fakeClient{heights: map[string]int64{"tip": 1 << 62}}
	c, _ := setupTestController(t, client)

	rec := serve(t, c, "/blockHash?blockHash=tip&heightDifference=9223372036854775807")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid input: heightDifference 9223372036854775807 is out of range", rec.Body.String())
	assert.Empty(t, client.ranges)
}

func TestBackendFailure(t *testing.T) {
	backendErr := errors.New("connection refused")

	tests := []struct {
		name   string
		client *fakeClient
		target string
	}{
		{name: "range fetch", client: &fakeClient{rangeErr: backendErr}, target: "/blocksBetweenHeights?startHeight=1&endHeight=2"},
		{name: "max height", client: &fakeClient{maxHeightErr: backendErr}, target: "/head?heightDifference=1"},
		{name: "hash lookup", client: &fakeClient{hashesErr: backendErr}, target: "/blockHashesByIds?blockIds=1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, store := setupTestController(t, tt.client)

			rec := serve(t, c, tt.target)
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.Equal(t, "backend failure", rec.Body.String())
			assert.Equal(t, int64(1), store.acq.Acquired())
			assert.Equal(t, int64(1), store.acq.Released())

			c.App.Config.CollapseBackendErrors = true
			rec = serve(t, c, tt.target)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "invalid input: connection refused", rec.Body.String())
		})
	}
}

func TestAcquireFailureIsBackendFailure(t *testing.T) {
	c, store := setupTestController(t, &fakeClient{})
	store.acquireErr = errors.New("acquire connection: pool closed")

	rec := serve(t, c, "/head?heightDifference=1")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, int64(0), store.acq.InFlight())
}

func TestClientReleasedOnEveryPath(t *testing.T) {
	client := &fakeClient{maxHeight: 10, heights: map[string]int64{"aa": 4}, hashes: map[int64]string{1: "a"}}
	c, store := setupTestController(t, client)

	targets := []string{
		"/head?heightDifference=2",                         // success
		"/head",                                            // missing parameter
		"/head?heightDifference=x",                         // invalid input
		"/blockHash?blockHash=zz&heightDifference=1",       // unknown hash
		"/blockHash?blockHash=aa&heightDifference=1",       // success
		"/blocksBetweenHeights?startHeight=1&endHeight=2",  // success
		"/blocksBetweenHeights?startHeight=1&endHeight=2x", // invalid input
		"/blockHashesByIds?blockIds=1",                     // success
	}
	for _, target := range targets {
		serve(t, c, target)
		assert.Equal(t, int64(0), store.acq.InFlight(), target)
	}

	// seven of the eight requests passed the presence checks
	assert.Equal(t, int64(7), store.acq.Acquired())
	assert.Equal(t, int64(7), store.acq.Released())
}

func TestMethodNotAllowed(t *testing.T) {
	c, _ := setupTestController(t, &fakeClient{})

	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/head?heightDifference=1", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

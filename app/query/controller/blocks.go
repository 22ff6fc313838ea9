package controller

import (
	"context"
	"net/http"

	"github.com/canopy-network/blockgraph/app/query/types"
	"github.com/canopy-network/blockgraph/pkg/db/graph"
	graphmodels "github.com/canopy-network/blockgraph/pkg/db/models/graph"
)

// HandleBlocksBetweenHeights serves the literal [startHeight, endHeight] range.
// Inverted and negative ranges are passed to the store unchanged.
func (c *Controller) HandleBlocksBetweenHeights(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	if err := requireParams(qs, "startHeight", "endHeight"); err != nil {
		c.writeFailure(w, r, err)
		return
	}

	c.serveRange(w, r, func(ctx context.Context, _ graph.Client) (types.HeightRange, error) {
		startHeight, err := intParam(qs, "startHeight")
		if err != nil {
			return types.HeightRange{}, err
		}
		endHeight, err := intParam(qs, "endHeight")
		if err != nil {
			return types.HeightRange{}, err
		}
		return types.HeightRange{Start: startHeight, End: endHeight}, nil
	})
}

// HandleHead serves [max(0, head-heightDifference), head].
func (c *Controller) HandleHead(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	if err := requireParams(qs, "heightDifference"); err != nil {
		c.writeFailure(w, r, err)
		return
	}

	c.serveRange(w, r, func(ctx context.Context, client graph.Client) (types.HeightRange, error) {
		heightDifference, err := intParam(qs, "heightDifference")
		if err != nil {
			return types.HeightRange{}, err
		}

		maxHeight, err := client.GetMaxHeight(ctx)
		if err != nil {
			return types.HeightRange{}, err
		}

		rng, ok := types.HeadRange(maxHeight, heightDifference)
		if !ok {
			return types.HeightRange{}, invalidParam("heightDifference", "heightDifference %d is out of range", heightDifference)
		}
		return rng, nil
	})
}

// HandleBlockHash serves [max(0, h-heightDifference), h+heightDifference] where h is
// the height of blockHash. An unknown hash is invalid input.
func (c *Controller) HandleBlockHash(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	if err := requireParams(qs, "blockHash", "heightDifference"); err != nil {
		c.writeFailure(w, r, err)
		return
	}

	c.serveRange(w, r, func(ctx context.Context, client graph.Client) (types.HeightRange, error) {
		heightDifference, err := intParam(qs, "heightDifference")
		if err != nil {
			return types.HeightRange{}, err
		}

		height, err := client.GetBlockHeight(ctx, qs.Get("blockHash"))
		if err != nil {
			return types.HeightRange{}, err
		}

		rng, ok := types.AroundRange(height, heightDifference)
		if !ok {
			return types.HeightRange{}, invalidParam("heightDifference", "heightDifference %d is out of range", heightDifference)
		}
		return rng, nil
	})
}

// HandleBlockHashesByIDs resolves a comma-separated list of block IDs to their hashes.
func (c *Controller) HandleBlockHashesByIDs(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	if err := requireParams(qs, "blockIds"); err != nil {
		c.writeFailure(w, r, err)
		return
	}

	var hashesByIDs map[int64]string
	err := c.App.Store.WithClient(r.Context(), func(client graph.Client) error {
		blockIDs, err := intListParam(qs, "blockIds")
		if err != nil {
			return err
		}

		hashesByIDs, err = client.GetBlockHashesByIDs(r.Context(), blockIDs)
		return err
	})
	if err != nil {
		c.writeFailure(w, r, err)
		return
	}

	c.writeJSON(w, http.StatusOK, hashesByIDs)
}

type rangeFunc func(ctx context.Context, client graph.Client) (types.HeightRange, error)

// serveRange runs derive and the range fetch on a single scoped client and writes
// the result.
func (c *Controller) serveRange(w http.ResponseWriter, r *http.Request, derive rangeFunc) {
	ctx := r.Context()

	var result *graphmodels.BlocksAndEdgesAndHeightGroups
	err := c.App.Store.WithClient(ctx, func(client graph.Client) error {
		rng, err := derive(ctx, client)
		if err != nil {
			return err
		}

		result, err = client.GetBlocksAndEdgesAndHeightGroups(ctx, rng.Start, rng.End)
		return err
	})
	if err != nil {
		c.writeFailure(w, r, err)
		return
	}

	c.writeJSON(w, http.StatusOK, result)
}

package graph

import (
	"context"
	"fmt"

	graphmodels "github.com/canopy-network/blockgraph/pkg/db/models/graph"
	"github.com/canopy-network/blockgraph/pkg/db/postgres"
	"github.com/jackc/pgx/v5"
)

// conn implements Client on a single acquired connection.
type conn struct {
	q postgres.Querier
}

const selectBlocksInRange = `
	SELECT id, block_hash, timestamp, parent_ids, height, height_group_index,
	       selected_parent_id, color, is_in_virtual_selected_parent_chain,
	       merge_set_red_ids, merge_set_blue_ids
	FROM blocks
	WHERE height >= $1 AND height <= $2
	ORDER BY height, height_group_index
`

const selectEdgesInRange = `
	SELECT from_block_id, to_block_id, from_height, to_height,
	       from_height_group_index, to_height_group_index
	FROM edges
	WHERE (from_height >= $1 AND from_height <= $2)
	   OR (to_height >= $1 AND to_height <= $2)
`

const selectHeightGroupsInRange = `
	SELECT height, size
	FROM height_groups
	WHERE height >= $1 AND height <= $2
	ORDER BY height
`

// GetBlocksAndEdgesAndHeightGroups reads the three collections for [startHeight, endHeight].
// Inverted ranges match nothing.
func (c *conn) GetBlocksAndEdgesAndHeightGroups(ctx context.Context, startHeight, endHeight int64) (*graphmodels.BlocksAndEdgesAndHeightGroups, error) {
	result := graphmodels.NewBlocksAndEdgesAndHeightGroups()

	blocks, err := c.getBlocks(ctx, startHeight, endHeight)
	if err != nil {
		return nil, err
	}
	result.Blocks = append(result.Blocks, blocks...)

	edges, err := c.getEdges(ctx, startHeight, endHeight)
	if err != nil {
		return nil, err
	}
	result.Edges = append(result.Edges, edges...)

	heightGroups, err := c.getHeightGroups(ctx, startHeight, endHeight)
	if err != nil {
		return nil, err
	}
	result.HeightGroups = append(result.HeightGroups, heightGroups...)

	return result, nil
}

func (c *conn) getBlocks(ctx context.Context, startHeight, endHeight int64) ([]graphmodels.Block, error) {
	rows, err := c.q.Query(ctx, selectBlocksInRange, startHeight, endHeight)
	if err != nil {
		return nil, fmt.Errorf("query blocks: %w", err)
	}

	blocks, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (graphmodels.Block, error) {
		var b graphmodels.Block
		scanErr := row.Scan(
			&b.ID, &b.BlockHash, &b.Timestamp, &b.ParentIDs, &b.Height, &b.HeightGroupIndex,
			&b.SelectedParentID, &b.Color, &b.IsInVirtualSelectedParentChain,
			&b.MergeSetRedIDs, &b.MergeSetBlueIDs,
		)
		return normalizeBlock(b), scanErr
	})
	if err != nil {
		return nil, fmt.Errorf("scan blocks: %w", err)
	}

	return blocks, nil
}

func (c *conn) getEdges(ctx context.Context, startHeight, endHeight int64) ([]graphmodels.Edge, error) {
	rows, err := c.q.Query(ctx, selectEdgesInRange, startHeight, endHeight)
	if err != nil {
		return nil, fmt.Errorf("query edges: %w", err)
	}

	edges, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (graphmodels.Edge, error) {
		var e graphmodels.Edge
		scanErr := row.Scan(
			&e.FromBlockID, &e.ToBlockID, &e.FromHeight, &e.ToHeight,
			&e.FromHeightGroupIndex, &e.ToHeightGroupIndex,
		)
		return e, scanErr
	})
	if err != nil {
		return nil, fmt.Errorf("scan edges: %w", err)
	}

	return edges, nil
}

func (c *conn) getHeightGroups(ctx context.Context, startHeight, endHeight int64) ([]graphmodels.HeightGroup, error) {
	rows, err := c.q.Query(ctx, selectHeightGroupsInRange, startHeight, endHeight)
	if err != nil {
		return nil, fmt.Errorf("query height groups: %w", err)
	}

	groups, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (graphmodels.HeightGroup, error) {
		var g graphmodels.HeightGroup
		scanErr := row.Scan(&g.Height, &g.Size)
		return g, scanErr
	})
	if err != nil {
		return nil, fmt.Errorf("scan height groups: %w", err)
	}

	return groups, nil
}

// GetMaxHeight returns the highest indexed height, 0 when no block is indexed.
func (c *conn) GetMaxHeight(ctx context.Context) (int64, error) {
	var maxHeight int64
	err := c.q.QueryRow(ctx, `SELECT COALESCE(MAX(height), 0) FROM blocks`).Scan(&maxHeight)
	if err != nil {
		return 0, fmt.Errorf("query max height: %w", err)
	}
	return maxHeight, nil
}

// GetBlockHeight returns ErrBlockNotFound when blockHash is unknown.
func (c *conn) GetBlockHeight(ctx context.Context, blockHash string) (int64, error) {
	var height int64
	err := c.q.QueryRow(ctx, `SELECT height FROM blocks WHERE block_hash = $1`, blockHash).Scan(&height)
	if err != nil {
		if postgres.IsNoRows(err) {
			return 0, fmt.Errorf("%w: %s", ErrBlockNotFound, blockHash)
		}
		return 0, fmt.Errorf("query block height: %w", err)
	}
	return height, nil
}

// GetBlockHashesByIDs resolves the given IDs. Unknown IDs are absent from the result.
func (c *conn) GetBlockHashesByIDs(ctx context.Context, blockIDs []int64) (map[int64]string, error) {
	hashes := make(map[int64]string, len(blockIDs))
	if len(blockIDs) == 0 {
		return hashes, nil
	}

	rows, err := c.q.Query(ctx, `SELECT id, block_hash FROM blocks WHERE id = ANY($1)`, blockIDs)
	if err != nil {
		return nil, fmt.Errorf("query block hashes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id   int64
			hash string
		)
		if err := rows.Scan(&id, &hash); err != nil {
			return nil, fmt.Errorf("scan block hash: %w", err)
		}
		hashes[id] = hash
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate block hashes: %w", err)
	}

	return hashes, nil
}

// normalizeBlock replaces NULL arrays with empty ones.
func normalizeBlock(b graphmodels.Block) graphmodels.Block {
	if b.ParentIDs == nil {
		b.ParentIDs = []int64{}
	}
	if b.MergeSetRedIDs == nil {
		b.MergeSetRedIDs = []int64{}
	}
	if b.MergeSetBlueIDs == nil {
		b.MergeSetBlueIDs = []int64{}
	}
	return b
}

package graph

// Block colors as assigned by GHOSTDAG. Blocks start gray and become blue or red
// once they are merged by a block in the virtual selected parent chain.
const (
	ColorGray = "gray"
	ColorRed  = "red"
	ColorBlue = "blue"
)

// Block is a row of the blocks table.
type Block struct {
	ID                             int64   `json:"id"`
	BlockHash                      string  `json:"blockHash"`
	Timestamp                      int64   `json:"timestamp"`
	ParentIDs                      []int64 `json:"parentIds"`
	Height                         int64   `json:"height"`
	HeightGroupIndex               int32   `json:"heightGroupIndex"`
	SelectedParentID               *int64  `json:"selectedParentId"`
	Color                          string  `json:"color"`
	IsInVirtualSelectedParentChain bool    `json:"isInVirtualSelectedParentChain"`
	MergeSetRedIDs                 []int64 `json:"mergeSetRedIds"`
	MergeSetBlueIDs                []int64 `json:"mergeSetBlueIds"`
}

// Edge connects a block (from) to one of its parents (to). Heights and height-group
// indexes are denormalized so a range query needs no join.
type Edge struct {
	FromBlockID          int64 `json:"fromBlockId"`
	ToBlockID            int64 `json:"toBlockId"`
	FromHeight           int64 `json:"fromHeight"`
	ToHeight             int64 `json:"toHeight"`
	FromHeightGroupIndex int32 `json:"fromHeightGroupIndex"`
	ToHeightGroupIndex   int32 `json:"toHeightGroupIndex"`
}

// HeightGroup counts the blocks sharing a height.
type HeightGroup struct {
	Height int64 `json:"height"`
	Size   int32 `json:"size"`
}

// BlocksAndEdgesAndHeightGroups is the payload served for a height range.
type BlocksAndEdgesAndHeightGroups struct {
	Blocks       []Block       `json:"blocks"`
	Edges        []Edge        `json:"edges"`
	HeightGroups []HeightGroup `json:"heightGroups"`
}

// NewBlocksAndEdgesAndHeightGroups returns an empty payload whose collections encode as [] rather than null.
func NewBlocksAndEdgesAndHeightGroups() *BlocksAndEdgesAndHeightGroups {
	return &BlocksAndEdgesAndHeightGroups{
		Blocks:       []Block{},
		Edges:        []Edge{},
		HeightGroups: []HeightGroup{},
	}
}

package model

import (
	"context"
	"encoding/json"
	"fmt"
)

// KindTree is a binary decision tree. Node 0 is the root.
const KindTree = "tree"

// TreeNode is a single node of a decision tree.
// Internal nodes send x[Feature] <= Threshold to Left, everything else to Right.
type TreeNode struct {
	Value     any     `json:"value,omitempty"`
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Leaf      bool    `json:"leaf"`
}

type treeParams struct {
	Nodes []TreeNode `json:"nodes"`
}

// Tree predicts the value of the leaf each row falls into.
type Tree struct {
	nodes []TreeNode
	width int
}

// DecodeTree decodes the parameters of a tree predictor document.
func DecodeTree(params json.RawMessage) (Predictor, error) {
	var p treeParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}

	return NewTree(p.Nodes)
}

// NewTree validates nodes and builds a Tree.
func NewTree(nodes []TreeNode) (*Tree, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("tree has no nodes")
	}

	t := &Tree{nodes: nodes}
	for i, n := range nodes {
		if n.Leaf {
			if n.Value == nil {
				return nil, fmt.Errorf("leaf node %d has no value", i)
			}
			continue
		}

		if n.Feature < 0 {
			return nil, fmt.Errorf("node %d has negative feature index %d", i, n.Feature)
		}
		// Children must come after their parent, so traversal always terminates.
		for _, child := range []int{n.Left, n.Right} {
			if child <= i || child >= len(nodes) {
				return nil, fmt.Errorf("node %d has invalid child index %d", i, child)
			}
		}

		t.width = max(t.width, n.Feature+1)
	}

	return t, nil
}

// Kind returns KindTree.
func (t *Tree) Kind() string {
	return KindTree
}

// Predict walks the tree for every row.
func (t *Tree) Predict(ctx context.Context, rows [][]float64) ([]any, error) {
	if err := checkMinWidth(rows, t.width); err != nil {
		return nil, err
	}

	out := make([]any, len(rows))
	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		idx := 0
		for !t.nodes[idx].Leaf {
			n := t.nodes[idx]
			if row[n.Feature] <= n.Threshold {
				idx = n.Left
			} else {
				idx = n.Right
			}
		}
		out[i] = t.nodes[idx].Value
	}

	return out, nil
}

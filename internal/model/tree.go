package model

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/spigell/retentioniq/internal/features"
)

// dumpNode mirrors one node of an XGBoost style json tree dump.
type dumpNode struct {
	NodeID         int         `json:"nodeid"`
	Split          string      `json:"split,omitempty"`
	SplitCondition float64     `json:"split_condition"`
	Yes            int         `json:"yes"`
	No             int         `json:"no"`
	Missing        *int        `json:"missing,omitempty"`
	Leaf           *float64    `json:"leaf,omitempty"`
	Children       []*dumpNode `json:"children,omitempty"`
}

type treeNode struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	yes       *treeNode
	no        *treeNode
	missing   *treeNode
}

// TreeEnsemble is a boosted tree classifier with a logistic link.
type TreeEnsemble struct {
	baseMargin float64
	trees      []*treeNode
	arity      int
}

// LoadTreeEnsemble reads the array written by xgboost's
// dump_model(fout, dump_format="json") and resolves split names against the
// training columns. baseMargin is the log-odds of the booster's base_score.
func LoadTreeEnsemble(path string, columns []string, baseMargin float64) (*TreeEnsemble, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var dump []*dumpNode
	if err := json.Unmarshal(data, &dump); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	return newTreeEnsemble(dump, columns, baseMargin)
}

func newTreeEnsemble(dump []*dumpNode, columns []string, baseMargin float64) (*TreeEnsemble, error) {
	if len(dump) == 0 {
		return nil, fmt.Errorf("tree dump has no trees")
	}

	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c] = i
	}

	trees := make([]*treeNode, 0, len(dump))
	for i, root := range dump {
		node, err := compileNode(root, index, len(columns))
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		trees = append(trees, node)
	}

	return &TreeEnsemble{baseMargin: baseMargin, trees: trees, arity: len(columns)}, nil
}

func compileNode(n *dumpNode, index map[string]int, arity int) (*treeNode, error) {
	if n == nil {
		return nil, fmt.Errorf("empty node")
	}

	if n.Leaf != nil {
		return &treeNode{leaf: true, value: *n.Leaf}, nil
	}

	feature, err := resolveFeature(n.Split, index, arity)
	if err != nil {
		return nil, fmt.Errorf("node %d: %w", n.NodeID, err)
	}

	children := make(map[int]*dumpNode, len(n.Children))
	for _, c := range n.Children {
		if c != nil {
			children[c.NodeID] = c
		}
	}

	out := &treeNode{feature: feature, threshold: n.SplitCondition}
	for _, branch := range []struct {
		id   int
		dest **treeNode
	}{{n.Yes, &out.yes}, {n.No, &out.no}} {
		child, ok := children[branch.id]
		if !ok {
			return nil, fmt.Errorf("node %d: child %d not found", n.NodeID, branch.id)
		}
		compiled, err := compileNode(child, index, arity)
		if err != nil {
			return nil, err
		}
		*branch.dest = compiled
	}

	out.missing = out.yes
	if n.Missing != nil && *n.Missing == n.No {
		out.missing = out.no
	}

	return out, nil
}

// resolveFeature accepts a training column name or an "f<index>" alias.
func resolveFeature(split string, index map[string]int, arity int) (int, error) {
	if i, ok := index[split]; ok {
		return i, nil
	}
	if strings.HasPrefix(split, "f") {
		if i, err := strconv.Atoi(split[1:]); err == nil && i >= 0 && i < arity {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown split feature %q", split)
}

// Arity is the expected vector length.
func (t *TreeEnsemble) Arity() int { return t.arity }

// Predict returns the positive class probability.
func (t *TreeEnsemble) Predict(v features.Vector) (float64, error) {
	if len(v) != t.arity {
		return 0, fmt.Errorf("tree ensemble expects %d features, got %d", t.arity, len(v))
	}

	margin := t.baseMargin
	for _, root := range t.trees {
		node := root
		for !node.leaf {
			x := v[node.feature]
			switch {
			case math.IsNaN(x):
				node = node.missing
			case x < node.threshold:
				node = node.yes
			default:
				node = node.no
			}
		}
		margin += node.value
	}

	return sigmoid(margin), nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

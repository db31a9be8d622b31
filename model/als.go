package model

import (
	"encoding/json"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/Sreddy08840/agri-connect/core"
)

// ALSModel 是离线 ALS 训练产出的物品隐向量模型（只读）。
// 在线只用到"与物品 X 最相似的 N 个物品"查询：对隐向量做余弦相似度。
type ALSModel struct {
	factors *mat.Dense // items × dim
	norms   []float64  // 每行的 L2 范数，解码时预计算
}

// Neighbor 是一次近邻查询的单条结果，Index 为物品的稠密下标。
type Neighbor struct {
	Index int
	Score float64
}

// alsBlob 对应 als.json 制品。
type alsBlob struct {
	ItemFactors [][]float64 `json:"item_factors"`
}

// DecodeALS 解析 als.json 制品。
func DecodeALS(data []byte) (*ALSModel, error) {
	var blob alsBlob
	if err := json.Unmarshal(data, &blob); err != nil {
		return nil, fmt.Errorf("decode als: %w", err)
	}
	if len(blob.ItemFactors) == 0 {
		return nil, fmt.Errorf("decode als: no item factors")
	}

	rows := len(blob.ItemFactors)
	dim := len(blob.ItemFactors[0])
	if dim == 0 {
		return nil, fmt.Errorf("decode als: zero-dimension factors")
	}

	flat := make([]float64, 0, rows*dim)
	for i, row := range blob.ItemFactors {
		if len(row) != dim {
			return nil, fmt.Errorf("decode als: ragged factor row %d (%d vs %d)", i, len(row), dim)
		}
		flat = append(flat, row...)
	}

	factors := mat.NewDense(rows, dim, flat)
	norms := make([]float64, rows)
	for i := 0; i < rows; i++ {
		norms[i] = floats.Norm(factors.RawRowView(i), 2)
	}
	return &ALSModel{factors: factors, norms: norms}, nil
}

// Items 返回模型覆盖的物品数（= 物品映射的稠密空间大小）。
func (m *ALSModel) Items() int {
	if m == nil {
		return 0
	}
	r, _ := m.factors.Dims()
	return r
}

// SimilarItems 返回与下标 idx 的物品余弦相似度最高的 n 个物品（含自身）。
// 结果按相似度降序，分数相同时按下标升序，保证同一模型代内结果确定。
func (m *ALSModel) SimilarItems(idx, n int) ([]Neighbor, error) {
	rows := m.Items()
	if idx < 0 || idx >= rows {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeNotFound,
			fmt.Sprintf("als: item index %d out of range", idx))
	}
	if n <= 0 {
		return nil, nil
	}

	seed := m.factors.RawRowView(idx)
	seedNorm := m.norms[idx]

	out := make([]Neighbor, 0, rows)
	for i := 0; i < rows; i++ {
		var score float64
		if den := seedNorm * m.norms[i]; den > 0 {
			score = floats.Dot(seed, m.factors.RawRowView(i)) / den
		}
		out = append(out, Neighbor{Index: i, Score: score})
	}

	sortNeighbors(out)
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// sortNeighbors 按相似度降序稳定排序；构造顺序即下标升序，稳定性保证平分时下标小者在前。
func sortNeighbors(ns []Neighbor) {
	sort.SliceStable(ns, func(i, j int) bool {
		return ns[i].Score > ns[j].Score
	})
}

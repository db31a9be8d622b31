package model

import (
	"encoding/json"
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/Sreddy08840/agri-connect/core"
)

// TFIDFModel 是离线训练产出的商品文本词权矩阵（只读）。
// 第 i 行对应 Products()[i] 的 TF-IDF 向量；在线用它做
// 用户画像质心和逐商品余弦相似度。
type TFIDFModel struct {
	matrix   *mat.Dense // products × terms
	norms    []float64  // 每行的 L2 范数，解码时预计算
	products []core.Product
	rowByID  map[string]int
}

// tfidfBlob 对应 tfidf.json 制品。
type tfidfBlob struct {
	Matrix   [][]float64    `json:"matrix"`
	Products []core.Product `json:"products"`
}

// DecodeTFIDF 解析 tfidf.json 制品。矩阵行数必须与商品列表一一对应。
func DecodeTFIDF(data []byte) (*TFIDFModel, error) {
	var blob tfidfBlob
	if err := json.Unmarshal(data, &blob); err != nil {
		return nil, fmt.Errorf("decode tfidf: %w", err)
	}
	if len(blob.Matrix) == 0 {
		return nil, fmt.Errorf("decode tfidf: empty matrix")
	}
	if len(blob.Matrix) != len(blob.Products) {
		return nil, fmt.Errorf("decode tfidf: matrix rows (%d) and products (%d) mismatch",
			len(blob.Matrix), len(blob.Products))
	}

	rows := len(blob.Matrix)
	terms := len(blob.Matrix[0])
	if terms == 0 {
		return nil, fmt.Errorf("decode tfidf: zero-term vocabulary")
	}

	flat := make([]float64, 0, rows*terms)
	for i, row := range blob.Matrix {
		if len(row) != terms {
			return nil, fmt.Errorf("decode tfidf: ragged row %d (%d vs %d)", i, len(row), terms)
		}
		flat = append(flat, row...)
	}

	rowByID := make(map[string]int, rows)
	for i, p := range blob.Products {
		if p.ID == "" {
			return nil, fmt.Errorf("decode tfidf: product row %d has empty id", i)
		}
		if _, dup := rowByID[p.ID]; dup {
			return nil, fmt.Errorf("decode tfidf: duplicate product id %q", p.ID)
		}
		rowByID[p.ID] = i
	}

	matrix := mat.NewDense(rows, terms, flat)
	norms := make([]float64, rows)
	for i := 0; i < rows; i++ {
		norms[i] = floats.Norm(matrix.RawRowView(i), 2)
	}

	return &TFIDFModel{
		matrix:   matrix,
		norms:    norms,
		products: blob.Products,
		rowByID:  rowByID,
	}, nil
}

// Products 返回矩阵覆盖的商品数。
func (m *TFIDFModel) Products() int {
	if m == nil {
		return 0
	}
	return len(m.products)
}

// Product 返回第 row 行对应的商品元信息。
func (m *TFIDFModel) Product(row int) core.Product {
	return m.products[row]
}

// Row 返回商品 ID 对应的矩阵行号；不在矩阵中返回 false。
func (m *TFIDFModel) Row(id string) (int, bool) {
	if m == nil {
		return 0, false
	}
	row, ok := m.rowByID[id]
	return row, ok
}

// Centroid 计算若干行向量的逐元素均值（用户画像向量）。
// rows 为空时返回 nil。
func (m *TFIDFModel) Centroid(rows []int) []float64 {
	if len(rows) == 0 {
		return nil
	}
	_, terms := m.matrix.Dims()
	acc := make([]float64, terms)
	for _, r := range rows {
		floats.Add(acc, m.matrix.RawRowView(r))
	}
	floats.Scale(1/float64(len(rows)), acc)
	return acc
}

// SimilarToVector 计算画像向量与每一行的余弦相似度，返回按行号索引的分数。
// 零向量一侧的相似度记 0。
func (m *TFIDFModel) SimilarToVector(profile []float64) []float64 {
	rows := m.Products()
	out := make([]float64, rows)
	pNorm := floats.Norm(profile, 2)
	if pNorm == 0 {
		return out
	}
	for i := 0; i < rows; i++ {
		if den := pNorm * m.norms[i]; den > 0 {
			out[i] = floats.Dot(profile, m.matrix.RawRowView(i)) / den
		}
	}
	return out
}

// SimilarToRow 计算第 row 行与每一行的余弦相似度（"看了又看"查询）。
func (m *TFIDFModel) SimilarToRow(row int) ([]float64, error) {
	if row < 0 || row >= m.Products() {
		return nil, core.NewDomainError(core.ModuleModel, core.ErrorCodeNotFound,
			fmt.Sprintf("tfidf: row %d out of range", row))
	}
	return m.SimilarToVector(m.matrix.RawRowView(row)), nil
}

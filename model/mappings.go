package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// IndexMapping 是 ID ↔ 稠密下标的双向全射映射。
// 训练任务为用户和物品各产出一份；不在映射中的 ID 视为"模型不认识"，不是错误。
type IndexMapping struct {
	index map[string]int
	ids   []string
}

// Index 返回 ID 对应的稠密下标。
func (m *IndexMapping) Index(id string) (int, bool) {
	if m == nil {
		return 0, false
	}
	idx, ok := m.index[id]
	return idx, ok
}

// ID 返回稠密下标对应的 ID。
func (m *IndexMapping) ID(pos int) (string, bool) {
	if m == nil || pos < 0 || pos >= len(m.ids) {
		return "", false
	}
	return m.ids[pos], true
}

// Len 返回映射中的条目数。
func (m *IndexMapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.ids)
}

// Mappings 是用户映射和物品映射的组合，对应 mappings.json 制品。
type Mappings struct {
	Users *IndexMapping
	Items *IndexMapping
}

// mappingsBlob 对应训练任务输出的 mappings.json 结构。
// index_to_* 的 key 是字符串形式的下标（JSON object 无整数 key）。
type mappingsBlob struct {
	UserIndex   map[string]int    `json:"user_index"`
	ItemIndex   map[string]int    `json:"item_index"`
	IndexToUser map[string]string `json:"index_to_user"`
	IndexToItem map[string]string `json:"index_to_item"`
}

// DecodeMappings 解析 mappings.json 制品，并校验双向映射的全射性。
func DecodeMappings(data []byte) (*Mappings, error) {
	var blob mappingsBlob
	if err := json.Unmarshal(data, &blob); err != nil {
		return nil, fmt.Errorf("decode mappings: %w", err)
	}

	users, err := buildMapping(blob.UserIndex, blob.IndexToUser, "user")
	if err != nil {
		return nil, err
	}
	items, err := buildMapping(blob.ItemIndex, blob.IndexToItem, "item")
	if err != nil {
		return nil, err
	}
	return &Mappings{Users: users, Items: items}, nil
}

func buildMapping(index map[string]int, reverse map[string]string, kind string) (*IndexMapping, error) {
	if len(index) == 0 {
		return nil, fmt.Errorf("mappings: empty %s index", kind)
	}
	if len(reverse) != len(index) {
		return nil, fmt.Errorf("mappings: %s index and reverse size mismatch (%d vs %d)", kind, len(index), len(reverse))
	}

	ids := make([]string, len(index))
	filled := make([]bool, len(index))
	for posStr, id := range reverse {
		pos, err := strconv.Atoi(posStr)
		if err != nil {
			return nil, fmt.Errorf("mappings: bad %s position %q: %w", kind, posStr, err)
		}
		if pos < 0 || pos >= len(ids) {
			return nil, fmt.Errorf("mappings: %s position %d out of range", kind, pos)
		}
		if filled[pos] {
			return nil, fmt.Errorf("mappings: duplicate %s position %d", kind, pos)
		}
		ids[pos] = id
		filled[pos] = true
	}

	// 正反向必须互逆，否则模型行和 ID 会错位
	for id, pos := range index {
		if pos < 0 || pos >= len(ids) || ids[pos] != id {
			return nil, fmt.Errorf("mappings: %s mapping not bijective at %q", kind, id)
		}
	}

	return &IndexMapping{index: index, ids: ids}, nil
}

package rerank

import (
	"sort"

	"github.com/Sreddy08840/agri-connect/core"
)

// TopN 对物品按分数降序稳定排序，按 ID 去重（保留先出现的），并截取前 n 个。
// 分数相同的物品维持输入顺序，保证同一输入下输出确定。
// n <= 0 时不截断。
func TopN(items []*core.Item, n int) []*core.Item {
	if len(items) == 0 {
		return items
	}

	sorted := make([]*core.Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	seen := make(map[string]struct{}, len(sorted))
	out := make([]*core.Item, 0, len(sorted))
	for _, item := range sorted {
		if item == nil {
			continue
		}
		if _, ok := seen[item.ID]; ok {
			continue
		}
		seen[item.ID] = struct{}{}
		out = append(out, item)
		if n > 0 && len(out) == n {
			break
		}
	}
	return out
}

package recommend

import (
	"sort"

	"github.com/Sreddy08840/agri-connect/core"
)

// 混合权重默认值，与离线评估选定的配比一致。
const (
	DefaultCFWeight = 0.7
	DefaultCBWeight = 0.3
)

// blend 对两路打分结果做加权融合。
// 每个物品的分数为 wcf*协同分 + wcb*内容分，缺失的一路按 0 计。
// 融合结果是新构造的 Item，标签为来源标签的并集；
// 只有同时命中两路的物品才额外打 hybrid 标签。
// 遍历顺序为协同路的发现顺序在前、内容路新增的在后，
// 配合稳定排序保证同分物品的输出顺序确定。
func blend(cf, cb []*core.Item, wcf, wcb float64) []*core.Item {
	type part struct {
		item  *core.Item
		other *core.Item
	}
	order := make([]string, 0, len(cf)+len(cb))
	parts := make(map[string]*part, len(cf)+len(cb))

	for _, it := range cf {
		if _, ok := parts[it.ID]; ok {
			continue
		}
		parts[it.ID] = &part{item: it}
		order = append(order, it.ID)
	}
	for _, it := range cb {
		if p, ok := parts[it.ID]; ok {
			if p.other == nil {
				p.other = it
			}
			continue
		}
		parts[it.ID] = &part{other: it}
		order = append(order, it.ID)
	}

	out := make([]*core.Item, 0, len(order))
	for _, id := range order {
		p := parts[id]
		merged := core.NewItem(id)
		if p.item != nil {
			merged.Score += wcf * p.item.Score
			for _, r := range p.item.Reasons {
				merged.AddReason(r)
			}
		}
		if p.other != nil {
			merged.Score += wcb * p.other.Score
			for _, r := range p.other.Reasons {
				merged.AddReason(r)
			}
		}
		if p.item != nil && p.other != nil {
			merged.AddReason(core.ReasonHybrid)
		}
		out = append(out, merged)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

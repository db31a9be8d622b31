package core

// Reason 是推荐候选的来源标签（provenance tag），标记候选由哪条打分路径产生。
// 一个候选可以同时带多个标签，例如同时命中协同过滤与内容召回时会额外打上 hybrid。
const (
	ReasonCollaborative = "collaborative"
	ReasonContent       = "content"
	ReasonHybrid        = "hybrid"
	ReasonPopular       = "popular"
)

// Item 是推荐链路中的统一承载结构：分数 + 来源标签。
// Reasons 用于解释与观测；Score 用于排序决策。
// 约定：对外输出的 Item 至少带一个 Reason，Score 为有限非负值。
type Item struct {
	ID      string
	Score   float64
	Reasons []string
}

func NewItem(id string) *Item {
	return &Item{ID: id}
}

// AddReason 追加来源标签；同名标签只保留一个，保持首次加入的顺序。
func (it *Item) AddReason(reason string) {
	if reason == "" {
		return
	}
	for _, r := range it.Reasons {
		if r == reason {
			return
		}
	}
	it.Reasons = append(it.Reasons, reason)
}

// HasReason 判断候选是否带有指定来源标签。
func (it *Item) HasReason(reason string) bool {
	for _, r := range it.Reasons {
		if r == reason {
			return true
		}
	}
	return false
}

// Clone 返回候选的深拷贝。缓存等持有方通过拷贝保证不与调用方共享可变状态。
func (it *Item) Clone() *Item {
	if it == nil {
		return nil
	}
	cp := &Item{ID: it.ID, Score: it.Score}
	if len(it.Reasons) > 0 {
		cp.Reasons = make([]string, len(it.Reasons))
		copy(cp.Reasons, it.Reasons)
	}
	return cp
}

// CloneItems 深拷贝整个候选列表。
func CloneItems(items []*Item) []*Item {
	if items == nil {
		return nil
	}
	out := make([]*Item, 0, len(items))
	for _, it := range items {
		out = append(out, it.Clone())
	}
	return out
}

// Product 是商品目录的元信息，固定 schema 的强类型记录。
// 本子系统只读引用，不做任何修改。
type Product struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
}

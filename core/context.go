package core

// RecommendContext 承载一次请求的用户与行为快照，贯穿各打分路径透传。
// History 由编排层取数后填充；打分源优先使用它，避免同一请求内重复取数，
// 也保证两条路径观察到同一份历史快照。
type RecommendContext struct {
	UserID string

	// TopK 是本次调用期望的候选数量。打分源可用自身默认值兜底。
	TopK int

	// History 是用户行为快照；为 nil 时打分源自行从 HistoryStore 取数。
	History *UserHistory
}

// UserHistory 是一次请求内的用户行为快照。
type UserHistory struct {
	// Interactions 是有效订单交互，按时间倒序。
	Interactions []InteractionEvent

	// Viewed 是浏览窗口内（默认 30 天）看过的物品 ID。
	Viewed []string
}

// Empty 判断用户是否完全没有可用历史（冷启动判定条件）。
func (h *UserHistory) Empty() bool {
	return h == nil || (len(h.Interactions) == 0 && len(h.Viewed) == 0)
}

// PurchasedIDs 返回按时间倒序去重后的已购物品 ID。
func (h *UserHistory) PurchasedIDs() []string {
	if h == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(h.Interactions))
	out := make([]string, 0, len(h.Interactions))
	for _, ev := range h.Interactions {
		if ev.Type != InteractionPurchase {
			continue
		}
		if _, ok := seen[ev.ItemID]; ok {
			continue
		}
		seen[ev.ItemID] = struct{}{}
		out = append(out, ev.ItemID)
	}
	return out
}

// InteractedSet 返回已购 ∪ 已浏览的物品 ID 集合，用于候选排除。
func (h *UserHistory) InteractedSet() map[string]struct{} {
	if h == nil {
		return map[string]struct{}{}
	}
	set := make(map[string]struct{}, len(h.Interactions)+len(h.Viewed))
	for _, ev := range h.Interactions {
		set[ev.ItemID] = struct{}{}
	}
	for _, id := range h.Viewed {
		set[id] = struct{}{}
	}
	return set
}

package recall

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/Sreddy08840/agri-connect/core"
	"github.com/Sreddy08840/agri-connect/model"
)

// Collaborative 是基于 ALS 隐向量近邻的协同过滤打分源（i2i 方向）。
//
// 算法流程：
//  1. 取用户最近 SeedCount 个去重后的已购物品作为种子（须在物品映射中）
//  2. 每个种子查 TopK+ExtraPerSeed 个隐向量近邻，补偿后续过滤的损耗
//  3. 剔除用户已购/已浏览过的物品
//  4. 按发现顺序合并各种子的近邻，稳定排序后去重（同一物品保留最高分）
//  5. 截断到 TopK，打 collaborative 标签
//
// 单个种子查询失败只跳过该种子并记日志，不中断其余种子。
type Collaborative struct {
	// Models 是本次请求捕获的模型代快照。
	Models *model.Generation

	// History 是行为数据后端；rctx.History 已填充时不会访问。
	History core.HistoryStore

	// SeedCount 参与近邻查询的种子物品数，<=0 时为 5。
	SeedCount int

	// ExtraPerSeed 每个种子多取的近邻数（过滤补偿），<=0 时为 10。
	ExtraPerSeed int

	// TopK 返回的候选数，<=0 时取 rctx.TopK，再兜底 20。
	TopK int

	// Log 为零值时静默。
	Log zerolog.Logger
}

func (r *Collaborative) Name() string {
	return "recall.collaborative"
}

func (r *Collaborative) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if rctx == nil || rctx.UserID == "" {
		return nil, nil
	}
	gen := r.Models
	if !gen.CollaborativeReady() || !gen.MappingsReady() {
		return nil, nil
	}

	// 训练数据没见过的用户直接走空态，让编排层落到后面的状态
	if _, ok := gen.Mappings.Users.Index(rctx.UserID); !ok {
		return nil, nil
	}

	hist := rctx.History
	if hist == nil {
		var err error
		hist, err = LoadHistory(ctx, r.History, rctx.UserID, 0)
		if err != nil {
			return nil, err
		}
	}

	seedCount := r.SeedCount
	if seedCount <= 0 {
		seedCount = 5
	}
	extra := r.ExtraPerSeed
	if extra <= 0 {
		extra = 10
	}
	topK := r.TopK
	if topK <= 0 {
		topK = rctx.TopK
	}
	if topK <= 0 {
		topK = 20
	}

	// 种子：最近购买的去重物品里，物品映射认识的前 seedCount 个
	seeds := make([]int, 0, seedCount)
	for _, id := range hist.PurchasedIDs() {
		if idx, ok := gen.Mappings.Items.Index(id); ok {
			seeds = append(seeds, idx)
			if len(seeds) >= seedCount {
				break
			}
		}
	}
	if len(seeds) == 0 {
		return nil, nil
	}

	interacted := hist.InteractedSet()

	// 按发现顺序收集候选；同一物品跨种子出现时靠稳定排序+首见去重保留最高分
	type candidate struct {
		id    string
		score float64
	}
	merged := make([]candidate, 0, len(seeds)*(topK+extra))

	for _, seedIdx := range seeds {
		neighbors, err := gen.ALS.SimilarItems(seedIdx, topK+extra)
		if err != nil {
			r.Log.Warn().Err(err).Int("seed", seedIdx).Msg("similar items lookup failed, seed skipped")
			continue
		}
		for _, nb := range neighbors {
			id, ok := gen.Mappings.Items.ID(nb.Index)
			if !ok {
				continue
			}
			if _, done := interacted[id]; done {
				continue
			}
			merged = append(merged, candidate{id: id, score: nb.Score})
		}
	}
	if len(merged) == 0 {
		return nil, nil
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].score > merged[j].score
	})

	seen := make(map[string]struct{}, topK)
	out := make([]*core.Item, 0, topK)
	for _, c := range merged {
		if _, dup := seen[c.id]; dup {
			continue
		}
		seen[c.id] = struct{}{}

		it := core.NewItem(c.id)
		it.Score = c.score
		it.AddReason(core.ReasonCollaborative)
		out = append(out, it)
		if len(out) >= topK {
			break
		}
	}
	return out, nil
}

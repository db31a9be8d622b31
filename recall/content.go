package recall

import (
	"context"
	"sort"

	"github.com/rs/zerolog"

	"github.com/Sreddy08840/agri-connect/core"
	"github.com/Sreddy08840/agri-connect/model"
)

// Content 是基于 TF-IDF 词权向量的内容打分源。
//
// 算法流程：
//  1. 取已购 ∪ 近期浏览的物品里词权矩阵认识的行
//  2. 求这些行向量的质心作为用户画像向量
//  3. 画像向量对全目录逐商品算余弦相似度
//  4. 剔除用户已交互过的物品，降序截断到 TopK，打 content 标签
//
// 注意没有相似度下限：即使全部正交也返回相似度最高的 TopK，
// 只有完全构不出画像向量时才返回空。
type Content struct {
	// Models 是本次请求捕获的模型代快照。
	Models *model.Generation

	// History 是行为数据后端；rctx.History 已填充时不会访问。
	History core.HistoryStore

	// ViewWindowDays 浏览记录的回看窗口（天），<=0 时为 30。
	ViewWindowDays int

	// TopK 返回的候选数，<=0 时取 rctx.TopK，再兜底 20。
	TopK int

	// Log 为零值时静默。
	Log zerolog.Logger
}

func (r *Content) Name() string {
	return "recall.content"
}

func (r *Content) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if rctx == nil || rctx.UserID == "" {
		return nil, nil
	}
	gen := r.Models
	if !gen.ContentReady() {
		return nil, nil
	}

	hist := rctx.History
	if hist == nil {
		var err error
		hist, err = LoadHistory(ctx, r.History, rctx.UserID, r.ViewWindowDays)
		if err != nil {
			return nil, err
		}
	}

	topK := r.TopK
	if topK <= 0 {
		topK = rctx.TopK
	}
	if topK <= 0 {
		topK = 20
	}

	tfidf := gen.TFIDF
	interacted := hist.InteractedSet()

	// 画像行集合按行号升序，保证质心累加顺序与历史快照无关
	profileRows := make([]int, 0, len(interacted))
	for id := range interacted {
		if row, ok := tfidf.Row(id); ok {
			profileRows = append(profileRows, row)
		}
	}
	if len(profileRows) == 0 {
		return nil, nil
	}
	sort.Ints(profileRows)

	profile := tfidf.Centroid(profileRows)
	sims := tfidf.SimilarToVector(profile)

	type candidate struct {
		row   int
		score float64
	}
	scored := make([]candidate, 0, len(sims))
	for row, score := range sims {
		id := tfidf.Product(row).ID
		if _, done := interacted[id]; done {
			continue
		}
		scored = append(scored, candidate{row: row, score: score})
	}
	if len(scored) == 0 {
		return nil, nil
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})
	if len(scored) > topK {
		scored = scored[:topK]
	}

	out := make([]*core.Item, 0, len(scored))
	for _, c := range scored {
		it := core.NewItem(tfidf.Product(c.row).ID)
		it.Score = c.score
		it.AddReason(core.ReasonContent)
		out = append(out, it)
	}
	return out, nil
}

package recommend

import (
	"context"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Sreddy08840/agri-connect/core"
	"github.com/Sreddy08840/agri-connect/filter"
	"github.com/Sreddy08840/agri-connect/model"
	"github.com/Sreddy08840/agri-connect/recall"
	"github.com/Sreddy08840/agri-connect/rerank"
	"github.com/Sreddy08840/agri-connect/store"
)

// Engine 是推荐编排器：加权融合两路打分，按模型/数据可用性逐级降级。
//
// 一次请求的路径（自上而下，命中即停）：
//  1. 结果缓存命中           → hybrid (cached)
//  2. 用户无任何历史         → popular (cold-start)
//  3. 两路打分都有候选       → 加权融合，hybrid；融合候选过少时回退单路
//  4. 只有一路有候选         → collaborative / content-based，分数不加权
//  5. 两路都拿不出候选       → popular (fallback)
//
// 降级永不向调用方报错：任何一级失败都落到下一级，最坏返回空列表。
type Engine struct {
	// Loader 提供模型代快照，每次请求取一次。
	Loader *model.Loader

	// History 是行为数据后端。
	History core.HistoryStore

	// Cache 是结果缓存，可为 nil（关缓存）。
	Cache *store.ResultCache

	// Filters 在截断前依次应用，可为空。
	Filters []filter.Filter

	// CFWeight/CBWeight 是融合权重，两者都为 0 时使用 0.7/0.3。
	CFWeight float64
	CBWeight float64

	// SeedCount 协同路的种子物品数，<=0 时为 5。
	SeedCount int

	// ExtraPerSeed 协同路每个种子多取的近邻数，<=0 时为 10。
	ExtraPerSeed int

	// ViewWindowDays 浏览记录回看窗口（天），<=0 时为 30。
	ViewWindowDays int

	// DefaultTopK 请求未指定 TopK 时的默认值，<=0 时为 20。
	DefaultTopK int

	// Log 为零值时静默。
	Log zerolog.Logger
}

// RecommendForUser 为用户生成 topK 个推荐。
// topK <= 0 时使用 DefaultTopK。返回的 Method 标识最终走的路径。
func (e *Engine) RecommendForUser(ctx context.Context, userID string, topK int) (*Response, error) {
	if userID == "" {
		return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInvalidInput, "recommend: empty user id")
	}

	k := topK
	if k <= 0 {
		k = e.DefaultTopK
	}
	if k <= 0 {
		k = 20
	}

	if e.Cache != nil {
		if items := e.Cache.Get(userID, k); items != nil {
			e.Log.Debug().Str("user_id", userID).Int("top_k", k).Msg("result cache hit")
			return &Response{UserID: userID, Items: items, Method: MethodHybridCached}, nil
		}
	}

	gen := e.Loader.Snapshot()

	hist, err := recall.LoadHistory(ctx, e.History, userID, e.ViewWindowDays)
	if err != nil {
		// 行为数据故障按无历史处理，走冷启动而不是报错
		e.Log.Warn().Err(err).Str("user_id", userID).Msg("history load failed, treating as cold start")
		hist = &core.UserHistory{}
	}

	rctx := &core.RecommendContext{UserID: userID, TopK: k, History: hist}

	if hist.Empty() {
		return e.finish(ctx, rctx, e.popular(ctx, rctx, k), MethodColdStart, k)
	}

	cf, cb := e.runScorers(ctx, gen, rctx, 2*k)

	// 两路都被尝试过（就绪）时走融合，哪怕其中一路没打出分；
	// 只有对侧模型未就绪才直接走单模型，分数不加权
	var items []*core.Item
	var method string
	switch {
	case cf.state == scorerScored && cb.state == scorerUnavailable:
		items, method = cf.items, MethodCollaborative
	case cb.state == scorerScored && cf.state == scorerUnavailable:
		items, method = cb.items, MethodContent
	case cf.state == scorerScored || cb.state == scorerScored:
		items, method = e.blendOrSingle(ctx, gen, rctx, cf.items, cb.items, k)
	}

	if len(items) == 0 {
		return e.finish(ctx, rctx, e.popular(ctx, rctx, k), MethodFallback, k)
	}
	return e.finish(ctx, rctx, items, method, k)
}

// SimilarToItem 返回与指定物品内容最相似的 topK 个物品（物品详情页场景）。
// 结果不走缓存。内容模型未加载返回 UNAVAILABLE，物品不在目录返回 NOT_FOUND。
func (e *Engine) SimilarToItem(ctx context.Context, itemID string, topK int) (*Response, error) {
	k := topK
	if k <= 0 {
		k = e.DefaultTopK
	}
	if k <= 0 {
		k = 20
	}

	gen := e.Loader.Snapshot()
	if !gen.ContentReady() {
		return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeUnavailable, "recommend: content model not loaded")
	}

	row, ok := gen.TFIDF.Row(itemID)
	if !ok {
		return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeNotFound, "recommend: item not in catalog: "+itemID)
	}

	sims, err := gen.TFIDF.SimilarToRow(row)
	if err != nil {
		return nil, err
	}

	items := make([]*core.Item, 0, len(sims))
	for r, score := range sims {
		if r == row {
			continue
		}
		it := core.NewItem(gen.TFIDF.Product(r).ID)
		it.Score = score
		it.AddReason(core.ReasonContent)
		items = append(items, it)
	}

	rctx := &core.RecommendContext{UserID: "", TopK: k}
	items = filter.Apply(ctx, e.Filters, rctx, items, e.Log)
	return &Response{UserID: itemID, Items: rerank.TopN(items, k), Method: MethodContent}, nil
}

// RefreshModels 重新加载模型制品并清空结果缓存。
// 缓存必须在换代之后清，否则会继续对外提供旧模型的结果。
func (e *Engine) RefreshModels(ctx context.Context) model.Readiness {
	readiness := e.Loader.Refresh(ctx)
	if e.Cache != nil {
		e.Cache.Clear()
	}
	e.Log.Info().
		Bool("als", readiness.Collaborative).
		Bool("tfidf", readiness.Content).
		Bool("mappings", readiness.Mappings).
		Msg("models refreshed, result cache cleared")
	return readiness
}

// CacheStats 返回缓存规模与模型就绪状态。
func (e *Engine) CacheStats() Stats {
	s := Stats{Models: e.Loader.Readiness()}
	if e.Cache != nil {
		s.Size = e.Cache.Len()
		s.TTLSeconds = e.Cache.TTLSeconds()
	}
	return s
}

// runScorers 并发执行两路打分，各取 limit 个候选。
// 打分器返回错误时记日志并按不可用处理，不中断另一路。
func (e *Engine) runScorers(
	ctx context.Context,
	gen *model.Generation,
	rctx *core.RecommendContext,
	limit int,
) (cf, cb scorerResult) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		cf = e.runOne(gctx, e.collaborative(gen, limit), rctx, gen.CollaborativeReady() && gen.MappingsReady())
		return nil
	})
	g.Go(func() error {
		cb = e.runOne(gctx, e.content(gen, limit), rctx, gen.ContentReady())
		return nil
	})
	_ = g.Wait()
	return cf, cb
}

func (e *Engine) runOne(
	ctx context.Context,
	src recall.Source,
	rctx *core.RecommendContext,
	ready bool,
) scorerResult {
	if !ready {
		return scorerResult{state: scorerUnavailable}
	}
	items, err := src.Recall(ctx, rctx)
	if err != nil {
		e.Log.Warn().Err(err).Str("source", src.Name()).Str("user_id", rctx.UserID).Msg("scorer failed")
		return scorerResult{state: scorerUnavailable}
	}
	if len(items) == 0 {
		return scorerResult{state: scorerEmpty}
	}
	return scorerResult{state: scorerScored, items: items}
}

// blendOrSingle 融合两路结果（允许其中一路为空，空路按 0 分计入加权）；
// 融合后候选不足 k/2 时改走候选更多的单路。
// 单路重打分拿不出结果时仍然用融合结果，避免越回退越空。
func (e *Engine) blendOrSingle(
	ctx context.Context,
	gen *model.Generation,
	rctx *core.RecommendContext,
	cf, cb []*core.Item,
	k int,
) ([]*core.Item, string) {
	wcf, wcb := e.CFWeight, e.CBWeight
	if wcf == 0 && wcb == 0 {
		wcf, wcb = DefaultCFWeight, DefaultCBWeight
	}

	blended := blend(cf, cb, wcf, wcb)
	if len(blended) >= k/2 {
		return blended, MethodHybrid
	}

	// 融合后候选太少：改走候选更多的那一路，并列时优先协同
	var src recall.Source
	var method string
	if len(cf) >= len(cb) {
		src, method = e.collaborative(gen, k), MethodCollaborative
	} else {
		src, method = e.content(gen, k), MethodContent
	}

	single, err := src.Recall(ctx, rctx)
	if err != nil {
		e.Log.Warn().Err(err).Str("source", src.Name()).Msg("single-model fallback failed")
		return blended, MethodHybrid
	}
	if len(single) == 0 {
		return blended, MethodHybrid
	}
	return single, method
}

// popular 走热销兜底，失败时记日志并返回空列表。
func (e *Engine) popular(ctx context.Context, rctx *core.RecommendContext, k int) []*core.Item {
	hot := &recall.Hot{History: e.History, TopK: k, Log: e.Log}
	items, err := hot.Recall(ctx, rctx)
	if err != nil {
		e.Log.Warn().Err(err).Str("user_id", rctx.UserID).Msg("top selling lookup failed")
		return nil
	}
	return items
}

// finish 对选定结果做过滤、截断、缓存并组装响应。
func (e *Engine) finish(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
	method string,
	k int,
) (*Response, error) {
	items = filter.Apply(ctx, e.Filters, rctx, items, e.Log)
	items = rerank.TopN(items, k)
	if items == nil {
		items = []*core.Item{}
	}

	if e.Cache != nil {
		e.Cache.Put(rctx.UserID, k, items)
	}

	e.Log.Debug().
		Str("user_id", rctx.UserID).
		Str("method", method).
		Int("count", len(items)).
		Msg("recommendation served")
	return &Response{UserID: rctx.UserID, Items: items, Method: method}, nil
}

func (e *Engine) collaborative(gen *model.Generation, topK int) *recall.Collaborative {
	return &recall.Collaborative{
		Models:       gen,
		History:      e.History,
		SeedCount:    e.SeedCount,
		ExtraPerSeed: e.ExtraPerSeed,
		TopK:         topK,
		Log:          e.Log,
	}
}

func (e *Engine) content(gen *model.Generation, topK int) *recall.Content {
	return &recall.Content{
		Models:         gen,
		History:        e.History,
		ViewWindowDays: e.ViewWindowDays,
		TopK:           topK,
		Log:            e.Log,
	}
}

package recommend

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/Sreddy08840/agri-connect/core"
	"github.com/Sreddy08840/agri-connect/model"
	"github.com/Sreddy08840/agri-connect/store"
)

// 四个商品、两个已知用户的完整制品集合
func seedArtifacts(t *testing.T, artifacts *store.MemoryStore, keys ...string) {
	t.Helper()

	blobs := map[string][]byte{
		model.DefaultALSKey: []byte(`{
			"item_factors": [
				[1, 0],
				[0.9, 0.1],
				[0, 1],
				[0.1, 0.9]
			]
		}`),
		model.DefaultTFIDFKey: []byte(`{
			"matrix": [
				[1, 0, 0],
				[0.9, 0.1, 0],
				[0, 1, 0],
				[0, 0.9, 0.1]
			],
			"products": [
				{"id": "P1"}, {"id": "P2"}, {"id": "P3"}, {"id": "P4"}
			]
		}`),
		model.DefaultMappingsKey: []byte(`{
			"user_index": {"u1": 0, "u2": 1},
			"item_index": {"P1": 0, "P2": 1, "P3": 2, "P4": 3},
			"index_to_user": {"0": "u1", "1": "u2"},
			"index_to_item": {"0": "P1", "1": "P2", "2": "P3", "3": "P4"}
		}`),
	}

	if len(keys) == 0 {
		keys = []string{model.DefaultALSKey, model.DefaultTFIDFKey, model.DefaultMappingsKey}
	}
	for _, key := range keys {
		if err := artifacts.Set(context.Background(), key, blobs[key]); err != nil {
			t.Fatalf("seed artifact %s: %v", key, err)
		}
	}
}

type engineOptions struct {
	artifactKeys []string
	purchases    map[string][]string
	noCache      bool
}

func newTestEngine(t *testing.T, opts engineOptions) *Engine {
	t.Helper()
	ctx := context.Background()

	artifacts := store.NewMemoryStore()
	seedArtifacts(t, artifacts, opts.artifactKeys...)

	loader := &model.Loader{Artifacts: artifacts}
	loader.Load(ctx)

	history := store.NewKVHistory(store.NewMemoryStore())
	for userID, itemIDs := range opts.purchases {
		for _, itemID := range itemIDs {
			err := history.RecordInteraction(ctx, userID, core.InteractionEvent{
				ItemID: itemID,
				Type:   core.InteractionPurchase,
				At:     time.Now().Add(-time.Hour),
			}, 1)
			if err != nil {
				t.Fatalf("record interaction: %v", err)
			}
		}
	}

	var cache *store.ResultCache
	if !opts.noCache {
		cache = store.NewResultCache(time.Hour, 100)
	}

	return &Engine{Loader: loader, History: history, Cache: cache}
}

func TestEngine_ColdStart(t *testing.T) {
	// u2 有购买（撑起热销榜），newcomer 没有任何历史
	e := newTestEngine(t, engineOptions{purchases: map[string][]string{"u2": {"P3", "P3", "P1"}}})

	resp, err := e.RecommendForUser(context.Background(), "newcomer", 5)
	if err != nil {
		t.Fatalf("RecommendForUser() error = %v", err)
	}
	if resp.Method != MethodColdStart {
		t.Fatalf("Method = %q, want %q", resp.Method, MethodColdStart)
	}
	if len(resp.Items) == 0 {
		t.Fatal("cold start should return top selling items")
	}
	if resp.Items[0].ID != "P3" {
		t.Errorf("top item = %s, want best seller P3", resp.Items[0].ID)
	}
	for _, it := range resp.Items {
		if !it.HasReason(core.ReasonPopular) {
			t.Errorf("item %s missing popular reason", it.ID)
		}
	}
}

func TestEngine_Hybrid(t *testing.T) {
	e := newTestEngine(t, engineOptions{purchases: map[string][]string{"u1": {"P1"}}})

	resp, err := e.RecommendForUser(context.Background(), "u1", 4)
	if err != nil {
		t.Fatalf("RecommendForUser() error = %v", err)
	}
	if resp.Method != MethodHybrid {
		t.Fatalf("Method = %q, want %q", resp.Method, MethodHybrid)
	}
	if len(resp.Items) == 0 {
		t.Fatal("hybrid should return items")
	}

	for _, it := range resp.Items {
		if it.ID == "P1" {
			t.Error("purchased item P1 must not be recommended")
		}
		if !it.HasReason(core.ReasonHybrid) {
			t.Errorf("item %s missing hybrid reason, got %v", it.ID, it.Reasons)
		}
	}
	for i := 1; i < len(resp.Items); i++ {
		if resp.Items[i].Score > resp.Items[i-1].Score {
			t.Errorf("scores not descending at %d", i)
		}
	}
}

func TestEngine_CacheHit(t *testing.T) {
	e := newTestEngine(t, engineOptions{purchases: map[string][]string{"u1": {"P1"}}})
	ctx := context.Background()

	first, err := e.RecommendForUser(ctx, "u1", 4)
	if err != nil {
		t.Fatalf("first call error = %v", err)
	}
	second, err := e.RecommendForUser(ctx, "u1", 4)
	if err != nil {
		t.Fatalf("second call error = %v", err)
	}

	if second.Method != MethodHybridCached {
		t.Fatalf("second Method = %q, want %q", second.Method, MethodHybridCached)
	}
	if len(second.Items) != len(first.Items) {
		t.Fatalf("cached items = %d, want %d", len(second.Items), len(first.Items))
	}
	for i := range first.Items {
		if second.Items[i].ID != first.Items[i].ID || second.Items[i].Score != first.Items[i].Score {
			t.Errorf("cached item %d differs: %+v vs %+v", i, second.Items[i], first.Items[i])
		}
	}

	// 不同 TopK 是独立的缓存条目
	third, err := e.RecommendForUser(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("third call error = %v", err)
	}
	if third.Method == MethodHybridCached {
		t.Error("different top_k must not hit the same cache entry")
	}
}

func TestEngine_SingleModelPaths(t *testing.T) {
	tests := []struct {
		name       string
		keys       []string
		wantMethod string
	}{
		{
			name:       "content model missing",
			keys:       []string{model.DefaultALSKey, model.DefaultMappingsKey},
			wantMethod: MethodCollaborative,
		},
		{
			name:       "collaborative model missing",
			keys:       []string{model.DefaultTFIDFKey, model.DefaultMappingsKey},
			wantMethod: MethodContent,
		},
		{
			name:       "mappings missing disables collaborative",
			keys:       []string{model.DefaultALSKey, model.DefaultTFIDFKey},
			wantMethod: MethodContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, engineOptions{
				artifactKeys: tt.keys,
				purchases:    map[string][]string{"u1": {"P1"}},
			})
			resp, err := e.RecommendForUser(context.Background(), "u1", 4)
			if err != nil {
				t.Fatalf("RecommendForUser() error = %v", err)
			}
			if resp.Method != tt.wantMethod {
				t.Errorf("Method = %q, want %q", resp.Method, tt.wantMethod)
			}
			if len(resp.Items) == 0 {
				t.Error("single model path should still return items")
			}
		})
	}
}

func TestEngine_EmptyScorerStillBlends(t *testing.T) {
	// 内容模型已加载但不覆盖用户摸过的任何商品：内容路是"空"而不是"不可用"。
	// 两路都被尝试过，仍然走加权融合：协同分乘 0.7，method 为 hybrid，
	// 单路命中的物品不打 hybrid 标签。
	ctx := context.Background()
	artifacts := store.NewMemoryStore()
	seedArtifacts(t, artifacts, model.DefaultALSKey, model.DefaultMappingsKey)
	err := artifacts.Set(ctx, model.DefaultTFIDFKey, []byte(`{
		"matrix": [[1, 0], [0, 1]],
		"products": [{"id": "Q1"}, {"id": "Q2"}]
	}`))
	if err != nil {
		t.Fatalf("seed tfidf: %v", err)
	}

	loader := &model.Loader{Artifacts: artifacts}
	if r := loader.Load(ctx); !r.Content {
		t.Fatal("content model should be loaded")
	}

	history := store.NewKVHistory(store.NewMemoryStore())
	err = history.RecordInteraction(ctx, "u1", core.InteractionEvent{
		ItemID: "P1", Type: core.InteractionPurchase, At: time.Now().Add(-time.Hour),
	}, 1)
	if err != nil {
		t.Fatalf("record interaction: %v", err)
	}

	e := &Engine{Loader: loader, History: history}
	resp, err := e.RecommendForUser(ctx, "u1", 4)
	if err != nil {
		t.Fatalf("RecommendForUser() error = %v", err)
	}
	if resp.Method != MethodHybrid {
		t.Fatalf("Method = %q, want %q", resp.Method, MethodHybrid)
	}
	if len(resp.Items) == 0 {
		t.Fatal("blended result should not be empty")
	}

	// 最相近的 P2：协同余弦 0.9/sqrt(0.82)，融合后乘权重 0.7
	wantTop := 0.7 * 0.9 / math.Sqrt(0.82)
	if resp.Items[0].ID != "P2" {
		t.Fatalf("top item = %s, want P2", resp.Items[0].ID)
	}
	if math.Abs(resp.Items[0].Score-wantTop) > 1e-9 {
		t.Errorf("top score = %v, want weighted %v", resp.Items[0].Score, wantTop)
	}
	for _, it := range resp.Items {
		if it.HasReason(core.ReasonHybrid) {
			t.Errorf("single-source item %s must not carry hybrid, got %v", it.ID, it.Reasons)
		}
		if !it.HasReason(core.ReasonCollaborative) {
			t.Errorf("item %s missing collaborative reason", it.ID)
		}
	}
}

func TestEngine_UnderfillFallsBackToSingleModel(t *testing.T) {
	// 目录只有 4 个商品，k=10 时融合候选必然不足 k/2，回退单模型
	e := newTestEngine(t, engineOptions{purchases: map[string][]string{"u1": {"P1"}}})

	resp, err := e.RecommendForUser(context.Background(), "u1", 10)
	if err != nil {
		t.Fatalf("RecommendForUser() error = %v", err)
	}
	if resp.Method != MethodCollaborative {
		t.Errorf("Method = %q, want %q", resp.Method, MethodCollaborative)
	}
	if len(resp.Items) == 0 {
		t.Error("single model fallback should return items")
	}
}

func TestEngine_PopularFallback(t *testing.T) {
	// stranger 有购买历史但不在用户映射里，买的商品也不在目录里：
	// 两路都空，落到热销兜底
	e := newTestEngine(t, engineOptions{purchases: map[string][]string{
		"u2":       {"P4"},
		"stranger": {"X1"},
	}})

	resp, err := e.RecommendForUser(context.Background(), "stranger", 5)
	if err != nil {
		t.Fatalf("RecommendForUser() error = %v", err)
	}
	if resp.Method != MethodFallback {
		t.Fatalf("Method = %q, want %q", resp.Method, MethodFallback)
	}
	if len(resp.Items) == 0 {
		t.Fatal("fallback should return top selling items")
	}
}

func TestEngine_EmptyEverything(t *testing.T) {
	// 没有模型也没有任何销量：返回空列表而不是错误
	artifacts := store.NewMemoryStore()
	loader := &model.Loader{Artifacts: artifacts}
	loader.Load(context.Background())

	e := &Engine{
		Loader:  loader,
		History: store.NewKVHistory(store.NewMemoryStore()),
	}

	resp, err := e.RecommendForUser(context.Background(), "nobody", 5)
	if err != nil {
		t.Fatalf("RecommendForUser() error = %v", err)
	}
	if resp.Items == nil {
		t.Error("Items should be an empty slice, not nil")
	}
	if len(resp.Items) != 0 {
		t.Errorf("len(Items) = %d, want 0", len(resp.Items))
	}
}

func TestEngine_EmptyUserID(t *testing.T) {
	e := newTestEngine(t, engineOptions{})
	if _, err := e.RecommendForUser(context.Background(), "", 5); err == nil {
		t.Error("empty user id should be rejected")
	}
}

func TestEngine_RefreshClearsCache(t *testing.T) {
	e := newTestEngine(t, engineOptions{purchases: map[string][]string{"u1": {"P1"}}})
	ctx := context.Background()

	if _, err := e.RecommendForUser(ctx, "u1", 4); err != nil {
		t.Fatalf("warm up error = %v", err)
	}
	if e.Cache.Len() == 0 {
		t.Fatal("cache should hold the first result")
	}

	r := e.RefreshModels(ctx)
	if !r.Collaborative || !r.Content || !r.Mappings {
		t.Errorf("RefreshModels() = %+v, want all ready", r)
	}
	if e.Cache.Len() != 0 {
		t.Error("refresh must clear the result cache")
	}

	resp, err := e.RecommendForUser(ctx, "u1", 4)
	if err != nil {
		t.Fatalf("post-refresh call error = %v", err)
	}
	if resp.Method == MethodHybridCached {
		t.Error("post-refresh call must not be served from cache")
	}
}

func TestEngine_ConcurrentRecommendAndRefresh(t *testing.T) {
	// 推荐请求与模型刷新并发交错：请求拿的是快照，
	// 刷新换代不能撕裂进行中的请求，靠 -race 验证
	e := newTestEngine(t, engineOptions{purchases: map[string][]string{
		"u1": {"P1"},
		"u2": {"P3"},
	}})
	ctx := context.Background()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			users := []string{"u1", "u2", "newcomer"}
			for i := 0; i < 50; i++ {
				resp, err := e.RecommendForUser(ctx, users[(w+i)%len(users)], 4)
				if err != nil {
					t.Errorf("RecommendForUser() error = %v", err)
					return
				}
				for j := 1; j < len(resp.Items); j++ {
					if resp.Items[j].Score > resp.Items[j-1].Score {
						t.Errorf("items out of order under refresh churn")
						return
					}
				}
			}
		}(w)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 25; i++ {
			r := e.RefreshModels(ctx)
			if !r.Collaborative || !r.Content || !r.Mappings {
				t.Errorf("RefreshModels() = %+v, want all ready", r)
				return
			}
		}
	}()
	wg.Wait()

	resp, err := e.RecommendForUser(ctx, "u1", 4)
	if err != nil {
		t.Fatalf("post-churn call error = %v", err)
	}
	if len(resp.Items) == 0 {
		t.Error("engine should keep serving after concurrent refreshes")
	}
}

func TestEngine_SimilarToItem(t *testing.T) {
	e := newTestEngine(t, engineOptions{})
	ctx := context.Background()

	resp, err := e.SimilarToItem(ctx, "P1", 2)
	if err != nil {
		t.Fatalf("SimilarToItem() error = %v", err)
	}
	if resp.Method != MethodContent {
		t.Errorf("Method = %q, want %q", resp.Method, MethodContent)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("len(Items) = %d, want 2", len(resp.Items))
	}
	if resp.Items[0].ID != "P2" {
		t.Errorf("most similar to P1 = %s, want P2", resp.Items[0].ID)
	}
	for _, it := range resp.Items {
		if it.ID == "P1" {
			t.Error("item must not be similar to itself in output")
		}
	}

	// 不在目录的商品
	if _, err := e.SimilarToItem(ctx, "X9", 2); !core.IsNotFound(err) {
		t.Errorf("unknown item error = %v, want NOT_FOUND", err)
	}

	// 内容模型未加载
	bare := newTestEngine(t, engineOptions{artifactKeys: []string{model.DefaultALSKey, model.DefaultMappingsKey}})
	if _, err := bare.SimilarToItem(ctx, "P1", 2); !core.IsUnavailable(err) {
		t.Errorf("content model missing error = %v, want UNAVAILABLE", err)
	}
}

func TestEngine_CacheStats(t *testing.T) {
	e := newTestEngine(t, engineOptions{purchases: map[string][]string{"u1": {"P1"}}})
	ctx := context.Background()

	s := e.CacheStats()
	if s.Size != 0 {
		t.Errorf("initial Size = %d, want 0", s.Size)
	}
	if !s.Models.Collaborative || !s.Models.Content || !s.Models.Mappings {
		t.Errorf("Models = %+v, want all ready", s.Models)
	}

	if _, err := e.RecommendForUser(ctx, "u1", 4); err != nil {
		t.Fatalf("RecommendForUser() error = %v", err)
	}
	if s = e.CacheStats(); s.Size != 1 {
		t.Errorf("Size after one request = %d, want 1", s.Size)
	}
	if s.TTLSeconds != 3600 {
		t.Errorf("TTLSeconds = %d, want 3600", s.TTLSeconds)
	}
}

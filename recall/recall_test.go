package recall

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Sreddy08840/agri-connect/core"
	"github.com/Sreddy08840/agri-connect/model"
)

// fakeHistory 是测试用的行为数据后端。
type fakeHistory struct {
	interactions map[string][]core.InteractionEvent
	views        map[string][]string
	topSelling   []string
	failAll      bool
}

func (h *fakeHistory) Name() string { return "fake" }

func (h *fakeHistory) GetInteractions(_ context.Context, userID string) ([]core.InteractionEvent, error) {
	if h.failAll {
		return nil, errors.New("history backend down")
	}
	return h.interactions[userID], nil
}

func (h *fakeHistory) GetRecentViews(_ context.Context, userID string, _ int) ([]string, error) {
	if h.failAll {
		return nil, errors.New("history backend down")
	}
	return h.views[userID], nil
}

func (h *fakeHistory) GetTopSelling(_ context.Context, limit int) ([]string, error) {
	if h.failAll {
		return nil, errors.New("history backend down")
	}
	if limit < len(h.topSelling) {
		return h.topSelling[:limit], nil
	}
	return h.topSelling, nil
}

func purchase(itemID string) core.InteractionEvent {
	return core.InteractionEvent{ItemID: itemID, Type: core.InteractionPurchase, At: time.Now()}
}

// testGeneration 构造四个商品的完整模型代：
// P1/P2 隐向量和词权都相近，P3/P4 是另一簇。
func testGeneration(t *testing.T) *model.Generation {
	t.Helper()

	als, err := model.DecodeALS([]byte(`{
		"item_factors": [
			[1, 0],
			[0.9, 0.1],
			[0, 1],
			[0.1, 0.9]
		]
	}`))
	if err != nil {
		t.Fatalf("DecodeALS() error = %v", err)
	}

	tfidf, err := model.DecodeTFIDF([]byte(`{
		"matrix": [
			[1, 0, 0],
			[0.9, 0.1, 0],
			[0, 1, 0],
			[0, 0.9, 0.1]
		],
		"products": [
			{"id": "P1"}, {"id": "P2"}, {"id": "P3"}, {"id": "P4"}
		]
	}`))
	if err != nil {
		t.Fatalf("DecodeTFIDF() error = %v", err)
	}

	mappings, err := model.DecodeMappings([]byte(`{
		"user_index": {"u1": 0, "u2": 1},
		"item_index": {"P1": 0, "P2": 1, "P3": 2, "P4": 3},
		"index_to_user": {"0": "u1", "1": "u2"},
		"index_to_item": {"0": "P1", "1": "P2", "2": "P3", "3": "P4"}
	}`))
	if err != nil {
		t.Fatalf("DecodeMappings() error = %v", err)
	}

	return &model.Generation{ALS: als, TFIDF: tfidf, Mappings: mappings}
}

func itemIDs(items []*core.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

package recommend

import (
	"math"
	"testing"

	"github.com/Sreddy08840/agri-connect/core"
)

func scored(id string, score float64, reason string) *core.Item {
	it := core.NewItem(id)
	it.Score = score
	it.AddReason(reason)
	return it
}

func TestBlend_WeightedSum(t *testing.T) {
	cf := []*core.Item{
		scored("P1", 0.8, core.ReasonCollaborative),
		scored("P2", 0.4, core.ReasonCollaborative),
	}
	cb := []*core.Item{
		scored("P1", 0.6, core.ReasonContent),
		scored("P3", 0.9, core.ReasonContent),
	}

	out := blend(cf, cb, 0.7, 0.3)
	if len(out) != 3 {
		t.Fatalf("len(out) = %d, want 3", len(out))
	}

	byID := make(map[string]*core.Item, len(out))
	for _, it := range out {
		byID[it.ID] = it
	}

	// 两路都有：0.7*0.8 + 0.3*0.6 = 0.74
	if got := byID["P1"].Score; math.Abs(got-0.74) > 1e-9 {
		t.Errorf("P1 score = %v, want 0.74", got)
	}
	// 只在协同路：0.7*0.4，缺失的一路按 0 计
	if got := byID["P2"].Score; math.Abs(got-0.28) > 1e-9 {
		t.Errorf("P2 score = %v, want 0.28", got)
	}
	// 只在内容路：0.3*0.9
	if got := byID["P3"].Score; math.Abs(got-0.27) > 1e-9 {
		t.Errorf("P3 score = %v, want 0.27", got)
	}

	// 降序输出
	for i := 1; i < len(out); i++ {
		if out[i].Score > out[i-1].Score {
			t.Errorf("not descending at %d", i)
		}
	}
}

func TestBlend_Reasons(t *testing.T) {
	cf := []*core.Item{scored("P1", 0.8, core.ReasonCollaborative)}
	cb := []*core.Item{
		scored("P1", 0.6, core.ReasonContent),
		scored("P2", 0.5, core.ReasonContent),
	}

	out := blend(cf, cb, 0.7, 0.3)

	byID := make(map[string]*core.Item, len(out))
	for _, it := range out {
		byID[it.ID] = it
	}

	// 两路都命中：来源标签并集 + hybrid
	p1 := byID["P1"]
	if p1 == nil {
		t.Fatal("P1 missing from blended output")
	}
	if !p1.HasReason(core.ReasonCollaborative) || !p1.HasReason(core.ReasonContent) {
		t.Errorf("P1 reasons = %v, want union of both sources", p1.Reasons)
	}
	if !p1.HasReason(core.ReasonHybrid) {
		t.Errorf("P1 reasons = %v, want hybrid", p1.Reasons)
	}

	// 只命中一路：保留来源标签，不打 hybrid
	p2 := byID["P2"]
	if p2 == nil {
		t.Fatal("P2 missing from blended output")
	}
	if p2.HasReason(core.ReasonHybrid) {
		t.Errorf("single-source P2 reasons = %v, must not contain hybrid", p2.Reasons)
	}
	if !p2.HasReason(core.ReasonContent) {
		t.Errorf("P2 reasons = %v, want content", p2.Reasons)
	}
}

func TestBlend_DoesNotMutateInputs(t *testing.T) {
	cf := []*core.Item{scored("P1", 0.8, core.ReasonCollaborative)}
	cb := []*core.Item{scored("P1", 0.6, core.ReasonContent)}

	blend(cf, cb, 0.7, 0.3)

	if cf[0].Score != 0.8 || cb[0].Score != 0.6 {
		t.Error("blend must not mutate input items")
	}
	if cf[0].HasReason(core.ReasonHybrid) || cb[0].HasReason(core.ReasonHybrid) {
		t.Error("blend must not add reasons to input items")
	}
}

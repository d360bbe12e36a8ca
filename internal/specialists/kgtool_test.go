package specialists

import (
	"context"
	"testing"
)

func TestKGTool_Available(t *testing.T) {
	var nilTool *KGTool
	if nilTool.Available() {
		t.Error("expected nil *KGTool to be unavailable")
	}

	tool := NewKGTool(nil, nil)
	if tool.Available() {
		t.Error("expected a tool with a nil graph client to be unavailable")
	}
}

func TestKGTool_DiseasesBySymptoms_UnavailableReturnsNilWithoutError(t *testing.T) {
	tool := NewKGTool(nil, nil)
	diseases, err := tool.DiseasesBySymptoms(context.Background(), []string{"发热"}, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diseases != nil {
		t.Errorf("expected nil diseases, got %v", diseases)
	}
}

func TestKGTool_DrugInfo_UnavailableReturnsFalse(t *testing.T) {
	tool := NewKGTool(nil, nil)
	_, ok := tool.DrugInfo(context.Background(), "阿司匹林")
	if ok {
		t.Error("expected ok = false when graph client is unavailable")
	}
}

func TestDiseaseLookupCacheKey_OrderIndependent(t *testing.T) {
	k1 := diseaseLookupCacheKey([]string{"发热", "咳嗽"}, 5)
	k2 := diseaseLookupCacheKey([]string{"咳嗽", "发热"}, 5)
	if k1 != k2 {
		t.Errorf("expected cache key to be order-independent, got %q vs %q", k1, k2)
	}
}

func TestDrugInfo_Format_IncludesContraindications(t *testing.T) {
	info := DrugInfo{Name: "阿司匹林", Contraindications: []string{"消化性溃疡", "出血性疾病"}}
	out := info.Format()
	if !containsAny(out, "阿司匹林") || !containsAny(out, "消化性溃疡") {
		t.Errorf("Format() = %q, missing expected fields", out)
	}
}

func TestDrugInfo_Format_NoContraindications(t *testing.T) {
	info := DrugInfo{Name: "维生素C"}
	out := info.Format()
	if containsAny(out, "禁忌症") {
		t.Errorf("Format() = %q, did not expect a contraindications section", out)
	}
}

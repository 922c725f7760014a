package store

import (
	"sync"
	"testing"

	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/model"
)

func rec(vessel string) model.RawRecord {
	return model.RawRecord{Fields: map[string]any{"vessel": vessel}}
}

// TestNewMemoryStore 测试创建存储
func TestNewMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	if store == nil {
		t.Fatal("NewMemoryStore() returned nil")
	}
	if store.Count() != 0 {
		t.Errorf("New store should be empty, got %d records", store.Count())
	}
}

// TestAddBatchKeepsOrder 测试按加入顺序累积
func TestAddBatchKeepsOrder(t *testing.T) {
	store := NewMemoryStore()

	first := store.AddBatch("cnc.xlsx", model.SourceUpload, []model.RawRecord{rec("A"), rec("B")})
	store.AddBatch("scrape", model.SourceScrape, []model.RawRecord{rec("C")})

	records := store.Records()
	if len(records) != 3 {
		t.Fatalf("records = %d, want 3", len(records))
	}
	for i, want := range []string{"A", "B", "C"} {
		if records[i].Fields["vessel"] != want {
			t.Errorf("record %d vessel = %v, want %s", i, records[i].Fields["vessel"], want)
		}
		if records[i].Origin.RecordID == "" {
			t.Errorf("record %d has no id", i)
		}
	}
	if records[0].Source != model.SourceUpload || records[2].Source != model.SourceScrape {
		t.Errorf("source not filled from batch: %s %s", records[0].Source, records[2].Source)
	}

	batches := store.Batches()
	if len(batches) != 2 || batches[0].ID != first || batches[0].Records != 2 {
		t.Errorf("unexpected batches: %+v", batches)
	}
}

// TestRecordsReturnsCopy 测试返回副本
func TestRecordsReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	store.AddBatch("x", model.SourceManual, []model.RawRecord{rec("A")})

	records := store.Records()
	records[0].Fields["vessel"] = "MUTATED"

	if got := store.Records()[0].Fields["vessel"]; got != "A" {
		t.Errorf("store mutated through copy: %v", got)
	}
}

// TestRemoveBatch 测试删除批次
func TestRemoveBatch(t *testing.T) {
	store := NewMemoryStore()
	a := store.AddBatch("a", model.SourceUpload, []model.RawRecord{rec("A"), rec("B")})
	store.AddBatch("b", model.SourceUpload, []model.RawRecord{rec("C")})

	n, err := store.RemoveBatch(a)
	if err != nil {
		t.Fatalf("RemoveBatch failed: %v", err)
	}
	if n != 2 || store.Count() != 1 {
		t.Errorf("removed = %d, remaining = %d", n, store.Count())
	}
	if _, err := store.RemoveBatch(a); err != ErrBatchNotFound {
		t.Errorf("second remove err = %v", err)
	}
}

// TestUpdateRecord 测试按记录 ID 修改字段
func TestUpdateRecord(t *testing.T) {
	store := NewMemoryStore()
	store.AddBatch("a", model.SourceUpload, []model.RawRecord{rec("A"), rec("B")})
	id := store.Records()[1].Origin.RecordID

	got, err := store.UpdateRecord(id, func(fields map[string]any) {
		fields["vessel"] = "B2"
		fields["voyage"] = "N9"
	})
	if err != nil {
		t.Fatalf("UpdateRecord failed: %v", err)
	}
	if got.Fields["vessel"] != "B2" || got.Origin.RecordID != id {
		t.Errorf("unexpected record: %+v", got)
	}

	got.Fields["vessel"] = "MUTATED"
	records := store.Records()
	if records[1].Fields["vessel"] != "B2" || records[1].Fields["voyage"] != "N9" {
		t.Errorf("stored record = %+v", records[1].Fields)
	}
	if records[0].Fields["vessel"] != "A" {
		t.Errorf("other record changed: %+v", records[0].Fields)
	}

	if _, err := store.UpdateRecord("missing", func(map[string]any) {}); err != ErrRecordNotFound {
		t.Errorf("missing id err = %v", err)
	}
	if _, err := store.UpdateRecord("", func(map[string]any) {}); err != ErrRecordNotFound {
		t.Errorf("empty id err = %v", err)
	}
}

// TestRemoveRecord 测试删除单条记录
func TestRemoveRecord(t *testing.T) {
	store := NewMemoryStore()
	a := store.AddBatch("a", model.SourceUpload, []model.RawRecord{rec("A"), rec("B")})
	store.AddBatch("b", model.SourceManual, []model.RawRecord{rec("C")})
	records := store.Records()

	if err := store.RemoveRecord(records[0].Origin.RecordID); err != nil {
		t.Fatalf("RemoveRecord failed: %v", err)
	}
	if store.Count() != 2 {
		t.Errorf("Count() = %d, want 2", store.Count())
	}
	batches := store.Batches()
	if len(batches) != 2 || batches[0].ID != a || batches[0].Records != 1 {
		t.Errorf("unexpected batches: %+v", batches)
	}

	// 批次最后一条记录删除后批次随之删除
	if err := store.RemoveRecord(records[2].Origin.RecordID); err != nil {
		t.Fatalf("RemoveRecord failed: %v", err)
	}
	batches = store.Batches()
	if len(batches) != 1 || batches[0].ID != a {
		t.Errorf("unexpected batches: %+v", batches)
	}
	if left := store.Records(); len(left) != 1 || left[0].Fields["vessel"] != "B" {
		t.Errorf("remaining records: %+v", left)
	}

	if err := store.RemoveRecord(records[0].Origin.RecordID); err != ErrRecordNotFound {
		t.Errorf("second remove err = %v", err)
	}
}

// TestClear 测试清空
func TestClear(t *testing.T) {
	store := NewMemoryStore()
	store.AddBatch("a", model.SourceUpload, []model.RawRecord{rec("A")})

	if n := store.Clear(); n != 1 {
		t.Errorf("Clear() = %d, want 1", n)
	}
	if store.Count() != 0 || len(store.Batches()) != 0 {
		t.Errorf("store not empty after clear")
	}
}

// TestConcurrentAccess 测试并发访问
func TestConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			store.AddBatch("c", model.SourceUpload, []model.RawRecord{rec("X")})
		}()
		go func() {
			defer wg.Done()
			_ = store.Records()
		}()
	}
	wg.Wait()

	if store.Count() != 20 {
		t.Errorf("Count() = %d, want 20", store.Count())
	}
}

package store

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goodcarry-tech/Shipping-schedule-for-BS/internal/model"
)

var (
	// ErrBatchNotFound 批次不存在
	ErrBatchNotFound = errors.New("batch not found")
	// ErrRecordNotFound 记录不存在
	ErrRecordNotFound = errors.New("record not found")
)

// BatchInfo 会话中的一次导入
type BatchInfo struct {
	ID      string             `json:"id"`
	Label   string             `json:"label"`
	Source  model.SourceMedium `json:"source"`
	Records int                `json:"records"`
	AddedAt time.Time          `json:"addedAt"`
}

type item struct {
	batchID string
	record  model.RawRecord
}

// MemoryStore 会话内存存储：按加入顺序累积各来源的原始记录
//
// 顺序即去重时的输入顺序，先加入者优先。
type MemoryStore struct {
	items   []item
	batches map[string]*BatchInfo
	order   []string // 批次 ID，按加入顺序
	mu      sync.RWMutex
}

// NewMemoryStore 创建内存存储
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		batches: make(map[string]*BatchInfo),
	}
}

// AddBatch 追加一批记录，返回批次 ID
// 记录缺少 RecordID 时自动分配。
func (s *MemoryStore) AddBatch(label string, source model.SourceMedium, records []model.RawRecord) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	for _, r := range records {
		if r.Origin.RecordID == "" {
			r.Origin.RecordID = uuid.New().String()
		}
		if r.Source == "" {
			r.Source = source
		}
		s.items = append(s.items, item{batchID: id, record: r})
	}
	s.batches[id] = &BatchInfo{
		ID:      id,
		Label:   label,
		Source:  source,
		Records: len(records),
		AddedAt: time.Now(),
	}
	s.order = append(s.order, id)
	return id
}

// Records 按加入顺序返回全部记录（副本）
func (s *MemoryStore) Records() []model.RawRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.RawRecord, 0, len(s.items))
	for _, it := range s.items {
		out = append(out, copyRecord(it.record))
	}
	return out
}

// Batches 按加入顺序返回批次列表
func (s *MemoryStore) Batches() []BatchInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]BatchInfo, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.batches[id])
	}
	return out
}

// RemoveBatch 删除一个批次的记录
func (s *MemoryStore) RemoveBatch(id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.batches[id]; !ok {
		return 0, ErrBatchNotFound
	}
	kept := s.items[:0]
	removed := 0
	for _, it := range s.items {
		if it.batchID == id {
			removed++
			continue
		}
		kept = append(kept, it)
	}
	s.items = kept
	s.dropBatch(id)
	return removed, nil
}

// UpdateRecord 在锁内修改一条记录的字段，返回修改后的副本
func (s *MemoryStore) UpdateRecord(id string, update func(fields map[string]any)) (model.RawRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return model.RawRecord{}, ErrRecordNotFound
	}
	r := copyRecord(s.items[i].record)
	update(r.Fields)
	s.items[i].record = r
	return copyRecord(r), nil
}

// RemoveRecord 删除一条记录；批次因此变空时一并删除
func (s *MemoryStore) RemoveRecord(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return ErrRecordNotFound
	}
	batchID := s.items[i].batchID
	s.items = append(s.items[:i], s.items[i+1:]...)
	if b, ok := s.batches[batchID]; ok {
		b.Records--
		if b.Records <= 0 {
			s.dropBatch(batchID)
		}
	}
	return nil
}

func (s *MemoryStore) indexOf(recordID string) int {
	if recordID == "" {
		return -1
	}
	for i, it := range s.items {
		if it.record.Origin.RecordID == recordID {
			return i
		}
	}
	return -1
}

func (s *MemoryStore) dropBatch(id string) {
	delete(s.batches, id)
	for i, b := range s.order {
		if b == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Count 记录数
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// Clear 清空会话，返回清除的记录数
func (s *MemoryStore) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.items)
	s.items = nil
	s.batches = make(map[string]*BatchInfo)
	s.order = nil
	return n
}

func copyRecord(r model.RawRecord) model.RawRecord {
	fields := make(map[string]any, len(r.Fields))
	for k, v := range r.Fields {
		fields[k] = v
	}
	r.Fields = fields
	return r
}

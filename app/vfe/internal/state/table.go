// Package state 引擎状态存储
//
// 每张表由已提交数据和待提交覆盖层组成，写入先落在覆盖层，
// Commit 合并、Rollback 丢弃，从而实现单次调用的全有或全无。
// 值按拷贝存取，调用方修改取出的值后必须 Set 回表中。
package state

type entry[V any] struct {
	val     V
	deleted bool
}

type txn interface {
	commit()
	rollback()
	dirty() bool
}

// Table 带覆盖层的键值表
type Table[K comparable, V any] struct {
	name      string
	committed map[K]V
	pending   map[K]entry[V]
}

// NewTable 创建表
func NewTable[K comparable, V any](name string) *Table[K, V] {
	return &Table[K, V]{
		name:      name,
		committed: make(map[K]V),
		pending:   make(map[K]entry[V]),
	}
}

// Name 表名
func (t *Table[K, V]) Name() string { return t.name }

// Get 读取，优先返回覆盖层
func (t *Table[K, V]) Get(k K) (V, bool) {
	if e, ok := t.pending[k]; ok {
		if e.deleted {
			var zero V
			return zero, false
		}
		return e.val, true
	}
	v, ok := t.committed[k]
	return v, ok
}

// Has 是否存在
func (t *Table[K, V]) Has(k K) bool {
	_, ok := t.Get(k)
	return ok
}

// Set 写入
func (t *Table[K, V]) Set(k K, v V) {
	t.pending[k] = entry[V]{val: v}
}

// Delete 删除
func (t *Table[K, V]) Delete(k K) {
	t.pending[k] = entry[V]{deleted: true}
}

// Range 遍历合并视图，fn 返回 false 时停止，顺序不保证
func (t *Table[K, V]) Range(fn func(k K, v V) bool) {
	for k, e := range t.pending {
		if e.deleted {
			continue
		}
		if !fn(k, e.val) {
			return
		}
	}
	for k, v := range t.committed {
		if _, shadowed := t.pending[k]; shadowed {
			continue
		}
		if !fn(k, v) {
			return
		}
	}
}

// Len 合并视图中的条目数
func (t *Table[K, V]) Len() int {
	n := 0
	t.Range(func(K, V) bool {
		n++
		return true
	})
	return n
}

func (t *Table[K, V]) commit() {
	for k, e := range t.pending {
		if e.deleted {
			delete(t.committed, k)
		} else {
			t.committed[k] = e.val
		}
	}
	clear(t.pending)
}

func (t *Table[K, V]) rollback() {
	clear(t.pending)
}

func (t *Table[K, V]) dirty() bool {
	return len(t.pending) > 0
}

// Record 快照中的一条记录
type Record[K comparable, V any] struct {
	Key   K `json:"key" codec:"k"`
	Value V `json:"value" codec:"v"`
}

func (t *Table[K, V]) records() []Record[K, V] {
	out := make([]Record[K, V], 0, len(t.committed))
	for k, v := range t.committed {
		out = append(out, Record[K, V]{Key: k, Value: v})
	}
	return out
}

func (t *Table[K, V]) load(recs []Record[K, V]) {
	t.committed = make(map[K]V, len(recs))
	clear(t.pending)
	for _, r := range recs {
		t.committed[r.Key] = r.Value
	}
}

// Cell 带覆盖层的单值
type Cell[V any] struct {
	committed V
	pending   *V
}

// Get 读取
func (c *Cell[V]) Get() V {
	if c.pending != nil {
		return *c.pending
	}
	return c.committed
}

// Set 写入
func (c *Cell[V]) Set(v V) {
	c.pending = &v
}

func (c *Cell[V]) commit() {
	if c.pending != nil {
		c.committed = *c.pending
		c.pending = nil
	}
}

func (c *Cell[V]) rollback() { c.pending = nil }

func (c *Cell[V]) dirty() bool { return c.pending != nil }

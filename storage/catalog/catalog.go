// Package catalog implements the table/index metadata registry every
// executor consults to resolve a name or oid to its heap and indexes.
// Grounded on the teacher's storage_engine/catalog.CatalogManager
// (table-name-to-metadata map, sequential id assignment), replacing
// its JSON-file persistence with an in-memory registry over
// storage/heap.TableHeap and storage/index/hash.Table — this core
// carries no WAL/disk persistence layer (§Non-goals), so the
// catalog's job is purely in-process bookkeeping for one process
// lifetime, the way original_source's Catalog is used by its
// executors.
package catalog

import (
	"fmt"
	"sync"

	"coredb/logging"
	"coredb/storage/buffer"
	"coredb/storage/heap"
	"coredb/storage/index/hash"
	"coredb/storage/tuple"
)

type OID uint32

// TableInfo is one registered table: its heap, schema, and the oids of
// any indexes built over it.
type TableInfo struct {
	OID     OID
	Name    string
	Schema  *tuple.Schema
	Heap    *heap.TableHeap
	Indexes []OID
}

// IndexInfo is one registered index: which table it indexes, which
// column, and the hash table backing it.
type IndexInfo struct {
	OID       OID
	Name      string
	TableOID  OID
	ColumnIdx int
	Table     *hash.Table
}

// Catalog is a table/index registry keyed by both oid and name.
// Grounded on CatalogManager's dual TableToFileId/tableSchemas maps,
// merged into a single struct per entry and guarded by one mutex
// rather than separately synchronized maps.
type Catalog struct {
	mu   sync.RWMutex
	pool *buffer.Pool
	log  logging.Logger

	nextOID OID
	tables  map[OID]*TableInfo
	indexes map[OID]*IndexInfo

	tableByName map[string]OID
	indexByName map[string]OID
}

func New(pool *buffer.Pool, log logging.Logger) *Catalog {
	return &Catalog{
		pool:        pool,
		log:         log,
		nextOID:     1,
		tables:      make(map[OID]*TableInfo),
		indexes:     make(map[OID]*IndexInfo),
		tableByName: make(map[string]OID),
		indexByName: make(map[string]OID),
	}
}

func (c *Catalog) allocOID() OID {
	oid := c.nextOID
	c.nextOID++
	return oid
}

// CreateTable registers a new table with its own heap, rejecting a
// duplicate name.
func (c *Catalog) CreateTable(name string, schema *tuple.Schema) (*TableInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.tableByName[name]; exists {
		return nil, fmt.Errorf("catalog: table %q already exists", name)
	}

	h, err := heap.NewTableHeap(c.pool, c.log)
	if err != nil {
		return nil, fmt.Errorf("catalog: create heap for table %q: %w", name, err)
	}

	info := &TableInfo{OID: c.allocOID(), Name: name, Schema: schema, Heap: h}
	c.tables[info.OID] = info
	c.tableByName[name] = info.OID
	c.log.Infow("catalog: created table", "name", name, "oid", info.OID)
	return info, nil
}

// CreateIndex builds a new extendible hash index over one column of an
// existing table.
func (c *Catalog) CreateIndex(name, tableName string, columnIdx int, headerMaxDepth, directoryMaxDepth, bucketMaxSize uint32) (*IndexInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	tableOID, ok := c.tableByName[tableName]
	if !ok {
		return nil, fmt.Errorf("catalog: table %q does not exist", tableName)
	}
	if _, exists := c.indexByName[name]; exists {
		return nil, fmt.Errorf("catalog: index %q already exists", name)
	}

	ht, err := hash.New(c.pool, hash.DefaultHashFunc, headerMaxDepth, directoryMaxDepth, bucketMaxSize, c.log)
	if err != nil {
		return nil, fmt.Errorf("catalog: create hash table for index %q: %w", name, err)
	}

	info := &IndexInfo{OID: c.allocOID(), Name: name, TableOID: tableOID, ColumnIdx: columnIdx, Table: ht}
	c.indexes[info.OID] = info
	c.indexByName[name] = info.OID
	c.tables[tableOID].Indexes = append(c.tables[tableOID].Indexes, info.OID)
	c.log.Infow("catalog: created index", "name", name, "table", tableName, "oid", info.OID)
	return info, nil
}

func (c *Catalog) GetTableByName(name string) (*TableInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	oid, ok := c.tableByName[name]
	if !ok {
		return nil, false
	}
	return c.tables[oid], true
}

func (c *Catalog) GetTable(oid OID) (*TableInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tables[oid]
	return t, ok
}

func (c *Catalog) GetIndexByName(name string) (*IndexInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	oid, ok := c.indexByName[name]
	if !ok {
		return nil, false
	}
	return c.indexes[oid], true
}

func (c *Catalog) GetIndex(oid OID) (*IndexInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.indexes[oid]
	return i, ok
}

// GetTableIndexes returns every index registered on table.
func (c *Catalog) GetTableIndexes(tableOID OID) []*IndexInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.tables[tableOID]
	if !ok {
		return nil
	}
	out := make([]*IndexInfo, 0, len(t.Indexes))
	for _, idxOID := range t.Indexes {
		out = append(out, c.indexes[idxOID])
	}
	return out
}

// Tables returns every registered table, for iteration (e.g. GC
// sweeping every table heap).
func (c *Catalog) Tables() []*TableInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*TableInfo, 0, len(c.tables))
	for _, t := range c.tables {
		out = append(out, t)
	}
	return out
}

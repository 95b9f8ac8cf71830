package store

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/node"
	"github.com/havamal-65/Temporal-Spacial-Memory-sub000/internal/store/wal"
)

// Config persists alongside a disk-backed store, the analogue of the
// teacher's lsm.CollectionConfig, rendered in YAML (see SPEC_FULL.md §3.3).
type Config struct {
	SpatialDimension   int     `yaml:"spatial_dimension"`
	DistanceMetric     int     `yaml:"distance_metric"`
	TemporalBucketSecs float64 `yaml:"temporal_bucket_seconds"`
	Version            int     `yaml:"version"`
}

// Disk is a WAL-backed Node Store: an in-memory cache fronted by an
// append-only log replayed on Open for crash recovery. Grounded on
// internal/storage/lsm's Collection (recoverFromWAL on startup,
// write-log-then-update-cache ordering for durability).
type Disk struct {
	cache   *Memory
	path    string
	wal     *wal.WAL
	cfgPath string
}

// Open opens or creates a disk-backed Node Store rooted at dir.
func Open(dir string) (*Disk, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	walPath := filepath.Join(dir, "wal.log")
	w, err := wal.New(walPath)
	if err != nil {
		return nil, fmt.Errorf("open store wal: %w", err)
	}

	d := &Disk{
		cache:   NewMemory(),
		path:    dir,
		wal:     w,
		cfgPath: filepath.Join(dir, "config.yaml"),
	}
	if err := d.recover(); err != nil {
		w.Close()
		return nil, fmt.Errorf("recover store from wal: %w", err)
	}
	return d, nil
}

func (d *Disk) recover() error {
	entries, err := d.wal.Read()
	if err != nil {
		return err
	}
	for _, e := range entries {
		switch e.Operation {
		case wal.OpPut:
			d.cache.Put(node.FromDTO(*e.Node))
		case wal.OpDelete:
			d.cache.Delete(e.ID)
		default:
			return fmt.Errorf("unknown wal operation: %v", e.Operation)
		}
	}
	return nil
}

func (d *Disk) Get(id string) (*node.Node, bool) { return d.cache.Get(id) }

func (d *Disk) Put(n *node.Node) error {
	dto := n.ToDTO()
	if err := d.wal.Append(&wal.Entry{Operation: wal.OpPut, ID: n.ID, Node: &dto}); err != nil {
		return fmt.Errorf("append wal put: %w", err)
	}
	return d.cache.Put(n)
}

func (d *Disk) Delete(id string) (bool, error) {
	if err := d.wal.Append(&wal.Entry{Operation: wal.OpDelete, ID: id}); err != nil {
		return false, fmt.Errorf("append wal delete: %w", err)
	}
	return d.cache.Delete(id)
}

func (d *Disk) All() []*node.Node { return d.cache.All() }

func (d *Disk) Close() error { return d.wal.Close() }

// SaveConfig persists cfg to disk as YAML.
func (d *Disk) SaveConfig(cfg Config) error {
	cfg.Version = 1
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal store config: %w", err)
	}
	return os.WriteFile(d.cfgPath, data, 0644)
}

// LoadConfig reads the persisted store configuration, if present.
func (d *Disk) LoadConfig() (*Config, error) {
	data, err := os.ReadFile(d.cfgPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read store config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal store config: %w", err)
	}
	return &cfg, nil
}

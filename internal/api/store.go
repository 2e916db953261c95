package api

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/samcharles93/dscript/pkg/chunk"
	"github.com/samcharles93/dscript/pkg/model"
	"github.com/samcharles93/dscript/pkg/platform"
)

type containerRecord struct {
	ID         string
	Name       string
	Size       int
	Compressed bool
	CreatedAt  time.Time
	File       *chunk.File

	mu       sync.Mutex
	packages map[packageKey]*packageEntry
}

type packageKey struct {
	platform platform.Type
	version  int
	index    int
}

type packageEntry struct {
	pkg *model.Package
	err error
}

// ContainerStore keeps uploaded containers in memory, keyed by id.
type ContainerStore struct {
	mu         sync.RWMutex
	containers map[string]*containerRecord
}

func NewContainerStore() *ContainerStore {
	return &ContainerStore{
		containers: make(map[string]*containerRecord),
	}
}

func (s *ContainerStore) Create(name string, size int, compressed bool, f *chunk.File, now time.Time) *containerRecord {
	rec := &containerRecord{
		ID:         newContainerID(),
		Name:       name,
		Size:       size,
		Compressed: compressed,
		CreatedAt:  now,
		File:       f,
		packages:   make(map[packageKey]*packageEntry),
	}
	s.mu.Lock()
	s.containers[rec.ID] = rec
	s.mu.Unlock()
	return rec
}

func (s *ContainerStore) Get(id string) (*containerRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.containers[id]
	return rec, ok
}

// List returns every container, oldest first.
func (s *ContainerStore) List() []*containerRecord {
	s.mu.RLock()
	out := make([]*containerRecord, 0, len(s.containers))
	for _, rec := range s.containers {
		out = append(out, rec)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b *containerRecord) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// Delete drops the container. Uploaded containers are heap-backed, so handlers
// still holding the record keep a valid view.
func (s *ContainerStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.containers[id]; !ok {
		return false
	}
	delete(s.containers, id)
	return true
}

// buffers returns the package buffers d would decode, in container order.
func (r *containerRecord) buffers(d model.Decoder) []*chunk.Buffer {
	return r.File.FindAll(platform.ChunkID(d.Platform(), d.Version()))
}

// Package decodes the index-th package buffer for d, caching the outcome.
// found is false when index is out of range.
func (r *containerRecord) Package(d model.Decoder, index int) (p *model.Package, found bool, err error) {
	bufs := r.buffers(d)
	if index < 0 || index >= len(bufs) {
		return nil, false, nil
	}
	key := packageKey{platform: d.Platform(), version: d.Version(), index: index}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.packages[key]; ok {
		return e.pkg, true, e.err
	}
	p, err = d.Load(bufs[index])
	r.packages[key] = &packageEntry{pkg: p, err: err}
	return p, true, err
}

func newContainerID() string {
	return "ctr_" + uuid.NewString()
}

package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/forge-sre/forge/pkg/ferrors"
)

// loadFromDisk reads the JSON document at path, creating a default one if
// missing. It is called once from New, before the Store is shared.
func loadFromDisk(path string) (*Memory, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		mem := defaultMemory()
		if werr := atomicWrite(path, mem); werr != nil {
			return nil, werr
		}
		return mem, nil
	}
	if err != nil {
		return nil, ferrors.New(ferrors.KindStorage, "store.load", err)
	}

	var mem Memory
	if err := json.Unmarshal(data, &mem); err != nil {
		return nil, ferrors.New(ferrors.KindStorage, "store.load", ferrors.ErrStorageCorrupt)
	}
	if mem.Services == nil {
		mem.Services = make(map[string]*ServiceMemory)
	}
	return &mem, nil
}

// atomicWrite stamps last_updated and writes the document via
// temp-file-then-rename so a crash mid-write never leaves a partial file:
// readers always see either the pre-write or the post-write state.
func atomicWrite(path string, mem *Memory) error {
	mem.LastUpdated = time.Now().UTC()

	data, err := json.MarshalIndent(mem, "", "  ")
	if err != nil {
		return ferrors.New(ferrors.KindStorage, "store.save", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ferrors.New(ferrors.KindStorage, "store.save", ferrors.ErrStorageUnwritable)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return ferrors.New(ferrors.KindStorage, "store.save", ferrors.ErrStorageUnwritable)
	}
	if err := os.Rename(tmp, path); err != nil {
		return ferrors.New(ferrors.KindStorage, "store.save", ferrors.ErrStorageUnwritable)
	}
	return nil
}

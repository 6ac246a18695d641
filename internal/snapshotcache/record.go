package snapshotcache

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"io"

	"github.com/bootforge/bootforge/internal/vfs"
)

// recordVersion is the only Record.Version this package will read or write.
const recordVersion = 1

// Record is the decoded form of one cache entry (spec §3 "Cache Record").
// Result is kept as raw JSON so this package never needs to depend on the
// core's BootstrapResult type; callers marshal/unmarshal their own shape.
type Record struct {
	Version  int             `json:"version"`
	StoredAt int64           `json:"storedAt"`
	Result   json.RawMessage `json:"result"`
	Snapshot vfs.Snapshot    `json:"snapshot"`
}

// resultShape is the minimal subset of Result validated on decode.
type resultShape struct {
	Repo struct {
		Owner string `json:"owner"`
		Repo  string `json:"repo"`
		Ref   string `json:"ref"`
	} `json:"repo"`
	RootPath    string `json:"rootPath"`
	ProjectPath string `json:"projectPath"`
}

// ErrCacheCorrupt is returned (wrapped) by decode when the bytes don't form
// a valid Record. Per spec §7, CacheCorrupt is not fatal: callers treat it
// as a plain miss, and nothing logs it.
var ErrCacheCorrupt = errors.New("cache record failed validation")

// encode gzips the JSON-serialized record.
func encode(r Record) ([]byte, error) {
	r.Version = recordVersion
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(raw); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decode gunzips and validates bytes into a Record. Any structural
// deviation from spec §3's invariants returns ErrCacheCorrupt.
func decode(blob []byte) (Record, error) {
	gz, err := gzip.NewReader(bytes.NewReader(blob))
	if err != nil {
		return Record{}, errWrap(err)
	}
	defer gz.Close()
	raw, err := io.ReadAll(gz)
	if err != nil {
		return Record{}, errWrap(err)
	}

	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, errWrap(err)
	}
	if rec.Version != recordVersion {
		return Record{}, ErrCacheCorrupt
	}
	if rec.Snapshot.Files == nil {
		return Record{}, ErrCacheCorrupt
	}

	var shape resultShape
	if err := json.Unmarshal(rec.Result, &shape); err != nil {
		return Record{}, errWrap(err)
	}
	if shape.Repo.Owner == "" || shape.Repo.Repo == "" || shape.Repo.Ref == "" {
		return Record{}, ErrCacheCorrupt
	}
	if shape.RootPath == "" || shape.ProjectPath == "" {
		return Record{}, ErrCacheCorrupt
	}

	return rec, nil
}

func errWrap(err error) error {
	return errors.Join(ErrCacheCorrupt, err)
}

package artifact

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/orderops/internal/canonical"
)

// FSStore keeps each artifact as one file named by its digest, with a
// sidecar recording the content type. Writes go through a temp file and
// rename so a crash never leaves a half-written artifact under a valid
// digest name.
type FSStore struct {
	dir string
	mu  sync.Mutex // serializes the exists-check/rename pair per process
}

// NewFS creates the artifact directory if needed.
func NewFS(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "artifact: create dir %s", dir)
	}
	return &FSStore{dir: dir}, nil
}

type fsMeta struct {
	ContentType string `json:"content_type"`
	Length      int64  `json:"length"`
}

func (s *FSStore) contentPath(digest string) string {
	return filepath.Join(s.dir, digest)
}

func (s *FSStore) metaPath(digest string) string {
	return filepath.Join(s.dir, digest+".meta")
}

func (s *FSStore) Put(ctx context.Context, content []byte, contentType string) (string, error) {
	digest := canonical.DigestBytes(content)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.contentPath(digest)); err == nil {
		return digest, nil // already stored; content addressing makes this a no-op
	}

	tmp, err := os.CreateTemp(s.dir, ".put-*")
	if err != nil {
		return "", eris.Wrap(err, "artifact: create temp file")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", eris.Wrap(err, "artifact: write temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", eris.Wrap(err, "artifact: close temp file")
	}
	if err := os.Rename(tmpName, s.contentPath(digest)); err != nil {
		os.Remove(tmpName)
		return "", eris.Wrapf(err, "artifact: store %s", digest)
	}

	meta, _ := json.Marshal(fsMeta{ContentType: contentType, Length: int64(len(content))})
	if err := os.WriteFile(s.metaPath(digest), meta, 0o644); err != nil {
		return "", eris.Wrapf(err, "artifact: write meta for %s", digest)
	}
	return digest, nil
}

func (s *FSStore) Get(ctx context.Context, digest string) ([]byte, string, error) {
	content, err := os.ReadFile(s.contentPath(digest))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", eris.Wrapf(ErrNotFound, "artifact: %s", digest)
		}
		return nil, "", eris.Wrapf(err, "artifact: read %s", digest)
	}
	if canonical.DigestBytes(content) != digest {
		return nil, "", eris.Wrapf(ErrCorrupted, "artifact: %s", digest)
	}

	contentType := "application/octet-stream"
	if metaBytes, err := os.ReadFile(s.metaPath(digest)); err == nil {
		var meta fsMeta
		if json.Unmarshal(metaBytes, &meta) == nil && meta.ContentType != "" {
			contentType = meta.ContentType
		}
	}
	return content, contentType, nil
}

func (s *FSStore) Has(ctx context.Context, digest string) (bool, error) {
	_, err := os.Stat(s.contentPath(digest))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, eris.Wrapf(err, "artifact: stat %s", digest)
}

func (s *FSStore) List(ctx context.Context) ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, eris.Wrapf(err, "artifact: list %s", s.dir)
	}
	var infos []Info
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasSuffix(name, ".meta") || strings.HasPrefix(name, ".") {
			continue
		}
		info := Info{Digest: name, ContentType: "application/octet-stream"}
		if fi, err := entry.Info(); err == nil {
			info.Length = fi.Size()
		}
		if metaBytes, err := os.ReadFile(s.metaPath(name)); err == nil {
			var meta fsMeta
			if json.Unmarshal(metaBytes, &meta) == nil && meta.ContentType != "" {
				info.ContentType = meta.ContentType
			}
		}
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Digest < infos[j].Digest })
	return infos, nil
}

func (s *FSStore) Close() error { return nil }

var _ Store = (*FSStore)(nil)

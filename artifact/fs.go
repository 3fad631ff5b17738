package artifact

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FSStore serves artifacts from a local directory. Keys are paths
// relative to the root.
type FSStore struct {
	root string
}

// NewFSStore returns a store rooted at root, which must exist.
func NewFSStore(root string) (*FSStore, error) {
	if root == "" {
		root = "./data"
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("artifact root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("artifact root %s is not a directory", root)
	}
	return &FSStore{root: root}, nil
}

func (s *FSStore) Driver() Driver { return DriverFilesystem }

func (s *FSStore) pathFor(key string) (string, string, error) {
	k, err := CleanKey(key)
	if err != nil {
		return "", "", err
	}
	return k, filepath.Join(s.root, filepath.FromSlash(k)), nil
}

func (s *FSStore) Head(_ context.Context, key string) (Info, error) {
	k, p, err := s.pathFor(key)
	if err != nil {
		return Info{}, err
	}
	st, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && st.IsDir()) {
		return Info{}, fmt.Errorf("%s: %w", k, ErrNotFound)
	}
	if err != nil {
		return Info{}, err
	}
	return Info{Key: k, Size: st.Size(), ContentType: ContentType(k), LastModified: st.ModTime().UTC(), URL: Link(k)}, nil
}

func (s *FSStore) Get(ctx context.Context, key string) (Info, io.ReadCloser, error) {
	info, err := s.Head(ctx, key)
	if err != nil {
		return Info{}, nil, err
	}
	_, p, _ := s.pathFor(key)
	f, err := os.Open(p)
	if err != nil {
		return Info{}, nil, err
	}
	return info, f, nil
}

func (s *FSStore) List(_ context.Context, prefix string) ([]Info, error) {
	var out []Info
	err := filepath.WalkDir(s.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		st, err := d.Info()
		if err != nil {
			return err
		}
		out = append(out, Info{Key: key, Size: st.Size(), ContentType: ContentType(key), LastModified: st.ModTime().UTC(), URL: Link(key)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

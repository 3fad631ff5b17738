package artifact

import (
	"context"
	"fmt"
)

// Options select a store backend.
type Options struct {
	Driver Driver   `yaml:"driver"` // fs|s3|memory (default fs)
	Root   string   `yaml:"root"`   // directory when driver=fs
	S3     S3Config `yaml:"s3"`
}

// Open returns the Store described by opts.
func Open(ctx context.Context, opts Options) (Store, error) {
	driver := opts.Driver
	if driver == "" {
		driver = DriverFilesystem
	}
	switch driver {
	case DriverFilesystem:
		s, err := NewFSStore(opts.Root)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverS3:
		s, err := NewS3Store(ctx, opts.S3)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown artifact driver %s", driver)
	}
}

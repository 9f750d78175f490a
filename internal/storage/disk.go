package storage

import (
	"errors"
	"io/fs"
	"path/filepath"
)

// sqliteSidecars are the files SQLite keeps next to the database in WAL mode.
var sqliteSidecars = []string{"", "-wal", "-shm"}

// DiskUsage is the on-disk footprint of the local listing store and search index.
type DiskUsage struct {
	Database int64 `json:"database"`
	Index    int64 `json:"index"`
}

// Total returns the combined size in bytes.
func (u DiskUsage) Total() int64 {
	return u.Database + u.Index
}

// MeasureDiskUsage sizes the SQLite database together with its WAL and
// shared-memory files, and the index directory. An empty path is skipped, so
// pass "" for dbPath when listings live in PostgreSQL. Missing files count as zero.
func MeasureDiskUsage(dbPath, indexPath string) (DiskUsage, error) {
	var u DiskUsage
	if dbPath != "" {
		for _, suffix := range sqliteSidecars {
			n, err := pathSize(dbPath + suffix)
			if err != nil {
				return DiskUsage{}, err
			}
			u.Database += n
		}
	}
	if indexPath != "" {
		n, err := pathSize(indexPath)
		if err != nil {
			return DiskUsage{}, err
		}
		u.Index = n
	}
	return u, nil
}

// pathSize returns the size of a file, or the recursive size of a directory.
func pathSize(path string) (int64, error) {
	var total int64
	err := filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	return total, err
}

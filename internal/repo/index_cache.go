package repo

import (
	"errors"
	"fmt"
	"os"

	"gorm.io/gorm"

	"github.com/nmkim/go-castgraph-backend/internal/search"
)

// TitleRow is one persisted title-list entry. Rows are written and read in
// corpus-position order, so both index structures round-trip faithfully: the
// ordered title list directly, and the position map by replaying the entries
// (the two are 1:1 by the index invariant).
type TitleRow struct {
	Pos        int    `gorm:"primaryKey;autoIncrement:false"`
	Title      string `gorm:"type:text;not null"`
	Normalized string `gorm:"type:text;not null;index:idx_normalized"`
}

// TableName returns the database table name for TitleRow.
func (TitleRow) TableName() string { return "title_entries" }

// ErrCacheEmpty marks a cache file that opened fine but holds no usable
// index (e.g. a truncated write). Callers treat it like any other cache
// failure: rebuild.
var ErrCacheEmpty = errors.New("index cache holds no entries")

// insertBatch bounds one bulk INSERT; SQLite caps bound variables per
// statement.
const insertBatch = 1000

// LoadIndex reads the cache artifact at path and reconstructs the title
// index. Any failure (missing file, unreadable database, empty table) is
// returned to the caller, who is expected to fall back to a fresh build.
func LoadIndex(path string) (*search.TitleIndex, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat cache: %w", err)
	}
	db, err := OpenSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	defer closeDB(db)

	var rows []TitleRow
	if err := db.Order("pos").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("read cache: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrCacheEmpty
	}

	idx := &search.TitleIndex{
		ByTitle: make(map[string][]int, len(rows)),
		Titles:  make([]search.TitleEntry, 0, len(rows)),
	}
	for _, r := range rows {
		idx.ByTitle[r.Normalized] = append(idx.ByTitle[r.Normalized], r.Pos)
		idx.Titles = append(idx.Titles, search.TitleEntry{Pos: r.Pos, Title: r.Title, Normalized: r.Normalized})
	}
	return idx, nil
}

// SaveIndex writes the index to the cache artifact at path, replacing any
// previous artifact. The write happens against a temporary file that is
// renamed into place, so a crash mid-write never leaves a half-cache that
// LoadIndex would trust.
func SaveIndex(path string, idx *search.TitleIndex) error {
	tmp := path + ".tmp"
	_ = os.Remove(tmp)

	db, err := OpenSQLite(tmp)
	if err != nil {
		return fmt.Errorf("create cache: %w", err)
	}
	if err := db.AutoMigrate(&TitleRow{}); err != nil {
		closeDB(db)
		return fmt.Errorf("migrate cache: %w", err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		rows := make([]TitleRow, 0, insertBatch)
		for _, e := range idx.Titles {
			rows = append(rows, TitleRow{Pos: e.Pos, Title: e.Title, Normalized: e.Normalized})
			if len(rows) == insertBatch {
				if err := tx.CreateInBatches(rows, insertBatch).Error; err != nil {
					return err
				}
				rows = rows[:0]
			}
		}
		if len(rows) > 0 {
			return tx.CreateInBatches(rows, insertBatch).Error
		}
		return nil
	})
	closeDB(db)
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write cache: %w", err)
	}

	// WAL sidecars of the temp database must not outlive the rename.
	_ = os.Remove(tmp + "-wal")
	_ = os.Remove(tmp + "-shm")
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("install cache: %w", err)
	}
	return nil
}

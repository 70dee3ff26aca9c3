package entries

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"sync/atomic"

	"github.com/dgraph-io/badger/v4"
	"github.com/dmitrijs2005/medialog/internal/common"
	"github.com/dmitrijs2005/medialog/internal/models"
	"github.com/goccy/go-json"
)

const (
	entryPrefix     = "entry/"
	indexPrefix     = "idx/"
	datePrefix      = "idx/date/"
	mediaTypePrefix = "idx/type/"
	nextLocalKey    = "meta/next_local_seq"

	// separates the indexed value from the id inside index keys, so a media
	// type containing '/' cannot shadow another one during prefix scans
	indexSep = 0x00

	maxConflictRetries = 3
)

// ErrClosed is returned by a BadgerRepository after Close.
var ErrClosed = errors.New("entries: repository closed")

// BadgerRepository implements Repository on top of BadgerDB.
type BadgerRepository struct {
	db     *badger.DB
	closed atomic.Bool
}

// OpenBadger opens (creating if needed) a BadgerDB at path. An empty path
// opens an in-memory database.
func OpenBadger(path string) (*BadgerRepository, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0o700); err != nil {
			return nil, fmt.Errorf("badger cache dir: %w", err)
		}
		opts = badger.DefaultOptions(path)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger cache: %w", err)
	}
	return NewBadgerRepository(db), nil
}

// NewBadgerRepository wraps an already opened database.
func NewBadgerRepository(db *badger.DB) *BadgerRepository {
	return &BadgerRepository{db: db}
}

func (r *BadgerRepository) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	return r.db.Close()
}

func entryKey(id models.ID) []byte {
	return []byte(fmt.Sprintf("%s%020d", entryPrefix, int64(id)))
}

func indexKey(prefix, value string, id models.ID) []byte {
	k := make([]byte, 0, len(prefix)+len(value)+21)
	k = append(k, prefix...)
	k = append(k, value...)
	k = append(k, indexSep)
	k = append(k, fmt.Sprintf("%020d", int64(id))...)
	return k
}

func indexScanPrefix(prefix, value string) []byte {
	k := make([]byte, 0, len(prefix)+len(value)+1)
	k = append(k, prefix...)
	k = append(k, value...)
	return append(k, indexSep)
}

func (r *BadgerRepository) GetAll(_ context.Context) ([]models.Entry, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}

	result := make([]models.Entry, 0)
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: true, Prefix: []byte(entryPrefix)})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var e models.Entry
			if err := it.Item().Value(func(v []byte) error { return json.Unmarshal(v, &e) }); err != nil {
				return err
			}
			result = append(result, e)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger get all: %w", err)
	}
	sortByDateDesc(result)
	return result, nil
}

func (r *BadgerRepository) GetByID(_ context.Context, id models.ID) (*models.Entry, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}

	var e *models.Entry
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		e, err = getEntry(txn, id)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("badger get entry %d: %w", id, err)
	}
	return e, nil
}

func (r *BadgerRepository) ListByDate(_ context.Context, date string) ([]models.Entry, error) {
	return r.listByIndex(datePrefix, date)
}

func (r *BadgerRepository) ListByMediaType(_ context.Context, mediaType string) ([]models.Entry, error) {
	return r.listByIndex(mediaTypePrefix, mediaType)
}

func (r *BadgerRepository) listByIndex(prefix, value string) ([]models.Entry, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}

	scan := indexScanPrefix(prefix, value)
	result := make([]models.Entry, 0)
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: scan})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			raw := bytes.TrimPrefix(it.Item().Key(), scan)
			n, err := strconv.ParseInt(string(raw), 10, 64)
			if err != nil {
				return fmt.Errorf("corrupt index key %q: %w", it.Item().Key(), err)
			}
			e, err := getEntry(txn, models.ID(n))
			if err != nil {
				return err
			}
			result = append(result, *e)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("badger index scan: %w", err)
	}
	sortByDateDesc(result)
	return result, nil
}

func (r *BadgerRepository) Insert(_ context.Context, e *models.Entry) (models.ID, error) {
	if r.closed.Load() {
		return 0, ErrClosed
	}

	var id models.ID
	err := r.update(func(txn *badger.Txn) error {
		next, err := readNextLocal(txn)
		if err != nil {
			return err
		}

		id = e.ID
		if id == 0 {
			id = models.LocalID(next)
		} else if _, err := txn.Get(entryKey(id)); err == nil {
			return fmt.Errorf("entry %d already exists", id)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		stored := e.WithID(id)
		return writeEntry(txn, &stored, nil, next)
	})
	if err != nil {
		return 0, fmt.Errorf("badger insert: %w", err)
	}
	return id, nil
}

func (r *BadgerRepository) Put(_ context.Context, e *models.Entry) error {
	if r.closed.Load() {
		return ErrClosed
	}
	if e.ID == 0 {
		return fmt.Errorf("put entry: %w", common.ErrorValidation)
	}

	err := r.update(func(txn *badger.Txn) error {
		next, err := readNextLocal(txn)
		if err != nil {
			return err
		}
		old, err := getEntry(txn, e.ID)
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return writeEntry(txn, e, old, next)
	})
	if err != nil {
		return fmt.Errorf("badger put %d: %w", e.ID, err)
	}
	return nil
}

func (r *BadgerRepository) DeleteByID(_ context.Context, id models.ID) error {
	if r.closed.Load() {
		return ErrClosed
	}

	err := r.update(func(txn *badger.Txn) error {
		old, err := getEntry(txn, id)
		if err != nil {
			return err
		}
		if err := txn.Delete(entryKey(id)); err != nil {
			return err
		}
		return deleteIndexes(txn, old)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return common.ErrorNotFound
	}
	if err != nil {
		return fmt.Errorf("badger delete %d: %w", id, err)
	}
	return nil
}

// Clear drops entries and index keys but keeps the local id counter, so
// local ids are never reused.
func (r *BadgerRepository) Clear(_ context.Context) error {
	if r.closed.Load() {
		return ErrClosed
	}
	if err := r.db.DropPrefix([]byte(entryPrefix), []byte(indexPrefix)); err != nil {
		return fmt.Errorf("badger clear: %w", err)
	}
	return nil
}

func (r *BadgerRepository) Replace(ctx context.Context, entries []models.Entry) (int, error) {
	if err := r.Clear(ctx); err != nil {
		return 0, err
	}
	n := 0
	for i := range entries {
		if _, err := r.Insert(ctx, &entries[i]); err != nil {
			continue
		}
		n++
	}
	return n, nil
}

func (r *BadgerRepository) update(fn func(txn *badger.Txn) error) error {
	var err error
	for i := 0; i < maxConflictRetries; i++ {
		err = r.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

func getEntry(txn *badger.Txn, id models.ID) (*models.Entry, error) {
	item, err := txn.Get(entryKey(id))
	if err != nil {
		return nil, err
	}
	var e models.Entry
	if err := item.Value(func(v []byte) error { return json.Unmarshal(v, &e) }); err != nil {
		return nil, err
	}
	return &e, nil
}

// readNextLocal returns the sequence number of the next local id.
func readNextLocal(txn *badger.Txn) (int64, error) {
	item, err := txn.Get([]byte(nextLocalKey))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	var next int64
	err = item.Value(func(v []byte) error {
		if len(v) != 8 {
			return fmt.Errorf("corrupt local id counter")
		}
		next = int64(binary.BigEndian.Uint64(v))
		return nil
	})
	return next, err
}

// writeEntry stores e, replacing the index keys of old (if any). A local
// e.ID moves the local counter past it.
func writeEntry(txn *badger.Txn, e *models.Entry, old *models.Entry, next int64) error {
	if old != nil {
		if err := deleteIndexes(txn, old); err != nil {
			return err
		}
	}

	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := txn.Set(entryKey(e.ID), data); err != nil {
		return err
	}
	if err := txn.Set(indexKey(datePrefix, e.Date, e.ID), nil); err != nil {
		return err
	}
	if err := txn.Set(indexKey(mediaTypePrefix, e.MediaType, e.ID), nil); err != nil {
		return err
	}

	if seq := -int64(e.ID); e.ID.Local() && seq >= next {
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, uint64(seq+1))
		return txn.Set([]byte(nextLocalKey), buf)
	}
	return nil
}

func deleteIndexes(txn *badger.Txn, e *models.Entry) error {
	if err := txn.Delete(indexKey(datePrefix, e.Date, e.ID)); err != nil {
		return err
	}
	return txn.Delete(indexKey(mediaTypePrefix, e.MediaType, e.ID))
}

func sortByDateDesc(entries []models.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Date != entries[j].Date {
			return entries[i].Date > entries[j].Date
		}
		return entries[i].ID > entries[j].ID
	})
}

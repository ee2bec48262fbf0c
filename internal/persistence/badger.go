package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/neogan74/fedbridge/internal/logger"
)

const (
	federationPrefix = "federation:"
	operationPrefix  = "operation:"
)

// BadgerEngine implements Engine using BadgerDB
type BadgerEngine struct {
	db  *badger.DB
	log logger.Logger
}

// NewBadgerEngine creates a new BadgerDB persistence engine
func NewBadgerEngine(dataDir string, syncWrites bool, log logger.Logger) (*BadgerEngine, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	opts := badger.DefaultOptions(dataDir)
	opts.SyncWrites = syncWrites
	opts.Logger = nil // Disable BadgerDB internal logging

	// Snapshot blobs rewrite the full federation value on every commit,
	// so keep value log files small enough for GC to keep up
	opts.ValueLogFileSize = 64 << 20
	opts.MemTableSize = 64 << 20
	opts.Compression = 1 // Snappy

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	engine := &BadgerEngine{
		db:  db,
		log: log,
	}

	go engine.runGarbageCollection()

	log.Info("BadgerDB persistence engine initialized",
		logger.String("data_dir", dataDir),
		logger.String("sync_writes", fmt.Sprintf("%t", syncWrites)))

	return engine, nil
}

func (b *BadgerEngine) runGarbageCollection() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		err := b.db.RunValueLogGC(0.5)
		if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
			b.log.Warn("BadgerDB garbage collection failed", logger.Error(err))
		}
	}
}

func (b *BadgerEngine) GetFederationValue(federationID string) ([]byte, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(federationPrefix + federationID))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	return value, err
}

func (b *BadgerEngine) InsertNewFederation(federationID string, value []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		key := []byte(federationPrefix + federationID)
		_, err := txn.Get(key)
		if err == nil {
			return ErrFederationExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key, value)
	})
}

func (b *BadgerEngine) UpdateFederationData(federationID string, blob []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(federationPrefix+federationID), blob)
	})
}

func (b *BadgerEngine) ListFederations() ([]string, error) {
	var ids []string
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(federationPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			ids = append(ids, strings.TrimPrefix(key, federationPrefix))
		}
		return nil
	})
	return ids, err
}

func (b *BadgerEngine) CreateOperationRecord(rec OperationRecord) error {
	if rec.OperationID == "" {
		return errors.New("operation id must not be empty")
	}
	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	return b.db.Update(func(txn *badger.Txn) error {
		key := []byte(operationPrefix + string(rec.OperationID))
		_, err := txn.Get(key)
		if err == nil {
			return fmt.Errorf("operation record %s already exists", rec.OperationID)
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
}

func (b *BadgerEngine) GetOperationRecord(id OperationID) (*OperationRecord, error) {
	var rec OperationRecord
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(operationPrefix + string(id)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (b *BadgerEngine) GetTransactionHistory() (History, error) {
	var history History
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(operationPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec OperationRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return err
			}
			history = append(history, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(history, func(i, j int) bool {
		return history[i].CreatedAt.After(history[j].CreatedAt)
	})
	return history, nil
}

func (b *BadgerEngine) updateRecord(id OperationID, mutate func(*OperationRecord)) error {
	return b.db.Update(func(txn *badger.Txn) error {
		key := []byte(operationPrefix + string(id))
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrRecordNotFound
		}
		if err != nil {
			return err
		}

		var rec OperationRecord
		err = item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
		if err != nil {
			return err
		}

		mutate(&rec)
		rec.UpdatedAt = time.Now()

		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
}

func (b *BadgerEngine) MarkLnReceiveAsFailed(id OperationID) error {
	return b.updateRecord(id, markFailed)
}

func (b *BadgerEngine) MarkLnReceiveAsSuccess(id OperationID) error {
	return b.updateRecord(id, markSuccess)
}

func (b *BadgerEngine) MarkLightningPaymentAsFailed(id OperationID) error {
	return b.updateRecord(id, markFailed)
}

func (b *BadgerEngine) SetLightningPaymentPreimage(id OperationID, preimage [32]byte) error {
	return b.updateRecord(id, setPreimage(preimage))
}

func (b *BadgerEngine) MarkOnchainPaymentAsFailed(id OperationID) error {
	return b.updateRecord(id, markFailed)
}

func (b *BadgerEngine) SetOnchainPaymentTxid(id OperationID, txid string) error {
	return b.updateRecord(id, setTxidSuccess(txid))
}

func (b *BadgerEngine) MarkOnchainReceiveAsFailed(id OperationID) error {
	return b.updateRecord(id, markFailed)
}

func (b *BadgerEngine) MarkOnchainReceiveAsConfirmed(id OperationID) error {
	return b.updateRecord(id, markSuccess)
}

func (b *BadgerEngine) SetOnchainReceiveTxid(id OperationID, txid string, amountMsat, feeMsat uint64) error {
	return b.updateRecord(id, setTxidPartial(txid, amountMsat, feeMsat))
}

func (b *BadgerEngine) Close() error {
	return b.db.Close()
}

func (b *BadgerEngine) Backup(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer file.Close()

	_, err = b.db.Backup(file, 0)
	if err != nil {
		return fmt.Errorf("backup failed: %w", err)
	}

	b.log.Info("Backup completed successfully", logger.String("path", path))
	return nil
}

func (b *BadgerEngine) Restore(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open backup file: %w", err)
	}
	defer file.Close()

	err = b.db.Load(file, 256)
	if err != nil {
		return fmt.Errorf("restore failed: %w", err)
	}

	b.log.Info("Restore completed successfully", logger.String("path", path))
	return nil
}

package attrstore

// badger.go implements a durable Storage backend on BadgerDB, the same
// embedded key-value engine the teacher's disk_eject example uses as an
// L2 store. Keys are the raw 8 bytes of codec.Key (big-endian); values are
// a 1-byte kind tag followed by the Cargo payload.
//
// © 2025 gnosis authors. MIT License.

import (
	"encoding/binary"
	"fmt"
	"math"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/Voskan/gnosis/internal/codec"
	"github.com/Voskan/gnosis/pkg/gnosis"
)

// BadgerStorage is a Storage backend durable across process restarts.
type BadgerStorage struct {
	db *badger.DB
}

// OpenBadgerStorage opens (creating if absent) a BadgerDB at dir and
// subscribes the resulting store to g's change-event bus.
func OpenBadgerStorage(dir string, g *gnosis.Gnosis) (*BadgerStorage, error) {
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("attrstore: badger open: %w", err)
	}
	b := &BadgerStorage{db: db}
	g.OnChangeIdIncl(b.onChange)
	return b, nil
}

func keyBytes(k codec.Key) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, uint64(k))
	return buf
}

func encodeCargo(c Cargo) []byte {
	switch c.Kind() {
	case KindInt:
		v, _ := c.Int()
		buf := make([]byte, 9)
		buf[0] = byte(KindInt)
		binary.BigEndian.PutUint64(buf[1:], uint64(v))
		return buf
	case KindFloat:
		v, _ := c.Float()
		buf := make([]byte, 9)
		buf[0] = byte(KindFloat)
		binary.BigEndian.PutUint64(buf[1:], math.Float64bits(v))
		return buf
	case KindString:
		v, _ := c.String()
		buf := make([]byte, 1+len(v))
		buf[0] = byte(KindString)
		copy(buf[1:], v)
		return buf
	default:
		return []byte{byte(KindNone)}
	}
}

func decodeCargo(buf []byte) (Cargo, error) {
	if len(buf) == 0 {
		return Cargo{}, fmt.Errorf("attrstore: empty cargo payload")
	}
	switch Kind(buf[0]) {
	case KindInt:
		if len(buf) < 9 {
			return Cargo{}, fmt.Errorf("attrstore: truncated int cargo")
		}
		return IntCargo(int64(binary.BigEndian.Uint64(buf[1:9]))), nil
	case KindFloat:
		if len(buf) < 9 {
			return Cargo{}, fmt.Errorf("attrstore: truncated float cargo")
		}
		return FloatCargo(math.Float64frombits(binary.BigEndian.Uint64(buf[1:9]))), nil
	case KindString:
		return StringCargo(string(buf[1:])), nil
	default:
		return NoneCargo(), nil
	}
}

func (b *BadgerStorage) Put(key codec.Key, val Cargo) {
	_ = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(keyBytes(key), encodeCargo(val))
	})
}

func (b *BadgerStorage) Get(key codec.Key) (Cargo, bool) {
	var out Cargo
	found := false
	_ = b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyBytes(key))
		if err != nil {
			return nil
		}
		return item.Value(func(v []byte) error {
			decoded, err := decodeCargo(v)
			if err != nil {
				return err
			}
			out = decoded
			found = true
			return nil
		})
	})
	return out, found
}

func (b *BadgerStorage) Excl(key codec.Key) {
	_ = b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(keyBytes(key))
	})
}

func (b *BadgerStorage) Contains(key codec.Key) bool {
	found := false
	_ = b.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(keyBytes(key))
		found = err == nil
		return nil
	})
	return found
}

func (b *BadgerStorage) Len() int {
	n := 0
	_ = b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n
}

func (b *BadgerStorage) Clear() int {
	n := 0
	_ = b.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		var keys [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	return n
}

func (b *BadgerStorage) Close() error { return b.db.Close() }

// onChange mirrors MemStorage.onChange but against Badger's key-value
// iteration instead of an in-memory map.
func (b *BadgerStorage) onChange(id, id2 codec.Identity, attribute bool) {
	_ = b.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		var drop [][]byte
		type rewrite struct {
			old, new []byte
			val      []byte
		}
		var rewrites []rewrite
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			raw := item.KeyCopy(nil)
			k := codec.Key(binary.BigEndian.Uint64(raw))
			obj, atr := codec.Unpair(k)
			matches := atr == id
			if !attribute {
				matches = obj == id
			}
			if !matches {
				continue
			}
			if id2 == codec.NIHIL {
				drop = append(drop, raw)
				continue
			}
			var nk codec.Key
			if attribute {
				nk = codec.Pair(obj, id2)
			} else {
				nk = codec.Pair(id2, atr)
			}
			val, err := item.ValueCopy(nil)
			if err != nil {
				continue
			}
			rewrites = append(rewrites, rewrite{raw, keyBytes(nk), val})
		}
		for _, k := range drop {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		for _, rw := range rewrites {
			if err := txn.Delete(rw.old); err != nil {
				return err
			}
			if err := txn.Set(rw.new, rw.val); err != nil {
				return err
			}
		}
		return nil
	})
}

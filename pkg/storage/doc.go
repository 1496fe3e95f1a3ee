// Package storage defines the key-value boundary atoms persist through and
// ships the backends used in practice.
//
// Every backend implements Adapter:
//
//	type Adapter interface {
//	    Get(ctx context.Context, key string) ([]byte, bool, error)
//	    Set(ctx context.Context, key string, value []byte) error
//	    Delete(ctx context.Context, key string) error
//	}
//
// Backends:
//
//   - MemoryAdapter: in-process map. Default returns the process-wide instance
//     used when an atom asks for persistence without naming a backend.
//   - FileAdapter: one file per key inside a directory.
//   - SQLiteAdapter: a single "atoms" table in a SQLite database.
//   - S3Adapter: one object per key under a bucket prefix.
//
// Values are opaque bytes. Codecs (JSONCodec, YAMLCodec) turn Go values into
// those bytes and back.
package storage

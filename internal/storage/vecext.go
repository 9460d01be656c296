package storage

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// vecDriverName is the sql.Register name under which the cosine_distance
// scalar SQL function is available. Registration happens once per process,
// guarded by a sync.Once latch since sql.Register panics on a duplicate name.
const vecDriverName = "sqlite3_mditgo_vec"

var registerVecExtensionOnce sync.Once

// registerVecExtension registers vecDriverName with the standard library's
// database/sql driver registry. It is safe to call repeatedly; only the
// first call takes effect, matching the one-shot-latch idiom used elsewhere
// in mditgo for global state.
func registerVecExtension() {
	registerVecExtensionOnce.Do(func() {
		sql.Register(vecDriverName, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				return conn.RegisterFunc("cosine_distance", cosineDistance, true)
			},
		})
	})
}

// cosineDistance implements the cosine_distance(a, b) SQL scalar function
// over two little-endian float32[] blobs of equal length. It returns
// 1 - cosine_similarity, so "1 - cosine_distance(...)" recovers the
// similarity that CosineSimilarity computes in Go for search ranking.
func cosineDistance(a, b []byte) (float64, error) {
	va, err := decodeFloat32LE(a)
	if err != nil {
		return 0, err
	}
	vb, err := decodeFloat32LE(b)
	if err != nil {
		return 0, err
	}
	if len(va) != len(vb) {
		return 0, fmt.Errorf("cosine_distance: dimension mismatch (%d vs %d)", len(va), len(vb))
	}

	var dot, na, nb float64
	for i := range va {
		dot += float64(va[i]) * float64(vb[i])
		na += float64(va[i]) * float64(va[i])
		nb += float64(vb[i]) * float64(vb[i])
	}
	if na == 0 || nb == 0 {
		return 1, nil
	}

	similarity := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return 1 - similarity, nil
}

// DecodeFloat32LE decodes a little-endian float32 blob, the same format
// segment_vec.embedding and embedclient.Vector.Bytes both use, for pure-Go
// callers (the search ranker) that score outside SQL.
func DecodeFloat32LE(blob []byte) ([]float32, error) {
	return decodeFloat32LE(blob)
}

func decodeFloat32LE(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("cosine_distance: blob length %d is not a multiple of 4", len(blob))
	}
	out := make([]float32, len(blob)/4)
	for i := range out {
		bits := binary.LittleEndian.Uint32(blob[i*4 : i*4+4])
		out[i] = math.Float32frombits(bits)
	}
	return out, nil
}

// CosineSimilarity exposes the same computation to pure Go callers (the
// search ranker decodes blobs and scores in application code rather than
// only through SQL, so both paths must agree bit-for-bit).
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

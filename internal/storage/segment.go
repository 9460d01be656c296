package storage

import (
	"database/sql"

	mditerrors "github.com/mditgo/mditgo/internal/errors"
)

// SegmentState is the in-memory shape sync_segments_for_doc needs for one
// existing segment: its id, content hash, and whether it already has an
// embedding vector.
type SegmentState struct {
	ID           int64
	LastHash     string
	HasEmbedding bool
}

// LoadSegmentsByOrdinal returns docID's existing segments keyed by ordinal.
func LoadSegmentsByOrdinal(db *sql.DB, docID int64) (map[int]SegmentState, error) {
	rows, err := db.Query(`SELECT segment.ordinal, segment.id, segment.last_hash,
		CASE WHEN segment_vec.segment_id IS NULL THEN 0 ELSE 1 END
		FROM segment LEFT JOIN segment_vec ON segment_vec.segment_id = segment.id
		WHERE segment.doc_id = ?`, docID)
	if err != nil {
		return nil, mditerrors.Wrap(mditerrors.CodeInternalError, err, "loading segments")
	}
	defer rows.Close()

	out := map[int]SegmentState{}
	for rows.Next() {
		var ordinal int
		var hasEmbedding int
		var s SegmentState
		if err := rows.Scan(&ordinal, &s.ID, &s.LastHash, &hasEmbedding); err != nil {
			return nil, mditerrors.Wrap(mditerrors.CodeInternalError, err, "scanning segment row")
		}
		s.HasEmbedding = hasEmbedding == 1
		out[ordinal] = s
	}
	return out, rows.Err()
}

// InsertSegment inserts a new segment row, returning its id.
func InsertSegment(db *sql.DB, docID int64, ordinal int, hash, content string) (int64, error) {
	res, err := db.Exec(
		`INSERT INTO segment(doc_id, ordinal, last_hash, content) VALUES (?, ?, ?, ?)`,
		docID, ordinal, hash, content,
	)
	if err != nil {
		return 0, mditerrors.Wrap(mditerrors.CodeInternalError, err, "inserting segment")
	}
	return res.LastInsertId()
}

// UpdateSegmentHash updates a segment's content and hash after a re-chunk.
func UpdateSegmentHash(db *sql.DB, segmentID int64, hash, content string) error {
	_, err := db.Exec(`UPDATE segment SET last_hash = ?, content = ? WHERE id = ?`, hash, content, segmentID)
	if err != nil {
		return mditerrors.Wrap(mditerrors.CodeInternalError, err, "updating segment hash")
	}
	return nil
}

// DeleteSegmentsWithOrdinalAtLeast deletes every segment of docID whose
// ordinal is >= minOrdinal, pruning the dense 0..N prefix down to the
// current chunk count.
func DeleteSegmentsWithOrdinalAtLeast(db *sql.DB, docID int64, minOrdinal int) error {
	_, err := db.Exec(`DELETE FROM segment WHERE doc_id = ? AND ordinal >= ?`, docID, minOrdinal)
	if err != nil {
		return mditerrors.Wrap(mditerrors.CodeInternalError, err, "pruning trailing segments")
	}
	return nil
}

// DeleteAllSegments deletes every segment row for docID (used for a full
// chunking-version rebuild).
func DeleteAllSegments(db *sql.DB, docID int64) error {
	_, err := db.Exec(`DELETE FROM segment WHERE doc_id = ?`, docID)
	if err != nil {
		return mditerrors.Wrap(mditerrors.CodeInternalError, err, "deleting all segments")
	}
	return nil
}

// DeleteSegment best-effort deletes a single segment row (and its vector,
// via cascade) after an embedding failure on a newly-inserted segment, so
// retries never see orphan rows.
func DeleteSegment(db *sql.DB, segmentID int64) {
	_, _ = db.Exec(`DELETE FROM segment WHERE id = ?`, segmentID)
}

// UpsertSegmentVector writes or replaces the embedding vector for
// segmentID. The vector extension tolerates dimension changes per row.
func UpsertSegmentVector(db *sql.DB, segmentID int64, embedding []byte, dim int) error {
	_, err := db.Exec(
		`INSERT OR REPLACE INTO segment_vec(segment_id, embedding, dim) VALUES (?, ?, ?)`,
		segmentID, embedding, dim,
	)
	if err != nil {
		return mditerrors.Wrap(mditerrors.CodeInternalError, err, "upserting segment vector")
	}
	return nil
}

// DeleteSegmentVector best-effort deletes the vector row for segmentID.
func DeleteSegmentVector(db *sql.DB, segmentID int64) {
	_, _ = db.Exec(`DELETE FROM segment_vec WHERE segment_id = ?`, segmentID)
}

// PreparedSegment is one fully-embedded chunk ready to be persisted by
// RebuildSegments, built entirely before any write transaction opens so
// network embedding calls never hold a write lock.
type PreparedSegment struct {
	Ordinal   int
	Hash      string
	Content   string
	Embedding []byte
	Dim       int
}

// RebuildSegments atomically replaces every segment (and vector) row for
// docID with segments. Embeddings in segments must already be computed;
// this function only performs the SQL writes, inside one transaction.
func RebuildSegments(db *sql.DB, docID int64, segments []PreparedSegment) error {
	tx, err := db.Begin()
	if err != nil {
		return mditerrors.Wrap(mditerrors.CodeInternalError, err, "beginning segment rebuild transaction")
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM segment WHERE doc_id = ?`, docID); err != nil {
		return mditerrors.Wrap(mditerrors.CodeInternalError, err, "clearing segments for rebuild")
	}

	for _, s := range segments {
		res, err := tx.Exec(
			`INSERT INTO segment(doc_id, ordinal, last_hash, content) VALUES (?, ?, ?, ?)`,
			docID, s.Ordinal, s.Hash, s.Content,
		)
		if err != nil {
			return mditerrors.Wrap(mditerrors.CodeInternalError, err, "inserting segment during rebuild")
		}
		segmentID, err := res.LastInsertId()
		if err != nil {
			return mditerrors.Wrap(mditerrors.CodeInternalError, err, "reading inserted segment id")
		}
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO segment_vec(segment_id, embedding, dim) VALUES (?, ?, ?)`,
			segmentID, s.Embedding, s.Dim,
		); err != nil {
			return mditerrors.Wrap(mditerrors.CodeInternalError, err, "upserting segment vector during rebuild")
		}
	}

	if err := tx.Commit(); err != nil {
		return mditerrors.Wrap(mditerrors.CodeInternalError, err, "committing segment rebuild transaction")
	}
	return nil
}

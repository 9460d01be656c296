package index

import "github.com/mditgo/mditgo/internal/storage"

// syncAction is the per-file skip/refresh decision for one sync pass.
type syncAction struct {
	skip              bool
	sourceStatChanged bool
}

// decideFileSyncAction implements the skip condition: skip entirely iff
// all hold: not forced, source stat matches, chunking version matches
// target, last hash is present, and (if embedding context present) the
// stored model+dim match it.
func decideFileSyncAction(doc *storage.Doc, f file, forced bool, embedding *embeddingContext) syncAction {
	statChanged := !sourceStatMatches(doc, f)

	if !forced &&
		!statChanged &&
		doc.ChunkingVersion == targetChunkingVersion &&
		doc.LastHash.Valid &&
		embeddingTargetMatches(doc, embedding) {
		return syncAction{skip: true}
	}

	return syncAction{sourceStatChanged: statChanged}
}

func sourceStatMatches(doc *storage.Doc, f file) bool {
	return doc.LastSourceSize == f.size && doc.LastSourceMtimeNS == f.mtimeNS
}

func embeddingTargetChanged(doc *storage.Doc, model string, targetDim int) bool {
	return !doc.LastEmbeddingModel.Valid || doc.LastEmbeddingModel.String != model ||
		!doc.LastEmbeddingDim.Valid || doc.LastEmbeddingDim.Int64 != int64(targetDim)
}

func embeddingTargetMatches(doc *storage.Doc, embedding *embeddingContext) bool {
	if embedding == nil {
		return true
	}
	return !embeddingTargetChanged(doc, embedding.embedder.Model(), embedding.targetDim)
}

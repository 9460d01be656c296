package index

import (
	"database/sql"
	"path"
	"strconv"

	"github.com/mditgo/mditgo/internal/storage"
)

// Backlink is one document that links to a target document.
type Backlink struct {
	RelPath  string
	FileName string
}

// GetBacklinks returns the deduped documents that link to filePath
// (vault-relative), matched via target_doc_id for resolved links and
// target_path for unresolved ones.
func GetBacklinks(db *sql.DB, root, filePath string) ([]Backlink, error) {
	canonicalRoot, err := storage.CanonicalizeRoot(root)
	if err != nil {
		return nil, err
	}

	vaultID, ok, err := storage.FindVaultID(db, canonicalRoot)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	doc, err := storage.FindDocByRelPath(db, vaultID, filePath)
	if err != nil {
		return nil, err
	}
	var targetDocID int64
	if doc != nil {
		targetDocID = doc.ID
	}

	rows, err := storage.Backlinks(db, vaultID, targetDocID, filePath)
	if err != nil {
		return nil, err
	}

	out := make([]Backlink, 0, len(rows))
	for _, r := range rows {
		ext := path.Ext(r.RelPath)
		out = append(out, Backlink{RelPath: r.RelPath, FileName: r.RelPath[:len(r.RelPath)-len(ext)]})
	}
	return out, nil
}

// GraphNode is one node in the link graph: either a resolved doc id or a
// synthetic "unresolved:<path>" node for an unresolved link target.
type GraphNode struct {
	ID       string
	DocID    int64
	Resolved bool
}

// GraphEdge is one deduped edge between two graph nodes.
type GraphEdge struct {
	Source string
	Target string
}

// GraphView is the full node/edge set get_graph_view_data returns.
type GraphView struct {
	Nodes []GraphNode
	Edges []GraphEdge
}

// GetGraphViewData returns every deduped edge for root's vault plus the
// node set it touches.
func GetGraphViewData(db *sql.DB, root string) (*GraphView, error) {
	canonicalRoot, err := storage.CanonicalizeRoot(root)
	if err != nil {
		return nil, err
	}

	vaultID, ok, err := storage.FindVaultID(db, canonicalRoot)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &GraphView{}, nil
	}

	edges, err := storage.GraphEdges(db, vaultID)
	if err != nil {
		return nil, err
	}

	nodes := map[string]GraphNode{}
	view := &GraphView{}
	for _, e := range edges {
		sourceNode := strconv.FormatInt(e.SourceDocID, 10)
		if _, ok := nodes[sourceNode]; !ok {
			nodes[sourceNode] = GraphNode{ID: sourceNode, DocID: e.SourceDocID, Resolved: true}
		}
		if _, ok := nodes[e.TargetNode]; !ok {
			nodes[e.TargetNode] = GraphNode{ID: e.TargetNode, DocID: e.TargetDocID, Resolved: e.TargetDocID != 0}
		}
		view.Edges = append(view.Edges, GraphEdge{Source: sourceNode, Target: e.TargetNode})
	}
	for _, n := range nodes {
		view.Nodes = append(view.Nodes, n)
	}
	return view, nil
}

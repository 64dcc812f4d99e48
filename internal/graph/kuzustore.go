//go:build cgo

package graph

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kuzu "github.com/kuzudb/go-kuzu"
)

// KuzuStore implements the Store interface using KuzuDB as the graph backend.
// It requires CGO because the go-kuzu driver wraps KuzuDB's C library.
type KuzuStore struct {
	db   *kuzu.Database
	conn *kuzu.Connection
}

// Compile-time check that KuzuStore satisfies Store.
var _ Store = (*KuzuStore)(nil)

// NewKuzuStore creates a KuzuStore backed by an in-memory KuzuDB instance.
func NewKuzuStore() (*KuzuStore, error) {
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(":memory:", cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// NewKuzuFileStore creates a KuzuStore backed by a file-based KuzuDB at the
// given directory path. KuzuDB creates the directory itself for new databases.
func NewKuzuFileStore(dbPath string) (*KuzuStore, error) {
	// KuzuDB creates the leaf directory, not its parents.
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
	}
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(dbPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open file database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// Close releases the KuzuDB connection and database.
func (s *KuzuStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

// ---------- Schema setup ----------

// ddlStatements defines the Cypher DDL executed by InitSchema.
// Order matters: node tables must precede relationship tables.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS Resource(
		path STRING,
		label STRING,
		read_only BOOLEAN,
		seq INT64,
		PRIMARY KEY(path)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Element(
		id STRING,
		kind STRING,
		name STRING,
		owner_id STRING,
		resource STRING,
		type_id STRING,
		import_target STRING,
		static_flag INT64,
		abstract_flag INT64,
		tags STRING,
		position INT64,
		PRIMARY KEY(id)
	)`,
	`CREATE NODE TABLE IF NOT EXISTS Representation(
		id STRING,
		label STRING,
		kind STRING,
		target_id STRING,
		seq INT64,
		PRIMARY KEY(id)
	)`,
	`CREATE REL TABLE IF NOT EXISTS CONTAINS(FROM Resource TO Element)`,
	`CREATE REL TABLE IF NOT EXISTS OWNS(FROM Element TO Element)`,
	`CREATE REL TABLE IF NOT EXISTS REPRESENTS(FROM Representation TO Element)`,
}

// InitSchema creates all node and relationship tables if they do not exist.
func (s *KuzuStore) InitSchema(_ context.Context) error {
	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

// ---------- Write operations ----------

// AddResource upserts a Resource node.
func (s *KuzuStore) AddResource(_ context.Context, res Resource) error {
	seq, err := s.countTable("Resource")
	if err != nil {
		return err
	}
	return s.exec(
		`MERGE (r:Resource {path: $path})
		 ON CREATE SET r.label = $label, r.read_only = $ro, r.seq = $seq
		 ON MATCH SET r.label = $label, r.read_only = $ro`,
		map[string]any{
			"path":  res.Path,
			"label": res.Label,
			"ro":    res.ReadOnly,
			"seq":   int64(seq),
		},
	)
}

// AddElement inserts an Element node and links it to its owner (OWNS) or,
// for top-level elements, to its resource (CONTAINS).
func (s *KuzuStore) AddElement(_ context.Context, elem Element) error {
	err := s.exec(
		`CREATE (e:Element {
			id: $id,
			kind: $kind,
			name: $name,
			owner_id: $owner,
			resource: $res,
			type_id: $type,
			import_target: $target,
			static_flag: $static,
			abstract_flag: $abstract,
			tags: $tags,
			position: $pos
		})`,
		map[string]any{
			"id":       elem.ID,
			"kind":     string(elem.Kind),
			"name":     elem.Name,
			"owner":    elem.OwnerID,
			"res":      elem.Resource,
			"type":     elem.TypeID,
			"target":   elem.ImportTarget,
			"static":   encodeFlag(elem.Static),
			"abstract": encodeFlag(elem.Abstract),
			"tags":     strings.Join(elem.Tags, tagSeparator),
			"pos":      int64(elem.Position),
		},
	)
	if err != nil {
		return err
	}
	if elem.OwnerID != "" {
		return s.exec(
			`MATCH (o:Element {id: $owner}), (e:Element {id: $id})
			 CREATE (o)-[:OWNS]->(e)`,
			map[string]any{"owner": elem.OwnerID, "id": elem.ID},
		)
	}
	return s.exec(
		`MATCH (r:Resource {path: $res}), (e:Element {id: $id})
		 CREATE (r)-[:CONTAINS]->(e)`,
		map[string]any{"res": elem.Resource, "id": elem.ID},
	)
}

// AddRepresentation inserts a Representation node and its REPRESENTS edge.
// The edge is only created when the target element already exists.
func (s *KuzuStore) AddRepresentation(_ context.Context, rep Representation) error {
	seq, err := s.countTable("Representation")
	if err != nil {
		return err
	}
	err = s.exec(
		`CREATE (r:Representation {id: $id, label: $label, kind: $kind, target_id: $target, seq: $seq})`,
		map[string]any{
			"id":     rep.ID,
			"label":  rep.Label,
			"kind":   rep.Kind,
			"target": rep.TargetID,
			"seq":    int64(seq),
		},
	)
	if err != nil {
		return err
	}
	return s.exec(
		`MATCH (r:Representation {id: $id}), (e:Element {id: $target})
		 CREATE (r)-[:REPRESENTS]->(e)`,
		map[string]any{"id": rep.ID, "target": rep.TargetID},
	)
}

// ---------- Read operations ----------

const elementColumns = `e.id, e.kind, e.name, e.owner_id, e.resource, e.type_id,
	e.import_target, e.static_flag, e.abstract_flag, e.tags, e.position`

// GetResource retrieves a single Resource by path, or returns nil if not found.
func (s *KuzuStore) GetResource(_ context.Context, path string) (*Resource, error) {
	rows, err := s.query(
		"MATCH (r:Resource {path: $path}) RETURN r.path, r.label, r.read_only",
		map[string]any{"path": path},
	)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rowToResource(rows[0]), nil
}

// ListResources returns all resources in insertion order.
func (s *KuzuStore) ListResources(_ context.Context) ([]Resource, error) {
	rows, err := s.query(
		"MATCH (r:Resource) RETURN r.path, r.label, r.read_only ORDER BY r.seq",
		nil,
	)
	if err != nil {
		return nil, err
	}
	out := make([]Resource, 0, len(rows))
	for _, r := range rows {
		out = append(out, *rowToResource(r))
	}
	return out, nil
}

// GetElement retrieves a single Element by id, or nil if not found.
func (s *KuzuStore) GetElement(_ context.Context, id string) (*Element, error) {
	rows, err := s.query(
		"MATCH (e:Element {id: $id}) RETURN "+elementColumns,
		map[string]any{"id": id},
	)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rowToElement(rows[0]), nil
}

// GetRepresentation retrieves a single Representation by id, or nil.
func (s *KuzuStore) GetRepresentation(_ context.Context, id string) (*Representation, error) {
	rows, err := s.query(
		"MATCH (r:Representation {id: $id}) RETURN r.id, r.label, r.kind, r.target_id",
		map[string]any{"id": id},
	)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rowToRepresentation(rows[0]), nil
}

// Contents follows OWNS edges from ownerID.
func (s *KuzuStore) Contents(_ context.Context, ownerID string) ([]Element, error) {
	rows, err := s.query(
		`MATCH (o:Element {id: $id})-[:OWNS]->(e:Element)
		 RETURN `+elementColumns+` ORDER BY e.position`,
		map[string]any{"id": ownerID},
	)
	if err != nil {
		return nil, err
	}
	return rowsToElements(rows), nil
}

// ResourceContents follows CONTAINS edges from the resource at path.
func (s *KuzuStore) ResourceContents(_ context.Context, path string) ([]Element, error) {
	rows, err := s.query(
		`MATCH (r:Resource {path: $path})-[:CONTAINS]->(e:Element)
		 RETURN `+elementColumns+` ORDER BY e.position`,
		map[string]any{"path": path},
	)
	if err != nil {
		return nil, err
	}
	return rowsToElements(rows), nil
}

// RepresentationsByTarget returns representations whose target is targetID,
// in insertion order.
func (s *KuzuStore) RepresentationsByTarget(_ context.Context, targetID string) ([]Representation, error) {
	rows, err := s.query(
		`MATCH (r:Representation) WHERE r.target_id = $target
		 RETURN r.id, r.label, r.kind, r.target_id ORDER BY r.seq`,
		map[string]any{"target": targetID},
	)
	if err != nil {
		return nil, err
	}
	out := make([]Representation, 0, len(rows))
	for _, r := range rows {
		out = append(out, *rowToRepresentation(r))
	}
	return out, nil
}

// HasRepresentations counts instead of materializing the representations.
func (s *KuzuStore) HasRepresentations(_ context.Context, targetID string) (bool, error) {
	rows, err := s.query(
		"MATCH (r:Representation) WHERE r.target_id = $target RETURN count(r)",
		map[string]any{"target": targetID},
	)
	if err != nil {
		return false, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return false, nil
	}
	return toInt(rows[0][0]) > 0, nil
}

// ---------- Stats ----------

// Stats returns counts of resources, elements, representations and imports.
func (s *KuzuStore) Stats(_ context.Context) (*GraphStats, error) {
	resources, err := s.countTable("Resource")
	if err != nil {
		return nil, err
	}
	elements, err := s.countTable("Element")
	if err != nil {
		return nil, err
	}
	reps, err := s.countTable("Representation")
	if err != nil {
		return nil, err
	}
	rows, err := s.query(
		"MATCH (e:Element) WHERE e.kind = $pkg OR e.kind = $elem RETURN count(e)",
		map[string]any{
			"pkg":  string(ElementKindPackageImport),
			"elem": string(ElementKindElementImport),
		},
	)
	if err != nil {
		return nil, err
	}
	imports := 0
	if len(rows) > 0 && len(rows[0]) > 0 {
		imports = toInt(rows[0][0])
	}
	return &GraphStats{
		ResourceCount:       resources,
		ElementCount:        elements,
		RepresentationCount: reps,
		ImportCount:         imports,
	}, nil
}

// ---------- Internal helpers ----------

// exec runs a parameterized Cypher statement that produces no result rows.
func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// query runs a parameterized Cypher statement and collects all result rows.
// Each row is a []any slice with values in column order.
func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error

	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

// countTable returns the number of rows in a node table.
func (s *KuzuStore) countTable(table string) (int, error) {
	// Table name is a fixed internal constant, not user input.
	cypher := fmt.Sprintf("MATCH (n:%s) RETURN count(n)", table)
	rows, err := s.query(cypher, nil)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	return toInt(rows[0][0]), nil
}

// tagSeparator joins Element.Tags into a single STRING column.
const tagSeparator = "\x1f"

// encodeFlag stores an optional flag as -1 (absent), 0 or 1.
func encodeFlag(b *bool) int64 {
	switch {
	case b == nil:
		return -1
	case *b:
		return 1
	default:
		return 0
	}
}

func decodeFlag(v any) *bool {
	switch toInt(v) {
	case 0:
		return Bool(false)
	case 1:
		return Bool(true)
	default:
		return nil
	}
}

func rowToResource(r []any) *Resource {
	return &Resource{
		Path:     toString(r[0]),
		Label:    toString(r[1]),
		ReadOnly: toBool(r[2]),
	}
}

func rowToRepresentation(r []any) *Representation {
	return &Representation{
		ID:       toString(r[0]),
		Label:    toString(r[1]),
		Kind:     toString(r[2]),
		TargetID: toString(r[3]),
	}
}

// rowToElement converts an elementColumns row into an Element.
func rowToElement(r []any) *Element {
	var tags []string
	if t := toString(r[9]); t != "" {
		tags = strings.Split(t, tagSeparator)
	}
	return &Element{
		ID:           toString(r[0]),
		Kind:         ElementKind(toString(r[1])),
		Name:         toString(r[2]),
		OwnerID:      toString(r[3]),
		Resource:     toString(r[4]),
		TypeID:       toString(r[5]),
		ImportTarget: toString(r[6]),
		Static:       decodeFlag(r[7]),
		Abstract:     decodeFlag(r[8]),
		Tags:         tags,
		Position:     toInt(r[10]),
	}
}

func rowsToElements(rows [][]any) []Element {
	out := make([]Element, 0, len(rows))
	for _, r := range rows {
		out = append(out, *rowToElement(r))
	}
	return out
}

// ---------- Type coercion helpers ----------
// KuzuDB returns typed Go values (int64, float64, bool, string).
// These helpers safely coerce any -> concrete type.

func toString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	}
	return fmt.Sprintf("%v", v)
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case int32:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func toBool(v any) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return false
}

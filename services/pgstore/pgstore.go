package pgstore

import (
	"context"
	"time"

	"github.com/go-pg/pg/v10"
	"github.com/pkg/errors"

	"github.com/tvfiles-io/tracker/services/reconcile"
)

// Tables names the parent/child/leaf tables of one source. Child may be empty
// for sources without a child level.
type Tables struct {
	Parent string
	Child  string
	Leaf   string
}

var (
	FS     = Tables{Parent: "fs_dir", Leaf: "fs_file"}
	Plex   = Tables{Parent: "plex_series", Child: "plex_episode", Leaf: "plex_file"}
	Sonarr = Tables{Parent: "sonarr_series", Child: "sonarr_episode", Leaf: "sonarr_file"}
)

// Store implements reconcile.Store on top of go-pg. Handing it a *pg.Tx
// scopes every operation to the pass transaction.
type Store struct {
	db     pg.DBI
	tables Tables
}

func New(db pg.DBI, tables Tables) *Store {
	return &Store{
		db:     db,
		tables: tables,
	}
}

type parentRow struct {
	tableName struct{} `pg:"parent_row"`

	ID         int64     `pg:"id,pk"`
	Key        string    `pg:"key,notnull"`
	Title      string    `pg:"title,notnull"`
	Path       *string   `pg:"path"`
	FirstAdded time.Time `pg:"first_added,notnull"`
}

type childRow struct {
	tableName struct{} `pg:"child_row"`

	ID       int64  `pg:"id,pk"`
	Key      string `pg:"key,notnull"`
	ParentID *int64 `pg:"parent_id"`
	Season   *int   `pg:"season"`
	Episode  *int   `pg:"episode"`
}

type leafRow struct {
	tableName struct{} `pg:"leaf_row"`

	ID          int64      `pg:"id,pk"`
	Name        string     `pg:"name,notnull,use_zero"`
	Dir         string     `pg:"dir,notnull"`
	ParentID    *int64     `pg:"parent_id"`
	ChildID     *int64     `pg:"child_id"`
	CreatedDate *time.Time `pg:"created_date"`
	AddedDate   time.Time  `pg:"added_date,notnull"`
	RemovedDate *time.Time `pg:"removed_date"`
}

func (s *Store) table(kind reconcile.Kind) (string, error) {
	var name string
	switch kind {
	case reconcile.KindParent:
		name = s.tables.Parent
	case reconcile.KindChild:
		name = s.tables.Child
	case reconcile.KindLeaf:
		name = s.tables.Leaf
	}
	if name == "" {
		return "", errors.Errorf("source has no %s table", kind)
	}
	return name, nil
}

func (s *Store) FindByKey(ctx context.Context, kind reconcile.Kind, key reconcile.Key) (*reconcile.Row, error) {
	table, err := s.table(kind)
	if err != nil {
		return nil, err
	}
	switch kind {
	case reconcile.KindParent:
		row := &parentRow{}
		err = s.db.ModelContext(ctx, row).
			ModelTableExpr("? AS parent_row", pg.Ident(table)).
			Where("key = ?", key.ID()).
			Select()
		if errors.Is(err, pg.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, s.wrap(err, "failed to find parent by key")
		}
		return &reconcile.Row{ID: row.ID}, nil
	case reconcile.KindChild:
		row := &childRow{}
		err = s.db.ModelContext(ctx, row).
			ModelTableExpr("? AS child_row", pg.Ident(table)).
			Where("key = ?", key.ID()).
			Select()
		if errors.Is(err, pg.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, s.wrap(err, "failed to find child by key")
		}
		return &reconcile.Row{ID: row.ID}, nil
	default:
		name, dir := leafKeyColumns(key)
		row := &leafRow{}
		err = s.db.ModelContext(ctx, row).
			ModelTableExpr("? AS leaf_row", pg.Ident(table)).
			Where("name = ?", name).
			Where("dir = ?", dir).
			Select()
		if errors.Is(err, pg.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, s.wrap(err, "failed to find leaf by key")
		}
		return &reconcile.Row{ID: row.ID, Removed: row.RemovedDate != nil}, nil
	}
}

func (s *Store) Insert(ctx context.Context, kind reconcile.Kind, key reconcile.Key, attrs reconcile.Attrs, links reconcile.Links, at time.Time) (int64, error) {
	table, err := s.table(kind)
	if err != nil {
		return 0, err
	}
	switch kind {
	case reconcile.KindParent:
		row := &parentRow{
			Key:        key.ID(),
			Title:      attrs.Title,
			Path:       attrs.Path,
			FirstAdded: at,
		}
		_, err = s.db.ModelContext(ctx, row).
			ModelTableExpr("? AS parent_row", pg.Ident(table)).
			Insert()
		if err != nil {
			return 0, s.wrap(err, "failed to insert parent")
		}
		return row.ID, nil
	case reconcile.KindChild:
		row := &childRow{
			Key:      key.ID(),
			ParentID: links.ParentID,
			Season:   attrs.Season,
			Episode:  attrs.Episode,
		}
		_, err = s.db.ModelContext(ctx, row).
			ModelTableExpr("? AS child_row", pg.Ident(table)).
			Insert()
		if err != nil {
			return 0, s.wrap(err, "failed to insert child")
		}
		return row.ID, nil
	default:
		name, dir := leafKeyColumns(key)
		row := &leafRow{
			Name:        name,
			Dir:         dir,
			ParentID:    links.ParentID,
			ChildID:     links.ChildID,
			CreatedDate: attrs.CreatedAt,
			AddedDate:   at,
		}
		_, err = s.db.ModelContext(ctx, row).
			ModelTableExpr("? AS leaf_row", pg.Ident(table)).
			Insert()
		if err != nil {
			return 0, s.wrap(err, "failed to insert leaf")
		}
		return row.ID, nil
	}
}

func (s *Store) ListActiveLeaves(ctx context.Context) (map[reconcile.Key]int64, error) {
	var rows []leafRow
	err := s.db.ModelContext(ctx, &rows).
		ModelTableExpr("? AS leaf_row", pg.Ident(s.tables.Leaf)).
		Column("id", "name", "dir").
		Where("removed_date IS NULL").
		Select()
	if err != nil {
		return nil, s.wrap(err, "failed to list active leaves")
	}
	active := make(map[reconcile.Key]int64, len(rows))
	for _, r := range rows {
		active[leafKey(r.Name, r.Dir)] = r.ID
	}
	return active, nil
}

func (s *Store) MarkRemoved(ctx context.Context, id int64, at time.Time) error {
	_, err := s.db.ModelContext(ctx, (*leafRow)(nil)).
		ModelTableExpr("? AS leaf_row", pg.Ident(s.tables.Leaf)).
		Set("removed_date = ?", at).
		Where("id = ?", id).
		Update()
	if err != nil {
		return s.wrap(err, "failed to mark leaf removed")
	}
	return nil
}

func (s *Store) ClearRemoved(ctx context.Context, id int64) error {
	_, err := s.db.ModelContext(ctx, (*leafRow)(nil)).
		ModelTableExpr("? AS leaf_row", pg.Ident(s.tables.Leaf)).
		Set("removed_date = NULL").
		Where("id = ?", id).
		Update()
	if err != nil {
		return s.wrap(err, "failed to clear removed leaf")
	}
	return nil
}

// ListParentPaths returns the canonical paths of every registered parent
// entity, for sources that re-walk previously registered roots on each pass.
func (s *Store) ListParentPaths(ctx context.Context) ([]string, error) {
	var keys []string
	err := s.db.ModelContext(ctx, (*parentRow)(nil)).
		ModelTableExpr("? AS parent_row", pg.Ident(s.tables.Parent)).
		Column("key").
		Order("key ASC").
		Select(&keys)
	if err != nil {
		return nil, s.wrap(err, "failed to list parent paths")
	}
	return keys, nil
}

// wrap maps backend failures onto the reconcile error taxonomy: unique
// violations become ErrDuplicateKey, anything that is not a SQL error is
// treated as lost connectivity.
func (s *Store) wrap(err error, msg string) error {
	var pgErr pg.Error
	if errors.As(err, &pgErr) {
		if pgErr.Field('C') == "23505" {
			return errors.Wrapf(reconcile.ErrDuplicateKey, "%s: %v", msg, err)
		}
		return errors.Wrap(err, msg)
	}
	return errors.Wrapf(reconcile.ErrStoreUnavailable, "%s: %v", msg, err)
}

// leafKeyColumns maps a leaf key onto the (name, dir) columns. Single-path
// keys live in dir with an empty name.
func leafKeyColumns(key reconcile.Key) (string, string) {
	if key.IsComposite() {
		return key.Name(), key.Dir()
	}
	return "", key.ID()
}

func leafKey(name, dir string) reconcile.Key {
	if name == "" {
		return reconcile.SingleKey(dir)
	}
	return reconcile.CompositeKey(name, dir)
}

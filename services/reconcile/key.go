package reconcile

import (
	"path/filepath"
)

// Kind identifies the dependency level of an entity. Parents are resolved
// before children, children before leaves.
type Kind int

const (
	KindParent Kind = iota
	KindChild
	KindLeaf
)

func (k Kind) String() string {
	switch k {
	case KindParent:
		return "parent"
	case KindChild:
		return "child"
	case KindLeaf:
		return "leaf"
	default:
		return "unknown"
	}
}

// Key is the natural identity of an entity, independent of any store-assigned
// identifier. It comes in two forms: a single externally assigned identifier
// (or canonical absolute path) and a composite (file name, containing
// directory) pair. Keys are comparable and can be used as map keys directly.
type Key struct {
	id   string
	name string
	dir  string
}

// SingleKey keys an entity by one externally assigned identifier.
func SingleKey(id string) Key {
	return Key{id: id}
}

// CompositeKey keys a file by its name and containing directory.
func CompositeKey(name, dir string) Key {
	return Key{name: name, dir: dir}
}

func (k Key) IsComposite() bool {
	return k.id == ""
}

func (k Key) IsZero() bool {
	return k == Key{}
}

func (k Key) ID() string {
	return k.id
}

func (k Key) Name() string {
	return k.name
}

func (k Key) Dir() string {
	return k.dir
}

func (k Key) String() string {
	if k.IsComposite() {
		return filepath.Join(k.dir, k.name)
	}
	return k.id
}

// CanonicalPath resolves p to a cleaned absolute form so that equivalent
// paths reached via different relative roots collapse to the same key.
func CanonicalPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	return abs
}

// PathKey keys an entity by its canonical absolute path.
func PathKey(p string) Key {
	return SingleKey(CanonicalPath(p))
}

// FileKey keys a file by its name and canonical containing directory.
func FileKey(p string) Key {
	abs := CanonicalPath(p)
	return CompositeKey(filepath.Base(abs), filepath.Dir(abs))
}

// Package token implements the record.Token variants: the file source's
// (identity, offset, generation) triple and the journal source's opaque
// cursor string. Colocated here, rather than inside each source package,
// because both the emitting source and the route's ack-aggregation logic
// need to construct and compare them without the source and route packages
// importing each other.
package token

import (
	"fmt"

	"github.com/logship/logshipd/internal/record"
)

// File identifies a position in a tailed file: the stable identity of the
// inode being read, the byte offset just past the line terminator, and a
// generation counter bumped on every detected rotation so tokens across a
// rotation remain strictly ordered even though the byte offset resets.
type File struct {
	// Path is the pathname the token was read from; it distinguishes tokens
	// when one file source tails several glob-matched paths at once (§4.2),
	// each with its own independently persisted cursor.
	Path       string
	Identity   string
	Offset     int64
	Generation int64
}

func (f File) String() string {
	return fmt.Sprintf("file:%s:%s:%d:%d", f.Path, f.Identity, f.Generation, f.Offset)
}

func (f File) Equal(o record.Token) bool {
	of, ok := o.(File)
	return ok && of == f
}

func (f File) Less(o record.Token) bool {
	of, ok := o.(File)
	if !ok {
		return false
	}
	if f.Generation != of.Generation {
		return f.Generation < of.Generation
	}
	return f.Offset < of.Offset
}

// Journal wraps the opaque cursor string the journal library hands back,
// plus a locally assigned sequence number: cursors from the journal library
// are only meaningfully compared for equality, so Less uses the sequence
// number in which this daemon observed them.
type Journal struct {
	Cursor string
	Seq    int64
}

func (j Journal) String() string { return j.Cursor }

func (j Journal) Equal(o record.Token) bool {
	oj, ok := o.(Journal)
	return ok && oj.Cursor == j.Cursor
}

func (j Journal) Less(o record.Token) bool {
	oj, ok := o.(Journal)
	return ok && j.Seq < oj.Seq
}

// None is the token for sources that never checkpoint (metrics, stdin). It
// still carries a per-record sequence so the route's pending-set machinery,
// which is shared by every source kind, can order and ack it even though no
// cursor is ever persisted.
type None struct{ Seq int64 }

func (None) String() string { return "" }

func (n None) Equal(o record.Token) bool {
	on, ok := o.(None)
	return ok && on.Seq == n.Seq
}

func (n None) Less(o record.Token) bool {
	on, ok := o.(None)
	return ok && n.Seq < on.Seq
}

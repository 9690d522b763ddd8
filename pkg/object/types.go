package object

// Hash is a 40-character hex-encoded SHA-1 digest.
type Hash string

// ObjectType identifies the kind of object stored.
type ObjectType string

const (
	TypeBlob   ObjectType = "blob"
	TypeTree   ObjectType = "tree"
	TypeCommit ObjectType = "commit"
	TypeTag    ObjectType = "tag"
)

// Tree mode constants matching Git's canonical mode strings.
const (
	TreeModeDir        = "40000"
	TreeModeFile       = "100644"
	TreeModeExecutable = "100755"
	TreeModeSymlink    = "120000"
	TreeModeGitlink    = "160000"
)

// Blob holds raw file data.
type Blob struct {
	Data []byte
}

// TreeEntry is one entry in a tree object. Mode determines the entry kind:
// 40000 subtree, 120000 symlink, 160000 gitlink, everything else a file.
type TreeEntry struct {
	Name string
	Mode string
	Hash Hash
}

// IsDir reports whether the entry points at a subtree.
func (e TreeEntry) IsDir() bool { return e.Mode == TreeModeDir }

// sortKey is the byte string tree entries are ordered by. Directory names
// compare as if suffixed with a path separator so that a tree's serialized
// form is canonical regardless of how its entries were produced.
func (e TreeEntry) sortKey() string {
	if e.IsDir() {
		return e.Name + "/"
	}
	return e.Name
}

// TreeObj holds a list of tree entries, sorted by sortKey.
type TreeObj struct {
	Entries []TreeEntry
}

// Signature identifies an author or committer at a point in time.
// Offset is the UTC offset in the form "+hhmm" or "-hhmm".
type Signature struct {
	Name   string
	Email  string
	When   int64
	Offset string
}

// CommitObj represents a commit pointing at a tree with metadata. Parents
// are ordered; the first parent defines the mainline.
type CommitObj struct {
	TreeHash  Hash
	Parents   []Hash
	Author    Signature
	Committer Signature
	Signature string // optional detached signature, e.g. sshsig-v1
	Message   string
}

// TagObj is an annotated tag pointing at another object.
type TagObj struct {
	TargetHash Hash
	TargetType ObjectType
	Name       string
	Tagger     Signature
	Message    string
}

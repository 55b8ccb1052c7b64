// This package supports browsing the filesystem at the tree level.

package ntfs

import (
	"reflect"
	"sort"
	"strings"

	log "github.com/dsoprea/go-logging"
)

// TreeNode is one lazily-populated node of a directory tree built by
// walking NTFS B-tree indexes rather than a FAT-style cluster chain.
type TreeNode struct {
	name string

	isDirectory   bool
	fileReference FileReference

	loaded bool

	childrenFolders sort.StringSlice
	childrenFiles   sort.StringSlice

	childrenMap map[string]*TreeNode
}

// NewTreeNode constructs a node. The tree's root node, which has no
// $FILE_NAME entry of its own, is given a reference to the root
// directory's record number (RecordNumberRootDirectory) by NewTree.
func NewTreeNode(name string, isDirectory bool, fileReference FileReference) (tn *TreeNode) {
	childrenList := make(sort.StringSlice, 0)
	childrenMap := make(map[string]*TreeNode)

	tn = &TreeNode{
		name:        name,
		isDirectory: isDirectory,
		fileReference: fileReference,

		childrenFolders: childrenList,
		childrenFiles:   childrenList,

		childrenMap: childrenMap,
	}

	return tn
}

func (tn *TreeNode) Name() string { return tn.name }

// FileReference identifies the File Record this node represents.
func (tn *TreeNode) FileReference() FileReference { return tn.fileReference }

func (tn *TreeNode) IsDirectory() bool { return tn.isDirectory }

func (tn *TreeNode) ChildFolders() []string { return tn.childrenFolders }

func (tn *TreeNode) ChildFiles() []string { return tn.childrenFiles }

func (tn *TreeNode) GetChild(filename string) *TreeNode {
	return tn.childrenMap[filename]
}

func (tn *TreeNode) Lookup(pathParts []string) (lastPathParts []string, lastNode *TreeNode, found *TreeNode) {
	if len(pathParts) == 0 {
		return pathParts, tn, tn
	}

	childNode := tn.childrenMap[pathParts[0]]
	if childNode == nil {
		return pathParts, tn, nil
	}

	lastPathParts, lastNode, found = childNode.Lookup(pathParts[1:])
	return lastPathParts, lastNode, found
}

func (tn *TreeNode) AddChild(name string, isDirectory bool, fileReference FileReference) *TreeNode {
	childNode := NewTreeNode(name, isDirectory, fileReference)

	// The adds are driven off an index traversal that is already sorted,
	// but insertion sort here keeps this robust to callers that add out
	// of order.

	var list sort.StringSlice
	if isDirectory {
		list = tn.childrenFolders
	} else {
		list = tn.childrenFiles
	}

	insertOrEqualAt := list.Search(name)

	if insertOrEqualAt >= len(list) {
		list = append(list, name)
	} else if list[insertOrEqualAt] != name {
		leftHalf := list[:insertOrEqualAt]
		rightHalf := list[insertOrEqualAt:]
		list = append(leftHalf, append([]string{name}, rightHalf...)...)
	}

	if isDirectory {
		tn.childrenFolders = list
	} else {
		tn.childrenFiles = list
	}

	tn.childrenMap[name] = childNode

	return childNode
}

// Tree is a lazily-populated view of an NTFS volume's directory
// hierarchy, built on demand from $I30 index traversals rather than
// loaded all at once.
type Tree struct {
	n        *Ntfs
	upcase   *UpcaseTable
	rootNode *TreeNode
}

// NewTree builds an (unloaded) tree over volume n.
func NewTree(n *Ntfs, upcase *UpcaseTable) *Tree {
	rootNode := NewTreeNode("", true, FileReference{RecordNumber: RecordNumberRootDirectory})

	return &Tree{
		n:        n,
		upcase:   upcase,
		rootNode: rootNode,
	}
}

func (tree *Tree) loadDirectory(fr *FileRecord, node *TreeNode) (err error) {
	defer func() {
		if errRaw := recover(); errRaw != nil {
			var ok bool
			if err, ok = errRaw.(error); ok {
				err = log.Wrap(err)
			} else {
				err = log.Errorf("Error not an error: [%s] [%v]", reflect.TypeOf(err).Name(), err)
			}
		}
	}()

	index, nerr := fr.DirectoryIndex(tree.n)
	log.PanicIf(nerr)

	cb := func(entry *IndexEntry) (bool, *NtfsError) {
		key, ferr := entry.FileName()
		if ferr != nil {
			return false, ferr
		}

		// Every long name also gets a short (DOS) $FILE_NAME entry in the
		// index; skip the pure-DOS instance so each file is listed once.
		if key.Namespace == FileNameNamespaceDos {
			return true, nil
		}

		isDirectory := key.FileAttributes&FileAttributeIsDirectory != 0
		node.AddChild(key.Name, isDirectory, entry.FileReference())

		return true, nil
	}

	nerr = index.Each(cb)
	log.PanicIf(nerr)

	node.loaded = true

	return nil
}

// Load populates the tree's root directory's immediate children.
func (tree *Tree) Load() (err error) {
	defer func() {
		if errRaw := recover(); errRaw != nil {
			var ok bool
			if err, ok = errRaw.(error); ok {
				err = log.Wrap(err)
			} else {
				err = log.Errorf("Error not an error: [%s] [%v]", reflect.TypeOf(err).Name(), err)
			}
		}
	}()

	root, nerr := tree.n.RootDirectory()
	log.PanicIf(nerr)

	err = tree.loadDirectory(root, tree.rootNode)
	log.PanicIf(err)

	return nil
}

// Lookup resolves a path, loading directories lazily as the walk
// descends.
func (tree *Tree) Lookup(pathParts []string) (node *TreeNode, err error) {
	defer func() {
		if errRaw := recover(); errRaw != nil {
			var ok bool
			if err, ok = errRaw.(error); ok {
				err = log.Wrap(err)
			} else {
				err = log.Errorf("Error not an error: [%s] [%v]", reflect.TypeOf(err).Name(), err)
			}
		}
	}()

	for {
		lastPathParts, lastNode, foundNode := tree.rootNode.Lookup(pathParts)
		if foundNode != nil {
			if len(lastPathParts) != 0 {
				log.Panicf("it looks like we found the node but the path-parts were not exhausted")
			}

			return foundNode, nil
		}

		if lastNode.loaded {
			return nil, nil
		}

		fr, nerr := tree.n.FileRecordByNumber(lastNode.fileReference.RecordNumber)
		log.PanicIf(nerr)

		err := tree.loadDirectory(fr, lastNode)
		log.PanicIf(err)
	}
}

type TreeVisitorFunc func(pathParts []string, node *TreeNode) (err error)

// Visit walks the whole tree, loading directories on demand.
func (tree *Tree) Visit(cb TreeVisitorFunc) (err error) {
	defer func() {
		if errRaw := recover(); errRaw != nil {
			var ok bool
			if err, ok = errRaw.(error); ok {
				err = log.Wrap(err)
			} else {
				err = log.Errorf("Error not an error: [%s] [%v]", reflect.TypeOf(err).Name(), err)
			}
		}
	}()

	pathParts := make([]string, 0)

	err = tree.visit(pathParts, tree.rootNode, cb)
	log.PanicIf(err)

	return nil
}

func (tree *Tree) visit(pathParts []string, node *TreeNode, cb TreeVisitorFunc) (err error) {
	defer func() {
		if errRaw := recover(); errRaw != nil {
			var ok bool
			if err, ok = errRaw.(error); ok {
				err = log.Wrap(err)
			} else {
				err = log.Errorf("Error not an error: [%s] [%v]", reflect.TypeOf(err).Name(), err)
			}
		}
	}()

	err = cb(pathParts, node)
	log.PanicIf(err)

	for _, childFolderName := range node.childrenFolders {
		childNode := node.childrenMap[childFolderName]

		childPathParts := make([]string, len(pathParts)+1)
		copy(childPathParts, pathParts)
		childPathParts[len(childPathParts)-1] = childNode.name

		if !childNode.loaded {
			fr, nerr := tree.n.FileRecordByNumber(childNode.fileReference.RecordNumber)
			log.PanicIf(nerr)

			err := tree.loadDirectory(fr, childNode)
			log.PanicIf(err)
		}

		err := tree.visit(childPathParts, childNode, cb)
		log.PanicIf(err)
	}

	for _, childFilename := range node.childrenFiles {
		childNode := node.childrenMap[childFilename]

		childPathParts := make([]string, len(pathParts)+1)
		copy(childPathParts, pathParts)
		childPathParts[len(childPathParts)-1] = childFilename

		err := cb(childPathParts, childNode)
		log.PanicIf(err)
	}

	return nil
}

// List flattens the whole tree into a slice of backslash-joined paths
// (matching how NTFS itself renders a path), alongside a lookup map from
// path to node. Paths appear in Visit order: at each level, the folders
// (each followed by its contents) come before the files; the slice as a
// whole is not sorted.
func (tree *Tree) List() (files []string, nodes map[string]*TreeNode, err error) {
	defer func() {
		if errRaw := recover(); errRaw != nil {
			var ok bool
			if err, ok = errRaw.(error); ok {
				err = log.Wrap(err)
			} else {
				err = log.Errorf("Error not an error: [%s] [%v]", reflect.TypeOf(err).Name(), err)
			}
		}
	}()

	files = make([]string, 0)
	nodes = make(map[string]*TreeNode)

	cb := func(pathParts []string, node *TreeNode) (err error) {
		if len(pathParts) == 0 {
			return nil
		}

		nodePath := strings.Join(pathParts, `\`)

		files = append(files, nodePath)
		nodes[nodePath] = node

		return nil
	}

	err = tree.Visit(cb)
	log.PanicIf(err)

	return files, nodes, nil
}

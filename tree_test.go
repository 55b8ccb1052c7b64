package ntfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeNode_AddChildAndGetChild(t *testing.T) {
	root := NewTreeNode("", true, FileReference{RecordNumber: RecordNumberRootDirectory})

	root.AddChild("documents", true, FileReference{RecordNumber: 40})
	root.AddChild("readme.txt", false, FileReference{RecordNumber: 41})

	assert.Equal(t, []string{"documents"}, []string(root.ChildFolders()))
	assert.Equal(t, []string{"readme.txt"}, []string(root.ChildFiles()))

	child := root.GetChild("documents")
	require.NotNil(t, child)
	assert.Equal(t, "documents", child.Name())
	assert.True(t, child.IsDirectory())
	assert.Equal(t, FileReference{RecordNumber: 40}, child.FileReference())

	assert.Nil(t, root.GetChild("missing"))
}

func TestTreeNode_AddChildKeepsSortedOrder(t *testing.T) {
	root := NewTreeNode("", true, FileReference{})

	root.AddChild("charlie", false, FileReference{RecordNumber: 3})
	root.AddChild("alpha", false, FileReference{RecordNumber: 1})
	root.AddChild("bravo", false, FileReference{RecordNumber: 2})

	assert.Equal(t, []string{"alpha", "bravo", "charlie"}, []string(root.ChildFiles()))
}

func TestTreeNode_Lookup(t *testing.T) {
	root := NewTreeNode("", true, FileReference{})
	docs := root.AddChild("docs", true, FileReference{RecordNumber: 40})
	docs.AddChild("notes.txt", false, FileReference{RecordNumber: 50})

	remaining, lastNode, found := root.Lookup([]string{"docs", "notes.txt"})
	require.NotNil(t, found)
	assert.Empty(t, remaining)
	assert.Equal(t, "notes.txt", found.Name())
	assert.Equal(t, found, lastNode)
}

func TestTreeNode_LookupMissingPathStopsAtDeepestMatch(t *testing.T) {
	root := NewTreeNode("", true, FileReference{})
	docs := root.AddChild("docs", true, FileReference{RecordNumber: 40})

	remaining, lastNode, found := root.Lookup([]string{"docs", "missing.txt"})
	assert.Nil(t, found)
	assert.Equal(t, []string{"missing.txt"}, remaining)
	assert.Equal(t, docs, lastNode)
}

// buildSampleTree constructs a fully-loaded tree by hand, bypassing
// Tree.Load/Lookup (which require a real *Ntfs volume reader): every
// node touched here is marked loaded so Visit/List never attempt to
// fetch a File Record.
func buildSampleTree() *Tree {
	root := NewTreeNode("", true, FileReference{RecordNumber: RecordNumberRootDirectory})
	root.loaded = true

	docs := root.AddChild("docs", true, FileReference{RecordNumber: 40})
	docs.loaded = true
	docs.AddChild("notes.txt", false, FileReference{RecordNumber: 50})

	root.AddChild("readme.txt", false, FileReference{RecordNumber: 41})

	return &Tree{rootNode: root}
}

func TestTree_List(t *testing.T) {
	tree := buildSampleTree()

	files, nodes, err := tree.List()
	require.Nil(t, err)

	assert.ElementsMatch(t, []string{"docs", `docs\notes.txt`, "readme.txt"}, files)

	node, ok := nodes[`docs\notes.txt`]
	require.True(t, ok)
	assert.Equal(t, FileReference{RecordNumber: 50}, node.FileReference())
}

func TestTree_VisitOrdersFoldersBeforeFiles(t *testing.T) {
	tree := buildSampleTree()

	var visited []string
	err := tree.Visit(func(pathParts []string, node *TreeNode) error {
		if len(pathParts) == 0 {
			return nil
		}
		visited = append(visited, node.Name())
		return nil
	})
	require.Nil(t, err)

	// docs (a folder) is visited, then its child, before the top-level
	// file readme.txt: Tree.visit walks childrenFolders ahead of
	// childrenFiles at every level.
	assert.Equal(t, []string{"docs", "notes.txt", "readme.txt"}, visited)
}

// ntfsshell is a small interactive REPL for poking around an NTFS
// volume image from the command-line, in the spirit of a stripped-down
// debugfs.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dsoprea/go-logging"
	"github.com/dustin/go-humanize"
	"github.com/jessevdk/go-flags"

	"github.com/dsoprea/go-ntfs"
	"github.com/dsoprea/go-ntfs/nttime"
)

type rootParameters struct {
	Filepath string `short:"f" long:"filepath" description:"File-path of NTFS filesystem" required:"true"`
}

var (
	rootArguments = new(rootParameters)
)

type shell struct {
	n    *ntfs.Ntfs
	tree *ntfs.Tree

	cwdParts []string
	cwdNode  *ntfs.TreeNode
}

func newShell(n *ntfs.Ntfs, tree *ntfs.Tree) *shell {
	return &shell{
		n:        n,
		tree:     tree,
		cwdParts: []string{},
	}
}

func (s *shell) prompt() string {
	if len(s.cwdParts) == 0 {
		return `\>`
	}

	return `\` + strings.Join(s.cwdParts, `\`) + `>`
}

func (s *shell) currentNode() (node *ntfs.TreeNode, err error) {
	if s.cwdNode != nil {
		return s.cwdNode, nil
	}

	node, err = s.tree.Lookup(s.cwdParts)
	if err != nil {
		return nil, err
	}

	if node == nil {
		return nil, fmt.Errorf("current directory no longer resolves")
	}

	return node, nil
}

func (s *shell) resolve(name string) (node *ntfs.TreeNode, err error) {
	current, err := s.currentNode()
	if err != nil {
		return nil, err
	}

	if name == "" || name == "." {
		return current, nil
	}

	child := current.GetChild(name)
	if child == nil {
		return nil, fmt.Errorf("not found: [%s]", name)
	}

	return child, nil
}

func (s *shell) cmdDir() error {
	node, err := s.currentNode()
	if err != nil {
		return err
	}

	for _, name := range node.ChildFolders() {
		fmt.Printf("%15s %s\\\n", "<DIR>", name)
	}

	for _, name := range node.ChildFiles() {
		child := node.GetChild(name)

		size := ""

		fr, nerr := s.n.FileRecordByNumber(child.FileReference().RecordNumber)
		if nerr == nil {
			if value, nerr := s.n.Attribute(fr, ntfs.AttributeTypeData, ""); nerr == nil {
				size = humanize.Comma(int64(value.Len()))
			}
		}

		fmt.Printf("%15s %s\n", size, name)
	}

	return nil
}

func (s *shell) cmdCd(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: cd <name>|..|\\")
	}

	target := args[0]

	if target == `\` {
		s.cwdParts = []string{}
		s.cwdNode = nil
		return nil
	}

	if target == ".." {
		if len(s.cwdParts) == 0 {
			return nil
		}

		s.cwdParts = s.cwdParts[:len(s.cwdParts)-1]
		s.cwdNode = nil
		return nil
	}

	child, err := s.resolve(target)
	if err != nil {
		return err
	}

	if !child.IsDirectory() {
		return fmt.Errorf("not a directory: [%s]", target)
	}

	s.cwdParts = append(s.cwdParts, target)
	s.cwdNode = child

	return nil
}

func (s *shell) cmdFsinfo() error {
	bs := s.n.BootSector()

	fmt.Printf("%20s : %s\n", "Sector size", humanize.Bytes(uint64(bs.SectorSize())))
	fmt.Printf("%20s : %s\n", "Cluster size", humanize.Bytes(uint64(bs.ClusterSize())))
	fmt.Printf("%20s : %s\n", "Total size", humanize.Bytes(bs.TotalSize()))
	fmt.Printf("%20s : %s\n", "MFT position", bs.MftPosition())
	fmt.Printf("%20s : 0x%016X\n", "Volume serial", bs.Serial())

	return nil
}

func (s *shell) cmdFileinfo(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: fileinfo <name>")
	}

	node, err := s.resolve(args[0])
	if err != nil {
		return err
	}

	fr, nerr := s.n.FileRecordByNumber(node.FileReference().RecordNumber)
	if nerr != nil {
		return nerr
	}

	fmt.Printf("%20s : %d\n", "MFT record", fr.RecordNumber())
	fmt.Printf("%20s : %v\n", "Directory", fr.IsDirectory())
	fmt.Printf("%20s : %v\n", "In use", fr.IsInUse())

	si, nerr := s.n.StandardInformation(fr)
	if nerr != nil {
		return nerr
	}

	fmt.Printf("%20s : %s\n", "Created", nttime.FromNtTime(si.CreationTime))
	fmt.Printf("%20s : %s\n", "Modified", nttime.FromNtTime(si.LastModificationTime))
	fmt.Printf("%20s : %s\n", "Accessed", nttime.FromNtTime(si.LastAccessTime))
	fmt.Printf("%20s : %s\n", "Attributes", si.FileAttributes)

	return nil
}

func (s *shell) cmdAttr(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: attr <name>")
	}

	node, err := s.resolve(args[0])
	if err != nil {
		return err
	}

	fr, nerr := s.n.FileRecordByNumber(node.FileReference().RecordNumber)
	if nerr != nil {
		return nerr
	}

	for _, attr := range fr.RawAttributes() {
		fmt.Printf(
			"%-28s name=%-20q resident=%-5v length=%d\n",
			attr.Type(), attr.Name(), !attr.IsNonResident(), attr.Length())
	}

	return nil
}

func (s *shell) cmdAttrRuns(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: attr_runs <name>")
	}

	node, err := s.resolve(args[0])
	if err != nil {
		return err
	}

	fr, nerr := s.n.FileRecordByNumber(node.FileReference().RecordNumber)
	if nerr != nil {
		return nerr
	}

	attr := fr.RawAttributes()
	found := false

	for _, a := range attr {
		if a.Type() != ntfs.AttributeTypeData || !a.IsNonResident() {
			continue
		}

		found = true

		runs, nerr := a.DataRuns(fr.RawData())
		if nerr != nil {
			return nerr
		}

		for _, run := range runs {
			fmt.Printf(
				"vcn=%d count=%d lcn=%s sparse=%v\n",
				run.StartVcn, run.ClusterCount, run.Lcn, run.IsSparse)
		}
	}

	if !found {
		fmt.Printf("(resident or no $DATA attribute)\n")
	}

	return nil
}

func (s *shell) cmdGet(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: get <name> <local-dest-path>")
	}

	node, err := s.resolve(args[0])
	if err != nil {
		return err
	}

	if node.IsDirectory() {
		return fmt.Errorf("cannot get a directory")
	}

	fr, nerr := s.n.FileRecordByNumber(node.FileReference().RecordNumber)
	if nerr != nil {
		return nerr
	}

	value, nerr := s.n.Attribute(fr, ntfs.AttributeTypeData, "")
	if nerr != nil {
		return nerr
	}

	out, err := os.Create(args[1])
	if err != nil {
		return err
	}

	defer out.Close()

	written, err := io.Copy(out, value)
	if err != nil {
		return err
	}

	fmt.Printf("wrote %s\n", humanize.Bytes(uint64(written)))

	return nil
}

func (s *shell) cmdHelp() {
	fmt.Printf("commands:\n")
	fmt.Printf("  dir                    list the current directory\n")
	fmt.Printf("  cd <name>|..|\\         change directory\n")
	fmt.Printf("  fsinfo                 print volume/boot-sector info\n")
	fmt.Printf("  fileinfo <name>        print standard-information for an entry\n")
	fmt.Printf("  attr <name>            list the attributes of an entry\n")
	fmt.Printf("  attr_runs <name>       print the $DATA data runs of an entry\n")
	fmt.Printf("  get <name> <dest>      extract a file's $DATA to a local path\n")
	fmt.Printf("  help                   this message\n")
	fmt.Printf("  exit | quit            leave the shell\n")
}

func (s *shell) dispatch(line string) (done bool) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}

	cmd, args := fields[0], fields[1:]

	var err error

	switch strings.ToLower(cmd) {
	case "dir", "ls":
		err = s.cmdDir()
	case "cd":
		err = s.cmdCd(args)
	case "fsinfo":
		err = s.cmdFsinfo()
	case "fileinfo", "stat":
		err = s.cmdFileinfo(args)
	case "attr":
		err = s.cmdAttr(args)
	case "attr_runs":
		err = s.cmdAttrRuns(args)
	case "get":
		err = s.cmdGet(args)
	case "help", "?":
		s.cmdHelp()
	case "exit", "quit":
		return true
	default:
		err = fmt.Errorf("unknown command: [%s] (try 'help')", cmd)
	}

	if err != nil {
		fmt.Printf("ERROR: %s\n", err.Error())
	}

	return false
}

func main() {
	defer func() {
		if state := recover(); state != nil {
			err := log.Wrap(state.(error))
			log.PrintError(err)
			os.Exit(-1)
		}
	}()

	p := flags.NewParser(rootArguments, flags.Default)

	_, err := p.Parse()
	if err != nil {
		os.Exit(1)
	}

	f, err := os.Open(rootArguments.Filepath)
	log.PanicIf(err)

	defer f.Close()

	n, nerr := ntfs.OpenVolume(f)
	if nerr != nil {
		log.Panic(nerr)
	}

	upcase, nerr := ntfs.LoadUpcaseTable(n)
	if nerr != nil {
		log.Panic(nerr)
	}

	tree := ntfs.NewTree(n, upcase)

	err = tree.Load()
	log.PanicIf(err)

	s := newShell(n, tree)

	scanner := bufio.NewScanner(os.Stdin)

	fmt.Printf("ntfsshell (%s) -- type 'help' for commands\n", rootArguments.Filepath)

	for {
		fmt.Printf("%s ", s.prompt())

		if !scanner.Scan() {
			break
		}

		if s.dispatch(scanner.Text()) {
			break
		}
	}
}

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dsoprea/go-logging"
	"github.com/dustin/go-humanize"
	"github.com/jessevdk/go-flags"

	"github.com/dsoprea/go-ntfs"
)

type rootParameters struct {
	Filepath       string `short:"f" long:"filepath" description:"File-path of NTFS filesystem" required:"true"`
	FilenameFilter string `short:"p" long:"pattern" description:"Filename filter"`
}

var (
	rootArguments = new(rootParameters)
)

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

	tree := ntfs.NewTree(n, nil)

	err = tree.Load()
	log.PanicIf(err)

	files, nodes, err := tree.List()
	log.PanicIf(err)

	for _, currentFilepath := range files {
		node := nodes[currentFilepath]

		if rootArguments.FilenameFilter != "" {
			isMatched, err := filepath.Match(rootArguments.FilenameFilter, node.Name())
			log.PanicIf(err)

			if !isMatched {
				continue
			}
		}

		if node.IsDirectory() {
			fmt.Printf("%15s %s\\\n", "<DIR>", currentFilepath)
			continue
		}

		size := ""

		fr, nerr := n.FileRecordByNumber(node.FileReference().RecordNumber)
		if nerr == nil {
			if value, nerr := n.Attribute(fr, ntfs.AttributeTypeData, ""); nerr == nil {
				size = humanize.Comma(int64(value.Len()))
			}
		}

		fmt.Printf("%15s %s\n", size, currentFilepath)
	}
}

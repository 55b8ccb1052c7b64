package main

import (
	"fmt"
	"os"

	"github.com/dsoprea/go-logging"
	"github.com/dustin/go-humanize"
	"github.com/jessevdk/go-flags"

	"github.com/dsoprea/go-ntfs"
)

type rootParameters struct {
	Filepath string `short:"f" long:"filepath" description:"File-path of NTFS filesystem" required:"true"`
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

	bs, nerr := ntfs.ParseBootSector(f)
	if nerr != nil {
		log.Panic(nerr)
	}

	fmt.Printf("Boot Sector\n")
	fmt.Printf("===========\n")
	fmt.Printf("\n")

	fmt.Printf("%30s : %s\n", "Sector size", humanize.Bytes(uint64(bs.SectorSize())))
	fmt.Printf("%30s : %s\n", "Cluster size", humanize.Bytes(uint64(bs.ClusterSize())))
	fmt.Printf("%30s : %s\n", "Total size", humanize.Bytes(bs.TotalSize()))
	fmt.Printf("%30s : %s\n", "MFT position", bs.MftPosition())
	fmt.Printf("%30s : %d bytes\n", "File-record size", bs.FileRecordSize())
	fmt.Printf("%30s : %d bytes\n", "Index-record size", bs.IndexRecordSize())
	fmt.Printf("%30s : 0x%016X\n", "Volume serial", bs.Serial())
}

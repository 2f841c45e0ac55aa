package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jessevdk/go-flags"
	"github.com/robinjoseph08/golib/logger"
	"github.com/shelfdex/shelfdex/pkg/epub"
	"github.com/shelfdex/shelfdex/pkg/fb2"
	"github.com/shelfdex/shelfdex/pkg/mediafile"
	"github.com/shelfdex/shelfdex/pkg/mobi"
)

func main() {
	log := logger.New()

	var opts struct {
		CoverOutput string `short:"o" long:"cover-output" description:"A path to output the cover image"`
	}

	args, err := flags.Parse(&opts)
	if err != nil {
		log.Err(err).Fatal("flags parse error")
	}

	if len(args) != 1 {
		fmt.Println("go run ./cmd/scripts/debug/parse-book <path/to/file.{fb2,epub,mobi}>")
		os.Exit(1)
	}

	path := args[0]
	var metadata *mediafile.ParsedMetadata
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "fb2":
		metadata, err = fb2.Parse(path)
	case "epub":
		metadata, err = epub.Parse(path)
	case "mobi":
		metadata, err = mobi.Parse(path)
	default:
		fmt.Println("unsupported extension")
		os.Exit(1)
	}
	if err != nil {
		log.Err(err).Fatal("parse error")
	}

	fmt.Printf("%s\n", metadata)
	fmt.Printf("Has Cover Data: %v\nCover Mime Type: %s\n", len(metadata.CoverData) > 0, metadata.CoverMimeType)
	if opts.CoverOutput != "" && metadata.CoverData != nil {
		err = os.WriteFile(opts.CoverOutput, metadata.CoverData, 0644)
		if err != nil {
			log.Err(err).Fatal("file write error")
		}
	}
}

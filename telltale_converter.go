package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/mogaika/telltale_converter/batch"
	"github.com/mogaika/telltale_converter/config"
)

func main() {
	var input, output, settingsPath, format, encoding string
	var noMeshes, noSkeletons, heightMaps, verbose, listEncodings bool
	var workers int

	flag.StringVar(&input, "i", "input", "Directory with *.d3dmesh, *.d3dtx and *.skl files")
	flag.StringVar(&output, "o", "output", "Directory for converted documents and images")
	flag.StringVar(&settingsPath, "settings", "settings.yaml", "Path to yaml settings file")
	flag.StringVar(&format, "format", "", "Image output format, png or webp")
	flag.StringVar(&encoding, "encoding", "", "Code page of texture names, see -listencodings")
	flag.BoolVar(&noMeshes, "nomeshes", false, "Do not convert meshes")
	flag.BoolVar(&noSkeletons, "noskeletons", false, "Do not convert skeletons")
	flag.BoolVar(&heightMaps, "heightmaps", false, "Derive height maps from normal maps")
	flag.BoolVar(&verbose, "verbose", false, "Dump parsed structures, forces a single worker")
	flag.BoolVar(&listEncodings, "listencodings", false, "Print supported code pages and exit")
	flag.IntVar(&workers, "workers", 0, "Number of parallel workers, defaults to the cpu count")
	flag.Parse()

	if listEncodings {
		for _, name := range config.ListEncodings() {
			fmt.Println(name)
		}
		return
	}

	if err := config.LoadSettingsFile(settingsPath); err != nil {
		log.Fatal(err)
	}

	// flags passed on the command line win over the settings file
	settings := config.GetSettings()
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "i":
			settings.InputDirectory = input
		case "o":
			settings.OutputDirectory = output
		case "nomeshes":
			settings.DisableMeshes = noMeshes
		case "noskeletons":
			settings.DisableSkeletons = noSkeletons
		case "heightmaps":
			settings.DeriveHeightMaps = heightMaps
		case "verbose":
			settings.Verbose = verbose
		case "workers":
			settings.Workers = workers
		case "format":
			parsed, err := config.ParseImageFormat(format)
			if err != nil {
				log.Fatal(err)
			}
			settings.TextureFormat = parsed
		}
	})
	config.SetSettings(settings)

	if encoding != "" {
		if err := config.SetEncoding(encoding); err != nil {
			log.Fatal(err)
		}
	}

	summary, err := batch.Run()
	if err != nil {
		log.Fatal(err)
	}
	if summary.Empty() {
		log.Printf("No recognized files found in %q", settings.InputDirectory)
		return
	}
	log.Printf("%v", summary)
}

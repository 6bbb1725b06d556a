// Package batch converts whole directories of game assets over a pool
// of workers. Textures run first and publish their results to a shared
// lookup, the scene exports that follow read it to decide which images
// to reference and how.
package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/mogaika/telltale_converter/config"
	"github.com/mogaika/telltale_converter/pack/d3dmesh"
	"github.com/mogaika/telltale_converter/pack/d3dtx"
	"github.com/mogaika/telltale_converter/pack/skl"
	"github.com/mogaika/telltale_converter/scene"
	"github.com/mogaika/telltale_converter/utils"
)

// TEXTURE_FOLDER is the directory under the output root where converted
// images land. Scene documents reference them through this prefix.
const TEXTURE_FOLDER = "textures"

// Summary reports how a batch went, per asset kind. Failures of one
// file never stop the rest of the batch, they only show up here and in
// the log.
type Summary struct {
	Recognized int

	TexturesConverted  int
	TexturesFailed     int
	MeshesConverted    int
	MeshesFailed       int
	SkeletonsConverted int
	SkeletonsFailed    int
}

// Empty tells whether the input directory contained nothing we know
// how to convert.
func (s *Summary) Empty() bool {
	return s.Recognized == 0
}

func (s *Summary) String() string {
	parts := make([]string, 0, 3)
	if total := s.TexturesConverted + s.TexturesFailed; total != 0 {
		parts = append(parts, fmt.Sprintf("%d of %d textures", s.TexturesConverted, total))
	}
	if total := s.MeshesConverted + s.MeshesFailed; total != 0 {
		parts = append(parts, fmt.Sprintf("%d of %d meshes", s.MeshesConverted, total))
	}
	if total := s.SkeletonsConverted + s.SkeletonsFailed; total != 0 {
		parts = append(parts, fmt.Sprintf("%d of %d skeletons", s.SkeletonsConverted, total))
	}
	if len(parts) == 0 {
		return "converted nothing"
	}
	return "converted " + strings.Join(parts, ", ")
}

type inputFile struct {
	name string
	stem string
}

type batch struct {
	settings config.Settings
	logger   *utils.Logger

	// filled by the parse phase, read only afterwards
	meshes map[string]*d3dmesh.Mesh
	// filled by the texture phase, read only afterwards
	lookup map[string]scene.ConvertedTexture
}

// Run converts every recognized file of the configured input directory
// and reports per kind counts. Individual file failures are logged and
// counted, the returned error covers only the setup around them.
func Run() (*Summary, error) {
	settings := config.GetSettings()

	meshFiles, textureFiles, skeletonFiles, err := discover(settings.InputDirectory)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Recognized: len(meshFiles) + len(textureFiles) + len(skeletonFiles)}
	if summary.Empty() {
		return summary, nil
	}

	if err := os.MkdirAll(filepath.Join(settings.OutputDirectory, TEXTURE_FOLDER), 0776); err != nil {
		return nil, errors.Wrap(err, "Cannot create output directory")
	}

	logPath := filepath.Join(settings.OutputDirectory, time.Now().Format("2006-01-02_15-04-05")+".log")
	logger, err := utils.NewLogger(logPath, settings.Verbose)
	if err != nil {
		return nil, err
	}
	defer logger.Close()

	b := &batch{
		settings: settings,
		logger:   logger,
		meshes:   make(map[string]*d3dmesh.Mesh),
		lookup:   make(map[string]scene.ConvertedTexture),
	}

	// Texture conversion depends on how meshes reference the images, so
	// meshes are parsed even when only skeletons are exported.
	if !settings.DisableMeshes || !settings.DisableSkeletons {
		summary.MeshesFailed += b.parseMeshes(meshFiles)
	}
	b.convertTextures(textureFiles, summary)
	if !settings.DisableMeshes {
		b.exportMeshes(meshFiles, summary)
	}
	if !settings.DisableSkeletons {
		b.exportSkeletons(skeletonFiles, summary)
	}

	return summary, nil
}

// discover classifies the direct children of the input directory by
// extension. Anything else, directories included, is left alone.
func discover(dir string) (meshes, textures, skeletons []inputFile, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, nil, errors.Wrapf(err, "Cannot list input directory %q", dir)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		file := inputFile{name: name, stem: strings.TrimSuffix(name, filepath.Ext(name))}
		switch filepath.Ext(name) {
		case d3dmesh.FILE_EXTENSION:
			meshes = append(meshes, file)
		case d3dtx.FILE_EXTENSION:
			textures = append(textures, file)
		case skl.FILE_EXTENSION:
			skeletons = append(skeletons, file)
		}
	}
	return meshes, textures, skeletons, nil
}

// runJobs fans count jobs out over the configured worker pool. Job i
// owns slot i of whatever result slice its closure writes, so jobs
// never need to lock anything. A panicking job leaves its slot zero
// and the rest of the batch keeps going.
func (b *batch) runJobs(count int, job func(wlog *utils.WorkerLog, i int)) {
	workers := b.settings.WorkerCount()
	if workers > count {
		workers = count
	}

	runJob := func(wlog *utils.WorkerLog, i int) {
		defer func() {
			if r := recover(); r != nil {
				wlog.Printf("Error: panic on job %d: %v", i, r)
			}
		}()
		job(wlog, i)
	}

	jobs := make(chan int, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			wlog := b.logger.Worker(id)
			for i := range jobs {
				runJob(wlog, i)
			}
		}(w)
	}
	for i := 0; i < count; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
}

// parseMeshes loads every mesh container up front and returns how many
// failed. The texture phase walks the material references of the
// result, the export phases reuse it instead of rereading files.
func (b *batch) parseMeshes(files []inputFile) int {
	parsed := make([]*d3dmesh.Mesh, len(files))
	b.runJobs(len(files), func(wlog *utils.WorkerLog, i int) {
		path := filepath.Join(b.settings.InputDirectory, files[i].name)
		data, err := os.ReadFile(path)
		if err == nil {
			parsed[i], err = d3dmesh.Parse(data, wlog)
		}
		if err != nil {
			wlog.Printf("Error: %v: %v", path, err)
		}
	})

	failed := 0
	for i := range parsed {
		if parsed[i] != nil {
			b.meshes[files[i].stem] = parsed[i]
		} else {
			failed++
		}
	}
	return failed
}

// resolveTexture is the read side of the lookup the texture phase
// populated. A miss means the image was never converted and the caller
// leaves the reference out.
func (b *batch) resolveTexture(name string) (scene.ConvertedTexture, bool) {
	converted, ok := b.lookup[name]
	return converted, ok
}

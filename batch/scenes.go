package batch

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/mogaika/telltale_converter/pack/d3dmesh"
	"github.com/mogaika/telltale_converter/pack/skl"
	"github.com/mogaika/telltale_converter/scene"
	"github.com/mogaika/telltale_converter/utils"
)

type sceneMesh struct {
	name string
	mesh *d3dmesh.Mesh
}

// exportMeshes writes one document per parsed mesh container, without
// a rig. Parse failures were counted already, they just have no job
// here.
func (b *batch) exportMeshes(files []inputFile, summary *Summary) {
	ready := make([]inputFile, 0, len(files))
	for _, file := range files {
		if b.meshes[file.stem] != nil {
			ready = append(ready, file)
		}
	}
	if len(ready) == 0 {
		return
	}
	b.logger.Worker(0).Printf("converting *.d3dmesh files...")

	converted := make([]bool, len(ready))
	b.runJobs(len(ready), func(wlog *utils.WorkerLog, i int) {
		file := ready[i]
		meshes := []sceneMesh{{name: file.stem, mesh: b.meshes[file.stem]}}
		if err := b.exportScene(wlog, file.stem, nil, meshes); err != nil {
			wlog.Printf("Error: %v: %v",
				filepath.Join(b.settings.InputDirectory, file.name), err)
			return
		}
		converted[i] = true
	})

	for _, ok := range converted {
		if ok {
			summary.MeshesConverted++
		} else {
			summary.MeshesFailed++
		}
	}
}

// exportSkeletons writes one rigged document per skeleton, pulling in
// every parsed mesh whose file name starts with the skeleton's.
func (b *batch) exportSkeletons(files []inputFile, summary *Summary) {
	if len(files) == 0 {
		return
	}
	b.logger.Worker(0).Printf("converting *.skl files...")

	converted := make([]bool, len(files))
	b.runJobs(len(files), func(wlog *utils.WorkerLog, i int) {
		if err := b.exportSkeleton(wlog, files[i]); err != nil {
			wlog.Printf("Error: %v: %v",
				filepath.Join(b.settings.InputDirectory, files[i].name), err)
			return
		}
		converted[i] = true
	})

	for _, ok := range converted {
		if ok {
			summary.SkeletonsConverted++
		} else {
			summary.SkeletonsFailed++
		}
	}
}

func (b *batch) exportSkeleton(wlog *utils.WorkerLog, file inputFile) error {
	data, err := os.ReadFile(filepath.Join(b.settings.InputDirectory, file.name))
	if err != nil {
		return errors.Wrap(err, "Cannot read skeleton")
	}
	s, err := skl.Parse(data, wlog)
	if err != nil {
		return err
	}

	meshes := b.matchingMeshes(file.stem)
	if len(meshes) == 0 {
		wlog.Verbosef("No meshes found for skeleton %q", file.name)
	}
	return b.exportScene(wlog, file.stem, s, meshes)
}

// matchingMeshes finds the parsed meshes belonging to a skeleton by
// the file naming convention, sk62_clementine.skl owns
// sk62_clementine_head.d3dmesh and friends.
func (b *batch) matchingMeshes(sklStem string) []sceneMesh {
	meshes := make([]sceneMesh, 0)
	for stem, m := range b.meshes {
		if strings.HasPrefix(stem, sklStem) {
			meshes = append(meshes, sceneMesh{name: stem, mesh: m})
		}
	}
	sort.Slice(meshes, func(i, j int) bool { return meshes[i].name < meshes[j].name })
	return meshes
}

func (b *batch) exportScene(wlog *utils.WorkerLog, rootName string, s *skl.Skeleton, meshes []sceneMesh) error {
	e := scene.NewExporter(rootName, b.resolveTexture, wlog)
	if s != nil {
		e.AddSkeleton(s)
	}
	for _, entry := range meshes {
		if err := e.AddMesh(entry.name, entry.mesh); err != nil {
			return err
		}
	}
	return e.Save(filepath.Join(b.settings.OutputDirectory, rootName+".gltf"))
}

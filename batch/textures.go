package batch

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/mogaika/telltale_converter/imgconv"
	"github.com/mogaika/telltale_converter/pack/d3dmesh"
	"github.com/mogaika/telltale_converter/pack/d3dtx"
	"github.com/mogaika/telltale_converter/scene"
	"github.com/mogaika/telltale_converter/utils"
)

// conversionOrder decides the treatment of an image when meshes
// reference it under several kinds. The first listed kind wins, kinds
// outside the list convert plainly.
var conversionOrder = []d3dmesh.TextureKind{
	d3dmesh.TEXTURE_DIFFUSE,
	d3dmesh.TEXTURE_NORMAL,
	d3dmesh.TEXTURE_SPECULAR,
	d3dmesh.TEXTURE_DETAIL,
	d3dmesh.TEXTURE_INK,
	d3dmesh.TEXTURE_HEIGHT,
}

func convertibleKind(kind d3dmesh.TextureKind) bool {
	for _, k := range conversionOrder {
		if k == kind {
			return true
		}
	}
	return false
}

func conversionKind(kinds map[d3dmesh.TextureKind]bool) d3dmesh.TextureKind {
	for _, kind := range conversionOrder {
		if kinds[kind] {
			return kind
		}
	}
	return d3dmesh.TEXTURE_UNKNOWN
}

// conversionGroup buckets kinds by treatment. Only normal and specular
// maps get reencoded, every other kind is saved as decoded.
func conversionGroup(kind d3dmesh.TextureKind) int {
	switch kind {
	case d3dmesh.TEXTURE_NORMAL:
		return 1
	case d3dmesh.TEXTURE_SPECULAR:
		return 2
	}
	return 0
}

// textureJob is one image conversion together with every kind the
// parsed meshes reference it under.
type textureJob struct {
	name  string
	kinds map[d3dmesh.TextureKind]bool
}

// collectTextureJobs merges the texture files found on disk with the
// references of the parsed meshes. Files nothing references are still
// converted, just without a special treatment, and references to files
// the directory does not hold fail their job instead of being skipped
// silently.
func (b *batch) collectTextureJobs(files []inputFile) []textureJob {
	kindsByName := make(map[string]map[d3dmesh.TextureKind]bool, len(files))
	for _, file := range files {
		kindsByName[file.name] = make(map[d3dmesh.TextureKind]bool)
	}
	for _, m := range b.meshes {
		for i := range m.Materials {
			for _, ref := range m.Materials[i].Textures {
				if ref.Name == "" || !convertibleKind(ref.Kind) {
					continue
				}
				if ref.Slot != d3dmesh.SLOT_MAP && ref.Slot != d3dmesh.SLOT_MAP_A {
					continue
				}
				if kindsByName[ref.Name] == nil {
					kindsByName[ref.Name] = make(map[d3dmesh.TextureKind]bool)
				}
				kindsByName[ref.Name][ref.Kind] = true
			}
		}
	}

	names := make([]string, 0, len(kindsByName))
	for name := range kindsByName {
		names = append(names, name)
	}
	sort.Strings(names)

	jobs := make([]textureJob, len(names))
	for i, name := range names {
		jobs[i] = textureJob{name: name, kinds: kindsByName[name]}
	}
	return jobs
}

// convertTextures decodes every source image once and writes it in the
// treatment its references ask for. Successful conversions land in the
// lookup the scene exports read.
func (b *batch) convertTextures(files []inputFile, summary *Summary) {
	jobs := b.collectTextureJobs(files)
	if len(jobs) == 0 {
		return
	}
	b.logger.Worker(0).Printf("converting *.d3dtx files...")

	converted := make([]*scene.ConvertedTexture, len(jobs))
	b.runJobs(len(jobs), func(wlog *utils.WorkerLog, i int) {
		entry, err := b.convertTexture(wlog, jobs[i])
		if err != nil {
			wlog.Printf("Error: %v: %v",
				filepath.Join(b.settings.InputDirectory, jobs[i].name), err)
			return
		}
		converted[i] = entry
	})

	for i := range converted {
		if converted[i] != nil {
			b.lookup[jobs[i].name] = *converted[i]
			summary.TexturesConverted++
		} else {
			summary.TexturesFailed++
		}
	}
}

func (b *batch) convertTexture(wlog *utils.WorkerLog, job textureJob) (*scene.ConvertedTexture, error) {
	data, err := os.ReadFile(filepath.Join(b.settings.InputDirectory, job.name))
	if err != nil {
		return nil, errors.Wrap(err, "Cannot read texture")
	}
	tex, err := d3dtx.Parse(data, wlog)
	if err != nil {
		return nil, err
	}

	kind := conversionKind(job.kinds)
	groups := make(map[int]bool, len(job.kinds))
	for k := range job.kinds {
		groups[conversionGroup(k)] = true
	}
	if len(groups) > 1 {
		wlog.Printf("Warning: texture %q is referenced with conflicting kinds, converting as %v",
			job.name, kind)
	}

	img := tex.Image
	switch kind {
	case d3dmesh.TEXTURE_NORMAL:
		if img, err = imgconv.ConvertNormalMap(tex.Image, tex.Layout); err != nil {
			return nil, err
		}
	case d3dmesh.TEXTURE_SPECULAR:
		if img, err = imgconv.ConvertSpecularMap(tex.Image, tex.Layout); err != nil {
			return nil, err
		}
	}

	outName := strings.TrimSuffix(job.name, filepath.Ext(job.name)) + b.settings.TextureFormat.Extension()
	if err := imgconv.SaveImage(filepath.Join(b.settings.OutputDirectory, TEXTURE_FOLDER, outName), img); err != nil {
		return nil, err
	}

	if kind == d3dmesh.TEXTURE_NORMAL && b.settings.DeriveHeightMaps {
		wlog.Verbosef("Deriving height map from %q", job.name)
		height := imgconv.DeriveHeightMap(img, b.settings.WorkerCount())
		heightPath := filepath.Join(b.settings.OutputDirectory, TEXTURE_FOLDER, imgconv.HeightMapFileName(outName))
		if err := imgconv.SaveImage(heightPath, height); err != nil {
			return nil, err
		}
	}

	return &scene.ConvertedTexture{
		// document URIs always use forward slashes
		URI:         TEXTURE_FOLDER + "/" + outName,
		Translucent: imgconv.HasTranslucency(tex.Image, tex.Layout),
	}, nil
}

package specfile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// DuplicateWarning records a collection definition discarded during merge.
type DuplicateWarning struct {
	Library    string
	Collection string
	// File is where the discarded definition lives; FirstFile is where the
	// surviving one came from.
	File      string
	FirstFile string
}

func (w DuplicateWarning) String() string {
	return fmt.Sprintf("library %q: collection %q in %s duplicates the definition in %s and was ignored",
		w.Library, w.Collection, w.File, w.FirstFile)
}

// LibrarySpecs holds the merged collection specs for one library, in
// first-seen file order.
type LibrarySpecs struct {
	Name        string
	Collections []CollectionSpec
}

// LoadResult is the outcome of loading a root config: merged specs per
// library plus any duplicate-name warnings.
type LoadResult struct {
	Libraries []LibrarySpecs
	Warnings  []DuplicateWarning
}

type rootDoc struct {
	Libraries map[string]libraryDoc `yaml:"libraries"`
}

type libraryDoc struct {
	CollectionFiles []fileRef `yaml:"collection_files"`
}

type fileRef struct {
	File string `yaml:"file"`
}

type collectionFileDoc struct {
	Collections map[string]collectionDoc `yaml:"collections"`
}

type collectionDoc struct {
	Items         []ItemEntry `yaml:"items"`
	Sort          string      `yaml:"sort"`
	Mode          string      `yaml:"mode"`
	TitleSort     string      `yaml:"titleSort"`
	ContentRating string      `yaml:"contentRating"`
	Summary       string      `yaml:"summary"`
	Poster        string      `yaml:"poster"`
	Art           string      `yaml:"art"`
}

// Load reads the root config and every collection file it references,
// merging multiple files per library. The first file to define a collection
// name wins; later definitions are discarded with a warning. Any unreadable
// or unparsable file is a fatal error.
func Load(rootPath string) (*LoadResult, error) {
	data, err := os.ReadFile(rootPath)
	if err != nil {
		return nil, fmt.Errorf("read root config %s: %w", rootPath, err)
	}

	var root rootDoc
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parse root config %s: %w", rootPath, err)
	}
	if len(root.Libraries) == 0 {
		return nil, fmt.Errorf("root config %s declares no libraries", rootPath)
	}

	baseDir := filepath.Dir(rootPath)
	result := &LoadResult{}

	names := make([]string, 0, len(root.Libraries))
	for name := range root.Libraries {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		lib := root.Libraries[name]
		if len(lib.CollectionFiles) == 0 {
			return nil, fmt.Errorf("library %q lists no collection files", name)
		}
		merged, warnings, err := loadLibrary(name, baseDir, lib.CollectionFiles)
		if err != nil {
			return nil, err
		}
		result.Libraries = append(result.Libraries, LibrarySpecs{Name: name, Collections: merged})
		result.Warnings = append(result.Warnings, warnings...)
	}
	return result, nil
}

func loadLibrary(library, baseDir string, files []fileRef) ([]CollectionSpec, []DuplicateWarning, error) {
	var merged []CollectionSpec
	var warnings []DuplicateWarning
	firstSource := map[string]string{}

	for _, ref := range files {
		if ref.File == "" {
			return nil, nil, fmt.Errorf("library %q has a collection file entry without a file path", library)
		}
		path := ref.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		specs, err := loadCollectionFile(path)
		if err != nil {
			return nil, nil, err
		}
		for _, spec := range specs {
			if first, seen := firstSource[spec.Name]; seen {
				warnings = append(warnings, DuplicateWarning{
					Library:    library,
					Collection: spec.Name,
					File:       path,
					FirstFile:  first,
				})
				continue
			}
			firstSource[spec.Name] = path
			merged = append(merged, spec)
		}
	}
	return merged, warnings, nil
}

func loadCollectionFile(path string) ([]CollectionSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read collection file %s: %w", path, err)
	}

	var doc collectionFileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse collection file %s: %w", path, err)
	}
	if len(doc.Collections) == 0 {
		return nil, fmt.Errorf("collection file %s declares no collections", path)
	}

	names := make([]string, 0, len(doc.Collections))
	for name := range doc.Collections {
		names = append(names, name)
	}
	sort.Strings(names)

	specs := make([]CollectionSpec, 0, len(names))
	for _, name := range names {
		block := doc.Collections[name]
		spec := CollectionSpec{
			Name:          name,
			Items:         block.Items,
			Sort:          block.Sort,
			Mode:          block.Mode,
			TitleSort:     block.TitleSort,
			ContentRating: block.ContentRating,
			Summary:       block.Summary,
			Poster:        block.Poster,
			Art:           block.Art,
			Source:        path,
		}
		if err := spec.validate(); err != nil {
			return nil, fmt.Errorf("collection file %s: %w", path, err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

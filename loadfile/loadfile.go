// Package loadfile loads the context files a pipeline run references, such
// as the pipeline document itself and the engine configuration.
package loadfile

import (
	"fmt"
	"os"
	"path/filepath"
)

// ContextFile is a file whose absolute path and content need to be
// referenced during a run.
type ContextFile struct {
	ID           string
	AbsolutePath string
	Content      []byte
}

// FileCache is a container of ContextFiles rooted at a context directory.
// Relative file paths are resolved against the root directory.
type FileCache interface {
	RootDir() string
	LoadContext() error
	GetByKey(fileKey string) (*ContextFile, bool)
	ContentByKey(fileKey string) []byte
	Contents() map[string][]byte
}

type fileCache struct {
	rootDir string
	files   map[string]ContextFile
}

// NewFileCacheUsingContext creates a mapping of files to their absolute
// paths. rootDir is the context directory the files are resolved in; files
// maps file keys to relative or absolute file paths. Contents are not read
// until LoadContext is called.
func NewFileCacheUsingContext(rootDir string, files map[string]string) (FileCache, error) {
	absDir, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("error determining context directory absolute path %s (%w)", rootDir, err)
	}
	contextFiles := map[string]ContextFile{}
	for key, f := range files {
		abspath := f
		if !filepath.IsAbs(f) {
			abspath = filepath.Join(absDir, f)
		}
		contextFiles[key] = ContextFile{
			ID:           f,
			AbsolutePath: abspath,
		}
	}
	return &fileCache{
		rootDir: absDir,
		files:   contextFiles,
	}, nil
}

// LoadContext reads the content of each context file into Content.
func (fc *fileCache) LoadContext() error {
	result := map[string]ContextFile{}
	for key, cf := range fc.files {
		absPath := cf.AbsolutePath
		fileData, err := os.ReadFile(filepath.Clean(absPath))
		if err != nil {
			return fmt.Errorf("error reading file %s (%w)", absPath, err)
		}
		result[key] = ContextFile{
			ID:           cf.ID,
			AbsolutePath: cf.AbsolutePath,
			Content:      fileData,
		}
	}
	fc.files = result
	return nil
}

// RootDir returns the context directory relative file paths are resolved
// against.
func (fc *fileCache) RootDir() string {
	return fc.rootDir
}

// GetByKey returns the context file for a file key, if present.
func (fc *fileCache) GetByKey(fileKey string) (*ContextFile, bool) {
	cf, ok := fc.files[fileKey]
	return &cf, ok
}

// ContentByKey returns the file content of a given file key, if it exists in
// the file cache, nil otherwise.
func (fc *fileCache) ContentByKey(fileKey string) []byte {
	cf, ok := fc.GetByKey(fileKey)
	if !ok {
		return nil
	}
	return cf.Content
}

// Contents returns a mapping of the file cache's file keys to file content.
func (fc *fileCache) Contents() map[string][]byte {
	result := map[string][]byte{}
	for key, f := range fc.files {
		result[key] = f.Content
	}
	return result
}

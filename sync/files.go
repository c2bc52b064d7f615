package sync

import (
	"bytes"
	"embed"
	"io/fs"
	"os"
	"path"
)

//go:embed mappings/*.yaml
var embeddedMappingFiles embed.FS

// DefaultMappings holds the settings compiled into the binary.
var DefaultMappings = EmbeddedMappings{Root: "mappings", Files: embeddedMappingFiles}

type MappingFile struct {
	Name   string
	Reader *bytes.Reader
	Length int
}

type EmbeddedMappings struct {
	Root  string
	Files EmbeddedFS
}

type EmbeddedFS interface {
	Open(name string) (fs.File, error)
	ReadDir(name string) ([]fs.DirEntry, error)
	ReadFile(name string) ([]byte, error)
}

func (em EmbeddedMappings) MustFindRootMappingFile(filename string) (MappingFile, error) {
	var result MappingFile
	name := path.Join(em.Root, filename)
	b, err := em.Files.ReadFile(name)
	if err == nil {
		result = newMappingFile(name, b)
	}
	return result, err
}

func (em EmbeddedMappings) MustFindDefaultsMappingFile() (MappingFile, error) {
	return em.MustFindRootMappingFile("defaults.yaml")
}

// ReadMappingFile reads an overlay settings file from disk.
func ReadMappingFile(name string) (MappingFile, error) {
	var result MappingFile
	b, err := os.ReadFile(name)
	if err == nil {
		result = newMappingFile(name, b)
	}
	return result, err
}

func newMappingFile(name string, b []byte) MappingFile {
	return MappingFile{
		Name:   name,
		Reader: bytes.NewReader(b),
		Length: len(b),
	}
}

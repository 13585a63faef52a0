package index

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/tickerlens/tickerlens/engine/domain"
)

// Collection artifacts. The index file is binary (header + float32 LE
// vectors); the other two are JSON arrays parallel to it.
const (
	indexFile     = "flat.index"
	documentsFile = "documents.json"
	metadataFile  = "metadata.json"
)

// indexMagic guards against loading a foreign or truncated file as vectors.
var indexMagic = [4]byte{'T', 'L', 'X', '1'}

type indexHeader struct {
	Magic [4]byte
	Dim   uint32
	Count uint64
}

// load reads the three artifacts into memory. A missing index file means a
// fresh collection; anything inconsistent is domain.ErrCorruptStore.
func (s *Store) load() error {
	raw, err := os.ReadFile(filepath.Join(s.dir, indexFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("index: read %s: %w", indexFile, err)
	}

	vectors, dim, err := decodeVectors(raw)
	if err != nil {
		return fmt.Errorf("index: decode %s: %w: %w", indexFile, domain.ErrCorruptStore, err)
	}

	var documents []string
	if err := readJSON(filepath.Join(s.dir, documentsFile), &documents); err != nil {
		return fmt.Errorf("index: read %s: %w: %w", documentsFile, domain.ErrCorruptStore, err)
	}
	var metadata []domain.VideoMetadata
	if err := readJSON(filepath.Join(s.dir, metadataFile), &metadata); err != nil {
		return fmt.Errorf("index: read %s: %w: %w", metadataFile, domain.ErrCorruptStore, err)
	}

	if len(documents) != len(vectors) || len(metadata) != len(vectors) {
		return fmt.Errorf("index: artifact lengths disagree (%d vectors, %d documents, %d metadata): %w",
			len(vectors), len(documents), len(metadata), domain.ErrCorruptStore)
	}

	s.vectors = vectors
	s.documents = documents
	s.metadata = metadata
	if dim > 0 {
		s.dim = dim
	}
	return nil
}

// saveLocked writes all three artifacts through staging files and renames
// them into place. Caller holds the write lock.
func (s *Store) saveLocked() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create collection dir: %w", err)
	}

	docs, err := json.Marshal(s.documents)
	if err != nil {
		return fmt.Errorf("marshal documents: %w", err)
	}
	metas, err := json.Marshal(s.metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	staged := []struct {
		name string
		data []byte
	}{
		{indexFile, encodeVectors(s.vectors, s.dim)},
		{documentsFile, docs},
		{metadataFile, metas},
	}

	// Stage everything first so a failed write never clobbers a live file.
	for _, f := range staged {
		if err := os.WriteFile(filepath.Join(s.dir, f.name+".staging"), f.data, 0o644); err != nil {
			return fmt.Errorf("stage %s: %w", f.name, err)
		}
	}
	for _, f := range staged {
		path := filepath.Join(s.dir, f.name)
		if err := os.Rename(path+".staging", path); err != nil {
			return fmt.Errorf("commit %s: %w", f.name, err)
		}
	}
	return nil
}

func (s *Store) removeArtifacts() error {
	for _, name := range []string{indexFile, documentsFile, metadataFile} {
		for _, suffix := range []string{"", ".staging"} {
			if err := os.Remove(filepath.Join(s.dir, name+suffix)); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
		}
	}
	return nil
}

func encodeVectors(vectors [][]float32, dim int) []byte {
	var buf bytes.Buffer
	hdr := indexHeader{Magic: indexMagic, Dim: uint32(dim), Count: uint64(len(vectors))}
	binary.Write(&buf, binary.LittleEndian, hdr)
	for _, v := range vectors {
		binary.Write(&buf, binary.LittleEndian, v)
	}
	return buf.Bytes()
}

func decodeVectors(raw []byte) ([][]float32, int, error) {
	r := bytes.NewReader(raw)
	var hdr indexHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, 0, fmt.Errorf("header: %w", err)
	}
	if hdr.Magic != indexMagic {
		return nil, 0, fmt.Errorf("bad magic %q", hdr.Magic[:])
	}
	if hdr.Dim == 0 && hdr.Count > 0 {
		return nil, 0, errors.New("zero dimension with nonzero count")
	}
	want := int(hdr.Count) * int(hdr.Dim) * 4
	if r.Len() != want {
		return nil, 0, fmt.Errorf("payload is %d bytes, want %d", r.Len(), want)
	}
	vectors := make([][]float32, hdr.Count)
	for i := range vectors {
		v := make([]float32, hdr.Dim)
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return nil, 0, fmt.Errorf("vector %d: %w", i, err)
		}
		vectors[i] = v
	}
	return vectors, int(hdr.Dim), nil
}

func readJSON(path string, out any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

package fs

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.trai.ch/evoke/internal/core/domain"
	"go.trai.ch/evoke/internal/core/ports"
	"go.trai.ch/zerr"
)

// DefaultMemoSize bounds the number of file digests a Hasher remembers.
const DefaultMemoSize = 8192

var _ ports.Hasher = (*Hasher)(nil)

// fileStamp is a remembered file digest, valid while size and mtime match.
type fileStamp struct {
	size    int64
	modTime time.Time
	sum     uint64
}

// Hasher computes xxhash digests of command inputs and outputs.
//
// A header is an input of every command that includes it, so file digests are
// memoized and reused while the file's size and modification time are unchanged.
type Hasher struct {
	memo *lru.Cache[string, fileStamp]
}

// NewHasher creates a Hasher remembering up to memoSize file digests.
func NewHasher(memoSize int) (*Hasher, error) {
	if memoSize <= 0 {
		memoSize = DefaultMemoSize
	}
	memo, err := lru.New[string, fileStamp](memoSize)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create hash memo")
	}
	return &Hasher{memo: memo}, nil
}

// ComputeFileHash computes the xxhash of a file's content.
func (h *Hasher) ComputeFileHash(path string) (uint64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to stat file"), "path", path)
	}
	if stamp, ok := h.memo.Get(path); ok && stamp.size == info.Size() && stamp.modTime.Equal(info.ModTime()) {
		return stamp.sum, nil
	}

	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to open file"), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	digest := xxhash.New()
	if _, err := io.Copy(digest, f); err != nil {
		return 0, zerr.With(zerr.Wrap(err, "failed to hash file content"), "path", path)
	}

	sum := digest.Sum64()
	h.memo.Add(path, fileStamp{size: info.Size(), modTime: info.ModTime(), sum: sum})
	return sum, nil
}

// ComputeInputHash hashes argv followed by the path and content of every input.
// Inputs are hashed in sorted order; a missing input is an error.
func (h *Hasher) ComputeInputHash(argv, inputs []string) (string, error) {
	digest := xxhash.New()

	for _, arg := range argv {
		_, _ = digest.WriteString(arg)
		_, _ = digest.Write([]byte{0})
	}
	_, _ = digest.Write([]byte{0}) // Section separator

	for _, path := range sorted(inputs) {
		if _, err := os.Stat(path); err != nil {
			return "", zerr.With(domain.ErrInputNotFound, "path", path)
		}
		if err := h.hashFile(path, digest); err != nil {
			return "", err
		}
	}

	return fmt.Sprintf("%016x", digest.Sum64()), nil
}

// ComputeOutputHash hashes the content of the given outputs in sorted order.
func (h *Hasher) ComputeOutputHash(outputs []string) (string, error) {
	digest := xxhash.New()

	for _, path := range sorted(outputs) {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return "", zerr.With(zerr.Wrap(err, "output file missing"), "path", path)
			}
			return "", zerr.With(zerr.Wrap(err, "failed to stat output file"), "path", path)
		}
		if err := h.hashFile(path, digest); err != nil {
			return "", err
		}
	}

	return fmt.Sprintf("%016x", digest.Sum64()), nil
}

func (h *Hasher) hashFile(path string, mainHasher io.Writer) error {
	_, _ = mainHasher.Write([]byte(path))
	_, _ = mainHasher.Write([]byte{0})

	sum, err := h.ComputeFileHash(path)
	if err != nil {
		return err
	}

	if err := binary.Write(mainHasher, binary.LittleEndian, sum); err != nil {
		return zerr.Wrap(err, "failed to write hash to digest")
	}
	return nil
}

func sorted(paths []string) []string {
	out := slices.Clone(paths)
	slices.Sort(out)
	return out
}

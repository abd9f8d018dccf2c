package annotrack

import (
	"context"
	"image"
	// Frame directories hold PNG or JPEG stills
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// FrameProvider returns decoded frames of a clip by stable integer index in
// [0, TotalFrames()). The tracking core does not care whether frames come from
// a live extraction pipeline or a pre-extracted archive.
type FrameProvider interface {
	TotalFrames() int
	GetFrame(ctx context.Context, frameIndex int) (image.Image, error)
}

// DirFrameProvider serves pre-extracted frames from a directory of image
// files, ordered by file name
type DirFrameProvider struct {
	paths []string
}

// NewDirFrameProvider scans dir for PNG/JPEG frames
func NewDirFrameProvider(dir string) (*DirFrameProvider, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "can't read frames directory %s", dir)
	}
	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".png", ".jpg", ".jpeg":
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	if len(paths) == 0 {
		return nil, errors.Errorf("no frame images found in %s", dir)
	}
	sort.Strings(paths)
	return &DirFrameProvider{paths: paths}, nil
}

// TotalFrames returns the number of frames in the directory
func (provider *DirFrameProvider) TotalFrames() int {
	return len(provider.paths)
}

// GetFrame decodes and returns the frame with the given index
func (provider *DirFrameProvider) GetFrame(ctx context.Context, frameIndex int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if frameIndex < 0 || frameIndex >= len(provider.paths) {
		return nil, errors.Errorf("frame index %d out of range [0, %d)", frameIndex, len(provider.paths))
	}
	file, err := os.Open(provider.paths[frameIndex])
	if err != nil {
		return nil, errors.Wrapf(err, "can't open frame %d", frameIndex)
	}
	defer file.Close()
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, errors.Wrapf(err, "can't decode frame %d (%s)", frameIndex, provider.paths[frameIndex])
	}
	return img, nil
}

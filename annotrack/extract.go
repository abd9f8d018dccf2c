package annotrack

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/cyclopcam/logs"
	"github.com/pkg/errors"
)

// FFmpegExtractor extracts still frames out of a video file using the ffmpeg
// binary, producing a directory a DirFrameProvider can serve from
type FFmpegExtractor struct {
	fps    int // 0 keeps the native frame rate
	format string
	log    logs.Log
}

// NewFFmpegExtractor creates an extractor. fps = 0 keeps every source frame,
// format is the still image format ("png" or "jpg").
func NewFFmpegExtractor(fps int, format string, logger logs.Log) *FFmpegExtractor {
	return &FFmpegExtractor{
		fps:    fps,
		format: format,
		log:    logger,
	}
}

// ExtractFrames runs ffmpeg over videoPath, writes numbered stills into
// outputDir and returns a frame provider over them
func (extractor *FFmpegExtractor) ExtractFrames(ctx context.Context, videoPath, outputDir string) (*DirFrameProvider, error) {
	pattern := filepath.Join(outputDir, fmt.Sprintf("frame_%%06d.%s", extractor.format))
	args := []string{"-i", videoPath}
	if extractor.fps > 0 {
		args = append(args, "-vf", fmt.Sprintf("fps=%d", extractor.fps))
	}
	args = append(args, "-y", pattern)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, errors.Wrapf(err, "ffmpeg failed: %s", string(output))
	}

	provider, err := NewDirFrameProvider(outputDir)
	if err != nil {
		return nil, errors.Wrap(err, "no frames extracted")
	}
	if extractor.log != nil {
		extractor.log.Infof("Extracted %v frames from %v into %v", provider.TotalFrames(), videoPath, outputDir)
	}
	return provider, nil
}

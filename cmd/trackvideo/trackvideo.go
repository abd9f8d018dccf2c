package main

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/LdDl/annotrack-go/annotrack"
	"github.com/akamensky/argparse"
	"github.com/cyclopcam/logs"
)

func check(err error) {
	if err != nil {
		panic(err)
	}
}

func main() {
	parser := argparse.NewParser("trackvideo", "Propagate bounding box annotations across video frames")
	input := parser.String("i", "input", &argparse.Options{Help: "Input video file (omit to reuse pre-extracted frames)", Required: false})
	framesDir := parser.String("f", "frames", &argparse.Options{Help: "Directory with extracted frames", Required: true})
	annotations := parser.String("a", "annotations", &argparse.Options{Help: "Input XML with ground truth annotations", Required: true})
	output := parser.String("o", "output", &argparse.Options{Help: "Output XML file", Required: true})
	renderDir := parser.String("r", "render", &argparse.Options{Help: "If set, write annotated PNG frames to this directory", Required: false, Default: ""})
	fps := parser.Int("", "fps", &argparse.Options{Help: "Frame extraction rate, 0 keeps the native rate", Required: false, Default: 0})
	predict := parser.Flag("p", "predict", &argparse.Options{Help: "Bridge short occlusions with a Kalman box predictor", Required: false})
	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	logger, _ := logs.NewLog()
	ctx := context.Background()

	var provider *annotrack.DirFrameProvider
	if *input != "" {
		extractor := annotrack.NewFFmpegExtractor(*fps, "png", logger)
		provider, err = extractor.ExtractFrames(ctx, *input, *framesDir)
		check(err)
	} else {
		provider, err = annotrack.NewDirFrameProvider(*framesDir)
		check(err)
	}

	annotFile, err := os.Open(*annotations)
	check(err)
	objects, err := annotrack.ImportXML(annotFile)
	annotFile.Close()
	check(err)

	config := annotrack.NewDefaultTrackerConfig()
	config.PredictOccluded = *predict
	tracker := annotrack.NewAnnotatedObjectsTrackerWithConfig(provider, config)
	tracker.SetLogger(logger)
	tracker.Objects = objects

	if *renderDir != "" {
		check(os.MkdirAll(*renderDir, 0775))
	}

	total := provider.TotalFrames()
	for i := 0; i < total; i++ {
		frame, err := tracker.GetFrameWithObjects(ctx, i)
		check(err)
		if *renderDir != "" {
			img := annotrack.DrawAnnotatedFrame(frame)
			file, err := os.Create(filepath.Join(*renderDir, fmt.Sprintf("frame_%06d.png", i)))
			check(err)
			check(png.Encode(file, img))
			check(file.Close())
		}
	}

	outFile, err := os.Create(*output)
	check(err)
	check(annotrack.ExportXML(outFile, tracker.Objects))
	check(outFile.Close())
	logger.Infof("Wrote annotations for %v objects across %v frames to %v", len(tracker.Objects), total, *output)
}

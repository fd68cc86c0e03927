// trackcheck: run the ball tracker over a still image or a video file and
// print what it sees. Useful for tuning color ranges against real footage.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/teslashibe/go-ballrunner/internal/log"
	"github.com/teslashibe/go-ballrunner/pkg/camera"
	"github.com/teslashibe/go-ballrunner/pkg/camera/capture"
	"github.com/teslashibe/go-ballrunner/pkg/debug"
	"github.com/teslashibe/go-ballrunner/pkg/tracking"
)

func main() {
	imagePath := flag.String("image", "", "Still image (JPEG or PNG)")
	videoPath := flag.String("video", "", "Video file (decoded with ffmpeg)")
	fps := flag.Int("fps", 30, "Decode rate for -video")
	preset := flag.String("preset", "default", "Tracker preset: default, distance, responsive")
	smoothing := flag.String("smoothing", "", "Override smoothing: ema or kalman")
	preview := flag.String("preview", "", "Write an annotated JPEG of the last frame here")
	quiet := flag.Bool("quiet", false, "Only print the summary")
	debugTracking := flag.Bool("debug-tracking", false, "Log every tracking cycle")
	flag.Parse()

	level := "info"
	if *debugTracking {
		level = "debug"
	}
	log.Init(level, "text")
	debug.Tracking = *debugTracking

	if (*imagePath == "") == (*videoPath == "") {
		fmt.Fprintln(os.Stderr, "Usage: trackcheck -image ball.jpg | -video run.mp4 [-preset distance]")
		os.Exit(2)
	}

	cfg, ok := tracking.Preset(*preset)
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown preset %q\n", *preset)
		os.Exit(2)
	}
	if *smoothing != "" {
		cfg.Smoothing = tracking.SmoothingMode(*smoothing)
	}

	tracker, err := tracking.NewTracker(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	src, err := openSource(*imagePath, *videoPath, *fps)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer src.Close()

	r := &report{quiet: *quiet, previewPath: *preview}
	if err := r.run(tracker, src, *imagePath != ""); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	r.summary(tracker.Stats())
}

func openSource(imagePath, videoPath string, fps int) (camera.Source, error) {
	if imagePath != "" {
		f, err := os.Open(imagePath)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		img, _, err := image.Decode(f)
		if err != nil {
			return nil, errors.Wrapf(err, "decode %s", imagePath)
		}
		return camera.NewStillSource(img), nil
	}

	if info, err := camera.ProbeVideo(videoPath); err == nil {
		fmt.Printf("📹 %s: %dx%d @ %.2f fps\n", videoPath, info.Width, info.Height, info.FPS)
	}
	return camera.NewVideoFileSource(context.Background(), videoPath, fps)
}

type report struct {
	quiet       bool
	previewPath string

	frames   int
	detected int
	lastRes  tracking.DetectionResult
	last     tracking.Frame
	fps      float64
}

func (r *report) run(tracker *tracking.Tracker, src camera.Source, single bool) error {
	for {
		frame, err := src.Next(context.Background())
		if errors.Is(err, io.EOF) {
			return r.writePreview()
		}
		if err != nil {
			return err
		}

		res := tracker.Track(frame)
		r.frames++
		if res.Detected {
			r.detected++
		}
		if !r.quiet {
			r.print(res)
		}

		if c, ok := r.last.(io.Closer); ok {
			c.Close()
		}
		r.last, r.lastRes = frame, res
		r.fps = tracker.Stats().FPS

		if single {
			return r.writePreview()
		}
	}
}

func (r *report) print(res tracking.DetectionResult) {
	if !res.Detected {
		fmt.Printf("%5d  ·  no ball\n", r.frames)
		return
	}
	fmt.Printf("%5d  🟠 x=%.3f y=%.3f  %3.0fx%-3.0f conf=%.2f\n",
		r.frames, res.X, res.Y, res.Width, res.Height, res.Confidence)
}

func (r *report) writePreview() error {
	if r.previewPath == "" || r.last == nil {
		return nil
	}
	w, h := r.last.Size()
	data, err := capture.Preview(r.last, r.lastRes, r.fps, w, h, 85)
	if err != nil {
		return errors.Wrap(err, "render preview")
	}
	if err := os.WriteFile(r.previewPath, data, 0644); err != nil {
		return err
	}
	fmt.Printf("🖼  Preview written to %s\n", r.previewPath)
	return nil
}

func (r *report) summary(stats tracking.Stats) {
	rate := 0.0
	if r.frames > 0 {
		rate = 100 * float64(r.detected) / float64(r.frames)
	}
	fmt.Println()
	fmt.Printf("Frames:    %d\n", r.frames)
	fmt.Printf("Detected:  %d (%.1f%%)\n", r.detected, rate)
	fmt.Printf("Cycle:     %v (%.0f/s)\n", stats.LastCycle.Round(time.Microsecond), stats.FPS)
}

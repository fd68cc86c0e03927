package camera

import (
	"bufio"
	"context"
	"encoding/json"
	"image/png"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/teslashibe/go-ballrunner/internal/log"
	"github.com/teslashibe/go-ballrunner/pkg/tracking"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// VideoFileSource decodes recorded footage into frames with ffmpeg.
// Frames are streamed as PNG over a pipe and handed out in order.
type VideoFileSource struct {
	path   string
	frames chan tracking.Frame
	cancel context.CancelFunc

	mu  sync.Mutex
	err error // terminal decode error, io.EOF at end of file

	done chan struct{}
}

// VideoInfo is the subset of ffprobe output the file source cares about.
type VideoInfo struct {
	Width  int
	Height int
	FPS    float64
}

// NewVideoFileSource starts decoding path at fps frames per second.
// Decoding stops when ctx is cancelled or Close is called.
func NewVideoFileSource(ctx context.Context, path string, fps int) (*VideoFileSource, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrap(err, "open video")
	}
	if fps <= 0 {
		fps = 30
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &VideoFileSource{
		path:   path,
		frames: make(chan tracking.Frame, 1),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	r, w := io.Pipe()
	cmd := ffmpeg.Input(path).
		Output("pipe:1", ffmpeg.KwArgs{
			"format": "image2pipe",
			"vcodec": "png",
			"r":      strconv.Itoa(fps),
		}).
		WithOutput(w).
		WithErrorOutput(io.Discard)
	cmd.Context = ctx

	go func() {
		err := cmd.Run()
		if err != nil && ctx.Err() == nil {
			log.Warn("ffmpeg exited", "path", path, "err", err)
		}
		w.CloseWithError(err)
	}()

	go s.decode(ctx, r)

	log.Info("video file source started", "path", path, "fps", fps)
	return s, nil
}

func (s *VideoFileSource) decode(ctx context.Context, r *io.PipeReader) {
	defer close(s.done)
	defer r.Close()

	reader := bufio.NewReader(r)
	for index := 0; ; index++ {
		img, err := png.Decode(reader)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) && index > 0 {
				err = io.EOF
			} else {
				err = errors.Wrapf(err, "decode frame %d", index)
			}
			s.setErr(err)
			return
		}

		select {
		case s.frames <- tracking.NewImageFrame(img):
		case <-ctx.Done():
			s.setErr(ErrClosed)
			return
		}
	}
}

func (s *VideoFileSource) setErr(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
}

// Next returns the next decoded frame, or io.EOF once the file is exhausted.
func (s *VideoFileSource) Next(ctx context.Context) (tracking.Frame, error) {
	select {
	case f := <-s.frames:
		return f, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		// Drain a frame that raced with the end of decoding
		select {
		case f := <-s.frames:
			return f, nil
		default:
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		return nil, s.err
	}
}

// Close stops ffmpeg and waits for the decoder to exit.
func (s *VideoFileSource) Close() error {
	s.cancel()
	<-s.done
	return nil
}

// ProbeVideo reads stream dimensions and frame rate with ffprobe.
func ProbeVideo(path string) (VideoInfo, error) {
	out, err := ffmpeg.Probe(path)
	if err != nil {
		return VideoInfo{}, errors.Wrap(err, "ffprobe")
	}
	return parseProbe(out)
}

type probeOutput struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		AvgFrameRate string `json:"avg_frame_rate"`
	} `json:"streams"`
}

func parseProbe(out string) (VideoInfo, error) {
	var probe probeOutput
	if err := json.Unmarshal([]byte(out), &probe); err != nil {
		return VideoInfo{}, errors.Wrap(err, "parse ffprobe output")
	}

	for _, stream := range probe.Streams {
		if stream.CodecType != "video" {
			continue
		}
		return VideoInfo{
			Width:  stream.Width,
			Height: stream.Height,
			FPS:    parseRate(stream.AvgFrameRate),
		}, nil
	}
	return VideoInfo{}, errors.New("no video stream found")
}

// parseRate turns "30000/1001" into 29.97. Unknown rates are 0.
func parseRate(rate string) float64 {
	num, den, ok := strings.Cut(rate, "/")
	if !ok {
		f, _ := strconv.ParseFloat(rate, 64)
		return f
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}

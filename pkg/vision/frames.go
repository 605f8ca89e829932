// Package vision extracts representative frames from video files so
// they can be sent to an image-capable model for analysis.
package vision

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Sampler pulls evenly spaced frames out of a video.
type Sampler struct {
	// MaxFrames caps how many frames are extracted. Defaults to 8.
	MaxFrames int

	// JPEGQuality for encoded frames, 1-100. Defaults to 85.
	JPEGQuality int
}

func (s Sampler) withDefaults() Sampler {
	if s.MaxFrames <= 0 {
		s.MaxFrames = 8
	}
	if s.JPEGQuality <= 0 || s.JPEGQuality > 100 {
		s.JPEGQuality = 85
	}
	return s
}

// SampleFile opens the video at path and returns up to MaxFrames JPEG
// frames, evenly spaced across its duration and in temporal order.
func (s Sampler) SampleFile(path string) ([][]byte, error) {
	s = s.withDefaults()

	cap, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("vision: open video: %w", err)
	}
	defer cap.Close()

	total := int(cap.Get(gocv.VideoCaptureFrameCount))
	if total <= 0 {
		return nil, fmt.Errorf("vision: video has no frames")
	}
	indices := sampleIndices(total, s.MaxFrames)

	img := gocv.NewMat()
	defer img.Close()

	frames := make([][]byte, 0, len(indices))
	for _, idx := range indices {
		cap.Set(gocv.VideoCapturePosFrames, float64(idx))
		if ok := cap.Read(&img); !ok || img.Empty() {
			continue
		}
		buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, img,
			[]int{gocv.IMWriteJpegQuality, s.JPEGQuality})
		if err != nil {
			return nil, fmt.Errorf("vision: encode frame %d: %w", idx, err)
		}
		frames = append(frames, append([]byte(nil), buf.GetBytes()...))
		buf.Close()
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("vision: no readable frames")
	}
	return frames, nil
}

// sampleIndices picks n frame indices evenly spaced over total frames,
// always including the first frame. Returns fewer than n when the video
// is shorter than n frames.
func sampleIndices(total, n int) []int {
	if total <= 0 || n <= 0 {
		return nil
	}
	if n >= total {
		out := make([]int, total)
		for i := range out {
			out[i] = i
		}
		return out
	}
	out := make([]int, 0, n)
	step := float64(total) / float64(n)
	for i := 0; i < n; i++ {
		out = append(out, int(float64(i)*step))
	}
	return out
}

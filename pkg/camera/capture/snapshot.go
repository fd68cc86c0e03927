package capture

import (
	"context"
	"net/http"

	"github.com/teslashibe/go-ballrunner/internal/httpc"
	"github.com/teslashibe/go-ballrunner/pkg/tracking"
	"github.com/teslashibe/go-ballrunner/pkg/video"
)

// SnapshotSource polls an HTTP endpoint that returns one JPEG per request,
// as phone webcam apps and IP cameras do.
type SnapshotSource struct {
	url    string
	client *http.Client
}

// NewSnapshotSource creates a source for url. A nil client uses httpc.Client.
func NewSnapshotSource(url string, client *http.Client) *SnapshotSource {
	if client == nil {
		client = httpc.Client
	}
	return &SnapshotSource{url: url, client: client}
}

// Next fetches and decodes one snapshot. Blank frames are rejected.
func (s *SnapshotSource) Next(ctx context.Context) (tracking.Frame, error) {
	data, err := httpc.Fetch(ctx, s.client, s.url)
	if err != nil {
		return nil, err
	}
	if video.IsBlankJPEG(data) {
		return nil, video.ErrBlankFrame
	}
	return DecodeJPEG(data)
}

// Close is a no-op; connections are pooled by the client.
func (s *SnapshotSource) Close() error { return nil }

package http

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRange(t *testing.T) {
	cases := []struct {
		name     string
		header   string
		fileSize int64
		start    int64
		end      int64
		ok       bool
	}{
		{name: "closed range", header: "bytes=100-199", fileSize: 1000, start: 100, end: 199, ok: true},
		{name: "open end", header: "bytes=500-", fileSize: 1000, start: 500, end: 999, ok: true},
		{name: "end past file clamps", header: "bytes=900-5000", fileSize: 1000, start: 900, end: 999, ok: true},
		{name: "single byte", header: "bytes=0-0", fileSize: 1000, start: 0, end: 0, ok: true},
		{name: "start at size", header: "bytes=1000-", fileSize: 1000, ok: false},
		{name: "start past size", header: "bytes=5000-6000", fileSize: 1000, ok: false},
		{name: "inverted", header: "bytes=200-100", fileSize: 1000, ok: false},
		{name: "missing prefix", header: "100-199", fileSize: 1000, ok: false},
		{name: "no dash", header: "bytes=100", fileSize: 1000, ok: false},
		{name: "garbage start", header: "bytes=abc-199", fileSize: 1000, ok: false},
		{name: "garbage end", header: "bytes=100-xyz", fileSize: 1000, ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start, end, ok := parseRange(tc.header, tc.fileSize)
			require.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.start, start)
				assert.Equal(t, tc.end, end)
			}
		})
	}
}

func writeArtifact(t *testing.T, size int) string {
	t.Helper()

	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	path := filepath.Join(t.TempDir(), "converted.mp4")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestStreamFile_FullBody(t *testing.T) {
	path := writeArtifact(t, 1000)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/video", nil)
	streamFile(rr, req, path, "video/mp4")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "bytes", rr.Header().Get("Accept-Ranges"))
	assert.Equal(t, "video/mp4", rr.Header().Get("Content-Type"))
	assert.Equal(t, "1000", rr.Header().Get("Content-Length"))
	assert.Len(t, rr.Body.Bytes(), 1000)
}

func TestStreamFile_PartialContent(t *testing.T) {
	path := writeArtifact(t, 1000)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/video", nil)
	req.Header.Set("Range", "bytes=100-199")
	streamFile(rr, req, path, "video/mp4")

	require.Equal(t, http.StatusPartialContent, rr.Code)
	assert.Equal(t, "bytes 100-199/1000", rr.Header().Get("Content-Range"))
	assert.Equal(t, "100", rr.Header().Get("Content-Length"))

	body := rr.Body.Bytes()
	require.Len(t, body, 100)
	assert.Equal(t, byte(100%251), body[0])
	assert.Equal(t, byte(199%251), body[99])
}

func TestStreamFile_OpenEndedRange(t *testing.T) {
	path := writeArtifact(t, 1000)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/video", nil)
	req.Header.Set("Range", "bytes=950-")
	streamFile(rr, req, path, "video/mp4")

	require.Equal(t, http.StatusPartialContent, rr.Code)
	assert.Equal(t, "bytes 950-999/1000", rr.Header().Get("Content-Range"))
	assert.Len(t, rr.Body.Bytes(), 50)
}

func TestStreamFile_UnsatisfiableRange(t *testing.T) {
	path := writeArtifact(t, 1000)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/video", nil)
	req.Header.Set("Range", "bytes=2000-3000")
	streamFile(rr, req, path, "video/mp4")

	require.Equal(t, http.StatusRequestedRangeNotSatisfiable, rr.Code)
	assert.Equal(t, "bytes */1000", rr.Header().Get("Content-Range"))
}

func TestStreamFile_MissingFile(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/video", nil)
	streamFile(rr, req, filepath.Join(t.TempDir(), "gone.mp4"), "video/mp4")

	require.Equal(t, http.StatusNotFound, rr.Code)
}

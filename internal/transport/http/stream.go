package http

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
)

// streamFile serves a finished artifact with byte-range support so
// players can seek. Content is copied in fixed-size chunks, never
// loaded whole.
func streamFile(w http.ResponseWriter, r *http.Request, fullPath, contentType string) {
	file, err := os.Open(fullPath)
	if err != nil {
		http.Error(w, "Video not found", http.StatusNotFound)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	fileSize := info.Size()
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", contentType)

	rangeHeader := r.Header.Get("Range")
	if rangeHeader == "" {
		w.Header().Set("Content-Length", strconv.FormatInt(fileSize, 10))
		w.WriteHeader(http.StatusOK)
		_, _ = io.Copy(w, file)
		return
	}

	start, end, ok := parseRange(rangeHeader, fileSize)
	if !ok {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", fileSize))
		http.Error(w, "Invalid range", http.StatusRequestedRangeNotSatisfiable)
		return
	}

	contentLength := end - start + 1
	w.Header().Set("Content-Length", strconv.FormatInt(contentLength, 10))
	w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, fileSize))
	w.WriteHeader(http.StatusPartialContent)
	_, _ = file.Seek(start, io.SeekStart)
	_, _ = io.CopyN(w, file, contentLength)
}

// parseRange reads a "bytes=start-end" header where end is optional.
func parseRange(header string, fileSize int64) (start, end int64, ok bool) {
	spec, found := strings.CutPrefix(header, "bytes=")
	if !found {
		return 0, 0, false
	}

	from, to, found := strings.Cut(spec, "-")
	if !found {
		return 0, 0, false
	}

	start, err := strconv.ParseInt(strings.TrimSpace(from), 10, 64)
	if err != nil || start < 0 || start >= fileSize {
		return 0, 0, false
	}

	end = fileSize - 1
	if trimmed := strings.TrimSpace(to); trimmed != "" {
		end, err = strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return 0, 0, false
		}
		if end >= fileSize {
			end = fileSize - 1
		}
	}

	if start > end {
		return 0, 0, false
	}
	return start, end, true
}

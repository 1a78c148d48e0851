// Package mjpeg serves live preview frames over multipart/x-mixed-replace.
// The pipeline pushes encoded JPEGs; browsers poll the preview endpoint.
package mjpeg

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"
)

type Publisher struct {
	jpegMutex   sync.RWMutex
	latestJPEG  map[string][]byte
	frameNotify map[string]chan struct{}
	notifyMutex sync.RWMutex
}

func NewPublisher() *Publisher {
	return &Publisher{
		latestJPEG:  make(map[string][]byte),
		frameNotify: make(map[string]chan struct{}),
	}
}

// PublishFrame stores the latest annotated JPEG for a session and wakes any
// connected preview streamers. The slice is retained; callers must not reuse
// the buffer.
func (p *Publisher) PublishFrame(sessionID string, jpeg []byte) {
	if len(jpeg) == 0 {
		return
	}

	p.jpegMutex.Lock()
	p.latestJPEG[sessionID] = jpeg
	p.jpegMutex.Unlock()

	p.notifyStreamers(sessionID)
}

// RemoveSession drops cached frames once a session is deleted.
func (p *Publisher) RemoveSession(sessionID string) {
	p.jpegMutex.Lock()
	delete(p.latestJPEG, sessionID)
	p.jpegMutex.Unlock()
}

func (p *Publisher) notifyStreamers(sessionID string) {
	// The send must stay under the read lock: cleanupNotifyChannel closes the
	// channel under the write lock, and a send racing that close would panic.
	p.notifyMutex.RLock()
	defer p.notifyMutex.RUnlock()

	if notify, exists := p.frameNotify[sessionID]; exists {
		select {
		case notify <- struct{}{}:
		default:
		}
	}
}

func (p *Publisher) getOrCreateNotifyChannel(sessionID string) chan struct{} {
	p.notifyMutex.Lock()
	defer p.notifyMutex.Unlock()

	notify, exists := p.frameNotify[sessionID]
	if !exists {
		notify = make(chan struct{}, 5)
		p.frameNotify[sessionID] = notify
	}
	return notify
}

func (p *Publisher) cleanupNotifyChannel(sessionID string) {
	p.notifyMutex.Lock()
	defer p.notifyMutex.Unlock()

	if notify, exists := p.frameNotify[sessionID]; exists {
		close(notify)
		delete(p.frameNotify, sessionID)
	}
}

// StreamMJPEGHTTP writes a multipart JPEG stream for one session until the
// client disconnects. A placeholder frame is served before the pipeline has
// produced anything, and a keepalive tick re-sends the latest frame so slow
// sources do not stall proxies.
func (p *Publisher) StreamMJPEGHTTP(w http.ResponseWriter, r *http.Request, sessionID string) {
	boundary := "frame"
	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary="+boundary)
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	notify := p.getOrCreateNotifyChannel(sessionID)
	defer p.cleanupNotifyChannel(sessionID)

	writePart := func(jpeg []byte) bool {
		if _, err := io.WriteString(w, "--"+boundary+"\r\n"); err != nil {
			return false
		}
		if _, err := io.WriteString(w, "Content-Type: image/jpeg\r\n"); err != nil {
			return false
		}
		if _, err := io.WriteString(w, fmt.Sprintf("Content-Length: %d\r\n\r\n", len(jpeg))); err != nil {
			return false
		}
		if _, err := w.Write(jpeg); err != nil {
			return false
		}
		if _, err := io.WriteString(w, "\r\n"); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	p.jpegMutex.RLock()
	first, ok := p.latestJPEG[sessionID]
	p.jpegMutex.RUnlock()
	if !ok || len(first) == 0 {
		first = placeholderJPEG(sessionID)
	}
	if len(first) > 0 {
		if !writePart(first) {
			return
		}
	}

	keepaliveTicker := time.NewTicker(2 * time.Second)
	defer keepaliveTicker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-notify:
			p.jpegMutex.RLock()
			buf, ok := p.latestJPEG[sessionID]
			p.jpegMutex.RUnlock()
			if ok && len(buf) > 0 {
				if !writePart(buf) {
					return
				}
			}
		case <-keepaliveTicker.C:
			p.jpegMutex.RLock()
			buf, ok := p.latestJPEG[sessionID]
			p.jpegMutex.RUnlock()
			if ok && len(buf) > 0 {
				if !writePart(buf) {
					return
				}
			}
		}
	}
}

func placeholderJPEG(sessionID string) []byte {
	placeholder := gocv.NewMatWithSize(360, 640, gocv.MatTypeCV8UC3)
	defer placeholder.Close()

	placeholder.SetTo(gocv.Scalar{Val1: 64, Val2: 64, Val3: 64, Val4: 0})

	textColor := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	gocv.PutText(&placeholder, fmt.Sprintf("Session: %s", sessionID),
		image.Pt(20, 180), gocv.FontHersheySimplex, 0.8, textColor, 2)
	gocv.PutText(&placeholder, "Waiting for frames...",
		image.Pt(20, 220), gocv.FontHersheySimplex, 0.8, textColor, 2)

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, placeholder, []int{gocv.IMWriteJpegQuality, 90})
	if err != nil {
		return nil
	}
	defer buf.Close()

	b := buf.GetBytes()
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

func (p *Publisher) Shutdown() {
	log.Info().Msg("MJPEG publisher shutting down")
}

package renderer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/achilleasa/spheretrace/scene"
	"github.com/gorilla/websocket"
)

// Maximum number of pending camera commands received from stream clients.
const streamCommandQueueSize = 16

const streamViewerPage = `<!DOCTYPE html>
<html>
<head><title>spheretrace</title></head>
<body style="margin:0;background:#000">
<img id="frame" style="display:block;margin:auto">
<script>
var ws = new WebSocket("ws://" + location.host + "/stream");
ws.binaryType = "blob";
ws.onmessage = function(ev) {
	var img = document.getElementById("frame");
	URL.revokeObjectURL(img.src);
	img.src = URL.createObjectURL(ev.data);
};
document.onkeydown = function(ev) {
	if (ev.key == "ArrowLeft") ws.send(JSON.stringify({orbit: -0.05}));
	if (ev.key == "ArrowRight") ws.send(JSON.stringify({orbit: 0.05}));
};
</script>
</body>
</html>
`

// A camera command sent by a stream client.
type streamCommand struct {
	Orbit float32 `json:"orbit"`
}

// A renderer that streams the accumulating frame as PNG images to websocket
// clients. Rendering happens on the goroutine that invokes Render; client
// connections only receive encoded frames and queue camera commands.
type streamRenderer struct {
	ctx      context.Context
	addr     string
	pipeline *Pipeline
	camera   *scene.Camera
	light    Light
	surface  *MemorySurface
	exposure float32

	// Push a frame every pushEvery samples.
	pushEvery       uint32
	convergedPushed bool

	upgrader     websocket.Upgrader
	clientsMutex sync.RWMutex
	clients      map[*websocket.Conn]*sync.Mutex
	lastFrame    []byte

	commands chan streamCommand
}

// Create a renderer that serves the accumulating frame on addr until ctx is
// cancelled. Clients connect to the /stream websocket endpoint; a minimal
// viewer is served at /.
func NewStreamRenderer(ctx context.Context, addr string, pipeline *Pipeline, camera *scene.Camera, light Light, opts Options, pushEvery uint32) Renderer {
	if pushEvery == 0 {
		pushEvery = 1
	}
	return &streamRenderer{
		ctx:       ctx,
		addr:      addr,
		pipeline:  pipeline,
		camera:    camera,
		light:     light,
		surface:   NewMemorySurface(opts.FrameW, opts.FrameH),
		exposure:  opts.Exposure,
		pushEvery: pushEvery,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:  make(map[*websocket.Conn]*sync.Mutex),
		commands: make(chan streamCommand, streamCommandQueueSize),
	}
}

func (r *streamRenderer) Render() error {
	server := &http.Server{Addr: r.addr, Handler: r.Handler()}
	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()
	logger.Noticef("streaming frames on http://%s (websocket endpoint: /stream)", r.addr)

	for {
		select {
		case <-r.ctx.Done():
			return nil
		case err := <-serverErr:
			return fmt.Errorf("renderer: stream server failed: %w", err)
		case cmd := <-r.commands:
			r.applyCommand(cmd)
		default:
		}

		err := r.pipeline.RenderFrame(r.camera, r.light, r.surface)
		if err = handleFrameError(logger, err); err != nil {
			return err
		}

		if err = r.pushFrame(); err != nil {
			return err
		}

		if r.pipeline.Stats().Converged {
			// Nothing left to accumulate; idle until the camera moves
			select {
			case <-r.ctx.Done():
				return nil
			case cmd := <-r.commands:
				r.applyCommand(cmd)
			case <-time.After(100 * time.Millisecond):
			}
		}
	}
}

func (r *streamRenderer) applyCommand(cmd streamCommand) {
	if cmd.Orbit != 0 {
		r.camera.Orbit(cmd.Orbit)
	}
}

// Encode and broadcast the current frame if it is due.
func (r *streamRenderer) pushFrame() error {
	stats := r.pipeline.Stats()
	if stats.Converged {
		if r.convergedPushed {
			return nil
		}
		r.convergedPushed = true
	} else {
		r.convergedPushed = false
		if r.surface.SampleCount%r.pushEvery != 0 {
			return nil
		}
	}

	var buf bytes.Buffer
	if err := r.surface.EncodePNG(&buf, r.exposure); err != nil {
		return fmt.Errorf("renderer: could not encode frame: %w", err)
	}
	r.broadcast(buf.Bytes())
	return nil
}

// Get the http handler for the stream endpoints.
func (r *streamRenderer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/stream", r.handleStream)
	mux.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(streamViewerPage))
	})
	return mux
}

func (r *streamRenderer) handleStream(w http.ResponseWriter, req *http.Request) {
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		logger.Warningf("websocket upgrade error: %s", err.Error())
		return
	}
	defer conn.Close()

	connMutex := &sync.Mutex{}
	r.clientsMutex.Lock()
	r.clients[conn] = connMutex
	lastFrame := r.lastFrame
	r.clientsMutex.Unlock()
	defer func() {
		r.clientsMutex.Lock()
		delete(r.clients, conn)
		r.clientsMutex.Unlock()
	}()
	logger.Infof("stream client connected from %s", req.RemoteAddr)

	// Send the most recent frame so new clients do not wait for the next push
	if lastFrame != nil {
		connMutex.Lock()
		err = conn.WriteMessage(websocket.BinaryMessage, lastFrame)
		connMutex.Unlock()
		if err != nil {
			return
		}
	}

	for {
		var cmd streamCommand
		if err = conn.ReadJSON(&cmd); err != nil {
			logger.Infof("stream client %s disconnected", req.RemoteAddr)
			return
		}

		select {
		case r.commands <- cmd:
		default:
			logger.Warning("dropping stream command; queue is full")
		}
	}
}

// Send a frame to all connected clients. Clients that fail to receive it are
// disconnected.
func (r *streamRenderer) broadcast(frame []byte) {
	r.clientsMutex.RLock()
	clientsToRemove := []*websocket.Conn{}
	for client, mutex := range r.clients {
		mutex.Lock()
		err := client.WriteMessage(websocket.BinaryMessage, frame)
		mutex.Unlock()
		if err != nil {
			logger.Warningf("websocket write error: %s", err.Error())
			client.Close()
			clientsToRemove = append(clientsToRemove, client)
		}
	}
	r.clientsMutex.RUnlock()

	r.clientsMutex.Lock()
	r.lastFrame = frame
	for _, client := range clientsToRemove {
		delete(r.clients, client)
	}
	r.clientsMutex.Unlock()
}

func (r *streamRenderer) clientCount() int {
	r.clientsMutex.RLock()
	defer r.clientsMutex.RUnlock()
	return len(r.clients)
}

func (r *streamRenderer) Close() {
	r.clientsMutex.Lock()
	for client := range r.clients {
		client.Close()
	}
	r.clients = make(map[*websocket.Conn]*sync.Mutex)
	r.clientsMutex.Unlock()

	r.pipeline.Close()
}

func (r *streamRenderer) Stats() FrameStats {
	return r.pipeline.Stats()
}

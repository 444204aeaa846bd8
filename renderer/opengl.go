package renderer

import (
	"fmt"

	"github.com/achilleasa/spheretrace/scene"
	"github.com/achilleasa/spheretrace/tracer"
	"github.com/achilleasa/spheretrace/types"
	"github.com/go-gl/gl/v2.1/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

const (
	// Coefficients for converting delta cursor movements to yaw/pitch camera angles.
	mouseSensitivityX float32 = 0.005
	mouseSensitivityY float32 = 0.005

	// Orbit step in radians for the arrow keys.
	cameraOrbitStep float32 = 0.05
)

// An interactive opengl-based renderer. The renderer doubles as the
// presentation surface of the pipeline.
type interactiveGLRenderer struct {
	pipeline *Pipeline
	camera   *scene.Camera
	light    Light
	exposure float32

	// Scene regeneration requested via the keyboard; handled between
	// frames.
	sceneOpts  scene.Options
	regenerate bool

	// opengl handles
	window *glfw.Window
	tex    uint32
	texFbo uint32
	texW   uint32
	texH   uint32

	pixels []float32

	// state
	lastCursorPos types.Vec2
	mousePressed  bool
}

// Create a new interactive opengl renderer. It must be invoked from the
// main thread.
func NewInteractive(pipeline *Pipeline, camera *scene.Camera, light Light, sceneOpts scene.Options, opts Options) (Renderer, error) {
	r := &interactiveGLRenderer{
		pipeline:  pipeline,
		camera:    camera,
		light:     light,
		exposure:  opts.Exposure,
		sceneOpts: sceneOpts,
	}

	if err := r.initGL(opts); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

func (r *interactiveGLRenderer) Close() {
	if r.window != nil {
		r.window.Destroy()
		r.window = nil
		glfw.Terminate()
	}
	r.pipeline.Close()
}

func (r *interactiveGLRenderer) Stats() FrameStats {
	return r.pipeline.Stats()
}

func (r *interactiveGLRenderer) initGL(opts Options) error {
	var err error
	if err = glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize glfw: %s", err.Error())
	}

	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 2)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	r.window, err = glfw.CreateWindow(int(opts.FrameW), int(opts.FrameH), "spheretrace", nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("could not create opengl window: %s", err.Error())
	}
	r.window.MakeContextCurrent()

	if err = gl.Init(); err != nil {
		return fmt.Errorf("could not init opengl: %s", err.Error())
	}

	// Setup texture for image data and attach it to an FBO
	gl.GenTextures(1, &r.tex)
	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, r.tex)
	gl.GenFramebuffers(1, &r.texFbo)

	// Bind event callbacks
	r.window.SetInputMode(glfw.CursorMode, glfw.CursorNormal)
	r.window.SetKeyCallback(r.onKeyEvent)
	r.window.SetMouseButtonCallback(r.onMouseEvent)
	r.window.SetCursorPosCallback(r.onCursorPosEvent)
	r.window.SetFramebufferSizeCallback(r.onResize)

	return nil
}

func (r *interactiveGLRenderer) Render() error {
	for !r.window.ShouldClose() {
		glfw.PollEvents()

		if r.regenerate {
			r.regenerate = false
			r.sceneOpts.Seed++
			sc, err := scene.New(r.sceneOpts)
			if err != nil {
				return err
			}
			if err = r.pipeline.SetupScene(sc); err != nil {
				return err
			}
			logger.Noticef("generated scene with seed %d", r.sceneOpts.Seed)
		}

		err := r.pipeline.RenderFrame(r.camera, r.light, r)
		if err = handleFrameError(logger, err); err != nil {
			return err
		}

		// Nothing left to accumulate; wait for input instead of spinning
		if r.pipeline.Stats().Converged {
			glfw.WaitEventsTimeout(0.1)
		}
	}
	return nil
}

func (r *interactiveGLRenderer) Size() (uint32, uint32) {
	w, h := r.window.GetFramebufferSize()
	if w < 0 || h < 0 {
		return 0, 0
	}
	return uint32(w), uint32(h)
}

// Upload the accumulated image to the texture and blit it to the window.
func (r *interactiveGLRenderer) Present(img tracer.Image, sampleCount uint32) error {
	w, h := img.Width(), img.Height()
	if need := int(w * h * 4); len(r.pixels) != need {
		r.pixels = make([]float32, need)
	}
	if err := img.Read(r.pixels); err != nil {
		return err
	}
	frame := tonemap(r.pixels, w, h, r.exposure)

	gl.BindTexture(gl.TEXTURE_2D, r.tex)
	if w != r.texW || h != r.texH {
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(w), int32(h), 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
		gl.BindFramebuffer(gl.READ_FRAMEBUFFER, r.texFbo)
		gl.FramebufferTexture2D(gl.READ_FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, r.tex, 0)
		gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)
		r.texW, r.texH = w, h
	}
	gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(w), int32(h), gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(frame.Pix))

	// Image row 0 is the top of the frame; flip while blitting
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, r.texFbo)
	gl.BlitFramebuffer(0, 0, int32(w), int32(h), 0, int32(h), int32(w), 0, gl.COLOR_BUFFER_BIT, gl.LINEAR)
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, 0)

	r.window.SetTitle(fmt.Sprintf("spheretrace - %d spp", sampleCount))
	r.window.SwapBuffers()
	return nil
}

func (r *interactiveGLRenderer) onResize(w *glfw.Window, width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	r.camera.SetupProjection(float32(width) / float32(height))
	r.pipeline.Accumulator().Invalidate()
}

func (r *interactiveGLRenderer) onKeyEvent(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action != glfw.Press && action != glfw.Repeat {
		return
	}

	// Double speed if shift is pressed
	var speedScaler float32 = 1.0
	if (mods & glfw.ModShift) == glfw.ModShift {
		speedScaler = 2.0
	}

	switch key {
	case glfw.KeyEscape:
		r.window.SetShouldClose(true)
	case glfw.KeyLeft:
		r.camera.Orbit(-speedScaler * cameraOrbitStep)
	case glfw.KeyRight:
		r.camera.Orbit(speedScaler * cameraOrbitStep)
	case glfw.KeyR:
		r.regenerate = true
	}
}

func (r *interactiveGLRenderer) onMouseEvent(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mod glfw.ModifierKey) {
	if button != glfw.MouseButtonLeft {
		return
	}

	if action == glfw.Press {
		xPos, yPos := w.GetCursorPos()
		r.lastCursorPos[0], r.lastCursorPos[1] = float32(xPos), float32(yPos)
		r.mousePressed = true
	} else {
		r.mousePressed = false
	}
}

func (r *interactiveGLRenderer) onCursorPosEvent(w *glfw.Window, xPos, yPos float64) {
	if !r.mousePressed {
		return
	}

	// Calculate delta movement and apply mouse sensitivity
	newPos := types.XY(float32(xPos), float32(yPos))
	delta := r.lastCursorPos.Sub(newPos)
	delta[0] *= mouseSensitivityX
	delta[1] *= mouseSensitivityY
	r.lastCursorPos = newPos

	// The left mouse button rotates lookat around eye
	r.camera.Pitch = delta[1]
	r.camera.Yaw = delta[0]
	r.camera.Update()
}

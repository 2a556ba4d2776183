package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/spigell/retentioniq/internal/features"
)

const (
	defaultONNXInput  = "float_input"
	defaultONNXOutput = "probabilities"
	positiveClass     = 1
)

// ONNXClassifier runs a binary classifier exported with sklearn-onnx.
// The output tensor holds one probability per class.
type ONNXClassifier struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	arity   int

	// tensors are shared between calls
	mu sync.Mutex
}

// LoadONNXClassifier opens the graph at path. library may be empty, in which
// case the onnxruntime shared library is searched for.
func LoadONNXClassifier(path string, arity int, io ONNXIO, library string) (*ONNXClassifier, error) {
	if arity <= 0 {
		return nil, errors.New("onnx classifier needs a positive feature count")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("model file missing at %s: %w", path, err)
	}

	libPath := resolveSharedLibraryPath(library, filepath.Dir(path))
	if libPath == "" {
		return nil, errors.New("onnxruntime shared library not found; set model.onnx-library or ONNXRUNTIME_SHARED_LIBRARY_PATH")
	}
	if !ort.IsInitialized() {
		ort.SetSharedLibraryPath(libPath)
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("initialize onnxruntime: %w", err)
		}
	}

	inputName := strings.TrimSpace(io.Input)
	if inputName == "" {
		inputName = defaultONNXInput
	}
	outputName := strings.TrimSpace(io.Output)
	if outputName == "" {
		outputName = defaultONNXOutput
	}

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(arity)))
	if err != nil {
		return nil, fmt.Errorf("allocate input tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 2))
	if err != nil {
		input.Destroy()
		return nil, fmt.Errorf("allocate output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		path,
		[]string{inputName},
		[]string{outputName},
		[]ort.Value{input},
		[]ort.Value{output},
		nil,
	)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	return &ONNXClassifier{session: session, input: input, output: output, arity: arity}, nil
}

func (c *ONNXClassifier) Arity() int { return c.arity }

func (c *ONNXClassifier) Predict(v features.Vector) (float64, error) {
	if c == nil || c.session == nil {
		return 0, errors.New("onnx classifier is not initialized")
	}
	if len(v) != c.arity {
		return 0, fmt.Errorf("onnx classifier expects %d features, got %d", c.arity, len(v))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	data := c.input.GetData()
	for i, x := range v {
		data[i] = float32(x)
	}

	if err := c.session.Run(); err != nil {
		return 0, fmt.Errorf("onnx run: %w", err)
	}

	probs := c.output.GetData()
	if len(probs) <= positiveClass {
		return 0, fmt.Errorf("onnx output has %d classes", len(probs))
	}
	return float64(probs[positiveClass]), nil
}

// Close releases the session and its tensors.
func (c *ONNXClassifier) Close() error {
	if c == nil || c.session == nil {
		return nil
	}
	return errors.Join(c.session.Destroy(), c.input.Destroy(), c.output.Destroy())
}

// resolveSharedLibraryPath prefers the configured path, then
// ONNXRUNTIME_SHARED_LIBRARY_PATH, then common install locations.
func resolveSharedLibraryPath(configured, modelDir string) string {
	if configured = strings.TrimSpace(configured); configured != "" {
		return configured
	}
	if env := strings.TrimSpace(os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH")); env != "" {
		return env
	}

	names := []string{
		"libonnxruntime.so",
		"libonnxruntime.dylib",
		"onnxruntime.dll",
	}
	dirs := []string{
		modelDir,
		filepath.Join(modelDir, "lib"),
		"/usr/local/lib",
		"/usr/lib",
		"/opt/homebrew/lib",
	}

	for _, dir := range dirs {
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
	}
	return ""
}

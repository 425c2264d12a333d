package segmenter

import (
	"errors"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var ortInit sync.Mutex

// ONNXAssigner runs a KMeans graph exported with skl2onnx: float input [N, D],
// int64 label output [N] and float scores output [N, K].
type ONNXAssigner struct {
	mu       sync.Mutex
	session  *ort.AdvancedSession
	input    *ort.Tensor[float32]
	label    *ort.Tensor[int64]
	clusters int
}

var _ Assigner = (*ONNXAssigner)(nil)

// NewONNXAssigner initializes the runtime and binds pre-allocated tensors for a single row.
func NewONNXAssigner(cfg ModelConfig, dims int) (*ONNXAssigner, error) {
	if cfg.ONNXPath == "" {
		return nil, artifactError(ArtifactModel, "", errors.New("onnx model path is empty"))
	}
	if err := initORT(cfg.OrtLibrary); err != nil {
		return nil, artifactError(ArtifactModel, cfg.ONNXPath, err)
	}
	k := cfg.Clusters
	if k <= 0 {
		inferred, err := inferClusters(cfg)
		if err != nil {
			return nil, artifactError(ArtifactModel, cfg.ONNXPath, err)
		}
		k = inferred
	}
	input, err := ort.NewTensor(ort.NewShape(1, int64(dims)), make([]float32, dims))
	if err != nil {
		return nil, artifactError(ArtifactModel, cfg.ONNXPath, fmt.Errorf("create input tensor: %w", err))
	}
	label, err := ort.NewEmptyTensor[int64](ort.NewShape(1))
	if err != nil {
		input.Destroy()
		return nil, artifactError(ArtifactModel, cfg.ONNXPath, fmt.Errorf("create label tensor: %w", err))
	}
	session, err := ort.NewAdvancedSession(cfg.ONNXPath,
		[]string{cfg.InputName}, []string{cfg.LabelOutput},
		[]ort.Value{input}, []ort.Value{label}, nil)
	if err != nil {
		input.Destroy()
		label.Destroy()
		return nil, artifactError(ArtifactModel, cfg.ONNXPath, fmt.Errorf("create session: %w", err))
	}
	return &ONNXAssigner{session: session, input: input, label: label, clusters: k}, nil
}

func initORT(library string) error {
	ortInit.Lock()
	defer ortInit.Unlock()
	if ort.IsInitialized() {
		return nil
	}
	if library != "" {
		ort.SetSharedLibraryPath(library)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("initialize onnxruntime: %w", err)
	}
	return nil
}

// inferClusters reads K from the last dimension of the scores output.
func inferClusters(cfg ModelConfig) (int, error) {
	_, outputs, err := ort.GetInputOutputInfo(cfg.ONNXPath)
	if err != nil {
		return 0, fmt.Errorf("inspect model: %w", err)
	}
	for _, out := range outputs {
		if out.Name != cfg.ScoresOutput {
			continue
		}
		dims := out.Dimensions
		if len(dims) == 0 || dims[len(dims)-1] <= 0 {
			return 0, fmt.Errorf("output %q has no static cluster dimension; set model.clusters", out.Name)
		}
		return int(dims[len(dims)-1]), nil
	}
	return 0, fmt.Errorf("output %q not found; set model.clusters", cfg.ScoresOutput)
}

// Clusters returns K.
func (o *ONNXAssigner) Clusters() int {
	return o.clusters
}

// Assign runs the graph on one standardized row.
func (o *ONNXAssigner) Assign(scaled []float64) (ClusterID, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session == nil {
		return 0, errors.New("onnx session is closed")
	}
	buf := o.input.GetData()
	if len(scaled) != len(buf) {
		return 0, fmt.Errorf("model expects %d values, got %d", len(buf), len(scaled))
	}
	for i, v := range scaled {
		buf[i] = float32(v)
	}
	if err := o.session.Run(); err != nil {
		return 0, fmt.Errorf("run onnx session: %w", err)
	}
	id := o.label.GetData()[0]
	if id < 0 || int(id) >= o.clusters {
		return 0, fmt.Errorf("model returned cluster %d outside 0..%d", id, o.clusters-1)
	}
	return ClusterID(id), nil
}

// Close releases the session and tensors.
func (o *ONNXAssigner) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session == nil {
		return nil
	}
	err := errors.Join(o.session.Destroy(), o.input.Destroy(), o.label.Destroy())
	o.session = nil
	return err
}

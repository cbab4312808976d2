package ml

import (
	"bufio"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Mayank14211/Titanic-Survival-Predictor/internal/passenger"

	"github.com/rs/zerolog/log"
)

//go:embed sklearn_worker.py
var workerScript string

const pinnedModelName = "model.pkl"

type workerRequest struct {
	Op   string                    `json:"op"`
	Rows []passenger.FeatureVector `json:"rows,omitempty"`
}

type workerResponse struct {
	OK            bool      `json:"ok,omitempty"`
	Labels        []int     `json:"labels,omitempty"`
	Probabilities []float64 `json:"probabilities,omitempty"`
	Error         string    `json:"error,omitempty"`
	Unsupported   bool      `json:"unsupported,omitempty"`
}

// PythonPredictor serves predictions from a pickled scikit-learn pipeline held by
// a single long-lived Python process. Requests are serialized. The artifact is
// copied into the worker directory at construction, so a restarted worker loads
// the same bytes even if the file on disk changes.
type PythonPredictor struct {
	modelPath  string
	pinnedPath string
	pythonPath string
	scriptDir  string
	scriptPath string
	timeout    time.Duration

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
	stderr *tailBuffer
}

// NewPythonPredictor starts the worker and waits until the model is loaded.
// A missing artifact, missing interpreter or failed load is returned as an error.
func NewPythonPredictor(modelPath, pythonPath string, timeout time.Duration) (*PythonPredictor, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model artifact: %w", err)
	}

	if pythonPath == "" {
		var err error
		pythonPath, err = findPython()
		if err != nil {
			return nil, err
		}
	}

	scriptDir, err := os.MkdirTemp("", "titanic-worker-")
	if err != nil {
		return nil, fmt.Errorf("create worker dir: %w", err)
	}
	scriptPath := filepath.Join(scriptDir, "sklearn_worker.py")
	if err := createWorkerScript(scriptPath); err != nil {
		os.RemoveAll(scriptDir)
		return nil, fmt.Errorf("write worker script: %w", err)
	}
	pinnedPath := filepath.Join(scriptDir, pinnedModelName)
	if err := pinArtifact(modelPath, pinnedPath); err != nil {
		os.RemoveAll(scriptDir)
		return nil, fmt.Errorf("model artifact: %w", err)
	}

	p := &PythonPredictor{
		modelPath:  modelPath,
		pinnedPath: pinnedPath,
		pythonPath: pythonPath,
		scriptDir:  scriptDir,
		scriptPath: scriptPath,
		timeout:    timeout,
	}

	p.mu.Lock()
	err = p.startLocked()
	p.mu.Unlock()
	if err != nil {
		os.RemoveAll(scriptDir)
		return nil, err
	}

	log.Info().
		Str("model_path", modelPath).
		Str("python_path", pythonPath).
		Msg("Python model worker ready")

	return p, nil
}

// PredictLabels implements PredictorInterface.
func (p *PythonPredictor) PredictLabels(ctx context.Context, features []passenger.FeatureVector) ([]int, error) {
	resp, err := p.call(ctx, workerRequest{Op: "predict", Rows: features})
	if err != nil {
		return nil, err
	}
	return resp.Labels, nil
}

// PredictProbabilities implements PredictorInterface.
func (p *PythonPredictor) PredictProbabilities(ctx context.Context, features []passenger.FeatureVector) ([]float64, error) {
	resp, err := p.call(ctx, workerRequest{Op: "predict_proba", Rows: features})
	if err != nil {
		return nil, err
	}
	return resp.Probabilities, nil
}

// Close stops the worker and removes its script and pinned artifact.
func (p *PythonPredictor) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopLocked()
	return os.RemoveAll(p.scriptDir)
}

func (p *PythonPredictor) startLocked() error {
	cmd := exec.Command(p.pythonPath, "-u", p.scriptPath, p.pinnedPath)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("worker stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("worker stdout: %w", err)
	}
	stderr := &tailBuffer{limit: 4096}
	cmd.Stderr = stderr
	cmd.WaitDelay = time.Second

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start python worker: %w", err)
	}

	p.cmd = cmd
	p.stdin = stdin
	p.stdout = bufio.NewReader(stdout)
	p.stderr = stderr

	// The worker prints one status line once the artifact is loaded.
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if _, err := p.roundTripLocked(ctx, nil); err != nil {
		p.stopLocked()
		return fmt.Errorf("load model %s: %w", p.modelPath, err)
	}
	return nil
}

func (p *PythonPredictor) stopLocked() {
	if p.cmd == nil {
		return
	}
	p.stdin.Close()

	done := make(chan struct{})
	go func(cmd *exec.Cmd) {
		_ = cmd.Wait()
		close(done)
	}(p.cmd)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		_ = p.cmd.Process.Kill()
		<-done
	}

	p.cmd = nil
	p.stdin = nil
	p.stdout = nil
}

func (p *PythonPredictor) call(ctx context.Context, req workerRequest) (*workerResponse, error) {
	if p == nil {
		return nil, fmt.Errorf("predictor is nil")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cmd == nil {
		log.Warn().Str("model_path", p.modelPath).Msg("Python worker not running, restarting")
		if err := p.startLocked(); err != nil {
			return nil, err
		}
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	payload = append(payload, '\n')

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.roundTripLocked(ctx, payload)
	if err != nil {
		return nil, err
	}
	if resp.Error != "" {
		if resp.Unsupported {
			return nil, ErrProbabilitiesUnsupported
		}
		return nil, fmt.Errorf("python inference error: %s", resp.Error)
	}
	return resp, nil
}

// roundTripLocked writes payload (if any) and reads one response line. On
// timeout or a broken pipe the worker is stopped; the next call restarts it.
func (p *PythonPredictor) roundTripLocked(ctx context.Context, payload []byte) (*workerResponse, error) {
	type result struct {
		line []byte
		err  error
	}

	stdin, stdout := p.stdin, p.stdout
	done := make(chan result, 1)
	go func() {
		if payload != nil {
			if _, err := stdin.Write(payload); err != nil {
				done <- result{err: fmt.Errorf("write request: %w", err)}
				return
			}
		}
		line, err := stdout.ReadBytes('\n')
		done <- result{line: line, err: err}
	}()

	var res result
	select {
	case <-ctx.Done():
		log.Error().
			Str("model_path", p.modelPath).
			Dur("timeout", p.timeout).
			Msg("Python worker timed out")
		p.stopLocked()
		return nil, fmt.Errorf("prediction timeout after %v: %w", p.timeout, ctx.Err())
	case res = <-done:
	}

	if res.err != nil {
		// Wait flushes the stderr copy, so stop before reading it.
		p.stopLocked()
		stderr := p.stderr.String()
		if errors.Is(res.err, io.EOF) {
			return nil, fmt.Errorf("python worker exited, stderr: %s", stderr)
		}
		return nil, fmt.Errorf("python worker: %w, stderr: %s", res.err, stderr)
	}

	var resp workerResponse
	if err := json.Unmarshal(res.line, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w, stdout: %s", err, strings.TrimSpace(string(res.line)))
	}
	if payload == nil && resp.Error != "" {
		return nil, errors.New(resp.Error)
	}
	return &resp, nil
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func (b *tailBuffer) Write(data []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, data...)
	if over := len(b.buf) - b.limit; over > 0 {
		b.buf = b.buf[over:]
	}
	return len(data), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.TrimSpace(string(b.buf))
}

func findPython() (string, error) {
	var candidates []string

	if venvPath := os.Getenv("VIRTUAL_ENV"); venvPath != "" {
		candidates = append(candidates,
			filepath.Join(venvPath, "bin", "python3"),
			filepath.Join(venvPath, "bin", "python"),
			filepath.Join(venvPath, "Scripts", "python.exe"),
		)
	}
	for _, root := range []string{".", ".."} {
		candidates = append(candidates,
			filepath.Join(root, "venv", "bin", "python3"),
			filepath.Join(root, ".venv", "bin", "python3"),
		)
	}
	for _, name := range []string{"python3", "python"} {
		if path, err := exec.LookPath(name); err == nil {
			candidates = append(candidates, path)
		}
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		cmd := exec.Command(candidate, "-c", "import sklearn, pandas, numpy")
		if err := cmd.Run(); err == nil {
			log.Info().Str("python_path", candidate).Msg("Using Python interpreter")
			return candidate, nil
		}
	}

	return "", fmt.Errorf("no Python 3 interpreter with scikit-learn and pandas found; set PYTHON_PATH")
}

func createWorkerScript(scriptPath string) error {
	return os.WriteFile(scriptPath, []byte(workerScript), 0o755)
}

// pinArtifact snapshots the model file read at start-up.
func pinArtifact(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o600)
}

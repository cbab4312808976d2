package cfg

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Mayank14211/Titanic-Survival-Predictor/internal/common"

	"gopkg.in/yaml.v3"
)

type Settings struct {
	ListenAddr     string
	MaxUploadBytes int64
	ResultsDir     string
	DataPath       string
	RunHistory     int

	ModelBackend    string
	ModelPath       string
	PythonPath      string
	ModelTimeout    time.Duration
	RemoteURL       string
	ONNXLibPath     string
	ONNXInput       string
	ONNXLabelOutput string
	ONNXProbOutput  string

	PreviewRows int
	LogLevel    string
	LogConsole  bool
}

type ConfigFile struct {
	Server struct {
		ListenAddr     string `yaml:"listenAddr"`
		MaxUploadBytes int64  `yaml:"maxUploadBytes"`
	} `yaml:"server"`

	Storage struct {
		ResultsDir string `yaml:"resultsDir"`
		DataPath   string `yaml:"dataPath"`
		RunHistory int    `yaml:"runHistory"`
	} `yaml:"storage"`

	Model struct {
		Backend    string `yaml:"backend"`
		Path       string `yaml:"path"`
		PythonPath string `yaml:"pythonPath"`
		Timeout    string `yaml:"timeout"`
		RemoteURL  string `yaml:"remoteURL"`
		ONNX       struct {
			LibPath           string `yaml:"libPath"`
			Input             string `yaml:"input"`
			LabelOutput       string `yaml:"labelOutput"`
			ProbabilityOutput string `yaml:"probabilityOutput"`
		} `yaml:"onnx"`
	} `yaml:"model"`

	UI struct {
		PreviewRows int `yaml:"previewRows"`
	} `yaml:"ui"`

	Log struct {
		Level   string `yaml:"level"`
		Console *bool  `yaml:"console"`
	} `yaml:"log"`
}

// Load reads settings from the YAML file named by path, or by CONFIG_FILE when
// path is empty, and falls back to environment variables alone when neither is set.
// Environment variables always win over file values.
func Load(path string) (Settings, error) {
	if path == "" {
		path = os.Getenv(common.EnvConfigFile)
	}
	if path != "" {
		return loadFromYAML(path)
	}
	return loadFromEnv()
}

func loadFromYAML(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config ConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Settings{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	timeout := config.Model.Timeout
	if timeout == "" {
		timeout = common.DefaultModelTimeout
	}
	modelTimeout, err := time.ParseDuration(timeout)
	if err != nil {
		return Settings{}, fmt.Errorf("invalid model.timeout %q: %w", timeout, err)
	}

	console := true
	if config.Log.Console != nil {
		console = *config.Log.Console
	}

	settings := Settings{
		ListenAddr:      getEnvOrDefault(common.EnvListenAddr, orString(config.Server.ListenAddr, common.DefaultListenAddr)),
		MaxUploadBytes:  getInt64FromEnvOrConfig(common.EnvMaxUploadBytes, config.Server.MaxUploadBytes, common.DefaultMaxUploadBytes),
		ResultsDir:      getEnvOrDefault(common.EnvResultsDir, orString(config.Storage.ResultsDir, common.DefaultResultsDir)),
		DataPath:        getEnvOrDefault(common.EnvDataPath, orString(config.Storage.DataPath, common.DefaultDataPath)),
		RunHistory:      getIntFromEnvOrConfig(common.EnvRunHistory, config.Storage.RunHistory, common.DefaultRunHistory),
		ModelBackend:    strings.ToLower(getEnvOrDefault(common.EnvModelBackend, orString(config.Model.Backend, common.DefaultModelBackend))),
		ModelPath:       getEnvOrDefault(common.EnvModelPath, orString(config.Model.Path, common.DefaultModelPath)),
		PythonPath:      getEnvOrDefault(common.EnvPythonPath, config.Model.PythonPath),
		ModelTimeout:    getDurationOrDefault(common.EnvModelTimeout, modelTimeout),
		RemoteURL:       getEnvOrDefault(common.EnvModelRemoteURL, config.Model.RemoteURL),
		ONNXLibPath:     getEnvOrDefault(common.EnvONNXRuntimeLib, config.Model.ONNX.LibPath),
		ONNXInput:       getEnvOrDefault(common.EnvONNXInputName, orString(config.Model.ONNX.Input, common.DefaultONNXInputName)),
		ONNXLabelOutput: getEnvOrDefault(common.EnvONNXLabelOutput, orString(config.Model.ONNX.LabelOutput, common.DefaultONNXLabelOutput)),
		ONNXProbOutput:  getEnvOrDefault(common.EnvONNXProbOutput, orString(config.Model.ONNX.ProbabilityOutput, common.DefaultONNXProbOutput)),
		PreviewRows:     getIntFromEnvOrConfig(common.EnvPreviewRows, config.UI.PreviewRows, common.DefaultPreviewRows),
		LogLevel:        getEnvOrDefault(common.EnvLogLevel, orString(config.Log.Level, common.DefaultLogLevel)),
		LogConsole:      getBoolOrDefault(common.EnvLogConsole, console),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func loadFromEnv() (Settings, error) {
	defaultTimeout, _ := time.ParseDuration(common.DefaultModelTimeout)

	settings := Settings{
		ListenAddr:      getEnvOrDefault(common.EnvListenAddr, common.DefaultListenAddr),
		MaxUploadBytes:  getInt64OrDefault(common.EnvMaxUploadBytes, common.DefaultMaxUploadBytes),
		ResultsDir:      getEnvOrDefault(common.EnvResultsDir, common.DefaultResultsDir),
		DataPath:        getEnvOrDefault(common.EnvDataPath, common.DefaultDataPath),
		RunHistory:      getIntOrDefault(common.EnvRunHistory, common.DefaultRunHistory),
		ModelBackend:    strings.ToLower(getEnvOrDefault(common.EnvModelBackend, common.DefaultModelBackend)),
		ModelPath:       getEnvOrDefault(common.EnvModelPath, common.DefaultModelPath),
		PythonPath:      os.Getenv(common.EnvPythonPath), // optional, auto-detected
		ModelTimeout:    getDurationOrDefault(common.EnvModelTimeout, defaultTimeout),
		RemoteURL:       os.Getenv(common.EnvModelRemoteURL),
		ONNXLibPath:     os.Getenv(common.EnvONNXRuntimeLib),
		ONNXInput:       getEnvOrDefault(common.EnvONNXInputName, common.DefaultONNXInputName),
		ONNXLabelOutput: getEnvOrDefault(common.EnvONNXLabelOutput, common.DefaultONNXLabelOutput),
		ONNXProbOutput:  getEnvOrDefault(common.EnvONNXProbOutput, common.DefaultONNXProbOutput),
		PreviewRows:     getIntOrDefault(common.EnvPreviewRows, common.DefaultPreviewRows),
		LogLevel:        getEnvOrDefault(common.EnvLogLevel, common.DefaultLogLevel),
		LogConsole:      getBoolOrDefault(common.EnvLogConsole, true),
	}

	if err := validateSettings(&settings); err != nil {
		return Settings{}, fmt.Errorf("configuration validation failed: %w", err)
	}

	return settings, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func orString(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getInt64OrDefault(key string, defaultValue int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getIntFromEnvOrConfig(key string, configValue, defaultValue int) int {
	if configValue != 0 {
		defaultValue = configValue
	}
	return getIntOrDefault(key, defaultValue)
}

func getInt64FromEnvOrConfig(key string, configValue, defaultValue int64) int64 {
	if configValue != 0 {
		defaultValue = configValue
	}
	return getInt64OrDefault(key, defaultValue)
}

// validateSettings performs range and consistency checks on the loaded values
func validateSettings(settings *Settings) error {
	if settings.ListenAddr == "" {
		return fmt.Errorf("listen address cannot be empty")
	}
	if settings.ResultsDir == "" {
		return fmt.Errorf("results directory cannot be empty")
	}
	if settings.MaxUploadBytes < common.MinUploadBytes || settings.MaxUploadBytes > common.MaxUploadBytes {
		return fmt.Errorf("max upload bytes must be between %d and %d, got %d",
			common.MinUploadBytes, common.MaxUploadBytes, settings.MaxUploadBytes)
	}
	if settings.RunHistory < 0 || settings.RunHistory > common.MaxRunHistory {
		return fmt.Errorf("run history must be between 0 and %d, got %d", common.MaxRunHistory, settings.RunHistory)
	}
	if settings.PreviewRows <= 0 || settings.PreviewRows > common.MaxPreviewRows {
		return fmt.Errorf("preview rows must be between 1 and %d, got %d", common.MaxPreviewRows, settings.PreviewRows)
	}

	timeoutMs := settings.ModelTimeout.Milliseconds()
	if timeoutMs < common.MinModelTimeoutMs || timeoutMs > common.MaxModelTimeoutMs {
		return fmt.Errorf("model timeout must be between %dms and %dms, got %v",
			common.MinModelTimeoutMs, common.MaxModelTimeoutMs, settings.ModelTimeout)
	}

	switch settings.ModelBackend {
	case common.BackendPython, common.BackendONNX:
		if settings.ModelPath == "" {
			return fmt.Errorf("model path is required for the %s backend", settings.ModelBackend)
		}
	case common.BackendRemote:
		if settings.RemoteURL == "" {
			return fmt.Errorf("remote URL is required for the remote backend")
		}
	case common.BackendHeuristic:
	default:
		return fmt.Errorf("unknown model backend %q", settings.ModelBackend)
	}

	if settings.ModelBackend == common.BackendONNX {
		if settings.ONNXInput == "" || settings.ONNXLabelOutput == "" {
			return fmt.Errorf("onnx input and label output names are required")
		}
	}

	return nil
}

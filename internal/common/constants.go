package common

// Environment variable keys
const (
	EnvConfigFile      = "CONFIG_FILE"
	EnvListenAddr      = "LISTEN_ADDR"
	EnvMaxUploadBytes  = "MAX_UPLOAD_BYTES"
	EnvResultsDir      = "RESULTS_DIR"
	EnvDataPath        = "DATA_PATH"
	EnvRunHistory      = "RUN_HISTORY"
	EnvModelBackend    = "MODEL_BACKEND"
	EnvModelPath       = "MODEL_PATH"
	EnvPythonPath      = "PYTHON_PATH"
	EnvModelTimeout    = "MODEL_TIMEOUT"
	EnvModelRemoteURL  = "MODEL_REMOTE_URL"
	EnvONNXRuntimeLib  = "ONNXRUNTIME_LIB"
	EnvONNXInputName   = "ONNX_INPUT_NAME"
	EnvONNXLabelOutput = "ONNX_LABEL_OUTPUT"
	EnvONNXProbOutput  = "ONNX_PROB_OUTPUT"
	EnvPreviewRows     = "PREVIEW_ROWS"
	EnvLogLevel        = "LOG_LEVEL"
	EnvLogConsole      = "LOG_CONSOLE"
)

// Model backends
const (
	BackendPython    = "python"
	BackendONNX      = "onnx"
	BackendRemote    = "remote"
	BackendHeuristic = "heuristic"
)

// Configuration defaults
const (
	DefaultListenAddr      = ":5000"
	DefaultMaxUploadBytes  = 32 << 20
	DefaultResultsDir      = "results"
	DefaultDataPath        = "data"
	DefaultRunHistory      = 50
	DefaultModelBackend    = BackendPython
	DefaultModelPath       = "model.pkl"
	DefaultModelTimeout    = "30s"
	DefaultONNXInputName   = "float_input"
	DefaultONNXLabelOutput = "label"
	DefaultONNXProbOutput  = "probabilities"
	DefaultPreviewRows     = 20
	DefaultLogLevel        = "info"
)

// Result snapshot
const (
	PredictionsFileName = "titanic_predictions.csv"
	CSVContentType      = "text/csv"
)

// Output columns appended to every annotated table, plus the optional
// passenger identifier shown in the preview
const (
	ColPassengerID         = "PassengerId"
	ColFamilySize          = "FamilySize"
	ColIsAlone             = "IsAlone"
	ColSurvivalProbability = "Survival_Probability"
	ColPredictedSurvived   = "PredictedSurvived"
	ColPredictedLabel      = "PredictedLabel"
)

// Prediction labels
const (
	LabelSurvived    = "Survived"
	LabelNotSurvived = "Did not survive"
)

// User-facing messages
const (
	MsgNoFilePart       = "No file part in the request."
	MsgNoFileSelected   = "No CSV file selected."
	MsgReadCSVFailed    = "Error reading CSV file. Please check the format. Details: %s"
	MsgMissingColumns   = "Missing required columns: %s"
	MsgPredictionFailed = "Error during prediction. Details: %s"
	MsgNoPredictions    = "No predictions available to download. Please upload a CSV first."
	MsgInternalError    = "Something went wrong while processing the file. Please try again."
	NoticeNoPredictions = "no_predictions"
)

// Validation constants
const (
	MaxPreviewRows    = 1000
	MaxRunHistory     = 10000
	MinUploadBytes    = 1 << 10
	MaxUploadBytes    = 1 << 30
	MinModelTimeoutMs = 100
	MaxModelTimeoutMs = 10 * 60 * 1000
)

package config

const (
	defaultConfigPath          = "~/.config/winelens/config.toml"
	defaultDataDir             = "~/.local/share/winelens"
	defaultLogDir              = "~/.local/share/winelens/logs"
	defaultSearchBaseURL       = "https://api.winelens.app"
	defaultSearchTimeout       = 5
	defaultSearchBatchSize     = 20
	defaultAcceptanceThreshold = 0.7
	defaultBatchDiscount       = 0.05
	defaultExactConfidence     = 0.98
	defaultFuzzyFloor          = 0.5
	defaultLineGap             = 0.025
	defaultMinLength           = 4
	defaultMinWords            = 3
	defaultFrameIntervalMS     = 500
	defaultOverlapThreshold    = 0.5
	defaultOverlayTTLMS        = 3000
	defaultRemoteWorkers       = 2
	defaultHistoryLimit        = 50
	defaultCheckpointInterval  = 30
	defaultConfidenceFloor     = 0.5
	defaultTesseractLanguage   = "eng"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Search: Search{
			BaseURL:        defaultSearchBaseURL,
			TimeoutSeconds: defaultSearchTimeout,
			BatchSize:      defaultSearchBatchSize,
		},
		Matching: Matching{
			AcceptanceThreshold: defaultAcceptanceThreshold,
			BatchDiscount:       defaultBatchDiscount,
			ExactConfidence:     defaultExactConfidence,
			FuzzyFloor:          defaultFuzzyFloor,
		},
		Segmenter: Segmenter{
			LineGap:   defaultLineGap,
			MinLength: defaultMinLength,
			MinWords:  defaultMinWords,
		},
		Scanning: Scanning{
			FrameIntervalMS:  defaultFrameIntervalMS,
			OverlapThreshold: defaultOverlapThreshold,
			OverlayTTLMS:     defaultOverlayTTLMS,
			RemoteWorkers:    defaultRemoteWorkers,
			HistoryLimit:     defaultHistoryLimit,
		},
		Cache: Cache{
			CheckpointIntervalSeconds: defaultCheckpointInterval,
		},
		Recognizer: Recognizer{
			ConfidenceFloor:   defaultConfidenceFloor,
			TesseractLanguage: defaultTesseractLanguage,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

package config

const (
	defaultConfigPath         = "~/.config/bechdelai/config.toml"
	defaultDataDir            = "~/.local/share/bechdelai"
	defaultCacheDir           = "~/.cache/bechdelai"
	defaultLogDir             = "~/.local/share/bechdelai/logs"
	defaultWorkDir            = "~/.local/share/bechdelai/work"
	defaultDatabasePath       = "~/.local/share/bechdelai/bechdelai.db"
	defaultAPIBind            = "127.0.0.1:8501"
	defaultTMDBBaseURL        = "https://api.themoviedb.org/3"
	defaultTMDBLanguage       = "en-US"
	defaultOMDBBaseURL        = "http://www.omdbapi.com"
	defaultUserAgent          = "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/115.0"
	defaultAcceptLanguage     = "fr-FR,fr;q=0.9,en-US;q=0.8,en;q=0.7"
	defaultRequestsPerSecond  = 2.0
	defaultBurst              = 2
	defaultScraperTimeout     = 20
	defaultScraperAttempts    = 3
	defaultCacheTTLHours      = 24
	defaultSubtitleLanguage   = "fre"
	defaultBlockGapSeconds    = 2.0
	defaultJaroWinkler        = 0.875
	defaultAudioProfile       = "french"
	defaultAudioSegmenter     = "pitch"
	defaultAudioTranscriber   = "none"
	defaultWhisperXModel      = "large-v3"
	defaultWhisperAPIURL      = "https://api.openai.com/v1/audio/transcriptions"
	defaultWhisperAPIModel    = "whisper-1"
	defaultMaxDurationSeconds = 700
	defaultPitchThresholdHz   = 165.0
	defaultFrameRate          = 1.0
	defaultVisionMaxSeconds   = 600
	defaultDeepFaceURL        = "http://127.0.0.1:5005"
	defaultDetectorBackend    = "retinaface"
	defaultLLMBaseURL         = "https://api.openai.com/v1/chat/completions"
	defaultLLMModel           = "gpt-4o-mini"
	defaultLLMReferer         = "https://github.com/dataforgoodfr/bechdelai"
	defaultLLMTitle           = "BechdelAI"
	defaultLLMTimeoutSeconds  = 60
	defaultStorageRegion      = "us-east-1"
	defaultNotifyTimeout      = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogRetentionDays   = 30
	defaultLogMaxSizeMB       = 10
	defaultLogMaxBackups      = 3
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:      defaultDataDir,
			CacheDir:     defaultCacheDir,
			LogDir:       defaultLogDir,
			WorkDir:      defaultWorkDir,
			DatabasePath: defaultDatabasePath,
			APIBind:      defaultAPIBind,
		},
		TMDB: TMDB{
			BaseURL:  defaultTMDBBaseURL,
			Language: defaultTMDBLanguage,
		},
		Scraper: Scraper{
			UserAgent:         defaultUserAgent,
			AcceptLanguage:    defaultAcceptLanguage,
			RequestsPerSecond: defaultRequestsPerSecond,
			Burst:             defaultBurst,
			TimeoutSeconds:    defaultScraperTimeout,
			MaxAttempts:       defaultScraperAttempts,
			CacheTTLHours:     defaultCacheTTLHours,
		},
		OMDB: OMDB{
			BaseURL: defaultOMDBBaseURL,
		},
		Subtitles: Subtitles{
			Language:             defaultSubtitleLanguage,
			BlockGapSeconds:      defaultBlockGapSeconds,
			JaroWinklerThreshold: defaultJaroWinkler,
		},
		Audio: Audio{
			Profile:            defaultAudioProfile,
			Segmenter:          defaultAudioSegmenter,
			Transcriber:        defaultAudioTranscriber,
			WhisperXModel:      defaultWhisperXModel,
			WhisperAPIURL:      defaultWhisperAPIURL,
			WhisperAPIModel:    defaultWhisperAPIModel,
			MaxDurationSeconds: defaultMaxDurationSeconds,
			PitchThresholdHz:   defaultPitchThresholdHz,
		},
		Vision: Vision{
			FrameRate:       defaultFrameRate,
			MaxSeconds:      defaultVisionMaxSeconds,
			DeepFaceURL:     defaultDeepFaceURL,
			DetectorBackend: defaultDetectorBackend,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Storage: Storage{
			Region: defaultStorageRegion,
		},
		Notifications: Notifications{
			TimeoutSeconds: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
			MaxSizeMB:     defaultLogMaxSizeMB,
			MaxBackups:    defaultLogMaxBackups,
		},
	}
}

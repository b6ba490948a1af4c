package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTMDB()
	c.normalizeScraper()
	c.normalizeOMDB()
	c.normalizeSubtitles()
	c.normalizeAudio()
	c.normalizeVision()
	c.normalizeLLM()
	c.normalizeStorage()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(orDefault(c.Paths.DataDir, defaultDataDir)); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.CacheDir, err = expandPath(orDefault(c.Paths.CacheDir, defaultCacheDir)); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(orDefault(c.Paths.LogDir, defaultLogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if c.Paths.WorkDir, err = expandPath(orDefault(c.Paths.WorkDir, defaultWorkDir)); err != nil {
		return fmt.Errorf("paths.work_dir: %w", err)
	}
	if c.Paths.DatabasePath, err = expandPath(orDefault(c.Paths.DatabasePath, defaultDatabasePath)); err != nil {
		return fmt.Errorf("paths.database_path: %w", err)
	}
	c.Paths.APIBind = orDefault(c.Paths.APIBind, defaultAPIBind)
	return nil
}

func (c *Config) normalizeTMDB() {
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	if c.TMDB.APIKey == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.TMDB.APIKey = strings.TrimSpace(value)
		}
	}
	c.TMDB.BaseURL = strings.TrimRight(orDefault(c.TMDB.BaseURL, defaultTMDBBaseURL), "/")
	c.TMDB.Language = orDefault(c.TMDB.Language, defaultTMDBLanguage)
}

func (c *Config) normalizeScraper() {
	c.Scraper.UserAgent = orDefault(c.Scraper.UserAgent, defaultUserAgent)
	c.Scraper.AcceptLanguage = orDefault(c.Scraper.AcceptLanguage, defaultAcceptLanguage)
	if c.Scraper.Burst <= 0 {
		c.Scraper.Burst = 1
	}
	if c.Scraper.TimeoutSeconds <= 0 {
		c.Scraper.TimeoutSeconds = defaultScraperTimeout
	}
	if c.Scraper.MaxAttempts <= 0 {
		c.Scraper.MaxAttempts = 1
	}
}

func (c *Config) normalizeOMDB() {
	c.OMDB.APIKey = strings.TrimSpace(c.OMDB.APIKey)
	if c.OMDB.APIKey == "" {
		if value, ok := os.LookupEnv("OMDB_API_KEY"); ok {
			c.OMDB.APIKey = strings.TrimSpace(value)
		}
	}
	c.OMDB.BaseURL = strings.TrimRight(orDefault(c.OMDB.BaseURL, defaultOMDBBaseURL), "/")
}

func (c *Config) normalizeSubtitles() {
	c.Subtitles.Language = strings.ToLower(orDefault(c.Subtitles.Language, defaultSubtitleLanguage))
	if c.Subtitles.BlockGapSeconds <= 0 {
		c.Subtitles.BlockGapSeconds = defaultBlockGapSeconds
	}
	if c.Subtitles.JaroWinklerThreshold == 0 {
		c.Subtitles.JaroWinklerThreshold = defaultJaroWinkler
	}
}

func (c *Config) normalizeAudio() {
	c.Audio.Profile = strings.ToLower(orDefault(c.Audio.Profile, defaultAudioProfile))
	c.Audio.Segmenter = strings.ToLower(orDefault(c.Audio.Segmenter, defaultAudioSegmenter))
	c.Audio.Transcriber = strings.ToLower(orDefault(c.Audio.Transcriber, defaultAudioTranscriber))
	c.Audio.WhisperXModel = orDefault(c.Audio.WhisperXModel, defaultWhisperXModel)
	c.Audio.WhisperAPIURL = orDefault(c.Audio.WhisperAPIURL, defaultWhisperAPIURL)
	c.Audio.WhisperAPIModel = orDefault(c.Audio.WhisperAPIModel, defaultWhisperAPIModel)
	if c.Audio.PitchThresholdHz == 0 {
		c.Audio.PitchThresholdHz = defaultPitchThresholdHz
	}
}

func (c *Config) normalizeVision() {
	if c.Vision.FrameRate == 0 {
		c.Vision.FrameRate = defaultFrameRate
	}
	c.Vision.DeepFaceURL = strings.TrimRight(orDefault(c.Vision.DeepFaceURL, defaultDeepFaceURL), "/")
	c.Vision.DetectorBackend = strings.ToLower(orDefault(c.Vision.DetectorBackend, defaultDetectorBackend))
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
	c.LLM.BaseURL = orDefault(c.LLM.BaseURL, defaultLLMBaseURL)
	c.LLM.Model = orDefault(c.LLM.Model, defaultLLMModel)
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.TimeoutSeconds <= 0 {
		c.Notifications.TimeoutSeconds = defaultNotifyTimeout
	}
}

func (c *Config) normalizeStorage() {
	c.Storage.Endpoint = strings.TrimSpace(c.Storage.Endpoint)
	c.Storage.Bucket = strings.TrimSpace(c.Storage.Bucket)
	c.Storage.Region = orDefault(c.Storage.Region, defaultStorageRegion)
	c.Storage.Prefix = strings.Trim(strings.TrimSpace(c.Storage.Prefix), "/")
	if strings.TrimSpace(c.Storage.AccessKey) == "" {
		if value, ok := os.LookupEnv("BECHDELAI_S3_ACCESS_KEY"); ok {
			c.Storage.AccessKey = value
		}
	}
	if strings.TrimSpace(c.Storage.SecretKey) == "" {
		if value, ok := os.LookupEnv("BECHDELAI_S3_SECRET_KEY"); ok {
			c.Storage.SecretKey = value
		}
	}
	c.Storage.AccessKey = strings.TrimSpace(c.Storage.AccessKey)
	c.Storage.SecretKey = strings.TrimSpace(c.Storage.SecretKey)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(orDefault(c.Logging.Format, defaultLogFormat))
	c.Logging.Level = strings.ToLower(orDefault(c.Logging.Level, defaultLogLevel))
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = defaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups < 0 {
		c.Logging.MaxBackups = 0
	}
}

func orDefault(value, fallback string) string {
	if trimmed := strings.TrimSpace(value); trimmed != "" {
		return trimmed
	}
	return fallback
}

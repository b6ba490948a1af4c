package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateScraper(); err != nil {
		return err
	}
	if err := c.validateSubtitles(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validateVision(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateNotifications() error {
	topic := c.Notifications.NtfyTopic
	if topic != "" && !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic must be an http(s) URL (got %q)", topic)
	}
	return nil
}

// RequireTMDB reports a configuration error when no TMDB key is available.
// Offline commands (subtitle cleaning, audio segmentation) never call it.
func (c *Config) RequireTMDB() error {
	if c.TMDB.APIKey != "" {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	return fmt.Errorf("tmdb.api_key is required. Set TMDB_API_KEY env var or edit %s (create with 'bechdelai config init')", defaultPath)
}

// RequireLLM reports a configuration error when the LLM key is missing or malformed.
func (c *Config) RequireLLM() error {
	key := c.LLM.APIKey
	if key == "" {
		return errors.New("llm.api_key is required. Set OPENAI_API_KEY env var or add it to .env")
	}
	if strings.Contains(c.LLM.BaseURL, "api.openai.com") && !strings.HasPrefix(key, "sk-") {
		return errors.New("llm.api_key must start with \"sk-\" for the OpenAI API")
	}
	return nil
}

func (c *Config) validateScraper() error {
	if c.Scraper.RequestsPerSecond < 0 {
		return errors.New("scraper.requests_per_second must be >= 0")
	}
	if c.Scraper.CacheTTLHours < 0 {
		return errors.New("scraper.cache_ttl_hours must be >= 0")
	}
	return nil
}

func (c *Config) validateSubtitles() error {
	if c.Subtitles.JaroWinklerThreshold <= 0 || c.Subtitles.JaroWinklerThreshold > 1 {
		return errors.New("subtitles.jaro_winkler_threshold must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateAudio() error {
	switch c.Audio.Profile {
	case "french", "us_english":
	default:
		return fmt.Errorf("audio.profile must be one of french, us_english (got %q)", c.Audio.Profile)
	}
	switch c.Audio.Segmenter {
	case "ina", "pitch":
	default:
		return fmt.Errorf("audio.segmenter must be one of ina, pitch (got %q)", c.Audio.Segmenter)
	}
	switch c.Audio.Transcriber {
	case "none", "whisperx", "whisper_api":
	default:
		return fmt.Errorf("audio.transcriber must be one of none, whisperx, whisper_api (got %q)", c.Audio.Transcriber)
	}
	if c.Audio.MaxDurationSeconds < 0 {
		return errors.New("audio.max_duration_seconds must be >= 0")
	}
	if c.Audio.PitchThresholdHz < 50 || c.Audio.PitchThresholdHz > 400 {
		return errors.New("audio.pitch_threshold_hz must be between 50 and 400")
	}
	return nil
}

func (c *Config) validateVision() error {
	if c.Vision.FrameRate <= 0 {
		return errors.New("vision.frame_rate must be > 0")
	}
	if c.Vision.MaxSeconds < 0 {
		return errors.New("vision.max_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateStorage() error {
	if !c.Storage.Enabled {
		return nil
	}
	if c.Storage.Bucket == "" {
		return errors.New("storage.bucket must be set when storage.enabled is true")
	}
	if c.Storage.AccessKey == "" || c.Storage.SecretKey == "" {
		return errors.New("storage.access_key and storage.secret_key must be set when storage.enabled is true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be >= 0")
	}
	return nil
}

package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"gopkg.in/yaml.v3"

	"podkeep/internal/theme"
)

// Config represents the persisted application configuration. RoamingPath
// is the one setting users most often change: pointing it into a cloud
// synced folder is how listening state roams between devices.
type Config struct {
	EnclosuresDir        string `yaml:"enclosures_dir"`
	RoamingPath          string `yaml:"roaming_path"`
	PlayerCommand        string `yaml:"player_command"`
	FFProbePath          string `yaml:"ffprobe_path,omitempty"`
	UserAgent            string `yaml:"user_agent"`
	Proxy                string `yaml:"proxy,omitempty"`
	TLSVerify            bool   `yaml:"tls_verify"`
	ColorTheme           string `yaml:"color_theme"`
	ListMaxAgeMinutes    int    `yaml:"list_max_age_minutes"`
	EpisodeMaxAgeMinutes int    `yaml:"episode_max_age_minutes"`
	PurgeAfterDays       int    `yaml:"purge_after_days"`
	PodcastNameMaxLength int    `yaml:"podcast_name_max_length"`
	EpisodeNameMaxLength int    `yaml:"episode_name_max_length"`
}

// Defaults returns the baseline configuration used on first run. baseDir
// is the application directory, typically ~/.podkeep.
func Defaults(baseDir string) Config {
	return Config{
		EnclosuresDir:        filepath.Join(baseDir, "enclosures"),
		RoamingPath:          filepath.Join(baseDir, "roaming.json"),
		PlayerCommand:        "mpv --no-video --start={position} {file}",
		UserAgent:            "podkeep/dev",
		TLSVerify:            true,
		ColorTheme:           theme.Default,
		ListMaxAgeMinutes:    60,
		EpisodeMaxAgeMinutes: 10,
		PurgeAfterDays:       30,
		PodcastNameMaxLength: 24,
		EpisodeNameMaxLength: 48,
	}
}

// Ensure loads configuration from the provided path, prompting the user to
// create one if it does not yet exist.
func Ensure(ctx context.Context, path, baseDir string) (Config, error) {
	cfg, err := Load(path, baseDir)
	if err == nil {
		return cfg, nil
	}

	if !errors.Is(err, fs.ErrNotExist) {
		return Config{}, err
	}

	cfg = Defaults(baseDir)
	if err := bootstrap(ctx, &cfg); err != nil {
		return Config{}, err
	}

	if err := Save(path, cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Load reads configuration from disk, backfilling defaults for fields an
// older config file does not carry.
func Load(path, baseDir string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	defaults := Defaults(baseDir)
	if strings.TrimSpace(cfg.EnclosuresDir) == "" {
		cfg.EnclosuresDir = defaults.EnclosuresDir
	}
	if strings.TrimSpace(cfg.RoamingPath) == "" {
		cfg.RoamingPath = defaults.RoamingPath
	}
	if strings.TrimSpace(cfg.PlayerCommand) == "" {
		cfg.PlayerCommand = defaults.PlayerCommand
	}
	if strings.TrimSpace(cfg.ColorTheme) == "" {
		cfg.ColorTheme = defaults.ColorTheme
	}
	if cfg.ListMaxAgeMinutes <= 0 {
		cfg.ListMaxAgeMinutes = defaults.ListMaxAgeMinutes
	}
	if cfg.EpisodeMaxAgeMinutes <= 0 {
		cfg.EpisodeMaxAgeMinutes = defaults.EpisodeMaxAgeMinutes
	}
	if cfg.PurgeAfterDays <= 0 {
		cfg.PurgeAfterDays = defaults.PurgeAfterDays
	}
	if cfg.PodcastNameMaxLength <= 0 {
		cfg.PodcastNameMaxLength = defaults.PodcastNameMaxLength
	}
	if cfg.EpisodeNameMaxLength <= 0 {
		cfg.EpisodeNameMaxLength = defaults.EpisodeNameMaxLength
	}
	return cfg, nil
}

// Save writes configuration back to disk, ensuring directory permissions
// are restrictive.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	temp := path + ".tmp"
	if err := os.WriteFile(temp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(temp, path)
}

func bootstrap(ctx context.Context, cfg *Config) error {
	if fromEnv := strings.TrimSpace(os.Getenv("PODKEEP_ENCLOSURES_DIR")); fromEnv != "" {
		resolved, err := expandPath(fromEnv)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(resolved, 0o755); err != nil {
			return fmt.Errorf("create enclosures directory: %w", err)
		}
		cfg.EnclosuresDir = resolved
		return nil
	}

	prompt := &survey.Input{
		Message: "Choose a directory for downloaded episodes",
		Default: cfg.EnclosuresDir,
	}

	var answer string
	if err := survey.AskOne(prompt, &answer, survey.WithValidator(survey.Required)); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return fmt.Errorf("initialisation interrupted")
		}
		return err
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return fmt.Errorf("enclosures directory cannot be empty")
	}

	resolved, err := expandPath(answer)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(resolved, 0o755); err != nil {
		return fmt.Errorf("create enclosures directory: %w", err)
	}

	cfg.EnclosuresDir = resolved
	return nil
}

// EditInteractive opens an interactive survey session allowing the user to
// update configuration values.
func EditInteractive(ctx context.Context, cfg Config) (Config, error) {
	questions := []*survey.Question{
		{
			Name: "enclosures_dir",
			Prompt: &survey.Input{
				Message: "Enclosures directory",
				Default: cfg.EnclosuresDir,
			},
			Validate: survey.Required,
		},
		{
			Name: "roaming_path",
			Prompt: &survey.Input{
				Message: "Roaming metadata file (place inside a synced folder to roam)",
				Default: cfg.RoamingPath,
			},
			Validate: survey.Required,
		},
		{
			Name: "player_command",
			Prompt: &survey.Input{
				Message: "Player command ({file} and {position} are substituted)",
				Default: cfg.PlayerCommand,
			},
			Validate: survey.Required,
		},
		{
			Name: "user_agent",
			Prompt: &survey.Input{
				Message: "User agent",
				Default: cfg.UserAgent,
			},
		},
		{
			Name: "proxy",
			Prompt: &survey.Input{
				Message: "HTTP proxy (optional)",
				Default: cfg.Proxy,
			},
		},
		{
			Name: "tls_verify",
			Prompt: &survey.Confirm{
				Message: "Verify TLS certificates",
				Default: cfg.TLSVerify,
			},
		},
		{
			Name: "color_theme",
			Prompt: &survey.Select{
				Message: "Color theme",
				Options: theme.Names(),
				Default: cfg.ColorTheme,
			},
		},
		{
			Name: "list_max_age_minutes",
			Prompt: &survey.Input{
				Message: "Accepted cache age when listing podcasts (minutes)",
				Default: fmt.Sprintf("%d", cfg.ListMaxAgeMinutes),
			},
			Validate: validatePositiveInt,
		},
		{
			Name: "episode_max_age_minutes",
			Prompt: &survey.Input{
				Message: "Accepted cache age when listing episodes (minutes)",
				Default: fmt.Sprintf("%d", cfg.EpisodeMaxAgeMinutes),
			},
			Validate: validatePositiveInt,
		},
		{
			Name: "purge_after_days",
			Prompt: &survey.Input{
				Message: "Purge unstarred cache entries after (days)",
				Default: fmt.Sprintf("%d", cfg.PurgeAfterDays),
			},
			Validate: validatePositiveInt,
		},
	}

	select {
	case <-ctx.Done():
		return Config{}, ctx.Err()
	default:
	}

	answers := map[string]interface{}{}
	if err := survey.Ask(questions, &answers); err != nil {
		return Config{}, err
	}

	cfg.EnclosuresDir = strings.TrimSpace(answers["enclosures_dir"].(string))
	cfg.RoamingPath = strings.TrimSpace(answers["roaming_path"].(string))
	cfg.PlayerCommand = strings.TrimSpace(answers["player_command"].(string))
	cfg.UserAgent = strings.TrimSpace(answers["user_agent"].(string))
	cfg.Proxy = strings.TrimSpace(answers["proxy"].(string))
	cfg.TLSVerify = answers["tls_verify"].(bool)
	if themeName, ok := answers["color_theme"].(string); ok {
		cfg.ColorTheme = themeName
	}
	cfg.ListMaxAgeMinutes = toInt(answers["list_max_age_minutes"])
	cfg.EpisodeMaxAgeMinutes = toInt(answers["episode_max_age_minutes"])
	cfg.PurgeAfterDays = toInt(answers["purge_after_days"])

	return cfg, nil
}

func validatePositiveInt(ans interface{}) error {
	v := strings.TrimSpace(ans.(string))
	if v == "" {
		return errors.New("value required")
	}
	i, err := parseInt(v)
	if err != nil {
		return err
	}
	if i <= 0 {
		return errors.New("must be greater than zero")
	}
	return nil
}

func parseInt(value string) (int, error) {
	var i int
	_, err := fmt.Sscanf(value, "%d", &i)
	if err != nil {
		return 0, errors.New("must be a number")
	}
	return i, nil
}

func toInt(value interface{}) int {
	switch v := value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case string:
		i, _ := parseInt(v)
		return i
	default:
		return 0
	}
}

func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}

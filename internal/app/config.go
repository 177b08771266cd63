package app

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml"

	gh "github.com/rancher/autorebase-action/internal/github"
	"github.com/rancher/autorebase-action/internal/labels"
)

const (
	defaultLogLevel     = "info"
	defaultLogFormat    = "text"
	defaultMergeMethod  = string(gh.MergeMethodMerge)
	defaultGitUserName  = "Rancher Autorebase Bot"
	defaultGitUserEmail = "no-reply@rancher.com"
)

var supportedMergeMethods = map[string]struct{}{
	string(gh.MergeMethodMerge):  {},
	string(gh.MergeMethodSquash): {},
	string(gh.MergeMethodRebase): {},
}

// Config captures runtime options sourced from GitHub Action inputs, environment
// variables and an optional TOML file.
type Config struct {
	GitHubToken     string
	GitHubBaseURL   string
	GitHubUploadURL string
	DryRun          bool
	Verbose         bool
	LogLevel        string
	LogFormat       string
	MergeMethod     string
	MergeLabel      string
	RebaseLabel     string
	GitUserName     string
	GitUserEmail    string
	WorkDir         string
	NeutralExitCode int
	ConfigFile      string
}

// FileConfig is the layout of the optional TOML configuration file. Action inputs
// set in the environment take precedence over values from the file.
type FileConfig struct {
	GitHubBaseURL   string     `toml:"github_base_url"`
	GitHubUploadURL string     `toml:"github_upload_url"`
	DryRun          bool       `toml:"dry_run"`
	Verbose         bool       `toml:"verbose"`
	LogLevel        string     `toml:"log_level"`
	LogFormat       string     `toml:"log_format"`
	MergeMethod     string     `toml:"merge_method"`
	WorkDir         string     `toml:"workdir"`
	NeutralExitCode int        `toml:"neutral_exit_code"`
	Labels          FileLabels `toml:"labels"`
	Git             FileGit    `toml:"git"`
}

// FileLabels is the [labels] table of the configuration file.
type FileLabels struct {
	Merge  string `toml:"merge"`
	Rebase string `toml:"rebase"`
}

// FileGit is the [git] table of the configuration file.
type FileGit struct {
	UserName  string `toml:"user_name"`
	UserEmail string `toml:"user_email"`
}

// LoadFileConfig decodes a TOML configuration document.
func LoadFileConfig(r io.Reader) (FileConfig, error) {
	var result FileConfig

	data, err := io.ReadAll(r)
	if err != nil {
		return FileConfig{}, err
	}

	if err := toml.Unmarshal(data, &result); err != nil {
		return FileConfig{}, err
	}

	return result, nil
}

// LoadConfig reads action inputs from the environment, layers them over the TOML file
// at configPath (or INPUT_CONFIG_FILE when configPath is empty), applies defaults, and
// performs validation.
func LoadConfig(configPath string) (Config, error) {
	cfg := Config{ConfigFile: strings.TrimSpace(configPath)}
	if cfg.ConfigFile == "" {
		cfg.ConfigFile = strings.TrimSpace(os.Getenv("INPUT_CONFIG_FILE"))
	}

	if cfg.ConfigFile != "" {
		f, err := os.Open(cfg.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("open config file: %w", err)
		}
		fileCfg, err := LoadFileConfig(f)
		_ = f.Close()
		if err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", cfg.ConfigFile, err)
		}
		cfg.applyFile(fileCfg)
	}

	cfg.GitHubToken = strings.TrimSpace(os.Getenv("INPUT_GITHUB_TOKEN"))
	if cfg.GitHubToken == "" {
		cfg.GitHubToken = strings.TrimSpace(os.Getenv("GITHUB_TOKEN"))
	}

	overrideString(&cfg.GitHubBaseURL, "INPUT_GITHUB_BASE_URL")
	overrideString(&cfg.GitHubUploadURL, "INPUT_GITHUB_UPLOAD_URL")
	overrideString(&cfg.LogLevel, "INPUT_LOG_LEVEL")
	overrideString(&cfg.LogFormat, "INPUT_LOG_FORMAT")
	overrideString(&cfg.MergeMethod, "INPUT_MERGE_METHOD")
	overrideString(&cfg.MergeLabel, "INPUT_MERGE_LABEL")
	overrideString(&cfg.RebaseLabel, "INPUT_REBASE_LABEL")
	overrideString(&cfg.GitUserName, "INPUT_GIT_USER_NAME")
	overrideString(&cfg.GitUserEmail, "INPUT_GIT_USER_EMAIL")
	overrideString(&cfg.WorkDir, "INPUT_WORKDIR")

	if err := overrideBool(&cfg.DryRun, "INPUT_DRY_RUN"); err != nil {
		return Config{}, err
	}
	if err := overrideBool(&cfg.Verbose, "INPUT_VERBOSE"); err != nil {
		return Config{}, err
	}

	if raw := strings.TrimSpace(os.Getenv("INPUT_NEUTRAL_EXIT_CODE")); raw != "" {
		code, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse INPUT_NEUTRAL_EXIT_CODE: %w", err)
		}
		cfg.NeutralExitCode = code
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the combination of options. It is run by LoadConfig and again
// after command line flags are applied.
func (c *Config) Validate() error {
	if c.GitHubToken == "" {
		return fmt.Errorf("github token is required (set INPUT_GITHUB_TOKEN or GITHUB_TOKEN)")
	}

	if (c.GitHubBaseURL == "") != (c.GitHubUploadURL == "") {
		return fmt.Errorf("INPUT_GITHUB_BASE_URL and INPUT_GITHUB_UPLOAD_URL must both be set for GitHub Enterprise")
	}

	if _, ok := supportedMergeMethods[c.MergeMethod]; !ok {
		return fmt.Errorf("unsupported merge method %q", c.MergeMethod)
	}

	if _, err := c.LabelTable(); err != nil {
		return fmt.Errorf("invalid labels: %w", err)
	}

	supportedFormats := map[string]struct{}{"text": {}, "json": {}}
	if _, ok := supportedFormats[c.LogFormat]; !ok {
		return fmt.Errorf("unsupported log format %q", c.LogFormat)
	}

	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}

	if c.NeutralExitCode < 0 || c.NeutralExitCode > 255 {
		return fmt.Errorf("neutral exit code %d is out of range", c.NeutralExitCode)
	}

	return nil
}

// LabelTable returns the label to action mapping described by the configuration.
func (c *Config) LabelTable() (labels.Table, error) {
	return labels.NewTable(c.MergeLabel, c.RebaseLabel)
}

func (c *Config) applyFile(f FileConfig) {
	c.GitHubBaseURL = strings.TrimSpace(f.GitHubBaseURL)
	c.GitHubUploadURL = strings.TrimSpace(f.GitHubUploadURL)
	c.DryRun = f.DryRun
	c.Verbose = f.Verbose
	c.LogLevel = strings.TrimSpace(f.LogLevel)
	c.LogFormat = strings.TrimSpace(f.LogFormat)
	c.MergeMethod = strings.TrimSpace(f.MergeMethod)
	c.MergeLabel = strings.TrimSpace(f.Labels.Merge)
	c.RebaseLabel = strings.TrimSpace(f.Labels.Rebase)
	c.GitUserName = strings.TrimSpace(f.Git.UserName)
	c.GitUserEmail = strings.TrimSpace(f.Git.UserEmail)
	c.WorkDir = strings.TrimSpace(f.WorkDir)
	c.NeutralExitCode = f.NeutralExitCode
}

func (c *Config) applyDefaults() {
	c.LogLevel = strings.ToLower(c.LogLevel)
	c.LogFormat = strings.ToLower(c.LogFormat)
	c.MergeMethod = strings.ToLower(c.MergeMethod)

	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = defaultLogFormat
	}
	if c.MergeMethod == "" {
		c.MergeMethod = defaultMergeMethod
	}
	if c.MergeLabel == "" {
		c.MergeLabel = labels.DefaultMergeLabel
	}
	if c.RebaseLabel == "" {
		c.RebaseLabel = labels.DefaultRebaseLabel
	}
	if c.GitUserName == "" {
		c.GitUserName = defaultGitUserName
	}
	if c.GitUserEmail == "" {
		c.GitUserEmail = defaultGitUserEmail
	}
	if c.Verbose {
		c.LogLevel = "debug"
	}
}

func overrideString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func overrideBool(dst *bool, key string) error {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*dst = v
	return nil
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/go-git/go-git/v5"
	"github.com/jaxxstorm/semrel"
)

// Version will be set by build process
var Version = "dev"

type CLI struct {
	Repo                string   `short:"r" help:"Repository path (default: current directory)"`
	Scope               string   `short:"s" help:"Change scope: major, minor or patch (default: patch)"`
	Stage               string   `help:"Release stage (default: first configured stage)"`
	Branch              string   `short:"b" env:"SEMREL_BRANCH" help:"Override the current branch name (e.g. for a detached HEAD in CI)"`
	Config              string   `short:"c" help:"Configuration file (default: .semrel.yaml in the repository)"`
	ReleaseBranch       []string `help:"Additional release branch pattern, may be repeated"`
	TagPattern          string   `help:"Regex pattern to filter tags (e.g., '^sdk/')"`
	TagPrefix           string   `help:"Prefix of release tags (default: v)"`
	BuildMetadata       string   `help:"Build metadata to append: none, commit, distance or distance-commit"`
	NoEnforcePrecedence bool     `help:"Allow tagged versions lower than the nearest existing tag"`
	CreateTag           bool     `help:"Create the release tag at HEAD when a release is inferred"`
	Tag                 bool     `short:"t" help:"Print the tag name instead of the version"`
	Summary             bool     `help:"Print a human readable summary"`
	JSON                bool     `short:"j" help:"Output as JSON"`
	Verbose             bool     `short:"v" help:"Log inference details to stderr"`
	ShowVersion         bool     `help:"Show version information" name:"version"`
}

func main() {
	var cli CLI

	kong.Parse(&cli,
		kong.Name("semrel"),
		kong.Description("Infer the next semantic version from Git history, branch and working tree state"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": Version,
		},
	)

	err := cli.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (c *CLI) Run() error {
	if c.ShowVersion {
		return c.showVersion()
	}
	return c.inferVersion()
}

func (c *CLI) showVersion() error {
	versionInfo := map[string]string{
		"version": Version,
		"name":    "semrel",
	}

	if c.JSON {
		return json.NewEncoder(os.Stdout).Encode(versionInfo)
	}

	fmt.Printf("semrel version %s\n", Version)
	return nil
}

func (c *CLI) inferVersion() error {
	repoPath := c.Repo
	if repoPath == "" {
		var err error
		repoPath, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("getting current directory: %w", err)
		}
	}

	configPath := c.Config
	if configPath == "" {
		configPath = filepath.Join(repoPath, semrel.DefaultConfigFile)
	}
	cfg, err := semrel.LoadConfig(configPath)
	if err != nil {
		return err
	}

	repo, err := semrel.OpenRepository(repoPath)
	if err != nil {
		return fmt.Errorf("opening repository: %w", err)
	}

	return c.release(os.Stdout, os.Stderr, repo, cfg)
}

// release infers the version of repo, optionally tags it, and prints the
// result to w. Notices go to errW.
func (c *CLI) release(w, errW io.Writer, repo *git.Repository, cfg *semrel.Config) error {
	inferrer, err := c.inferrer(cfg)
	if err != nil {
		return err
	}

	tagPattern := c.TagPattern
	if tagPattern == "" {
		tagPattern = cfg.TagPattern
	}
	gitRepo, err := semrel.NewGitRepository(repo,
		semrel.WithBranch(c.Branch),
		semrel.WithTagPattern(tagPattern),
	)
	if err != nil {
		return err
	}

	result, err := inferrer.Infer(gitRepo, semrel.Request{Scope: c.Scope, Stage: c.Stage})
	if err != nil {
		return fmt.Errorf("inferring version: %w", err)
	}

	prefix := c.tagPrefix(cfg)
	if c.CreateTag && result != nil && result.CreateTag {
		if err := gitRepo.CreateTag(result.TagName(prefix)); err != nil {
			return err
		}
	}

	return c.writeResult(w, errW, result, prefix)
}

func (c *CLI) inferrer(cfg *semrel.Config) (*semrel.Inferrer, error) {
	opts, err := cfg.Options()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if len(c.ReleaseBranch) > 0 {
		opts = append(opts, semrel.WithReleaseBranches(c.ReleaseBranch...))
	}
	if c.BuildMetadata != "" {
		mode, err := semrel.ParseBuildMetadata(c.BuildMetadata)
		if err != nil {
			return nil, err
		}
		opts = append(opts, semrel.WithBuildMetadata(mode))
	}
	if c.NoEnforcePrecedence {
		opts = append(opts, semrel.WithEnforcePrecedence(false))
	}
	if logger := newLogger(c.Verbose); logger != nil {
		opts = append(opts, semrel.WithLogger(logger))
	}

	return semrel.New(opts...)
}

func (c *CLI) tagPrefix(cfg *semrel.Config) string {
	if c.TagPrefix != "" {
		return c.TagPrefix
	}
	return cfg.Prefix()
}

func (c *CLI) writeResult(w, errW io.Writer, result *semrel.ReleaseVersion, prefix string) error {
	if c.JSON {
		return json.NewEncoder(w).Encode(result)
	}

	if result == nil {
		_, err := fmt.Fprintln(errW, "nothing to release")
		return err
	}

	var output string
	switch {
	case c.Summary:
		output = renderSummary(result, prefix)
	case c.Tag:
		output = result.TagName(prefix)
	default:
		output = result.Version
	}
	_, err := fmt.Fprintln(w, output)
	return err
}

func newLogger(verbose bool) *slog.Logger {
	if !verbose {
		return nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

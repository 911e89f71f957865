package cmd

import (
	"context"
	"os"
	"path/filepath"

	"github.com/djcass44/deb-resolver/cmd/cache"
	v1 "github.com/djcass44/deb-resolver/pkg/api/v1"
	"github.com/djcass44/deb-resolver/pkg/downloader"
	"github.com/djcass44/deb-resolver/pkg/packages/debian"
	"github.com/djcass44/deb-resolver/pkg/requestutil"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/util/yaml"
)

const (
	flagConfig      = "config"
	flagCacheDir    = cache.FlagCacheDir
	flagRetries     = "retries"
	flagConcurrency = "concurrency"
	flagArch        = "arch"
)

// addConfigFlags registers the flags shared by every command that
// reads a configuration file.
func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringP(flagConfig, "c", "", "path to a resolver configuration file")
	cmd.Flags().String(flagCacheDir, "", "cache directory (defaults to user cache dir)")
	cmd.Flags().Int(flagRetries, 3, "number of times to retry failed HTTP requests")
	cmd.Flags().Int(flagConcurrency, 4, "number of indices to fetch at once")
	cmd.Flags().String(flagArch, "", "native architecture (overrides the configuration file)")

	_ = cmd.MarkFlagRequired(flagConfig)
	_ = cmd.MarkFlagFilename(flagConfig, ".yaml", ".yml", ".json")
	_ = cmd.MarkFlagDirname(flagCacheDir)
}

func readConfig(s string) (v1.Resolve, error) {
	f, err := os.Open(s)
	if err != nil {
		return v1.Resolve{}, err
	}
	defer f.Close()

	var config v1.Resolve
	if err := yaml.NewYAMLOrJSONDecoder(f, 4).Decode(&config); err != nil {
		return v1.Resolve{}, err
	}
	return config, nil
}

type session struct {
	cfg    v1.Resolve
	path   string
	keeper *debian.PackageKeeper
}

// newSession reads the configuration named by the command flags
// and loads every repository it lists.
func newSession(ctx context.Context, cmd *cobra.Command) (*session, error) {
	log := logr.FromContextOrDiscard(ctx)

	configPath, _ := cmd.Flags().GetString(flagConfig)
	cacheDir, _ := cmd.Flags().GetString(flagCacheDir)
	retries, _ := cmd.Flags().GetInt(flagRetries)
	concurrency, _ := cmd.Flags().GetInt(flagConcurrency)
	arch, _ := cmd.Flags().GetString(flagArch)

	cfg, err := readConfig(configPath)
	if err != nil {
		return nil, err
	}
	configPath, err = filepath.Abs(configPath)
	if err != nil {
		return nil, err
	}
	cacheDir, err = filepath.Abs(cache.Dir(cacheDir))
	if err != nil {
		return nil, err
	}

	// set our working directory to the directory containing the
	// configuration file so that relative file paths resolve
	wd := filepath.Dir(configPath)
	_ = os.Chdir(wd)
	log.V(1).Info("updating working directory", "dir", wd)

	if arch != "" {
		cfg.Spec.Architecture = arch
	}
	log.V(1).Info("read configuration", "name", cfg.Name, "repositories", len(cfg.Spec.Repositories), "files", len(cfg.Spec.Files))

	dl, err := downloader.NewDownloader(cacheDir)
	if err != nil {
		return nil, err
	}

	keeper, err := debian.NewPackageKeeper(ctx, cfg.Spec, debian.Options{
		HTTPClient:  requestutil.NewRetryClient(ctx, retries),
		Downloader:  dl,
		Concurrency: concurrency,
	})
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, path: configPath, keeper: keeper}, nil
}

// requestedNames returns every Debian package named by the
// configuration.
func requestedNames(cfg v1.ResolveSpec) []string {
	var out []string
	for _, p := range cfg.Packages {
		if p.Type != "" && p.Type != v1.PackageDebian {
			continue
		}
		out = append(out, p.Names...)
	}
	return out
}

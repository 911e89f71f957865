package cmd

import (
	"errors"
	"fmt"

	"github.com/djcass44/deb-resolver/pkg/lockfile"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
)

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "generate a lockfile",
	RunE:  lock,
}

const flagCheck = "check"

func init() {
	addConfigFlags(lockCmd)
	lockCmd.Flags().Bool(flagCheck, false, "verify that the existing lockfile matches the configuration instead of writing one")
}

func lock(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	log := logr.FromContextOrDiscard(ctx)

	check, _ := cmd.Flags().GetBool(flagCheck)

	if check {
		configPath, _ := cmd.Flags().GetString(flagConfig)
		cfg, err := readConfig(configPath)
		if err != nil {
			return err
		}
		lockFile, err := lockfile.Read(ctx, configPath)
		if err != nil {
			return err
		}
		if err := lockFile.Validate(cfg.Spec); err != nil {
			return fmt.Errorf("lockfile is out of date: %w", err)
		}
		log.Info("lockfile is up to date", "packages", len(lockFile.Packages))
		return nil
	}

	s, err := newSession(ctx, cmd)
	if err != nil {
		return err
	}

	names := requestedNames(s.cfg.Spec)
	if len(names) == 0 && len(s.cfg.Spec.Files) == 0 {
		return errors.New("configuration does not name any packages or files")
	}

	lockFile := lockfile.New(s.cfg.Name, s.keeper.Architecture())

	// get file integrity
	log.Info("generating file checksums")
	for _, p := range s.keeper.Files() {
		lockFile.Add(p)
	}

	// get package integrity
	log.Info("generating package checksums")
	for _, name := range names {
		packageList, err := s.keeper.Resolve(ctx, name)
		if err != nil {
			return err
		}
		for _, p := range packageList {
			log.V(1).Info("locking package", "name", p.Name, "version", p.Version)
			lockFile.Add(p)
		}
	}

	log.Info("exporting lockfile", "packages", len(lockFile.Packages))
	return lockFile.Write(ctx, s.path)
}

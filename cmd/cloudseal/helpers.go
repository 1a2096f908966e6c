package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudsealorg/libcloudseal-go/config"
	"github.com/cloudsealorg/libcloudseal-go/store"
	"github.com/cloudsealorg/libcloudseal-go/vault"
)

// loadConfig resolves the effective configuration: defaults, then the
// config file when one exists, then flag overrides on top.
func loadConfig() (config.Config, error) {
	cfg := config.DefaultConfig()
	if dataDir != "" {
		cfg.DataDir = dataDir
	}

	path := configPath
	if path == "" {
		path = config.ConfigPath(cfg.DataDir)
	}

	loaded, err := config.LoadConfig(path)
	switch {
	case err == nil:
		cfg = loaded
		Logger.Debugf("loaded config from %s", path)
	case errors.Is(err, config.ErrConfigNotFound):
		Logger.Debugf("no config at %s, using defaults", path)
	default:
		return cfg, err
	}

	// Flags win over the file.
	if dataDir != "" {
		cfg.DataDir = dataDir
	}

	return cfg, config.ValidateConfig(cfg)
}

// openVault opens the on-disk vault described by the effective config.
// The caller owns the returned vault and must Close it.
func openVault(ctx context.Context) (*vault.Vault, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	Logger.Debugf("opening vault in %s", cfg.DataDir)
	v, err := vault.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if !v.Boot.LockAcquired {
		Logger.Warnf("another process held the startup lock; continued after grace period")
	}
	return v, nil
}

// lookupUser resolves a user name to its record.
func lookupUser(v *vault.Vault, name string) (*store.User, error) {
	u, err := v.Users.GetUserByName(name)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, fmt.Errorf("unknown user %q, create it with 'cloudseal user add %s'", name, name)
		}
		return nil, err
	}
	return u, nil
}

// resolveFile finds a file the user can see. The reference is tried as
// a file ID first, then as the name of a file the user owns, then as
// the name of a file shared with the user.
func resolveFile(v *vault.Vault, u *store.User, ref string) (*store.File, error) {
	if f, err := v.Files.GetFile(ref); err == nil {
		return f, nil
	}

	own, err := v.Files.ListFilesByOwner(u.ID)
	if err != nil {
		return nil, err
	}
	for _, f := range own {
		if f.Filename == ref {
			return f, nil
		}
	}

	grants, err := v.Shares.ListSharesByRecipient(u.ID)
	if err != nil {
		return nil, err
	}
	for _, g := range grants {
		f, err := v.Files.GetFile(g.FileID)
		if err != nil {
			return nil, err
		}
		if f.Filename == ref {
			return f, nil
		}
	}

	return nil, fmt.Errorf("no file %q visible to user %q", ref, u.Name)
}

// shortHash abbreviates a block hash for display.
func shortHash(hash string) string {
	if len(hash) <= 12 {
		return hash
	}
	return hash[:12] + "…"
}

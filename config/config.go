// Package config loads the resource manager's and VT cache's
// construction-time settings from a single TOML document (spec.md §6.5),
// using BurntSushi/toml the way the rest of the pack reaches for it.
package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Resource holds the resource manager's construction-time configuration:
// the filesystem root, the pack-discovery glob, and the loader thread's
// OS scheduling priority.
type Resource struct {
	RootPath       string `toml:"root_path"`
	PackGlob       string `toml:"pack_glob"`
	LoaderPriority int    `toml:"loader_priority"`
}

// LayerDescriptor is one physical-cache layer's GPU and on-disk pixel
// format plus its fixed per-page byte size.
type LayerDescriptor struct {
	GPUFormat     string `toml:"gpu_format"`
	UploadFormat  string `toml:"upload_format"`
	PageSizeBytes uint32 `toml:"page_size_bytes"`
}

// VirtualTexture holds the VT cache's immutable construction-time
// configuration (spec.md §6.5).
type VirtualTexture struct {
	PageCacheCapacityX        int               `toml:"page_cache_capacity_x"`
	PageCacheCapacityY        int               `toml:"page_cache_capacity_y"`
	PageResolutionWithBorders int               `toml:"page_resolution_with_borders"`
	PinCoarsestLODs           int               `toml:"pin_coarsest_lods"`
	Layers                    []LayerDescriptor `toml:"layer"`
}

// Config is the top-level document, loaded from a single TOML file.
type Config struct {
	Resource       Resource       `toml:"resource"`
	VirtualTexture VirtualTexture `toml:"virtual_texture"`
}

const (
	minCacheDim      = 8
	maxCacheProduct  = 4096
	fallbackCacheDim = 64
)

// Load reads and validates a Config from path. The capacity clamps from
// spec.md §6.5/§8 (floor each dimension at 8; if the product exceeds
// 4096, reset both to 64) are applied here rather than in the VT cache
// itself, so the cache only ever sees an already-legal configuration.
func Load(path string) (Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	cfg.VirtualTexture.normalize()
	if err := cfg.VirtualTexture.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (vt *VirtualTexture) normalize() {
	if vt.PageCacheCapacityX < minCacheDim {
		vt.PageCacheCapacityX = minCacheDim
	}
	if vt.PageCacheCapacityY < minCacheDim {
		vt.PageCacheCapacityY = minCacheDim
	}
	if vt.PageCacheCapacityX*vt.PageCacheCapacityY > maxCacheProduct {
		vt.PageCacheCapacityX = fallbackCacheDim
		vt.PageCacheCapacityY = fallbackCacheDim
	}
}

func (vt VirtualTexture) validate() error {
	if vt.PageResolutionWithBorders <= 8 || vt.PageResolutionWithBorders > 512 {
		return fmt.Errorf("config: page_resolution_with_borders %d out of range (8, 512]", vt.PageResolutionWithBorders)
	}
	if len(vt.Layers) == 0 {
		return fmt.Errorf("config: virtual_texture requires at least one layer")
	}
	return nil
}

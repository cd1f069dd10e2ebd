package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ridge.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

const baseLayer = `
[[virtual_texture.layer]]
gpu_format = "R8G8B8A8_UNORM"
upload_format = "R8G8B8A8_UNORM"
page_size_bytes = 65536
`

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, `
[resource]
root_path = "assets/"
pack_glob = "*.pak"
loader_priority = 1

[virtual_texture]
page_cache_capacity_x = 32
page_cache_capacity_y = 32
page_resolution_with_borders = 132
pin_coarsest_lods = 2
`+baseLayer)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Resource.RootPath != "assets/" {
		t.Errorf("RootPath = %q, want %q", cfg.Resource.RootPath, "assets/")
	}
	if cfg.VirtualTexture.PageCacheCapacityX != 32 || cfg.VirtualTexture.PageCacheCapacityY != 32 {
		t.Errorf("capacity = (%d, %d), want (32, 32)", cfg.VirtualTexture.PageCacheCapacityX, cfg.VirtualTexture.PageCacheCapacityY)
	}
	if len(cfg.VirtualTexture.Layers) != 1 {
		t.Fatalf("Layers len = %d, want 1", len(cfg.VirtualTexture.Layers))
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Errorf("Load of a missing file should error")
	}
}

func TestNormalizeFloorsBelowMinimum(t *testing.T) {
	path := writeConfig(t, `
[virtual_texture]
page_cache_capacity_x = 2
page_cache_capacity_y = 3
page_resolution_with_borders = 132
`+baseLayer)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.VirtualTexture.PageCacheCapacityX != minCacheDim || cfg.VirtualTexture.PageCacheCapacityY != minCacheDim {
		t.Errorf("capacity = (%d, %d), want both floored to %d", cfg.VirtualTexture.PageCacheCapacityX, cfg.VirtualTexture.PageCacheCapacityY, minCacheDim)
	}
}

func TestNormalizeResetsOnOversizedProduct(t *testing.T) {
	path := writeConfig(t, `
[virtual_texture]
page_cache_capacity_x = 100
page_cache_capacity_y = 100
page_resolution_with_borders = 132
`+baseLayer)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.VirtualTexture.PageCacheCapacityX != fallbackCacheDim || cfg.VirtualTexture.PageCacheCapacityY != fallbackCacheDim {
		t.Errorf("oversized product should reset to (%d, %d), got (%d, %d)", fallbackCacheDim, fallbackCacheDim, cfg.VirtualTexture.PageCacheCapacityX, cfg.VirtualTexture.PageCacheCapacityY)
	}
}

func TestNormalizeAllowsExactlyAtProductLimit(t *testing.T) {
	// 64 * 64 == 4096, the boundary itself must not trigger the reset.
	path := writeConfig(t, `
[virtual_texture]
page_cache_capacity_x = 64
page_cache_capacity_y = 64
page_resolution_with_borders = 132
`+baseLayer)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.VirtualTexture.PageCacheCapacityX != 64 || cfg.VirtualTexture.PageCacheCapacityY != 64 {
		t.Errorf("capacity at the exact product limit should be left alone, got (%d, %d)", cfg.VirtualTexture.PageCacheCapacityX, cfg.VirtualTexture.PageCacheCapacityY)
	}
}

func TestValidateRejectsPageResolutionOutOfRange(t *testing.T) {
	path := writeConfig(t, `
[virtual_texture]
page_cache_capacity_x = 32
page_cache_capacity_y = 32
page_resolution_with_borders = 4
`+baseLayer)

	if _, err := Load(path); err == nil {
		t.Errorf("page_resolution_with_borders below 8 should fail validation")
	}
}

func TestValidateRejectsNoLayers(t *testing.T) {
	path := writeConfig(t, `
[virtual_texture]
page_cache_capacity_x = 32
page_cache_capacity_y = 32
page_resolution_with_borders = 132
`)

	if _, err := Load(path); err == nil {
		t.Errorf("a virtual_texture with no layers should fail validation")
	}
}

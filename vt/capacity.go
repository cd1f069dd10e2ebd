package vt

import (
	"github.com/NOT-REAL-GAMES/ridge/gpu"
)

// validateCapacity cross-checks a freshly allocated atlas layer image
// against the driver's sparse-residency requirements query. The atlas is
// allocated as a single dense VK_IMAGE_TILING_OPTIMAL image, never as a
// sparse resource, so a driver reporting sparse memory requirements for
// it would mean our tiling assumptions in tileRect/commitTransfer don't
// hold on this device. Logged as a warning rather than an error since it
// can't be discovered before the device and image exist.
func validateCapacity(device gpu.Device, logger Logger, layerName string, image gpu.Image, cx, cy, tileRes int) {
	reqs := device.GetImageSparseMemoryRequirements(image)
	if len(reqs) == 0 {
		return
	}
	if logger == nil {
		return
	}
	footprint := uint64(cx*cy) * uint64(tileRes*tileRes)
	logger.Printf("vt: layer %q reported %d sparse memory requirement(s) for a dense atlas image (capacity %d tiles, %d texels); physical cache assumes non-sparse binding",
		layerName, len(reqs), cx*cy, footprint)
}

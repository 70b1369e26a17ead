// Package device opens a raw block device for direct, page-cache-bypassing I/O.
package device

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// Device is an opened handle to a raw block device. It is immutable for the
// lifetime of a run and is shared read-only across all workers: each worker
// registers Fd() as its own fixed file with the kernel.
type Device struct {
	path string
	fd   int
	size uint64
}

// Open opens path with O_RDWR|O_DIRECT and determines its size.
func Open(path string) (*Device, error) {
	return open(path, true)
}

// openWithoutDirect is used only by tests: some filesystems backing CI
// scratch files (tmpfs, overlayfs) reject O_DIRECT with EINVAL, but the
// rest of the open/size/alignment logic is worth exercising regardless.
func openWithoutDirect(path string) (*Device, error) {
	return open(path, false)
}

func open(path string, direct bool) (*Device, error) {
	flags := unix.O_RDWR
	if direct {
		flags |= unix.O_DIRECT
	}
	fd, err := unix.Open(path, flags, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	size, err := probeSize(fd, path)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("probe size of %s: %w", path, err)
	}

	return &Device{path: path, fd: fd, size: size}, nil
}

// probeSize tries fstat first (works for regular files used in tests), then
// falls back to the block-device size ioctl, then to sysfs.
func probeSize(fd int, path string) (uint64, error) {
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return 0, fmt.Errorf("fstat: %w", err)
	}
	if st.Size > 0 {
		return uint64(st.Size), nil
	}

	if size, err := blockDeviceSize(fd); err == nil && size > 0 {
		return size, nil
	}

	size, err := sysfsSize(path)
	if err != nil {
		return 0, fmt.Errorf("size unavailable via fstat, ioctl, or sysfs: %w", err)
	}
	return size, nil
}

// blockDeviceSize issues the BLKGETSIZE64 ioctl.
func blockDeviceSize(fd int) (uint64, error) {
	size, err := unix.IoctlGetUint64(fd, unix.BLKGETSIZE64)
	if err != nil {
		return 0, err
	}
	return size, nil
}

// sysfsSize reads /sys/class/block/<base>/size (in 512-byte sectors).
func sysfsSize(path string) (uint64, error) {
	base := filepath.Base(path)
	sizePath := filepath.Join("/sys/class/block", base, "size")
	data, err := os.ReadFile(sizePath)
	if err != nil {
		return 0, err
	}
	sectors, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", sizePath, err)
	}
	return sectors * 512, nil
}

// Path returns the path the device was opened from.
func (d *Device) Path() string { return d.path }

// Fd returns the kernel file descriptor backing this device.
func (d *Device) Fd() int { return d.fd }

// Size returns the device size in bytes.
func (d *Device) Size() uint64 { return d.size }

// Close releases the underlying file descriptor.
func (d *Device) Close() error {
	if d.fd < 0 {
		return nil
	}
	err := unix.Close(d.fd)
	d.fd = -1
	return err
}

// IsBlockDevice reports whether name (under /sys/class/block) backs a real
// block device rather than a filesystem-only loop/ram/device-mapper node:
// it has a "device" symlink pointing at a real driver.
func IsBlockDevice(name string) bool {
	_, err := os.Lstat(filepath.Join("/sys/class/block", name, "device"))
	return err == nil
}

// ListBlockDevices enumerates real block devices under /sys/class/block,
// filtering out filesystem/loop/ram/device-mapper nodes.
func ListBlockDevices() ([]string, error) {
	entries, err := os.ReadDir("/sys/class/block")
	if err != nil {
		return nil, fmt.Errorf("read /sys/class/block: %w", err)
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, "loop") || strings.HasPrefix(name, "ram") || strings.HasPrefix(name, "dm-") {
			continue
		}
		if !IsBlockDevice(name) {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// Package collector gathers the NTDS database facts from the target and
// derives the report metrics.
package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

const (
	// ntdsParametersKey holds the directory service configuration on a
	// domain controller.
	ntdsParametersKey = `HKLM:\SYSTEM\CurrentControlSet\Services\NTDS\Parameters`
	// ntdsDatabaseValue is the registry value naming the database file.
	ntdsDatabaseValue = "DSA Database file"
)

// Runner executes a PowerShell script on the target and returns its stdout.
// *connector.Session satisfies it.
type Runner interface {
	Run(ctx context.Context, script string) (string, error)
}

// Raw is the uncomputed sample read from the target. Both query paths
// produce the same bundle so Derive is the only place arithmetic happens.
type Raw struct {
	DatabasePath      string `json:"DatabasePath"`
	DatabaseSizeBytes uint64 `json:"DatabaseSizeBytes"`
	DriveTotalBytes   uint64 `json:"DriveTotalBytes"`
	DriveFreeBytes    uint64 `json:"DriveFreeBytes"`
}

// diskData mirrors the WMI output for logical disk info.
type diskData struct {
	DeviceID  string `json:"DeviceID"`
	Size      uint64 `json:"Size"`
	FreeSpace uint64 `json:"FreeSpace"`
}

// QueryDirect performs the collection as three individual management
// queries: registry path, database file size, then the hosting drive. The
// order is fixed because the drive letter comes from the resolved path.
func QueryDirect(ctx context.Context, runner Runner) (Raw, error) {
	var raw Raw

	path, err := runner.Run(ctx, fmt.Sprintf(
		`$ErrorActionPreference = 'Stop'; (Get-ItemProperty -Path '%s' -Name '%s').'%s'`,
		ntdsParametersKey, ntdsDatabaseValue, ntdsDatabaseValue))
	if err != nil {
		return Raw{}, fmt.Errorf("failed to read database location: %w", err)
	}
	if path == "" {
		return Raw{}, errors.New("database file path not found under the NTDS parameters key")
	}
	raw.DatabasePath = path

	sizeOut, err := runner.Run(ctx, fmt.Sprintf(
		`$ErrorActionPreference = 'Stop'; (Get-Item -LiteralPath '%s').Length`, path))
	if err != nil {
		return Raw{}, fmt.Errorf("failed to query database file size: %w", err)
	}
	size, err := strconv.ParseUint(sizeOut, 10, 64)
	if err != nil {
		return Raw{}, fmt.Errorf("unexpected database file size %q for %s: %w", sizeOut, path, err)
	}
	raw.DatabaseSizeBytes = size

	drive := string(path[0]) + ":"
	diskOut, err := runner.Run(ctx, fmt.Sprintf(
		`$ErrorActionPreference = 'Stop'; Get-WmiObject Win32_LogicalDisk -Filter "DeviceID='%s'" | Select-Object DeviceID, Size, FreeSpace | ConvertTo-Json -Compress`,
		drive))
	if err != nil {
		return Raw{}, fmt.Errorf("failed to query drive %s: %w", drive, err)
	}
	disk, err := parseDiskData(diskOut)
	if err != nil {
		return Raw{}, fmt.Errorf("drive %s: %w", drive, err)
	}
	raw.DriveTotalBytes = disk.Size
	raw.DriveFreeBytes = disk.FreeSpace

	return raw, nil
}

// parseDiskData handles ConvertTo-Json output, which is a single object for
// one disk and an array when the filter matches several.
func parseDiskData(output string) (diskData, error) {
	if output == "" {
		return diskData{}, errors.New("no logical disk data returned")
	}

	var single diskData
	if err := json.Unmarshal([]byte(output), &single); err == nil {
		return single, nil
	}

	var list []diskData
	if err := json.Unmarshal([]byte(output), &list); err != nil {
		return diskData{}, fmt.Errorf("failed to parse disk data: %w, raw output: %s", err, output)
	}
	if len(list) == 0 {
		return diskData{}, errors.New("no logical disk data returned")
	}
	return list[0], nil
}

// remoteCollectionScript performs the whole collection locally on the target
// and emits one compact JSON bundle, keeping the hostname path to a single
// round trip.
const remoteCollectionScript = `$ErrorActionPreference = 'Stop'
$path = (Get-ItemProperty -Path 'HKLM:\SYSTEM\CurrentControlSet\Services\NTDS\Parameters' -Name 'DSA Database file').'DSA Database file'
if ([string]::IsNullOrEmpty($path)) { throw 'database file path not found under the NTDS parameters key' }
$size = (Get-Item -LiteralPath $path).Length
$drive = $path.Substring(0,1) + ':'
$disk = Get-WmiObject Win32_LogicalDisk -Filter "DeviceID='$drive'"
[PSCustomObject]@{
    DatabasePath      = $path
    DatabaseSizeBytes = [uint64]$size
    DriveTotalBytes   = [uint64]$disk.Size
    DriveFreeBytes    = [uint64]$disk.FreeSpace
} | ConvertTo-Json -Compress`

// QueryRemote runs the self-contained collection script on the target and
// parses the returned bundle.
func QueryRemote(ctx context.Context, runner Runner) (Raw, error) {
	output, err := runner.Run(ctx, remoteCollectionScript)
	if err != nil {
		return Raw{}, fmt.Errorf("remote collection failed: %w", err)
	}
	if output == "" {
		return Raw{}, errors.New("remote collection returned no data")
	}

	var raw Raw
	if err := json.Unmarshal([]byte(output), &raw); err != nil {
		return Raw{}, fmt.Errorf("failed to parse remote collection output: %w, raw output: %s", err, output)
	}
	if raw.DatabasePath == "" {
		return Raw{}, errors.New("database file path not found under the NTDS parameters key")
	}
	return raw, nil
}

package collector

import (
	"math"
	"strings"
	"testing"
)

func TestDerive(t *testing.T) {
	raw := Raw{
		DatabasePath:      `E:\Windows\NTDS\ntds.dit`,
		DatabaseSizeBytes: 15728640, // 15 MiB
		DriveTotalBytes:   100000000000,
		DriveFreeBytes:    15000000000,
	}

	m, err := Derive(raw, DefaultWhitespacePercent)
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}

	if m.DatabaseSizeMB != 15.00 {
		t.Errorf("DatabaseSizeMB = %v, want 15.00", m.DatabaseSizeMB)
	}
	if m.WhitespaceMB != 3.00 {
		t.Errorf("WhitespaceMB = %v, want 3.00", m.WhitespaceMB)
	}
	if m.WhitespacePercent != 20 {
		t.Errorf("WhitespacePercent = %v, want 20", m.WhitespacePercent)
	}
	if m.DriveUsedPercent != 85.00 {
		t.Errorf("DriveUsedPercent = %v, want 85.00", m.DriveUsedPercent)
	}
	if want := math.Round(15000000000.0/(1<<20)*100) / 100; m.DriveFreeMB != want {
		t.Errorf("DriveFreeMB = %v, want %v", m.DriveFreeMB, want)
	}
	if m.DatabasePath != raw.DatabasePath {
		t.Errorf("DatabasePath = %q, want %q", m.DatabasePath, raw.DatabasePath)
	}
}

func TestDeriveRounding(t *testing.T) {
	raw := Raw{
		DatabasePath:      `C:\Windows\NTDS\ntds.dit`,
		DatabaseSizeBytes: 10000000,
		DriveTotalBytes:   3,
		DriveFreeBytes:    1,
	}

	m, err := Derive(raw, DefaultWhitespacePercent)
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}

	// 10000000 / 1048576 = 9.5367... -> 9.54
	if m.DatabaseSizeMB != 9.54 {
		t.Errorf("DatabaseSizeMB = %v, want 9.54", m.DatabaseSizeMB)
	}
	// 2/3 * 100 = 66.666... -> 66.67
	if m.DriveUsedPercent != 66.67 {
		t.Errorf("DriveUsedPercent = %v, want 66.67", m.DriveUsedPercent)
	}
}

func TestDeriveCustomWhitespacePercent(t *testing.T) {
	raw := Raw{
		DatabasePath:      `C:\Windows\NTDS\ntds.dit`,
		DatabaseSizeBytes: 15728640,
		DriveTotalBytes:   1000,
		DriveFreeBytes:    500,
	}

	m, err := Derive(raw, 10)
	if err != nil {
		t.Fatalf("Derive() error = %v", err)
	}
	if m.WhitespaceMB != 1.50 {
		t.Errorf("WhitespaceMB = %v, want 1.50", m.WhitespaceMB)
	}
	if m.WhitespacePercent != 10 {
		t.Errorf("WhitespacePercent = %v, want 10", m.WhitespacePercent)
	}
}

func TestDeriveZeroTotalIsError(t *testing.T) {
	raw := Raw{
		DatabasePath:      `C:\Windows\NTDS\ntds.dit`,
		DatabaseSizeBytes: 15728640,
		DriveTotalBytes:   0,
		DriveFreeBytes:    0,
	}

	_, err := Derive(raw, DefaultWhitespacePercent)
	if err == nil {
		t.Fatal("Derive() with zero total bytes should fail, not produce NaN")
	}
	if !strings.Contains(err.Error(), "drive information unavailable") {
		t.Errorf("error %q should name the drive problem", err)
	}
}

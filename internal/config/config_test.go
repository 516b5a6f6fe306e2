package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "4000" {
		t.Errorf("port = %q, want 4000", cfg.Port)
	}
	if cfg.TimeZone != "UTC" {
		t.Errorf("time zone = %q, want UTC", cfg.TimeZone)
	}
	if cfg.Snapshot.RetentionDays != 30 {
		t.Errorf("retention = %d, want 30", cfg.Snapshot.RetentionDays)
	}
	if cfg.Snapshot.Enabled() {
		t.Error("snapshot should be disabled without S3 settings")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("TASKTALLY_PORT", "9999")
	t.Setenv("TASKTALLY_TZ", "Europe/Berlin")
	t.Setenv("TASKTALLY_SNAPSHOT_RETENTION_DAYS", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9999" {
		t.Errorf("port = %q, want 9999", cfg.Port)
	}
	if cfg.TimeZone != "Europe/Berlin" {
		t.Errorf("time zone = %q, want Europe/Berlin", cfg.TimeZone)
	}
	if cfg.Snapshot.RetentionDays != 7 {
		t.Errorf("retention = %d, want 7", cfg.Snapshot.RetentionDays)
	}
}

func TestLoadRejectsBadRetention(t *testing.T) {
	t.Setenv("TASKTALLY_SNAPSHOT_RETENTION_DAYS", "zero")
	if _, err := Load(); err == nil {
		t.Error("expected error for non-numeric retention")
	}

	t.Setenv("TASKTALLY_SNAPSHOT_RETENTION_DAYS", "-1")
	if _, err := Load(); err == nil {
		t.Error("expected error for negative retention")
	}
}

func TestSnapshotEnabled(t *testing.T) {
	sc := SnapshotConfig{
		S3Bucket:    "backups",
		S3AccessKey: "key",
		S3SecretKey: "secret",
		Passphrase:  "hunter2",
	}
	if !sc.Enabled() {
		t.Error("expected enabled with all settings present")
	}

	sc.Passphrase = ""
	if sc.Enabled() {
		t.Error("expected disabled without passphrase")
	}
}

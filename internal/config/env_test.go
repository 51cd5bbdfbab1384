package config

import "testing"

func TestGetBool(t *testing.T) {
	t.Setenv("DB_AUTO_MIGRATE", "false")
	if GetBool("DB_AUTO_MIGRATE", true) {
		t.Fatalf("explicit false must win over the fallback")
	}

	t.Setenv("DB_AUTO_MIGRATE", "nonsense")
	if !GetBool("DB_AUTO_MIGRATE", true) {
		t.Fatalf("unparseable value must fall back")
	}

	if GetBool("UNSET_BOOL_KEY", false) {
		t.Fatalf("unset key must fall back")
	}
}

func TestLoadMigrateOnBoot(t *testing.T) {
	t.Setenv("DB_AUTO_MIGRATE", "0")
	if Load().MigrateOnBoot {
		t.Fatalf("DB_AUTO_MIGRATE=0 must disable boot migrations")
	}
}

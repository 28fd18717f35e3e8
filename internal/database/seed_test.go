// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"testing"
)

func TestSeedIdempotent(t *testing.T) {
	db, err := Connect(testDSN())
	if err != nil {
		t.Skipf("skipping: DB not available: %v", err)
	}
	defer db.Close()

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	// Seed only creates a superadmin when none exists, so calling it twice
	// must succeed and leave at least one in place.
	if err := Seed(db, "root@seed-test.local", "changeme"); err != nil {
		t.Fatalf("first Seed: %v", err)
	}
	if err := Seed(db, "root@seed-test.local", "changeme"); err != nil {
		t.Fatalf("second Seed: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM users WHERE role = 'SUPERADMIN'").Scan(&count); err != nil {
		t.Fatalf("count superadmins: %v", err)
	}
	if count < 1 {
		t.Errorf("expected at least 1 superadmin, got %d", count)
	}
}

func TestSeedWithoutEmailIsNoop(t *testing.T) {
	// No database needed: the empty email short-circuits before any query.
	if err := Seed(nil, "", ""); err != nil {
		t.Fatalf("Seed with empty email: %v", err)
	}
}

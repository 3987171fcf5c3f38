package main

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/viant/patchline/service"
)

func TestCLIFlow_CreateCommitLoadStats(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "patchline.sqlite")

	createCmd([]string{"--db", dbPath, "--name", "notes"})

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()
	var docID string
	if err := db.QueryRow(`SELECT uuid FROM documents WHERE name = ?`, "notes").Scan(&docID); err != nil {
		t.Fatalf("select document: %v", err)
	}
	if docID == "" {
		t.Fatalf("expected a document id")
	}

	contentFile := filepath.Join(t.TempDir(), "content.txt")
	if err := os.WriteFile(contentFile, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write content: %v", err)
	}
	commitCmd([]string{"--db", dbPath, "--doc", docID, "--file", contentFile, "--timestamp", "100"})
	if err := os.WriteFile(contentFile, []byte("hello world"), 0o644); err != nil {
		t.Fatalf("write content: %v", err)
	}
	commitCmd([]string{"--db", dbPath, "--doc", docID, "--file", contentFile, "--timestamp", "200"})

	var patchCount int
	if err := db.QueryRow(`SELECT COUNT(*) FROM patches WHERE document_uuid = ?`, docID).Scan(&patchCount); err != nil {
		t.Fatalf("count patches: %v", err)
	}
	if patchCount != 2 {
		t.Fatalf("patch count: got %d, want 2", patchCount)
	}

	svc, err := service.NewService(service.WithDSN(dbPath))
	if err != nil {
		t.Fatalf("service init: %v", err)
	}
	defer func() { _ = svc.Close() }()
	if got, err := svc.LoadText(ctx, docID, 150); err != nil || got != "hello" {
		t.Fatalf("LoadText(150): got %q err=%v, want hello", got, err)
	}
	if got, err := svc.LoadText(ctx, docID, 250); err != nil || got != "hello world" {
		t.Fatalf("LoadText(250): got %q err=%v, want hello world", got, err)
	}
	stats, err := svc.Stats(ctx, docID)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.PatchCount != 2 {
		t.Fatalf("stats patch count: got %d, want 2", stats.PatchCount)
	}
}

func TestDetectDriver(t *testing.T) {
	cases := []struct {
		dsn    string
		driver string
		ok     bool
	}{
		{"postgres://user@host/db", "postgres", true},
		{"user:pw@tcp(host:3306)/db", "mysql", true},
		{"bigquery://project/dataset", "bigquery", true},
		{"history.sqlite", "sqlite", true},
		{":memory:", "sqlite", true},
		{"", "", false},
		{"something-else", "", false},
	}
	for _, tc := range cases {
		driver, ok := detectDriver(tc.dsn)
		if ok != tc.ok || driver != tc.driver {
			t.Fatalf("detectDriver(%q): got (%q,%v), want (%q,%v)", tc.dsn, driver, ok, tc.driver, tc.ok)
		}
	}
}

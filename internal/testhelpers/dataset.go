// Package testhelpers provides shared fixtures for package tests.
package testhelpers

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Priorities are the labels of the synthetic dataset, sorted.
var Priorities = []string{"critical", "high", "low", "medium"}

var phrases = map[string][]string{
	"critical": {
		"server is down and not responding",
		"critical security breach detected in admin panel",
		"production database outage all users affected",
		"payment system crashed customers cannot pay",
		"data loss after server crash urgent",
		"security breach exposed customer passwords",
	},
	"high": {
		"login page fails with server error for many users",
		"checkout fails intermittently with timeout error",
		"email notifications stopped sending since morning",
		"api returns error for mobile users",
		"reports fail to load with server error",
		"users locked out after password reset error",
	},
	"medium": {
		"application is slow during peak hours",
		"search results load slowly on dashboard",
		"export to csv takes several minutes",
		"dashboard charts render slowly sometimes",
		"profile page slow to load images",
		"notifications arrive late by few minutes",
	},
	"low": {
		"could you add dark mode feature",
		"please add option to change font size",
		"typo on the about page footer",
		"suggest adding keyboard shortcuts feature",
		"would like dark theme for reports",
		"minor alignment issue on settings page",
	},
}

var suffixes = []string{"", " today", " again", " this week", " reported by customer"}

// ComplaintRows returns perClass rows for each priority, interleaved by class.
func ComplaintRows(perClass int) [][]string {
	rows := make([][]string, 0, perClass*len(Priorities))
	for i := range perClass {
		for _, p := range Priorities {
			list := phrases[p]
			text := list[i%len(list)] + suffixes[(i/len(list))%len(suffixes)]
			rows = append(rows, []string{text, p})
		}
	}
	return rows
}

// ComplaintCSV renders ComplaintRows as CSV with the standard header.
func ComplaintCSV(perClass int) string {
	var b strings.Builder
	w := csv.NewWriter(&b)
	_ = w.Write([]string{"complaint_text", "priority"})
	_ = w.WriteAll(ComplaintRows(perClass))
	return b.String()
}

// WriteDataset writes a synthetic dataset into a temp dir and returns its path.
func WriteDataset(t *testing.T, perClass int) string {
	t.Helper()
	return WriteFile(t, "data.csv", ComplaintCSV(perClass))
}

// WriteFile writes body to name inside a fresh temp dir and returns the path.
func WriteFile(t *testing.T, name, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

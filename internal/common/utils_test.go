package common

import "testing"

func TestContainsAnyFoldMatchesCaseInsensitively(t *testing.T) {
	if !ContainsAnyFold("Breezy and Cool", "wind", "BREEZY") {
		t.Fatalf("expected case-insensitive match on BREEZY")
	}
	if ContainsAnyFold("Sunny and calm", "wind", "gust", "breezy") {
		t.Fatalf("expected no match for calm conditions")
	}
}

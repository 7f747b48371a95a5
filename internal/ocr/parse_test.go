package ocr

import "testing"

func TestParseReceiptText(t *testing.T) {
	text := "CORNER MART\n123 Main St\nCoffee 3.50\nBagel 2.25\nTOTAL: $5.75\n2026-03-14 10:22"

	meta := ParseReceiptText(text)
	if meta == nil {
		t.Fatal("Expected metadata, got nil")
	}
	if meta.Merchant != "CORNER MART" {
		t.Errorf("Expected merchant 'CORNER MART', got %q", meta.Merchant)
	}
	if meta.Amount != 5.75 {
		t.Errorf("Expected amount 5.75, got %v", meta.Amount)
	}
	if meta.Date != "2026-03-14" {
		t.Errorf("Expected date '2026-03-14', got %q", meta.Date)
	}
}

func TestParseReceiptTextFuzzyKeyword(t *testing.T) {
	// OCR often reads TOTAL as T0TAL; the labeled line should still win
	// over the larger itemized value above it.
	text := "SHOP\nWidget 99.99\nDiscount 95.00\nT0TAL 4.99"

	meta := ParseReceiptText(text)
	if meta == nil {
		t.Fatal("Expected metadata, got nil")
	}
	if meta.Amount != 4.99 {
		t.Errorf("Expected labeled amount 4.99, got %v", meta.Amount)
	}
}

func TestParseReceiptTextLargestValueFallback(t *testing.T) {
	text := "SHOP\nItem A 2.00\nItem B 7.45"

	meta := ParseReceiptText(text)
	if meta == nil {
		t.Fatal("Expected metadata, got nil")
	}
	if meta.Amount != 7.45 {
		t.Errorf("Expected fallback amount 7.45, got %v", meta.Amount)
	}
}

func TestParseReceiptTextSlashDate(t *testing.T) {
	text := "SHOP\nTotal 10.00\n03/14/2026"

	meta := ParseReceiptText(text)
	if meta == nil {
		t.Fatal("Expected metadata, got nil")
	}
	if meta.Date != "03/14/2026" {
		t.Errorf("Expected date '03/14/2026', got %q", meta.Date)
	}
}

func TestParseReceiptTextEmpty(t *testing.T) {
	if meta := ParseReceiptText(""); meta != nil {
		t.Errorf("Expected nil metadata for empty text, got %+v", meta)
	}
	if meta := ParseReceiptText("\n  \n\t\n"); meta != nil {
		t.Errorf("Expected nil metadata for blank text, got %+v", meta)
	}
}

func TestFindAmountNoMoney(t *testing.T) {
	meta := ParseReceiptText("CORNER MART\nthanks for shopping")
	if meta == nil {
		t.Fatal("Expected metadata, got nil")
	}
	if meta.Amount != 0 {
		t.Errorf("Expected zero amount, got %v", meta.Amount)
	}
	if meta.Merchant != "CORNER MART" {
		t.Errorf("Expected merchant kept, got %q", meta.Merchant)
	}
}

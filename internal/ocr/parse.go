package ocr

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/arbovm/levenshtein"

	"go-receipt-capture/pkg/models"
)

// Keywords that label the amount line on most receipts. OCR frequently
// mangles a character or two, so candidates are matched fuzzily.
var amountKeywords = []string{"total", "amount", "balance", "due"}

// maxKeywordDistance tolerates one substituted or dropped character,
// which covers the common 0/O and 1/l confusions.
const maxKeywordDistance = 1

var (
	moneyPattern = regexp.MustCompile(`(\d{1,6})[.,](\d{2})\b`)
	datePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`),
		regexp.MustCompile(`\b\d{1,2}[/.-]\d{1,2}[/.-]\d{2,4}\b`),
	}
)

// ParseReceiptText parses raw OCR output into receipt metadata. Returns
// nil when no field could be recognized.
func ParseReceiptText(text string) *models.ReceiptMetadata {
	lines := splitLines(text)
	if len(lines) == 0 {
		return nil
	}

	meta := &models.ReceiptMetadata{
		Merchant: lines[0],
		Amount:   findAmount(lines),
		Date:     findDate(lines),
	}
	if meta.Merchant == "" && meta.Amount == 0 && meta.Date == "" {
		return nil
	}
	return meta
}

func splitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// findAmount scans for a line labeled with an amount keyword and returns
// its money value. A labeled line wins over unlabeled ones; when several
// labeled lines exist the largest value is kept, since "TOTAL" follows
// the itemized amounts.
func findAmount(lines []string) float64 {
	var labeled, fallback float64
	for _, line := range lines {
		value, ok := parseMoney(line)
		if !ok {
			continue
		}
		if hasAmountKeyword(line) {
			if value > labeled {
				labeled = value
			}
		} else if value > fallback {
			fallback = value
		}
	}
	if labeled > 0 {
		return labeled
	}
	return fallback
}

func hasAmountKeyword(line string) bool {
	for _, token := range strings.Fields(strings.ToLower(line)) {
		token = strings.Trim(token, ":;,.$")
		if len(token) < 3 {
			continue
		}
		for _, keyword := range amountKeywords {
			if levenshtein.Distance(token, keyword) <= maxKeywordDistance {
				return true
			}
		}
	}
	return false
}

func parseMoney(line string) (float64, bool) {
	match := moneyPattern.FindStringSubmatch(line)
	if match == nil {
		return 0, false
	}
	value, err := strconv.ParseFloat(match[1]+"."+match[2], 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

func findDate(lines []string) string {
	for _, line := range lines {
		for _, pattern := range datePatterns {
			if match := pattern.FindString(line); match != "" {
				return match
			}
		}
	}
	return ""
}

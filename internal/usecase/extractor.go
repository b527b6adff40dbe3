package usecase

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/cardlens/backend/internal/domain"
)

// Package-level compiled regex patterns for performance
var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

	// Digit groups joined by at most one separator each: "010-1234-5678",
	// "02 123 4567", "+82 10 1234 5678", "01012345678"
	phonePattern = regexp.MustCompile(`\+?\d{1,4}(?:[-. ]?\d{2,4}){1,4}`)

	websitePattern = regexp.MustCompile(`(?i)\b(?:https?://\S+|www\.\S+|[a-z0-9][a-z0-9\-]*(?:\.[a-z0-9\-]+)*\.(?:com|co\.kr|or\.kr|kr|net|org|io|ai|dev)(?:/\S*)?)`)

	multiSpacePattern = regexp.MustCompile(`\s+`)
)

// faxLabels mark a line whose numbers are fax numbers
var faxLabels = []string{"fax", "f.", "f:", "팩스"}

// mobileLabels mark a line whose numbers are mobile numbers
var mobileLabels = []string{"mobile", "cell", "hp", "h.p", "m.", "m:", "휴대폰", "휴대전화", "모바일"}

// mobilePrefixes are Korean mobile carrier prefixes (and their +82 forms,
// which normalize back to a leading zero)
var mobilePrefixes = []string{"010", "011", "016", "017", "018", "019"}

// organizationMarkers flag a line as a company name
var organizationMarkers = []string{
	"주식회사", "(주)", "㈜", "유한회사", "그룹",
	"inc", "inc.", "ltd", "ltd.", "llc", "corp", "corp.", "co.",
	"company", "group", "holdings", "partners", "studio", "lab", "labs",
}

// titleWords is the job-title vocabulary, matched token-wise (Latin) or by
// substring (Hangul). Intentionally tunable; tests pin the behavior.
var titleWords = map[string]bool{
	// English
	"ceo": true, "cto": true, "cfo": true, "coo": true, "cio": true,
	"president": true, "founder": true, "cofounder": true, "co-founder": true,
	"director": true, "manager": true, "lead": true, "head": true,
	"engineer": true, "developer": true, "designer": true, "architect": true,
	"consultant": true, "analyst": true, "researcher": true, "scientist": true,
	"officer": true, "chairman": true, "partner": true, "professor": true,
	"principal": true, "associate": true, "specialist": true, "intern": true,
}

// titleMarkersKo are Hangul job-title fragments matched by substring
var titleMarkersKo = []string{
	"대표", "이사", "사장", "부장", "차장", "과장", "팀장", "실장",
	"본부장", "대리", "사원", "주임", "매니저", "연구원", "수석", "책임",
}

// addressMarkers flag a line as a street address
var addressMarkers = []string{
	"street", "st.", "avenue", "ave", "road", "rd.", "blvd", "boulevard",
	"suite", "floor", "building", "bldg", "번지", "우편",
}

// addressSuffixesKo are Hangul administrative-division suffixes; two or more
// suffixed tokens on one line read as an address
var addressSuffixesKo = []string{"시", "도", "구", "군", "동", "로", "길", "읍", "면"}

// cardLine is one transcript line with its original position, so positional
// heuristics (early line, line beneath the name) survive consumption
type cardLine struct {
	pos  int
	text string
}

// FieldExtractor turns a recognized card transcript into a candidate contact
// record. Pure and deterministic: an ordered pipeline of extraction rules,
// each consuming matched lines and tokens from a shared remaining-line set.
// Every field is best-effort; a human always reviews the candidate before it
// becomes permanent, so the rules optimize for recall.
type FieldExtractor struct{}

// NewFieldExtractor creates a field extractor
func NewFieldExtractor() *FieldExtractor {
	return &FieldExtractor{}
}

// Parse extracts contact fields from raw OCR text. Never panics; malformed or
// empty input yields an empty candidate with a non-nil contacts list.
func (f *FieldExtractor) Parse(rawText string) domain.FieldCandidate {
	candidate := domain.FieldCandidate{Contacts: []domain.ContactPoint{}}

	remaining := splitCardLines(rawText)
	if len(remaining) == 0 {
		return candidate
	}

	remaining = extractEmails(remaining, &candidate)
	remaining = extractPhones(remaining, &candidate)
	remaining = extractWebsite(remaining, &candidate)
	remaining = extractIdentity(remaining, &candidate)
	extractAddress(remaining, &candidate)

	return candidate
}

// splitCardLines breaks the transcript into trimmed, non-empty lines with
// their original positions
func splitCardLines(rawText string) []cardLine {
	var lines []cardLine
	pos := 0
	for _, raw := range strings.Split(rawText, "\n") {
		text := strings.TrimSpace(multiSpacePattern.ReplaceAllString(raw, " "))
		if text == "" {
			continue
		}
		lines = append(lines, cardLine{pos: pos, text: text})
		pos++
	}
	return lines
}

// extractEmails collects every email-shaped token. All matches are kept.
func extractEmails(remaining []cardLine, candidate *domain.FieldCandidate) []cardLine {
	var rest []cardLine
	for _, line := range remaining {
		matches := emailPattern.FindAllString(line.text, -1)
		for _, m := range matches {
			candidate.Contacts = append(candidate.Contacts, domain.ContactPoint{
				Type:  domain.ContactTypeEmail,
				Value: m,
			})
		}
		if len(matches) == 0 {
			rest = append(rest, line)
			continue
		}
		if residue := consumeMatches(line.text, matches); residue != "" {
			rest = append(rest, cardLine{pos: line.pos, text: residue})
		}
	}
	return rest
}

// extractPhones collects digit-group tokens consistent with phone formatting.
// Classification: an adjacent fax label wins, then a mobile label or carrier
// prefix, otherwise a landline.
func extractPhones(remaining []cardLine, candidate *domain.FieldCandidate) []cardLine {
	var rest []cardLine
	for _, line := range remaining {
		lower := strings.ToLower(line.text)
		var matched []string
		for _, m := range phonePattern.FindAllString(line.text, -1) {
			digits := normalizePhoneDigits(m)
			if len(digits) < 8 || len(digits) > 11 {
				continue
			}
			matched = append(matched, m)
			candidate.Contacts = append(candidate.Contacts, domain.ContactPoint{
				Type:  classifyPhone(lower, digits),
				Value: strings.TrimSpace(m),
			})
		}
		if len(matched) == 0 {
			rest = append(rest, line)
			continue
		}
		residue := consumeMatches(line.text, matched)
		residue = strings.TrimSpace(stripContactLabels(residue))
		if residue != "" {
			rest = append(rest, cardLine{pos: line.pos, text: residue})
		}
	}
	return rest
}

// normalizePhoneDigits strips separators and folds a +82 country prefix back
// into the domestic leading zero
func normalizePhoneDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if strings.HasPrefix(s, "+82") {
		digits = "0" + strings.TrimPrefix(digits, "82")
	}
	return digits
}

// classifyPhone picks FAX / MOBILE / PHONE for one number on one line
func classifyPhone(lowerLine, digits string) domain.ContactType {
	for _, label := range faxLabels {
		if strings.Contains(lowerLine, label) {
			return domain.ContactTypeFax
		}
	}
	for _, label := range mobileLabels {
		if strings.Contains(lowerLine, label) {
			return domain.ContactTypeMobile
		}
	}
	for _, prefix := range mobilePrefixes {
		if strings.HasPrefix(digits, prefix) {
			return domain.ContactTypeMobile
		}
	}
	return domain.ContactTypePhone
}

// stripContactLabels removes leftover tel/fax/mobile labels so a consumed
// number line does not survive as a one-word residue
func stripContactLabels(s string) string {
	fields := strings.Fields(s)
	var kept []string
	for _, field := range fields {
		normalized := strings.ToLower(strings.Trim(field, ".:|,"))
		switch normalized {
		case "tel", "t", "phone", "office", "전화", "fax", "f", "팩스",
			"mobile", "cell", "hp", "h.p", "m", "휴대폰", "휴대전화", "모바일":
			continue
		}
		kept = append(kept, field)
	}
	return strings.Join(kept, " ")
}

// extractWebsite picks the first URL-like token among what remains. Emails
// were consumed by an earlier pass, so bare domains here are safe to take.
func extractWebsite(remaining []cardLine, candidate *domain.FieldCandidate) []cardLine {
	var rest []cardLine
	for _, line := range remaining {
		if candidate.Website == "" {
			if m := websitePattern.FindString(line.text); m != "" {
				candidate.Website = strings.TrimRight(m, ".,;")
				if residue := consumeMatches(line.text, []string{m}); residue != "" {
					rest = append(rest, cardLine{pos: line.pos, text: residue})
				}
				continue
			}
		}
		rest = append(rest, line)
	}
	return rest
}

// extractIdentity classifies the remaining lines into name, company and job
// title. All three are best-effort and may stay empty.
func extractIdentity(remaining []cardLine, candidate *domain.FieldCandidate) []cardLine {
	working := remaining

	// Company first: an organizational marker is the strongest signal
	if idx := indexOfLine(working, isCompanyLine); idx >= 0 {
		candidate.Company = working[idx].text
		working = removeAt(working, idx)
	}

	// Job title by vocabulary
	titleIdx := indexOfLine(working, isTitleLine)
	if titleIdx >= 0 {
		candidate.JobTitle = working[titleIdx].text
		working = removeAt(working, titleIdx)
	}

	// Name: a short, early, digit-free line
	namePos := -1
	for i, line := range working {
		if i >= 3 {
			break
		}
		if isNameLine(line.text) {
			candidate.Name = line.text
			namePos = line.pos
			working = removeAt(working, i)
			break
		}
	}

	// No vocabulary hit: a short line directly beneath the name reads as a
	// title; long prose there is more likely a company or department
	if candidate.JobTitle == "" && namePos >= 0 {
		for i, line := range working {
			if line.pos == namePos+1 && !hasDigits(line.text) &&
				len([]rune(line.text)) <= 24 && len(strings.Fields(line.text)) <= 3 {
				candidate.JobTitle = line.text
				working = removeAt(working, i)
				break
			}
		}
	}

	// No marker hit: fall back to the longest remaining prose line
	if candidate.Company == "" {
		longest, longestLen := -1, 0
		for i, line := range working {
			if hasDigits(line.text) || isAddressLine(line.text) {
				continue
			}
			if n := len([]rune(line.text)); n > longestLen {
				longest, longestLen = i, n
			}
		}
		if longest >= 0 && longestLen >= 2 {
			candidate.Company = working[longest].text
			working = removeAt(working, longest)
		}
	}

	return working
}

// extractAddress takes the first remaining line that reads like an address
func extractAddress(remaining []cardLine, candidate *domain.FieldCandidate) {
	for _, line := range remaining {
		if isAddressLine(line.text) {
			candidate.Address = line.text
			return
		}
	}
}

// isCompanyLine reports whether the line carries an organizational marker
func isCompanyLine(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range organizationMarkers {
		if !strings.Contains(lower, marker) {
			continue
		}
		// Latin markers must be standalone words; "co." inside "co.kr" or a
		// person's name must not promote the line
		if isHangulMarker(marker) || containsWord(lower, marker) {
			return true
		}
	}
	return false
}

// isTitleLine reports whether the line matches the title vocabulary
func isTitleLine(text string) bool {
	for _, marker := range titleMarkersKo {
		if strings.Contains(text, marker) {
			return true
		}
	}
	for _, field := range strings.Fields(strings.ToLower(text)) {
		if titleWords[strings.Trim(field, ".,;:")] {
			return true
		}
	}
	return false
}

// isNameLine reports whether the line is plausibly a person's name:
// short, digit-free, and not already claimed by another signal
func isNameLine(text string) bool {
	if hasDigits(text) {
		return false
	}
	if len([]rune(text)) > 24 || len(strings.Fields(text)) > 4 {
		return false
	}
	return !isCompanyLine(text) && !isTitleLine(text) && !isAddressLine(text)
}

// isAddressLine reports whether the line carries administrative-division
// keywords or a digit-to-letter ratio consistent with a street address
func isAddressLine(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range addressMarkers {
		if containsWord(lower, marker) {
			return true
		}
	}

	suffixed := 0
	for _, field := range strings.Fields(text) {
		trimmed := strings.Trim(field, ".,;:")
		for _, suffix := range addressSuffixesKo {
			if len([]rune(trimmed)) >= 2 && strings.HasSuffix(trimmed, suffix) && isHangul(trimmed) {
				suffixed++
				break
			}
		}
	}
	if suffixed >= 2 {
		return true
	}

	digits, letters := 0, 0
	for _, r := range text {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case unicode.IsLetter(r):
			letters++
		}
	}
	// Street addresses mix a house/lot number into otherwise prose-like text
	return digits >= 3 && letters >= 4 && float64(digits)/float64(letters) >= 0.1
}

// consumeMatches removes the matched substrings from a line and collapses the
// leftover separators
func consumeMatches(text string, matches []string) string {
	for _, m := range matches {
		text = strings.Replace(text, m, " ", 1)
	}
	text = strings.Trim(multiSpacePattern.ReplaceAllString(text, " "), " -|/,;:")
	return strings.TrimSpace(text)
}

// containsWord reports whether word occurs in s bounded by non-letter runes
func containsWord(s, word string) bool {
	for start := 0; ; {
		idx := strings.Index(s[start:], word)
		if idx < 0 {
			return false
		}
		idx += start
		end := idx + len(word)
		beforeOK := idx == 0 || !isLetterByte(s[idx-1])
		afterOK := end >= len(s) || !isLetterByte(s[end])
		if beforeOK && afterOK {
			return true
		}
		start = idx + 1
		if start >= len(s) {
			return false
		}
	}
}

// indexOfLine returns the index of the first line whose text satisfies match,
// or -1 when none does
func indexOfLine(lines []cardLine, match func(string) bool) int {
	for i, line := range lines {
		if match(line.text) {
			return i
		}
	}
	return -1
}

// removeAt returns a copy of lines without the element at index i
func removeAt(lines []cardLine, i int) []cardLine {
	out := make([]cardLine, 0, len(lines)-1)
	out = append(out, lines[:i]...)
	return append(out, lines[i+1:]...)
}

func isLetterByte(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func hasDigits(s string) bool {
	return strings.ContainsAny(s, "0123456789")
}

func isHangul(s string) bool {
	for _, r := range s {
		if !unicode.Is(unicode.Hangul, r) {
			return false
		}
	}
	return len(s) > 0
}

func isHangulMarker(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Hangul, r) {
			return true
		}
	}
	return false
}

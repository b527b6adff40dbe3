package usecase

import (
	"strings"
	"testing"

	"github.com/cardlens/backend/internal/domain"
)

func contactValues(c domain.FieldCandidate, want domain.ContactType) []string {
	var values []string
	for _, point := range c.Contacts {
		if point.Type == want {
			values = append(values, point.Value)
		}
	}
	return values
}

func TestParse_EmptyInput(t *testing.T) {
	extractor := NewFieldExtractor()

	for _, input := range []string{"", "   ", "\n\n\n", "\t \n \t"} {
		candidate := extractor.Parse(input)

		if candidate.Contacts == nil {
			t.Fatalf("Parse(%q) contacts = nil, want empty list", input)
		}
		if len(candidate.Contacts) != 0 {
			t.Errorf("Parse(%q) contacts = %v, want empty", input, candidate.Contacts)
		}
		if candidate.Name != "" || candidate.Company != "" || candidate.JobTitle != "" ||
			candidate.Address != "" || candidate.Website != "" {
			t.Errorf("Parse(%q) = %+v, want all fields empty", input, candidate)
		}
	}
}

func TestParse_EmailAndPhone(t *testing.T) {
	extractor := NewFieldExtractor()

	candidate := extractor.Parse("hong@example.com\n010-1234-5678")

	emails := contactValues(candidate, domain.ContactTypeEmail)
	if len(emails) != 1 || emails[0] != "hong@example.com" {
		t.Errorf("emails = %v, want [hong@example.com]", emails)
	}

	mobiles := contactValues(candidate, domain.ContactTypeMobile)
	if len(mobiles) != 1 || mobiles[0] != "010-1234-5678" {
		t.Errorf("mobiles = %v, want [010-1234-5678]", mobiles)
	}
}

func TestParse_KeepsAllEmails(t *testing.T) {
	extractor := NewFieldExtractor()

	candidate := extractor.Parse("work: hong@example.com personal: gildong@gmail.com")

	emails := contactValues(candidate, domain.ContactTypeEmail)
	if len(emails) != 2 {
		t.Fatalf("emails = %v, want two entries", emails)
	}
}

func TestParse_PhoneClassification(t *testing.T) {
	extractor := NewFieldExtractor()

	tests := []struct {
		name  string
		line  string
		want  domain.ContactType
		value string
	}{
		{"fax label wins", "Fax. 02-1234-5679", domain.ContactTypeFax, "02-1234-5679"},
		{"korean fax label", "팩스 02-1234-5679", domain.ContactTypeFax, "02-1234-5679"},
		{"mobile label", "HP. 02-1234-5678", domain.ContactTypeMobile, "02-1234-5678"},
		{"mobile by carrier prefix", "010-9876-5432", domain.ContactTypeMobile, "010-9876-5432"},
		{"bare eleven digit token", "01012345678", domain.ContactTypeMobile, "01012345678"},
		{"country code folds to mobile", "+82 10-1234-5678", domain.ContactTypeMobile, "+82 10-1234-5678"},
		{"seoul landline", "Tel. 02-123-4567", domain.ContactTypePhone, "02-123-4567"},
		{"gyeonggi landline", "031-123-4567", domain.ContactTypePhone, "031-123-4567"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidate := extractor.Parse(tt.line)

			values := contactValues(candidate, tt.want)
			if len(values) != 1 || values[0] != tt.value {
				t.Errorf("Parse(%q) %s = %v, want [%s]; all contacts: %v",
					tt.line, tt.want, values, tt.value, candidate.Contacts)
			}
		})
	}
}

func TestParse_IgnoresNonPhoneDigitGroups(t *testing.T) {
	extractor := NewFieldExtractor()

	// Too short and too long digit groups are not phone numbers
	candidate := extractor.Parse("Suite 12-34\n1234567890123456")

	for _, point := range candidate.Contacts {
		if point.Type != domain.ContactTypeEmail {
			t.Errorf("unexpected contact %+v", point)
		}
	}
}

func TestParse_Website(t *testing.T) {
	extractor := NewFieldExtractor()

	tests := []struct {
		input string
		want  string
	}{
		{"https://acme.com", "https://acme.com"},
		{"www.hanbit.co.kr", "www.hanbit.co.kr"},
		{"homepage: acme.io", "acme.io"},
	}

	for _, tt := range tests {
		candidate := extractor.Parse(tt.input)
		if candidate.Website != tt.want {
			t.Errorf("Parse(%q).Website = %q, want %q", tt.input, candidate.Website, tt.want)
		}
	}
}

func TestParse_EmailNotMistakenForWebsite(t *testing.T) {
	extractor := NewFieldExtractor()

	candidate := extractor.Parse("hong@example.com")

	if candidate.Website != "" {
		t.Errorf("Website = %q, want empty; the email pass consumes the token", candidate.Website)
	}
	if len(contactValues(candidate, domain.ContactTypeEmail)) != 1 {
		t.Errorf("contacts = %v, want one email", candidate.Contacts)
	}
}

func TestParse_KoreanCard(t *testing.T) {
	extractor := NewFieldExtractor()

	text := strings.Join([]string{
		"홍길동",
		"대표이사",
		"주식회사 한빛",
		"hong@example.com",
		"Tel. 02-1234-5678",
		"Fax. 02-1234-5679",
		"HP. 010-9876-5432",
		"www.hanbit.co.kr",
		"서울특별시 강남구 테헤란로 123",
	}, "\n")

	candidate := extractor.Parse(text)

	if candidate.Name != "홍길동" {
		t.Errorf("Name = %q, want 홍길동", candidate.Name)
	}
	if candidate.JobTitle != "대표이사" {
		t.Errorf("JobTitle = %q, want 대표이사", candidate.JobTitle)
	}
	if candidate.Company != "주식회사 한빛" {
		t.Errorf("Company = %q, want 주식회사 한빛", candidate.Company)
	}
	if candidate.Website != "www.hanbit.co.kr" {
		t.Errorf("Website = %q, want www.hanbit.co.kr", candidate.Website)
	}
	if candidate.Address != "서울특별시 강남구 테헤란로 123" {
		t.Errorf("Address = %q", candidate.Address)
	}

	if got := contactValues(candidate, domain.ContactTypeEmail); len(got) != 1 {
		t.Errorf("emails = %v, want one", got)
	}
	if got := contactValues(candidate, domain.ContactTypePhone); len(got) != 1 {
		t.Errorf("phones = %v, want one", got)
	}
	if got := contactValues(candidate, domain.ContactTypeFax); len(got) != 1 {
		t.Errorf("faxes = %v, want one", got)
	}
	if got := contactValues(candidate, domain.ContactTypeMobile); len(got) != 1 {
		t.Errorf("mobiles = %v, want one", got)
	}
}

func TestParse_EnglishCard(t *testing.T) {
	extractor := NewFieldExtractor()

	text := strings.Join([]string{
		"ACME Corp.",
		"John Smith",
		"Senior Software Engineer",
		"john.smith@acme.com",
		"Mobile: 010-1234-5678",
		"Office 02-987-6543",
		"https://acme.com",
		"123 Teheran-ro, Gangnam-gu, Seoul",
	}, "\n")

	candidate := extractor.Parse(text)

	if candidate.Company != "ACME Corp." {
		t.Errorf("Company = %q, want ACME Corp.", candidate.Company)
	}
	if candidate.Name != "John Smith" {
		t.Errorf("Name = %q, want John Smith", candidate.Name)
	}
	if candidate.JobTitle != "Senior Software Engineer" {
		t.Errorf("JobTitle = %q", candidate.JobTitle)
	}
	if candidate.Website != "https://acme.com" {
		t.Errorf("Website = %q", candidate.Website)
	}
	if candidate.Address != "123 Teheran-ro, Gangnam-gu, Seoul" {
		t.Errorf("Address = %q", candidate.Address)
	}
}

func TestParse_TitleBeneathNameWithoutVocabulary(t *testing.T) {
	extractor := NewFieldExtractor()

	// "Chief Evangelist" is not in the vocabulary; the line directly beneath
	// the name is still read as the title
	candidate := extractor.Parse("Jane Doe\nChief Evangelist\njane@startup.io")

	if candidate.Name != "Jane Doe" {
		t.Errorf("Name = %q, want Jane Doe", candidate.Name)
	}
	if candidate.JobTitle != "Chief Evangelist" {
		t.Errorf("JobTitle = %q, want Chief Evangelist", candidate.JobTitle)
	}
}

func TestParse_CompanyFallbackToLongestLine(t *testing.T) {
	extractor := NewFieldExtractor()

	// No organizational marker anywhere; the longest remaining prose line
	// is read as the company
	candidate := extractor.Parse("Kim Minsu\nBrightwater Financial Advisory Seoul\nminsu@bfa.kr")

	if candidate.Name != "Kim Minsu" {
		t.Errorf("Name = %q, want Kim Minsu", candidate.Name)
	}
	if candidate.Company != "Brightwater Financial Advisory Seoul" {
		t.Errorf("Company = %q", candidate.Company)
	}
}

func TestParse_NeverPanicsOnGarbage(t *testing.T) {
	extractor := NewFieldExtractor()

	inputs := []string{
		"@@@@\n####\n!!!!",
		strings.Repeat("a", 10000),
		"\x00\x01\x02",
		"@.com\n+++---\n...",
		strings.Repeat("010-1234-5678\n", 500),
	}
	for _, input := range inputs {
		candidate := extractor.Parse(input)
		if candidate.Contacts == nil {
			t.Errorf("Parse(%.20q) contacts = nil", input)
		}
	}
}

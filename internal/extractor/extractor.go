// Package extractor turns noisy recognized text from a photographed
// admission form into a best-effort set of inquiry fields.
package extractor

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/noah-isme/sma-admissions-api/internal/models"
)

// sep matches the separator a form writer puts between a label and its value.
const sep = `[ \t]*[:：\-.=]*[ \t]*`

type matcher struct {
	name string
	re   *regexp.Regexp
}

func m(name, pattern string) matcher {
	return matcher{name: name, re: regexp.MustCompile(norm.NFKC.String(pattern))}
}

type fieldSpec struct {
	field    string
	matchers []matcher
	assign   func(*models.ExtractedFields, string)
}

// Extractor holds the ordered matchers per field. It is stateless after
// construction and safe for concurrent use.
type Extractor struct {
	fields       []fieldSpec
	phoneLabel   []matcher
	phoneRun     *regexp.Regexp
	phoneSplitRe *regexp.Regexp
}

var (
	lineBreaks = strings.NewReplacer("\r\n", "\n", "\r", "\n")
	blanks     = regexp.MustCompile(`[ \t\f\v\x{00A0}]+`)
)

// New builds an extractor with the default English and Hindi label sets.
func New() *Extractor {
	return &Extractor{
		fields: []fieldSpec{
			{
				field: "studentName",
				matchers: []matcher{
					m("student_label", `(?im)^(?:student['’]?s?|child['’]?s?|ward['’]?s?|applicant['’]?s?|pupil['’]?s?)\s*(?:full\s*)?name`+sep+`(.+)$`),
					m("name_of_student", `(?im)^name\s+of\s+(?:the\s+)?(?:student|child|ward|applicant|pupil)`+sep+`(.+)$`),
					m("student_hindi", `(?m)^(?:छात्र|छात्रा|विद्यार्थी|बच्चे)\s*(?:का|की)\s*नाम`+sep+`(.+)$`),
					m("bare_name", `(?im)^name[ \t]*[:：][ \t]*(.+)$`),
				},
				assign: func(f *models.ExtractedFields, v string) { f.StudentName = v },
			},
			{
				field: "parentName",
				matchers: []matcher{
					m("parent_label", `(?im)^(?:parent['’]?s?|guardian['’]?s?)(?:\s*/\s*guardian['’]?s?)?\s*name`+sep+`(.+)$`),
					m("father_mother", `(?im)^(?:father['’]?s?|mother['’]?s?)\s*name`+sep+`(.+)$`),
					m("name_of_parent", `(?im)^name\s+of\s+(?:the\s+)?(?:parent|guardian|father|mother)`+sep+`(.+)$`),
					m("parent_hindi", `(?m)^(?:अभिभावक|पिता|माता)\s*(?:का|की)\s*नाम`+sep+`(.+)$`),
				},
				assign: func(f *models.ExtractedFields, v string) { f.ParentName = v },
			},
			{
				field: "email",
				matchers: []matcher{
					m("email_label", `(?im)e-?\s?mail(?:\s*id)?`+sep+`([^\s@]+@[^\s@]+\.[^\s@]+)`),
					m("email_shape", `([A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,})`),
				},
				assign: func(f *models.ExtractedFields, v string) { f.Email = strings.ToLower(v) },
			},
			{
				field: "currentClass",
				matchers: []matcher{
					m("class_label", `(?im)^(?:current\s+|present\s+)?(?:class|grade|std|standard)`+sep+`(.+)$`),
					m("class_hindi", `(?m)^कक्षा`+sep+`(.+)$`),
				},
				assign: func(f *models.ExtractedFields, v string) { f.CurrentClass = v },
			},
			{
				field: "currentSchool",
				matchers: []matcher{
					m("school_label", `(?im)^(?:current|present|previous|last)\s+school(?:\s*name)?`+sep+`(.+)$`),
					m("school_name", `(?im)^school(?:\s*name)?`+sep+`(.+)$`),
					m("school_hindi", `(?m)^(?:विद्यालय|स्कूल)(?:\s*का\s*नाम)?`+sep+`(.+)$`),
				},
				assign: func(f *models.ExtractedFields, v string) { f.CurrentSchool = v },
			},
			{
				field: "board",
				matchers: []matcher{
					m("board_label", `(?im)^board`+sep+`(.+)$`),
					m("board_keyword", `(?i)\b(CBSE|ICSE|IGCSE|IB|State\s+Board)\b`),
				},
				assign: func(f *models.ExtractedFields, v string) { f.Board = v },
			},
			{
				field: "occupation",
				matchers: []matcher{
					m("occupation_label", `(?im)^(?:(?:parent|father|mother|guardian)['’]?s?\s+)?(?:occupation|profession)`+sep+`(.+)$`),
					m("occupation_hindi", `(?m)^(?:व्यवसाय|पेशा)`+sep+`(.+)$`),
				},
				assign: func(f *models.ExtractedFields, v string) { f.Occupation = v },
			},
			{
				field: "howHeard",
				matchers: []matcher{
					m("how_heard_question", `(?im)^how\s+did\s+you\s+(?:hear|know|come\s+to\s+know)\s+about\s+(?:us|the\s+school)\s*\??`+sep+`(.+)$`),
					m("how_heard_label", `(?im)^(?:how\s+heard|source|reference)`+sep+`(.+)$`),
				},
				assign: func(f *models.ExtractedFields, v string) { f.HowHeard = v },
			},
		},
		phoneLabel: []matcher{
			m("phone_label", `(?im)(?:phone|mobile|mob|contact|cell|whatsapp|tel)(?:\s*(?:no|number|num))?`+sep+`(\+?\d[\d \-]{8,20}\d)`),
			m("phone_hindi", `(?m)(?:फ़ोन|फोन|मोबाइल)(?:\s*(?:नंबर|न\.))?`+sep+`(\+?\d[\d \-]{8,20}\d)`),
		},
		phoneRun:     regexp.MustCompile(`\+?\d(?:[\d \-]*\d)?`),
		phoneSplitRe: regexp.MustCompile(`[ \-]+`),
	}
}

// Extract never fails: fields with no match are left empty.
func (e *Extractor) Extract(raw string) models.ExtractedFields {
	text := Normalize(raw)
	var out models.ExtractedFields
	if text == "" {
		return out
	}

	for _, spec := range e.fields {
		if v := firstCapture(spec.matchers, text); v != "" {
			spec.assign(&out, v)
		}
	}

	labelled := ""
	for _, mt := range e.phoneLabel {
		for _, match := range mt.re.FindAllStringSubmatch(text, -1) {
			if phones := e.phonesInRun(match[1]); len(phones) > 0 {
				labelled = phones[0]
				break
			}
		}
		if labelled != "" {
			break
		}
	}

	scanned := e.scanPhones(text)
	out.Phone = labelled
	if out.Phone == "" && len(scanned) > 0 {
		out.Phone = scanned[0]
	}
	for _, p := range scanned {
		if p != out.Phone {
			out.SecondaryPhone = p
			break
		}
	}
	return out
}

// Normalize applies NFKC, unifies line endings, collapses blanks and drops
// empty lines.
func Normalize(raw string) string {
	s := norm.NFKC.String(raw)
	s = lineBreaks.Replace(s)
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(blanks.ReplaceAllString(line, " "))
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func firstCapture(matchers []matcher, text string) string {
	for _, mt := range matchers {
		match := mt.re.FindStringSubmatch(text)
		if len(match) < 2 {
			continue
		}
		if v := cleanCapture(match[1]); v != "" {
			return v
		}
	}
	return ""
}

func cleanCapture(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimLeft(v, ":：-=. ")
	v = strings.TrimRight(v, " ,;:：-=|_/")
	return strings.TrimSpace(v)
}

func (e *Extractor) scanPhones(text string) []string {
	var found []string
	seen := map[string]struct{}{}
	for _, run := range e.phoneRun.FindAllString(text, -1) {
		for _, p := range e.phonesInRun(run) {
			if _, dup := seen[p]; dup {
				continue
			}
			seen[p] = struct{}{}
			found = append(found, p)
		}
	}
	return found
}

// phonesInRun reads a run of digits and separators either as one number
// ("98765 43210") or as several adjacent numbers.
func (e *Extractor) phonesInRun(run string) []string {
	if p, ok := CanonicalPhone(digitsOnly(run)); ok {
		return []string{p}
	}
	pieces := e.phoneSplitRe.Split(strings.TrimSpace(run), -1)
	var out []string
	for i := 0; i < len(pieces); {
		next := i + 1
		acc := ""
		for j := i; j < len(pieces) && len(acc) < 12; j++ {
			acc += digitsOnly(pieces[j])
			if p, ok := CanonicalPhone(acc); ok {
				out = append(out, p)
				next = j + 1
				break
			}
		}
		i = next
	}
	return out
}

// CanonicalPhone reduces a digit string to a 10-digit mobile number starting
// with 6-9, accepting a 91 or 0 prefix.
func CanonicalPhone(digits string) (string, bool) {
	switch {
	case len(digits) == 12 && strings.HasPrefix(digits, "91"):
		digits = digits[2:]
	case len(digits) == 11 && strings.HasPrefix(digits, "0"):
		digits = digits[1:]
	}
	if len(digits) != 10 || digits[0] < '6' || digits[0] > '9' {
		return "", false
	}
	return digits, true
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

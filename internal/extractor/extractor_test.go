package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractTwoUnlabelledNumbers(t *testing.T) {
	text := "ADMISSION ENQUIRY FORM\nAsha Rao\n9876543210\nplease call 8765432109 in the evening"
	got := New().Extract(text)
	assert.Equal(t, "9876543210", got.Phone)
	assert.Equal(t, "8765432109", got.SecondaryPhone)
}

func TestExtractLabelledForm(t *testing.T) {
	text := "Student's Name : Asha Rao\r\n" +
		"Father's Name:  Vikram  Rao\r\n" +
		"\r\n" +
		"Class: 6th\r\n" +
		"Current School - St. Mary's Convent,\r\n" +
		"Board: CBSE\r\n" +
		"Occupation: Engineer\r\n" +
		"Email: Asha.Rao@Example.com\r\n" +
		"Alt no 7012345678\r\n" +
		"Mobile No.: +91 98765 43210\r\n" +
		"How did you hear about us? Google"

	got := New().Extract(text)
	assert.Equal(t, "Asha Rao", got.StudentName)
	assert.Equal(t, "Vikram Rao", got.ParentName)
	assert.Equal(t, "6th", got.CurrentClass)
	assert.Equal(t, "St. Mary's Convent", got.CurrentSchool)
	assert.Equal(t, "CBSE", got.Board)
	assert.Equal(t, "Engineer", got.Occupation)
	assert.Equal(t, "asha.rao@example.com", got.Email)
	assert.Equal(t, "Google", got.HowHeard)
	assert.Equal(t, "9876543210", got.Phone, "labelled number wins over earlier scan hits")
	assert.Equal(t, "7012345678", got.SecondaryPhone)
}

func TestExtractHindiLabels(t *testing.T) {
	text := "छात्र का नाम: आशा राव\nपिता का नाम: विक्रम राव\nमोबाइल: 9876543210"
	got := New().Extract(text)
	assert.Equal(t, "आशा राव", got.StudentName)
	assert.Equal(t, "विक्रम राव", got.ParentName)
	assert.Equal(t, "9876543210", got.Phone)
	assert.Empty(t, got.SecondaryPhone)
}

func TestExtractFallbacks(t *testing.T) {
	text := "Name: Kabir Shah\ncontact me at kabir.parent@mail.in\nstudying in an ICSE school"
	got := New().Extract(text)
	assert.Equal(t, "Kabir Shah", got.StudentName)
	assert.Equal(t, "kabir.parent@mail.in", got.Email)
	assert.Equal(t, "ICSE", got.Board)
	assert.Empty(t, got.ParentName)
	assert.Empty(t, got.Phone)
}

func TestExtractPhoneShapes(t *testing.T) {
	cases := map[string]string{
		"09876543210":         "9876543210",
		"+919876543210":       "9876543210",
		"98765-43210":         "9876543210",
		"ph 98765 43210":      "9876543210",
		"1234567890":          "",
		"5876543210":          "",
		"date 12-05-2024":     "",
		"98765432101234":      "",
		"roll 12 9876543210.": "9876543210",
	}
	for input, want := range cases {
		got := New().Extract(input)
		assert.Equal(t, want, got.Phone, input)
	}
}

func TestExtractDistinctSecondary(t *testing.T) {
	text := "Phone: 9876543210\nWhatsApp: 9876543210"
	got := New().Extract(text)
	assert.Equal(t, "9876543210", got.Phone)
	assert.Empty(t, got.SecondaryPhone)
}

func TestExtractEmptyAndGarbage(t *testing.T) {
	assert.Equal(t, "", New().Extract("").StudentName)
	assert.NotPanics(t, func() {
		New().Extract("\x00\x01 ::: ---\n\n\t@@@")
	})
}

func TestNormalize(t *testing.T) {
	got := Normalize("  Ｓｔｕｄｅｎｔ\tName :  Asha \r\n\r\n\rParent Name: Meera  ")
	assert.Equal(t, "Student Name : Asha\nParent Name: Meera", got)
}

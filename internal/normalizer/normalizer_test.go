package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-admissions-api/internal/models"
)

func TestStatus(t *testing.T) {
	cases := []struct {
		raw  string
		want models.InquiryStatus
	}{
		{"Visited - will decide, follow up next week", models.InquiryStatusFollowUp},
		{"Converted", models.InquiryStatusConverted},
		{"follow-up", models.InquiryStatusFollowUp},
		{"FOLLOWUP", models.InquiryStatusFollowUp},
		{"Took admission in grade 6", models.InquiryStatusConverted},
		{"joined", models.InquiryStatusConverted},
		{"Not interested anymore", models.InquiryStatusClosed},
		{"dropped", models.InquiryStatusClosed},
		{"Closed", models.InquiryStatusClosed},
		{"interested", models.InquiryStatusOpen},
		{"General enquiry", models.InquiryStatusOpen},
		{"call back tomorrow", models.InquiryStatusFollowUp},
		{"New", models.InquiryStatusNew},
		{"", models.InquiryStatusNew},
		{"   ", models.InquiryStatusNew},
		{"null", models.InquiryStatusNew},
		{"???!!", models.InquiryStatusNew},
	}
	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			assert.Equal(t, tc.want, Status(tc.raw))
		})
	}
}

func TestStatusIsTotal(t *testing.T) {
	inputs := []string{
		"\x00\xff\xfe", "💥💥", "ñandú", "स्थिति", "S-12", "\n\t\r",
		"close follow admission", "a very long status text that repeats and repeats and repeats",
	}
	for _, raw := range inputs {
		assert.NotPanics(t, func() {
			got := Status(raw)
			assert.True(t, got.Valid(), "status %q for %q", got, raw)
		})
	}
}

func TestCaseStatus(t *testing.T) {
	for _, status := range models.InquiryStatuses {
		got := CaseStatus(status)
		resolved := status == models.InquiryStatusConverted || status == models.InquiryStatusClosed
		assert.Equal(t, resolved, got == models.CaseStatusResolvedCompleted, string(status))
	}
}

func TestSource(t *testing.T) {
	cases := map[string]models.InquirySource{
		"Walk-in":                models.InquirySourcePhoneCall,
		"phone call from parent": models.InquirySourcePhoneCall,
		"Saw the website":        models.InquirySourceWebsite,
		"google search":          models.InquirySourceWebsite,
		"WhatsApp group":         models.InquirySourceWhatsApp,
		"Referral by a friend":   models.InquirySourceReferral,
		"Paper form at the fair": models.InquirySourcePaperForm,
		"":                       models.InquirySourceWebsite,
		"newspaper":              models.InquirySourcePaperForm,
		"billboard":              models.InquirySourceWebsite,
	}
	for raw, want := range cases {
		assert.Equal(t, want, Source(raw), raw)
	}
}

func TestSourceValue(t *testing.T) {
	assert.Equal(t, models.InquirySourceOther, SourceValue("other", "website"))
	assert.Equal(t, models.InquirySourceWhatsApp, SourceValue("WHATSAPP", ""))
	assert.Equal(t, models.InquirySourceReferral, SourceValue("", "my friend told me"))
	assert.Equal(t, models.InquirySourcePaperForm, SourceValue("paper", ""))
	assert.Equal(t, models.InquirySourceWebsite, SourceValue("", ""))
}

func TestPriority(t *testing.T) {
	cases := map[string]models.InquiryPriority{
		"High":   models.InquiryPriorityHigh,
		"low":    models.InquiryPriorityLow,
		"MEDIUM": models.InquiryPriorityMedium,
		"Warm":   models.InquiryPriorityMedium,
		"hot":    models.InquiryPriorityHigh,
		"Cold ":  models.InquiryPriorityLow,
		"urgent": models.InquiryPriorityHigh,
		"":       models.InquiryPriorityMedium,
		"meh":    models.InquiryPriorityMedium,
	}
	for raw, want := range cases {
		assert.Equal(t, want, Priority(raw), raw)
	}
}

func TestSchoolNamesFromYAML(t *testing.T) {
	table, err := LoadSchoolNames("testdata/school_variants.yaml")
	require.NoError(t, err)
	assert.Greater(t, table.Len(), 0)

	name, ok := table.Normalize("  dps ")
	assert.True(t, ok)
	assert.Equal(t, "Delhi Public School", name)

	name, ok = table.Normalize("Kendriya   Vidhyalaya")
	assert.True(t, ok)
	assert.Equal(t, "Kendriya Vidyalaya", name)

	name, ok = table.Normalize("St. Mary's Convent ")
	assert.True(t, ok)
	assert.Equal(t, "St. Mary's Convent", name)

	for _, sentinel := range []string{"blank", "TEST", "-", "N/A", ""} {
		name, ok = table.Normalize(sentinel)
		assert.False(t, ok, sentinel)
		assert.Empty(t, name)
	}
}

func TestLoadSchoolNamesRejectsInvalidFiles(t *testing.T) {
	_, err := LoadSchoolNames("testdata/school_variants_invalid.yaml")
	require.Error(t, err)

	_, err = LoadSchoolNames("testdata/missing.yaml")
	require.Error(t, err)
}

func TestDefaultSchoolNames(t *testing.T) {
	table := DefaultSchoolNames()
	name, ok := table.Normalize("nil")
	assert.False(t, ok)
	assert.Empty(t, name)

	name, ok = table.Normalize("DPS")
	assert.True(t, ok)
	assert.Equal(t, "DPS", name)

	var nilTable *SchoolNames
	name, ok = nilTable.Normalize(" X ")
	assert.True(t, ok)
	assert.Equal(t, "X", name)
}

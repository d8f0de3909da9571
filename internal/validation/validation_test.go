package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	return func() time.Time { return time.Date(2026, 10, 18, 15, 30, 0, 0, time.Local) }
}

func validForm() map[string]string {
	return map[string]string{
		"name":     "Asha Rao",
		"phone":    "9876543210",
		"email":    "asha@example.com",
		"address":  "12 MG Road, Bengaluru",
		"aadhar":   "123412341234",
		"checkin":  "2026-10-18",
		"checkout": "2026-10-20",
		"adults":   "2",
		"purpose":  "Family wedding reception",
	}
}

func TestValidateField(t *testing.T) {
	v := New(fixedClock())

	tests := []struct {
		name  string
		field string
		value string
		form  map[string]string
		ok    bool
		msg   string
	}{
		{"short name", "name", "Al", nil, false, MsgName},
		{"name trimmed", "name", "  Al  ", nil, false, MsgName},
		{"name ok", "name", "Ali", nil, true, ""},
		{"phone too short", "phone", "12345", nil, false, MsgPhone},
		{"phone ok", "phone", "1234567890", nil, true, ""},
		{"phone letters", "phone", "12345abcde", nil, false, MsgPhone},
		{"email missing tld", "email", "a@b", nil, false, MsgEmail},
		{"email ok", "email", "a@b.co", nil, true, ""},
		{"address empty", "address", "   ", nil, false, MsgAddress},
		{"aadhar 11 digits", "aadhar", "12345678901", nil, false, MsgAadhar},
		{"aadhar ok", "aadhar", "123456789012", nil, true, ""},
		{"checkin past", "checkin", "2020-01-01", nil, false, MsgCheckin},
		{"checkin today", "checkin", "2026-10-18", nil, true, ""},
		{"checkin garbage", "checkin", "tomorrow", nil, false, MsgCheckin},
		{"checkout before", "checkout", "2026-10-17", map[string]string{"checkin": "2026-10-18"}, false, MsgCheckout},
		{"checkout same day", "checkout", "2026-10-18", map[string]string{"checkin": "2026-10-18"}, false, MsgCheckout},
		{"checkout after", "checkout", "2026-10-19", map[string]string{"checkin": "2026-10-18"}, true, ""},
		{"checkout without checkin", "checkout", "2026-10-19", nil, false, MsgCheckout},
		{"adults zero", "adults", "0", nil, false, MsgAdults},
		{"adults empty", "adults", "", nil, false, MsgAdults},
		{"adults not numeric", "adults", "two", nil, false, MsgAdults},
		{"adults ok", "adults", "1", nil, true, ""},
		{"adults decimal", "adults", "1.5", nil, true, ""},
		{"adults exponent", "adults", "2e0", nil, true, ""},
		{"adults inf", "adults", "inf", nil, false, MsgAdults},
		{"adults Infinity", "adults", "Infinity", nil, false, MsgAdults},
		{"adults +Inf", "adults", "+Inf", nil, false, MsgAdults},
		{"adults underscore", "adults", "1_0", nil, false, MsgAdults},
		{"adults hex", "adults", "0x10", nil, false, MsgAdults},
		{"adults overflow", "adults", "1e400", nil, false, MsgAdults},
		{"purpose short", "purpose", "holiday", nil, false, MsgPurpose},
		{"purpose ok", "purpose", "business trip", nil, true, ""},
		{"unknown field", "nickname", "", nil, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.ValidateField(tt.field, tt.value, tt.form)
			assert.Equal(t, tt.ok, res.OK)
			assert.Equal(t, tt.msg, res.Message)
			assert.Equal(t, tt.field, res.Field)
		})
	}
}

func TestValidateFormValid(t *testing.T) {
	report := New(fixedClock()).ValidateForm(validForm())
	assert.True(t, report.Valid())
	_, failed := report.First()
	assert.False(t, failed)
	assert.Empty(t, report.Errors())
}

func TestValidateFormFirstFailureFollowsFieldOrder(t *testing.T) {
	form := validForm()
	form["purpose"] = "short"
	form["phone"] = "12345"

	report := New(fixedClock()).ValidateForm(form)
	require.False(t, report.Valid())

	first, ok := report.First()
	require.True(t, ok)
	assert.Equal(t, "phone", first.Field)
	assert.Equal(t, MsgPhone, first.Message)
	assert.Equal(t, map[string]string{"phone": MsgPhone, "purpose": MsgPurpose}, report.Errors())
}

func TestValidateFormMissingFieldsFail(t *testing.T) {
	report := New(fixedClock()).ValidateForm(map[string]string{"extra": "x"})
	assert.Len(t, report.Errors(), len(FieldOrder))

	first, ok := report.First()
	require.True(t, ok)
	assert.Equal(t, MsgName, first.Message)
	assert.Equal(t, "extra", report.Results[len(report.Results)-1].Field)
}

func TestParseDate(t *testing.T) {
	_, ok := ParseDate("2026-02-30")
	assert.False(t, ok)

	d, ok := ParseDate("2026-10-18T10:00:00Z")
	require.True(t, ok)
	assert.Equal(t, 2026, d.Year())
}

func TestParseNumber(t *testing.T) {
	n, ok := ParseNumber("3")
	assert.True(t, ok)
	assert.Equal(t, 3.0, n)

	n, ok = ParseNumber(".5")
	assert.True(t, ok)
	assert.Equal(t, 0.5, n)

	for _, bad := range []string{"", "NaN", "-inf", "1_000", "1e999", " 2", "2.."} {
		_, ok := ParseNumber(bad)
		assert.False(t, ok, bad)
	}
}

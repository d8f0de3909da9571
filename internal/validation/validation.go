// Package validation holds the check-in form field rules.
//
// Each rule sees the trimmed field value and the whole form, so cross-field
// rules (checkout after checkin) can look at their partner. Fields without a
// rule always pass.
package validation

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Field order used when reporting results; the first failure in this order
// is the one surfaced to the guest.
var FieldOrder = []string{
	"name", "phone", "email", "address", "aadhar",
	"checkin", "checkout", "adults", "purpose",
}

const (
	MsgName     = "Name must be at least 3 characters."
	MsgPhone    = "Phone must be exactly 10 digits."
	MsgEmail    = "Enter valid email."
	MsgAddress  = "Address is required."
	MsgAadhar   = "Aadhar must be exactly 12 digits."
	MsgCheckin  = "Check-in must be today or a future date."
	MsgCheckout = "Check-out must be after check-in."
	MsgAdults   = "Number of adults must be 1 or more."
	MsgPurpose  = "Purpose must be at least 10 characters."
)

var (
	phonePattern  = regexp.MustCompile(`^[0-9]{10}$`)
	aadharPattern = regexp.MustCompile(`^[0-9]{12}$`)
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	numberPattern = regexp.MustCompile(`^[+-]?([0-9]+(\.[0-9]*)?|\.[0-9]+)([eE][+-]?[0-9]+)?$`)
)

// Result is the outcome of checking one field.
type Result struct {
	Field   string `json:"field"`
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

// Report is the outcome of checking a whole form.
type Report struct {
	Results []Result `json:"results"`
}

// Valid reports whether every field passed.
func (r Report) Valid() bool {
	for _, res := range r.Results {
		if !res.OK {
			return false
		}
	}
	return true
}

// First returns the first failing result, if any.
func (r Report) First() (Result, bool) {
	for _, res := range r.Results {
		if !res.OK {
			return res, true
		}
	}
	return Result{}, false
}

// Errors maps each failing field to its message.
func (r Report) Errors() map[string]string {
	errs := make(map[string]string)
	for _, res := range r.Results {
		if !res.OK {
			errs[res.Field] = res.Message
		}
	}
	return errs
}

type rule struct {
	msg   string
	check func(v *Validator, val string, form map[string]string) bool
}

var rules = map[string]rule{
	"name":    {MsgName, func(_ *Validator, val string, _ map[string]string) bool { return utf8.RuneCountInString(val) >= 3 }},
	"phone":   {MsgPhone, func(_ *Validator, val string, _ map[string]string) bool { return phonePattern.MatchString(val) }},
	"email":   {MsgEmail, func(_ *Validator, val string, _ map[string]string) bool { return emailPattern.MatchString(val) }},
	"address": {MsgAddress, func(_ *Validator, val string, _ map[string]string) bool { return val != "" }},
	"aadhar":  {MsgAadhar, func(_ *Validator, val string, _ map[string]string) bool { return aadharPattern.MatchString(val) }},
	"checkin": {MsgCheckin, func(v *Validator, val string, _ map[string]string) bool {
		d, ok := ParseDate(val)
		if !ok {
			return false
		}
		return !d.Before(v.today())
	}},
	"checkout": {MsgCheckout, func(_ *Validator, val string, form map[string]string) bool {
		co, ok := ParseDate(val)
		if !ok {
			return false
		}
		ci, ok := ParseDate(strings.TrimSpace(form["checkin"]))
		if !ok {
			return false
		}
		return co.After(ci)
	}},
	"adults": {MsgAdults, func(_ *Validator, val string, _ map[string]string) bool {
		n, ok := ParseNumber(val)
		return ok && n >= 1
	}},
	"purpose": {MsgPurpose, func(_ *Validator, val string, _ map[string]string) bool { return utf8.RuneCountInString(val) >= 10 }},
}

// Validator evaluates the rule set against a clock.
type Validator struct {
	now func() time.Time
}

// New returns a validator. A nil clock means time.Now.
func New(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	return &Validator{now: now}
}

// today is local midnight of the validator's clock.
func (v *Validator) today() time.Time {
	t := v.now()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ValidateField checks a single field. form supplies the other values for
// cross-field rules and may be nil.
func (v *Validator) ValidateField(name, value string, form map[string]string) Result {
	val := strings.TrimSpace(value)
	r, ok := rules[name]
	if !ok {
		return Result{Field: name, OK: true}
	}
	if r.check(v, val, form) {
		return Result{Field: name, OK: true}
	}
	return Result{Field: name, OK: false, Message: r.msg}
}

// ValidateForm checks every known field plus any extra keys present in
// form. Missing known fields are checked as empty strings.
func (v *Validator) ValidateForm(form map[string]string) Report {
	report := Report{Results: make([]Result, 0, len(FieldOrder)+len(form))}
	for _, name := range FieldOrder {
		report.Results = append(report.Results, v.ValidateField(name, form[name], form))
	}

	var extra []string
	for name := range form {
		if _, known := rules[name]; !known {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		report.Results = append(report.Results, v.ValidateField(name, form[name], form))
	}
	return report
}

// ParseDate accepts a form date (2006-01-02) or an RFC 3339 timestamp.
// Form dates are read as local midnight.
func ParseDate(val string) (time.Time, bool) {
	if val == "" {
		return time.Time{}, false
	}
	if t, err := time.ParseInLocation("2006-01-02", val, time.Local); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// ParseNumber parses a plain decimal literal such as "2", "1.5" or "3e0".
// Spellings like "inf", "0x10" or "1_0" and non-finite results are rejected.
func ParseNumber(val string) (float64, bool) {
	if !numberPattern.MatchString(val) {
		return 0, false
	}
	n, err := strconv.ParseFloat(val, 64)
	if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
		return 0, false
	}
	return n, true
}

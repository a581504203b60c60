package ocr

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ExtractFromText turns the plain text of a scanned document into the
// canonical field map. The machine-readable zone wins; printed labels fill
// what it does not carry.
func ExtractFromText(text string, now time.Time) map[string]any {
	m := map[string]any{}
	for k, v := range parseMRZ(text, now) {
		m[k] = v
	}
	for k, v := range parseLabels(text) {
		if _, ok := m[k]; !ok {
			m[k] = v
		}
	}
	return m
}

var mrzLine = regexp.MustCompile(`^[A-Z0-9<]{28,46}$`)

func mrzCandidates(text string) []string {
	var out []string
	for _, l := range strings.Split(text, "\n") {
		l = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(l), " ", ""))
		if mrzLine.MatchString(l) && strings.Contains(l, "<") {
			out = append(out, l)
		}
	}
	return out
}

// parseMRZ understands passports (TD3, two lines of 44) and ID cards (TD1,
// three lines of 30). Check digits are not verified.
func parseMRZ(text string, now time.Time) map[string]string {
	lines := mrzCandidates(text)
	n := len(lines)
	switch {
	case n >= 2 && len(lines[n-2]) >= 40 && lines[n-2][0] == 'P':
		return parseTD3(pad(lines[n-2], 44), pad(lines[n-1], 44), now)
	case n >= 3 && len(lines[n-3]) <= 32:
		return parseTD1(pad(lines[n-3], 30), pad(lines[n-2], 30), pad(lines[n-1], 30), now)
	}
	return nil
}

func parseTD3(l1, l2 string, now time.Time) map[string]string {
	m := map[string]string{"documentType": "passport"}
	last, first := mrzNames(l1[5:])
	set(m, "lastName", last)
	set(m, "firstName", first)
	set(m, "documentNumber", mrzField(l2[0:9]))
	set(m, "nationality", mrzField(l2[10:13]))
	set(m, "dateOfBirth", mrzDate(l2[13:19], now, false))
	set(m, "sex", mrzSex(l2[20]))
	set(m, "expiryDate", mrzDate(l2[21:27], now, true))
	return m
}

func parseTD1(l1, l2, l3 string, now time.Time) map[string]string {
	m := map[string]string{"documentType": "id_card"}
	set(m, "documentNumber", mrzField(l1[5:14]))
	set(m, "dateOfBirth", mrzDate(l2[0:6], now, false))
	set(m, "sex", mrzSex(l2[7]))
	set(m, "expiryDate", mrzDate(l2[8:14], now, true))
	set(m, "nationality", mrzField(l2[15:18]))
	last, first := mrzNames(l3)
	set(m, "lastName", last)
	set(m, "firstName", first)
	return m
}

func pad(s string, n int) string {
	if len(s) >= n {
		return s[:n]
	}
	return s + strings.Repeat("<", n-len(s))
}

func set(m map[string]string, k, v string) {
	if v != "" {
		m[k] = v
	}
}

func mrzField(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(strings.Trim(s, "<"), "<", " "))
}

// mrzNames splits SURNAME<<GIVEN<NAMES.
func mrzNames(s string) (last, first string) {
	parts := strings.SplitN(strings.Trim(s, "<"), "<<", 2)
	last = mrzField(parts[0])
	if len(parts) == 2 {
		first = mrzField(parts[1])
	}
	return last, first
}

func mrzSex(c byte) string {
	switch c {
	case 'M', 'F':
		return string(c)
	}
	return ""
}

// mrzDate reads YYMMDD. Expiry dates are always this century; birth dates
// that would lie in the future belong to the last one.
func mrzDate(s string, now time.Time, expiry bool) string {
	s = strings.ReplaceAll(s, "O", "0")
	if len(s) != 6 {
		return ""
	}
	yy, err1 := strconv.Atoi(s[0:2])
	mm, err2 := strconv.Atoi(s[2:4])
	dd, err3 := strconv.Atoi(s[4:6])
	if err1 != nil || err2 != nil || err3 != nil {
		return ""
	}
	year := 2000 + yy
	if !expiry && year > now.Year() {
		year -= 100
	}
	t := time.Date(year, time.Month(mm), dd, 0, 0, 0, 0, time.UTC)
	if t.Month() != time.Month(mm) || t.Day() != dd {
		return ""
	}
	return t.Format(dateLayout)
}

var labelPatterns = []struct {
	key string
	re  *regexp.Regexp
}{
	{"lastName", regexp.MustCompile(`(?i)^\s*(?:surname|last\s*name|family\s*name)\b(.*)$`)},
	{"firstName", regexp.MustCompile(`(?i)^\s*(?:given\s*names?|first\s*names?|forenames?)\b(.*)$`)},
	{"documentNumber", regexp.MustCompile(`(?i)^\s*(?:passport|document|card|id)\s*(?:no\.?|number|#)(.*)$`)},
	{"dateOfBirth", regexp.MustCompile(`(?i)^\s*(?:date\s*of\s*birth|birth\s*date|dob)\b(.*)$`)},
	{"issueDate", regexp.MustCompile(`(?i)^\s*(?:date\s*of\s*issue|issue\s*date|issued)\b(.*)$`)},
	{"expiryDate", regexp.MustCompile(`(?i)^\s*(?:date\s*of\s*expiry|expiry\s*date|expiration\s*date|expires|valid\s*until)\b(.*)$`)},
	{"nationality", regexp.MustCompile(`(?i)^\s*(?:nationality|citizenship)\b(.*)$`)},
	{"sex", regexp.MustCompile(`(?i)^\s*(?:sex|gender)\b(.*)$`)},
}

// parseLabels reads "Label: value" lines; a label alone on its line takes
// the next non-empty line as its value.
func parseLabels(text string) map[string]string {
	lines := strings.Split(text, "\n")
	m := map[string]string{}
	for i, l := range lines {
		for _, p := range labelPatterns {
			if _, done := m[p.key]; done {
				continue
			}
			sub := p.re.FindStringSubmatch(l)
			if sub == nil {
				continue
			}
			v := strings.Trim(sub[1], " \t:/-.")
			if v == "" {
				v = nextNonEmpty(lines, i+1)
			}
			set(m, p.key, v)
			break
		}
	}
	return m
}

func nextNonEmpty(lines []string, from int) string {
	for i := from; i < len(lines); i++ {
		if s := strings.TrimSpace(lines[i]); s != "" {
			return s
		}
	}
	return ""
}

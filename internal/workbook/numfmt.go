package workbook

import (
	"strings"

	"github.com/xuri/excelize/v2"
)

// styleCache remembers, per style index, whether the style's number format
// renders a date or time.
type styleCache struct {
	f     *excelize.File
	dates map[int]bool
}

func newStyleCache(f *excelize.File) *styleCache {
	return &styleCache{f: f, dates: make(map[int]bool)}
}

func (c *styleCache) isDate(sheet, ref string) bool {
	idx, err := c.f.GetCellStyle(sheet, ref)
	if err != nil || idx == 0 {
		return false
	}
	if v, ok := c.dates[idx]; ok {
		return v
	}

	v := false
	if style, err := c.f.GetStyle(idx); err == nil && style != nil {
		custom := ""
		if style.CustomNumFmt != nil {
			custom = *style.CustomNumFmt
		}
		v = isDateNumFmt(style.NumFmt, custom)
	}
	c.dates[idx] = v
	return v
}

// isDateNumFmt reports whether a built-in number format id or a custom
// format code displays a date or time.
func isDateNumFmt(id int, custom string) bool {
	if custom == "" {
		switch {
		case id >= 14 && id <= 22,
			id >= 27 && id <= 36,
			id >= 45 && id <= 47,
			id >= 50 && id <= 58:
			return true
		}
		return false
	}

	code := stripLiterals(custom)
	// Only the positive section decides.
	if i := strings.IndexByte(code, ';'); i >= 0 {
		code = code[:i]
	}
	return strings.ContainsAny(strings.ToLower(code), "ymdhs")
}

// stripLiterals drops quoted text, escaped characters and bracketed
// sections such as colors and locales from a format code.
func stripLiterals(code string) string {
	var b strings.Builder
	inQuote, inBracket := false, false
	for i := 0; i < len(code); i++ {
		ch := code[i]
		switch {
		case inQuote:
			if ch == '"' {
				inQuote = false
			}
		case inBracket:
			if ch == ']' {
				inBracket = false
			}
		case ch == '"':
			inQuote = true
		case ch == '[':
			inBracket = true
		case ch == '\\' || ch == '_' || ch == '*':
			i++
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

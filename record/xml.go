package record

import (
	"fmt"
	"regexp"
	"strings"
)

var xmlElementName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9._-]*$`)

// RecordsToXML renders records as a minimal XML document: a root element
// wrapping one child element per record, one grandchild per field. Field
// names that are not valid XML element names are sanitized by replacing
// invalid characters with "_" (a leading digit, '.' or '-' is replaced as
// well); an empty name becomes "_".
func RecordsToXML(records []Record, rootTag, recordTag string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	fmt.Fprintf(&b, "<%s>\n", rootTag)
	for _, rec := range records {
		fmt.Fprintf(&b, "  <%s>\n", recordTag)
		for _, k := range orderedKeys(rec) {
			tag := sanitizeXMLName(k)
			v, _ := Get(rec, k)
			fmt.Fprintf(&b, "    <%s>%s</%s>\n", tag, escapeXMLText(fmt.Sprintf("%v", v)), tag)
		}
		fmt.Fprintf(&b, "  </%s>\n", recordTag)
	}
	fmt.Fprintf(&b, "</%s>\n", rootTag)
	return b.String()
}

func sanitizeXMLName(name string) string {
	if xmlElementName.MatchString(name) {
		return name
	}
	var b strings.Builder
	for i, r := range name {
		valid := (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || r == '_' ||
			(i > 0 && (r >= '0' && r <= '9' || r == '.' || r == '-'))
		if valid {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	out := b.String()
	if out == "" || (out[0] >= '0' && out[0] <= '9') {
		out = "_" + out
	}
	return out
}

func escapeXMLText(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return r.Replace(s)
}

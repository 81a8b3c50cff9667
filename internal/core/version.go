package core

import (
	"sort"
	"strings"
	"unicode"
)

// Qualifier ranks, lowest first. Unknown qualifiers sort after sp.
var qualifierRank = map[string]int{
	"alpha":     0,
	"beta":      1,
	"milestone": 2,
	"rc":        3,
	"snapshot":  4,
	"":          5,
	"sp":        6,
}

const (
	releaseRank = 5
	unknownRank = 7
)

var qualifierAliases = map[string]string{
	"cr":      "rc",
	"ga":      "",
	"final":   "",
	"release": "",
}

// Single letters only stand for a qualifier when a number follows, as in 1.0a1.
var shortQualifiers = map[string]string{
	"a": "alpha",
	"b": "beta",
	"m": "milestone",
}

type itemKind int

const (
	numberItem itemKind = iota
	qualifierItem
	listItem
)

// versionItem is one node of a parsed version. A '-' or a switch between
// digits and letters opens a nested list, so 1-1 and 1.1 order differently.
type versionItem struct {
	kind     itemKind
	digits   string // numeric value without leading zeros
	text     string // qualifier, lower case, aliases applied
	children []*versionItem
}

// ComparableVersion is a parsed Maven version.
type ComparableVersion struct {
	raw   string
	items []*versionItem
}

func (v ComparableVersion) String() string {
	return v.raw
}

// ParseVersion parses a Maven version string.
func ParseVersion(s string) (ComparableVersion, error) {
	if s == "" {
		return ComparableVersion{}, &InvalidVersionError{Version: s, Reason: "empty version"}
	}
	for _, r := range s {
		if !isVersionRune(r) {
			return ComparableVersion{}, &InvalidVersionError{Version: s, Reason: "unexpected character " + quoteRune(r)}
		}
	}
	if isSeparator(rune(s[0])) || isSeparator(rune(s[len(s)-1])) {
		return ComparableVersion{}, &InvalidVersionError{Version: s, Reason: "leading or trailing separator"}
	}

	for i := 1; i < len(s); i++ {
		if isSeparator(rune(s[i])) && isSeparator(rune(s[i-1])) {
			return ComparableVersion{}, &InvalidVersionError{Version: s, Reason: "empty version component"}
		}
	}

	return ComparableVersion{raw: s, items: parseItems(strings.ToLower(s))}, nil
}

func parseItems(s string) []*versionItem {
	root := &versionItem{kind: listItem}
	list := root
	stack := []*versionItem{root}
	open := func() {
		sub := &versionItem{kind: listItem}
		list.children = append(list.children, sub)
		list = sub
		stack = append(stack, sub)
	}

	digit := false
	start := 0
	for i := 0; i < len(s); i++ {
		c := rune(s[i])
		switch {
		case isSeparator(c):
			list.children = append(list.children, newItem(s[start:i], digit, false))
			start = i + 1
			if c == '-' {
				open()
			}
		case unicode.IsDigit(c):
			if !digit && i > start {
				list.children = append(list.children, newItem(s[start:i], false, true))
				start = i
				open()
			}
			digit = true
		default:
			if digit && i > start {
				list.children = append(list.children, newItem(s[start:i], true, false))
				start = i
				open()
			}
			digit = false
		}
	}
	if start < len(s) {
		list.children = append(list.children, newItem(s[start:], digit, false))
	}

	for i := len(stack) - 1; i >= 0; i-- {
		stack[i].normalize()
	}
	return root.children
}

func newItem(tok string, numeric, beforeDigit bool) *versionItem {
	if numeric {
		return &versionItem{kind: numberItem, digits: strings.TrimLeft(tok, "0")}
	}
	if beforeDigit {
		if q, ok := shortQualifiers[tok]; ok {
			tok = q
		}
	}
	if alias, ok := qualifierAliases[tok]; ok {
		tok = alias
	}
	return &versionItem{kind: qualifierItem, text: tok}
}

// normalize drops trailing zeros, release qualifiers and empty lists so
// 1.0 == 1.0.0 == 1-ga. Nested lists are skipped over, not stopped at.
func (it *versionItem) normalize() {
	for i := len(it.children) - 1; i >= 0; i-- {
		last := it.children[i]
		if last.isNull() {
			it.children = append(it.children[:i], it.children[i+1:]...)
		} else if last.kind != listItem {
			break
		}
	}
}

func (it *versionItem) isNull() bool {
	switch it.kind {
	case numberItem:
		return it.digits == ""
	case qualifierItem:
		return it.text == ""
	}
	return len(it.children) == 0
}

// compare orders it against o; a nil o stands for a missing item.
func (it *versionItem) compare(o *versionItem) int {
	if o == nil {
		return it.compareToNull()
	}
	switch it.kind {
	case numberItem:
		if o.kind == numberItem {
			return compareDigits(it.digits, o.digits)
		}
		return 1
	case qualifierItem:
		if o.kind == qualifierItem {
			return compareQualifiers(it.text, o.text)
		}
		return -1
	}
	switch o.kind {
	case numberItem:
		return -1
	case qualifierItem:
		return 1
	}
	return compareLists(it.children, o.children)
}

func (it *versionItem) compareToNull() int {
	switch it.kind {
	case numberItem:
		if it.digits == "" {
			return 0
		}
		return 1
	case qualifierItem:
		return sign(rank(it.text) - releaseRank)
	}
	if len(it.children) == 0 {
		return 0
	}
	return it.children[0].compareToNull()
}

func compareLists(a, b []*versionItem) int {
	n := max(len(a), len(b))
	for i := 0; i < n; i++ {
		var c int
		switch {
		case i >= len(a):
			c = -b[i].compareToNull()
		case i >= len(b):
			c = a[i].compareToNull()
		default:
			c = a[i].compare(b[i])
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// Compare returns -1, 0 or +1 when v is lower than, equal to or higher than o.
func (v ComparableVersion) Compare(o ComparableVersion) int {
	return compareLists(v.items, o.items)
}

// CompareVersions parses and compares two version strings.
func CompareVersions(a, b string) (int, error) {
	va, err := ParseVersion(a)
	if err != nil {
		return 0, err
	}
	vb, err := ParseVersion(b)
	if err != nil {
		return 0, err
	}
	return va.Compare(vb), nil
}

// SortVersions sorts versions ascending in place.
// It fails without modifying the slice if any version is invalid.
func SortVersions(versions []string) error {
	parsed := make([]ComparableVersion, len(versions))
	for i, s := range versions {
		v, err := ParseVersion(s)
		if err != nil {
			return err
		}
		parsed[i] = v
	}
	sort.SliceStable(parsed, func(i, j int) bool {
		return parsed[i].Compare(parsed[j]) < 0
	})
	for i, v := range parsed {
		versions[i] = v.raw
	}
	return nil
}

func compareQualifiers(a, b string) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		return sign(ra - rb)
	}
	if ra == unknownRank {
		return strings.Compare(a, b)
	}
	return 0
}

func compareDigits(a, b string) int {
	if len(a) != len(b) {
		return sign(len(a) - len(b))
	}
	return strings.Compare(a, b)
}

func rank(q string) int {
	if r, ok := qualifierRank[q]; ok {
		return r
	}
	return unknownRank
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}

func isSeparator(r rune) bool {
	return r == '.' || r == '-'
}

func isVersionRune(r rune) bool {
	return r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '-' || r == '_' || r == '+')
}

func quoteRune(r rune) string {
	return "'" + string(r) + "'"
}

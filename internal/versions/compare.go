package versions

import (
	"cmp"
	"fmt"
	"math"
	"regexp"
	"strconv"
)

// AsteriskValue replaces a "*" component, so "3.*" sorts after every 3.x release.
const AsteriskValue = 99

// MaxVersionInt is the largest encoded version; it is what fits a BIGINT column.
const MaxVersionInt int64 = math.MaxInt64

// maxPart is the largest value a zero-padded two digit field can carry.
const maxPart = 99

var versionRe = regexp.MustCompile(`^(\d+|\*)\.?(\d+|\*)?\.?(\d+|\*)?\.?(\d+|\*)?([ab]?)(\d*)(pre)?(\d)?`)

// Dict holds the parsed components of a version string such as "3.6.2b1pre2".
// Numeric components that were not present in the string are nil.
type Dict struct {
	Major    *int
	Minor1   *int
	Minor2   *int
	Minor3   *int
	Alpha    string // "a", "b" or ""
	AlphaVer *int
	Pre      string // "pre" or ""
	PreVer   *int
}

// Parse splits a version string into its components. Strings that do not start
// with a number (or "*") produce an empty Dict.
func Parse(version string) Dict {
	m := versionRe.FindStringSubmatch(version)
	if m == nil {
		return Dict{}
	}

	return Dict{
		Major:    number(m[1]),
		Minor1:   number(m[2]),
		Minor2:   number(m[3]),
		Minor3:   number(m[4]),
		Alpha:    m[5],
		AlphaVer: number(m[6]),
		Pre:      m[7],
		PreVer:   number(m[8]),
	}
}

// Int encodes a version string as an integer whose numeric order matches the
// release order of the versions: alphas before betas before "pre" builds before
// the final release.
//
// Minor, alpha and pre components of 100 or more are clamped to 99 so each
// fits its two-digit slot. Values stored this way therefore differ from a plain
// unclamped encoding, and "1.100" encodes the same as "1.99".
func Int(version string) int64 {
	d := Parse(version)

	alpha := 2
	switch d.Alpha {
	case "a":
		alpha = 0
	case "b":
		alpha = 1
	}

	pre := 1
	if d.Pre != "" {
		pre = 0
	}

	encoded := fmt.Sprintf("%d%02d%02d%02d%d%02d%d%02d",
		valueOf(d.Major),
		part(d.Minor1),
		part(d.Minor2),
		part(d.Minor3),
		alpha,
		part(d.AlphaVer),
		pre,
		part(d.PreVer),
	)

	n, err := strconv.ParseInt(encoded, 10, 64)
	if err != nil {
		// Only a major component too large for int64 gets here.
		return MaxVersionInt
	}
	return n
}

// FromInt decodes an integer produced by Int back into its components.
func FromInt(n int64) Dict {
	rem := n
	take := func(base int64) *int {
		v := int(rem % base)
		rem /= base
		return &v
	}

	d := Dict{}
	d.PreVer = take(100)
	pre := take(10)
	d.AlphaVer = take(100)
	alpha := take(10)
	d.Minor3 = take(100)
	d.Minor2 = take(100)
	d.Minor1 = take(100)
	major := int(rem)
	d.Major = &major

	if *pre == 0 {
		d.Pre = "pre"
	}
	switch *alpha {
	case 0:
		d.Alpha = "a"
	case 1:
		d.Alpha = "b"
	}
	return d
}

// Compare returns -1, 0 or +1 depending on whether a sorts before, together with,
// or after b.
func Compare(a, b string) int {
	return cmp.Compare(Int(a), Int(b))
}

func number(s string) *int {
	if s == "" {
		return nil
	}
	if s == "*" {
		v := AsteriskValue
		return &v
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		v = math.MaxInt32
	}
	return &v
}

func valueOf(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func part(p *int) int {
	return min(valueOf(p), maxPart)
}

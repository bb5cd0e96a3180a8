package pipeline

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrPathData indicates malformed SVG path data.
var ErrPathData = errors.New("invalid path data")

// pathCommand is one command letter with all of its arguments, including the
// implicit repetitions that followed it.
type pathCommand struct {
	cmd  byte
	args []float64
}

// pathArity is the argument count of one segment per command letter.
var pathArity = map[byte]int{
	'M': 2, 'L': 2, 'T': 2,
	'H': 1, 'V': 1,
	'C': 6,
	'S': 4, 'Q': 4,
	'A': 7,
	'Z': 0,
}

func arity(cmd byte) (int, bool) {
	n, ok := pathArity[upper(cmd)]
	return n, ok
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

func isRelative(c byte) bool { return c >= 'a' && c <= 'z' }

// parsePath parses SVG path data. Commands keep the letter they were written
// with so relative and absolute forms survive a round trip.
func parsePath(d string) ([]pathCommand, error) {
	var cmds []pathCommand
	i := 0
	for {
		i = skipSeparators(d, i)
		if i >= len(d) {
			break
		}
		c := d[i]
		n, ok := arity(c)
		if !ok {
			return nil, fmt.Errorf("%w: unexpected %q at offset %d", ErrPathData, c, i)
		}
		i++

		cmd := pathCommand{cmd: c}
		for n > 0 {
			j := skipSeparators(d, i)
			if j >= len(d) || !startsNumber(d[j]) {
				break
			}
			i = j
			for k := 0; k < n; k++ {
				i = skipSeparators(d, i)
				var v float64
				var err error
				if upper(c) == 'A' && (k == 3 || k == 4) {
					v, i, err = scanFlag(d, i)
				} else {
					v, i, err = scanNumber(d, i)
				}
				if err != nil {
					return nil, err
				}
				cmd.args = append(cmd.args, v)
			}
		}
		if n > 0 && len(cmd.args) == 0 {
			return nil, fmt.Errorf("%w: %q has no arguments", ErrPathData, c)
		}
		cmds = append(cmds, cmd)
	}
	if len(cmds) > 0 && upper(cmds[0].cmd) != 'M' {
		return nil, fmt.Errorf("%w: must start with a moveto", ErrPathData)
	}
	return cmds, nil
}

func skipSeparators(s string, i int) int {
	for i < len(s) {
		switch s[i] {
		case ' ', '\t', '\n', '\r', '\f', ',':
			i++
		default:
			return i
		}
	}
	return i
}

func startsNumber(c byte) bool {
	return c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// scanNumber reads one SVG number starting at i.
func scanNumber(s string, i int) (float64, int, error) {
	start := i
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0, start, fmt.Errorf("%w: expected number at offset %d", ErrPathData, start)
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '-' || s[j] == '+') {
			j++
		}
		if j < len(s) && isDigit(s[j]) {
			for j < len(s) && isDigit(s[j]) {
				j++
			}
			i = j
		}
	}
	v, err := strconv.ParseFloat(s[start:i], 64)
	if err != nil {
		return 0, start, fmt.Errorf("%w: %v", ErrPathData, err)
	}
	return v, i, nil
}

// scanFlag reads an arc flag, which may be written without a separator.
func scanFlag(s string, i int) (float64, int, error) {
	if i < len(s) && (s[i] == '0' || s[i] == '1') {
		return float64(s[i] - '0'), i + 1, nil
	}
	return 0, i, fmt.Errorf("%w: expected arc flag at offset %d", ErrPathData, i)
}

// ---------------------------------------------------------------------------
// Formatting
// ---------------------------------------------------------------------------

// roundSignificant rounds v to precision significant digits without ever
// dropping integer digits: 1234.5 stays 1235 at precision 3.
func roundSignificant(v float64, precision int) float64 {
	if v == 0 || math.IsInf(v, 0) || math.IsNaN(v) || precision <= 0 {
		return v
	}
	intDigits := int(math.Floor(math.Log10(math.Abs(v)))) + 1
	decimals := precision - intDigits
	if decimals < 0 {
		decimals = 0
	}
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// formatNumber renders v rounded to precision in its shortest form.
func formatNumber(v float64, precision int) string {
	s := strconv.FormatFloat(roundSignificant(v, precision), 'f', -1, 64)
	if s == "-0" {
		return "0"
	}
	return s
}

// compactNumber drops the leading zero of fractions: 0.5 -> .5.
func compactNumber(s string) string {
	switch {
	case strings.HasPrefix(s, "0."):
		return s[1:]
	case strings.HasPrefix(s, "-0."):
		return "-" + s[2:]
	}
	return s
}

// formatPath serializes commands with the minimum of separators.
func formatPath(cmds []pathCommand, precision int) string {
	var sb strings.Builder
	for _, c := range cmds {
		sb.WriteByte(c.cmd)
		prev := ""
		for k, v := range c.args {
			var s string
			if upper(c.cmd) == 'A' && (k%7 == 3 || k%7 == 4) {
				s = strconv.Itoa(int(v))
			} else {
				s = compactNumber(formatNumber(v, precision))
			}
			if k > 0 && needsSeparator(prev, s) {
				sb.WriteByte(' ')
			}
			sb.WriteString(s)
			prev = s
		}
	}
	return sb.String()
}

func needsSeparator(prev, next string) bool {
	if strings.HasPrefix(next, "-") {
		return false
	}
	if strings.HasPrefix(next, ".") && strings.Contains(prev, ".") {
		return false
	}
	return true
}

// ---------------------------------------------------------------------------
// Transforms
// ---------------------------------------------------------------------------

// matrix is an affine transform [a b c d e f] mapping (x, y) to
// (a*x + c*y + e, b*x + d*y + f).
type matrix [6]float64

var identity = matrix{1, 0, 0, 1, 0, 0}

func (m matrix) mul(n matrix) matrix {
	return matrix{
		m[0]*n[0] + m[2]*n[1],
		m[1]*n[0] + m[3]*n[1],
		m[0]*n[2] + m[2]*n[3],
		m[1]*n[2] + m[3]*n[3],
		m[0]*n[4] + m[2]*n[5] + m[4],
		m[1]*n[4] + m[3]*n[5] + m[5],
	}
}

// axisAligned reports whether m only translates and scales by positive
// factors, the only transforms folded into coordinates.
func (m matrix) axisAligned() bool {
	return m[1] == 0 && m[2] == 0 && m[0] > 0 && m[3] > 0
}

func (m matrix) uniform() bool { return m[0] == m[3] }

func (m matrix) point(x, y float64) (float64, float64) {
	return m[0]*x + m[4], m[3]*y + m[5]
}

// parseTransform parses a transform attribute into a single matrix.
func parseTransform(s string) (matrix, error) {
	m := identity
	rest := strings.TrimSpace(s)
	for rest != "" {
		open := strings.IndexByte(rest, '(')
		closing := strings.IndexByte(rest, ')')
		if open < 0 || closing < open {
			return m, fmt.Errorf("invalid transform %q", s)
		}
		name := strings.TrimSpace(rest[:open])
		args, err := parseNumberList(rest[open+1 : closing])
		if err != nil {
			return m, err
		}
		next, err := transformMatrix(name, args)
		if err != nil {
			return m, err
		}
		m = m.mul(next)
		rest = strings.TrimLeft(rest[closing+1:], " \t\n\r,")
	}
	return m, nil
}

func transformMatrix(name string, a []float64) (matrix, error) {
	switch {
	case name == "matrix" && len(a) == 6:
		return matrix{a[0], a[1], a[2], a[3], a[4], a[5]}, nil
	case name == "translate" && len(a) == 1:
		return matrix{1, 0, 0, 1, a[0], 0}, nil
	case name == "translate" && len(a) == 2:
		return matrix{1, 0, 0, 1, a[0], a[1]}, nil
	case name == "scale" && len(a) == 1:
		return matrix{a[0], 0, 0, a[0], 0, 0}, nil
	case name == "scale" && len(a) == 2:
		return matrix{a[0], 0, 0, a[1], 0, 0}, nil
	case name == "rotate" && len(a) == 1:
		r := a[0] * math.Pi / 180
		sin, cos := math.Sincos(r)
		return matrix{cos, sin, -sin, cos, 0, 0}, nil
	case name == "rotate" && len(a) == 3:
		r := a[0] * math.Pi / 180
		sin, cos := math.Sincos(r)
		rot := matrix{cos, sin, -sin, cos, 0, 0}
		return matrix{1, 0, 0, 1, a[1], a[2]}.mul(rot).mul(matrix{1, 0, 0, 1, -a[1], -a[2]}), nil
	case name == "skewX" && len(a) == 1:
		return matrix{1, 0, math.Tan(a[0] * math.Pi / 180), 1, 0, 0}, nil
	case name == "skewY" && len(a) == 1:
		return matrix{1, math.Tan(a[0] * math.Pi / 180), 0, 1, 0, 0}, nil
	}
	return identity, fmt.Errorf("invalid transform function %s with %d arguments", name, len(a))
}

// parseNumberList parses whitespace or comma separated numbers.
func parseNumberList(s string) ([]float64, error) {
	var out []float64
	i := 0
	for {
		i = skipSeparators(s, i)
		if i >= len(s) {
			return out, nil
		}
		v, next, err := scanNumber(s, i)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		i = next
	}
}

// transformPath applies m to every coordinate in place. It reports false,
// leaving cmds untouched, when the path has arcs and m scales unevenly.
func transformPath(cmds []pathCommand, m matrix) bool {
	if !m.uniform() {
		for _, c := range cmds {
			if upper(c.cmd) == 'A' {
				return false
			}
		}
	}

	for i, c := range cmds {
		rel := isRelative(c.cmd)
		n, _ := arity(c.cmd)
		for s := 0; n > 0 && s+n <= len(c.args); s += n {
			seg := c.args[s : s+n]
			// The first pair of a leading relative moveto is absolute.
			abs := !rel || (i == 0 && s == 0)
			switch upper(c.cmd) {
			case 'H':
				seg[0] = scaleCoord(seg[0], m[0], m[4], abs)
			case 'V':
				seg[0] = scaleCoord(seg[0], m[3], m[5], abs)
			case 'A':
				seg[0] *= m[0]
				seg[1] *= m[3]
				seg[5] = scaleCoord(seg[5], m[0], m[4], abs)
				seg[6] = scaleCoord(seg[6], m[3], m[5], abs)
			default:
				for k := 0; k+1 < n; k += 2 {
					seg[k] = scaleCoord(seg[k], m[0], m[4], abs)
					seg[k+1] = scaleCoord(seg[k+1], m[3], m[5], abs)
				}
			}
		}
	}
	return true
}

func scaleCoord(v, scale, offset float64, abs bool) float64 {
	if abs {
		return v*scale + offset
	}
	return v * scale
}

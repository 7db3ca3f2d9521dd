package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	perrors "option-pricer/internal/errors"
)

// FormatPrice formats a price with fixed decimals, keeping infinities
// readable.
func FormatPrice(v float64, precision int) string {
	switch {
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	case math.IsNaN(v):
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', precision, 64)
}

// Float is a float64 that survives JSON when it overflows. Finite values
// encode as numbers, infinities and NaN as the strings "+Inf", "-Inf" and
// "NaN". YAML encodes it natively.
type Float float64

// MarshalJSON implements json.Marshaler.
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return []byte(strconv.Quote(FormatPrice(v, 0))), nil
	}
	return []byte(strconv.FormatFloat(v, 'g', -1, 64)), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Float) UnmarshalJSON(data []byte) error {
	text := string(data)
	if unquoted, err := strconv.Unquote(text); err == nil {
		text = unquoted
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return fmt.Errorf("decoding price %s: %w", data, err)
	}
	*f = Float(v)
	return nil
}

// FormatPercent formats a fraction as a percentage.
func FormatPercent(v float64) string {
	return strconv.FormatFloat(v*100, 'f', 2, 64) + "%"
}

// Describe turns an error into a user-facing message. Payoff errors get the
// expression echoed with a caret under the offending position.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var le *perrors.LexError
	if perrors.As(err, &le) {
		return le.Error() + "\n" + caret(le.Expression, le.Position)
	}
	var pe *perrors.ParseError
	if perrors.As(err, &pe) {
		return pe.Error() + "\n" + caret(pe.Expression, pe.Position)
	}
	var ve *perrors.ValidationError
	if perrors.As(err, &ve) {
		return "invalid " + strings.ReplaceAll(ve.Field, "_", " ") + ": " + ve.Reason.Error() + " (got " + formatValue(ve.Value) + ")"
	}
	return err.Error()
}

func formatValue(v interface{}) string {
	if v == nil {
		return "nothing"
	}
	return fmt.Sprint(v)
}

func caret(expression string, position int) string {
	if position > len(expression) {
		position = len(expression)
	}
	// Keep tabs so the caret lines up under tab-indented input.
	var pad strings.Builder
	for _, r := range expression[:position] {
		if r == '\t' {
			pad.WriteByte('\t')
		} else {
			pad.WriteByte(' ')
		}
	}
	return "  " + expression + "\n  " + pad.String() + "^"
}

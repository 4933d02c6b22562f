// Package label parses raw prediction labels into a closed set of kinds.
package label

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Kind discriminates the parsed label variants.
type Kind int

// Label variants.
const (
	Absent Kind = iota
	NumericIndex
	BinaryWord
	Descriptive
)

func (k Kind) String() string {
	switch k {
	case Absent:
		return "absent"
	case NumericIndex:
		return "numeric_index"
	case BinaryWord:
		return "binary_word"
	case Descriptive:
		return "descriptive"
	default:
		return "unknown"
	}
}

// normalClassIndex is the class index the ECG models assign to a normal rhythm.
const normalClassIndex = 3

// Label is a parsed prediction label. Index is meaningful for NumericIndex,
// Text (folded) for BinaryWord and Descriptive.
type Label struct {
	Kind  Kind
	Index int
	Text  string
}

var folder = cases.Fold() //nolint:gochecknoglobals // stateless case folder

// Parse classifies raw. Empty or blank input is Absent. Only a label made
// entirely of digits, with no surrounding space, is a class index.
func Parse(raw string) Label {
	n := norm.NFKC.String(raw)
	s := strings.TrimSpace(n)
	if s == "" {
		return Label{Kind: Absent}
	}
	if isDigits(n) {
		i, err := strconv.Atoi(n)
		if err == nil {
			return Label{Kind: NumericIndex, Index: i}
		}
		// too many digits for an int: not the index of any real class
		return Label{Kind: NumericIndex, Index: -1}
	}
	folded := folder.String(s)
	switch folded {
	case "normal", "abnormal", "mi":
		return Label{Kind: BinaryWord, Text: folded}
	}
	return Label{Kind: Descriptive, Text: folded}
}

// Risk maps a label to a canonical risk used when no numeric score is
// available. Words are matched on the substring "normal", so "Abnormal"
// maps to 0.0 like "Normal".
func (l Label) Risk() float64 {
	switch l.Kind {
	case NumericIndex:
		if l.Index == normalClassIndex {
			return 0.0
		}
		return 1.0
	case BinaryWord, Descriptive:
		if strings.Contains(l.Text, "normal") {
			return 0.0
		}
		return 1.0
	default:
		return 0.5
	}
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

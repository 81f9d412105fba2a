package winmodel

import "sort"

// UnknownCode is the code assigned to categories never seen in training. It
// deliberately equals the code of the first trained class so predictions
// match the behaviour the model was validated with.
const UnknownCode = 0

// Encoder maps category labels to integer codes by sorted class order.
type Encoder struct {
	classes []string
	index   map[string]int
}

// FitEncoder builds an encoder over the distinct values, sorted.
func FitEncoder(values []string) *Encoder {
	seen := make(map[string]struct{}, len(values))
	var classes []string
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		classes = append(classes, v)
	}
	sort.Strings(classes)
	return NewEncoder(classes)
}

// NewEncoder restores an encoder from its class list; codes follow list order.
func NewEncoder(classes []string) *Encoder {
	e := &Encoder{
		classes: append([]string(nil), classes...),
		index:   make(map[string]int, len(classes)),
	}
	for i, c := range e.classes {
		e.index[c] = i
	}
	return e
}

// Encode returns the code for value and whether it was seen in training.
// Unseen values encode to UnknownCode.
func (e *Encoder) Encode(value string) (int, bool) {
	code, ok := e.index[value]
	if !ok {
		return UnknownCode, false
	}
	return code, true
}

// Classes returns the trained labels in code order.
func (e *Encoder) Classes() []string {
	return append([]string(nil), e.classes...)
}

package domain

import (
	"fmt"
	"strings"
)

// Source names one of the independent backing databases.
type Source string

const (
	SourcePrimary Source = "PRIMARY"
	SourceBolt    Source = "BOLT"
	SourceOld     Source = "OLD"
)

// SourceOrder is the merge precedence order. Later sources win ties.
var SourceOrder = []Source{SourcePrimary, SourceBolt, SourceOld}

// ParseSource accepts a source name in any letter case.
func ParseSource(s string) (Source, error) {
	switch Source(strings.ToUpper(strings.TrimSpace(s))) {
	case SourcePrimary:
		return SourcePrimary, nil
	case SourceBolt:
		return SourceBolt, nil
	case SourceOld:
		return SourceOld, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSource, s)
}

func (s Source) String() string {
	return string(s)
}

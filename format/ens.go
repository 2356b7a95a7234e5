package format

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var (
	rxEnsMember = regexp.MustCompile(`^(.*)\{ens_member(?::([0-9]*d?))?\}(.*)$`)
	rxIntFormat = regexp.MustCompile(`^(0?[0-9]*)d?$`)
)

// minRun is the shortest run of consecutive numbers condensed to a range.
const minRun = 3

// NumbersRange joins numbers, condensing every run of at least three
// consecutive numbers into "first<joinRange>last". Runs and single numbers
// are separated by joinOthers. intFmt is an integer format such as "03d";
// empty means plain "%d".
func NumbersRange(numbers []int, intFmt, joinRange, joinOthers string) (string, error) {
	m := rxIntFormat.FindStringSubmatch(intFmt)
	if m == nil {
		return "", fmt.Errorf("%w: '%s'", ErrInvalidFormat, intFmt)
	}
	verb := "%" + m[1] + "d"

	var parts []string
	for i := 0; i < len(numbers); {
		j := i + 1
		for j < len(numbers) && numbers[j] == numbers[j-1]+1 {
			j++
		}
		if j-i >= minRun {
			parts = append(parts, fmt.Sprintf(verb, numbers[i])+joinRange+fmt.Sprintf(verb, numbers[j-1]))
		} else {
			for _, n := range numbers[i:j] {
				parts = append(parts, fmt.Sprintf(verb, n))
			}
		}
		i = j
	}
	return strings.Join(parts, joinOthers), nil
}

// EnsFilePath condenses the {ens_member[:fmt]} placeholder of an ensemble
// input file path into the member ids, e.g. "mem{ens_member:02d}.nc" with
// ids 0..21 becomes "mem{00..21}.nc". With nil ids the path is returned
// unchanged.
func EnsFilePath(path string, memberIDs []int) (string, error) {
	if memberIDs == nil {
		return path, nil
	}
	m := rxEnsMember.FindStringSubmatch(path)
	if m == nil {
		return "", fmt.Errorf("%w: %s", ErrNoPlaceholder, path)
	}
	ids := append([]int(nil), memberIDs...)
	sort.Ints(ids)
	s, err := NumbersRange(ids, m[2], "..", ",")
	if err != nil {
		return "", err
	}
	return m[1] + "{" + s + "}" + m[3], nil
}

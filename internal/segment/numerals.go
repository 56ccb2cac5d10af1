package segment

import (
	"strconv"
	"strings"
)

var romanValues = map[byte]int{
	'I': 1, 'V': 5, 'X': 10, 'L': 50,
	'C': 100, 'D': 500, 'M': 1000,
}

// parseNumeral converts an arabic or roman chapter numeral to an integer.
// Returns 0 for anything that is not a canonical numeral, which keeps
// words such as "civil" from parsing as roman numbers.
func parseNumeral(s string) int {
	if s == "" {
		return 0
	}
	if s[0] >= '0' && s[0] <= '9' {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0
		}
		return n
	}

	upper := strings.ToUpper(s)
	n := romanToArabic(upper)
	if n == 0 || arabicToRoman(n) != upper {
		return 0
	}
	return n
}

// romanToArabic converts a roman numeral string to its integer value.
// Returns 0 for invalid input.
func romanToArabic(roman string) int {
	total := 0
	for i := 0; i < len(roman); i++ {
		current, ok := romanValues[roman[i]]
		if !ok {
			return 0
		}
		if i+1 < len(roman) {
			if next, ok := romanValues[roman[i+1]]; ok && current < next {
				total -= current
				continue
			}
		}
		total += current
	}
	return total
}

var romanTable = []struct {
	value  int
	symbol string
}{
	{1000, "M"}, {900, "CM"}, {500, "D"}, {400, "CD"},
	{100, "C"}, {90, "XC"}, {50, "L"}, {40, "XL"},
	{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"},
}

func arabicToRoman(n int) string {
	var b strings.Builder
	for _, r := range romanTable {
		for n >= r.value {
			b.WriteString(r.symbol)
			n -= r.value
		}
	}
	return b.String()
}

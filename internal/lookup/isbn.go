package lookup

import "strings"

// CleanISBN removes hyphens and spaces and upper-cases the check character
func CleanISBN(isbn string) string {
	isbn = strings.TrimSpace(isbn)
	isbn = strings.NewReplacer("-", "", " ", "").Replace(isbn)
	return strings.ToUpper(isbn)
}

// ValidISBN reports whether a cleaned value is a checksum-valid ISBN-10 or ISBN-13
func ValidISBN(isbn string) bool {
	switch len(isbn) {
	case 10:
		return validISBN10(isbn)
	case 13:
		return validISBN13(isbn)
	}
	return false
}

func validISBN10(isbn string) bool {
	sum := 0
	for i := 0; i < 10; i++ {
		c := isbn[i]
		var v int
		switch {
		case c >= '0' && c <= '9':
			v = int(c - '0')
		case c == 'X' && i == 9:
			v = 10
		default:
			return false
		}
		sum += v * (10 - i)
	}
	return sum%11 == 0
}

func validISBN13(isbn string) bool {
	sum := 0
	for i := 0; i < 13; i++ {
		c := isbn[i]
		if c < '0' || c > '9' {
			return false
		}
		v := int(c - '0')
		if i%2 == 1 {
			v *= 3
		}
		sum += v
	}
	return sum%10 == 0
}

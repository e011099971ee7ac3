package horoscope

import (
	"strings"

	apperrors "github.com/astromitra/astromitra/pkg/errors"
)

// Sign identifies one of the twelve zodiac signs. Values are stored
// lowercase; parsing is case-insensitive.
type Sign string

const (
	Aries       Sign = "aries"
	Taurus      Sign = "taurus"
	Gemini      Sign = "gemini"
	Cancer      Sign = "cancer"
	Leo         Sign = "leo"
	Virgo       Sign = "virgo"
	Libra       Sign = "libra"
	Scorpio     Sign = "scorpio"
	Sagittarius Sign = "sagittarius"
	Capricorn   Sign = "capricorn"
	Aquarius    Sign = "aquarius"
	Pisces      Sign = "pisces"
)

var allSigns = []Sign{
	Aries, Taurus, Gemini, Cancer, Leo, Virgo,
	Libra, Scorpio, Sagittarius, Capricorn, Aquarius, Pisces,
}

// Signs returns the twelve signs in zodiacal order. Callers must not
// mutate the returned slice.
func Signs() []Sign {
	return allSigns
}

// ParseSign canonicalises user input to a Sign.
func ParseSign(value string) (Sign, error) {
	candidate := Sign(strings.ToLower(strings.TrimSpace(value)))
	for _, sign := range allSigns {
		if sign == candidate {
			return sign, nil
		}
	}
	return "", apperrors.ErrInvalidSign
}

// Display returns the capitalised form expected by the astrology engine.
func (s Sign) Display() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// Period is the refresh cadence of a horoscope cache line.
type Period string

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
	Yearly  Period = "yearly"
)

var allPeriods = []Period{Daily, Weekly, Monthly, Yearly}

// Periods returns the four supported periods. Callers must not mutate the
// returned slice.
func Periods() []Period {
	return allPeriods
}

// ParsePeriod canonicalises user input to a Period.
func ParsePeriod(value string) (Period, error) {
	candidate := Period(strings.ToLower(strings.TrimSpace(value)))
	for _, period := range allPeriods {
		if period == candidate {
			return period, nil
		}
	}
	return "", apperrors.ErrInvalidPeriod
}

package domain

import "strings"

// Sign is one of the twelve zodiac categories a reading is written for.
type Sign string

const (
	Aries       Sign = "Aries"
	Taurus      Sign = "Taurus"
	Gemini      Sign = "Gemini"
	Cancer      Sign = "Cancer"
	Leo         Sign = "Leo"
	Virgo       Sign = "Virgo"
	Libra       Sign = "Libra"
	Scorpio     Sign = "Scorpio"
	Sagittarius Sign = "Sagittarius"
	Capricorn   Sign = "Capricorn"
	Aquarius    Sign = "Aquarius"
	Pisces      Sign = "Pisces"
)

// Family groups signs by element.
type Family string

const (
	FamilyNone  Family = ""
	FamilyFire  Family = "fire"
	FamilyEarth Family = "earth"
	FamilyAir   Family = "air"
	FamilyWater Family = "water"
)

var signFamilies = map[Sign]Family{
	Aries: FamilyFire, Leo: FamilyFire, Sagittarius: FamilyFire,
	Taurus: FamilyEarth, Virgo: FamilyEarth, Capricorn: FamilyEarth,
	Gemini: FamilyAir, Libra: FamilyAir, Aquarius: FamilyAir,
	Cancer: FamilyWater, Scorpio: FamilyWater, Pisces: FamilyWater,
}

// Signs lists every sign in zodiac order.
func Signs() []Sign {
	return []Sign{Aries, Taurus, Gemini, Cancer, Leo, Virgo, Libra, Scorpio, Sagittarius, Capricorn, Aquarius, Pisces}
}

// ParseSign matches s case-insensitively against the twelve signs.
func ParseSign(s string) (Sign, bool) {
	t := strings.TrimSpace(s)
	for sign := range signFamilies {
		if strings.EqualFold(string(sign), t) {
			return sign, true
		}
	}
	return "", false
}

// Family returns the sign's element, or FamilyNone for unknown signs.
func (s Sign) Family() Family {
	return signFamilies[s]
}

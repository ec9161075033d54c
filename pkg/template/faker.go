package template

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// resolveFaker generates a value for a faker.<name> placeholder.
// Unknown names are reported as unrecognized so the placeholder stays verbatim.
func resolveFaker(name string) (string, bool) {
	switch name {
	case "id":
		return uuid.NewString(), true
	case "name":
		return pick(firstNames) + " " + pick(lastNames), true
	case "firstName":
		return pick(firstNames), true
	case "lastName":
		return pick(lastNames), true
	case "email":
		return fmt.Sprintf("%s.%s%d@%s",
			strings.ToLower(pick(firstNames)),
			strings.ToLower(pick(lastNames)),
			rand.IntN(100),
			pick(emailDomains)), true
	case "phone":
		return fmt.Sprintf("+1-555-%03d-%04d", rand.IntN(1000), rand.IntN(10000)), true
	case "number":
		return strconv.Itoa(rand.IntN(1000) + 1), true
	case "boolean":
		return strconv.FormatBool(rand.IntN(2) == 0), true
	case "date":
		past := time.Now().AddDate(0, 0, -rand.IntN(365))
		return past.Format("2006-01-02"), true
	case "timestamp":
		return time.Now().UTC().Format(time.RFC3339), true
	case "company":
		return pick(companyNames), true
	case "title":
		return pick(jobTitles), true
	case "url":
		return "https://www." + fakeSlug() + ".com", true
	case "avatar":
		return fmt.Sprintf("https://i.pravatar.cc/150?u=%08x", rand.Uint32()), true
	case "color":
		return fmt.Sprintf("#%06x", rand.IntN(0x1000000)), true
	case "ip":
		return fmt.Sprintf("%d.%d.%d.%d",
			rand.IntN(254)+1, rand.IntN(256), rand.IntN(256), rand.IntN(254)+1), true
	case "slug":
		return fakeSlug(), true
	case "lorem":
		return fakeSentence(), true
	case "paragraph":
		return fakeSentence() + " " + fakeSentence() + " " + fakeSentence(), true
	}
	return "", false
}

func pick(list []string) string {
	return list[rand.IntN(len(list))]
}

func fakeSlug() string {
	return pick(loremWords) + "-" + pick(loremWords)
}

// fakeSentence builds a capitalized sentence of 8 to 12 lorem words.
func fakeSentence() string {
	count := 8 + rand.IntN(5)
	words := make([]string, count)
	for i := range words {
		words[i] = pick(loremWords)
	}
	sentence := strings.Join(words, " ")
	return strings.ToUpper(sentence[:1]) + sentence[1:] + "."
}

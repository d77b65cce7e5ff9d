package pricing

import "strings"

var nigerianStates = []string{
	"Abia", "Adamawa", "Akwa Ibom", "Anambra", "Bauchi", "Bayelsa", "Benue",
	"Borno", "Cross River", "Delta", "Ebonyi", "Edo", "Ekiti", "Enugu",
	"Gombe", "Imo", "Jigawa", "Kaduna", "Kano", "Katsina", "Kebbi", "Kogi",
	"Kwara", "Lagos", "Nasarawa", "Niger", "Ogun", "Ondo", "Osun", "Oyo",
	"Plateau", "Rivers", "Sokoto", "Taraba", "Yobe", "Zamfara", "FCT",
}

// States returns the selectable delivery states in display order.
func States() []string {
	out := make([]string, len(nigerianStates))
	copy(out, nigerianStates)
	return out
}

func ValidState(name string) bool {
	normalized := normalizeRegion(name)
	for _, s := range nigerianStates {
		if strings.ToLower(s) == normalized {
			return true
		}
	}
	return false
}

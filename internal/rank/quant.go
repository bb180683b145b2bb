package rank

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/homematch/internal/model"
)

var printer = message.NewPrinter(language.English)

// numericChecks defines the algorithmic must-have checks. Budget is an upper
// bound; everything else is a floor.
var numericChecks = []struct {
	name       string
	label      string
	lte        bool
	constraint func(*model.Requirement) float64
	value      func(*model.Listing) *float64
}{
	{
		name: "budget", label: "budget", lte: true,
		constraint: func(r *model.Requirement) float64 { return r.BudgetMax },
		value:      func(l *model.Listing) *float64 { return l.Price },
	},
	{
		name: "bedrooms", label: "beds",
		constraint: func(r *model.Requirement) float64 { return float64(r.MinBeds) },
		value:      func(l *model.Listing) *float64 { return intPtrToFloat(l.Bedrooms) },
	},
	{
		name: "bathrooms", label: "baths",
		constraint: func(r *model.Requirement) float64 { return float64(r.MinBaths) },
		value:      func(l *model.Listing) *float64 { return l.Bathrooms },
	},
	{
		name: "sqft", label: "sqft",
		constraint: func(r *model.Requirement) float64 { return float64(r.MinSqft) },
		value:      func(l *model.Listing) *float64 { return intPtrToFloat(l.Sqft) },
	},
}

func intPtrToFloat(p *int) *float64 {
	if p == nil {
		return nil
	}
	f := float64(*p)
	return &f
}

// formatValue renders a check value for human-readable reasons. Budget and
// sqft get digit grouping so agents can read "$1,250,000" at a glance.
func formatValue(value float64, label string) string {
	switch label {
	case "budget":
		return printer.Sprintf("$%.0f", value)
	case "sqft":
		return printer.Sprintf("%d", int(value))
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func checkNumeric(value *float64, constraint float64, label string, lte bool) model.CheckResult {
	if constraint == 0 {
		return model.CheckResult{Pass: true, Reason: fmt.Sprintf("No %s constraint", label)}
	}
	if value == nil {
		return model.CheckResult{Pass: false, Reason: fmt.Sprintf("Listing has no %s data", label)}
	}

	var passed bool
	var op string
	if lte {
		passed = *value <= constraint
		op = "<="
		if !passed {
			op = ">"
		}
	} else {
		passed = *value >= constraint
		op = ">="
		if !passed {
			op = "<"
		}
	}

	lv := formatValue(*value, label)
	cv := formatValue(constraint, label)
	return model.CheckResult{
		Pass:   passed,
		Reason: fmt.Sprintf("%s %s %s %s required", lv, label, op, cv),
	}
}

func checkPropertyType(listing *model.Listing, req *model.Requirement) model.CheckResult {
	if strings.TrimSpace(req.PropertyType) == "" {
		return model.CheckResult{Pass: true, Reason: "No property type constraint"}
	}
	if listing.PropertyType == "" {
		return model.CheckResult{Pass: false, Reason: "Listing has no property type data"}
	}
	passed := strings.EqualFold(strings.TrimSpace(listing.PropertyType), strings.TrimSpace(req.PropertyType))
	verb := "matches"
	if !passed {
		verb = "does not match"
	}
	return model.CheckResult{
		Pass:   passed,
		Reason: fmt.Sprintf("Type '%s' %s required '%s'", listing.PropertyType, verb, req.PropertyType),
	}
}

// QuantitativeChecks runs every algorithmic must-have check for one listing.
func QuantitativeChecks(listing *model.Listing, req *model.Requirement) map[string]model.CheckResult {
	checks := make(map[string]model.CheckResult, len(numericChecks)+1)
	for _, c := range numericChecks {
		checks[c.name] = checkNumeric(c.value(listing), c.constraint(req), c.label, c.lte)
	}
	checks["property_type"] = checkPropertyType(listing, req)
	return checks
}

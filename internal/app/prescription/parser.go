/*
Package prescription turns scanned prescription images into structured
medication entries: the image is archived in object storage, text is
extracted by the OCR collaborator, and medication lines are parsed and
persisted locally.

This file holds the medication line parser.
*/
package prescription

import (
	"regexp"
	"strings"
)

// Medication is one parsed entry from prescription text.
type Medication struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
}

// medicationPattern matches lines like "Dolo 650 - 1 tablet as needed":
// a name, a dosage (amount with unit, bare number, or tablet/capsule
// phrasing), and a frequency phrase.
var medicationPattern = regexp.MustCompile(
	`(?i)([A-Za-z\s]+)\s*-?\s*(\d+\s?[a-zA-Z]+|\d+\.\d+\s?[a-zA-Z]+|\d+|\w+\stablet|\w+\scapsule)\s*(daily|twice daily|with meals|every\s\d+\shours|as needed|before meals|after meals|at bedtime|in the morning|[\w\s]+)`,
)

// ParseMedications extracts every medication entry found in free text.
// Unrecognized lines are skipped; an empty slice means nothing matched.
func ParseMedications(text string) []Medication {
	matches := medicationPattern.FindAllStringSubmatch(text, -1)

	medications := make([]Medication, 0, len(matches))
	for _, match := range matches {
		if len(match) < 4 {
			continue
		}

		medications = append(medications, Medication{
			Name:      strings.TrimSpace(match[1]),
			Dosage:    strings.TrimSpace(match[2]),
			Frequency: strings.TrimSpace(match[3]),
		})
	}

	return medications
}
